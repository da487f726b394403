// Command trafficd runs the AI traffic system backend: it accepts directional
// video uploads, estimates per-approach vehicle flow with a YOLO detector when
// an activity is approved, and persists the optimizer's signal timing plan.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/api"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/db"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/detect"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/flow"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/optimize"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode: replay fixture counts instead of decoding video")
	listen     = flag.String("listen", ":5000", "Listen address")
	dbFile     = flag.String("db", "traffic_data.db", "Path to the sqlite database")
	uploadDir  = flag.String("uploads", "uploads", "Directory for uploaded videos")
	weights    = flag.String("weights", "yolov4-tiny.weights", "Path to the detector weights")
	modelCfg   = flag.String("model-config", "yolov4-tiny.cfg", "Path to the detector network config")
	classes    = flag.String("classes", "classes.txt", "Path to the class vocabulary file")
	fixtures   = flag.String("fixtures", "fixtures.txt", "Per-frame counts fixture (dev mode)")
	dirTimeout = flag.Duration("direction-timeout", 5*time.Minute, "Wall-clock bound per directional pipeline (0 disables)")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	log.Printf("trafficd %s (%s)", version.Version, version.GitSHA)

	if err := os.MkdirAll(*uploadDir, 0o755); err != nil {
		log.Fatalf("failed to create upload directory: %v", err)
	}

	// Pick the video source. Dev mode replays a counts fixture through the
	// same pipeline path so the whole service can run without OpenCV or
	// model assets; production opens each video through the detector.
	var open flow.OpenFunc
	if *devMode {
		data, err := os.ReadFile(*fixtures)
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		open, err = flow.NewFixtureOpener(data, 100*time.Millisecond)
		if err != nil {
			log.Fatalf("failed to parse fixtures file: %v", err)
		}
	} else {
		// Model assets and the class vocabulary load once here; a
		// vocabulary without the class of interest aborts startup
		// before any video is opened.
		detector, err := detect.New(detect.Config{
			WeightsPath: *weights,
			ModelConfig: *modelCfg,
			ClassesPath: *classes,
		})
		if err != nil {
			log.Fatalf("failed to initialise detector: %v", err)
		}
		defer detector.Close()
		open = detector.Opener()
	}

	coordinator := flow.NewCoordinator(open)
	coordinator.Timeout = *dirTimeout

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		apiServer := api.NewServer(database, coordinator, optimize.DefaultGreenSplit(), *uploadDir)
		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(apiServer.ServeMux()),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
