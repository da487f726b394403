// Package api exposes the approval-event HTTP surface: video upload, the
// pending-activity queue, approve/reject decisions, results, and the admin
// dashboard.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/db"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/flow"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/monitoring"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/optimize"
)

// ActivityStore is the repository the handlers persist approval events
// through. *db.DB satisfies it; tests may substitute their own.
type ActivityStore interface {
	CreateActivity(a *db.Activity) error
	GetActivity(id string) (*db.Activity, error)
	ListPendingActivities() ([]*db.Activity, error)
	ListApprovedActivities() ([]*db.Activity, error)
	ApproveActivity(id string, flowCounts, timingPlan json.RawMessage) error
	RejectActivity(id string) error
	TrackUser(userID string) error
	RecordAction(text string) error
	RecentActions(limit int) ([]db.Action, error)
	Stats() (db.DashboardStats, error)
}

// FlowEstimator runs the four directional pipelines for one approval event.
// *flow.Coordinator satisfies it.
type FlowEstimator interface {
	Estimate(ctx context.Context, videos flow.VideoSet) flow.FlowReport
}

// Server wires the store, the flow estimation coordinator, and the timing
// optimizer behind the HTTP mux.
type Server struct {
	store     ActivityStore
	flows     FlowEstimator
	optimizer optimize.Optimizer
	uploadDir string
}

// NewServer creates an API server rooted at uploadDir for video storage.
func NewServer(store ActivityStore, flows FlowEstimator, optimizer optimize.Optimizer, uploadDir string) *Server {
	return &Server{
		store:     store,
		flows:     flows,
		optimizer: optimizer,
		uploadDir: uploadDir,
	}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /activities", s.listActivities)
	mux.HandleFunc("POST /activities/{id}/approve", s.approveActivity)
	mux.HandleFunc("POST /activities/{id}/reject", s.rejectActivity)
	mux.HandleFunc("GET /results/{id}", s.showResults)
	mux.HandleFunc("GET /videos/{id}/{file}", s.serveVideo)
	mux.HandleFunc("GET /dashboard/stats", s.showStats)
	mux.HandleFunc("GET /dashboard/recent-activity", s.showRecentActivity)
	mux.HandleFunc("GET /reports", s.listReports)
	mux.HandleFunc("GET /reports/{id}/chart", s.renderReportChart)
	mux.HandleFunc("GET /{$}", s.home)
	return mux
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"message":"Server is running!"}` + "\n"))
}

// ANSI escape codes for request logging
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration for every request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}
