// Package detect wraps a single pretrained YOLO object detector behind a
// per-frame counting interface. The model, its topology, and the class
// vocabulary are loaded once at process start and are immutable afterwards; a
// change requires a restart.
package detect

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/monitoring"
)

// Detection thresholds and input geometry are fixed for this system.
const (
	ConfThreshold = 0.4
	NMSThreshold  = 0.4
	InputSize     = 416
)

// DefaultClass is the detector's class of interest.
const DefaultClass = "car"

// Detection is one labeled object found in a frame.
type Detection struct {
	Label      string
	Confidence float32
	Box        image.Rectangle
}

// Config locates the model assets and names the class of interest.
type Config struct {
	WeightsPath string
	ModelConfig string
	ClassesPath string
	Class       string // defaults to DefaultClass
}

// Detector runs the loaded network over single frames. The evaluation path of
// an OpenCV net is not reentrant, so Detect serialises concurrent callers on a
// mutex; the four directional pipelines share one instance safely at the cost
// of serialised inference.
type Detector struct {
	mu      sync.Mutex
	net     gocv.Net
	classes []string
	class   string
	backend string
	outputs []string
}

// New loads the vocabulary and the network, then negotiates the execution
// backend once: CUDA if it initialises, otherwise the default CPU path. The
// choice is fixed for the process lifetime. A vocabulary missing the class of
// interest or unreadable model assets abort startup.
func New(cfg Config) (*Detector, error) {
	if cfg.Class == "" {
		cfg.Class = DefaultClass
	}

	classes, err := LoadVocabulary(cfg.ClassesPath, cfg.Class)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNet(cfg.WeightsPath, cfg.ModelConfig)
	if net.Empty() {
		return nil, fmt.Errorf("read network from %s / %s: model assets missing or corrupt", cfg.WeightsPath, cfg.ModelConfig)
	}

	backend := "cuda-fp16"
	if err := net.SetPreferableBackend(gocv.NetBackendCUDA); err != nil {
		backend = ""
	} else if err := net.SetPreferableTarget(gocv.NetTargetCUDAFP16); err != nil {
		backend = ""
	}
	if backend == "" {
		if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
			net.Close()
			return nil, fmt.Errorf("set default backend: %w", err)
		}
		if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
			net.Close()
			return nil, fmt.Errorf("set cpu target: %w", err)
		}
		backend = "cpu"
	}
	monitoring.Logf("detector initialised: backend=%s classes=%d class=%q", backend, len(classes), cfg.Class)

	d := &Detector{
		net:     net,
		classes: classes,
		class:   cfg.Class,
		backend: backend,
	}
	d.outputs = d.outputLayerNames()
	return d, nil
}

// Backend reports the execution backend negotiated at startup.
func (d *Detector) Backend() string {
	return d.backend
}

// Class returns the class of interest.
func (d *Detector) Class() string {
	return d.class
}

// Close releases the network.
func (d *Detector) Close() error {
	return d.net.Close()
}

func (d *Detector) outputLayerNames() []string {
	var names []string
	for _, i := range d.net.GetUnconnectedOutLayers() {
		layer := d.net.GetLayer(i)
		name := layer.GetName()
		if name != "" && name != "_input" {
			names = append(names, name)
		}
	}
	return names
}

// Detect runs the network over one frame and returns the surviving
// detections after confidence filtering and non-max suppression.
func (d *Detector) Detect(frame gocv.Mat) ([]Detection, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(InputSize, InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	outs := d.net.ForwardLayers(d.outputs)
	defer func() {
		for i := range outs {
			outs[i].Close()
		}
	}()

	var (
		boxes       []image.Rectangle
		confidences []float32
		classIDs    []int
	)
	width := float32(frame.Cols())
	height := float32(frame.Rows())

	for _, out := range outs {
		for row := 0; row < out.Rows(); row++ {
			classID, confidence := bestClass(out, row)
			if confidence <= ConfThreshold {
				continue
			}
			cx := out.GetFloatAt(row, 0) * width
			cy := out.GetFloatAt(row, 1) * height
			w := out.GetFloatAt(row, 2) * width
			h := out.GetFloatAt(row, 3) * height
			boxes = append(boxes, image.Rect(
				int(cx-w/2), int(cy-h/2),
				int(cx+w/2), int(cy+h/2),
			))
			confidences = append(confidences, confidence)
			classIDs = append(classIDs, classID)
		}
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	var detections []Detection
	for _, i := range gocv.NMSBoxes(boxes, confidences, ConfThreshold, NMSThreshold) {
		label := ""
		if classIDs[i] < len(d.classes) {
			label = d.classes[classIDs[i]]
		}
		detections = append(detections, Detection{
			Label:      label,
			Confidence: confidences[i],
			Box:        boxes[i],
		})
	}
	return detections, nil
}

// bestClass returns the highest-scoring class for one output row. YOLO rows
// are [cx, cy, w, h, objectness, class scores...].
func bestClass(out gocv.Mat, row int) (classID int, confidence float32) {
	for col := 5; col < out.Cols(); col++ {
		if score := out.GetFloatAt(row, col); score > confidence {
			confidence = score
			classID = col - 5
		}
	}
	return classID, confidence
}

// CountLabel returns how many detections carry the given label.
func CountLabel(detections []Detection, label string) int {
	n := 0
	for _, det := range detections {
		if det.Label == label {
			n++
		}
	}
	return n
}
