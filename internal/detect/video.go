package detect

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/flow"
)

// nominalFPS is assumed when a container reports no frame rate.
const nominalFPS = 30.0

// Opener returns a flow.OpenFunc that decodes a finite video file and counts
// the detector's class of interest per frame. Sample timestamps derive from
// frame index and the video's native frame rate, not the host clock, so the
// trailing window is reproducible across machines.
func (d *Detector) Opener() flow.OpenFunc {
	return func(ref string) (flow.CountSource, error) {
		capture, err := gocv.OpenVideoCapture(ref)
		if err != nil {
			return nil, fmt.Errorf("open video %s: %w", ref, err)
		}
		if !capture.IsOpened() {
			capture.Close()
			return nil, fmt.Errorf("open video %s: not a decodable stream", ref)
		}

		fps := capture.Get(gocv.VideoCaptureFPS)
		if fps <= 0 {
			fps = nominalFPS
		}
		return &videoSource{
			detector:    d,
			capture:     capture,
			frame:       gocv.NewMat(),
			framePeriod: time.Duration(float64(time.Second) / fps),
		}, nil
	}
}

// videoSource streams one finite video through the shared detector.
type videoSource struct {
	detector    *Detector
	capture     *gocv.VideoCapture
	frame       gocv.Mat
	framePeriod time.Duration
	index       int
}

func (v *videoSource) Next() (int, time.Duration, bool, error) {
	if ok := v.capture.Read(&v.frame); !ok {
		// Exhausted. OpenCV does not distinguish EOF from a read fault
		// here; either way no further frames will be produced.
		return 0, 0, false, nil
	}
	if v.frame.Empty() {
		return 0, 0, false, fmt.Errorf("frame %d: empty frame from decoder", v.index)
	}

	detections, err := v.detector.Detect(v.frame)
	if err != nil {
		return 0, 0, false, fmt.Errorf("frame %d: %w", v.index, err)
	}

	ts := time.Duration(v.index) * v.framePeriod
	v.index++
	return CountLabel(detections, v.detector.class), ts, true, nil
}

func (v *videoSource) Close() error {
	v.frame.Close()
	return v.capture.Close()
}
