package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/db"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/flow"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/httputil"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/monitoring"
)

// renderReportChart renders an HTML bar chart of the persisted per-direction
// flow estimates for one approved activity. Failed directions (sentinel -1)
// are drawn as zero-height bars labelled "failed".
func (s *Server) renderReportChart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	activity, err := s.store.GetActivity(id)
	if err != nil {
		httputil.NotFound(w, "activity not found")
		return
	}
	if activity.Status != db.StatusApproved || len(activity.FlowCounts) == 0 {
		httputil.NotFound(w, "no report for activity")
		return
	}

	var report flow.FlowReport
	if err := json.Unmarshal(activity.FlowCounts, &report); err != nil {
		monitoring.Logf("report chart %s: decode counts: %v", id, err)
		httputil.InternalServerError(w, "corrupt flow counts")
		return
	}

	axis := make([]string, 0, len(flow.Directions))
	values := make([]opts.BarData, 0, len(flow.Directions))
	for _, d := range flow.Directions {
		est := report[d]
		label := string(d)
		value := float64(est)
		if est.Failed() {
			label += " (failed)"
			value = 0
		}
		axis = append(axis, label)
		values = append(values, opts.BarData{Value: value})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Traffic flow by approach",
			Subtitle: fmt.Sprintf("activity %s", id),
		}),
	)
	bar.SetXAxis(axis).AddSeries("mean peak flow", values)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := bar.Render(w); err != nil {
		monitoring.Logf("report chart %s: render: %v", id, err)
	}
}
