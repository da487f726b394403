package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/db"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/flow"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/httputil"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/monitoring"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/security"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/version"
)

// maxUploadBytes bounds one four-video upload.
const maxUploadBytes = 512 << 20

// handleUpload accepts exactly four directional videos plus a userId and
// creates a pending activity under a fresh per-event namespace.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.BadRequest(w, "invalid multipart form")
		return
	}
	userID := r.FormValue("userId")
	files := r.MultipartForm.File["videos"]
	if userID == "" || len(files) == 0 {
		httputil.BadRequest(w, "missing videos or userId")
		return
	}
	if len(files) != len(flow.Directions) {
		httputil.BadRequest(w, "exactly 4 videos are required")
		return
	}

	activityID := uuid.New().String()
	activityDir := filepath.Join(s.uploadDir, activityID)
	if err := os.MkdirAll(activityDir, 0o755); err != nil {
		monitoring.Logf("upload: create activity folder: %v", err)
		httputil.InternalServerError(w, "failed to store videos")
		return
	}

	for i, header := range files {
		if !security.AllowedVideoFile(header.Filename) {
			os.RemoveAll(activityDir)
			httputil.BadRequest(w, "invalid video file")
			return
		}
		// Files are renamed by direction; upload order is north, south,
		// east, west.
		dst := filepath.Join(activityDir, fmt.Sprintf("%s.mp4", flow.Directions[i]))
		if err := saveUpload(header, dst); err != nil {
			monitoring.Logf("upload: save %s: %v", dst, err)
			os.RemoveAll(activityDir)
			httputil.InternalServerError(w, "failed to store videos")
			return
		}
	}

	if err := s.store.TrackUser(userID); err != nil {
		monitoring.Logf("upload: track user: %v", err)
	}
	activity := &db.Activity{ID: activityID, UserID: userID, VideoDir: activityDir}
	if err := s.store.CreateActivity(activity); err != nil {
		monitoring.Logf("upload: create activity: %v", err)
		os.RemoveAll(activityDir)
		httputil.InternalServerError(w, "failed to create activity")
		return
	}
	s.recordAction(fmt.Sprintf("User '%s' uploaded videos", userID))

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"activityId": activityID})
}

func saveUpload(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

// listActivities returns the pending approval queue.
func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	pending, err := s.store.ListPendingActivities()
	if err != nil {
		monitoring.Logf("list activities: %v", err)
		httputil.InternalServerError(w, "failed to list activities")
		return
	}
	if pending == nil {
		pending = []*db.Activity{}
	}
	httputil.WriteJSON(w, http.StatusOK, pending)
}

// approveActivity runs flow estimation over the activity's four videos, hands
// the report to the timing optimizer, and persists both. An optimizer failure
// is fatal to the approval transaction: the activity stays pending.
func (s *Server) approveActivity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	activity, err := s.store.GetActivity(id)
	if err != nil {
		if errors.Is(err, db.ErrActivityNotFound) {
			httputil.NotFound(w, "activity not found or already processed")
			return
		}
		monitoring.Logf("approve %s: load: %v", id, err)
		httputil.InternalServerError(w, "failed to load activity")
		return
	}
	if activity.Status != db.StatusPending {
		httputil.NotFound(w, "activity not found or already processed")
		return
	}

	videos := flow.VideoSet{
		North: filepath.Join(activity.VideoDir, "north.mp4"),
		South: filepath.Join(activity.VideoDir, "south.mp4"),
		East:  filepath.Join(activity.VideoDir, "east.mp4"),
		West:  filepath.Join(activity.VideoDir, "west.mp4"),
	}
	report := s.flows.Estimate(r.Context(), videos)

	plan, err := s.optimizer.Allocate(report)
	if err != nil {
		monitoring.Logf("approve %s: optimizer failed: %v", id, err)
		httputil.BadGateway(w, "timing optimizer failed")
		return
	}

	counts, err := json.Marshal(report)
	if err != nil {
		httputil.InternalServerError(w, "failed to encode flow report")
		return
	}
	planJSON, err := json.Marshal(plan)
	if err != nil {
		httputil.InternalServerError(w, "failed to encode timing plan")
		return
	}
	if err := s.store.ApproveActivity(id, counts, planJSON); err != nil {
		if errors.Is(err, db.ErrActivityNotPending) || errors.Is(err, db.ErrActivityNotFound) {
			httputil.NotFound(w, "activity not found or already processed")
			return
		}
		monitoring.Logf("approve %s: persist: %v", id, err)
		httputil.InternalServerError(w, "failed to persist approval")
		return
	}
	s.recordAction(fmt.Sprintf("Admin approved activity '%s' for user '%s'", id, activity.UserID))

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// rejectActivity marks a pending activity rejected without running the
// estimation pipelines.
func (s *Server) rejectActivity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	activity, err := s.store.GetActivity(id)
	if err != nil {
		if errors.Is(err, db.ErrActivityNotFound) {
			httputil.NotFound(w, "activity not found or already processed")
			return
		}
		monitoring.Logf("reject %s: load: %v", id, err)
		httputil.InternalServerError(w, "failed to load activity")
		return
	}
	if err := s.store.RejectActivity(id); err != nil {
		if errors.Is(err, db.ErrActivityNotFound) || errors.Is(err, db.ErrActivityNotPending) {
			httputil.NotFound(w, "activity not found or already processed")
			return
		}
		monitoring.Logf("reject %s: persist: %v", id, err)
		httputil.InternalServerError(w, "failed to persist rejection")
		return
	}
	s.recordAction(fmt.Sprintf("Admin rejected activity '%s' for user '%s'", id, activity.UserID))

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// showResults returns the status of an activity and, once approved, its
// timing plan.
func (s *Server) showResults(w http.ResponseWriter, r *http.Request) {
	activity, err := s.store.GetActivity(r.PathValue("id"))
	if err != nil {
		httputil.NotFound(w, "activity not found")
		return
	}

	response := map[string]interface{}{"status": activity.Status}
	if activity.Status == db.StatusApproved && len(activity.TimingPlan) > 0 {
		response["result"] = activity.TimingPlan
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

// serveVideo streams a stored directional video back to the client.
func (s *Server) serveVideo(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.uploadDir, r.PathValue("id"), r.PathValue("file"))
	if err := security.ValidatePathWithinDirectory(path, s.uploadDir); err != nil {
		httputil.NotFound(w, "video not found")
		return
	}
	if _, err := os.Stat(path); err != nil {
		httputil.NotFound(w, "video not found")
		return
	}
	http.ServeFile(w, r, path)
}

// showStats reports the dashboard summary.
func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		monitoring.Logf("dashboard stats: %v", err)
		httputil.InternalServerError(w, "failed to compute stats")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"totalUsers":   stats.TotalUsers,
		"pendingTasks": stats.PendingTasks,
		"systemStatus": "Operational",
		"version":      version.Version,
	})
}

// showRecentActivity returns the last 10 audit log entries, newest first.
func (s *Server) showRecentActivity(w http.ResponseWriter, r *http.Request) {
	actions, err := s.store.RecentActions(10)
	if err != nil {
		monitoring.Logf("recent activity: %v", err)
		httputil.InternalServerError(w, "failed to list recent activity")
		return
	}
	if actions == nil {
		actions = []db.Action{}
	}
	httputil.WriteJSON(w, http.StatusOK, actions)
}

// reportEntry is one approved activity in the reporting view.
type reportEntry struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Timestamp     string          `json:"timestamp"`
	TrafficCounts json.RawMessage `json:"trafficCounts"`
	SignalTimings json.RawMessage `json:"signalTimings"`
}

// listReports returns all approved activities with their flow counts and
// timing plans.
func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	approved, err := s.store.ListApprovedActivities()
	if err != nil {
		monitoring.Logf("reports: %v", err)
		httputil.InternalServerError(w, "failed to list reports")
		return
	}

	reports := make([]reportEntry, 0, len(approved))
	for _, a := range approved {
		reports = append(reports, reportEntry{
			ID:            a.ID,
			UserID:        a.UserID,
			Timestamp:     a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			TrafficCounts: a.FlowCounts,
			SignalTimings: a.TimingPlan,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"totalProcessed": len(reports),
		"reports":        reports,
	})
}

func (s *Server) recordAction(text string) {
	if err := s.store.RecordAction(text); err != nil {
		monitoring.Logf("record action: %v", err)
	}
}
