package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Activity statuses. An activity is created pending and transitions exactly
// once, to approved or rejected.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	// ErrActivityNotFound is returned when no activity matches the id.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrActivityNotPending is returned when approving or rejecting an
	// activity that already left the pending state.
	ErrActivityNotPending = errors.New("activity not pending")
)

// Activity is one intersection approval event: four uploaded directional
// videos awaiting (or past) an approve/reject decision.
type Activity struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Status     string          `json:"status"`
	VideoDir   string          `json:"-"`
	FlowCounts json.RawMessage `json:"trafficCounts,omitempty"`
	TimingPlan json.RawMessage `json:"result,omitempty"`
	CreatedAt  time.Time       `json:"timestamp"`
	UpdatedAt  time.Time       `json:"-"`
}

// Action is one entry in the recent-activity audit log.
type Action struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"timestamp"`
}

// DashboardStats summarises the system for the admin dashboard.
type DashboardStats struct {
	TotalUsers   int `json:"totalUsers"`
	PendingTasks int `json:"pendingTasks"`
	Processed    int `json:"totalProcessed"`
}

// CreateActivity inserts a new pending activity. A missing ID is filled with a
// fresh UUID.
func (db *DB) CreateActivity(a *Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	_, err := db.Exec(
		`INSERT INTO activities (activity_id, user_id, status, video_dir) VALUES (?, ?, ?, ?)`,
		a.ID, a.UserID, a.Status, a.VideoDir,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// GetActivity fetches one activity by id.
func (db *DB) GetActivity(id string) (*Activity, error) {
	row := db.QueryRow(
		`SELECT activity_id, user_id, status, video_dir, flow_counts, timing_plan, created_at, updated_at
		 FROM activities WHERE activity_id = ?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// ListPendingActivities returns pending activities, oldest first.
func (db *DB) ListPendingActivities() ([]*Activity, error) {
	return db.listActivities(StatusPending, "ASC")
}

// ListApprovedActivities returns approved activities with their persisted flow
// counts and timing plans, newest first.
func (db *DB) ListApprovedActivities() ([]*Activity, error) {
	return db.listActivities(StatusApproved, "DESC")
}

func (db *DB) listActivities(status, order string) ([]*Activity, error) {
	rows, err := db.Query(
		`SELECT activity_id, user_id, status, video_dir, flow_counts, timing_plan, created_at, updated_at
		 FROM activities WHERE status = ? ORDER BY created_at `+order+`, rowid `+order, status)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ApproveActivity records the flow counts and timing plan and marks the
// activity approved. Only pending activities can be approved.
func (db *DB) ApproveActivity(id string, flowCounts, timingPlan json.RawMessage) error {
	res, err := db.Exec(
		`UPDATE activities SET status = ?, flow_counts = ?, timing_plan = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE activity_id = ? AND status = ?`,
		StatusApproved, string(flowCounts), string(timingPlan), id, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("approve activity: %w", err)
	}
	return requirePending(db, res, id)
}

// RejectActivity marks a pending activity rejected.
func (db *DB) RejectActivity(id string) error {
	res, err := db.Exec(
		`UPDATE activities SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE activity_id = ? AND status = ?`,
		StatusRejected, id, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("reject activity: %w", err)
	}
	return requirePending(db, res, id)
}

func requirePending(db *DB, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := db.GetActivity(id); err != nil {
			return err
		}
		return ErrActivityNotPending
	}
	return nil
}

// TrackUser records that a user id has been seen. Idempotent.
func (db *DB) TrackUser(userID string) error {
	_, err := db.Exec(`INSERT OR IGNORE INTO users (user_id) VALUES (?)`, userID)
	if err != nil {
		return fmt.Errorf("track user: %w", err)
	}
	return nil
}

// RecordAction appends an entry to the recent-activity log.
func (db *DB) RecordAction(text string) error {
	_, err := db.Exec(`INSERT INTO actions (action_id, action) VALUES (?, ?)`, uuid.New().String(), text)
	if err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}

// RecentActions returns the latest actions, newest first.
func (db *DB) RecentActions(limit int) ([]Action, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(
		`SELECT action_id, action, created_at FROM actions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.Action, &a.CreatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// Stats computes the dashboard summary.
func (db *DB) Stats() (DashboardStats, error) {
	var s DashboardStats
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&s.TotalUsers); err != nil {
		return s, fmt.Errorf("count users: %w", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM activities WHERE status = ?`, StatusPending).Scan(&s.PendingTasks); err != nil {
		return s, fmt.Errorf("count pending: %w", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM activities WHERE status = ?`, StatusApproved).Scan(&s.Processed); err != nil {
		return s, fmt.Errorf("count approved: %w", err)
	}
	return s, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanActivity(row scanner) (*Activity, error) {
	var (
		a      Activity
		counts sql.NullString
		plan   sql.NullString
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Status, &a.VideoDir, &counts, &plan, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if counts.Valid {
		a.FlowCounts = json.RawMessage(counts.String)
	}
	if plan.Valid {
		a.TimingPlan = json.RawMessage(plan.String)
	}
	return &a, nil
}
