package db_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/db"
	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/testutil"
)

func TestCreateAndGetActivity(t *testing.T) {
	store := testutil.NewTestDB(t)

	a := &db.Activity{UserID: "user-1", VideoDir: "uploads/abc"}
	if err := store.CreateActivity(a); err != nil {
		t.Fatalf("CreateActivity failed: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected a generated activity id")
	}

	got, err := store.GetActivity(a.ID)
	if err != nil {
		t.Fatalf("GetActivity failed: %v", err)
	}
	if got.Status != db.StatusPending {
		t.Errorf("status = %q, want %q", got.Status, db.StatusPending)
	}
	if got.UserID != "user-1" || got.VideoDir != "uploads/abc" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be populated")
	}
}

func TestGetActivityNotFound(t *testing.T) {
	store := testutil.NewTestDB(t)

	_, err := store.GetActivity("nope")
	if !errors.Is(err, db.ErrActivityNotFound) {
		t.Errorf("error = %v, want ErrActivityNotFound", err)
	}
}

func TestApproveActivityPersistsResults(t *testing.T) {
	store := testutil.NewTestDB(t)

	a := &db.Activity{UserID: "user-1", VideoDir: "uploads/abc"}
	testutil.AssertNoError(t, store.CreateActivity(a))

	counts := json.RawMessage(`{"north":4,"south":0,"east":-1,"west":2.5}`)
	plan := json.RawMessage(`{"cycleSeconds":120}`)
	testutil.AssertNoError(t, store.ApproveActivity(a.ID, counts, plan))

	got, err := store.GetActivity(a.ID)
	testutil.AssertNoError(t, err)
	if got.Status != db.StatusApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
	if string(got.FlowCounts) != string(counts) {
		t.Errorf("flow counts = %s, want %s", got.FlowCounts, counts)
	}
	if string(got.TimingPlan) != string(plan) {
		t.Errorf("timing plan = %s, want %s", got.TimingPlan, plan)
	}

	// A decided activity cannot be decided again.
	if err := store.ApproveActivity(a.ID, counts, plan); !errors.Is(err, db.ErrActivityNotPending) {
		t.Errorf("second approve error = %v, want ErrActivityNotPending", err)
	}
	if err := store.RejectActivity(a.ID); !errors.Is(err, db.ErrActivityNotPending) {
		t.Errorf("reject after approve error = %v, want ErrActivityNotPending", err)
	}
}

func TestRejectActivity(t *testing.T) {
	store := testutil.NewTestDB(t)

	a := &db.Activity{UserID: "user-2", VideoDir: "uploads/def"}
	testutil.AssertNoError(t, store.CreateActivity(a))
	testutil.AssertNoError(t, store.RejectActivity(a.ID))

	got, err := store.GetActivity(a.ID)
	testutil.AssertNoError(t, err)
	if got.Status != db.StatusRejected {
		t.Errorf("status = %q, want rejected", got.Status)
	}
}

func TestListPendingActivities(t *testing.T) {
	store := testutil.NewTestDB(t)

	first := &db.Activity{UserID: "u", VideoDir: "uploads/1"}
	second := &db.Activity{UserID: "u", VideoDir: "uploads/2"}
	third := &db.Activity{UserID: "u", VideoDir: "uploads/3"}
	for _, a := range []*db.Activity{first, second, third} {
		testutil.AssertNoError(t, store.CreateActivity(a))
	}
	testutil.AssertNoError(t, store.RejectActivity(second.ID))

	pending, err := store.ListPendingActivities()
	testutil.AssertNoError(t, err)
	if len(pending) != 2 {
		t.Fatalf("got %d pending activities, want 2", len(pending))
	}
	if pending[0].ID != first.ID || pending[1].ID != third.ID {
		t.Errorf("pending order = [%s %s], want oldest first", pending[0].ID, pending[1].ID)
	}
}

func TestRecentActionsNewestFirstAndLimited(t *testing.T) {
	store := testutil.NewTestDB(t)

	for i := 0; i < 12; i++ {
		testutil.AssertNoError(t, store.RecordAction("action"))
	}

	actions, err := store.RecentActions(10)
	testutil.AssertNoError(t, err)
	if len(actions) != 10 {
		t.Errorf("got %d actions, want 10", len(actions))
	}
}

func TestStats(t *testing.T) {
	store := testutil.NewTestDB(t)

	testutil.AssertNoError(t, store.TrackUser("u1"))
	testutil.AssertNoError(t, store.TrackUser("u2"))
	testutil.AssertNoError(t, store.TrackUser("u1")) // idempotent

	a := &db.Activity{UserID: "u1", VideoDir: "uploads/x"}
	b := &db.Activity{UserID: "u2", VideoDir: "uploads/y"}
	testutil.AssertNoError(t, store.CreateActivity(a))
	testutil.AssertNoError(t, store.CreateActivity(b))
	testutil.AssertNoError(t, store.ApproveActivity(a.ID, json.RawMessage(`{}`), json.RawMessage(`{}`)))

	stats, err := store.Stats()
	testutil.AssertNoError(t, err)
	if stats.TotalUsers != 2 {
		t.Errorf("TotalUsers = %d, want 2", stats.TotalUsers)
	}
	if stats.PendingTasks != 1 {
		t.Errorf("PendingTasks = %d, want 1", stats.PendingTasks)
	}
	if stats.Processed != 1 {
		t.Errorf("Processed = %d, want 1", stats.Processed)
	}
}

func TestMigrateVersion(t *testing.T) {
	store := testutil.NewTestDB(t)

	version, dirty, err := store.MigrateVersion()
	testutil.AssertNoError(t, err)
	if dirty {
		t.Error("schema unexpectedly dirty")
	}
	if version == 0 {
		t.Error("expected a nonzero schema version after NewDB")
	}
}
