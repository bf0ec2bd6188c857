package usage

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTracker_Track(t *testing.T) {
	tr := New(15, filepath.Join(t.TempDir(), "usage.json"))

	tr.Track("insight", 1000, 500, true)
	tr.Track("insight", 2000, 1000, true)
	tr.Track("adcopy", 100, 50, false)

	stats := tr.Stats()
	if stats.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", stats.TotalRequests)
	}
	if stats.TotalTokens != 4500 {
		t.Errorf("TotalTokens = %d, want 4500", stats.TotalTokens)
	}

	insight := stats.Components["insight"]
	if insight.Calls != 2 || insight.Tokens != 4500 {
		t.Errorf("insight usage = %+v, want 2 calls and 4500 tokens", insight)
	}
	adcopy := stats.Components["adcopy"]
	if adcopy.Calls != 0 || adcopy.Errors != 1 {
		t.Errorf("adcopy usage = %+v, want 0 calls and 1 error", adcopy)
	}
}

func TestTracker_TrackUnknownComponent(t *testing.T) {
	tr := New(15, filepath.Join(t.TempDir(), "usage.json"))

	tr.Track("experimental", 10, 10, true)

	stats := tr.Stats()
	if stats.Components["experimental"].Calls != 1 {
		t.Errorf("unknown components should still be counted, got %+v", stats.Components["experimental"])
	}
}

func TestTracker_EstimatedCost(t *testing.T) {
	tr := New(15, filepath.Join(t.TempDir(), "usage.json"))

	tr.Track("insight", 1_000_000, 1_000_000, true)

	stats := tr.Stats()
	want := costPerMillionInput + costPerMillionOutput
	if math.Abs(stats.EstimatedCost-want) > 1e-9 {
		t.Errorf("EstimatedCost = %f, want %f", stats.EstimatedCost, want)
	}
}

func TestTracker_WaitWithinBudget(t *testing.T) {
	tr := New(3, filepath.Join(t.TempDir(), "usage.json"))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := tr.Wait(ctx); err != nil {
			t.Fatalf("Wait() %d failed: %v", i, err)
		}
	}

	stats := tr.Stats()
	if stats.CurrentRPM != 3 {
		t.Errorf("CurrentRPM = %d, want 3", stats.CurrentRPM)
	}
}

func TestTracker_WaitBlocksAtLimit(t *testing.T) {
	tr := New(1, filepath.Join(t.TempDir(), "usage.json"))

	if err := tr.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := tr.Wait(ctx); err == nil {
		t.Error("second Wait() should block until the context expires")
	}
}

func TestTracker_WaitPrunesOldCalls(t *testing.T) {
	tr := New(1, filepath.Join(t.TempDir(), "usage.json"))

	now := time.Now()
	tr.clock = func() time.Time { return now }

	if err := tr.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() failed: %v", err)
	}

	// Two minutes later the window is clear again
	tr.clock = func() time.Time { return now.Add(2 * time.Minute) }
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tr.Wait(ctx); err != nil {
		t.Errorf("Wait() after window expiry failed: %v", err)
	}
}

func TestTracker_Persist(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "usage.json")
	tr := New(15, logPath)

	tr.Track("insight", 500, 200, true)
	if err := tr.Persist(); err != nil {
		t.Fatalf("Persist() failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading usage log: %v", err)
	}

	var payload struct {
		Timestamp time.Time `json:"timestamp"`
		Stats     Stats     `json:"stats"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("parsing usage log: %v", err)
	}
	if payload.Stats.TotalRequests != 1 {
		t.Errorf("persisted TotalRequests = %d, want 1", payload.Stats.TotalRequests)
	}
	if payload.Stats.TotalTokens != 700 {
		t.Errorf("persisted TotalTokens = %d, want 700", payload.Stats.TotalTokens)
	}
}

func TestTracker_PersistsPeriodically(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "usage.json")
	tr := New(100, logPath)

	for i := 0; i < persistEvery; i++ {
		tr.Track("insight", 10, 5, true)
	}

	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("usage log should exist after %d successful requests: %v", persistEvery, err)
	}
}
