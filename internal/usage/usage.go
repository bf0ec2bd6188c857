// Package usage tracks language-model API consumption: request counts, token
// totals, per-component breakdowns and an estimated cost, with a sliding
// request-per-minute budget and periodic JSON persistence.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Gemini pricing per million tokens.
const (
	costPerMillionInput  = 0.075
	costPerMillionOutput = 0.30
)

// persistEvery controls how often the usage log is flushed to disk.
const persistEvery = 10

// Components with dedicated counters.
var knownComponents = []string{"collector", "insight", "optimizer", "adcopy"}

// ComponentUsage holds per-component counters.
type ComponentUsage struct {
	Calls  int `json:"calls"`
	Tokens int `json:"tokens"`
	Errors int `json:"errors"`
}

// Stats is a snapshot of accumulated usage.
type Stats struct {
	TotalRequests int                       `json:"total_requests"`
	TotalTokens   int                       `json:"total_tokens"`
	EstimatedCost float64                   `json:"estimated_cost"`
	Components    map[string]ComponentUsage `json:"component_breakdown"`
	CurrentRPM    int                       `json:"current_rpm"`
}

// Tracker accounts for API usage across all components. Safe for concurrent use.
type Tracker struct {
	mu sync.Mutex

	totalRequests     int
	totalInputTokens  int
	totalOutputTokens int
	components        map[string]*ComponentUsage

	rpmLimit  int
	callTimes []time.Time

	logPath string
	clock   func() time.Time
}

// New creates a Tracker persisting to logPath with the given RPM budget.
func New(rpmLimit int, logPath string) *Tracker {
	t := &Tracker{
		components: make(map[string]*ComponentUsage),
		rpmLimit:   rpmLimit,
		logPath:    logPath,
		clock:      time.Now,
	}
	for _, c := range knownComponents {
		t.components[c] = &ComponentUsage{}
	}
	return t
}

// Wait blocks until a request slot is available within the RPM budget, or
// until the context is canceled. On success the request start is recorded.
func (t *Tracker) Wait(ctx context.Context) error {
	for {
		t.mu.Lock()
		now := t.clock()
		t.pruneLocked(now)

		if len(t.callTimes) < t.rpmLimit {
			t.callTimes = append(t.callTimes, now)
			t.mu.Unlock()
			return nil
		}

		wait := time.Minute - now.Sub(t.callTimes[0]) + time.Second
		t.mu.Unlock()

		log.Printf("Rate limit reached, waiting %.1fs", wait.Seconds())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Track records a completed request for a component. Failed requests only
// increment the component error counter.
func (t *Tracker) Track(component string, inputTokens, outputTokens int, success bool) {
	t.mu.Lock()

	cu, ok := t.components[component]
	if !ok {
		cu = &ComponentUsage{}
		t.components[component] = cu
	}

	if success {
		t.totalRequests++
		t.totalInputTokens += inputTokens
		t.totalOutputTokens += outputTokens
		cu.Calls++
		cu.Tokens += inputTokens + outputTokens
	} else {
		cu.Errors++
	}

	shouldPersist := success && t.totalRequests%persistEvery == 0
	t.mu.Unlock()

	if shouldPersist {
		if err := t.Persist(); err != nil {
			log.Printf("Warning: failed to save usage log: %v", err)
		}
	}
}

// Stats returns a snapshot of accumulated usage.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked(t.clock())

	components := make(map[string]ComponentUsage, len(t.components))
	for name, cu := range t.components {
		components[name] = *cu
	}

	inputCost := float64(t.totalInputTokens) * costPerMillionInput / 1_000_000
	outputCost := float64(t.totalOutputTokens) * costPerMillionOutput / 1_000_000

	return Stats{
		TotalRequests: t.totalRequests,
		TotalTokens:   t.totalInputTokens + t.totalOutputTokens,
		EstimatedCost: inputCost + outputCost,
		Components:    components,
		CurrentRPM:    len(t.callTimes),
	}
}

// Persist writes the current stats to the configured usage-log file.
func (t *Tracker) Persist() error {
	stats := t.Stats()

	payload := struct {
		Timestamp time.Time `json:"timestamp"`
		Stats     Stats     `json:"stats"`
	}{Timestamp: t.clock(), Stats: stats}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling usage log: %w", err)
	}

	if dir := filepath.Dir(t.logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating usage log directory: %w", err)
		}
	}

	if err := os.WriteFile(t.logPath, data, 0o644); err != nil {
		return fmt.Errorf("writing usage log: %w", err)
	}
	return nil
}

// pruneLocked drops call timestamps older than one minute. Callers must hold mu.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-time.Minute)
	i := 0
	for ; i < len(t.callTimes); i++ {
		if t.callTimes[i].After(cutoff) {
			break
		}
	}
	if i > 0 {
		t.callTimes = append([]time.Time(nil), t.callTimes[i:]...)
	}
}
