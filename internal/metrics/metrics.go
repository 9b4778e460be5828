package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// RunStats captures what one run accomplished, exported as JSON on exit
type RunStats struct {
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	KeywordsQueried   int       `json:"keywords_queried"`
	SnapshotRows      int       `json:"snapshot_rows"`
	DomainsEnriched   int       `json:"domains_enriched"`
	DomainsFailed     int       `json:"domains_failed"`
	PagesFetched      int       `json:"pages_fetched"`
	PagesFailed       int       `json:"pages_failed"`
	TerminationReason string    `json:"termination_reason"`
}

// Tracker holds and manages run metrics
type Tracker struct {
	mu   sync.Mutex
	data RunStats
}

// NewTracker creates a new metrics tracker
func NewTracker() *Tracker {
	return &Tracker{
		data: RunStats{
			StartTime: time.Now(),
		},
	}
}

// IncrementKeywordsQueried increments the queried keywords counter
func (t *Tracker) IncrementKeywordsQueried() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.KeywordsQueried++
}

// AddSnapshotRows adds newly inserted snapshot rows to the counter
func (t *Tracker) AddSnapshotRows(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.SnapshotRows += n
}

// CountDomain records one enriched or failed domain
func (t *Tracker) CountDomain(ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ok {
		t.data.DomainsEnriched++
	} else {
		t.data.DomainsFailed++
	}
}

// CountPage records one fetched or missed page
func (t *Tracker) CountPage(ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ok {
		t.data.PagesFetched++
	} else {
		t.data.PagesFailed++
	}
}

// GetSnapshot returns a copy of current metrics
func (t *Tracker) GetSnapshot() RunStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data
}

// WriteToFile exports metrics to a JSON file
func (t *Tracker) WriteToFile(path, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.EndTime = time.Now()
	t.data.TerminationReason = reason

	jsonData, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// LogProgress prints current metrics to console (for periodic updates)
func (t *Tracker) LogProgress() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return fmt.Sprintf("Keywords: %d queried, %d rows | Domains: %d enriched, %d failed | Pages: %d fetched, %d failed",
		t.data.KeywordsQueried,
		t.data.SnapshotRows,
		t.data.DomainsEnriched,
		t.data.DomainsFailed,
		t.data.PagesFetched,
		t.data.PagesFailed,
	)
}
