package app

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alvmarrod/serp-scout/internal/config"
	"github.com/alvmarrod/serp-scout/internal/enrich"
	"github.com/alvmarrod/serp-scout/internal/export"
	"github.com/alvmarrod/serp-scout/internal/fetch"
	"github.com/alvmarrod/serp-scout/internal/metrics"
	"github.com/alvmarrod/serp-scout/internal/serp"
	"github.com/alvmarrod/serp-scout/internal/store"
)

// Runner owns one wired pipeline: provider → store → enrichment pool →
// export sinks. The HTTP client and the fetcher's collector are shared,
// pooled resources whose lifecycle matches the runner's.
type Runner struct {
	cfg      *config.Config
	store    *store.Store
	provider serp.Provider
	pool     *enrich.Pool
	exporter *export.Exporter
	pusher   export.Pusher
	tracker  *metrics.Tracker
}

// NewRunner wires all components from the configuration
func NewRunner(cfg *config.Config) (*Runner, error) {
	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	tracker := metrics.NewTracker()
	timeout := time.Duration(cfg.RequestTimeoutMs) * time.Millisecond

	httpClient := &http.Client{Timeout: timeout}
	query := serp.Query{GL: cfg.GL, HL: cfg.HL, TopN: cfg.TopN}
	provider := &serp.Fallback{
		Primary:   serp.NewSerperClient(cfg.SerperAPIKey, query, httpClient),
		Secondary: serp.NewSerpAPIClient(cfg.SerpAPIAPIKey, query, httpClient),
	}

	fetcher := fetch.NewFetcher(cfg.UserAgent, timeout, tracker.CountPage)
	enricher := enrich.NewEnricher(fetcher, cfg.MaxContactPages)
	pool := enrich.NewPool(enricher, st, cfg.EnrichWorkers, tracker.CountDomain)

	exporter := export.NewExporter(st, cfg.ExportDir)
	var pusher export.Pusher = export.NoopPusher{}
	if cfg.PushWorkbook {
		pusher = export.NewWorkbookPusher(exporter, cfg.WorkbookPath)
	}

	return &Runner{
		cfg:      cfg,
		store:    st,
		provider: provider,
		pool:     pool,
		exporter: exporter,
		pusher:   pusher,
		tracker:  tracker,
	}, nil
}

// Close releases the runner's resources
func (r *Runner) Close() error {
	return r.store.Close()
}

// RunOnce executes one full cycle: query every keyword and ingest the
// snapshot, then enrich the day's distinct domains, then export.
// Ingestion for all keywords completes before the work list is computed,
// so enrichment only ever sees a fully ingested snapshot. A cancelled
// context stops the run between units of work, never mid-write.
func (r *Runner) RunOnce(ctx context.Context, keywords []string) error {
	date := time.Now().Format("2006-01-02")
	delay := time.Duration(r.cfg.RequestDelayMs) * time.Millisecond

	logrus.Infof("Run started for %s: %d keywords", date, len(keywords))

	for _, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			return err
		}

		logrus.Infof("Query: %s", keyword)
		items, err := r.provider.Search(ctx, keyword)
		if err != nil {
			// Degraded coverage for this keyword, not a run failure
			logrus.Warnf("No results for %q: %v", keyword, err)
			continue
		}
		r.tracker.IncrementKeywordsQueried()

		inserted, err := r.store.IngestSnapshot(date, keyword, items)
		if err != nil {
			return fmt.Errorf("failed to ingest snapshot for %q: %w", keyword, err)
		}
		r.tracker.AddSnapshotRows(inserted)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	domains, err := r.store.DistinctDomains(date)
	if err != nil {
		return fmt.Errorf("failed to compute work list: %w", err)
	}

	if err := r.pool.Run(ctx, date, domains); err != nil {
		return fmt.Errorf("enrichment merge failed: %w", err)
	}

	r.export(date)

	if err := r.tracker.WriteToFile(r.cfg.MetricsPath, "completed"); err != nil {
		logrus.Errorf("Failed to write metrics: %v", err)
	}
	logrus.Info("Run complete: " + r.tracker.LogProgress())
	return nil
}

// export writes the CSV files and pushes the workbook. Sink failures are
// logged and swallowed: exports degrade, the run does not fail.
func (r *Runner) export(date string) {
	if path, err := r.exporter.WriteSnapshotCSV(date); err != nil {
		logrus.Errorf("Snapshot export failed: %v", err)
	} else {
		logrus.Infof("Exported %s", path)
	}

	if path, err := r.exporter.WriteDomainsCSV(date); err != nil {
		logrus.Errorf("Domains export failed: %v", err)
	} else {
		logrus.Infof("Exported %s", path)
	}

	if err := r.pusher.Push(date); err != nil {
		logrus.Errorf("Workbook push failed: %v", err)
	}
}

// Export re-serializes an already-recorded date without fetching anything
func (r *Runner) Export(date string) error {
	snapPath, err := r.exporter.WriteSnapshotCSV(date)
	if err != nil {
		return err
	}
	domainsPath, err := r.exporter.WriteDomainsCSV(date)
	if err != nil {
		return err
	}
	logrus.Infof("Exported %s and %s", snapPath, domainsPath)

	if err := r.pusher.Push(date); err != nil {
		logrus.Errorf("Workbook push failed: %v", err)
	}
	return nil
}

// LoadKeywords reads the tracked keywords, one per line. Blank lines and
// '#' comments are skipped.
func LoadKeywords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keywords file: %w", err)
	}
	defer file.Close()

	var keywords []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keywords = append(keywords, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keywords file: %w", err)
	}
	return keywords, nil
}
