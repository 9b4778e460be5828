package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const progressInterval = 30 * time.Second

// Serve runs cycles on a schedule until the context is cancelled: a cron
// spec when configured, otherwise a fixed interval with an immediate
// first run. A shutdown signal lets the in-progress run finish its
// current unit of work, then stops before the next one.
func (r *Runner) Serve(ctx context.Context) error {
	keywords, err := LoadKeywords(r.cfg.KeywordsPath)
	if err != nil {
		return err
	}
	if len(keywords) == 0 {
		return fmt.Errorf("no keywords loaded from %s", r.cfg.KeywordsPath)
	}

	var running sync.Mutex
	job := func() {
		if !running.TryLock() {
			logrus.Warn("Previous run still in progress, skipping this trigger")
			return
		}
		defer running.Unlock()

		if runErr := r.RunOnce(ctx, keywords); runErr != nil {
			if errors.Is(runErr, context.Canceled) {
				logrus.Info("Run interrupted by shutdown")
				return
			}
			logrus.Errorf("Run failed: %v", runErr)
		}
	}

	stopProgress := r.startProgressLogger(ctx)
	defer stopProgress()

	if r.cfg.ScheduleCron != "" {
		scheduler := cron.New()
		if _, addErr := scheduler.AddFunc(r.cfg.ScheduleCron, job); addErr != nil {
			return fmt.Errorf("invalid cron spec %q: %w", r.cfg.ScheduleCron, addErr)
		}

		logrus.Infof("Cron mode: %q", r.cfg.ScheduleCron)
		scheduler.Start()

		<-ctx.Done()
		logrus.Info("Shutdown requested, waiting for current run to finish...")
		<-scheduler.Stop().Done()
		return nil
	}

	interval := time.Duration(r.cfg.RunEverySeconds) * time.Second
	logrus.Infof("Interval mode: every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	job()
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Shutdown requested, stopping scheduler")
			return nil
		case <-ticker.C:
			job()
		}
	}
}

// startProgressLogger emits cumulative run stats periodically while the
// daemon is up
func (r *Runner) startProgressLogger(ctx context.Context) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				logrus.Info(r.tracker.LogProgress())
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
