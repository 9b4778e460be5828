package enrich

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/alvmarrod/serp-scout/internal/contacts"
)

// Merger is the slice of the tracking store the pool writes to. Its
// methods must be safe under concurrent callers.
type Merger interface {
	MarkDomainSeen(domain, homepage, date string) error
	MergeEnrichment(domain, siteType string, c contacts.Set) error
}

// DomainEnricher produces the enrichment result for one domain
type DomainEnricher interface {
	Enrich(domain, homepageHint string) Result
}

// Pool runs the enricher over a domain work list with bounded
// concurrency. Results are merged into the store as each domain
// completes; domains are independent and may finish in any order.
type Pool struct {
	enricher DomainEnricher
	store    Merger
	workers  int
	onDomain func(ok bool)
}

// NewPool creates a pool of the given width. onDomain is an optional
// metrics hook invoked once per processed domain.
func NewPool(enricher DomainEnricher, store Merger, workers int, onDomain func(ok bool)) *Pool {
	return &Pool{
		enricher: enricher,
		store:    store,
		workers:  workers,
		onDomain: onDomain,
	}
}

// Run feeds the domains to the workers and blocks until the pool drains.
// Cancelling the context stops feeding new work; enrichments already in
// flight run to completion so no merge is interrupted mid-write. A failed
// domain is logged and skipped: it stays eligible for the next run.
// Persistence errors are collected and surfaced after the pool drains.
func (p *Pool) Run(ctx context.Context, date string, domains []string) error {
	logrus.Infof("Starting %d enrichment workers for %d domains", p.workers, len(domains))

	jobs := make(chan string)

	var mu sync.Mutex
	var firstErr error
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for domain := range jobs {
				p.processDomain(id, date, domain, record)
			}
		}(i + 1)
	}

feed:
	for _, domain := range domains {
		// The select alone can race a ready worker against a
		// cancelled context; cancellation must stop the next send
		if ctx.Err() != nil {
			logrus.Info("Enrichment cancelled, finishing in-flight domains")
			break feed
		}
		select {
		case <-ctx.Done():
			logrus.Info("Enrichment cancelled, finishing in-flight domains")
			break feed
		case jobs <- domain:
		}
	}
	close(jobs)
	wg.Wait()

	return firstErr
}

// processDomain runs one domain through the enricher and merges the
// outcome. A panic inside enrichment is isolated to this domain.
func (p *Pool) processDomain(workerID int, date, domain string, record func(error)) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Warnf("Worker %d: enrichment failed for %s: %v", workerID, domain, r)
			p.notify(false)
		}
	}()

	result := p.enricher.Enrich(domain, "https://"+domain+"/")

	if err := p.store.MarkDomainSeen(domain, result.Homepage, date); err != nil {
		logrus.Errorf("Worker %d: failed to mark %s seen: %v", workerID, domain, err)
		record(err)
		p.notify(false)
		return
	}

	if err := p.store.MergeEnrichment(domain, result.SiteType, result.Contacts); err != nil {
		logrus.Errorf("Worker %d: failed to merge enrichment for %s: %v", workerID, domain, err)
		record(err)
		p.notify(false)
		return
	}

	logrus.Infof("Worker %d: enriched %s (type=%q, emails=%d, socials=%d)",
		workerID, domain, result.SiteType, len(result.Contacts.Emails), len(result.Contacts.Socials))
	p.notify(true)
}

func (p *Pool) notify(ok bool) {
	if p.onDomain != nil {
		p.onDomain(ok)
	}
}
