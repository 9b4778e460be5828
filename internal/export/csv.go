package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alvmarrod/serp-scout/internal/store"
)

const (
	top10Cutoff = 10
	top30Cutoff = 30
)

var snapshotHeader = []string{
	"date", "keyword", "position", "url", "title", "domain", "snippet",
	"is_top10", "is_top30", "is_new_domain",
}

var domainsHeader = []string{
	"domain", "homepage", "first_seen", "last_seen", "site_type",
	"emails", "phones", "socials", "contact_pages",
}

// Exporter serializes tracking store queries to per-date CSV files
type Exporter struct {
	store *store.Store
	dir   string
}

// NewExporter creates an exporter writing into dir
func NewExporter(st *store.Store, dir string) *Exporter {
	return &Exporter{store: st, dir: dir}
}

// WriteSnapshotCSV exports the date's snapshot rows annotated with
// is_top10/is_top30/is_new_domain. Returns the written path.
func (e *Exporter) WriteSnapshotCSV(date string) (string, error) {
	table, err := e.SnapshotTable(date)
	if err != nil {
		return "", err
	}

	path := filepath.Join(e.dir, fmt.Sprintf("snapshot_%s.csv", date))
	if err := writeCSV(path, table); err != nil {
		return "", err
	}
	return path, nil
}

// WriteDomainsCSV exports every domain_status row with contact fields
// flattened to semicolon-joined strings. Returns the written path.
func (e *Exporter) WriteDomainsCSV(date string) (string, error) {
	table, err := e.DomainsTable()
	if err != nil {
		return "", err
	}

	path := filepath.Join(e.dir, fmt.Sprintf("domains_%s.csv", date))
	if err := writeCSV(path, table); err != nil {
		return "", err
	}
	return path, nil
}

// SnapshotTable builds the annotated snapshot rows, header included.
// A row is a new domain exactly when its keyword/domain pair was first
// seen on the exported date.
func (e *Exporter) SnapshotTable(date string) ([][]string, error) {
	rows, err := e.store.SnapshotRows(date)
	if err != nil {
		return nil, err
	}

	table := [][]string{snapshotHeader}
	for _, r := range rows {
		firstSeen, fsErr := e.store.FirstSeen(r.Keyword, r.Domain)
		if fsErr != nil {
			return nil, fsErr
		}

		table = append(table, []string{
			r.Date,
			r.Keyword,
			fmt.Sprintf("%d", r.Position),
			r.URL,
			r.Title,
			r.Domain,
			r.Snippet,
			boolFlag(r.Position <= top10Cutoff),
			boolFlag(r.Position <= top30Cutoff),
			boolFlag(firstSeen == date),
		})
	}
	return table, nil
}

// DomainsTable builds the domain status rows, header included
func (e *Exporter) DomainsTable() ([][]string, error) {
	domains, err := e.store.AllDomains()
	if err != nil {
		return nil, err
	}

	table := [][]string{domainsHeader}
	for _, d := range domains {
		table = append(table, []string{
			d.Domain,
			d.Homepage,
			d.FirstSeen,
			d.LastSeen,
			d.SiteType,
			strings.Join(d.Contacts.Emails, ";"),
			strings.Join(d.Contacts.Phones, ";"),
			strings.Join(d.Contacts.Socials, ";"),
			strings.Join(d.Contacts.Pages, ";"),
		})
	}
	return table, nil
}

func writeCSV(path string, table [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(table); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
