package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alvmarrod/serp-scout/internal/contacts"
	"github.com/alvmarrod/serp-scout/internal/serp"
)

// Store handles all database operations. Writes are serialized through a
// single-writer mutex so enrichment workers can merge concurrently;
// reads go straight to the WAL database and never block on writers.
type Store struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// NewStore creates a new Store instance, opening/creating the DB and initializing schema
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{db: db}

	// Initialize schema
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates tables and indices if they don't exist
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS serp_snapshot (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_date TEXT NOT NULL,
		keyword TEXT NOT NULL,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		title TEXT,
		domain TEXT NOT NULL,
		snippet TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(snapshot_date, keyword, position)
	);

	CREATE TABLE IF NOT EXISTS domain_status (
		domain TEXT PRIMARY KEY,
		homepage TEXT,
		first_seen TEXT NOT NULL,
		last_seen TEXT NOT NULL,
		site_type TEXT,
		contacts_json TEXT
	);

	CREATE TABLE IF NOT EXISTS keyword_domain (
		keyword TEXT NOT NULL,
		domain TEXT NOT NULL,
		first_seen TEXT NOT NULL,
		last_seen TEXT NOT NULL,
		PRIMARY KEY(keyword, domain)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshot_date ON serp_snapshot(snapshot_date);
	CREATE INDEX IF NOT EXISTS idx_snapshot_domain ON serp_snapshot(snapshot_date, domain);
	`

	_, err := s.db.Exec(schema)
	return err
}

// IngestSnapshot inserts the ranked results for one (date, keyword) pair
// and upserts the keyword↔domain associations. Re-ingesting the same
// snapshot is a no-op: duplicate positions are silently ignored and
// last_seen never moves backwards. Returns the number of newly inserted
// snapshot rows.
func (s *Store) IngestSnapshot(date, keyword string, items []serp.Result) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin ingest transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, it := range items {
		res, execErr := tx.Exec(`
			INSERT OR IGNORE INTO serp_snapshot
			(snapshot_date, keyword, position, url, title, domain, snippet)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, date, keyword, it.Position, serp.NormalizeURL(it.URL), it.Title, it.Domain, it.Snippet)
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert snapshot row: %w", execErr)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}

		_, execErr = tx.Exec(`
			INSERT INTO keyword_domain (keyword, domain, first_seen, last_seen)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(keyword, domain) DO UPDATE SET
				last_seen = MAX(keyword_domain.last_seen, excluded.last_seen)
		`, keyword, it.Domain, date, date)
		if execErr != nil {
			return 0, fmt.Errorf("failed to upsert keyword_domain: %w", execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ingest: %w", err)
	}
	return inserted, nil
}

// MarkDomainSeen creates the domain_status record on first observation or
// bumps last_seen. The homepage is filled only while previously unknown;
// the first non-empty value wins and is never overwritten.
func (s *Store) MarkDomainSeen(domain, homepage, date string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO domain_status (domain, homepage, first_seen, last_seen)
		VALUES (?, NULLIF(?, ''), ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			last_seen = MAX(domain_status.last_seen, excluded.last_seen),
			homepage = COALESCE(domain_status.homepage, excluded.homepage)
	`, domain, homepage, date, date)

	if err != nil {
		return fmt.Errorf("failed to mark domain seen: %w", err)
	}
	return nil
}

// MergeEnrichment applies a monotonic union merge to the stored contacts
// and overwrites site_type only with a non-empty classification. An empty
// classification never erases a previous one.
func (s *Store) MergeEnrichment(domain, siteType string, incoming contacts.Set) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback()

	var prevJSON sql.NullString
	err = tx.QueryRow("SELECT contacts_json FROM domain_status WHERE domain = ?", domain).Scan(&prevJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("cannot merge enrichment for unknown domain %q", domain)
	}
	if err != nil {
		return fmt.Errorf("failed to read stored contacts: %w", err)
	}

	prev, parseErr := contacts.ParseSet([]byte(prevJSON.String))
	if parseErr != nil {
		// Corrupted stored JSON: start over from the incoming evidence
		prev = contacts.NewSet(nil, nil, nil, nil)
	}

	merged := prev.Union(incoming)
	data, err := merged.MarshalText()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		UPDATE domain_status SET
			site_type = COALESCE(NULLIF(?, ''), site_type),
			contacts_json = ?
		WHERE domain = ?
	`, siteType, string(data), domain)
	if err != nil {
		return fmt.Errorf("failed to merge enrichment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merge: %w", err)
	}
	return nil
}

// DistinctDomains returns every domain appearing in any snapshot row for
// the date: the enrichment work list.
func (s *Store) DistinctDomains(date string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT domain FROM serp_snapshot
		WHERE snapshot_date = ?
		ORDER BY domain
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating domains: %w", err)
	}
	return domains, nil
}

// SnapshotRows returns the snapshot for a date ordered by (keyword, position)
func (s *Store) SnapshotRows(date string) ([]SnapshotRow, error) {
	rows, err := s.db.Query(`
		SELECT snapshot_date, keyword, position, url, title, domain, snippet
		FROM serp_snapshot
		WHERE snapshot_date = ?
		ORDER BY keyword, position
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot rows: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var r SnapshotRow
		var title, snippet sql.NullString
		if err := rows.Scan(&r.Date, &r.Keyword, &r.Position, &r.URL, &title, &r.Domain, &snippet); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		r.Title = title.String
		r.Snippet = snippet.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return out, nil
}

// GetDomain retrieves a domain_status record, returns nil if not found
func (s *Store) GetDomain(domain string) (*DomainStatus, error) {
	row := s.db.QueryRow(`
		SELECT domain, homepage, first_seen, last_seen, site_type, contacts_json
		FROM domain_status
		WHERE domain = ?
	`, domain)

	status, err := scanDomainStatus(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get domain: %w", err)
	}
	return status, nil
}

// AllDomains returns every domain_status record ordered by domain
func (s *Store) AllDomains() ([]DomainStatus, error) {
	rows, err := s.db.Query(`
		SELECT domain, homepage, first_seen, last_seen, site_type, contacts_json
		FROM domain_status
		ORDER BY domain
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query domains: %w", err)
	}
	defer rows.Close()

	var out []DomainStatus
	for rows.Next() {
		status, scanErr := scanDomainStatus(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan domain status: %w", scanErr)
		}
		out = append(out, *status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating domains: %w", err)
	}
	return out, nil
}

// FirstSeen returns the first_seen date for a keyword/domain pair, or ""
// when the pair has never ranked.
func (s *Store) FirstSeen(keyword, domain string) (string, error) {
	var firstSeen string
	err := s.db.QueryRow(`
		SELECT first_seen FROM keyword_domain
		WHERE keyword = ? AND domain = ?
	`, keyword, domain).Scan(&firstSeen)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get first_seen: %w", err)
	}
	return firstSeen, nil
}

func scanDomainStatus(scan func(...any) error) (*DomainStatus, error) {
	var status DomainStatus
	var homepage, siteType, contactsJSON sql.NullString
	if err := scan(&status.Domain, &homepage, &status.FirstSeen, &status.LastSeen, &siteType, &contactsJSON); err != nil {
		return nil, err
	}

	status.Homepage = homepage.String
	status.SiteType = siteType.String

	parsed, err := contacts.ParseSet([]byte(contactsJSON.String))
	if err != nil {
		parsed = contacts.NewSet(nil, nil, nil, nil)
	}
	status.Contacts = parsed

	return &status, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
