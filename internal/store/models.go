package store

import "github.com/alvmarrod/serp-scout/internal/contacts"

// SnapshotRow is one ranked result frozen for a (date, keyword, position) key
type SnapshotRow struct {
	Date     string
	Keyword  string
	Position int
	URL      string
	Title    string
	Domain   string
	Snippet  string
}

// DomainStatus is the lifecycle record for a domain, independent of keyword.
// Homepage and SiteType are "" while unknown.
type DomainStatus struct {
	Domain    string
	Homepage  string
	FirstSeen string
	LastSeen  string
	SiteType  string
	Contacts  contacts.Set
}
