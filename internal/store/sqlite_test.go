package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvmarrod/serp-scout/internal/contacts"
	"github.com/alvmarrod/serp-scout/internal/serp"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleResults() []serp.Result {
	return []serp.Result{
		{Position: 1, Title: "Shop A", URL: "https://shop-a.example/p", Domain: "shop-a.example", Snippet: "buy now"},
		{Position: 2, Title: "Shop B", URL: "https://shop-b.example/", Domain: "shop-b.example"},
		{Position: 3, Title: "Shop A deep", URL: "https://shop-a.example/q", Domain: "shop-a.example"},
	}
}

func TestIngestSnapshotIsIdempotent(t *testing.T) {
	st := newTestStore(t)

	n, err := st.IngestSnapshot("2026-08-20", "shoes", sampleResults())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Re-ingesting the same snapshot inserts nothing
	n, err = st.IngestSnapshot("2026-08-20", "shoes", sampleResults())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	rows, err := st.SnapshotRows("2026-08-20")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestSnapshotRowsOrdering(t *testing.T) {
	st := newTestStore(t)

	_, err := st.IngestSnapshot("2026-08-20", "boots", []serp.Result{
		{Position: 2, URL: "https://b.example/", Domain: "b.example"},
		{Position: 1, URL: "https://a.example/", Domain: "a.example"},
	})
	require.NoError(t, err)
	_, err = st.IngestSnapshot("2026-08-20", "apples", []serp.Result{
		{Position: 1, URL: "https://c.example/", Domain: "c.example"},
	})
	require.NoError(t, err)

	rows, err := st.SnapshotRows("2026-08-20")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "apples", rows[0].Keyword)
	assert.Equal(t, "boots", rows[1].Keyword)
	assert.Equal(t, 1, rows[1].Position)
	assert.Equal(t, 2, rows[2].Position)
}

func TestFirstSeenIsWriteOnce(t *testing.T) {
	st := newTestStore(t)

	items := []serp.Result{{Position: 1, URL: "https://shop.example/", Domain: "shop.example"}}

	_, err := st.IngestSnapshot("2026-08-20", "shoes", items)
	require.NoError(t, err)
	_, err = st.IngestSnapshot("2026-08-21", "shoes", items)
	require.NoError(t, err)

	first, err := st.FirstSeen("shoes", "shop.example")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-20", first)

	// Never ranked pair
	first, err = st.FirstSeen("shoes", "never.example")
	require.NoError(t, err)
	assert.Equal(t, "", first)
}

func TestMarkDomainSeenHomepageFillsOnce(t *testing.T) {
	st := newTestStore(t)

	// First observation had no reachable homepage
	require.NoError(t, st.MarkDomainSeen("shop.example", "", "2026-08-20"))

	d, err := st.GetDomain("shop.example")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "", d.Homepage)
	assert.Equal(t, "2026-08-20", d.FirstSeen)

	// Second observation discovers the homepage
	require.NoError(t, st.MarkDomainSeen("shop.example", "https://shop.example/", "2026-08-21"))

	d, err = st.GetDomain("shop.example")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/", d.Homepage)
	assert.Equal(t, "2026-08-20", d.FirstSeen)
	assert.Equal(t, "2026-08-21", d.LastSeen)

	// A later different homepage never overwrites the first
	require.NoError(t, st.MarkDomainSeen("shop.example", "http://shop.example/", "2026-08-22"))

	d, err = st.GetDomain("shop.example")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/", d.Homepage)
}

func TestMarkDomainSeenLastSeenIsMonotonic(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.MarkDomainSeen("shop.example", "", "2026-08-21"))
	// An out-of-order backfill must not move last_seen backwards
	require.NoError(t, st.MarkDomainSeen("shop.example", "", "2026-08-19"))

	d, err := st.GetDomain("shop.example")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-21", d.LastSeen)
}

func TestMergeEnrichmentUnknownDomain(t *testing.T) {
	st := newTestStore(t)

	err := st.MergeEnrichment("ghost.example", "blog", contacts.NewSet(nil, nil, nil, nil))
	assert.Error(t, err)
}

func TestMergeEnrichmentContactsAreMonotonic(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.MarkDomainSeen("shop.example", "https://shop.example/", "2026-08-20"))

	r1 := contacts.NewSet([]string{"a@shop.example"}, nil, []string{"https://t.me/shop"}, nil)
	r2 := contacts.NewSet([]string{"b@shop.example"}, nil, []string{"https://t.me/shop"}, []string{"https://shop.example/contact"})

	require.NoError(t, st.MergeEnrichment("shop.example", "product", r1))
	require.NoError(t, st.MergeEnrichment("shop.example", "", r2))

	d, err := st.GetDomain("shop.example")
	require.NoError(t, err)

	assert.Equal(t, []string{"a@shop.example", "b@shop.example"}, d.Contacts.Emails)
	assert.Equal(t, []string{"https://t.me/shop"}, d.Contacts.Socials)
	assert.Equal(t, []string{"https://shop.example/contact"}, d.Contacts.Pages)
}

func TestMergeEnrichmentOrderIndependent(t *testing.T) {
	r1 := contacts.NewSet([]string{"a@x.example"}, nil, []string{"https://x.com/a"}, nil)
	r2 := contacts.NewSet([]string{"b@x.example"}, []string{"+380441234567"}, nil, nil)

	apply := func(t *testing.T, first, second contacts.Set) contacts.Set {
		st := newTestStore(t)
		require.NoError(t, st.MarkDomainSeen("x.example", "", "2026-08-20"))
		require.NoError(t, st.MergeEnrichment("x.example", "", first))
		require.NoError(t, st.MergeEnrichment("x.example", "", second))

		d, err := st.GetDomain("x.example")
		require.NoError(t, err)
		return d.Contacts
	}

	assert.Equal(t, apply(t, r1, r2), apply(t, r2, r1))
}

func TestMergeEnrichmentSiteTypeNeverErased(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.MarkDomainSeen("shop.example", "", "2026-08-20"))

	empty := contacts.NewSet(nil, nil, nil, nil)

	require.NoError(t, st.MergeEnrichment("shop.example", "product", empty))
	// An inconclusive later classification keeps the old one
	require.NoError(t, st.MergeEnrichment("shop.example", "", empty))

	d, err := st.GetDomain("shop.example")
	require.NoError(t, err)
	assert.Equal(t, "product", d.SiteType)

	// A conclusive later classification replaces it
	require.NoError(t, st.MergeEnrichment("shop.example", "media", empty))

	d, err = st.GetDomain("shop.example")
	require.NoError(t, err)
	assert.Equal(t, "media", d.SiteType)
}

func TestDistinctDomains(t *testing.T) {
	st := newTestStore(t)

	_, err := st.IngestSnapshot("2026-08-20", "shoes", sampleResults())
	require.NoError(t, err)
	_, err = st.IngestSnapshot("2026-08-21", "shoes", []serp.Result{
		{Position: 1, URL: "https://other.example/", Domain: "other.example"},
	})
	require.NoError(t, err)

	domains, err := st.DistinctDomains("2026-08-20")
	require.NoError(t, err)
	assert.Equal(t, []string{"shop-a.example", "shop-b.example"}, domains)

	domains, err = st.DistinctDomains("2026-08-19")
	require.NoError(t, err)
	assert.Empty(t, domains)
}

func TestGetDomainMissing(t *testing.T) {
	st := newTestStore(t)

	d, err := st.GetDomain("nope.example")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestAllDomainsOrdered(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.MarkDomainSeen("b.example", "", "2026-08-20"))
	require.NoError(t, st.MarkDomainSeen("a.example", "", "2026-08-20"))

	all, err := st.AllDomains()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a.example", all[0].Domain)
	assert.Equal(t, "b.example", all[1].Domain)

	// A record written by MarkDomainSeen alone has empty but usable contacts
	assert.Equal(t, []string{}, all[0].Contacts.Emails)
}
