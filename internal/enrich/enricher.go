package enrich

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alvmarrod/serp-scout/internal/classify"
	"github.com/alvmarrod/serp-scout/internal/contacts"
	"github.com/alvmarrod/serp-scout/internal/fetch"
)

// contactHints flag anchors that likely lead to a contact page. The list
// is multilingual: tracked markets include Ukrainian and German SERPs.
var contactHints = []string{
	"contact", "contacts", "contact-us", "support", "feedback", "about", "about-us",
	"kontakt", "kontakty", "impressum", "контакт", "контакти", "про-нас", "о-нас",
}

// conventionalPaths are tried against the site origin even when no anchor
// points at them.
var conventionalPaths = []string{
	"/contact", "/contacts", "/contact-us", "/about", "/about-us", "/impressum",
}

// Result is the outcome of enriching one domain. An unreachable homepage
// still yields a Result: empty contacts and no site type, not an error.
type Result struct {
	Domain   string
	Homepage string
	SiteType string
	Contacts contacts.Set
}

// Enricher derives a site type and contact evidence for a single domain.
// It is stateless: all persistence belongs to the caller.
type Enricher struct {
	fetcher  *fetch.Fetcher
	maxPages int
}

// NewEnricher creates an enricher fetching at most maxContactPages
// candidate pages per domain.
func NewEnricher(fetcher *fetch.Fetcher, maxContactPages int) *Enricher {
	return &Enricher{fetcher: fetcher, maxPages: maxContactPages}
}

// Enrich fetches the domain's homepage (with scheme fallback), classifies
// it, and harvests contacts from the homepage plus a bounded set of
// candidate contact pages. Contact page fetch misses are skipped silently.
func (e *Enricher) Enrich(domain, homepageHint string) Result {
	homepage := homepageHint
	if homepage == "" {
		homepage = "https://" + domain + "/"
	}

	var body []byte
	if page, ok := e.fetcher.FetchWithFallback(domain, homepage); ok {
		body = page.Body
		homepage = page.FinalURL
	}

	siteType := classify.SiteType(pageTitle(body), string(body), homepage)
	found := contacts.Extract(body)

	candidates := e.contactPages(homepage, body)
	for _, candidate := range candidates {
		page, ok := e.fetcher.Fetch(candidate)
		if !ok {
			continue
		}
		found = found.Union(contacts.Extract(page.Body))
	}

	// Record every candidate considered, fetched or not
	found = found.Union(contacts.NewSet(nil, nil, nil, candidates))

	return Result{
		Domain:   domain,
		Homepage: homepage,
		SiteType: siteType,
		Contacts: found,
	}
}

// contactPages discovers candidate contact page URLs: homepage anchors
// whose href or text carries a contact hint, then the conventional paths
// resolved against the homepage origin. Deduplicated in discovery order
// and capped at maxPages.
func (e *Enricher) contactPages(baseURL string, body []byte) []string {
	if e.maxPages <= 0 {
		return []string{}
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return []string{}
	}

	var candidates []string

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err == nil {
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			href := strings.TrimSpace(sel.AttrOr("href", ""))
			if href == "" {
				return
			}

			text := strings.ToLower(strings.TrimSpace(sel.Text()))
			if !hasContactHint(strings.ToLower(href)) && !hasContactHint(text) {
				return
			}

			ref, parseErr := url.Parse(href)
			if parseErr != nil {
				return
			}
			resolved := base.ResolveReference(ref)
			if resolved.Scheme != "http" && resolved.Scheme != "https" {
				return
			}
			candidates = append(candidates, resolved.String())
		})
	}

	origin := base.Scheme + "://" + base.Host
	for _, path := range conventionalPaths {
		candidates = append(candidates, origin+path)
	}

	seen := make(map[string]bool, len(candidates))
	unique := make([]string, 0, e.maxPages)
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		if len(unique) >= e.maxPages {
			break
		}
		seen[c] = true
		unique = append(unique, c)
	}
	return unique
}

func hasContactHint(s string) bool {
	for _, hint := range contactHints {
		if strings.Contains(s, hint) {
			return true
		}
	}
	return false
}

func pageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
