package serp

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Result is one organic search result for a keyword
type Result struct {
	Position int
	Title    string
	URL      string
	Domain   string
	Snippet  string
}

// Domain extracts the registrable domain (eTLD+1) from a URL string.
// Falls back to the bare hostname when the public suffix list has no
// answer (IP addresses, intranet hosts).
func Domain(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return ""
	}

	etld, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return etld
}

// NormalizeURL produces the canonical form stored in snapshot rows:
// default https scheme, lowercase host, "/" path, no query or fragment.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}
	host := strings.ToLower(parsed.Host)
	path := parsed.Path
	if path == "" {
		path = "/"
	}

	return scheme + "://" + host + path
}
