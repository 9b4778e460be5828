package contacts

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// emailRegex accepts RFC-lax addresses; good enough for harvesting,
// deliverability is out of scope.
var emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// socialHosts is the allow-list of social platform hosts. A link counts
// when its host equals an entry or is a subdomain of one.
var socialHosts = []string{
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"x.com",
	"twitter.com",
	"t.me",
	"youtube.com",
}

// Extract harvests contact evidence from a page body: emails via regex
// over the raw markup plus mailto: link targets, socials via the host
// allow-list. Phones stay empty, the category is reserved.
func Extract(body []byte) Set {
	emails := make(map[string]bool)
	socials := make(map[string]bool)

	for _, m := range emailRegex.FindAllString(string(body), -1) {
		emails[m] = true
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err == nil {
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			href := strings.TrimSpace(sel.AttrOr("href", ""))
			if href == "" {
				return
			}

			if addr, ok := mailtoTarget(href); ok {
				emails[addr] = true
				return
			}
			if isSocialLink(href) {
				socials[href] = true
			}
		})
	}

	return NewSet(keys(emails), nil, keys(socials), nil)
}

// mailtoTarget extracts the address from a mailto: link, dropping any
// ?subject= style suffix
func mailtoTarget(href string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(href), "mailto:") {
		return "", false
	}

	addr := href[len("mailto:"):]
	if i := strings.IndexByte(addr, '?'); i >= 0 {
		addr = addr[:i]
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", false
	}
	return addr, true
}

func isSocialLink(href string) bool {
	parsed, err := url.Parse(href)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return false
	}

	for _, allowed := range socialHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
