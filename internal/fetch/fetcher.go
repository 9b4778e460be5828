package fetch

import (
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// Page is the body of a successfully fetched HTML page together with the
// URL it finally resolved to after redirects.
type Page struct {
	Body     []byte
	FinalURL string
}

// Fetcher retrieves HTML pages through a shared colly collector.
// Any transport error, terminal error status, or non-HTML content type
// is reported as a miss (ok=false), never as an error: callers treat
// "no content" uniformly.
type Fetcher struct {
	base     *colly.Collector
	onResult func(ok bool)
}

// NewFetcher builds a fetcher around one configured collector. The
// collector's HTTP backend (connection pool) is shared by every fetch.
// onResult is an optional metrics hook invoked once per attempt.
func NewFetcher(userAgent string, timeout time.Duration, onResult func(ok bool)) *Fetcher {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(timeout)

	return &Fetcher{base: c, onResult: onResult}
}

// Fetch retrieves a single URL. Redirects are followed; the body is
// returned only for text/html or xhtml responses.
func (f *Fetcher) Fetch(pageURL string) (*Page, bool) {
	c := f.base.Clone()

	var page *Page
	c.OnResponse(func(r *colly.Response) {
		contentType := strings.ToLower(r.Headers.Get("Content-Type"))
		if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
			return
		}

		body := make([]byte, len(r.Body))
		copy(body, r.Body)
		page = &Page{Body: body, FinalURL: r.Request.URL.String()}
	})

	if err := c.Visit(pageURL); err != nil {
		logrus.Debugf("fetch miss for %s: %v", pageURL, err)
		f.notify(false)
		return nil, false
	}
	c.Wait()

	if page == nil {
		f.notify(false)
		return nil, false
	}
	f.notify(true)
	return page, true
}

// FetchWithFallback retries a homepage miss once over the alternate
// scheme before giving up.
func (f *Fetcher) FetchWithFallback(domain, pageURL string) (*Page, bool) {
	if page, ok := f.Fetch(pageURL); ok {
		return page, true
	}

	var alt string
	switch {
	case strings.HasPrefix(pageURL, "https://"):
		alt = "http://" + domain + "/"
	case strings.HasPrefix(pageURL, "http://"):
		alt = "https://" + domain + "/"
	}
	if alt == "" || alt == pageURL {
		return nil, false
	}

	return f.Fetch(alt)
}

func (f *Fetcher) notify(ok bool) {
	if f.onResult != nil {
		f.onResult(ok)
	}
}
