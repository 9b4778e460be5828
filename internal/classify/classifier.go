package classify

import "strings"

// category pairs a site type with the textual hints that vote for it.
// Declaration order is the tie-break: when two categories match the same
// number of hints, the one declared first wins. Keep this a slice, not a
// map, so the result never depends on iteration order.
type category struct {
	name  string
	hints []string
}

var categories = []category{
	{"product", []string{"add to cart", "buy now", "checkout", "/product/", "/products/", "schema.org/product", "товар"}},
	{"review", []string{"review", "reviews", "rating", "рейтинг", "обзор", "порівняння", "best"}},
	{"media", []string{"news", "новини", "newsarticle", "schema.org/newsarticle"}},
	{"blog", []string{"blog", "/blog/", "blogposting", "schema.org/article"}},
}

// SiteType scores the page's title, body and URL against each category's
// hint set and returns the best-scoring site type. A score of zero for
// every category yields "".
func SiteType(title, body, pageURL string) string {
	haystack := strings.ToLower(title) + "\n" + strings.ToLower(body) + "\n" + strings.ToLower(pageURL)

	best := ""
	bestScore := 0
	for _, cat := range categories {
		score := 0
		for _, hint := range cat.hints {
			if strings.Contains(haystack, hint) {
				score++
			}
		}
		if score > bestScore {
			best = cat.name
			bestScore = score
		}
	}

	return best
}
