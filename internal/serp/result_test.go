package serp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomain(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://www.example.com/page?q=1", "example.com"},
		{"https://shop.example.co.uk/item", "example.co.uk"},
		{"http://EXAMPLE.COM", "example.com"},
		{"https://sub.deep.example.com/", "example.com"},
		{"http://192.168.1.10/admin", "192.168.1.10"},
		{"http://localhost:8080/", "localhost"},
		{"not a url at all", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Domain(tt.rawURL), "url %q", tt.rawURL)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://Example.COM/Page?q=1#frag", "https://example.com/Page"},
		{"https://example.com", "https://example.com/"},
		{"//example.com/path", "https://example.com/path"},
		{"http://example.com/a/b/", "http://example.com/a/b/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeURL(tt.rawURL), "url %q", tt.rawURL)
	}
}
