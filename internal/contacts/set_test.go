package contacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSetNormalizes(t *testing.T) {
	s := NewSet(
		[]string{"b@x.com", "a@x.com", "b@x.com", ""},
		nil,
		[]string{"https://t.me/shop"},
		nil,
	)

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, s.Emails)
	assert.Equal(t, []string{}, s.Phones)
	assert.Equal(t, []string{"https://t.me/shop"}, s.Socials)
	assert.Equal(t, []string{}, s.Pages)
}

func TestUnionIsCommutative(t *testing.T) {
	r1 := NewSet([]string{"a@x.com"}, nil, []string{"https://facebook.com/x"}, []string{"https://x.com/contact"})
	r2 := NewSet([]string{"b@x.com"}, nil, []string{"https://facebook.com/x"}, nil)

	assert.Equal(t, r1.Union(r2), r2.Union(r1))
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, r1.Union(r2).Emails)
}

func TestUnionIsIdempotent(t *testing.T) {
	s := NewSet([]string{"a@x.com"}, nil, nil, []string{"https://x.com/about"})

	assert.Equal(t, s, s.Union(s))
}

func TestUnionNeverRemoves(t *testing.T) {
	prior := NewSet([]string{"old@x.com"}, nil, []string{"https://t.me/x"}, nil)
	empty := NewSet(nil, nil, nil, nil)

	merged := prior.Union(empty)
	assert.Equal(t, prior, merged)
}

func TestParseSetRoundTrip(t *testing.T) {
	original := NewSet([]string{"a@x.com"}, nil, []string{"https://x.com/p"}, []string{"https://x.com/contact"})

	data, err := original.MarshalText()
	require.NoError(t, err)

	parsed, err := ParseSet(data)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestParseSetToleratesAbsentCategories(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"empty object", "{}"},
		{"null categories", `{"emails":null,"phones":null}`},
		{"partial object", `{"emails":["a@x.com"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSet([]byte(tt.input))
			require.NoError(t, err)

			assert.NotNil(t, s.Emails)
			assert.NotNil(t, s.Phones)
			assert.NotNil(t, s.Socials)
			assert.NotNil(t, s.Pages)
		})
	}
}

func TestParseSetRejectsBrokenJSON(t *testing.T) {
	_, err := ParseSet([]byte("{not json"))
	assert.Error(t, err)
}
