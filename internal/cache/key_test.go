package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stringer string

func (s stringer) String() string { return "s-" + string(s) }

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		parts []any
		want  string
	}{
		{"plain", []any{"mediaItem", "recent", 42, "movie", 10}, "mediaItem:recent:42:movie:10"},
		{"escapes separator", []any{"search", "local", `{"a":1}`}, `search:local:{"a"\:1}`},
		{"escapes backslash", []any{"k", `a\b`}, `k:a\\b`},
		{"stringer", []any{"k", stringer("x")}, "k:s-x"},
		{"empty segment", []any{"user", ""}, "user:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.parts...))
		})
	}
}

func TestHasPrefix(t *testing.T) {
	tests := []struct {
		key, prefix string
		want        bool
	}{
		{"a:b:c", "a:b", true},
		{"a:b", "a:b", true},
		{"a:bc", "a:b", false},
		{"a:b", "", true},
		{Key("q", "x:y"), Key("q", "x"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasPrefix(tt.key, tt.prefix), "%s / %s", tt.key, tt.prefix)
	}
}

func TestPattern(t *testing.T) {
	re := Pattern("mediaItem", Any, 42, "movie")

	matches := []string{
		Key("mediaItem", "recent", 42, "movie", 10),
		Key("mediaItem", "genre", 42, "movie", "Sci:Fi", 10),
		Key("mediaItem", "details", 42, "movie"),
	}
	misses := []string{
		Key("mediaItem", "recent", 421, "movie", 10),
		Key("mediaItem", "recent", 42, "series", 10),
		Key("mediaItem", "recent", 42, "movies"),
		Key("person", "recent", 42, "movie"),
	}
	for _, k := range matches {
		assert.True(t, re.MatchString(k), k)
	}
	for _, k := range misses {
		assert.False(t, re.MatchString(k), k)
	}
}

func TestPatternAnySegmentSpansEscapes(t *testing.T) {
	re := Pattern("search", Any, "q")
	assert.True(t, re.MatchString(Key("search", "a:b", "q")))
	assert.False(t, re.MatchString(Key("search", "a", "b", "q")))
}
