package cache

import (
	"fmt"
	"regexp"
	"strings"
)

// Separator joins key segments
const Separator = ":"

// Any matches exactly one segment in a Pattern
var Any = anySegment{}

type anySegment struct{}

var segmentEscaper = strings.NewReplacer(`\`, `\\`, Separator, `\`+Separator)

// Segment formats and escapes one key segment so it never contains a bare separator
func Segment(part any) string {
	var s string
	switch v := part.(type) {
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	return segmentEscaper.Replace(s)
}

// Key builds a cache key from ordered segments, e.g. Key("mediaItem", "recent", 42, "movie")
func Key(parts ...any) string {
	segs := make([]string, len(parts))
	for i, p := range parts {
		segs[i] = Segment(p)
	}
	return strings.Join(segs, Separator)
}

// HasPrefix reports whether key equals prefix or is nested under it on a segment boundary
func HasPrefix(key, prefix string) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	rest := key[len(prefix):]
	if rest == "" {
		return true
	}
	return strings.HasPrefix(rest, Separator)
}

const segmentRE = `(?:[^:\\]|\\.)*`

// Pattern builds an anchored regexp matching keys that start with the given segments.
// Any matches one arbitrary segment; keys may carry further segments after the last one.
func Pattern(parts ...any) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(Separator)
		}
		if _, ok := p.(anySegment); ok {
			b.WriteString(segmentRE)
			continue
		}
		b.WriteString(regexp.QuoteMeta(Segment(p)))
	}
	b.WriteString(`(?::|$)`)
	return regexp.MustCompile(b.String())
}
