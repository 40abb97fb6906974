// Package stream implements the online tag-stripping filter applied to
// incremental model output before it reaches the client.
package stream

import "strings"

// Default delimiter pair for model reasoning spans.
const (
	ThinkingOpenTag  = "<thinking>"
	ThinkingCloseTag = "</thinking>"
)

// TagFilter removes tagged spans (inclusive of the tags) from an incremental
// text stream. Tags are matched case-insensitively and may be split across
// fragment boundaries; no prefix of a tag is ever emitted as ordinary text.
//
// The filter holds back at most len(tag)-1 characters between fragments, so
// memory use is bounded regardless of input length. It never errors: a tag
// that never opens degrades to plain text, and an unterminated span silently
// consumes the rest of the stream.
type TagFilter struct {
	open   string // lowercase
	close  string // lowercase
	buf    string
	inside bool
}

// NewTagFilter returns a filter for the given open/close delimiter pair.
func NewTagFilter(open, close string) *TagFilter {
	return &TagFilter{
		open:  strings.ToLower(open),
		close: strings.ToLower(close),
	}
}

// NewThinkingFilter returns a filter for <thinking>...</thinking> spans.
func NewThinkingFilter() *TagFilter {
	return NewTagFilter(ThinkingOpenTag, ThinkingCloseTag)
}

// Feed appends one fragment and returns every character confirmed safe to
// emit. The returned string may be empty while the filter waits for more
// input to disambiguate a potential tag.
func (f *TagFilter) Feed(fragment string) string {
	f.buf += fragment

	var out strings.Builder
	for {
		if !f.inside {
			lower := asciiLower(f.buf)
			start := strings.Index(lower, f.open)
			if start >= 0 {
				out.WriteString(f.buf[:start])
				f.buf = f.buf[start+len(f.open):]
				f.inside = true
				continue
			}

			// No open tag. Emit everything except the longest suffix that
			// could still grow into one.
			keep := partialTagSuffix(lower, f.open)
			safe := len(f.buf) - keep
			if safe > 0 {
				out.WriteString(f.buf[:safe])
				f.buf = f.buf[safe:]
			}
			return out.String()
		}

		lower := asciiLower(f.buf)
		end := strings.Index(lower, f.close)
		if end >= 0 {
			// Discard the span content and the closing tag.
			f.buf = f.buf[end+len(f.close):]
			f.inside = false
			continue
		}

		// Still inside. Everything except a potential partial close tag is
		// confirmed thinking content and can be dropped now.
		if len(f.buf) >= len(f.close) {
			keep := partialTagSuffix(lower, f.close)
			if keep == 0 {
				keep = len(f.close) - 1
			}
			f.buf = f.buf[len(f.buf)-keep:]
		}
		return out.String()
	}
}

// Flush signals end-of-stream and returns any remaining safe output. A span
// left open discards its buffered remainder.
func (f *TagFilter) Flush() string {
	if f.inside {
		f.buf = ""
		return ""
	}
	out := f.buf
	f.buf = ""
	return out
}

// asciiLower folds A-Z to a-z without touching other bytes, so byte offsets
// into the folded string remain valid for the original. The tags themselves
// are plain ASCII; model output may not be.
func asciiLower(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// partialTagSuffix reports the length of the longest proper suffix of buf
// that is a prefix of tag. buf must already be lowercased.
func partialTagSuffix(buf, tag string) int {
	max := len(tag) - 1
	if len(buf) < max {
		max = len(buf)
	}
	for n := max; n > 0; n-- {
		if buf[len(buf)-n:] == tag[:n] {
			return n
		}
	}
	return 0
}
