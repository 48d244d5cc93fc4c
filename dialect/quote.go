package dialect

import "strings"

// RawMarker prefixes caller-trusted SQL text. Marked text is never quoted or bound;
// the marker is stripped before the text is used.
const RawMarker = "!!"

// Raw marks sql as literal text.
func Raw(sql string) string {
	return RawMarker + sql
}

// IsRaw reports whether s carries the raw marker and returns s without it.
// The marker alone is not raw text.
func IsRaw(s string) (string, bool) {
	if len(s) > len(RawMarker) && strings.HasPrefix(s, RawMarker) {
		return s[len(RawMarker):], true
	}
	return s, false
}

// Quote wraps an identifier in the dialect's quote pair.
//
//   - empty or raw-marked input is returned as is (marker stripped)
//   - "t.col" quotes only the part after the first dot: t.[col]
//   - "col alias" quotes the first token, or the last one when reverse is set
//   - anything else is wrapped unless it is "*" or already quoted
//
// reverse is used for SELECT lists, which are quoted twice: once for the source
// column and once, reversed, for the alias.
func (d Dialect) Quote(name string, reverse bool) string {
	if name == "" {
		return name
	}
	if text, ok := IsRaw(name); ok {
		return text
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i+1] + d.quoteSpaced(name[i+1:], reverse)
	}
	return d.quoteSpaced(name, reverse)
}

// QuoteColumn quotes an entry of a SELECT column list.
func (d Dialect) QuoteColumn(name string) string {
	if text, ok := IsRaw(name); ok {
		return text
	}
	return d.Quote(d.Quote(name, false), true)
}

func (d Dialect) quoteSpaced(name string, reverse bool) string {
	i := strings.IndexByte(name, ' ')
	if i < 0 {
		if reverse {
			return name
		}
		return d.wrap(name)
	}
	if !reverse {
		return d.wrap(name[:i]) + name[i:]
	}
	j := strings.LastIndexByte(name, ' ')
	return name[:j+1] + d.wrap(name[j+1:])
}

func (d Dialect) wrap(text string) string {
	t := strings.TrimSpace(text)
	if t == "" || t == "*" || strings.HasPrefix(t, d.StartQuote) {
		return text
	}
	return d.StartQuote + text + d.EndQuote
}
