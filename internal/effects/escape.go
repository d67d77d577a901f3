package effects

import "strings"

// ffmpeg parses a drawtext caption three times, outermost first:
//   1. the filtergraph splits filters, honouring '...' quotes and backslashes;
//   2. the filter splits key=value pairs on ':' with the same quoting rules;
//   3. drawtext expands %{...} sequences, with backslash escaping the next char.
// Escaping is applied innermost first.

const whitespace = " \t\n\v\f\r"

// EscapeDrawtext prepares literal caption text for a drawtext text= value.
func EscapeDrawtext(s string) string {
	return quoteGraph(escapeOption(escapeExpansion(s)))
}

// EscapeFilterValue prepares a literal option value, such as a font path,
// that drawtext does not expand.
func EscapeFilterValue(s string) string {
	return quoteGraph(escapeOption(s))
}

func escapeExpansion(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' || s[i] == '%' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// escapeOption backslash-escapes the option separators and quoting chars, plus
// leading and trailing whitespace which the option parser would otherwise trim.
func escapeOption(s string) string {
	lead := 0
	for lead < len(s) && strings.IndexByte(whitespace, s[lead]) >= 0 {
		lead++
	}
	trail := len(s)
	for trail > lead && strings.IndexByte(whitespace, s[trail-1]) >= 0 {
		trail--
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == '\'' || c == ':' || i < lead || i >= trail {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// quoteGraph wraps s in single quotes; an embedded quote closes the quoted
// run, is emitted escaped and reopens it.
func quoteGraph(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
