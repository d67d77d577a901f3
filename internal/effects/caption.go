package effects

import "strings"

// Wrap breaks text into lines of at most width runes on whitespace.
// Words longer than width are split.
func Wrap(text string, width int) []string {
	if width <= 0 {
		width = 40
	}

	var lines []string
	var cur []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > 0 {
			room := width - len(cur)
			if len(cur) > 0 {
				room--
			}
			if len(w) <= room {
				if len(cur) > 0 {
					cur = append(cur, ' ')
				}
				cur = append(cur, w...)
				w = nil
				continue
			}
			if len(cur) > 0 {
				lines = append(lines, string(cur))
				cur = nil
				continue
			}
			// word longer than a whole line
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}

// CaptionFor returns the wrapped text of a 1-based scene, or "" when the
// scene has no text.
func CaptionFor(captions []string, scene, width int) string {
	if scene < 1 || scene > len(captions) {
		return ""
	}
	return strings.Join(Wrap(captions[scene-1], width), "\n")
}
