// Package story turns story text into ordered scenes.
package story

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minSceneRunes: fragments this short or shorter are dropped.
const minSceneRunes = 5

var sceneBreak = regexp.MustCompile(`[\n.]+`)

// Scene is one narrative beat. Index is 1-based and contiguous.
type Scene struct {
	Index int
	Text  string
}

// Split breaks text on newlines and periods. Runs of delimiters collapse
// into one break. A non-blank text always yields at least one scene.
func Split(text string) []Scene {
	var texts []string
	for _, frag := range sceneBreak.Split(text, -1) {
		frag = strings.TrimSpace(frag)
		if utf8.RuneCountInString(frag) <= minSceneRunes {
			continue
		}
		texts = append(texts, frag)
	}

	if len(texts) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		texts = []string{trimmed}
	}

	scenes := make([]Scene, len(texts))
	for i, t := range texts {
		scenes[i] = Scene{Index: i + 1, Text: t}
	}
	return scenes
}

// Texts returns scene texts in order, suitable for caption lookup.
func Texts(scenes []Scene) []string {
	out := make([]string, len(scenes))
	for i, s := range scenes {
		out[i] = s.Text
	}
	return out
}
