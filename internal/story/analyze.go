package story

import (
	"fmt"
	"strings"
)

const promptRunes = 150

// Analysis is what a user needs before rendering: numbered image prompts
// (image files must be named after them) and the text to narrate.
type Analysis struct {
	Scenes        []Scene
	Prompts       []string
	NarrationText string
}

func (a *Analysis) SceneCount() int {
	return len(a.Scenes)
}

// PromptList renders the prompts one per line as "<n>. <prompt>".
func (a *Analysis) PromptList() string {
	lines := make([]string, len(a.Prompts))
	for i, p := range a.Prompts {
		lines[i] = fmt.Sprintf("%d. %s", i+1, p)
	}
	return strings.Join(lines, "\n")
}

func Analyze(text string) *Analysis {
	scenes := Split(text)
	a := &Analysis{Scenes: scenes}

	parts := make([]string, 0, len(scenes))
	for _, s := range scenes {
		a.Prompts = append(a.Prompts, "A cinematic 3D render of: "+truncateRunes(s.Text, promptRunes))
		parts = append(parts, s.Text)
	}
	a.NarrationText = strings.Join(parts, ". ")
	return a
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
