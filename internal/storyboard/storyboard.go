package storyboard

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/storyvideo/internal/config"
	"github.com/ivlev/storyvideo/internal/effects"
	"github.com/ivlev/storyvideo/internal/plan"
)

// Storyboard is a human-readable dump of a planned job
type Storyboard struct {
	Version         string  `yaml:"version"`
	JobID           string  `yaml:"job_id"`
	Audio           string  `yaml:"audio,omitempty"`
	TotalDuration   float64 `yaml:"total_duration"`   // narration or target length
	PlannedDuration float64 `yaml:"planned_duration"` // sum of segments, floor included
	Output          string  `yaml:"output"`
	Shots           []Shot  `yaml:"shots"`
}

// Shot is one segment of the video
type Shot struct {
	Position int     `yaml:"position"`
	Scene    int     `yaml:"scene"`
	Index    int     `yaml:"index"`
	Image    string  `yaml:"image"`
	Duration float64 `yaml:"duration"`
	Effect   string  `yaml:"effect"`
	Caption  string  `yaml:"caption,omitempty"`
	Output   string  `yaml:"output"`
	Filter   string  `yaml:"filter"`
}

// New describes the segments together with the exact filter each would render with
func New(jobID, audio, output string, total float64, specs []plan.SegmentSpec, eff effects.Effect, cfg *config.Config) *Storyboard {
	sb := &Storyboard{
		Version:       "1.0",
		JobID:         jobID,
		Audio:         audio,
		TotalDuration: total,
		Output:        output,
		Shots:         make([]Shot, 0, len(specs)),
	}

	for _, s := range specs {
		sb.PlannedDuration += s.Duration
		sb.Shots = append(sb.Shots, Shot{
			Position: s.Position,
			Scene:    s.Scene,
			Index:    s.Index,
			Image:    s.Image.Path,
			Duration: s.Duration,
			Effect:   s.Variant.String(),
			Caption:  s.Caption,
			Output:   s.Output,
			Filter:   eff.GenerateFilter(s.Params(cfg)),
		})
	}
	return sb
}

// Write writes a storyboard to a YAML file
func Write(sb *Storyboard, path string) error {
	data, err := yaml.Marshal(sb)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
