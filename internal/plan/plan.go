// Package plan turns mapped images and their durations into renderable segments.
package plan

import (
	"fmt"
	"path/filepath"

	"github.com/ivlev/storyvideo/internal/config"
	"github.com/ivlev/storyvideo/internal/effects"
	"github.com/ivlev/storyvideo/internal/source"
	"github.com/ivlev/storyvideo/internal/timing"
)

// SegmentSpec is one clip to render. Specs are produced once and never mutated.
type SegmentSpec struct {
	Position int // zero-based across the whole job
	Scene    int
	Index    int // within the scene
	Image    source.ImageRef
	Duration float64
	Variant  effects.Variant
	Caption  string
	Output   string
}

type Input struct {
	JobID        string
	OutputDir    string
	Scenes       source.SceneImageMap
	Durations    timing.Plan
	Captions     []string
	CaptionWidth int
}

// Build lays out one spec per image in scene order. counter is the number of
// images already planned; the returned counter continues from it.
func Build(in Input, counter int) ([]SegmentSpec, int, error) {
	if n := in.Scenes.ImageCount(); n != len(in.Durations) {
		return nil, counter, fmt.Errorf("have %d images but %d durations", n, len(in.Durations))
	}

	specs := make([]SegmentSpec, 0, len(in.Durations))
	for i, s := range in.Scenes {
		caption := effects.CaptionFor(in.Captions, s.Scene, in.CaptionWidth)

		for j, img := range s.Images {
			slot := in.Durations[len(specs)]
			if slot.Scene != s.Scene || slot.Index != j {
				return nil, counter, fmt.Errorf("duration slot %d is scene %d image %d, expected scene %d image %d",
					len(specs), slot.Scene, slot.Index, s.Scene, j)
			}

			specs = append(specs, SegmentSpec{
				Position: counter,
				Scene:    s.Scene,
				Index:    j,
				Image:    img,
				Duration: slot.Duration,
				Variant:  effects.VariantAt(counter),
				Caption:  caption,
				Output:   filepath.Join(in.OutputDir, fmt.Sprintf("%s_seg_%d_%d.mp4", in.JobID, i, j)),
			})
			counter++
		}
	}

	return specs, counter, nil
}

// Params converts a spec into filter parameters for the configured output.
func (s SegmentSpec) Params(cfg *config.Config) config.SegmentParams {
	return config.SegmentParams{
		Width:    cfg.Width,
		Height:   cfg.Height,
		FPS:      cfg.FPS,
		Duration: s.Duration,
		Variant:  int(s.Variant),
		Caption:  s.Caption,
		FontFile: cfg.FontFile,
		FontSize: cfg.FontSize,
	}
}
