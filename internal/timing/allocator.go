// Package timing splits narration time across scenes and their images.
package timing

import (
	"errors"
	"math"

	"github.com/ivlev/storyvideo/internal/source"
)

// DefaultFloor keeps every segment long enough to encode on its own.
const DefaultFloor = 0.5

var (
	ErrNoTimingBasis   = errors.New("no timing basis: narration duration is 0, supply a narration track or a target duration")
	ErrNothingToRender = errors.New("nothing to render: no scenes with images, check image filenames")
)

// Slot is the display time of one image.
type Slot struct {
	Scene    int
	Index    int // position within the scene
	Duration float64
}

// Plan lists slots in scene order, then within-scene order.
type Plan []Slot

// Total may exceed the requested duration: the floor is never renormalized.
func (p Plan) Total() float64 {
	sum := 0.0
	for _, s := range p {
		sum += s.Duration
	}
	return sum
}

// Allocate gives every scene present in m an equal share of total and
// splits each share evenly across that scene's images, never below floor.
// Entries without images do not count as present.
func Allocate(total float64, m source.SceneImageMap, floor float64) (Plan, error) {
	if total <= 0 {
		return nil, ErrNoTimingBasis
	}
	present := 0
	for _, s := range m {
		if len(s.Images) > 0 {
			present++
		}
	}
	if present == 0 {
		return nil, ErrNothingToRender
	}
	if floor <= 0 {
		floor = DefaultFloor
	}

	perScene := total / float64(present)

	plan := make(Plan, 0, m.ImageCount())
	for _, s := range m {
		k := len(s.Images)
		if k == 0 {
			continue
		}
		d := math.Max(floor, perScene/float64(k))
		for j := 0; j < k; j++ {
			plan = append(plan, Slot{Scene: s.Scene, Index: j, Duration: d})
		}
	}
	return plan, nil
}

// ResolveTotal picks the timing basis: an explicit target (minutes) wins,
// otherwise the probed narration length. A failed probe counts as 0.
func ResolveTotal(targetMinutes float64, probe func() (float64, error)) float64 {
	if targetMinutes > 0 {
		return targetMinutes * 60
	}
	if probe == nil {
		return 0
	}
	d, err := probe()
	if err != nil || d < 0 {
		return 0
	}
	return d
}
