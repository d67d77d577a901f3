package timing

import (
	"errors"
	"math"
	"testing"

	"github.com/ivlev/storyvideo/internal/source"
)

func sceneMap(counts ...int) source.SceneImageMap {
	m := source.SceneImageMap{}
	for i, c := range counts {
		s := source.SceneImages{Scene: i + 1}
		for j := 0; j < c; j++ {
			s.Images = append(s.Images, source.ImageRef{Path: "img.png", Number: 2*i + j + 1})
		}
		m = append(m, s)
	}
	return m
}

func TestAllocateEvenSplit(t *testing.T) {
	plan, err := Allocate(60, sceneMap(1, 1, 1), DefaultFloor)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if len(plan) != 3 {
		t.Fatalf("Expected 3 slots, got %d", len(plan))
	}
	for i, s := range plan {
		if s.Duration != 20.0 {
			t.Errorf("Slot %d: expected 20s, got %f", i, s.Duration)
		}
		if s.Scene != i+1 || s.Index != 0 {
			t.Errorf("Slot %d has scene %d index %d", i, s.Scene, s.Index)
		}
	}
}

func TestAllocateIgnoresEmptyScenes(t *testing.T) {
	plan, err := Allocate(60, sceneMap(1, 0), DefaultFloor)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if len(plan) != 1 || plan[0].Scene != 1 {
		t.Fatalf("Expected one slot for scene 1, got %+v", plan)
	}
	if plan[0].Duration != 60.0 {
		t.Errorf("Expected the only present scene to get 60s, got %f", plan[0].Duration)
	}

	plan, err = Allocate(60, sceneMap(0, 2, 0, 1), DefaultFloor)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	want := []float64{15, 15, 30}
	if len(plan) != len(want) {
		t.Fatalf("Expected %d slots, got %d", len(want), len(plan))
	}
	for i, s := range plan {
		if s.Duration != want[i] {
			t.Errorf("Slot %d: expected %fs, got %f", i, want[i], s.Duration)
		}
	}
}

func TestAllocateSplitsWithinScene(t *testing.T) {
	plan, err := Allocate(30, sceneMap(2, 1, 3), DefaultFloor)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	want := []float64{5, 5, 10, 10.0 / 3, 10.0 / 3, 10.0 / 3}
	if len(plan) != len(want) {
		t.Fatalf("Expected %d slots, got %d", len(want), len(plan))
	}
	for i, s := range plan {
		if math.Abs(s.Duration-want[i]) > 1e-9 {
			t.Errorf("Slot %d: expected %f, got %f", i, want[i], s.Duration)
		}
	}
	if math.Abs(plan.Total()-30) > 1e-9 {
		t.Errorf("Expected total 30, got %f", plan.Total())
	}
	if plan[4].Scene != 3 || plan[4].Index != 1 {
		t.Errorf("Unexpected slot order: %+v", plan[4])
	}
}

func TestAllocateFloor(t *testing.T) {
	plan, err := Allocate(0.2, sceneMap(1), DefaultFloor)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if plan[0].Duration != 0.5 {
		t.Errorf("Expected floor 0.5, got %f", plan[0].Duration)
	}
}

// The floor is not renormalized, so the sum can exceed the requested total.
func TestAllocateFloorDrift(t *testing.T) {
	plan, err := Allocate(2, sceneMap(10), DefaultFloor)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if got := plan.Total(); got != 5 {
		t.Errorf("Expected drifted total 5s for 10 floored images, got %f", got)
	}
}

func TestAllocatePreconditions(t *testing.T) {
	if _, err := Allocate(0, sceneMap(1, 2), DefaultFloor); !errors.Is(err, ErrNoTimingBasis) {
		t.Errorf("Expected ErrNoTimingBasis, got %v", err)
	}
	if _, err := Allocate(0, nil, DefaultFloor); !errors.Is(err, ErrNoTimingBasis) {
		t.Errorf("Zero duration must win over empty map, got %v", err)
	}
	if _, err := Allocate(120, nil, DefaultFloor); !errors.Is(err, ErrNothingToRender) {
		t.Errorf("Expected ErrNothingToRender, got %v", err)
	}
	if _, err := Allocate(120, sceneMap(0, 0), DefaultFloor); !errors.Is(err, ErrNothingToRender) {
		t.Errorf("Expected ErrNothingToRender for imageless scenes, got %v", err)
	}
}

func TestResolveTotal(t *testing.T) {
	probed := func() (float64, error) { return 42.5, nil }
	failing := func() (float64, error) { return 0, errors.New("ffprobe missing") }

	tests := []struct {
		name   string
		target float64
		probe  func() (float64, error)
		want   float64
	}{
		{"target wins", 1.5, probed, 90},
		{"probe", 0, probed, 42.5},
		{"probe failure", 0, failing, 0},
		{"no probe", 0, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveTotal(tt.target, tt.probe); got != tt.want {
				t.Errorf("Expected %f, got %f", tt.want, got)
			}
		})
	}
}
