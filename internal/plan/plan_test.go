package plan

import (
	"path/filepath"
	"testing"

	"github.com/ivlev/storyvideo/internal/config"
	"github.com/ivlev/storyvideo/internal/effects"
	"github.com/ivlev/storyvideo/internal/source"
	"github.com/ivlev/storyvideo/internal/timing"
)

func mapped(t *testing.T, names ...string) (source.SceneImageMap, timing.Plan) {
	t.Helper()
	m := source.MapImages(names, nil)
	durations, err := timing.Allocate(30, m, timing.DefaultFloor)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	return m, durations
}

func TestBuildVariantsFollowGlobalPosition(t *testing.T) {
	// scene 1 has one image, scene 2 three, scene 3 two: variants must ignore scene boundaries
	m, durations := mapped(t, "1.png", "3.png", "4.png", "4b.png", "5.png", "6.png")

	specs, next, err := Build(Input{JobID: "job", OutputDir: "out", Scenes: m, Durations: durations}, 0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if next != 6 {
		t.Errorf("Expected counter 6, got %d", next)
	}

	want := []effects.Variant{effects.ZoomIn, effects.ZoomOut, effects.Pan, effects.ZoomIn, effects.ZoomOut, effects.Pan}
	for i, s := range specs {
		if s.Position != i {
			t.Errorf("Spec %d has position %d", i, s.Position)
		}
		if s.Variant != want[i] {
			t.Errorf("Spec %d: expected %s, got %s", i, want[i], s.Variant)
		}
	}
}

func TestBuildCounterIsThreaded(t *testing.T) {
	m, durations := mapped(t, "1.png", "2.png")

	specs, next, err := Build(Input{JobID: "j", Scenes: m, Durations: durations}, 4)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if next != 6 {
		t.Errorf("Expected counter 6, got %d", next)
	}
	if specs[0].Variant != effects.ZoomOut || specs[1].Variant != effects.Pan {
		t.Errorf("Variants did not continue from counter: %s, %s", specs[0].Variant, specs[1].Variant)
	}
}

func TestBuildCaptionsAndOutputs(t *testing.T) {
	m, durations := mapped(t, "1.png", "2.png", "5.png")
	captions := []string{"A hero rises", "He falls"}

	specs, _, err := Build(Input{JobID: "abc", OutputDir: "out", Scenes: m, Durations: durations, Captions: captions, CaptionWidth: 40}, 0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("Expected 3 specs, got %d", len(specs))
	}

	if specs[0].Caption != "A hero rises" || specs[1].Caption != "A hero rises" {
		t.Errorf("Scene 1 captions wrong: %q %q", specs[0].Caption, specs[1].Caption)
	}
	// image 5 is scene 3, past the caption list
	if specs[2].Scene != 3 || specs[2].Caption != "" {
		t.Errorf("Expected empty caption for scene 3, got %+v", specs[2])
	}

	wantOut := []string{"abc_seg_0_0.mp4", "abc_seg_0_1.mp4", "abc_seg_1_0.mp4"}
	for i, s := range specs {
		if s.Output != filepath.Join("out", wantOut[i]) {
			t.Errorf("Spec %d output %s, want %s", i, s.Output, wantOut[i])
		}
	}
	if specs[0].Duration != 7.5 || specs[2].Duration != 15 {
		t.Errorf("Durations not carried: %f %f", specs[0].Duration, specs[2].Duration)
	}
}

func TestBuildRejectsMismatchedDurations(t *testing.T) {
	m, durations := mapped(t, "1.png", "2.png")

	if _, _, err := Build(Input{Scenes: m, Durations: durations[:1]}, 0); err == nil {
		t.Error("Expected error for missing duration")
	}

	swapped := timing.Plan{{Scene: 2, Index: 0, Duration: 1}, {Scene: 1, Index: 1, Duration: 1}}
	if _, _, err := Build(Input{Scenes: m, Durations: swapped}, 0); err == nil {
		t.Error("Expected error for misaligned duration slot")
	}
}

func TestSegmentSpecParams(t *testing.T) {
	cfg := config.Default()
	cfg.FontFile = "font.ttf"
	s := SegmentSpec{Duration: 2.5, Variant: effects.Pan, Caption: "hi"}

	p := s.Params(cfg)
	if p.Width != 1920 || p.Height != 1080 || p.FPS != 30 || p.Duration != 2.5 || p.Variant != 2 || p.Caption != "hi" || p.FontFile != "font.ttf" {
		t.Errorf("Unexpected params: %+v", p)
	}
}
