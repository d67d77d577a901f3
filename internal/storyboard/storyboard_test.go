package storyboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/storyvideo/internal/config"
	"github.com/ivlev/storyvideo/internal/effects"
	"github.com/ivlev/storyvideo/internal/plan"
	"github.com/ivlev/storyvideo/internal/source"
)

func TestNewAndWrite(t *testing.T) {
	cfg := config.Default()
	specs := []plan.SegmentSpec{
		{Position: 0, Scene: 1, Index: 0, Image: source.ImageRef{Path: "1.png", Number: 1}, Duration: 0.5, Variant: effects.ZoomIn, Caption: "it's: here", Output: "out/j_seg_0_0.mp4"},
		{Position: 1, Scene: 1, Index: 1, Image: source.ImageRef{Path: "2.png", Number: 2}, Duration: 0.5, Variant: effects.ZoomOut, Output: "out/j_seg_0_1.mp4"},
	}

	sb := New("j", "voice.mp3", "out/final_video_j.mp4", 0.2, specs, &effects.CycleEffect{}, cfg)
	if sb.PlannedDuration != 1.0 || sb.TotalDuration != 0.2 {
		t.Errorf("Durations wrong: planned %f total %f", sb.PlannedDuration, sb.TotalDuration)
	}
	if sb.Shots[1].Effect != "zoom-out" {
		t.Errorf("Expected zoom-out, got %s", sb.Shots[1].Effect)
	}
	if !strings.Contains(sb.Shots[0].Filter, "drawtext=") || strings.Contains(sb.Shots[1].Filter, "drawtext=") {
		t.Errorf("Filters do not follow captions: %q / %q", sb.Shots[0].Filter, sb.Shots[1].Filter)
	}

	path := filepath.Join(t.TempDir(), "plans", "j.yaml")
	if err := Write(sb, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var read Storyboard
	if err := yaml.Unmarshal(data, &read); err != nil {
		t.Fatalf("Written storyboard is not valid YAML: %v", err)
	}
	if read.JobID != "j" || len(read.Shots) != 2 || read.Shots[0].Caption != "it's: here" || read.Shots[0].Filter != sb.Shots[0].Filter {
		t.Errorf("Storyboard did not survive YAML: %+v", read)
	}
}
