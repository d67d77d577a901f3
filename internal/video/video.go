package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ivlev/storyvideo/internal/system"
)

type VideoEncoder interface {
	EncodeSegment(ctx context.Context, imagePath, videoPath, filter string, duration float64) error
	Concatenate(ctx context.Context, segmentPaths []string, manifestPath, videoPath string) error
	MuxAudio(ctx context.Context, videoPath, audioPath, finalPath string) error
}

type FFmpegEncoder struct {
	Runner  system.Runner
	Binary  string
	Encoder string
	Quality int
	FPS     int
}

// DefaultQuality is the value used when quality is left at 0.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

func NewFFmpegEncoder(r system.Runner, binary, encoder string, quality, fps int) *FFmpegEncoder {
	if r == nil {
		r = system.ExecRunner{}
	}
	if binary == "" {
		binary = "ffmpeg"
	}
	if encoder == "" {
		encoder = "libx264"
	}
	if quality == 0 {
		quality = DefaultQuality(encoder)
	}
	return &FFmpegEncoder{Runner: r, Binary: binary, Encoder: encoder, Quality: quality, FPS: fps}
}

// EncodeSegment loops a still image for duration seconds through filter.
func (e *FFmpegEncoder) EncodeSegment(ctx context.Context, imagePath, videoPath, filter string, duration float64) error {
	args := e.buildSegmentArgs(imagePath, videoPath, filter, duration)
	if out, err := e.Runner.Run(ctx, e.Binary, args...); err != nil {
		return fmt.Errorf("ffmpeg segment error: %w, output: %s", err, string(out))
	}
	return nil
}

func (e *FFmpegEncoder) buildSegmentArgs(imagePath, videoPath, filter string, duration float64) []string {
	args := []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-vf", filter,
		"-t", strconv.FormatFloat(duration, 'f', -1, 64),
		"-r", strconv.Itoa(e.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", e.Encoder,
	}

	switch e.Encoder {
	case "h264_videotoolbox":
		// VideoToolbox ignores -crf; quality maps to bitrate (75 -> 7.5 Mbit/s).
		args = append(args, "-b:v", fmt.Sprintf("%dk", e.Quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", strconv.Itoa(e.Quality))
	default: // libx264
		args = append(args, "-crf", strconv.Itoa(e.Quality), "-preset", "medium")
	}

	return append(args, videoPath)
}

// WriteManifest writes a concat demuxer list, one absolute path per line, in order.
func WriteManifest(path string, segmentPaths []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	for _, p := range segmentPaths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			f.Close()
			return err
		}
		quoted := strings.ReplaceAll(filepath.ToSlash(absPath), "'", `'\''`)
		if _, err := fmt.Fprintf(f, "file '%s'\n", quoted); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// Concatenate joins segments without re-encoding.
func (e *FFmpegEncoder) Concatenate(ctx context.Context, segmentPaths []string, manifestPath, videoPath string) error {
	if err := WriteManifest(manifestPath, segmentPaths); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	out, err := e.Runner.Run(ctx, e.Binary, "-y",
		"-f", "concat", "-safe", "0", "-i", manifestPath,
		"-c", "copy", videoPath,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg concat error: %w, output: %s", err, string(out))
	}
	return nil
}

// MuxAudio copies the video stream, encodes the narration to AAC and stops
// at the shorter stream.
func (e *FFmpegEncoder) MuxAudio(ctx context.Context, videoPath, audioPath, finalPath string) error {
	out, err := e.Runner.Run(ctx, e.Binary, "-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		finalPath,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg mux error: %w, output: %s", err, string(out))
	}
	return nil
}
