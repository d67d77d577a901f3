package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/storyvideo/internal/config"
	"github.com/ivlev/storyvideo/internal/effects"
	"github.com/ivlev/storyvideo/internal/narration"
	"github.com/ivlev/storyvideo/internal/plan"
	"github.com/ivlev/storyvideo/internal/source"
	"github.com/ivlev/storyvideo/internal/story"
	"github.com/ivlev/storyvideo/internal/system"
	"github.com/ivlev/storyvideo/internal/timing"
	"github.com/ivlev/storyvideo/internal/video"
)

var ErrNoNarration = errors.New("no narration audio: upload a voice file or enable synthesis")

// StageError is a failure of a whole-job step after segment rendering.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// RenderJob is everything needed to assemble one video. The ID namespaces
// every temporary and output file, so it must not be reused.
type RenderJob struct {
	ID            string
	TotalDuration float64
	Segments      []plan.SegmentSpec
	AudioPath     string
	OutputPath    string
}

// SegmentResult is the outcome of rendering one spec. Err is nil on success.
type SegmentResult struct {
	Spec plan.SegmentSpec
	Path string
	Err  error
}

func (r SegmentResult) OK() bool {
	return r.Err == nil
}

// Request describes a story video to produce.
type Request struct {
	JobID         string // generated when empty
	Story         string
	Images        []string
	AudioPath     string
	Synthesize    bool    // synthesize narration instead of using AudioPath
	TargetMinutes float64 // overrides the narration length when > 0
}

type VideoProject struct {
	Config   *config.Config
	Encoder  video.VideoEncoder
	Effect   effects.Effect
	Runner   system.Runner
	Narrator narration.Synthesizer
	Logger   *zap.Logger
}

func NewVideoProject(cfg *config.Config, ve video.VideoEncoder, eff effects.Effect, r system.Runner, logger *zap.Logger) *VideoProject {
	if r == nil {
		r = system.ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoProject{
		Config:  cfg,
		Encoder: ve,
		Effect:  eff,
		Runner:  r,
		Logger:  logger,
	}
}

func NewJobID() string {
	return uuid.New().String()
}

func (p *VideoProject) audioDir() string {
	return filepath.Join(p.Config.UploadsDir, "audio")
}

// Prepare creates the working directories. It can be called any number of times.
func (p *VideoProject) Prepare() error {
	return system.EnsureDirs(
		p.Config.OutputDir,
		filepath.Join(p.Config.UploadsDir, "images"),
		p.audioDir(),
	)
}

func (p *VideoProject) ManifestPath(jobID string) string {
	return filepath.Join(p.Config.OutputDir, fmt.Sprintf("segments_%s.txt", jobID))
}

func (p *VideoProject) IntermediatePath(jobID string) string {
	return filepath.Join(p.Config.OutputDir, fmt.Sprintf("video_no_audio_%s.mp4", jobID))
}

func (p *VideoProject) FinalPath(jobID string) string {
	return filepath.Join(p.Config.OutputDir, fmt.Sprintf("final_video_%s.mp4", jobID))
}

// Run plans and renders a request and returns the job with its final video path.
func (p *VideoProject) Run(ctx context.Context, req Request) (*RenderJob, error) {
	job, err := p.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := p.Render(ctx, job); err != nil {
		return job, err
	}
	return job, nil
}

// Plan resolves narration and timing and lays out every segment. Apart from
// narration synthesis and duration probing it runs no external tool, and
// neither runs when no image maps to a scene.
func (p *VideoProject) Plan(ctx context.Context, req Request) (*RenderJob, error) {
	jobID := req.JobID
	if jobID == "" {
		jobID = NewJobID()
	}
	log := p.Logger.With(zap.String("job", jobID))

	if err := p.Prepare(); err != nil {
		return nil, err
	}

	analysis := story.Analyze(req.Story)
	log.Info("story analyzed", zap.Int("scenes", analysis.SceneCount()))

	scenes := source.MapImages(req.Images, log)
	if scenes.ImageCount() == 0 {
		return nil, timing.ErrNothingToRender
	}

	audioPath := req.AudioPath
	if req.Synthesize {
		if p.Narrator == nil {
			return nil, errors.New("narration synthesis requested but no synthesizer configured")
		}
		path, err := narration.Narrate(ctx, p.Narrator, analysis.NarrationText, p.Config.TTSLanguage, p.audioDir(), jobID)
		if err != nil {
			return nil, err
		}
		audioPath = path
	}

	total := timing.ResolveTotal(p.targetMinutes(req), func() (float64, error) {
		if audioPath == "" {
			return 0, ErrNoNarration
		}
		d, err := system.GetAudioDuration(ctx, p.Runner, p.Config.FFprobePath, audioPath)
		if err != nil {
			log.Warn("could not measure narration", zap.String("audio", audioPath), zap.Error(err))
		}
		return d, err
	})
	log.Info("timing basis", zap.Float64("seconds", total))

	durations, err := timing.Allocate(total, scenes, p.Config.MinSegmentDuration)
	if err != nil {
		return nil, err
	}
	if audioPath == "" {
		return nil, ErrNoNarration
	}

	specs, _, err := plan.Build(plan.Input{
		JobID:        jobID,
		OutputDir:    p.Config.OutputDir,
		Scenes:       scenes,
		Durations:    durations,
		Captions:     story.Texts(analysis.Scenes),
		CaptionWidth: p.Config.CaptionWidth,
	}, 0)
	if err != nil {
		return nil, err
	}

	if drift := durations.Total() - total; drift > 1e-9 {
		log.Info("segment floor extends video past narration", zap.Float64("extra_seconds", drift))
	}

	return &RenderJob{
		ID:            jobID,
		TotalDuration: total,
		Segments:      specs,
		AudioPath:     audioPath,
		OutputPath:    p.FinalPath(jobID),
	}, nil
}

func (p *VideoProject) targetMinutes(req Request) float64 {
	if req.TargetMinutes > 0 {
		return req.TargetMinutes
	}
	return p.Config.TargetMinutes
}

// Render runs the three phases: per-image clips, concat, audio mux.
// A failed clip is dropped from the video; concat and mux failures abort.
// Temporary files are removed whatever the outcome.
func (p *VideoProject) Render(ctx context.Context, job *RenderJob) (string, error) {
	log := p.Logger.With(zap.String("job", job.ID))
	startTime := time.Now()

	if len(job.Segments) == 0 {
		return "", timing.ErrNothingToRender
	}
	if job.AudioPath == "" {
		return "", ErrNoNarration
	}
	if err := p.Prepare(); err != nil {
		return "", err
	}

	manifest := p.ManifestPath(job.ID)
	intermediate := p.IntermediatePath(job.ID)
	defer p.cleanup(log, job, manifest, intermediate)

	renderStart := time.Now()
	results := p.renderSegments(ctx, job, log)
	var segmentPaths []string
	for _, r := range results {
		if r.OK() {
			segmentPaths = append(segmentPaths, r.Path)
		}
	}
	log.Info("segments rendered",
		zap.Int("ok", len(segmentPaths)),
		zap.Int("failed", len(results)-len(segmentPaths)),
		zap.Duration("took", time.Since(renderStart)))

	if len(segmentPaths) == 0 {
		return "", &StageError{Stage: "concat", Err: errors.New("every segment failed to render")}
	}

	concatStart := time.Now()
	if err := p.Encoder.Concatenate(ctx, segmentPaths, manifest, intermediate); err != nil {
		return "", &StageError{Stage: "concat", Err: err}
	}
	log.Info("segments concatenated", zap.Duration("took", time.Since(concatStart)))

	if err := p.Encoder.MuxAudio(ctx, intermediate, job.AudioPath, job.OutputPath); err != nil {
		if rmErr := os.Remove(job.OutputPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn("could not remove partial output", zap.String("file", job.OutputPath), zap.Error(rmErr))
		}
		return "", &StageError{Stage: "mux", Err: err}
	}

	log.Info("video ready", zap.String("file", job.OutputPath), zap.Duration("total", time.Since(startTime)))
	return job.OutputPath, nil
}

// renderSegments renders every spec and returns results in spec order.
// With more than one worker clips are encoded concurrently; each writes only its own output.
func (p *VideoProject) renderSegments(ctx context.Context, job *RenderJob, log *zap.Logger) []SegmentResult {
	results := make([]SegmentResult, len(job.Segments))

	workers := p.Config.Workers
	if workers == 0 {
		workers = system.RecommendedWorkers()
	}

	if workers <= 1 {
		for i, spec := range job.Segments {
			results[i] = p.renderSegment(ctx, spec, log)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, spec := range job.Segments {
		g.Go(func() error {
			results[i] = p.renderSegment(ctx, spec, log)
			return nil
		})
	}
	g.Wait()
	return results
}

func (p *VideoProject) renderSegment(ctx context.Context, spec plan.SegmentSpec, log *zap.Logger) SegmentResult {
	fields := []zap.Field{
		zap.Int("segment", spec.Position),
		zap.Int("scene", spec.Scene),
		zap.String("image", spec.Image.Path),
		zap.Stringer("effect", spec.Variant),
		zap.Float64("duration", spec.Duration),
	}
	w, h, err := source.Dimensions(spec.Image.Path)
	if err != nil {
		err = fmt.Errorf("read image %s: %w", spec.Image.Path, err)
		log.Warn("unreadable image, dropping segment", append(fields, zap.Error(err))...)
		return SegmentResult{Spec: spec, Err: err}
	}
	fields = append(fields, zap.Int("width", w), zap.Int("height", h))

	filter := p.Effect.GenerateFilter(spec.Params(p.Config))
	if err := p.Encoder.EncodeSegment(ctx, spec.Image.Path, spec.Output, filter, spec.Duration); err != nil {
		log.Warn("segment failed, dropping it from the video", append(fields, zap.Error(err))...)
		return SegmentResult{Spec: spec, Err: err}
	}

	log.Debug("segment ready", fields...)
	return SegmentResult{Spec: spec, Path: spec.Output}
}

// cleanup removes the manifest, the silent video and every clip. Failures are only logged.
func (p *VideoProject) cleanup(log *zap.Logger, job *RenderJob, manifest, intermediate string) {
	paths := []string{manifest, intermediate}
	for _, s := range job.Segments {
		paths = append(paths, s.Output)
	}

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("could not clean up temp file", zap.String("file", path), zap.Error(err))
		}
	}
}
