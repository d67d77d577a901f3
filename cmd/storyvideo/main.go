package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ivlev/storyvideo/internal/config"
	"github.com/ivlev/storyvideo/internal/effects"
	"github.com/ivlev/storyvideo/internal/engine"
	"github.com/ivlev/storyvideo/internal/narration"
	"github.com/ivlev/storyvideo/internal/source"
	"github.com/ivlev/storyvideo/internal/story"
	"github.com/ivlev/storyvideo/internal/storyboard"
	"github.com/ivlev/storyvideo/internal/system"
	"github.com/ivlev/storyvideo/internal/video"
)

const usage = `usage: storyvideo <command> [flags]

commands:
  prompts   print numbered image prompts for a story
  plan      compute segment timing and effects, write a YAML storyboard
  render    render the narrated video
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "prompts":
		err = runPrompts(os.Args[2:])
	case "plan":
		err = runProject(os.Args[2:], false)
	case "render":
		err = runProject(os.Args[2:], true)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		os.Exit(1)
	}
}

func readStory(path, text string) (string, error) {
	if text != "" {
		return text, nil
	}
	if path == "" {
		return "", errors.New("provide -story <file> or -text <story>")
	}
	return story.LoadText(path)
}

func runPrompts(args []string) error {
	fs := flag.NewFlagSet("prompts", flag.ExitOnError)
	storyPtr := fs.String("story", "", "Story file (.txt or .pdf)")
	textPtr := fs.String("text", "", "Story text (overrides -story)")
	fs.Parse(args)

	text, err := readStory(*storyPtr, *textPtr)
	if err != nil {
		return err
	}

	a := story.Analyze(text)
	if a.SceneCount() == 0 {
		return errors.New("story is empty")
	}
	fmt.Println(a.PromptList())
	fmt.Printf("\n[*] %d scenes: name images 1..%d (two per scene, e.g. 1_a.png, 2_b.png)\n", a.SceneCount(), a.SceneCount()*2)
	return nil
}

func runProject(args []string, render bool) error {
	name := "plan"
	if render {
		name = "render"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPtr := fs.String("config", "", "YAML config file")
	storyPtr := fs.String("story", "", "Story file (.txt or .pdf)")
	textPtr := fs.String("text", "", "Story text (overrides -story)")
	imagesPtr := fs.String("images", "", "Folder of images named <n>_*.png (default: <uploads>/images)")
	audioPtr := fs.String("audio", "", "Narration audio (default: newest file in <uploads>/audio)")
	ttsPtr := fs.Bool("tts", false, "Synthesize narration from the story text")
	targetPtr := fs.Float64("target", 0, "Target length in minutes, overrides the narration length")
	jobPtr := fs.String("job", "", "Job id (default: random UUID)")
	outDirPtr := fs.String("output-dir", "", "Output folder")
	fontPtr := fs.String("font", "", "Caption font file")
	encoderPtr := fs.String("encoder", "", "Video encoder: libx264, h264_nvenc, h264_videotoolbox, auto")
	qualityPtr := fs.Int("quality", 0, "Quality (0 = auto, x264/NVENC: CRF/CQ, VideoToolbox: bitrate = Q*100kbit/s)")
	workersPtr := fs.Int("workers", 0, "Parallel segment renders (0 = auto)")
	storyboardPtr := fs.String("storyboard", "", "Storyboard output path (plan only)")
	verbosePtr := fs.Bool("verbose", false, "Debug logging")
	fs.Parse(args)

	logger, err := newLogger(*verbosePtr)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output-dir":
			cfg.OutputDir = *outDirPtr
		case "font":
			cfg.FontFile = *fontPtr
		case "encoder":
			cfg.VideoEncoder = *encoderPtr
		case "quality":
			cfg.Quality = *qualityPtr
		case "workers":
			cfg.Workers = *workersPtr
		case "target":
			cfg.TargetMinutes = *targetPtr
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	text, err := readStory(*storyPtr, *textPtr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := system.ExecRunner{}
	if cfg.VideoEncoder == "auto" {
		cfg.VideoEncoder = system.GetBestH264Encoder(ctx, runner, cfg.FFmpegPath)
		logger.Info("encoder selected", zap.String("encoder", cfg.VideoEncoder))
	}

	ve := video.NewFFmpegEncoder(runner, cfg.FFmpegPath, cfg.VideoEncoder, cfg.Quality, cfg.FPS)
	eff := &effects.CycleEffect{}
	project := engine.NewVideoProject(cfg, ve, eff, runner, logger)
	project.Narrator = narration.NewClient(logger, cfg.TTSEndpoint)

	if err := project.Prepare(); err != nil {
		return err
	}

	imagesDir := *imagesPtr
	if imagesDir == "" {
		imagesDir = filepath.Join(cfg.UploadsDir, "images")
	}
	images, err := source.ListImages(imagesDir)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}

	audioPath := *audioPtr
	if audioPath == "" && !*ttsPtr {
		if latest, err := system.FindLatestAudio(filepath.Join(cfg.UploadsDir, "audio")); err == nil {
			audioPath = latest
			logger.Info("using newest narration", zap.String("audio", audioPath))
		}
	}

	req := engine.Request{
		JobID:      *jobPtr,
		Story:      text,
		Images:     images,
		AudioPath:  audioPath,
		Synthesize: *ttsPtr,
	}

	if !render {
		job, err := project.Plan(ctx, req)
		if err != nil {
			return err
		}
		out := *storyboardPtr
		if out == "" {
			out = filepath.Join(cfg.OutputDir, fmt.Sprintf("storyboard_%s.yaml", job.ID))
		}
		sb := storyboard.New(job.ID, job.AudioPath, job.OutputPath, job.TotalDuration, job.Segments, eff, cfg)
		if err := storyboard.Write(sb, out); err != nil {
			return err
		}
		fmt.Printf("[+++] Storyboard: %s (%d segments, %.2fs)\n", out, len(sb.Shots), sb.PlannedDuration)
		return nil
	}

	job, err := project.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("[+++] Done: %s\n", job.OutputPath)
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
