package effects

import (
	"fmt"

	"github.com/ivlev/storyvideo/internal/config"
)

type Effect interface {
	GenerateFilter(params config.SegmentParams) string
}

// Variant is one of the three camera moves cycled across a job.
type Variant int

const (
	ZoomIn Variant = iota
	ZoomOut
	Pan

	variantCount = 3
)

func (v Variant) String() string {
	switch v {
	case ZoomIn:
		return "zoom-in"
	case ZoomOut:
		return "zoom-out"
	case Pan:
		return "pan"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// VariantAt selects the move for the image at a zero-based position in the whole job.
func VariantAt(position int) Variant {
	return Variant(position % variantCount)
}

// FrameCount is the zoompan length for a clip; one extra frame covers rounding.
func FrameCount(duration float64, fps int) int {
	return int(duration*float64(fps)) + 1
}

const (
	maxZoomIn = 1.5
	panZoom   = 1.1
)

// zoomPan returns the z, x and y expressions of the zoompan filter.
func zoomPan(v Variant, frames int) (string, string, string) {
	const centerX, centerY = "iw/2-(iw/zoom/2)", "ih/2-(ih/zoom/2)"

	switch v {
	case ZoomOut:
		return fmt.Sprintf("max(1.0,1.4-0.4*on/%d)", frames), centerX, centerY
	case Pan:
		// x only moves on the first output frame and then holds.
		return fmt.Sprintf("%.1f", panZoom), fmt.Sprintf("if(eq(on,0),0,x+((iw/zoom)/%d/2))", frames), "y"
	default:
		return fmt.Sprintf("min(%.1f,zoom+0.0025)", maxZoomIn), centerX, centerY
	}
}

// CycleEffect letterboxes the image, applies the variant's zoompan and
// burns the caption at the bottom.
type CycleEffect struct{}

func (e *CycleEffect) GenerateFilter(p config.SegmentParams) string {
	frames := FrameCount(p.Duration, p.FPS)
	z, x, y := zoomPan(Variant(p.Variant), frames)

	aspectFilter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black",
		p.Width, p.Height, p.Width, p.Height,
	)

	zoomFilter := fmt.Sprintf(
		"zoompan=z='%s':x='%s':y='%s':d=%d:s=%dx%d:fps=%d",
		z, x, y, frames, p.Width, p.Height, p.FPS,
	)

	if p.Caption == "" {
		return aspectFilter + "," + zoomFilter
	}
	return aspectFilter + "," + zoomFilter + "," + captionFilter(p)
}

func captionFilter(p config.SegmentParams) string {
	font := ""
	if p.FontFile != "" {
		font = "fontfile=" + EscapeFilterValue(p.FontFile) + ":"
	}
	size := p.FontSize
	if size <= 0 {
		size = 60
	}
	return fmt.Sprintf(
		"drawtext=%stext=%s:fontcolor=white:fontsize=%d:x=(w-text_w)/2:y=h-th-50:box=1:boxcolor=black@0.5:boxborderw=10",
		font, EscapeDrawtext(p.Caption), size,
	)
}
