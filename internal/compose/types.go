package compose

import "fmt"

// Anchor names one of nine canvas alignment points. Overlay positions
// derived from an anchor are emitted as symbolic expressions so they
// survive later scaling decisions made by the engine.
type Anchor string

const (
	TopLeft      Anchor = "top-left"
	TopCenter    Anchor = "top-center"
	TopRight     Anchor = "top-right"
	CenterLeft   Anchor = "center-left"
	Center       Anchor = "center"
	CenterRight  Anchor = "center-right"
	BottomLeft   Anchor = "bottom-left"
	BottomCenter Anchor = "bottom-center"
	BottomRight  Anchor = "bottom-right"
)

var anchorExprs = map[Anchor][2]string{
	TopLeft:      {"0", "0"},
	TopCenter:    {"(W-w)/2", "0"},
	TopRight:     {"W-w", "0"},
	CenterLeft:   {"0", "(H-h)/2"},
	Center:       {"(W-w)/2", "(H-h)/2"},
	CenterRight:  {"W-w", "(H-h)/2"},
	BottomLeft:   {"0", "H-h"},
	BottomCenter: {"(W-w)/2", "H-h"},
	BottomRight:  {"W-w", "H-h"},
}

// SizeMode selects how a layer's target rectangle is derived.
type SizeMode string

const (
	// SizeContain fits the layer inside the canvas preserving aspect ratio.
	SizeContain SizeMode = "contain"
	// SizeCover fills the canvas preserving aspect ratio, cropping overflow.
	SizeCover SizeMode = "cover"
	// SizePixels scales to exact pixel dimensions. Aspect is not preserved.
	SizePixels SizeMode = "pixels"
	// SizePercent scales to a percentage of canvas dimensions, fitting
	// inside the derived box with aspect preserved.
	SizePercent SizeMode = "percent"
	// SizeScale multiplies the source dimensions by a factor.
	SizeScale SizeMode = "scale"
	// SizeFitWidth matches the canvas width, height follows aspect.
	SizeFitWidth SizeMode = "fit-width"
	// SizeFitHeight matches the canvas height, width follows aspect.
	SizeFitHeight SizeMode = "fit-height"
)

// SizeSpec carries the parameters for one SizeMode. Fields irrelevant to
// the mode are ignored.
type SizeSpec struct {
	Mode    SizeMode
	Width   int
	Height  int
	Percent float64
	Factor  float64
}

func (s SizeSpec) validate() error {
	switch s.Mode {
	case SizeContain, SizeCover, SizeFitWidth, SizeFitHeight:
		return nil
	case SizePixels:
		if s.Width <= 0 || s.Height <= 0 {
			return configErrorf("size", "pixel dimensions must be positive, got %dx%d", s.Width, s.Height)
		}
	case SizePercent:
		if s.Percent <= 0 || s.Percent > 100 {
			return configErrorf("size", "percent must be in (0, 100], got %g", s.Percent)
		}
	case SizeScale:
		if s.Factor <= 0 {
			return configErrorf("size", "scale factor must be positive, got %g", s.Factor)
		}
	default:
		return configErrorf("size", "unknown size mode %q", s.Mode)
	}
	return nil
}

// Canvas is the output frame geometry. FPS of zero means "not decided
// yet"; resolution fills it from the background or a default.
type Canvas struct {
	Width  int
	Height int
	FPS    float64
}

func NewCanvas(width, height int, fps float64) (Canvas, error) {
	if width <= 0 || height <= 0 {
		return Canvas{}, configErrorf("canvas", "dimensions must be positive, got %dx%d", width, height)
	}
	if fps < 0 {
		return Canvas{}, configErrorf("canvas", "fps must not be negative, got %g", fps)
	}
	return Canvas{Width: width, Height: height, FPS: fps}, nil
}

func (c Canvas) String() string {
	return fmt.Sprintf("%dx%d@%g", c.Width, c.Height, c.FPS)
}

// Rect is a crop region in source pixel coordinates.
type Rect struct {
	X, Y, Width, Height int
}

func (r Rect) validate(srcW, srcH int) error {
	if r.Width <= 0 || r.Height <= 0 {
		return configErrorf("crop", "dimensions must be positive, got %dx%d", r.Width, r.Height)
	}
	if r.X < 0 || r.Y < 0 {
		return configErrorf("crop", "offsets must not be negative, got +%d+%d", r.X, r.Y)
	}
	if srcW > 0 && srcH > 0 {
		if r.X+r.Width > srcW || r.Y+r.Height > srcH {
			return configErrorf("crop", "region %dx%d+%d+%d exceeds source bounds %dx%d",
				r.Width, r.Height, r.X, r.Y, srcW, srcH)
		}
	}
	return nil
}

// Trim is a source-time subclip applied before the layer timeline.
type Trim struct {
	Start float64
	End   float64
}

func (t Trim) validate() error {
	if t.Start < 0 {
		return configErrorf("subclip", "start must not be negative, got %g", t.Start)
	}
	if t.End != 0 && t.End <= t.Start {
		return configErrorf("subclip", "end %g must be after start %g", t.End, t.Start)
	}
	return nil
}

// SourceInfo describes a media source as declared or probed. The builder
// never opens files itself, it trusts these numbers.
type SourceInfo struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
	Codec    string
	PixFmt   string
	HasAudio bool
	HasAlpha bool
}
