package compose

import (
	"strings"

	"github.com/videobgremover/videobgremover-go/pkg/util"
)

// StackOrientation says how the color and alpha halves share a stacked frame.
type StackOrientation string

const (
	SideBySide StackOrientation = "side-by-side"
	TopBottom  StackOrientation = "top-bottom"
)

// StackOrder says which half carries color.
type StackOrder string

const (
	ColorFirst StackOrder = "color-first"
	AlphaFirst StackOrder = "alpha-first"
)

// AlphaEncoding describes how a foreground source carries transparency.
// The set of encodings is closed.
type AlphaEncoding interface {
	alphaEncoding()
	Kind() string
}

// NativeAlpha is a source whose container and pixel format carry an
// alpha channel directly, such as VP9 WebM or ProRes 4444.
type NativeAlpha struct {
	Codec string
}

func (NativeAlpha) alphaEncoding() {}
func (NativeAlpha) Kind() string   { return "native-alpha" }

// Stacked is a single opaque video holding the color plane and a
// grayscale alpha matte in two halves of each frame.
type Stacked struct {
	Orientation StackOrientation
	Order       StackOrder
}

func (Stacked) alphaEncoding() {}
func (Stacked) Kind() string   { return "stacked" }

// FrameSequence is a pair of parallel still-image sequences, one color
// and one grayscale matte, advanced at a declared frame rate.
type FrameSequence struct {
	FPS float64
}

func (FrameSequence) alphaEncoding() {}
func (FrameSequence) Kind() string   { return "frame-sequence" }

// SeparateMask is an opaque color video paired with a standalone
// grayscale matte video of the same timeline.
type SeparateMask struct{}

func (SeparateMask) alphaEncoding() {}
func (SeparateMask) Kind() string   { return "separate-mask" }

// Foreground is one compositable source: where its pixels come from and
// how its transparency is encoded. Foregrounds are immutable once built;
// layers reference them without copying.
type Foreground struct {
	Source     string
	MaskSource string
	Encoding   AlphaEncoding
	Info       SourceInfo
	Trim       *Trim
}

// NewNativeAlphaForeground wraps a source that carries alpha natively.
func NewNativeAlphaForeground(source string, info SourceInfo) (*Foreground, error) {
	if source == "" {
		return nil, configErrorf("foreground", "source path is required")
	}
	return &Foreground{
		Source:   source,
		Encoding: NativeAlpha{Codec: info.Codec},
		Info:     info,
	}, nil
}

// NewStackedForeground wraps a stacked color+matte video. Orientation and
// order must be declared up front; there is no sniffing at build time.
func NewStackedForeground(source string, orientation StackOrientation, order StackOrder, info SourceInfo) (*Foreground, error) {
	if source == "" {
		return nil, configErrorf("foreground", "source path is required")
	}
	switch orientation {
	case SideBySide, TopBottom:
	default:
		return nil, configErrorf("foreground", "unknown stack orientation %q", orientation)
	}
	switch order {
	case ColorFirst, AlphaFirst:
	default:
		return nil, configErrorf("foreground", "unknown stack order %q", order)
	}
	return &Foreground{
		Source:   source,
		Encoding: Stacked{Orientation: orientation, Order: order},
		Info:     info,
	}, nil
}

// NewFrameSequenceForeground wraps parallel color and matte image
// sequences. Both patterns are printf style, e.g. frame_%05d.png.
func NewFrameSequenceForeground(colorPattern, maskPattern string, fps float64, info SourceInfo) (*Foreground, error) {
	if colorPattern == "" || maskPattern == "" {
		return nil, configErrorf("foreground", "both color and mask patterns are required")
	}
	if fps <= 0 {
		return nil, configErrorf("foreground", "frame sequence fps must be positive, got %g", fps)
	}
	info.FPS = fps
	return &Foreground{
		Source:     colorPattern,
		MaskSource: maskPattern,
		Encoding:   FrameSequence{FPS: fps},
		Info:       info,
	}, nil
}

// NewSeparateMaskForeground wraps a color video with a standalone matte
// video on the same timeline.
func NewSeparateMaskForeground(source, maskSource string, info SourceInfo) (*Foreground, error) {
	if source == "" || maskSource == "" {
		return nil, configErrorf("foreground", "both color and mask sources are required")
	}
	return &Foreground{
		Source:     source,
		MaskSource: maskSource,
		Encoding:   SeparateMask{},
		Info:       info,
	}, nil
}

// Subclip restricts the foreground to a source-time window before any
// layer timing applies. End of zero means "until the source ends".
func (f *Foreground) Subclip(start, end float64) (*Foreground, error) {
	t := Trim{Start: start, End: end}
	if err := t.validate(); err != nil {
		return nil, err
	}
	if f.Info.Duration > 0 && start >= f.Info.Duration {
		return nil, configErrorf("subclip", "start %g is past source duration %g", start, f.Info.Duration)
	}
	clipped := *f
	clipped.Trim = &t
	return &clipped, nil
}

// ClipDuration is the playable length after any subclip, zero if unknown.
func (f *Foreground) ClipDuration() float64 {
	d := f.Info.Duration
	if f.Trim == nil {
		return d
	}
	end := f.Trim.End
	if end == 0 || (d > 0 && end > d) {
		end = d
	}
	if end <= 0 {
		return 0
	}
	return end - f.Trim.Start
}

// DetectEncoding guesses the alpha encoding of a probed source from its
// container and pixel format. Stacked layouts cannot be sniffed from
// metadata and must be declared explicitly.
func DetectEncoding(source string, info SourceInfo) AlphaEncoding {
	ext := util.Extension(source)
	if strings.Contains(source, "%") && (ext == ".png" || ext == ".tiff" || ext == ".tif") {
		return FrameSequence{FPS: info.FPS}
	}
	if info.HasAlpha {
		return NativeAlpha{Codec: info.Codec}
	}
	return nil
}
