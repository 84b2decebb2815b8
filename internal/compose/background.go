package compose

import "github.com/videobgremover/videobgremover-go/pkg/util"

// Background is the bottom of the stack. The set of variants is closed:
// solid color, still image, video, or nothing at all.
type Background interface {
	background()
	Kind() string

	// intrinsicCanvas reports the geometry this background would give the
	// canvas when no explicit canvas is set.
	intrinsicCanvas() (Canvas, bool)
}

// ColorBackground fills the canvas with a solid color.
type ColorBackground struct {
	Color string // #RRGGBB
	Size  *Canvas
}

func (*ColorBackground) background()  {}
func (*ColorBackground) Kind() string { return "color" }

func (b *ColorBackground) intrinsicCanvas() (Canvas, bool) {
	if b.Size != nil {
		return *b.Size, true
	}
	return Canvas{}, false
}

// NewColorBackground builds a solid background. Size may be nil, in which
// case the canvas must come from somewhere else.
func NewColorBackground(hex string, size *Canvas) (*ColorBackground, error) {
	if err := util.ValidateHexColor(hex); err != nil {
		return nil, configErrorf("background", "%v", err)
	}
	return &ColorBackground{Color: hex, Size: size}, nil
}

// TransparentBackground leaves the canvas fully transparent. Output
// profiles that cannot carry alpha reject scenes built on it.
type TransparentBackground struct {
	Size *Canvas
}

func (*TransparentBackground) background()  {}
func (*TransparentBackground) Kind() string { return "transparent" }

func (b *TransparentBackground) intrinsicCanvas() (Canvas, bool) {
	if b.Size != nil {
		return *b.Size, true
	}
	return Canvas{}, false
}

func NewTransparentBackground(size *Canvas) *TransparentBackground {
	return &TransparentBackground{Size: size}
}

// ImageBackground stretches a still image across the canvas for the full
// duration of the scene.
type ImageBackground struct {
	Source string
	Info   SourceInfo
}

func (*ImageBackground) background()  {}
func (*ImageBackground) Kind() string { return "image" }

func (b *ImageBackground) intrinsicCanvas() (Canvas, bool) {
	if b.Info.Width > 0 && b.Info.Height > 0 {
		return Canvas{Width: b.Info.Width, Height: b.Info.Height, FPS: b.Info.FPS}, true
	}
	return Canvas{}, false
}

func NewImageBackground(source string, info SourceInfo) (*ImageBackground, error) {
	if source == "" {
		return nil, configErrorf("background", "image source is required")
	}
	return &ImageBackground{Source: source, Info: info}, nil
}

// VideoBackground plays a video under the layers. When no explicit
// duration is set, the scene runs as long as this video does.
type VideoBackground struct {
	Source       string
	Info         SourceInfo
	Trim         *Trim
	AudioEnabled bool
	AudioVolume  float64
}

func (*VideoBackground) background()  {}
func (*VideoBackground) Kind() string { return "video" }

func (b *VideoBackground) intrinsicCanvas() (Canvas, bool) {
	if b.Info.Width > 0 && b.Info.Height > 0 {
		return Canvas{Width: b.Info.Width, Height: b.Info.Height, FPS: b.Info.FPS}, true
	}
	return Canvas{}, false
}

func NewVideoBackground(source string, info SourceInfo) (*VideoBackground, error) {
	if source == "" {
		return nil, configErrorf("background", "video source is required")
	}
	return &VideoBackground{
		Source:       source,
		Info:         info,
		AudioEnabled: info.HasAudio,
		AudioVolume:  1.0,
	}, nil
}

// WithAudio controls whether the background's own audio track is mixed
// into the output. Volume outside [0, 1] is clamped.
func (b *VideoBackground) WithAudio(enabled bool, volume float64) *VideoBackground {
	b.AudioEnabled = enabled && b.Info.HasAudio
	b.AudioVolume = clamp01(volume)
	return b
}

// WithTrim restricts the background to a source-time window.
func (b *VideoBackground) WithTrim(start, end float64) (*VideoBackground, error) {
	t := Trim{Start: start, End: end}
	if err := t.validate(); err != nil {
		return nil, err
	}
	b.Trim = &t
	return b, nil
}

func (b *VideoBackground) clipDuration() float64 {
	d := b.Info.Duration
	if b.Trim == nil {
		return d
	}
	end := b.Trim.End
	if end == 0 || (d > 0 && end > d) {
		end = d
	}
	if end <= 0 {
		return 0
	}
	return end - b.Trim.Start
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
