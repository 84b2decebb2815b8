package compose

import "github.com/google/uuid"

// Layer is one foreground placed on the canvas. Fields hold declarations
// as given; resolution against the canvas happens at build time.
type Layer struct {
	ID   uuid.UUID
	Name string
	FG   *Foreground

	Anchor Anchor
	DX, DY int
	XExpr  string
	YExpr  string

	Size SizeSpec

	Opacity   float64
	RotateDeg float64
	Crop      *Rect

	Start    *float64
	End      *float64
	Duration *float64

	AudioEnabled bool
	AudioVolume  float64
	AlphaEnabled bool

	Z int

	err error
}

func newLayer(fg *Foreground, z int) *Layer {
	return &Layer{
		ID:           uuid.New(),
		FG:           fg,
		Anchor:       Center,
		Size:         SizeSpec{Mode: SizeContain},
		Opacity:      1.0,
		AudioEnabled: fg.Info.HasAudio,
		AudioVolume:  1.0,
		AlphaEnabled: true,
		Z:            z,
	}
}

// Handle is the mutation surface for one layer. Setters validate
// eagerly: the first invalid declaration sticks to the layer and fails
// the build before any program is emitted.
type Handle struct {
	layer *Layer
	comp  *Composition
}

// Err reports the first invalid declaration made through this handle.
func (h *Handle) Err() error { return h.layer.err }

// ID identifies the layer for later lookup or removal.
func (h *Handle) ID() uuid.UUID { return h.layer.ID }

func (h *Handle) fail(err error) *Handle {
	if h.layer.err == nil {
		h.layer.err = err
	}
	return h
}

// Named attaches a human-readable name used in logs and diagnostics.
func (h *Handle) Named(name string) *Handle {
	h.layer.Name = name
	return h
}

// At places the layer at an anchor point with pixel offsets.
func (h *Handle) At(anchor Anchor, dx, dy int) *Handle {
	if _, ok := anchorExprs[anchor]; !ok {
		return h.fail(configErrorf("position", "unknown anchor %q", anchor))
	}
	h.layer.Anchor = anchor
	h.layer.DX = dx
	h.layer.DY = dy
	h.layer.XExpr = ""
	h.layer.YExpr = ""
	return h
}

// AtExpr places the layer with raw position expressions, overriding any
// anchor. Expressions may reference canvas and layer dimensions and time.
func (h *Handle) AtExpr(x, y string) *Handle {
	if _, err := resolvePlacement("", 0, 0, x, y); err != nil {
		return h.fail(err)
	}
	h.layer.XExpr = x
	h.layer.YExpr = y
	return h
}

func (h *Handle) setSize(s SizeSpec) *Handle {
	if err := s.validate(); err != nil {
		return h.fail(err)
	}
	h.layer.Size = s
	return h
}

// Contain fits the layer inside the canvas, preserving aspect ratio.
func (h *Handle) Contain() *Handle { return h.setSize(SizeSpec{Mode: SizeContain}) }

// Cover fills the canvas, preserving aspect ratio.
func (h *Handle) Cover() *Handle { return h.setSize(SizeSpec{Mode: SizeCover}) }

// Pixels scales to exact dimensions. Aspect ratio is not preserved.
func (h *Handle) Pixels(w, height int) *Handle {
	return h.setSize(SizeSpec{Mode: SizePixels, Width: w, Height: height})
}

// Percent scales the layer to fit a box sized as a percentage of the
// canvas.
func (h *Handle) Percent(p float64) *Handle {
	return h.setSize(SizeSpec{Mode: SizePercent, Percent: p})
}

// Scale multiplies the source dimensions by a factor.
func (h *Handle) Scale(f float64) *Handle {
	return h.setSize(SizeSpec{Mode: SizeScale, Factor: f})
}

// FitWidth matches the canvas width; height follows the source aspect.
func (h *Handle) FitWidth() *Handle { return h.setSize(SizeSpec{Mode: SizeFitWidth}) }

// FitHeight matches the canvas height; width follows the source aspect.
func (h *Handle) FitHeight() *Handle { return h.setSize(SizeSpec{Mode: SizeFitHeight}) }

// Opacity sets a uniform transparency multiplier. Values outside [0, 1]
// are clamped.
func (h *Handle) Opacity(a float64) *Handle {
	h.layer.Opacity = clamp01(a)
	return h
}

// Rotate turns the layer by degrees around its center. The layer's
// bounding box grows to hold the rotated frame, so anchored positions
// stay meaningful.
func (h *Handle) Rotate(degrees float64) *Handle {
	h.layer.RotateDeg = degrees
	return h
}

// Crop keeps only a region of the source, applied after alpha
// de-stacking and before scaling. Bounds are checked against the
// single-frame size, not the raw stacked frame.
func (h *Handle) Crop(x, y, w, height int) *Handle {
	r := Rect{X: x, Y: y, Width: w, Height: height}
	srcW, srcH := h.layer.frameSize()
	if err := r.validate(srcW, srcH); err != nil {
		return h.fail(err)
	}
	h.layer.Crop = &r
	return h
}

// Start schedules the layer to appear at a scene time, in seconds.
func (h *Handle) Start(s float64) *Handle {
	if s < 0 {
		return h.fail(configErrorf("timing", "start must not be negative, got %g", s))
	}
	h.layer.Start = &s
	return h
}

// End removes the layer at a scene time, exclusive.
func (h *Handle) End(s float64) *Handle {
	if s < 0 {
		return h.fail(configErrorf("timing", "end must not be negative, got %g", s))
	}
	h.layer.End = &s
	return h
}

// For limits how long the layer stays visible.
func (h *Handle) For(seconds float64) *Handle {
	if seconds <= 0 {
		return h.fail(configErrorf("timing", "duration must be positive, got %g", seconds))
	}
	h.layer.Duration = &seconds
	return h
}

// Audio controls whether the layer's own audio track is mixed in.
// Volume outside [0, 1] is clamped.
func (h *Handle) Audio(enabled bool, volume float64) *Handle {
	h.layer.AudioEnabled = enabled && h.layer.FG.Info.HasAudio
	h.layer.AudioVolume = clamp01(volume)
	return h
}

// Alpha toggles transparency handling. Disabled, the source composites
// as an opaque rectangle and mask decoding is skipped entirely.
func (h *Handle) Alpha(enabled bool) *Handle {
	h.layer.AlphaEnabled = enabled
	return h
}

func (l *Layer) displayName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.ID.String()[:8]
}

// frameSize is the single-frame pixel size after any alpha de-stacking.
func (l *Layer) frameSize() (int, int) {
	w, h := l.FG.Info.Width, l.FG.Info.Height
	if st, ok := l.FG.Encoding.(Stacked); ok {
		switch st.Orientation {
		case SideBySide:
			w /= 2
		case TopBottom:
			h /= 2
		}
	}
	return w, h
}

// sourceSize is the pixel size feeding the scale stage, after any alpha
// de-stacking and crop.
func (l *Layer) sourceSize() (int, int) {
	if l.Crop != nil {
		return l.Crop.Width, l.Crop.Height
	}
	return l.frameSize()
}
