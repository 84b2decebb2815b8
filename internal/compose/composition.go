package compose

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/videobgremover/videobgremover-go/pkg/util"
)

// DefaultFPS is used when neither the canvas nor the background settles
// the frame rate.
const DefaultFPS = 30.0

// Composition is a declarative scene: a background, an ordered stack of
// foreground layers and an optional canvas override. Building it yields
// a Program; the scene itself never touches the engine.
type Composition struct {
	logger     zerolog.Logger
	bg         Background
	layers     []*Layer
	canvas     *Canvas
	duration   *float64
	defaultFPS float64
	nextZ      int
}

func New(logger zerolog.Logger) *Composition {
	return &Composition{
		logger:     logger.With().Str("component", "compose").Logger(),
		defaultFPS: DefaultFPS,
	}
}

// SetCanvas pins the output geometry, overriding anything the
// background would imply.
func (c *Composition) SetCanvas(canvas Canvas) *Composition {
	c.canvas = &canvas
	return c
}

// SetBackground replaces the bottom of the stack.
func (c *Composition) SetBackground(bg Background) *Composition {
	c.bg = bg
	return c
}

// SetDuration pins the output length in seconds, overriding the
// duration policy.
func (c *Composition) SetDuration(seconds float64) *Composition {
	c.duration = &seconds
	return c
}

// SetDefaultFPS changes the frame rate used when nothing else decides it.
func (c *Composition) SetDefaultFPS(fps float64) *Composition {
	if fps > 0 {
		c.defaultFPS = fps
	}
	return c
}

// Add stacks a foreground on top of the current layers and returns its
// handle for further declaration.
func (c *Composition) Add(fg *Foreground) *Handle {
	l := newLayer(fg, c.nextZ)
	c.nextZ++
	c.layers = append(c.layers, l)
	return &Handle{layer: l, comp: c}
}

// Remove drops a layer by id. Removing an unknown id is a no-op.
func (c *Composition) Remove(id uuid.UUID) {
	for i, l := range c.layers {
		if l.ID == id {
			c.layers = append(c.layers[:i], c.layers[i+1:]...)
			return
		}
	}
}

// SetZ reorders a layer in the stack. Higher z paints later, on top.
func (c *Composition) SetZ(id uuid.UUID, z int) error {
	for _, l := range c.layers {
		if l.ID == id {
			l.Z = z
			return nil
		}
	}
	return configErrorf("layer", "no layer with id %s", id)
}

// Layers returns the stack in paint order.
func (c *Composition) Layers() []*Layer {
	out := c.sortedLayers()
	return out
}

func (c *Composition) sortedLayers() []*Layer {
	out := make([]*Layer, len(c.layers))
	copy(out, c.layers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

// resolveCanvas settles output geometry: an explicit canvas wins, then
// the background's intrinsic size, then the bounding box of the layers
// as a last resort.
func (c *Composition) resolveCanvas() (Canvas, error) {
	if c.canvas != nil {
		cv := *c.canvas
		if cv.FPS == 0 {
			cv.FPS = c.backgroundFPS()
		}
		return cv, nil
	}
	if c.bg != nil {
		if cv, ok := c.bg.intrinsicCanvas(); ok {
			if cv.FPS == 0 {
				cv.FPS = c.defaultFPS
			}
			return cv, nil
		}
	}
	if len(c.layers) == 0 {
		return Canvas{}, &ResolveError{Reason: "no explicit canvas, no sized background and no layers"}
	}
	var w, h int
	for _, l := range c.layers {
		lw, lh := l.targetHint()
		if lw > w {
			w = lw
		}
		if lh > h {
			h = lh
		}
	}
	if w <= 0 || h <= 0 {
		return Canvas{}, &ResolveError{Reason: "layer dimensions are unknown"}
	}
	cv := Canvas{Width: w, Height: h, FPS: c.defaultFPS}
	c.logger.Warn().
		Str("canvas", cv.String()).
		Msg("canvas not declared, derived from layer bounding box")
	return cv, nil
}

func (c *Composition) backgroundFPS() float64 {
	if c.bg != nil {
		if cv, ok := c.bg.intrinsicCanvas(); ok && cv.FPS > 0 {
			return cv.FPS
		}
	}
	return c.defaultFPS
}

// targetHint is the layer's best-known pixel footprint for canvas
// fallback: an exact size when the size mode declares one, the cropped
// or intrinsic source size otherwise.
func (l *Layer) targetHint() (int, int) {
	if l.Size.Mode == SizePixels {
		return l.Size.Width, l.Size.Height
	}
	return l.sourceSize()
}

// requiresAlphaOutput reports whether transparency must survive into the
// encoded file rather than being flattened onto a background.
func (c *Composition) requiresAlphaOutput() bool {
	if c.bg == nil {
		return true
	}
	return c.bg.Kind() == "transparent"
}

type audioSource struct {
	input   int
	volume  float64
	delayMs int
	base    string
}

// Build resolves the scene against an encoder profile and emits a
// Program. It validates everything first; no partial program is ever
// returned.
func (c *Composition) Build(profile EncoderProfile) (*Program, error) {
	for _, l := range c.layers {
		if l.err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.displayName(), l.err)
		}
	}
	if c.duration != nil && *c.duration <= 0 {
		return nil, configErrorf("duration", "must be positive, got %g", *c.duration)
	}

	canvas, err := c.resolveCanvas()
	if err != nil {
		return nil, err
	}
	if c.requiresAlphaOutput() && !profile.Alpha {
		return nil, configErrorf("encoder",
			"scene output is transparent but profile %q cannot carry alpha", profile.Name)
	}

	g := &graphBuilder{}
	var audio []audioSource

	current, err := c.planBackground(g, canvas, &audio)
	if err != nil {
		return nil, err
	}

	layers := c.sortedLayers()
	for i, l := range layers {
		current, err = c.planLayer(g, l, i, canvas, current, &audio)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.displayName(), err)
		}
	}

	mapArgs := []string{"-map", c.finishVideo(g, current)}
	mapArgs = append(mapArgs, c.planAudio(g, audio)...)

	encArgs := profile.args()
	encArgs = append(encArgs, profile.frameRateArgs(canvas.FPS)...)

	prog := &Program{
		Inputs:      g.inputs,
		Nodes:       g.nodes,
		MapArgs:     mapArgs,
		EncoderArgs: encArgs,
		Duration:    c.resolveDuration(layers),
		Canvas:      canvas,
	}
	c.logger.Debug().
		Str("canvas", canvas.String()).
		Int("inputs", len(prog.Inputs)).
		Int("filters", len(prog.Nodes)).
		Str("profile", profile.Name).
		Msg("program built")
	return prog, nil
}

// finishVideo makes sure the mapped video stream has a bracketed label.
// A scene with no layers and no background filters maps the first input
// directly.
func (c *Composition) finishVideo(g *graphBuilder, label string) string {
	if label == inputLabel(0) && len(g.nodes) == 0 {
		return "0:v"
	}
	if isInputLabel(label) {
		g.add("null", "", []string{label}, "video_out")
		return "[video_out]"
	}
	return "[" + label + "]"
}

func isInputLabel(s string) bool {
	for _, r := range s {
		if r == ':' {
			return true
		}
	}
	return false
}

// planBackground emits the bottom input and returns the label the first
// overlay reads.
func (c *Composition) planBackground(g *graphBuilder, canvas Canvas, audio *[]audioSource) (string, error) {
	size := fmt.Sprintf("%dx%d", canvas.Width, canvas.Height)
	rate := util.FormatFrameRate(canvas.FPS)

	switch bg := c.bg.(type) {
	case nil:
		spec := "color=c=0x00000000:s=" + size + ":r=" + rate + ",format=rgba"
		idx := g.addInput(spec, "-f", "lavfi")
		return inputLabel(idx), nil

	case *TransparentBackground:
		spec := "color=c=0x00000000:s=" + size + ":r=" + rate + ",format=rgba"
		idx := g.addInput(spec, "-f", "lavfi")
		return inputLabel(idx), nil

	case *ColorBackground:
		spec := "color=c=" + util.HexToFFmpegColor(bg.Color) + ":s=" + size + ":r=" + rate
		idx := g.addInput(spec, "-f", "lavfi")
		return inputLabel(idx), nil

	case *ImageBackground:
		idx := g.addInput(bg.Source, "-loop", "1", "-framerate", rate)
		out := "bg_scaled"
		g.add("scale", size2params(canvas), []string{inputLabel(idx)}, "bg_sized")
		g.add("setsar", "1", []string{"bg_sized"}, out)
		return out, nil

	case *VideoBackground:
		args := trimArgs(bg.Trim)
		idx := g.addInput(bg.Source, args...)
		label := inputLabel(idx)
		if bg.AudioEnabled {
			*audio = append(*audio, audioSource{
				input:  idx,
				volume: bg.AudioVolume,
				base:   "bg_audio",
			})
		}
		if bg.Info.Width == canvas.Width && bg.Info.Height == canvas.Height {
			return label, nil
		}
		g.add("scale", size2params(canvas), []string{label}, "bg_sized")
		g.add("setsar", "1", []string{"bg_sized"}, "bg_scaled")
		return "bg_scaled", nil
	}
	return "", configErrorf("background", "unknown background kind %q", c.bg.Kind())
}

func size2params(canvas Canvas) string {
	return fmt.Sprintf("%d:%d", canvas.Width, canvas.Height)
}

func trimArgs(t *Trim) []string {
	if t == nil {
		return nil
	}
	args := []string{"-ss", util.FormatFloat(t.Start)}
	if t.End > 0 {
		args = append(args, "-to", util.FormatFloat(t.End))
	}
	return args
}

// planLayer emits one layer's inputs, its processing chain and the
// overlay that paints it onto current, returning the new running label.
func (c *Composition) planLayer(g *graphBuilder, l *Layer, pos int, canvas Canvas, current string, audio *[]audioSource) (string, error) {
	window, err := resolveTiming(l.Start, l.End, l.Duration)
	if err != nil {
		return "", err
	}
	pl, err := resolvePlacement(l.Anchor, l.DX, l.DY, l.XExpr, l.YExpr)
	if err != nil {
		return "", err
	}
	scale, err := resolveScale(l.Size, canvas)
	if err != nil {
		return "", err
	}

	base := fmt.Sprintf("l%d", pos)
	videoIn, maskIn := c.addLayerInputs(g, l.FG, l.AlphaEnabled)

	if l.AudioEnabled && l.FG.Info.HasAudio {
		*audio = append(*audio, audioSource{
			input:   videoIn,
			volume:  l.AudioVolume,
			delayMs: int(window.Start * 1000),
			base:    base + "_audio",
		})
	}

	label := planIngest(g, l.FG, videoIn, maskIn, base, l.AlphaEnabled)

	var steps []filterStep
	if window.HasStart && window.Start > 0 {
		steps = append(steps, filterStep{
			op:     "setpts",
			params: "PTS-STARTPTS+" + util.FormatFloat(window.Start) + "/TB",
			suffix: "timed",
		})
	}
	if l.Crop != nil {
		steps = append(steps, filterStep{
			op:     "crop",
			params: fmt.Sprintf("%d:%d:%d:%d", l.Crop.Width, l.Crop.Height, l.Crop.X, l.Crop.Y),
			suffix: "crop",
		})
	}
	if !scale.empty() {
		steps = append(steps, filterStep{op: "scale", params: scale.params(), suffix: "scaled"})
	}
	if l.RotateDeg != 0 {
		a := util.FormatFloat(l.RotateDeg) + "*PI/180"
		steps = append(steps, filterStep{
			op:     "rotate",
			params: a + ":ow=rotw(" + a + "):oh=roth(" + a + "):fillcolor=none",
			suffix: "rotated",
		})
	}
	if l.Opacity < 1 {
		if !l.AlphaEnabled {
			steps = append(steps, filterStep{op: "format", params: "rgba", suffix: "rgba"})
		}
		steps = append(steps, filterStep{
			op:     "colorchannelmixer",
			params: "aa=" + util.FormatFloat(l.Opacity),
			suffix: "faded",
		})
	}
	label = g.chain(label, base, steps)

	params := "x=" + quoteParam(pl.X) + ":y=" + quoteParam(pl.Y) + ":eof_action=pass"
	if pred := window.enablePredicate(); pred != "" {
		params += ":enable='" + pred + "'"
	}
	out := base + "_over"
	g.add("overlay", params, []string{current, label}, out)
	return out, nil
}

// addLayerInputs registers the foreground's inputs and returns their
// indexes. The mask index is -1 for single-input encodings and when
// alpha is disabled, since nothing would read the mask stream.
func (c *Composition) addLayerInputs(g *graphBuilder, fg *Foreground, alphaEnabled bool) (videoIn, maskIn int) {
	maskIn = -1
	args := trimArgs(fg.Trim)
	switch enc := fg.Encoding.(type) {
	case NativeAlpha:
		// VP9 alpha in WebM needs the software decoder selected up front
		// or the alpha plane is silently dropped.
		if util.Extension(fg.Source) == ".webm" {
			args = append([]string{"-c:v", "libvpx-vp9"}, args...)
		}
		videoIn = g.addInput(fg.Source, args...)
	case FrameSequence:
		rate := util.FormatFrameRate(enc.FPS)
		videoIn = g.addInput(fg.Source, "-framerate", rate)
		if alphaEnabled {
			maskIn = g.addInput(fg.MaskSource, "-framerate", rate)
		}
	case SeparateMask:
		videoIn = g.addInput(fg.Source, args...)
		if alphaEnabled {
			maskIn = g.addInput(fg.MaskSource, trimArgs(fg.Trim)...)
		}
	default:
		videoIn = g.addInput(fg.Source, args...)
	}
	return videoIn, maskIn
}

// planAudio mixes the collected audio sources and returns the map
// arguments for the audio side. With nothing to mix the output is
// explicitly silent.
func (c *Composition) planAudio(g *graphBuilder, sources []audioSource) []string {
	if len(sources) == 0 {
		c.logger.Info().Msg("no audio-enabled sources, output will be silent")
		return []string{"-an"}
	}
	labels := make([]string, 0, len(sources))
	for _, s := range sources {
		cur := fmt.Sprintf("%d:a", s.input)
		if s.delayMs > 0 {
			out := s.base + "_delayed"
			g.add("adelay", fmt.Sprintf("%d|%d", s.delayMs, s.delayMs), []string{cur}, out)
			cur = out
		}
		if s.volume != 1 {
			out := s.base + "_vol"
			g.add("volume", util.FormatFloat(s.volume), []string{cur}, out)
			cur = out
		}
		labels = append(labels, cur)
	}
	if len(labels) == 1 {
		if isInputLabel(labels[0]) {
			return []string{"-map", labels[0]}
		}
		return []string{"-map", "[" + labels[0] + "]"}
	}
	g.add("amix", fmt.Sprintf("inputs=%d:duration=longest", len(labels)), labels, "audio_out")
	return []string{"-map", "[audio_out]"}
}

// resolveDuration applies the duration policy: an explicit override
// wins, then a video background's clip length, then the furthest point
// any layer reaches. Zero means the engine decides.
func (c *Composition) resolveDuration(layers []*Layer) float64 {
	if c.duration != nil {
		return *c.duration
	}
	if bg, ok := c.bg.(*VideoBackground); ok {
		if d := bg.clipDuration(); d > 0 {
			return d
		}
	}
	var longest float64
	for _, l := range layers {
		w, err := resolveTiming(l.Start, l.End, l.Duration)
		if err != nil {
			continue
		}
		end := 0.0
		switch {
		case w.HasEnd:
			end = w.End
		case l.FG.ClipDuration() > 0:
			end = w.Start + l.FG.ClipDuration()
		}
		if end > longest {
			longest = end
		}
	}
	return longest
}
