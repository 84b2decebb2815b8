// Package scene reads and writes declarative scene documents and turns
// them into compositions.
package scene

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/videobgremover/videobgremover-go/internal/compose"
)

// Prober supplies source metadata for files the document does not
// declare sizes for. ffmpeg's executor satisfies it.
type Prober interface {
	ProbeSource(ctx context.Context, path string) (compose.SourceInfo, error)
}

// Scene is the on-disk document. Everything is optional except layers'
// sources; missing metadata is probed at build time.
type Scene struct {
	Canvas     *CanvasDoc     `yaml:"canvas,omitempty"`
	Duration   *float64       `yaml:"duration,omitempty"`
	Background *BackgroundDoc `yaml:"background,omitempty"`
	Layers     []LayerDoc     `yaml:"layers"`
	Output     OutputDoc      `yaml:"output,omitempty"`
}

type CanvasDoc struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps,omitempty"`
}

type BackgroundDoc struct {
	Type   string    `yaml:"type"`
	Color  string    `yaml:"color,omitempty"`
	Source string    `yaml:"source,omitempty"`
	Audio  *AudioDoc `yaml:"audio,omitempty"`
	Trim   *RangeDoc `yaml:"trim,omitempty"`
}

type AudioDoc struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume,omitempty"`
}

type RangeDoc struct {
	Start float64 `yaml:"start,omitempty"`
	End   float64 `yaml:"end,omitempty"`
}

type StackDoc struct {
	Orientation string `yaml:"orientation,omitempty"`
	Order       string `yaml:"order,omitempty"`
}

type SizeDoc struct {
	Mode    string  `yaml:"mode"`
	Width   int     `yaml:"width,omitempty"`
	Height  int     `yaml:"height,omitempty"`
	Percent float64 `yaml:"percent,omitempty"`
	Factor  float64 `yaml:"factor,omitempty"`
}

type PointDoc struct {
	X string `yaml:"x"`
	Y string `yaml:"y"`
}

type OffsetDoc struct {
	X int `yaml:"x,omitempty"`
	Y int `yaml:"y,omitempty"`
}

type CropDoc struct {
	X      int `yaml:"x,omitempty"`
	Y      int `yaml:"y,omitempty"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type InfoDoc struct {
	Width    int     `yaml:"width,omitempty"`
	Height   int     `yaml:"height,omitempty"`
	FPS      float64 `yaml:"fps,omitempty"`
	Duration float64 `yaml:"duration,omitempty"`
	HasAudio bool    `yaml:"has_audio,omitempty"`
}

type LayerDoc struct {
	Name     string     `yaml:"name,omitempty"`
	Source   string     `yaml:"source"`
	Format   string     `yaml:"format,omitempty"`
	Mask     string     `yaml:"mask,omitempty"`
	Stack    *StackDoc  `yaml:"stack,omitempty"`
	FPS      float64    `yaml:"fps,omitempty"`
	Info     *InfoDoc   `yaml:"info,omitempty"`
	Anchor   string     `yaml:"anchor,omitempty"`
	Offset   *OffsetDoc `yaml:"offset,omitempty"`
	Position *PointDoc  `yaml:"position,omitempty"`
	Size     *SizeDoc   `yaml:"size,omitempty"`
	Opacity  *float64   `yaml:"opacity,omitempty"`
	Rotate   float64    `yaml:"rotate,omitempty"`
	Crop     *CropDoc   `yaml:"crop,omitempty"`
	Start    *float64   `yaml:"start,omitempty"`
	End      *float64   `yaml:"end,omitempty"`
	Duration *float64   `yaml:"duration,omitempty"`
	Subclip  *RangeDoc  `yaml:"subclip,omitempty"`
	Audio    *AudioDoc  `yaml:"audio,omitempty"`
	Alpha    *bool      `yaml:"alpha,omitempty"`
	Z        *int       `yaml:"z,omitempty"`
}

type OutputDoc struct {
	Profile string `yaml:"profile,omitempty"`
	CRF     int    `yaml:"crf,omitempty"`
	Preset  string `yaml:"preset,omitempty"`
}

// Load reads a scene document from disk.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return &s, nil
}

// Save writes a scene document to disk.
func Save(path string, s *Scene) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write scene: %w", err)
	}
	return nil
}

// Profile resolves the document's output section into an encoder profile.
func (s *Scene) Profile() (compose.EncoderProfile, error) {
	return compose.ProfileByName(s.Output.Profile, s.Output.CRF, s.Output.Preset)
}

// Build turns the document into a composition. Sources without declared
// metadata are probed through p; a nil p leaves their metadata empty.
func (s *Scene) Build(ctx context.Context, logger zerolog.Logger, p Prober) (*compose.Composition, error) {
	comp := compose.New(logger)

	if s.Canvas != nil {
		cv, err := compose.NewCanvas(s.Canvas.Width, s.Canvas.Height, s.Canvas.FPS)
		if err != nil {
			return nil, err
		}
		comp.SetCanvas(cv)
	}
	if s.Duration != nil {
		comp.SetDuration(*s.Duration)
	}

	if s.Background != nil {
		bg, err := s.buildBackground(ctx, p)
		if err != nil {
			return nil, err
		}
		comp.SetBackground(bg)
	}

	for i := range s.Layers {
		if err := s.addLayer(ctx, comp, &s.Layers[i], p); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return comp, nil
}

func (s *Scene) buildBackground(ctx context.Context, p Prober) (compose.Background, error) {
	doc := s.Background
	var size *compose.Canvas
	if s.Canvas != nil {
		cv, err := compose.NewCanvas(s.Canvas.Width, s.Canvas.Height, s.Canvas.FPS)
		if err != nil {
			return nil, err
		}
		size = &cv
	}

	switch doc.Type {
	case "color":
		return compose.NewColorBackground(doc.Color, size)
	case "transparent":
		return compose.NewTransparentBackground(size), nil
	case "image":
		info, err := probe(ctx, p, doc.Source)
		if err != nil {
			return nil, err
		}
		return compose.NewImageBackground(doc.Source, info)
	case "video":
		info, err := probe(ctx, p, doc.Source)
		if err != nil {
			return nil, err
		}
		bg, err := compose.NewVideoBackground(doc.Source, info)
		if err != nil {
			return nil, err
		}
		if doc.Audio != nil {
			bg.WithAudio(doc.Audio.Enabled, volumeOrDefault(doc.Audio))
		}
		if doc.Trim != nil {
			if _, err := bg.WithTrim(doc.Trim.Start, doc.Trim.End); err != nil {
				return nil, err
			}
		}
		return bg, nil
	}
	return nil, fmt.Errorf("unknown background type %q", doc.Type)
}

func (s *Scene) addLayer(ctx context.Context, comp *compose.Composition, doc *LayerDoc, p Prober) error {
	fg, err := buildForeground(ctx, doc, p)
	if err != nil {
		return err
	}
	if doc.Subclip != nil {
		fg, err = fg.Subclip(doc.Subclip.Start, doc.Subclip.End)
		if err != nil {
			return err
		}
	}

	h := comp.Add(fg)
	if doc.Name != "" {
		h.Named(doc.Name)
	}
	if doc.Position != nil {
		h.AtExpr(doc.Position.X, doc.Position.Y)
	} else if doc.Anchor != "" || doc.Offset != nil {
		anchor := compose.Anchor(doc.Anchor)
		if doc.Anchor == "" {
			anchor = compose.Center
		}
		var dx, dy int
		if doc.Offset != nil {
			dx, dy = doc.Offset.X, doc.Offset.Y
		}
		h.At(anchor, dx, dy)
	}
	if doc.Size != nil {
		if err := applySize(h, doc.Size); err != nil {
			return err
		}
	}
	if doc.Opacity != nil {
		h.Opacity(*doc.Opacity)
	}
	if doc.Rotate != 0 {
		h.Rotate(doc.Rotate)
	}
	if doc.Crop != nil {
		h.Crop(doc.Crop.X, doc.Crop.Y, doc.Crop.Width, doc.Crop.Height)
	}
	if doc.Start != nil {
		h.Start(*doc.Start)
	}
	if doc.End != nil {
		h.End(*doc.End)
	}
	if doc.Duration != nil {
		h.For(*doc.Duration)
	}
	if doc.Audio != nil {
		h.Audio(doc.Audio.Enabled, volumeOrDefault(doc.Audio))
	}
	if doc.Alpha != nil {
		h.Alpha(*doc.Alpha)
	}
	if doc.Z != nil {
		if err := comp.SetZ(h.ID(), *doc.Z); err != nil {
			return err
		}
	}
	return h.Err()
}

func buildForeground(ctx context.Context, doc *LayerDoc, p Prober) (*compose.Foreground, error) {
	info, err := layerInfo(ctx, doc, p)
	if err != nil {
		return nil, err
	}

	switch doc.Format {
	case "webm_vp9", "mov_prores", "native":
		return compose.NewNativeAlphaForeground(doc.Source, info)
	case "stacked_video", "stacked":
		orientation := compose.TopBottom
		order := compose.ColorFirst
		if doc.Stack != nil {
			if doc.Stack.Orientation != "" {
				orientation = compose.StackOrientation(doc.Stack.Orientation)
			}
			if doc.Stack.Order != "" {
				order = compose.StackOrder(doc.Stack.Order)
			}
		}
		return compose.NewStackedForeground(doc.Source, orientation, order, info)
	case "png_sequence", "frames":
		fps := doc.FPS
		if fps == 0 {
			fps = info.FPS
		}
		return compose.NewFrameSequenceForeground(doc.Source, doc.Mask, fps, info)
	case "pro_bundle", "mask":
		return compose.NewSeparateMaskForeground(doc.Source, doc.Mask, info)
	case "":
		if enc := compose.DetectEncoding(doc.Source, info); enc != nil {
			switch enc.(type) {
			case compose.NativeAlpha:
				return compose.NewNativeAlphaForeground(doc.Source, info)
			case compose.FrameSequence:
				if doc.Mask == "" {
					return nil, fmt.Errorf("frame sequence source needs a mask pattern")
				}
				return compose.NewFrameSequenceForeground(doc.Source, doc.Mask, info.FPS, info)
			}
		}
		if doc.Mask != "" {
			return compose.NewSeparateMaskForeground(doc.Source, doc.Mask, info)
		}
		// Opaque video from the removal service defaults to the stacked
		// layout it delivers.
		return compose.NewStackedForeground(doc.Source, compose.TopBottom, compose.ColorFirst, info)
	}
	return nil, fmt.Errorf("unknown layer format %q", doc.Format)
}

func layerInfo(ctx context.Context, doc *LayerDoc, p Prober) (compose.SourceInfo, error) {
	if doc.Info != nil {
		return compose.SourceInfo{
			Width:    doc.Info.Width,
			Height:   doc.Info.Height,
			FPS:      doc.Info.FPS,
			Duration: doc.Info.Duration,
			HasAudio: doc.Info.HasAudio,
		}, nil
	}
	return probe(ctx, p, doc.Source)
}

func probe(ctx context.Context, p Prober, source string) (compose.SourceInfo, error) {
	if p == nil || source == "" {
		return compose.SourceInfo{}, nil
	}
	return p.ProbeSource(ctx, source)
}

func applySize(h *compose.Handle, doc *SizeDoc) error {
	switch doc.Mode {
	case "contain", "":
		h.Contain()
	case "cover":
		h.Cover()
	case "pixels":
		h.Pixels(doc.Width, doc.Height)
	case "percent":
		h.Percent(doc.Percent)
	case "scale":
		h.Scale(doc.Factor)
	case "fit-width":
		h.FitWidth()
	case "fit-height":
		h.FitHeight()
	default:
		return fmt.Errorf("unknown size mode %q", doc.Mode)
	}
	return nil
}

func volumeOrDefault(a *AudioDoc) float64 {
	if a.Volume == 0 {
		return 1
	}
	return a.Volume
}
