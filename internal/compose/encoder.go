package compose

import (
	"fmt"

	"github.com/videobgremover/videobgremover-go/pkg/util"
)

// EncoderProfile is the output side of a program: codec, quality and
// pixel format, plus whether the encoded stream can carry alpha. A scene
// that needs transparency in the output refuses profiles that cannot.
type EncoderProfile struct {
	Name     string
	Codec    string
	PixelFmt string
	CRF      int
	Preset   string
	Alpha    bool
	Extra    []string
}

// H264 is the default opaque delivery profile.
func H264(crf int, preset string) EncoderProfile {
	if crf <= 0 {
		crf = 18
	}
	if preset == "" {
		preset = "medium"
	}
	return EncoderProfile{
		Name:     "h264",
		Codec:    "libx264",
		PixelFmt: "yuv420p",
		CRF:      crf,
		Preset:   preset,
	}
}

// VP9 encodes opaque WebM output.
func VP9(crf int) EncoderProfile {
	if crf <= 0 {
		crf = 32
	}
	return EncoderProfile{
		Name:     "vp9",
		Codec:    "libvpx-vp9",
		PixelFmt: "yuv420p",
		CRF:      crf,
		Extra:    []string{"-b:v", "0"},
	}
}

// TransparentWebM encodes VP9 with a native alpha plane.
func TransparentWebM(crf int) EncoderProfile {
	if crf <= 0 {
		crf = 28
	}
	return EncoderProfile{
		Name:     "transparent_webm",
		Codec:    "libvpx-vp9",
		PixelFmt: "yuva420p",
		CRF:      crf,
		Alpha:    true,
		Extra:    []string{"-b:v", "0", "-auto-alt-ref", "0"},
	}
}

// ProRes4444 encodes mezzanine-grade output with 10-bit alpha.
func ProRes4444() EncoderProfile {
	return EncoderProfile{
		Name:     "prores_4444",
		Codec:    "prores_ks",
		PixelFmt: "yuva444p10le",
		Alpha:    true,
		Extra:    []string{"-profile:v", "4"},
	}
}

// PNGSequence writes each frame as a standalone RGBA still.
func PNGSequence() EncoderProfile {
	return EncoderProfile{
		Name:     "png_sequence",
		Codec:    "png",
		PixelFmt: "rgba",
		Alpha:    true,
	}
}

// StackedVideo encodes an opaque H.264 stream meant to hold a stacked
// color+matte frame layout. Alpha survives as data, not as a channel.
func StackedVideo(crf int) EncoderProfile {
	p := H264(crf, "medium")
	p.Name = "stacked_video"
	return p
}

// ProfileByName maps a configuration string to a profile with default
// quality settings.
func ProfileByName(name string, crf int, preset string) (EncoderProfile, error) {
	switch name {
	case "h264", "":
		return H264(crf, preset), nil
	case "vp9":
		return VP9(crf), nil
	case "transparent_webm":
		return TransparentWebM(crf), nil
	case "prores_4444":
		return ProRes4444(), nil
	case "png_sequence":
		return PNGSequence(), nil
	case "stacked_video":
		return StackedVideo(crf), nil
	}
	return EncoderProfile{}, configErrorf("encoder", "unknown profile %q", name)
}

// args renders the encoder's output options.
func (p EncoderProfile) args() []string {
	out := []string{"-c:v", p.Codec}
	if p.CRF > 0 {
		out = append(out, "-crf", fmt.Sprintf("%d", p.CRF))
	}
	if p.Preset != "" {
		out = append(out, "-preset", p.Preset)
	}
	out = append(out, p.Extra...)
	if p.PixelFmt != "" {
		out = append(out, "-pix_fmt", p.PixelFmt)
	}
	return out
}

func (p EncoderProfile) frameRateArgs(fps float64) []string {
	if fps <= 0 {
		return nil
	}
	return []string{"-r", util.FormatFrameRate(fps)}
}
