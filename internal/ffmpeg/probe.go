package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/videobgremover/videobgremover-go/internal/compose"
	"github.com/videobgremover/videobgremover-go/pkg/util"
)

// ProbeVideo extracts metadata from a media file
func (e *Executor) ProbeVideo(ctx context.Context, filePath string) (*VideoInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &VideoInfo{
		FilePath: filePath,
	}

	// Parse duration
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(dur * float64(time.Second))
	}

	// Parse bitrate
	if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		info.Bitrate = br
	}

	// Extract stream info
	for _, stream := range probe.Streams {
		if stream.CodecType == "video" && info.VideoCodec == "" {
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			info.PixelFormat = stream.PixFmt
			info.HasAlpha = pixelFormatHasAlpha(stream.PixFmt) || stream.Tags.AlphaMode == "1"

			// Calculate FPS from r_frame_rate (e.g., "30/1")
			if stream.RFrameRate != "" {
				info.FPS = util.ParseFrameRate(stream.RFrameRate)
			}

			info.Rotation = streamRotation(stream)
			if info.Rotation == 90 || info.Rotation == 270 {
				info.Width, info.Height = info.Height, info.Width
			}
		} else if stream.CodecType == "audio" {
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
			if br, err := strconv.ParseInt(stream.BitRate, 10, 64); err == nil {
				info.AudioBitrate = br
			}
		}
	}

	return info, nil
}

// ProbeSource probes a file and converts the result into the source
// descriptor the scene builder consumes.
func (e *Executor) ProbeSource(ctx context.Context, filePath string) (compose.SourceInfo, error) {
	info, err := e.ProbeVideo(ctx, filePath)
	if err != nil {
		return compose.SourceInfo{}, err
	}
	return compose.SourceInfo{
		Width:    info.Width,
		Height:   info.Height,
		FPS:      info.FPS,
		Duration: info.Duration.Seconds(),
		Codec:    info.VideoCodec,
		PixFmt:   info.PixelFormat,
		HasAudio: info.HasAudio,
		HasAlpha: info.HasAlpha,
	}, nil
}

// pixelFormatHasAlpha reports whether a pixel format carries an alpha
// plane. VP9 in WebM reports an opaque pix_fmt and signals alpha through
// the alpha_mode tag instead, which ProbeVideo also checks.
func pixelFormatHasAlpha(pixFmt string) bool {
	switch pixFmt {
	case "yuva420p", "yuva422p", "yuva444p",
		"yuva420p10le", "yuva422p10le", "yuva444p10le",
		"rgba", "bgra", "argb", "abgr",
		"rgba64le", "rgba64be", "ya8", "ya16le", "ya16be",
		"gbrap", "gbrap10le", "gbrap12le", "gbrap16le":
		return true
	}
	return false
}

// streamRotation reads the display rotation from side data or legacy
// rotate tags, normalized to [0, 360).
func streamRotation(s probeStream) int {
	rot := 0
	for _, sd := range s.SideDataList {
		if sd.Rotation != 0 {
			rot = sd.Rotation
		}
	}
	if rot == 0 && s.Tags.Rotate != "" {
		if v, err := strconv.Atoi(strings.TrimSpace(s.Tags.Rotate)); err == nil {
			rot = v
		}
	}
	rot = rot % 360
	if rot < 0 {
		rot += 360
	}
	return rot
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	PixFmt       string `json:"pix_fmt"`
	RFrameRate   string `json:"r_frame_rate"`
	BitRate      string `json:"bit_rate"`
	SideDataList []struct {
		Rotation int `json:"rotation"`
	} `json:"side_data_list"`
	Tags struct {
		Rotate    string `json:"rotate"`
		AlphaMode string `json:"alpha_mode"`
	} `json:"tags"`
}
