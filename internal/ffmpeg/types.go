package ffmpeg

import (
	"fmt"
	"time"
)

// VideoInfo contains metadata about a media file
type VideoInfo struct {
	FilePath     string
	Duration     time.Duration
	Width        int
	Height       int
	FPS          float64
	Bitrate      int64
	VideoCodec   string
	PixelFormat  string
	HasAlpha     bool
	Rotation     int
	HasAudio     bool
	AudioCodec   string
	AudioBitrate int64
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	Bitrate string
	Time    string
	Speed   string
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called periodically with progress information as the operation executes.
type ProgressFunc func(*Progress)

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
}

// StreamFormat selects the container for piped output.
type StreamFormat string

const (
	StreamY4M           StreamFormat = "yuv4mpegpipe"
	StreamWebM          StreamFormat = "webm"
	StreamMatroska      StreamFormat = "matroska"
	StreamFragmentedMP4 StreamFormat = "mp4"
)

// ExitError carries the engine's own diagnostic text verbatim when a
// run fails, so callers can surface it without re-running.
type ExitError struct {
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("ffmpeg execution failed: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg execution failed: %v\n%s", e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error { return e.Err }
