package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/videobgremover/videobgremover-go/internal/compose"
	"github.com/videobgremover/videobgremover-go/pkg/util"
)

// Render executes a compiled program, writing the result to output.
// The output directory is created if missing.
func (e *Executor) Render(ctx context.Context, prog *compose.Program, output string, progressFn ProgressFunc) error {
	if prog == nil {
		return fmt.Errorf("program is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}
	if err := util.EnsureDir(filepath.Dir(output)); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	e.logger.Info().
		Str("output", output).
		Str("canvas", prog.Canvas.String()).
		Msg("rendering composition")

	return e.Run(ctx, RunOptions{
		Args:            prog.Argv(output),
		ProgressHandler: progressFn,
		LogHandler: func(line string) {
			e.logger.Trace().Str("src", "ffmpeg").Msg(line)
		},
	})
}

// RenderStream executes a compiled program and streams the encoded
// output into w instead of a file. Only formats that tolerate a
// non-seekable sink are accepted.
func (e *Executor) RenderStream(ctx context.Context, prog *compose.Program, format StreamFormat, w io.Writer, progressFn ProgressFunc) error {
	if prog == nil {
		return fmt.Errorf("program is required")
	}
	var extra []string
	switch format {
	case StreamY4M, StreamWebM, StreamMatroska:
		extra = []string{"-f", string(format)}
	case StreamFragmentedMP4:
		// Plain mp4 needs a seekable output for the moov atom.
		extra = []string{"-f", "mp4", "-movflags", "frag_keyframe+empty_moov"}
	default:
		return fmt.Errorf("unsupported stream format %q", format)
	}

	args := prog.Argv("pipe:1")
	// Insert the format args before the output argument.
	args = append(args[:len(args)-1], append(extra, "pipe:1")...)

	e.logger.Info().
		Str("format", string(format)).
		Str("canvas", prog.Canvas.String()).
		Msg("streaming composition")

	return e.RunToWriter(ctx, RunOptions{
		Args:            args,
		ProgressHandler: progressFn,
	}, w)
}

// HasDecoder reports whether the engine build ships a named decoder.
// Used to confirm libvpx-vp9 is available before trusting WebM alpha.
func (e *Executor) HasDecoder(ctx context.Context, name string) (bool, error) {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, "-hide_banner", "-decoders")
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("failed to list decoders: %w", err)
	}
	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == name {
			return true, nil
		}
	}
	return false, nil
}

// HasEncoder reports whether the engine build ships a named encoder.
func (e *Executor) HasEncoder(ctx context.Context, name string) (bool, error) {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, "-hide_banner", "-encoders")
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("failed to list encoders: %w", err)
	}
	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == name {
			return true, nil
		}
	}
	return false, nil
}
