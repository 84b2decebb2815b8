package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/videobgremover/videobgremover-go/internal/compose"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}
}

// makeTestVideo generates a short synthetic clip and returns its path.
func makeTestVideo(t *testing.T, size string, withAudio bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mp4")
	args := []string{"-f", "lavfi", "-i", fmt.Sprintf("testsrc=duration=1:size=%s:rate=15", size)}
	if withAudio {
		args = append(args, "-f", "lavfi", "-i", "sine=frequency=440:duration=1", "-shortest")
	}
	args = append(args, "-pix_fmt", "yuv420p", "-y", path)
	if err := exec.Command("ffmpeg", args...).Run(); err != nil {
		t.Skipf("could not generate test video: %v", err)
	}
	return path
}

func TestExecutorCreation(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := zerolog.New(os.Stderr)
	e, err := New(logger, 4)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	if e.ffmpegPath == "" {
		t.Error("ffmpeg path is empty")
	}
	if e.ffprobePath == "" {
		t.Error("ffprobe path is empty")
	}
}

func TestProbeVideo(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := makeTestVideo(t, "320x240", true)
	logger := zerolog.New(os.Stderr)
	e, err := New(logger, 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	info, err := e.ProbeVideo(context.Background(), path)
	if err != nil {
		t.Fatalf("ProbeVideo failed: %v", err)
	}
	if info.Width != 320 || info.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", info.Width, info.Height)
	}
	if info.Duration == 0 {
		t.Error("duration is zero")
	}
	if info.HasAlpha {
		t.Error("yuv420p clip should not report alpha")
	}
	if !info.HasAudio {
		t.Error("clip should report audio")
	}
}

func TestProbeVideoInvalidFile(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := zerolog.New(os.Stderr)
	e, err := New(logger, 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	if _, err := e.ProbeVideo(context.Background(), "nonexistent.mp4"); err == nil {
		t.Error("ProbeVideo should fail for non-existent file")
	}

	invalidPath := filepath.Join(t.TempDir(), "invalid.txt")
	os.WriteFile(invalidPath, []byte("not a video"), 0644)
	if _, err := e.ProbeVideo(context.Background(), invalidPath); err == nil {
		t.Error("ProbeVideo should fail for invalid video file")
	}
}

func TestRenderComposition(t *testing.T) {
	skipIfNoFFmpeg(t)

	// A 64x128 frame stands in for a stacked layout: color top, matte bottom.
	src := makeTestVideo(t, "64x128", false)

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	e, err := New(logger, 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	info, err := e.ProbeSource(context.Background(), src)
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}

	fg, err := compose.NewStackedForeground(src, compose.TopBottom, compose.ColorFirst, info)
	if err != nil {
		t.Fatal(err)
	}

	cv, err := compose.NewCanvas(64, 64, 15)
	if err != nil {
		t.Fatal(err)
	}
	bg, err := compose.NewColorBackground("#003366", &cv)
	if err != nil {
		t.Fatal(err)
	}

	comp := compose.New(logger)
	comp.SetBackground(bg)
	comp.Add(fg).At(compose.Center, 0, 0).Pixels(32, 32)

	prog, err := comp.Build(compose.H264(28, "veryfast"))
	if err != nil {
		t.Fatal(err)
	}

	output := filepath.Join(t.TempDir(), "out.mp4")
	var sawProgress bool
	err = e.Render(context.Background(), prog, output, func(p *Progress) {
		sawProgress = true
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	_ = sawProgress // short clips can finish within one progress interval

	rendered, err := e.ProbeVideo(context.Background(), output)
	if err != nil {
		t.Fatalf("probing render output failed: %v", err)
	}
	if rendered.Width != 64 || rendered.Height != 64 {
		t.Errorf("expected 64x64 output, got %dx%d", rendered.Width, rendered.Height)
	}
}

func TestRenderBadProgramReportsStderr(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := zerolog.New(os.Stderr)
	e, err := New(logger, 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	prog := &compose.Program{
		Inputs:      []compose.Input{{Source: "definitely_missing.mp4"}},
		MapArgs:     []string{"-map", "0:v"},
		EncoderArgs: []string{"-c:v", "libx264"},
	}
	err = e.Render(context.Background(), prog, filepath.Join(t.TempDir(), "out.mp4"), nil)
	if err == nil {
		t.Fatal("render of a missing input should fail")
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T: %v", err, err)
	}
	if exitErr.Stderr == "" {
		t.Error("engine diagnostics should be captured")
	}
}

func TestStreamOutputProgressParsing(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}
	lines := strings.Join([]string{
		"frame=42",
		"fps=29.5",
		"bitrate=1200kbits/s",
		"time=00:00:01.40",
		"speed=1.9x",
		"progress=continue",
		"frame=90",
		"fps=30.1",
		"progress=end",
	}, "\n")

	var got []*Progress
	e.streamOutput(strings.NewReader(lines), func(p *Progress) {
		snapshot := *p
		got = append(got, &snapshot)
	}, nil, newTailBuffer(10))

	if len(got) != 2 {
		t.Fatalf("expected 2 progress blocks, got %d", len(got))
	}
	if got[0].Frame != 42 || got[0].Speed != "1.9x" || got[0].Time != "00:00:01.40" {
		t.Errorf("first block: %+v", got[0])
	}
	if got[1].Frame != 90 {
		t.Errorf("second block: %+v", got[1])
	}
}

func TestTailBuffer(t *testing.T) {
	b := newTailBuffer(3)
	for _, line := range []string{"1", "2", "3", "4", "5"} {
		b.Add(line)
	}
	if got := b.String(); got != "3\n4\n5" {
		t.Errorf("tail: got %q", got)
	}
}

func TestRunRequiresArgs(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := zerolog.New(os.Stderr)
	e, err := New(logger, 0)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	if err := e.Run(context.Background(), RunOptions{}); err == nil {
		t.Error("Run without args should fail")
	}
}
