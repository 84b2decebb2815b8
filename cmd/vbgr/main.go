package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/videobgremover/videobgremover-go/internal/compose"
	"github.com/videobgremover/videobgremover-go/internal/config"
	"github.com/videobgremover/videobgremover-go/internal/ffmpeg"
	"github.com/videobgremover/videobgremover-go/internal/logging"
	"github.com/videobgremover/videobgremover-go/internal/removal"
	"github.com/videobgremover/videobgremover-go/internal/scene"
	"github.com/videobgremover/videobgremover-go/internal/system"
	"github.com/videobgremover/videobgremover-go/pkg/util"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "render":
		err = runRender(ctx, os.Args[2:])
	case "probe":
		err = runProbe(ctx, os.Args[2:])
	case "remove":
		err = runRemove(ctx, os.Args[2:])
	case "credits":
		err = runCredits(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vbgr <command> [flags]

commands:
  render   compile a scene file and render it with ffmpeg
  probe    inspect a media file
  remove   send a video through the background removal service
  credits  show remaining API credits`)
}

func setup(fs *flag.FlagSet, args []string) (*config.Config, error) {
	verbose := fs.Bool("verbose", false, "enable debug logging")
	cfgPath := fs.String("config", "", "config file path")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	logging.Init(*verbose)
	return config.Load(*cfgPath)
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	scenePath := fs.String("scene", "", "scene file (yaml)")
	output := fs.String("o", "", "output file")
	dryRun := fs.Bool("dry-run", false, "print the ffmpeg program without running it")
	streamFmt := fs.String("stream", "", "stream to stdout instead of writing a file (webm, matroska, yuv4mpegpipe, mp4)")

	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if *scenePath == "" {
		return fmt.Errorf("-scene is required")
	}
	if *output == "" && !*dryRun && *streamFmt == "" {
		return fmt.Errorf("-o is required unless -dry-run or -stream is set")
	}

	doc, err := scene.Load(*scenePath)
	if err != nil {
		return err
	}
	profile, err := doc.Profile()
	if err != nil {
		return err
	}
	if doc.Output.Profile == "" {
		profile, err = compose.ProfileByName(cfg.Compose.DefaultEncoder, cfg.Compose.DefaultCRF, cfg.Compose.DefaultPreset)
		if err != nil {
			return err
		}
	}

	logger := logging.NewLogger()

	var exec *ffmpeg.Executor
	if !*dryRun || scenesNeedProbe(doc) {
		threads := cfg.FFmpeg.Threads
		if threads == 0 {
			threads = system.Threads()
		}
		exec, err = ffmpeg.New(logger, threads)
		if err != nil {
			return err
		}
	}

	var prober scene.Prober
	if exec != nil {
		prober = exec
	}
	comp, err := doc.Build(ctx, logger, prober)
	if err != nil {
		return err
	}
	comp.SetDefaultFPS(cfg.Compose.DefaultFPS)

	prog, err := comp.Build(profile)
	if err != nil {
		return err
	}

	if *dryRun {
		out := *output
		if out == "" {
			out = "output.mp4"
		}
		fmt.Println(prog.String())
		fmt.Println("argv: ffmpeg " + strings.Join(prog.Argv(out), " "))
		return nil
	}

	progress := func(p *ffmpeg.Progress) {
		log.Info().
			Int("frame", p.Frame).
			Str("time", p.Time).
			Str("speed", p.Speed).
			Msg("rendering")
	}

	if *streamFmt != "" {
		return exec.RenderStream(ctx, prog, ffmpeg.StreamFormat(*streamFmt), os.Stdout, progress)
	}

	start := time.Now()
	if err := exec.Render(ctx, prog, *output, progress); err != nil {
		return err
	}
	log.Info().
		Str("output", *output).
		Str("elapsed", time.Since(start).Round(time.Millisecond).String()).
		Msg("render complete")
	return nil
}

func scenesNeedProbe(doc *scene.Scene) bool {
	if doc.Background != nil && doc.Background.Source != "" {
		return true
	}
	for _, l := range doc.Layers {
		if l.Info == nil {
			return true
		}
	}
	return false
}

func runProbe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: vbgr probe <file>")
	}

	exec, err := ffmpeg.New(logging.NewLogger(), cfg.FFmpeg.Threads)
	if err != nil {
		return err
	}
	info, err := exec.ProbeVideo(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Printf("file:      %s\n", info.FilePath)
	fmt.Printf("video:     %s %dx%d @ %s fps (%s)\n",
		info.VideoCodec, info.Width, info.Height, util.FormatFrameRate(info.FPS), info.PixelFormat)
	fmt.Printf("duration:  %s\n", util.FormatDuration(info.Duration))
	fmt.Printf("alpha:     %v\n", info.HasAlpha)
	if info.Rotation != 0 {
		fmt.Printf("rotation:  %d\n", info.Rotation)
	}
	if info.HasAudio {
		fmt.Printf("audio:     %s\n", info.AudioCodec)
	}
	return nil
}

func runRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	input := fs.String("i", "", "input video file")
	inputURL := fs.String("url", "", "input video url (instead of -i)")
	format := fs.String("format", "", "transparent format (webm_vp9, mov_prores, png_sequence, pro_bundle, stacked_video)")
	model := fs.String("model", "", "processing model")

	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if (*input == "") == (*inputURL == "") {
		return fmt.Errorf("exactly one of -i or -url is required")
	}

	client, err := removal.NewClient(logging.NewLogger(), cfg.API.Key, cfg.API.BaseURL)
	if err != nil {
		return err
	}

	var job *removal.CreateJobResponse
	if *inputURL != "" {
		job, err = client.CreateJobFromURL(ctx, *inputURL)
	} else {
		job, err = client.CreateJobFromFile(ctx, *input, contentTypeFor(*input))
	}
	if err != nil {
		return err
	}
	log.Info().Str("job", job.ID).Msg("job created")

	preferred := *format
	if preferred == "" && cfg.API.PreferFormat != "auto" {
		preferred = cfg.API.PreferFormat
	}
	chosenModel := *model
	if chosenModel == "" {
		chosenModel = cfg.API.Model
	}
	req := &removal.StartJobRequest{
		Format: "mp4",
		Model:  chosenModel,
		Background: &removal.BackgroundOptions{
			Type:              "transparent",
			TransparentFormat: removal.TransparentFormat(preferred),
		},
	}
	if preferred == "" {
		req.Background = nil
	}
	if err := client.StartJob(ctx, job.ID, req); err != nil {
		return err
	}

	poll := time.Duration(cfg.API.PollSeconds * float64(time.Second))
	status, err := client.Wait(ctx, job.ID, poll, func(s string) {
		log.Info().Str("job", job.ID).Str("status", s).Msg("processing")
	})
	if err != nil {
		return err
	}

	fmt.Printf("job:    %s\n", status.ID)
	fmt.Printf("format: %s\n", status.OutputFormat)
	fmt.Printf("video:  %s\n", status.ProcessedVideoURL)
	if status.ProcessedMaskURL != "" {
		fmt.Printf("mask:   %s\n", status.ProcessedMaskURL)
	}
	return nil
}

func contentTypeFor(path string) string {
	switch util.Extension(path) {
	case ".mov":
		return "video/mov"
	case ".webm":
		return "video/webm"
	default:
		return "video/mp4"
	}
}

func runCredits(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("credits", flag.ExitOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	client, err := removal.NewClient(logging.NewLogger(), cfg.API.Key, cfg.API.BaseURL)
	if err != nil {
		return err
	}
	balance, err := client.Credits(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("remaining: %.1f of %.1f (used %.1f)\n",
		balance.RemainingCredits, balance.TotalCredits, balance.UsedCredits)
	return nil
}
