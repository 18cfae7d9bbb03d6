// Package buildcmder provides the `playback build` CLI command.
package buildcmder

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/cmd/playback/appenv"
	"github.com/papercomputeco/playback/pkg/builder"
	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/encoder"
	"github.com/papercomputeco/playback/pkg/frame"
)

const buildLongDesc string = `Encode captured frames into video segments.

Groups the day's frames into segments, encodes each with ffmpeg, records
segment and app-attribution rows in the catalog, then clears nothing:
temp frames are left for the ocr and cleanup commands.

Examples:
  playback build
  playback build --day 20260815
  playback build --watch
  playback build --watch --debounce 5s`

const buildShortDesc string = "Encode captured frames into video segments"

type buildCommander struct {
	day            string
	watch          bool
	debounce       time.Duration
	fps            float64
	segmentSeconds float64
	crf            int
	preset         string
}

// NewBuildCmd creates the build cobra command.
func NewBuildCmd() *cobra.Command {
	cmder := &buildCommander{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: buildShortDesc,
		Long:  buildLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.day, "day", "", "Day to build as YYYYMMDD (defaults to today)")
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Keep running and rebuild when new frames land")
	cmd.Flags().DurationVar(&cmder.debounce, "debounce", 2*time.Second, "Quiet period before a watch-triggered build")
	cmd.Flags().Float64Var(&cmder.fps, "fps", 0, "Playback frame rate (defaults to the configured value)")
	cmd.Flags().Float64Var(&cmder.segmentSeconds, "segment-seconds", 0, "Playback seconds per segment (defaults to the configured value)")
	cmd.Flags().IntVar(&cmder.crf, "crf", 0, "x264 constant rate factor (defaults to the configured value)")
	cmd.Flags().StringVar(&cmder.preset, "preset", "", "x264 preset (defaults to the configured value)")

	return cmd
}

func (c *buildCommander) run(ctx context.Context, cmd *cobra.Command) error {
	env, err := appenv.Load(cmd)
	if err != nil {
		return err
	}

	if err := env.Tree.Ensure(); err != nil {
		return err
	}

	cat, err := catalog.Open(env.Tree.CatalogPath(), env.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	publisher := env.Publisher()
	defer func() { _ = publisher.Close() }()

	enc := encoder.NewFFmpeg()
	loader := frame.NewLoader(enc, env.Logger, env.Config.Capture.ExcludedApps)

	b := builder.New(env.Tree, loader, enc, cat, publisher, env.Logger, c.options(env))

	if c.watch {
		fmt.Fprintln(cmd.OutOrStdout(), "Watching for new frames (Ctrl-C to stop)")
		return b.Watch(ctx, c.debounce)
	}

	day := c.day
	if day == "" {
		day = builder.Today()
	}

	result, err := b.BuildDay(ctx, day)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
	return nil
}

// options layers flag overrides over the configured encode settings.
func (c *buildCommander) options(env *appenv.Env) builder.Options {
	opts := builder.Options{
		FPS:            env.Config.Video.FPS,
		SegmentSeconds: env.Config.Video.SegmentSeconds,
		CRF:            env.Config.Video.CRF,
		Preset:         env.Config.Video.Preset,
	}
	if c.fps > 0 {
		opts.FPS = c.fps
	}
	if c.segmentSeconds > 0 {
		opts.SegmentSeconds = c.segmentSeconds
	}
	if c.crf > 0 {
		opts.CRF = c.crf
	}
	if c.preset != "" {
		opts.Preset = c.preset
	}
	return opts
}
