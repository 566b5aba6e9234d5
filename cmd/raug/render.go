package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pipelined/raug"
	"github.com/pipelined/raug/mp3"
	"github.com/pipelined/raug/signal"
	"github.com/pipelined/raug/wav"
)

type renderCommand struct {
	out      string
	duration time.Duration
	bitDepth int
}

func newRenderCmd(a *app) *cobra.Command {
	rc := &renderCommand{}
	cmd := &cobra.Command{
		Use:   "render PATCH",
		Short: "Render a patch to a wav or mp3 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rc.validate(); err != nil {
				return err
			}
			depth := a.cfg.Depth()
			if rc.bitDepth != 0 {
				depth = signal.BitDepth(rc.bitDepth)
			}
			r, err := a.build(args[0], raug.WithBitDepth(depth))
			if err != nil {
				return err
			}
			sink, err := rc.sink(a, depth)
			if err != nil {
				return err
			}
			began := time.Now()
			if err := r.RunOffline(cmd.Context(), rc.duration, sink); err != nil {
				return err
			}
			a.log.Infof("rendered %v of %s to %s in %v", rc.duration, args[0], rc.out, time.Since(began))
			return nil
		},
	}
	cmd.Flags().StringVarP(&rc.out, "output", "o", "", "output file, .wav or .mp3 (required)")
	cmd.Flags().DurationVarP(&rc.duration, "duration", "d", 10*time.Second, "length of the render")
	cmd.Flags().IntVar(&rc.bitDepth, "bit-depth", 0, "wav bit depth, defaults to the config value")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (rc *renderCommand) validate() error {
	var message []string
	if rc.duration <= 0 {
		message = append(message, "duration must be positive")
	}
	switch strings.ToLower(filepath.Ext(rc.out)) {
	case ".wav", ".mp3":
	default:
		message = append(message, fmt.Sprintf("unsupported output format %q", filepath.Ext(rc.out)))
	}
	if len(message) > 0 {
		return fmt.Errorf("invalid render flags: %s", strings.Join(message, ", "))
	}
	return nil
}

func (rc *renderCommand) sink(a *app, depth signal.BitDepth) (raug.Sink, error) {
	if strings.EqualFold(filepath.Ext(rc.out), ".mp3") {
		return mp3.NewSink(rc.out, a.cfg.MP3.BitRate, a.cfg.MP3.Quality), nil
	}
	return wav.NewSink(rc.out, depth)
}
