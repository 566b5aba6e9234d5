package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pipelined/raug"
	"github.com/pipelined/raug/control"
	"github.com/pipelined/raug/portaudio"
)

type playCommand struct {
	duration time.Duration
	null     bool
	control  string
	watch    string
	repl     bool
}

func newPlayCmd(a *app) *cobra.Command {
	pc := &playCommand{}
	cmd := &cobra.Command{
		Use:   "play PATCH",
		Short: "Play a patch on the default audio device",
		Args:  cobra.ExactArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			if !cmd.Flags().Changed("control") {
				pc.control = a.cfg.Control
			}
			if !cmd.Flags().Changed("watch") {
				pc.watch = a.cfg.Watch
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.build(args[0], raug.WithRegisterer(prometheus.DefaultRegisterer))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return pc.play(ctx, a, r, cmd)
		},
	}
	cmd.Flags().DurationVarP(&pc.duration, "duration", "d", 0, "stop after the duration, 0 plays until interrupted")
	cmd.Flags().BoolVar(&pc.null, "null", false, "discard audio in real time instead of using the device")
	cmd.Flags().StringVar(&pc.control, "control", "", "serve the HTTP control API on the address")
	cmd.Flags().StringVar(&pc.watch, "watch", "", "apply parameter values from the YAML file on every write")
	cmd.Flags().BoolVar(&pc.repl, "repl", false, "read parameter commands from stdin")
	return cmd
}

func (pc *playCommand) sink() raug.Sink {
	if pc.null {
		return raug.Paced(raug.Discard)
	}
	return portaudio.NewSink()
}

func (pc *playCommand) play(ctx context.Context, a *app, r *raug.Runtime, cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// the other goroutines end with the run
		defer cancel()
		if pc.duration > 0 {
			return r.RunFor(ctx, pc.duration, pc.sink())
		}
		h, err := r.Run(ctx, pc.sink())
		if err != nil {
			return err
		}
		return h.Wait()
	})
	if pc.control != "" {
		srv := control.NewServer(r, control.WithLogger(a.log))
		g.Go(func() error {
			a.log.Infof("control API listening on %s", pc.control)
			return srv.ListenAndServe(ctx, pc.control)
		})
	}
	if pc.watch != "" {
		g.Go(func() error {
			return control.WatchParams(ctx, pc.watch, r.Params(), a.log)
		})
	}
	if pc.repl {
		in := cmd.InOrStdin()
		prompt := false
		if f, ok := in.(*os.File); ok {
			prompt = isatty.IsTerminal(f.Fd())
		}
		// stdin can't be interrupted, so the repl is not waited for
		go func() {
			if err := repl(in, cmd.OutOrStdout(), r, prompt); err != nil {
				a.log.Warn("repl: ", err)
			}
			cancel()
		}()
	}
	return g.Wait()
}
