package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pipelined/raug"
	"github.com/pipelined/raug/config"
	"github.com/pipelined/raug/log"
	"github.com/pipelined/raug/patch"
)

// app is the state shared by commands.
type app struct {
	configPath string
	cfg        config.Config
	// opts override patch settings when a config file is given.
	opts []raug.BuilderOption
	log  *logrus.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "raug",
		Short:         "Render and play audio graphs",
		Long:          "raug compiles HCL patches into audio graphs and renders them to files or plays them live.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Default()
			if a.configPath == "" {
				return nil
			}
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.opts = cfg.BuilderOptions()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.AddCommand(
		newRenderCmd(a),
		newPlayCmd(a),
		newPlanCmd(a),
		newParamsCmd(a),
	)
	return root
}

// build loads a patch and compiles it.
func (a *app) build(path string, opts ...raug.Option) (*raug.Runtime, error) {
	b, err := patch.Load(path, a.opts...)
	if err != nil {
		return nil, err
	}
	opts = append([]raug.Option{
		raug.WithLogger(a.log),
		raug.WithName(filepath.Base(path)),
	}, opts...)
	return b.BuildRuntime(opts...)
}

func main() {
	a := &app{log: log.GetLogger()}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "raug: %v\n", err)
		os.Exit(1)
	}
}
