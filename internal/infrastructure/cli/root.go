package cli

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/doeshing/macdiet-go/internal/app"
	"github.com/doeshing/macdiet-go/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// lazyContainer builds the container on first use so persistent flags are
// parsed before the config is read.
type lazyContainer struct {
	opts      *Options
	once      sync.Once
	container *app.Container
	err       error
}

func (l *lazyContainer) get(ctx context.Context) (*app.Container, error) {
	l.once.Do(func() {
		l.container, l.err = app.BuildContainer(ctx, app.Options{
			ConfigPath: l.opts.ConfigPath,
			Verbose:    l.opts.Verbose,
		})
	})
	return l.container, l.err
}

func (l *lazyContainer) Close() error {
	if l.container == nil {
		return nil
	}
	return l.container.Close()
}

// NewRootCmd wires the cobra root command. The returned func releases the
// audit sinks and must be called after Execute.
func NewRootCmd(opts Options) (*cobra.Command, func() error) {
	lazy := &lazyContainer{opts: &opts}
	resolve := commands.ContainerFunc(lazy.get)

	root := &cobra.Command{
		Use:           "macdiet",
		Short:         "macdiet - reclaim disk space from developer caches",
		Long:          "macdiet applies cleanup plans safely: allowlisted paths go to ~/.Trash and allowlisted commands run only after typed confirmation.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "Config file (default ~/.config/macdiet/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", opts.Verbose, "Enable debug logging")

	root.AddCommand(newFixCommand(resolve))
	root.AddCommand(commands.NewAllowlistCommand())
	root.AddCommand(commands.NewHistoryCommand(resolve))
	root.AddCommand(commands.NewConfigCommand(resolve))
	root.AddCommand(commands.NewDoctorCommand(resolve))
	root.AddCommand(commands.NewVersionCommand())
	return root, lazy.Close
}
