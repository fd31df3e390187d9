package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/macdiet-go/internal/app"
	configapp "github.com/doeshing/macdiet-go/internal/application/config"
	"github.com/doeshing/macdiet-go/internal/domain"
)

const (
	msgConfigurationValid       = "Configuration valid"
	msgNoDifferencesFromDefault = "No differences from default configuration."
)

// NewConfigCommand creates the config command with all subcommands
func NewConfigCommand(resolve ContainerFunc) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect macdiet configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, resolve, showConfiguration)
		},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withContainer(cmd, resolve, showConfiguration)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withContainer(cmd, resolve, func(_ context.Context, out io.Writer, c *app.Container) error {
					fmt.Fprintln(out, c.Config.Path)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the configuration file",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withContainer(cmd, resolve, validateConfiguration)
			},
		},
		&cobra.Command{
			Use:   "diff",
			Short: "Show differences versus the default configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withContainer(cmd, resolve, showConfigurationDiff)
			},
		},
	)

	return configCmd
}

// withContainer resolves the container and hands it to fn with the command's stdout.
func withContainer(cmd *cobra.Command, resolve ContainerFunc, fn func(context.Context, io.Writer, *app.Container) error) error {
	container, err := resolve(cmd.Context())
	if err != nil {
		return err
	}
	return fn(cmd.Context(), cmd.OutOrStdout(), container)
}

// showConfiguration displays the effective configuration in YAML format
func showConfiguration(_ context.Context, out io.Writer, container *app.Container) error {
	fmt.Fprintf(out, "# %s\n", container.Config.Path)
	data, err := yaml.Marshal(container.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

// validateConfiguration reloads the file so edits made after startup are checked
func validateConfiguration(ctx context.Context, out io.Writer, container *app.Container) error {
	if container.ConfigLoader == nil {
		return errors.New(ErrConfigLoaderUnavailable)
	}
	cfg, err := container.ConfigLoader.Load(ctx)
	if err != nil {
		return domain.InvalidArgs(fmt.Errorf("configuration validation failed: %w", err))
	}
	if err := configapp.Validate(cfg); err != nil {
		return domain.InvalidArgs(fmt.Errorf("configuration validation failed: %w", err))
	}
	fmt.Fprintln(out, msgConfigurationValid)
	return nil
}

// showConfigurationDiff compares the effective configuration with the defaults
func showConfigurationDiff(_ context.Context, out io.Writer, container *app.Container) error {
	if container.ConfigLoader == nil {
		return errors.New(ErrConfigLoaderUnavailable)
	}
	defaults, err := container.ConfigLoader.Defaults()
	if err != nil {
		return err
	}
	diff := cmp.Diff(defaults, container.Config,
		cmpopts.IgnoreFields(domain.Config{}, "Path"),
		cmpopts.EquateEmpty(),
	)
	if diff == "" {
		fmt.Fprintln(out, msgNoDifferencesFromDefault)
		return nil
	}
	fmt.Fprintln(out, "Differences (-default +current):")
	fmt.Fprint(out, diff)
	return nil
}
