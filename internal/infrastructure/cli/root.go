// Package cli wires the cobra command tree over the application container.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/voidws/xcpilot/internal/app"
	"github.com/voidws/xcpilot/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. The returned cleanup flushes the
// caches; the caller must run it after execution, whether or not the command
// failed (cobra skips post-run hooks on RunE errors).
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, func(), error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, nil, err
	}

	root := &cobra.Command{
		Use:   "xcpilot",
		Short: "xcpilot - cached Xcode build mediation",
		Long: "xcpilot runs xcodebuild and simctl on your behalf, caches their output\n" +
			"behind compact handles, and learns working build settings per project.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(commands.NewBuildCommand(container))
	root.AddCommand(commands.NewTestCommand(container))
	root.AddCommand(commands.NewInstallCommand(container))
	root.AddCommand(commands.NewSimulatorsCommand(container))
	root.AddCommand(commands.NewCacheCommand(container))
	root.AddCommand(commands.NewConfigCommand(container))
	root.AddCommand(commands.NewHistoryCommand(container))
	root.AddCommand(commands.NewDoctorCommand(container))
	root.AddCommand(commands.NewVersionCommand())
	return root, container.Close, nil
}
