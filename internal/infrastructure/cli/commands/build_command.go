package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/voidws/xcpilot/internal/app"
	"github.com/voidws/xcpilot/internal/services/orchestrate"
)

// NewBuildCommand creates the build command
func NewBuildCommand(container *app.Container) *cobra.Command {
	var (
		scheme        string
		configuration string
		destination   string
		sdk           string
		derivedData   string
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "build [project path]",
		Short: "Build an Xcode project with cached smart defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Orchestrator == nil {
				return fmt.Errorf(ErrOrchestratorUnavailable)
			}
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			result, err := container.Orchestrator.Build(ctx, orchestrate.BuildRequest{
				ProjectPath:     projectArg(args),
				Scheme:          scheme,
				Configuration:   configuration,
				Destination:     destination,
				SDK:             sdk,
				DerivedDataPath: derivedData,
			})
			if err != nil {
				return err
			}
			renderBuildResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scheme, "scheme", "s", "", "Scheme to build (default from project preferences)")
	cmd.Flags().StringVarP(&configuration, "configuration", "c", "", "Build configuration (e.g. Debug, Release)")
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Explicit xcodebuild destination (never overridden)")
	cmd.Flags().StringVar(&sdk, "sdk", "", "SDK identifier (e.g. iphonesimulator)")
	cmd.Flags().StringVar(&derivedData, "derived-data", "", "Derived data path")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Override execution timeout")
	return cmd
}

func projectArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// renderBuildResult prints the compact build response
func renderBuildResult(out io.Writer, result orchestrate.BuildResult) {
	if result.Summary.Success {
		fmt.Fprintln(out, "Build succeeded")
	} else {
		fmt.Fprintln(out, "Build failed")
	}
	fmt.Fprintf(out, "Errors: %d, Warnings: %d\n", result.Summary.ErrorCount, result.Summary.WarningCount)
	if result.Summary.Target != "" {
		fmt.Fprintf(out, "Target: %s\n", result.Summary.Target)
	}
	if result.Summary.ElapsedTime != "" {
		fmt.Fprintf(out, "Elapsed: %s\n", result.Summary.ElapsedTime)
	}
	for _, line := range result.Summary.Errors {
		fmt.Fprintf(out, "  error: %s\n", line)
	}
	if result.Execution.TimedOut {
		fmt.Fprintln(out, "Note: command timed out")
	}
	renderIntelligence(out, result.Intelligence)
	fmt.Fprintf(out, "Handle: %s\n", result.Handle)
}

func renderIntelligence(out io.Writer, intel orchestrate.Intelligence) {
	if intel.UsedPreferredConfig {
		fmt.Fprintln(out, "Applied cached build settings")
	}
	if intel.UsedSmartDestination {
		fmt.Fprintf(out, "Applied smart destination (%s)", intel.DestinationSource)
		if intel.DeviceName != "" {
			fmt.Fprintf(out, " on %s", intel.DeviceName)
		}
		fmt.Fprintln(out)
	}
}
