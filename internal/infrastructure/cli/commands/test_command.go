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

// NewTestCommand creates the test command
func NewTestCommand(container *app.Container) *cobra.Command {
	var (
		scheme      string
		destination string
		sdk         string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "test [project path]",
		Short: "Run Xcode tests with cached smart defaults",
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

			result, err := container.Orchestrator.Test(ctx, orchestrate.BuildRequest{
				ProjectPath: projectArg(args),
				Scheme:      scheme,
				Destination: destination,
				SDK:         sdk,
			})
			if err != nil {
				return err
			}
			renderTestResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scheme, "scheme", "s", "", "Scheme to test (default from project preferences)")
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Explicit xcodebuild destination (never overridden)")
	cmd.Flags().StringVar(&sdk, "sdk", "", "SDK identifier (e.g. iphonesimulator)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Override execution timeout")
	return cmd
}

func renderTestResult(out io.Writer, result orchestrate.TestResult) {
	if result.Summary.Success {
		fmt.Fprintln(out, "Tests passed")
	} else {
		fmt.Fprintln(out, "Tests failed")
	}
	fmt.Fprintf(out, "Tests: %d, Failures: %d\n", result.Summary.TestCount, result.Summary.FailureCount)
	if result.Summary.ElapsedTime != "" {
		fmt.Fprintf(out, "Elapsed: %s\n", result.Summary.ElapsedTime)
	}
	for _, line := range result.Summary.Failures {
		fmt.Fprintf(out, "  failed: %s\n", line)
	}
	if result.Execution.TimedOut {
		fmt.Fprintln(out, "Note: command timed out")
	}
	renderIntelligence(out, result.Intelligence)
	fmt.Fprintf(out, "Handle: %s\n", result.Handle)
}
