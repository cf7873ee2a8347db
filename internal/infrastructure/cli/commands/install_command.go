package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voidws/xcpilot/internal/app"
	"github.com/voidws/xcpilot/internal/services/orchestrate"
)

// NewInstallCommand creates the install command (build then install on a
// simulator)
func NewInstallCommand(container *app.Container) *cobra.Command {
	var (
		scheme        string
		configuration string
		sdk           string
		derivedData   string
	)

	cmd := &cobra.Command{
		Use:   "install [project path]",
		Short: "Build and install the app on the best simulator",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Orchestrator == nil {
				return fmt.Errorf(ErrOrchestratorUnavailable)
			}

			result, err := container.Orchestrator.BuildAndInstall(cmd.Context(), orchestrate.BuildRequest{
				ProjectPath:     projectArg(args),
				Scheme:          scheme,
				Configuration:   configuration,
				SDK:             sdk,
				DerivedDataPath: derivedData,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderBuildResult(out, result.Build)
			if !result.Build.Summary.Success {
				return nil
			}
			if result.Installed {
				fmt.Fprintf(out, "Installed %s on %s (%s)\n", result.AppPath, result.DeviceName, result.DeviceUDID)
				if result.Build.Intelligence.SimulatorAutoSelected {
					fmt.Fprintln(out, "Simulator auto-selected from usage history")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&scheme, "scheme", "s", "", "Scheme to build (default from project preferences)")
	cmd.Flags().StringVarP(&configuration, "configuration", "c", "", "Build configuration (e.g. Debug, Release)")
	cmd.Flags().StringVar(&sdk, "sdk", "", "SDK identifier (e.g. iphonesimulator)")
	cmd.Flags().StringVar(&derivedData, "derived-data", "", "Derived data path")
	return cmd
}
