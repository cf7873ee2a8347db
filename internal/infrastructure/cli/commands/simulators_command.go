package commands

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/voidws/xcpilot/internal/app"
	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/services/summarize"
)

// NewSimulatorsCommand creates the simulators command with all subcommands
func NewSimulatorsCommand(container *app.Container) *cobra.Command {
	simCmd := &cobra.Command{
		Use:   "simulators",
		Short: "Inspect cached simulator targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSimulatorSummary(cmd, container, false)
		},
	}

	var refresh bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List simulators grouped by runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSimulators(cmd, container, refresh)
		},
	}
	listCmd.Flags().BoolVar(&refresh, "refresh", false, "Force a fresh simctl listing")

	bootCmd := &cobra.Command{
		Use:   "boot <udid>",
		Short: "Boot a simulator by UDID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Simctl == nil {
				return fmt.Errorf(ErrSimulatorCacheUnavailable)
			}
			if err := container.Simctl.Boot(cmd.Context(), args[0]); err != nil {
				return err
			}
			container.Simulators.Invalidate()
			fmt.Fprintf(cmd.OutOrStdout(), "Booted %s\n", args[0])
			return nil
		},
	}

	simCmd.AddCommand(listCmd, bootCmd)
	return simCmd
}

func showSimulatorSummary(cmd *cobra.Command, container *app.Container, refresh bool) error {
	listing, err := loadListing(cmd, container, refresh)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	summary := summarize.Simulators(listing)
	if summary.Total == 0 {
		fmt.Fprintln(out, MsgNoSimulators)
		return nil
	}

	fmt.Fprintf(out, "Simulators: %d total, %d available, %d booted\n",
		summary.Total, summary.Available, summary.BootedCount)
	fmt.Fprintf(out, "Device types: %s\n", strings.Join(summary.DeviceTypes, ", "))
	fmt.Fprintf(out, "Runtimes: %s\n", strings.Join(summary.ActiveRuntimes, ", "))
	for _, dev := range summary.Booted {
		fmt.Fprintf(out, "Booted: %s (%s)\n", dev.Name, dev.UDID)
	}
	for _, dev := range summary.RecentlyUsed {
		fmt.Fprintf(out, "Recently used: %s, %s\n", dev.Name, humanize.Time(dev.LastUsedAt))
	}
	fmt.Fprintf(out, "Snapshot refreshed %s\n", humanize.Time(listing.RefreshedAt))
	return nil
}

func listSimulators(cmd *cobra.Command, container *app.Container, refresh bool) error {
	listing, err := loadListing(cmd, container, refresh)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listing.Empty() {
		fmt.Fprintln(out, MsgNoSimulators)
		return nil
	}

	for _, runtime := range listing.Runtimes() {
		devices := listing.DevicesByRuntime[runtime]
		if len(devices) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s:\n", domain.RuntimeLabel(runtime))
		for _, dev := range devices {
			status := dev.State
			if !dev.IsAvailable {
				status = "unavailable"
			}
			fmt.Fprintf(out, "  %s | %s | %s\n", dev.Name, dev.UDID, status)
		}
	}
	return nil
}

func loadListing(cmd *cobra.Command, container *app.Container, refresh bool) (domain.SimulatorListing, error) {
	if container.Simulators == nil {
		return domain.SimulatorListing{}, fmt.Errorf(ErrSimulatorCacheUnavailable)
	}
	if refresh {
		container.Simulators.Invalidate()
	}
	return container.Simulators.Listing(cmd.Context())
}
