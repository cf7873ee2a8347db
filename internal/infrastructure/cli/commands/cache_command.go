package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/voidws/xcpilot/internal/app"
	"github.com/voidws/xcpilot/internal/domain"
)

// NewCacheCommand creates the cache command with all subcommands
func NewCacheCommand(container *app.Container) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the response cache",
	}

	cacheCmd.AddCommand(
		newCacheListCommand(container),
		newCacheShowCommand(container),
		newCacheRecentCommand(container),
		newCacheDeleteCommand(container),
		newCacheClearCommand(container),
		newCacheStatsCommand(container),
	)
	return cacheCmd
}

func newCacheListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Responses == nil {
				return fmt.Errorf(ErrResponseCacheUnavailable)
			}
			entries := container.Responses.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoCachedResponses)
				return nil
			}
			for _, entry := range entries {
				renderCacheLine(cmd.OutOrStdout(), entry)
			}
			return nil
		},
	}
}

func newCacheShowCommand(container *app.Container) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "show <handle>",
		Short: "Show a cached response by handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Responses == nil {
				return fmt.Errorf(ErrResponseCacheUnavailable)
			}
			resp, ok := container.Responses.Get(args[0])
			if !ok {
				return fmt.Errorf("response %s: %w", args[0], domain.ErrNotFound)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tool: %s\nCommand: %s\nExit code: %d\nCreated: %s\n",
				resp.Tool, resp.Command, resp.ExitCode, resp.CreatedAt.Format(TimestampFormat))
			for key, value := range resp.Metadata {
				fmt.Fprintf(out, "%s: %s\n", key, value)
			}
			if full {
				if resp.Stdout != "" {
					fmt.Fprintln(out, "\nstdout:")
					fmt.Fprintln(out, resp.Stdout)
				}
				if resp.Stderr != "" {
					fmt.Fprintln(out, "\nstderr:")
					fmt.Fprintln(out, resp.Stderr)
				}
			} else {
				fmt.Fprintf(out, "Output: %s (use --full to print)\n", humanize.Bytes(uint64(resp.Size())))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Print the captured stdout/stderr")
	return cmd
}

func newCacheRecentCommand(container *app.Container) *cobra.Command {
	var tool string
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recent responses for a tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Responses == nil {
				return fmt.Errorf(ErrResponseCacheUnavailable)
			}
			entries := container.Responses.RecentByTool(tool, limit)
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoCachedResponses)
				return nil
			}
			for _, entry := range entries {
				renderCacheLine(cmd.OutOrStdout(), entry)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tool, "tool", "build", "Tool name (build, test)")
	cmd.Flags().IntVar(&limit, "limit", DefaultRecentLimit, "Max entries to show")
	return cmd
}

func newCacheDeleteCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <handle>",
		Short: "Delete a cached response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Responses == nil {
				return fmt.Errorf(ErrResponseCacheUnavailable)
			}
			if !container.Responses.Delete(args[0]) {
				return fmt.Errorf("response %s: %w", args[0], domain.ErrNotFound)
			}
			return nil
		},
	}
}

func newCacheClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Responses == nil {
				return fmt.Errorf(ErrResponseCacheUnavailable)
			}
			container.Responses.Clear()
			return nil
		},
	}
}

func newCacheStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache counts and total size",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Responses == nil {
				return fmt.Errorf(ErrResponseCacheUnavailable)
			}
			entries := container.Responses.Entries()
			var total int
			perTool := make(map[string]int)
			for _, entry := range entries {
				total += entry.Size()
				perTool[entry.Tool]++
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entries: %d\nTotal output: %s\n", len(entries), humanize.Bytes(uint64(total)))
			for tool, count := range perTool {
				fmt.Fprintf(out, "  %s: %d\n", tool, count)
			}
			if container.Prefs != nil {
				fmt.Fprintf(out, "Projects tracked: %d\n", len(container.Prefs.Projects()))
			}
			return nil
		},
	}
}

func renderCacheLine(out io.Writer, entry domain.CachedResponse) {
	fmt.Fprintf(out, "%s | %s | exit %d | %s | %s\n",
		entry.Handle,
		entry.Tool,
		entry.ExitCode,
		humanize.Bytes(uint64(entry.Size())),
		entry.CreatedAt.Format(TimestampFormat))
}
