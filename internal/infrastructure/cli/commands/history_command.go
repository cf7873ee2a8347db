package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/voidws/xcpilot/internal/app"
	"github.com/voidws/xcpilot/internal/domain"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded build outcomes",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistorySearchCommand(container),
		newHistoryStatsCommand(container),
		newHistoryExportCommand(container),
		newHistoryClearCommand(container),
	)
	return historyCmd
}

func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent build outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistory(cmd.OutOrStdout(), container, limit, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Max entries to show")
	return cmd
}

func newHistorySearchCommand(container *app.Container) *cobra.Command {
	var query string
	var limit int
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search outcomes by project or scheme",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				return fmt.Errorf("--query required")
			}
			return listHistory(cmd.OutOrStdout(), container, limit, query)
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "Search keyword")
	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistorySearchLimit, "Limit search results")
	return cmd
}

func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show success rate per project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return fmt.Errorf(ErrHistoryStoreUnavailable)
			}
			records, err := container.HistoryStore.Records(0, "")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, MsgNoHistoryRecorded)
				return nil
			}
			renderHistoryStats(out, records)
			return nil
		},
	}
}

func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export outcomes to a jsonl file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return fmt.Errorf(ErrHistoryStoreUnavailable)
			}
			exporter, ok := container.HistoryStore.(interface{ ExportJSON(dest string) error })
			if !ok {
				return fmt.Errorf(ErrHistoryExportUnsupported)
			}
			if err := exporter.ExportJSON(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported build history to %s\n", args[0])
			return nil
		},
	}
}

func newHistoryClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear recorded build outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return fmt.Errorf(ErrHistoryStoreUnavailable)
			}
			return container.HistoryStore.Clear()
		},
	}
}

func listHistory(out io.Writer, container *app.Container, limit int, search string) error {
	if container.HistoryStore == nil {
		return fmt.Errorf(ErrHistoryStoreUnavailable)
	}
	records, err := container.HistoryStore.Records(limit, search)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}
	for _, rec := range records {
		status := "fail"
		if rec.Success {
			status = "ok"
		}
		fmt.Fprintf(out, "%s | %s | %s | %s | %dms | %de/%dw\n",
			rec.Timestamp.Format(TimestampFormat),
			status,
			rec.ProjectPath,
			rec.Scheme,
			rec.DurationMS,
			rec.ErrorCount,
			rec.WarningCount)
	}
	return nil
}

func renderHistoryStats(out io.Writer, records []domain.BuildRecord) {
	type projectStats struct {
		total   int
		success int
	}
	perProject := make(map[string]*projectStats)
	for _, rec := range records {
		stats := perProject[rec.ProjectPath]
		if stats == nil {
			stats = &projectStats{}
			perProject[rec.ProjectPath] = stats
		}
		stats.total++
		if rec.Success {
			stats.success++
		}
	}
	fmt.Fprintf(out, "Builds analyzed: %d\n", len(records))
	for project, stats := range perProject {
		rate := float64(stats.success) / float64(stats.total) * 100
		fmt.Fprintf(out, "  %s: %d builds, %.1f%% success\n", project, stats.total, rate)
	}
}
