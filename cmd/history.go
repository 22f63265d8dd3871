package cmd

import (
	"fmt"
	"io"
	"time"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ttlpanel/internal/config"
	"ttlpanel/internal/journal"
	"ttlpanel/internal/utils"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent TTL changes",
	Long: `Show the local journal of TTL operations made from this machine.

Every change, reset and persistence toggle is recorded with its outcome,
including inputs that were rejected before reaching the backend. Entries
expire after the configured retention window.`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent journal entries",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show journal statistics",
	Long:  `Display information about the journal including size, entry count, and expiration details.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryStats,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all journal entries",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historyCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired journal entries",
	Long:  `Clean up expired journal entries to reclaim disk space.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryCleanup,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyCleanupCmd)

	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", config.DefaultHistoryLimit, "Maximum number of entries to list")
}

// openHistory opens the journal for the history commands, which need it
// even when recording is switched off
func openHistory() (journal.Service, error) {
	j, err := utils.NewJournal(appConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return j, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	j, err := openHistory()
	if err != nil {
		return err
	}
	defer j.Close()

	return listHistory(j, cmd.OutOrStdout(), historyLimit)
}

func listHistory(j journal.Service, out io.Writer, limit int) error {
	entries, err := j.Recent(limit)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No TTL changes recorded")
		return nil
	}

	t := prettytable.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(prettytable.StyleRounded)
	t.AppendHeader(prettytable.Row{"", "When", "Operation", "TTL", "Outcome", "Detail"})

	for _, e := range entries {
		value := "-"
		if e.Value != nil {
			value = fmt.Sprint(*e.Value)
		}
		t.AppendRow(prettytable.Row{
			outcomeIcon(e.Outcome),
			utils.FormatAge(e.CreatedAt),
			e.Operation,
			value,
			string(e.Outcome),
			e.Detail,
		})
	}

	t.Render()
	return nil
}

func outcomeIcon(o journal.Outcome) string {
	switch o {
	case journal.OutcomeSuccess:
		return "✅"
	case journal.OutcomeInvalid:
		return "⚠️"
	default:
		return "❌"
	}
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	j, err := openHistory()
	if err != nil {
		return err
	}
	defer j.Close()

	return printHistoryStats(j, cmd.OutOrStdout(), appConfig.Journal.Retention)
}

func printHistoryStats(j journal.Service, out io.Writer, retention time.Duration) error {
	stats, err := j.Stats()
	if err != nil {
		return fmt.Errorf("failed to get journal stats: %w", err)
	}

	fmt.Fprintf(out, "Journal Statistics:\n")
	fmt.Fprintf(out, "  Total entries:   %d\n", stats.TotalEntries)
	fmt.Fprintf(out, "  Valid entries:   %d\n", stats.ValidEntries)
	fmt.Fprintf(out, "  Expired entries: %d\n", stats.ExpiredEntries)
	fmt.Fprintf(out, "  Failures:        %d\n", stats.Failures)
	fmt.Fprintf(out, "  Database size:   %s\n", utils.FormatBytes(stats.SizeBytes))
	fmt.Fprintf(out, "  Retention:       %s\n", utils.FormatRetention(retention))

	if stats.ValidEntries > 0 {
		fmt.Fprintf(out, "  Success rate:    %.1f%%\n", float64(stats.ValidEntries-stats.Failures)/float64(stats.ValidEntries)*100)
	}

	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	j, err := openHistory()
	if err != nil {
		return err
	}
	defer j.Close()

	return clearHistory(j, cmd.OutOrStdout())
}

func clearHistory(j journal.Service, out io.Writer) error {
	removed, err := j.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}

	if removed == 0 {
		fmt.Fprintln(out, "Journal is already empty")
		return nil
	}

	fmt.Fprintf(out, "Cleared %d journal entries\n", removed)
	return nil
}

func runHistoryCleanup(cmd *cobra.Command, args []string) error {
	j, err := openHistory()
	if err != nil {
		return err
	}
	defer j.Close()

	return cleanupHistory(j, cmd.OutOrStdout())
}

func cleanupHistory(j journal.Service, out io.Writer) error {
	before, err := j.Stats()
	if err != nil {
		return fmt.Errorf("failed to get journal stats: %w", err)
	}

	removed, err := j.Cleanup()
	if err != nil {
		return fmt.Errorf("failed to cleanup journal: %w", err)
	}

	if removed == 0 {
		fmt.Fprintln(out, "No expired entries to clean up")
		return nil
	}

	after, err := j.Stats()
	if err != nil {
		return fmt.Errorf("failed to get journal stats after cleanup: %w", err)
	}

	fmt.Fprintf(out, "Removed %d expired journal entries\n", removed)
	fmt.Fprintf(out, "Journal size reduced by %s\n", utils.FormatBytes(before.SizeBytes-after.SizeBytes))
	return nil
}
