package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/openfroyo/typeintro/pkg/stores"
)

func newJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the retrieval journal",
		Long: `Inspect the SQLite journal of template and schema retrievals.

The journal tells an empty part that the type genuinely lacks apart from
one whose retrieval failed. It is written when journal.path (or
TYPEINTRO_JOURNAL_PATH) is set.`,
	}

	cmd.AddCommand(newJournalListCommand())
	cmd.AddCommand(newJournalStatsCommand())
	cmd.AddCommand(newJournalPruneCommand())

	return cmd
}

func newJournalListCommand() *cobra.Command {
	var (
		typeName string
		part     string
		failed   bool
		since    time.Duration
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled retrievals",
		Example: `  # Latest retrievals
  typeintro journal list

  # Failed schema retrievals of the last hour
  typeintro journal list --part schema --failed --since 1h

  # Everything for one type as JSON
  typeintro journal list --type std_msgs/msg/String --limit -1 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.requireJournal(cmd.Context())
			if err != nil {
				return err
			}

			filter := stores.RetrievalFilter{
				TypeName: typeName,
				Part:     part,
				Limit:    limit,
			}
			if failed {
				filter.Status = stores.RetrievalStatusFailed
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			rows, err := store.ListRetrievals(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			return renderRetrievals(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "", "filter by type name")
	cmd.Flags().StringVar(&part, "part", "", "filter by part (template, schema)")
	cmd.Flags().BoolVar(&failed, "failed", false, "show failed retrievals only")
	cmd.Flags().DurationVar(&since, "since", 0, "only entries newer than this age")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum entries (-1 for all)")

	return cmd
}

func newJournalStatsCommand() *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize retrievals per type and part",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.requireJournal(cmd.Context())
			if err != nil {
				return err
			}

			stats, err := store.RetrievalStats(cmd.Context(), stores.RetrievalFilter{TypeName: typeName})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			return renderStats(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "", "filter by type name")

	return cmd
}

func newJournalPruneCommand() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:     "prune",
		Short:   "Delete old journal entries",
		Example: `  typeintro journal prune --older-than 720h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.requireJournal(cmd.Context())
			if err != nil {
				return err
			}

			n, err := store.PruneRetrievals(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d entries\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "delete entries older than this age")
	cmd.MarkFlagRequired("older-than")

	return cmd
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failedStyle = cellStyle.Foreground(lipgloss.Color("9"))
)

func renderRetrievals(w io.Writer, rows []*stores.Retrieval) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No retrievals recorded")
		return err
	}

	failedRows := make(map[int]bool)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TIME", "TYPE", "PART", "SOURCE", "STATUS", "DURATION", "ERROR")
	for i, r := range rows {
		if r.Status == stores.RetrievalStatusFailed {
			failedRows[i] = true
		}
		errText := r.Error
		if r.ErrorKind != "" {
			errText = r.ErrorKind + ": " + errText
		}
		t.Row(
			r.CreatedAt.Local().Format(time.DateTime),
			r.TypeName,
			r.Part,
			r.Source,
			string(r.Status),
			strconv.FormatInt(r.DurationMS, 10)+"ms",
			errText,
		)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case failedRows[row] && col == 4:
			return failedStyle
		default:
			return cellStyle
		}
	})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func renderStats(w io.Writer, stats []*stores.RetrievalStats) error {
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "No retrievals recorded")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TYPE", "PART", "TOTAL", "FAILURES")
	for _, s := range stats {
		t.Row(s.TypeName, s.Part, strconv.Itoa(s.Total), strconv.Itoa(s.Failures))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
