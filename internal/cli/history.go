package cli

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/me/procsim/pkg/model"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		processID string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the observed state-change journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if processID != "" {
				q.Set("process_id", processID)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/v1/history"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("get history: %w", err)
			}
			var entries []model.HistoryEntry
			if err := resp.decode(&entries); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), entries, func(w io.Writer) {
				printHistory(w, entries, time.Now())
			})
		},
	}
	cmd.Flags().StringVar(&processID, "process", "", "Only show entries for this process id")
	cmd.Flags().IntVar(&limit, "limit", 0, "Most recent N entries (server default 100)")
	return cmd
}

const historyRow = "%6s  %-14s  %-16s  %-10s  %-10s  %9s  %s\n"

func printHistory(w io.Writer, entries []model.HistoryEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history recorded.")
		return
	}
	fmt.Fprintf(w, historyRow, "SEQ", "PROCESS", "NAME", "FROM", "TO", "REMAINING", "OBSERVED")
	fmt.Fprintf(w, historyRow, "---", "-------", "----", "----", "--", "---------", "--------")
	for _, e := range entries {
		from := "-"
		if e.FromState != "" {
			from = stateLabel(e.FromState)
		}
		fmt.Fprintf(w, historyRow, strconv.FormatInt(e.Seq, 10), e.ProcessID, truncate(e.Name, 16),
			from, stateLabel(e.ToState), strconv.Itoa(e.RemainingTime), humanize.RelTime(e.ObservedAt, now, "ago", "from now"))
	}
}
