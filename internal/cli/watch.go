package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/me/procsim/pkg/model"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the server's live snapshot stream",
		Long:  "watch subscribes to the server's event stream and redraws the process table on every change. Stop it with Ctrl-C or --duration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			out := cmd.OutOrStdout()
			tty := isTTY(out)
			err := client.Stream(ctx, "/api/v1/sse/events", func(event string, data []byte) error {
				if event != "snapshot" {
					return nil
				}
				var snap model.Snapshot
				if err := json.Unmarshal(data, &snap); err != nil {
					return fmt.Errorf("parse snapshot: %w", err)
				}
				if flagOutput != outputTable {
					return render(out, snap, nil)
				}
				if tty {
					clearScreen(out)
					printSnapshot(out, snap, time.Now())
				} else {
					printCounts(out, snap.Counts)
				}
				return nil
			})
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop watching after this long (0 = until interrupted)")
	return cmd
}
