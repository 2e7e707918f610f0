package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/me/procsim/internal/manager"
	"github.com/me/procsim/internal/notify"
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	var (
		processes int
		duration  time.Duration
		timeSlice int
		interval  time.Duration
		dwell     time.Duration
		seed      uint64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a simulation locally without a server",
		Long:  "simulate spawns random processes in an in-process manager, runs the scheduler for --duration and renders the table on every change.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := manager.DefaultConfig()
			cfg.TimeSlice = timeSlice
			cfg.Interval = interval
			cfg.Dwell = dwell
			cfg.Seed = seed
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid simulation settings: %w", err)
			}
			if processes < 0 {
				return fmt.Errorf("invalid process count %d", processes)
			}

			hub := notify.NewHub()
			mgr := manager.New(cfg, logger, manager.WithOnChange(hub.Publish))
			signals, unsubscribe := hub.Subscribe()
			defer unsubscribe()

			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()

			mgr.SpawnRandom(processes)
			mgr.StartScheduler(ctx)

			out := cmd.OutOrStdout()
			tty := isTTY(out)
		loop:
			for {
				select {
				case <-ctx.Done():
					break loop
				case <-signals:
					if flagOutput != outputTable {
						continue
					}
					snap := mgr.Snapshot()
					if tty {
						clearScreen(out)
						printSnapshot(out, snap, time.Now())
					} else {
						printCounts(out, snap.Counts)
					}
				}
			}
			mgr.StopScheduler()

			final := mgr.Snapshot()
			if tty && flagOutput == outputTable {
				clearScreen(out)
			}
			return render(out, final, func(w io.Writer) {
				fmt.Fprintln(w)
				printSnapshot(w, final, time.Now())
			})
		},
	}
	d := manager.DefaultConfig()
	cmd.Flags().IntVar(&processes, "processes", 5, "Number of random processes to spawn")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "How long to run the scheduler")
	cmd.Flags().IntVar(&timeSlice, "time-slice", d.TimeSlice, "Units executed per iteration")
	cmd.Flags().DurationVar(&interval, "interval", d.Interval, "Delay between scheduling iterations")
	cmd.Flags().DurationVar(&dwell, "dwell", d.Dwell, "How long an executed process stays in the running slot")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (0 seeds from the clock)")
	return cmd
}
