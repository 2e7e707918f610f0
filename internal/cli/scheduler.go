package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/me/procsim/pkg/model"
	"github.com/spf13/cobra"
)

func newSchedulerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Control the scheduling loop",
	}
	cmd.AddCommand(
		newSchedulerToggleCmd("start", "Start the scheduling loop"),
		newSchedulerToggleCmd("stop", "Stop the scheduling loop"),
		&cobra.Command{
			Use:   "status",
			Short: "Show scheduler status and queue membership",
			RunE: func(cmd *cobra.Command, args []string) error {
				resp, err := client.Get("/api/v1/scheduler/")
				if err != nil {
					return fmt.Errorf("get scheduler status: %w", err)
				}
				var st model.SchedulerStatus
				if err := resp.decode(&st); err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), st, func(w io.Writer) {
					printSchedulerStatus(w, st)
				})
			},
		},
		&cobra.Command{
			Use:   "time-slice <units>",
			Short: "Set the number of units executed per iteration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid time slice %q: %w", args[0], err)
				}
				resp, err := client.Put("/api/v1/scheduler/time-slice", model.TimeSliceRequest{TimeSlice: n})
				if err != nil {
					return fmt.Errorf("set time slice: %w", err)
				}
				var st model.SchedulerStatus
				if err := resp.decode(&st); err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), st, func(w io.Writer) {
					fmt.Fprintf(w, "Time slice set to %d\n", st.TimeSlice)
				})
			},
		},
	)
	return cmd
}

func newSchedulerToggleCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/scheduler/"+action, nil)
			if err != nil {
				return fmt.Errorf("%s scheduler: %w", action, err)
			}
			var res model.ToggleResult
			if err := resp.decode(&res); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), res, func(w io.Writer) {
				state := "stopped"
				if res.Running {
					state = "running"
				}
				if res.Changed {
					fmt.Fprintf(w, "Scheduler %s\n", state)
				} else {
					fmt.Fprintf(w, "Scheduler already %s\n", state)
				}
			})
		},
	}
}
