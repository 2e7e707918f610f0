package cli

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/me/procsim/pkg/model"
	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	var (
		priority string
		burst    int
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := model.CreateProcessRequest{Name: args[0], Priority: priority}
			if cmd.Flags().Changed("burst") {
				req.BurstTime = &burst
			}

			resp, err := client.Post("/api/v1/processes/", req)
			if err != nil {
				return fmt.Errorf("create process: %w", err)
			}
			var p model.Process
			if err := resp.decode(&p); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), p, func(w io.Writer) {
				fmt.Fprintf(w, "Process created: %s (%s, %s priority, burst %d)\n",
					p.ID, p.Name, priorityLabel(p.Priority), p.BurstTime)
			})
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "Priority (high, medium, low)")
	cmd.Flags().IntVarP(&burst, "burst", "b", 0, "Burst time in units (random when omitted)")
	return cmd
}

func newSpawnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spawn <count>",
		Short: "Create processes with random priority and burst time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[0], err)
			}
			resp, err := client.Post("/api/v1/processes/random", model.SpawnRequest{Count: n})
			if err != nil {
				return fmt.Errorf("spawn processes: %w", err)
			}
			var procs []model.Process
			if err := resp.decode(&procs); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), procs, func(w io.Writer) {
				printProcessTable(w, procs, time.Now())
			})
		},
	}
}

func newListCmd() *cobra.Command {
	var (
		state  string
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List processes in creation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if state != "" {
				q.Set("state", state)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}
			path := "/api/v1/processes/"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list processes: %w", err)
			}
			var procs []model.Process
			if err := resp.decode(&procs); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), procs, func(w io.Writer) {
				printProcessTable(w, procs, time.Now())
				if resp.Pagination != nil && resp.Pagination.HasMore {
					fmt.Fprintf(w, "\n(%d of %d shown)\n", len(procs), resp.Pagination.Total)
				}
			})
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "Filter by state (ready, running, waiting, terminated)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of processes to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of processes to skip")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <process_id>",
		Short: "Show a single process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/processes/" + url.PathEscape(args[0]))
			if err != nil {
				return fmt.Errorf("get process: %w", err)
			}
			var p model.Process
			if err := resp.decode(&p); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), p, func(w io.Writer) {
				printProcess(w, p, time.Now())
			})
		},
	}
}

func newSetStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-state <process_id> <state>",
		Short: "Force a process into a state (ready, running, waiting, terminated)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			resp, err := client.Put("/api/v1/processes/"+url.PathEscape(id)+"/state", model.SetStateRequest{State: args[1]})
			if err != nil {
				return fmt.Errorf("set state: %w", err)
			}
			var p model.Process
			if err := resp.decode(&p); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), p, func(w io.Writer) {
				fmt.Fprintf(w, "Process %s is now %s\n", p.ID, stateLabel(p.State))
			})
		},
	}
}

func newCountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Show total and per-state process counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/counts")
			if err != nil {
				return fmt.Errorf("get counts: %w", err)
			}
			var c model.Counts
			if err := resp.decode(&c); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), c, func(w io.Writer) {
				printCounts(w, c)
			})
		},
	}
}
