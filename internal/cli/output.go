package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/me/procsim/pkg/model"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// render writes v as JSON or YAML when requested, otherwise calls table.
func render(w io.Writer, v any, table func(io.Writer)) error {
	switch flagOutput {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		table(w)
		return nil
	}
}

var stateLabels = map[model.ProcessState]string{
	model.ProcessStateReady:      "Ready",
	model.ProcessStateRunning:    "Running",
	model.ProcessStateWaiting:    "Waiting",
	model.ProcessStateTerminated: "Terminated",
}

var priorityLabels = map[model.Priority]string{
	model.PriorityHigh:   "High",
	model.PriorityMedium: "Medium",
	model.PriorityLow:    "Low",
}

func stateLabel(s model.ProcessState) string {
	if l, ok := stateLabels[s]; ok {
		return l
	}
	return string(s)
}

func priorityLabel(p model.Priority) string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return string(p)
}

// since renders t relative to now, or "-" for nil.
func since(t *time.Time, now time.Time) string {
	if t == nil {
		return "-"
	}
	return humanize.RelTime(*t, now, "ago", "from now")
}

const processRow = "%-14s  %-16s  %-10s  %-8s  %5s  %9s  %-14s  %s\n"

func printProcessTable(w io.Writer, procs []model.Process, now time.Time) {
	if len(procs) == 0 {
		fmt.Fprintln(w, "No processes found.")
		return
	}
	fmt.Fprintf(w, processRow, "ID", "NAME", "STATE", "PRIORITY", "BURST", "REMAINING", "WAITING FOR", "CREATED")
	fmt.Fprintf(w, processRow, "--", "----", "-----", "--------", "-----", "---------", "-----------", "-------")
	for _, p := range procs {
		reason := p.WaitingReason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(w, processRow, p.ID, truncate(p.Name, 16), stateLabel(p.State), priorityLabel(p.Priority),
			fmt.Sprint(p.BurstTime), fmt.Sprint(p.RemainingTime), reason, since(&p.CreatedAt, now))
	}
}

func printProcess(w io.Writer, p model.Process, now time.Time) {
	fmt.Fprintf(w, "Process: %s\n", p.ID)
	fmt.Fprintf(w, "  Name:      %s\n", p.Name)
	fmt.Fprintf(w, "  State:     %s\n", stateLabel(p.State))
	if p.WaitingReason != "" {
		fmt.Fprintf(w, "  Waiting:   %s\n", p.WaitingReason)
	}
	fmt.Fprintf(w, "  Priority:  %s\n", priorityLabel(p.Priority))
	fmt.Fprintf(w, "  Progress:  %d/%d units\n", p.BurstTime-p.RemainingTime, p.BurstTime)
	fmt.Fprintf(w, "  Created:   %s\n", since(&p.CreatedAt, now))
	fmt.Fprintf(w, "  Started:   %s\n", since(p.StartedAt, now))
	fmt.Fprintf(w, "  Ended:     %s\n", since(p.EndedAt, now))
}

func printCounts(w io.Writer, c model.Counts) {
	fmt.Fprintf(w, "Total: %d  Ready: %d  Running: %d  Waiting: %d  Terminated: %d\n",
		c.Total, c.Ready, c.Running, c.Waiting, c.Terminated)
}

func printSchedulerStatus(w io.Writer, st model.SchedulerStatus) {
	state := "stopped"
	if st.Running {
		state = "running"
	}
	running := st.RunningID
	if running == "" {
		running = "-"
	}
	fmt.Fprintf(w, "Scheduler:   %s\n", state)
	fmt.Fprintf(w, "Time slice:  %d\n", st.TimeSlice)
	fmt.Fprintf(w, "Running:     %s\n", running)
	fmt.Fprintf(w, "Ready queue: %s\n", joinIDs(st.ReadyQueue))
	fmt.Fprintf(w, "Waiting:     %s\n", joinIDs(st.Waiting))
	fmt.Fprintf(w, "Terminated:  %s\n", joinIDs(st.Terminated))
}

// printSnapshot renders the full dashboard used by watch and simulate.
func printSnapshot(w io.Writer, snap model.Snapshot, now time.Time) {
	printSchedulerStatus(w, snap.Scheduler)
	fmt.Fprintln(w)
	printCounts(w, snap.Counts)
	fmt.Fprintln(w)
	printProcessTable(w, snap.Processes, now)
}

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, " ")
}

// truncate shortens s to at most n runes, marking the cut with "~".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

// isTTY reports whether w is an interactive terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// clearScreen moves the cursor home and clears the terminal.
func clearScreen(w io.Writer) {
	fmt.Fprint(w, "\033[H\033[2J")
}
