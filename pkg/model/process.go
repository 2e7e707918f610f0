package model

import "time"

// Waiting reasons recorded when a process leaves the running slot or the
// ready queue for the waiting set.
const (
	WaitReasonIO          = "I/O Operation"
	WaitReasonUserRequest = "user request"
)

// Process is a single schedulable unit of simulated work.
//
// The Manager owns every *Process; callers outside it only ever see copies
// returned by Snapshot.
type Process struct {
	ID            string       `json:"id" yaml:"id"`
	Name          string       `json:"name" yaml:"name"`
	State         ProcessState `json:"state" yaml:"state"`
	Priority      Priority     `json:"priority" yaml:"priority"`
	BurstTime     int          `json:"burst_time" yaml:"burst_time"`
	RemainingTime int          `json:"remaining_time" yaml:"remaining_time"`
	WaitingReason string       `json:"waiting_reason,omitempty" yaml:"waiting_reason,omitempty"`
	CreatedAt     time.Time    `json:"created_at" yaml:"created_at"`
	StartedAt     *time.Time   `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	EndedAt       *time.Time   `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`
}

// NewProcess returns a Ready process with RemainingTime equal to burst.
func NewProcess(id, name string, priority Priority, burst int, now time.Time) *Process {
	return &Process{
		ID:            id,
		Name:          name,
		State:         ProcessStateReady,
		Priority:      priority,
		BurstTime:     burst,
		RemainingTime: burst,
		CreatedAt:     now,
	}
}

// Start moves a Ready process to Running. StartedAt is recorded on the first
// successful call only.
func (p *Process) Start(now time.Time) bool {
	if p.State != ProcessStateReady {
		return false
	}
	p.State = ProcessStateRunning
	if p.StartedAt == nil {
		t := now
		p.StartedAt = &t
	}
	return true
}

// Wait moves a Running process to Waiting with the given reason.
func (p *Process) Wait(reason string) bool {
	if p.State != ProcessStateRunning {
		return false
	}
	p.State = ProcessStateWaiting
	p.WaitingReason = reason
	return true
}

// Resume moves a Waiting process back to Ready and clears the reason.
func (p *Process) Resume() bool {
	if p.State != ProcessStateWaiting {
		return false
	}
	p.State = ProcessStateReady
	p.WaitingReason = ""
	return true
}

// Preempt moves a Running process back to Ready. Used for round-robin
// demotion and when another process is forced into the running slot.
func (p *Process) Preempt() bool {
	if p.State != ProcessStateRunning {
		return false
	}
	p.State = ProcessStateReady
	return true
}

// Block moves a Ready process straight to Waiting on operator request.
func (p *Process) Block(reason string) bool {
	if p.State != ProcessStateReady {
		return false
	}
	p.State = ProcessStateWaiting
	p.WaitingReason = reason
	return true
}

// Terminate ends the process from any non-terminal state. Repeated calls
// return false and leave EndedAt untouched.
func (p *Process) Terminate(now time.Time) bool {
	if p.State == ProcessStateTerminated {
		return false
	}
	p.State = ProcessStateTerminated
	p.WaitingReason = ""
	t := now
	p.EndedAt = &t
	return true
}

// Advance executes up to units of work while Running and returns the units
// actually consumed. Reaching zero remaining time terminates the process.
func (p *Process) Advance(units int, now time.Time) int {
	if p.State != ProcessStateRunning || units <= 0 {
		return 0
	}
	executed := min(units, p.RemainingTime)
	p.RemainingTime -= executed
	if p.RemainingTime == 0 {
		p.Terminate(now)
	}
	return executed
}

// Rank returns the numeric priority rank used for queue ordering.
func (p *Process) Rank() int {
	return p.Priority.Rank()
}

// Snapshot returns a deep copy safe to hand to callers outside the Manager.
func (p *Process) Snapshot() Process {
	cp := *p
	if p.StartedAt != nil {
		t := *p.StartedAt
		cp.StartedAt = &t
	}
	if p.EndedAt != nil {
		t := *p.EndedAt
		cp.EndedAt = &t
	}
	return cp
}
