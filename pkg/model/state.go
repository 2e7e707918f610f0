package model

import "strings"

// ProcessState represents the lifecycle state of a Process.
type ProcessState string

const (
	ProcessStateReady      ProcessState = "READY"
	ProcessStateRunning    ProcessState = "RUNNING"
	ProcessStateWaiting    ProcessState = "WAITING"
	ProcessStateTerminated ProcessState = "TERMINATED"
)

// AllProcessStates lists every state in lifecycle order.
var AllProcessStates = []ProcessState{
	ProcessStateReady,
	ProcessStateRunning,
	ProcessStateWaiting,
	ProcessStateTerminated,
}

// String returns the string representation of the process state.
func (s ProcessState) String() string {
	return string(s)
}

// IsTerminal returns true if the process can no longer change state.
func (s ProcessState) IsTerminal() bool {
	return s == ProcessStateTerminated
}

// Valid reports whether s is one of the known states.
func (s ProcessState) Valid() bool {
	switch s {
	case ProcessStateReady, ProcessStateRunning, ProcessStateWaiting, ProcessStateTerminated:
		return true
	}
	return false
}

// ValidProcessTransitions defines the transitions the scheduling loop performs.
// Forced transitions requested by an operator may additionally move a Running
// process back to Ready and a Ready process to Waiting.
var ValidProcessTransitions = map[ProcessState][]ProcessState{
	ProcessStateReady:   {ProcessStateRunning, ProcessStateTerminated},
	ProcessStateRunning: {ProcessStateWaiting, ProcessStateReady, ProcessStateTerminated},
	ProcessStateWaiting: {ProcessStateReady, ProcessStateTerminated},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s ProcessState) CanTransitionTo(next ProcessState) bool {
	for _, allowed := range ValidProcessTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseProcessState converts user input ("running", "RUNNING") to a ProcessState.
func ParseProcessState(s string) (ProcessState, bool) {
	st := ProcessState(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// Priority is the scheduling precedence of a Process.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// AllPriorities lists priorities from highest to lowest precedence.
var AllPriorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() != 0
}

// Rank maps a priority to its numeric rank. Lower rank runs first.
// Unknown priorities rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 0
}

// ParsePriority converts user input ("high", "HIGH") to a Priority.
// An empty string yields PriorityMedium.
func ParsePriority(s string) (Priority, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PriorityMedium, true
	}
	p := Priority(strings.ToUpper(s))
	return p, p.Valid()
}
