package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status     string      `json:"status"`
	RequestID  string      `json:"request_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *APIError   `json:"error"`
}

// Pagination holds pagination metadata for list endpoints.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ListOptions configures list queries with pagination and filtering.
type ListOptions struct {
	Limit  int
	Offset int
	State  ProcessState // Optional state filter
}

// DefaultListOptions returns sensible defaults.
func DefaultListOptions() ListOptions {
	return ListOptions{Limit: 50, Offset: 0}
}

// Clamp enforces limits (max 500, min 1).
func (o *ListOptions) Clamp() {
	if o.Limit <= 0 {
		o.Limit = 50
	}
	if o.Limit > 500 {
		o.Limit = 500
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// Page applies the options to procs and returns the page plus pagination
// metadata. The state filter is applied before paging.
func (o ListOptions) Page(procs []Process) ([]Process, *Pagination) {
	o.Clamp()
	filtered := procs
	if o.State != "" {
		filtered = make([]Process, 0, len(procs))
		for _, p := range procs {
			if p.State == o.State {
				filtered = append(filtered, p)
			}
		}
	}
	total := len(filtered)
	start := min(o.Offset, total)
	end := min(start+o.Limit, total)
	return filtered[start:end], &Pagination{
		Total:   total,
		Limit:   o.Limit,
		Offset:  o.Offset,
		HasMore: end < total,
	}
}

// CreateProcessRequest is the body of POST /api/v1/processes.
type CreateProcessRequest struct {
	Name      string `json:"name"`
	Priority  string `json:"priority,omitempty"`
	BurstTime *int   `json:"burst_time,omitempty"`
}

// SpawnRequest is the body of POST /api/v1/processes/random.
type SpawnRequest struct {
	Count int `json:"count"`
}

// SetStateRequest is the body of PUT /api/v1/processes/{id}/state.
type SetStateRequest struct {
	State string `json:"state"`
}

// TimeSliceRequest is the body of PUT /api/v1/scheduler/time-slice.
type TimeSliceRequest struct {
	TimeSlice int `json:"time_slice"`
}

// ToggleResult reports whether a start/stop request changed anything.
type ToggleResult struct {
	Changed bool `json:"changed"`
	Running bool `json:"running"`
}

// HistoryEntry is one observed state change recorded by the history journal.
type HistoryEntry struct {
	Seq           int64        `json:"seq" yaml:"seq"`
	ProcessID     string       `json:"process_id" yaml:"process_id"`
	Name          string       `json:"name" yaml:"name"`
	FromState     ProcessState `json:"from_state,omitempty" yaml:"from_state,omitempty"`
	ToState       ProcessState `json:"to_state" yaml:"to_state"`
	RemainingTime int          `json:"remaining_time" yaml:"remaining_time"`
	ObservedAt    time.Time    `json:"observed_at" yaml:"observed_at"`
}
