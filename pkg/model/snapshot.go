package model

// Counts summarizes how many processes sit in each scheduling structure.
type Counts struct {
	Total      int `json:"total" yaml:"total"`
	Ready      int `json:"ready" yaml:"ready"`
	Running    int `json:"running" yaml:"running"`
	Waiting    int `json:"waiting" yaml:"waiting"`
	Terminated int `json:"terminated" yaml:"terminated"`
}

// SchedulerStatus describes the scheduler and its queues at one instant.
type SchedulerStatus struct {
	Running    bool     `json:"running" yaml:"running"`
	TimeSlice  int      `json:"time_slice" yaml:"time_slice"`
	ReadyQueue []string `json:"ready_queue" yaml:"ready_queue"`
	RunningID  string   `json:"running_id,omitempty" yaml:"running_id,omitempty"`
	Waiting    []string `json:"waiting" yaml:"waiting"`
	Terminated []string `json:"terminated" yaml:"terminated"`
}

// Snapshot is a consistent view of every process and the scheduler state,
// captured under a single critical section.
type Snapshot struct {
	Processes []Process       `json:"processes" yaml:"processes"`
	Counts    Counts          `json:"counts" yaml:"counts"`
	Scheduler SchedulerStatus `json:"scheduler" yaml:"scheduler"`
}
