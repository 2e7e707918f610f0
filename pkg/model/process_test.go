package model

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestProcess_StartSetsStartTimeOnce(t *testing.T) {
	p := NewProcess("p1", "first", PriorityHigh, 5, t0)
	if !p.Start(t0.Add(time.Second)) {
		t.Fatal("Start from READY failed")
	}
	if p.Start(t0.Add(2 * time.Second)) {
		t.Error("Start from RUNNING succeeded")
	}
	p.Preempt()
	if !p.Start(t0.Add(3 * time.Second)) {
		t.Fatal("second Start from READY failed")
	}
	if !p.StartedAt.Equal(t0.Add(time.Second)) {
		t.Errorf("StartedAt = %v, want first start", p.StartedAt)
	}
}

func TestProcess_Guards(t *testing.T) {
	tests := []struct {
		name string
		from ProcessState
		op   func(p *Process) bool
		want bool
	}{
		{"start from waiting", ProcessStateWaiting, func(p *Process) bool { return p.Start(t0) }, false},
		{"wait from ready", ProcessStateReady, func(p *Process) bool { return p.Wait("x") }, false},
		{"wait from running", ProcessStateRunning, func(p *Process) bool { return p.Wait("x") }, true},
		{"resume from ready", ProcessStateReady, func(p *Process) bool { return p.Resume() }, false},
		{"resume from waiting", ProcessStateWaiting, func(p *Process) bool { return p.Resume() }, true},
		{"preempt from ready", ProcessStateReady, func(p *Process) bool { return p.Preempt() }, false},
		{"block from running", ProcessStateRunning, func(p *Process) bool { return p.Block("x") }, false},
		{"block from ready", ProcessStateReady, func(p *Process) bool { return p.Block("x") }, true},
		{"terminate from waiting", ProcessStateWaiting, func(p *Process) bool { return p.Terminate(t0) }, true},
		{"terminate from terminated", ProcessStateTerminated, func(p *Process) bool { return p.Terminate(t0) }, false},
		{"start from terminated", ProcessStateTerminated, func(p *Process) bool { return p.Start(t0) }, false},
		{"resume from terminated", ProcessStateTerminated, func(p *Process) bool { return p.Resume() }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcess("p", "p", PriorityMedium, 3, t0)
			p.State = tt.from
			before := p.State
			got := tt.op(p)
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if !got && p.State != before {
				t.Errorf("failed transition changed state %s -> %s", before, p.State)
			}
		})
	}
}

func TestProcess_WaitResumeReason(t *testing.T) {
	p := NewProcess("p", "p", PriorityLow, 3, t0)
	p.Start(t0)
	p.Wait(WaitReasonIO)
	if p.WaitingReason != WaitReasonIO {
		t.Errorf("reason = %q", p.WaitingReason)
	}
	p.Resume()
	if p.WaitingReason != "" {
		t.Errorf("reason = %q after resume, want empty", p.WaitingReason)
	}
}

func TestProcess_AdvanceScenario(t *testing.T) {
	p := NewProcess("p1", "P1", PriorityHigh, 3, t0)
	p.Start(t0)

	for i, want := range []int{2, 1} {
		if got := p.Advance(1, t0); got != 1 {
			t.Errorf("advance %d consumed %d, want 1", i, got)
		}
		if p.RemainingTime != want || p.State != ProcessStateRunning {
			t.Errorf("after advance %d: remaining=%d state=%s", i, p.RemainingTime, p.State)
		}
	}
	end := t0.Add(time.Minute)
	if got := p.Advance(5, end); got != 1 {
		t.Errorf("final advance consumed %d, want 1", got)
	}
	if p.RemainingTime != 0 || p.State != ProcessStateTerminated {
		t.Errorf("remaining=%d state=%s, want 0/TERMINATED", p.RemainingTime, p.State)
	}
	if p.EndedAt == nil || !p.EndedAt.Equal(end) {
		t.Errorf("EndedAt = %v, want %v", p.EndedAt, end)
	}
	if got := p.Advance(1, end); got != 0 {
		t.Errorf("advance on terminated consumed %d", got)
	}
}

func TestProcess_AdvanceFullBurst(t *testing.T) {
	for burst := 1; burst <= 10; burst++ {
		p := NewProcess("p", "p", PriorityMedium, burst, t0)
		p.Start(t0)
		if got := p.Advance(burst, t0); got != burst {
			t.Errorf("burst %d: consumed %d", burst, got)
		}
		if p.State != ProcessStateTerminated || p.RemainingTime != 0 {
			t.Errorf("burst %d: state=%s remaining=%d", burst, p.State, p.RemainingTime)
		}
	}
}

func TestProcess_AdvanceNotRunning(t *testing.T) {
	p := NewProcess("p", "p", PriorityMedium, 4, t0)
	if got := p.Advance(2, t0); got != 0 || p.RemainingTime != 4 {
		t.Errorf("advance on READY consumed %d, remaining %d", got, p.RemainingTime)
	}
	p.Start(t0)
	if got := p.Advance(0, t0); got != 0 {
		t.Errorf("advance(0) consumed %d", got)
	}
}

func TestProcess_TerminateIdempotent(t *testing.T) {
	p := NewProcess("p", "p", PriorityMedium, 4, t0)
	if !p.Terminate(t0) {
		t.Fatal("first terminate failed")
	}
	for range 2 {
		if p.Terminate(t0.Add(time.Hour)) {
			t.Error("repeated terminate returned true")
		}
	}
	if !p.EndedAt.Equal(t0) {
		t.Errorf("EndedAt = %v, want %v", p.EndedAt, t0)
	}
}

func TestPriority(t *testing.T) {
	if PriorityHigh.Rank() >= PriorityMedium.Rank() || PriorityMedium.Rank() >= PriorityLow.Rank() {
		t.Error("ranks must be High < Medium < Low")
	}
	tests := []struct {
		in   string
		want Priority
		ok   bool
	}{
		{"high", PriorityHigh, true},
		{" LOW ", PriorityLow, true},
		{"", PriorityMedium, true},
		{"urgent", Priority("URGENT"), false},
	}
	for _, tt := range tests {
		got, ok := ParsePriority(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePriority(%q) = %s,%v want %s,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestProcessState(t *testing.T) {
	if st, ok := ParseProcessState("running"); !ok || st != ProcessStateRunning {
		t.Errorf("ParseProcessState(running) = %s,%v", st, ok)
	}
	if _, ok := ParseProcessState("sleeping"); ok {
		t.Error("ParseProcessState accepted unknown state")
	}
	if !ProcessStateTerminated.IsTerminal() || ProcessStateWaiting.IsTerminal() {
		t.Error("IsTerminal wrong")
	}
	if ProcessStateTerminated.CanTransitionTo(ProcessStateReady) {
		t.Error("terminated must have no outgoing transitions")
	}
	if !ProcessStateWaiting.CanTransitionTo(ProcessStateReady) {
		t.Error("waiting -> ready must be allowed")
	}
}

func TestListOptions_Page(t *testing.T) {
	procs := []Process{
		{ID: "a", State: ProcessStateReady},
		{ID: "b", State: ProcessStateWaiting},
		{ID: "c", State: ProcessStateReady},
	}
	page, pg := ListOptions{Limit: 1, State: ProcessStateReady}.Page(procs)
	if len(page) != 1 || page[0].ID != "a" {
		t.Errorf("page = %+v", page)
	}
	if pg.Total != 2 || !pg.HasMore {
		t.Errorf("pagination = %+v", pg)
	}
	page, pg = ListOptions{Limit: 10, Offset: 5}.Page(procs)
	if len(page) != 0 || pg.HasMore {
		t.Errorf("offset past end: %+v %+v", page, pg)
	}
}
