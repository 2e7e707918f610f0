package manager

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/me/procsim/pkg/model"
)

// scriptedRand replays fixed values. When a script runs dry, Float64 returns
// 0.99 (no probabilistic transition fires with default probabilities) and
// IntN returns 0.
type scriptedRand struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

// testManager returns a Manager with a scripted random source, a fixed
// clock and sequential ids ("p1", "p2", ...).
func testManager(t *testing.T, rng *scriptedRand, opts ...Option) *Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if rng == nil {
		rng = &scriptedRand{}
	}
	var seq atomic.Int64
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.Interval = 5 * time.Millisecond
	cfg.Dwell = 0
	all := append([]Option{
		WithRand(rng),
		WithClock(func() time.Time { return base }),
		WithIDFunc(func() string { return fmt.Sprintf("p%d", seq.Add(1)) }),
	}, opts...)
	return New(cfg, logger, all...)
}

func mustCreate(t *testing.T, m *Manager, name string, prio model.Priority, burst int) string {
	t.Helper()
	id, ok := m.CreateProcessWithBurst(name, prio, burst)
	if !ok {
		t.Fatalf("CreateProcessWithBurst(%s, %s, %d) failed", name, prio, burst)
	}
	return id
}

// checkMembership asserts every process sits in exactly one structure and
// that its state matches that structure.
func checkMembership(t *testing.T, m *Manager) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]string)
	mark := func(where string, p *model.Process, want model.ProcessState) {
		if prev, dup := seen[p.ID]; dup {
			t.Errorf("process %s in both %s and %s", p.ID, prev, where)
		}
		seen[p.ID] = where
		if p.State != want {
			t.Errorf("process %s in %s has state %s, want %s", p.ID, where, p.State, want)
		}
		if p.RemainingTime < 0 || p.RemainingTime > p.BurstTime {
			t.Errorf("process %s remaining=%d outside [0,%d]", p.ID, p.RemainingTime, p.BurstTime)
		}
	}
	for _, p := range m.ready {
		mark("ready", p, model.ProcessStateReady)
	}
	if m.running != nil {
		mark("running", m.running, model.ProcessStateRunning)
	}
	for _, p := range m.waiting {
		mark("waiting", p, model.ProcessStateWaiting)
	}
	for _, p := range m.terminated {
		mark("terminated", p, model.ProcessStateTerminated)
	}
	if len(seen) != len(m.processes) {
		t.Errorf("%d processes placed, %d registered", len(seen), len(m.processes))
	}
	for i := 1; i < len(m.ready); i++ {
		if m.ready[i-1].Rank() > m.ready[i].Rank() {
			t.Errorf("ready queue unsorted at %d: %s(%d) before %s(%d)", i,
				m.ready[i-1].ID, m.ready[i-1].Rank(), m.ready[i].ID, m.ready[i].Rank())
		}
	}
}

func readyIDs(m *Manager) []string {
	return m.Status().ReadyQueue
}

func TestCreateProcess(t *testing.T) {
	m := testManager(t, nil)
	id := mustCreate(t, m, "editor", model.PriorityHigh, 4)

	p, ok := m.GetProcess(id)
	if !ok {
		t.Fatalf("GetProcess(%s) not found", id)
	}
	if p.State != model.ProcessStateReady {
		t.Errorf("state = %s, want READY", p.State)
	}
	if p.BurstTime != 4 || p.RemainingTime != 4 {
		t.Errorf("burst/remaining = %d/%d, want 4/4", p.BurstTime, p.RemainingTime)
	}
	if p.StartedAt != nil || p.EndedAt != nil {
		t.Error("new process should have no start or end time")
	}
	if got := readyIDs(m); !slices.Equal(got, []string{id}) {
		t.Errorf("ready queue = %v, want [%s]", got, id)
	}
	want := model.Counts{Total: 1, Ready: 1}
	if c := m.GetCounts(); c != want {
		t.Errorf("counts = %+v, want %+v", c, want)
	}
	checkMembership(t, m)
}

func TestCreateProcess_RandomBurst(t *testing.T) {
	rng := &scriptedRand{ints: []int{0, 9, 4}}
	m := testManager(t, rng)

	wants := []int{1, 10, 5}
	for i, want := range wants {
		id, ok := m.CreateProcess(fmt.Sprintf("p-%d", i), model.PriorityMedium)
		if !ok {
			t.Fatal("CreateProcess failed")
		}
		p, _ := m.GetProcess(id)
		if p.BurstTime != want {
			t.Errorf("burst[%d] = %d, want %d", i, p.BurstTime, want)
		}
	}
}

func TestCreateProcess_Rejected(t *testing.T) {
	m := testManager(t, nil)
	tests := []struct {
		name  string
		prio  model.Priority
		burst int
	}{
		{"zero burst", model.PriorityHigh, 0},
		{"negative burst", model.PriorityLow, -3},
		{"unknown priority", model.Priority("URGENT"), 5},
		{"empty priority", model.Priority(""), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if id, ok := m.CreateProcessWithBurst("x", tt.prio, tt.burst); ok {
				t.Errorf("expected rejection, got id %s", id)
			}
		})
	}
	if _, ok := m.CreateProcess("x", model.Priority("nope")); ok {
		t.Error("CreateProcess accepted unknown priority")
	}
	if c := m.GetCounts(); c.Total != 0 {
		t.Errorf("total = %d after rejected creates, want 0", c.Total)
	}
}

func TestReadyQueue_PriorityOrderStable(t *testing.T) {
	m := testManager(t, nil)
	a := mustCreate(t, m, "a", model.PriorityLow, 5)
	b := mustCreate(t, m, "b", model.PriorityHigh, 5)
	c := mustCreate(t, m, "c", model.PriorityMedium, 5)
	d := mustCreate(t, m, "d", model.PriorityHigh, 5)
	e := mustCreate(t, m, "e", model.PriorityLow, 5)

	want := []string{b, d, c, a, e}
	if got := readyIDs(m); !slices.Equal(got, want) {
		t.Errorf("ready queue = %v, want %v", got, want)
	}
	checkMembership(t, m)
}

func TestSpawnRandom(t *testing.T) {
	// Name index, suffix offset, priority index, burst offset per process.
	rng := &scriptedRand{ints: []int{8, 42, 2, 3, 19, 899, 0, 12}}
	m := testManager(t, rng)

	var notified int
	m.OnChange(func() { notified++ })

	created := m.SpawnRandom(2)
	if len(created) != 2 {
		t.Fatalf("created %d, want 2", len(created))
	}
	if notified != 1 {
		t.Errorf("notifications = %d, want 1", notified)
	}
	p1, _ := m.GetProcess(created[0])
	p2, _ := m.GetProcess(created[1])
	if p1.Name != "VSCode-142" || p1.Priority != model.PriorityLow || p1.BurstTime != 6 {
		t.Errorf("first = %+v", p1)
	}
	if p2.Name != "Telegram-999" || p2.Priority != model.PriorityHigh || p2.BurstTime != 15 {
		t.Errorf("second = %+v", p2)
	}
	if got := readyIDs(m); !slices.Equal(got, []string{created[1], created[0]}) {
		t.Errorf("ready queue = %v", got)
	}
	if m.SpawnRandom(0) != nil {
		t.Error("SpawnRandom(0) should create nothing")
	}
}

// TestSpawnRandom_BurstRange checks spawned bursts follow the spawn range
// rather than the range used by CreateProcess.
func TestSpawnRandom_BurstRange(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		offsets  []int
		want     []int
	}{
		{"defaults", 0, 0, []int{0, 12}, []int{3, 15}},
		{"custom", 20, 22, []int{0, 2}, []int{20, 22}},
		{"single value", 7, 7, []int{5, 9}, []int{7, 7}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ints []int
			for _, off := range tc.offsets {
				ints = append(ints, 0, 0, 0, off)
			}
			cfg := DefaultConfig()
			cfg.SpawnMinBurst, cfg.SpawnMaxBurst = tc.min, tc.max
			if tc.min == 0 {
				cfg = Config{}
			}
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			m := New(cfg, logger, WithRand(&scriptedRand{ints: ints}))

			for i, id := range m.SpawnRandom(len(tc.offsets)) {
				p, _ := m.GetProcess(id)
				if p.BurstTime != tc.want[i] {
					t.Errorf("process %d burst = %d, want %d", i, p.BurstTime, tc.want[i])
				}
				if p.Name != "Chrome-100" {
					t.Errorf("process %d name = %q, want Chrome-100", i, p.Name)
				}
			}
		})
	}
}

func TestSetTimeSlice(t *testing.T) {
	m := testManager(t, nil)
	for _, n := range []int{0, -5} {
		if m.SetTimeSlice(n) {
			t.Errorf("SetTimeSlice(%d) = true, want false", n)
		}
		if got := m.TimeSlice(); got != 1 {
			t.Errorf("time slice = %d after rejected %d, want 1", got, n)
		}
	}
	if !m.SetTimeSlice(3) {
		t.Fatal("SetTimeSlice(3) = false")
	}
	if got := m.TimeSlice(); got != 3 {
		t.Errorf("time slice = %d, want 3", got)
	}
}

func TestSetProcessState_UnknownID(t *testing.T) {
	m := testManager(t, nil)
	var notified int
	m.OnChange(func() { notified++ })
	if m.SetProcessState("missing", model.ProcessStateRunning) {
		t.Error("SetProcessState on unknown id returned true")
	}
	if notified != 0 {
		t.Errorf("notifications = %d, want 0", notified)
	}
}

func TestSetProcessState_RunningDirectFromQueue(t *testing.T) {
	m := testManager(t, nil)
	p1 := mustCreate(t, m, "P1", model.PriorityHigh, 5)
	p2 := mustCreate(t, m, "P2", model.PriorityLow, 5)

	if got := readyIDs(m); !slices.Equal(got, []string{p1, p2}) {
		t.Fatalf("ready queue = %v, want [%s %s]", got, p1, p2)
	}
	if !m.SetProcessState(p2, model.ProcessStateRunning) {
		t.Fatal("force P2 running failed")
	}

	st := m.Status()
	if st.RunningID != p2 {
		t.Errorf("running = %q, want %s", st.RunningID, p2)
	}
	if !slices.Equal(st.ReadyQueue, []string{p1}) {
		t.Errorf("ready queue = %v, want [%s]", st.ReadyQueue, p1)
	}
	got1, _ := m.GetProcess(p1)
	if got1.State != model.ProcessStateReady {
		t.Errorf("P1 state = %s, want READY", got1.State)
	}
	got2, _ := m.GetProcess(p2)
	if got2.StartedAt == nil {
		t.Error("P2 start time not set")
	}
	checkMembership(t, m)
}

func TestSetProcessState_RunningDemotesCurrent(t *testing.T) {
	m := testManager(t, nil)
	low := mustCreate(t, m, "low", model.PriorityLow, 5)
	high := mustCreate(t, m, "high", model.PriorityHigh, 5)
	med := mustCreate(t, m, "med", model.PriorityMedium, 5)

	m.SetProcessState(low, model.ProcessStateRunning)
	m.SetProcessState(high, model.ProcessStateRunning)

	st := m.Status()
	if st.RunningID != high {
		t.Errorf("running = %s, want %s", st.RunningID, high)
	}
	if !slices.Equal(st.ReadyQueue, []string{med, low}) {
		t.Errorf("ready queue = %v, want [%s %s]", st.ReadyQueue, med, low)
	}
	checkMembership(t, m)
}

func TestSetProcessState_RunningFromWaiting(t *testing.T) {
	m := testManager(t, nil)
	id := mustCreate(t, m, "io", model.PriorityMedium, 5)
	m.SetProcessState(id, model.ProcessStateWaiting)
	if !m.SetProcessState(id, model.ProcessStateRunning) {
		t.Fatal("force waiting->running failed")
	}
	p, _ := m.GetProcess(id)
	if p.State != model.ProcessStateRunning || p.WaitingReason != "" {
		t.Errorf("state=%s reason=%q, want RUNNING and empty reason", p.State, p.WaitingReason)
	}
	checkMembership(t, m)
}

func TestSetProcessState_Waiting(t *testing.T) {
	m := testManager(t, nil)
	ready := mustCreate(t, m, "ready", model.PriorityHigh, 5)
	running := mustCreate(t, m, "running", model.PriorityHigh, 5)
	m.SetProcessState(running, model.ProcessStateRunning)

	for _, id := range []string{ready, running} {
		if !m.SetProcessState(id, model.ProcessStateWaiting) {
			t.Fatalf("force %s waiting failed", id)
		}
		p, _ := m.GetProcess(id)
		if p.State != model.ProcessStateWaiting {
			t.Errorf("%s state = %s, want WAITING", id, p.State)
		}
		if p.WaitingReason != model.WaitReasonUserRequest {
			t.Errorf("%s reason = %q, want %q", id, p.WaitingReason, model.WaitReasonUserRequest)
		}
	}
	// Repeating is harmless.
	m.SetProcessState(ready, model.ProcessStateWaiting)

	st := m.Status()
	if st.RunningID != "" || len(st.ReadyQueue) != 0 {
		t.Errorf("status = %+v, want empty slot and queue", st)
	}
	if !slices.Equal(st.Waiting, []string{ready, running}) {
		t.Errorf("waiting = %v", st.Waiting)
	}
	checkMembership(t, m)
}

func TestSetProcessState_Ready(t *testing.T) {
	m := testManager(t, nil)
	a := mustCreate(t, m, "a", model.PriorityLow, 5)
	b := mustCreate(t, m, "b", model.PriorityHigh, 5)
	m.SetProcessState(a, model.ProcessStateRunning)
	m.SetProcessState(b, model.ProcessStateWaiting)

	m.SetProcessState(a, model.ProcessStateReady)
	m.SetProcessState(b, model.ProcessStateReady)

	st := m.Status()
	if st.RunningID != "" {
		t.Errorf("running slot = %q, want empty", st.RunningID)
	}
	if !slices.Equal(st.ReadyQueue, []string{b, a}) {
		t.Errorf("ready queue = %v, want [%s %s]", st.ReadyQueue, b, a)
	}
	pb, _ := m.GetProcess(b)
	if pb.WaitingReason != "" {
		t.Errorf("reason = %q after resume, want empty", pb.WaitingReason)
	}
	checkMembership(t, m)
}

func TestSetProcessState_TerminateIdempotent(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var clock atomic.Int64
	m := testManager(t, nil, WithClock(func() time.Time {
		return base.Add(time.Duration(clock.Add(1)) * time.Second)
	}))
	id := mustCreate(t, m, "victim", model.PriorityMedium, 5)
	m.SetProcessState(id, model.ProcessStateRunning)

	if !m.SetProcessState(id, model.ProcessStateTerminated) {
		t.Fatal("terminate failed")
	}
	first, _ := m.GetProcess(id)
	if first.EndedAt == nil {
		t.Fatal("end time not set")
	}
	if !m.SetProcessState(id, model.ProcessStateTerminated) {
		t.Error("repeated terminate should still report success")
	}
	second, _ := m.GetProcess(id)
	if !second.EndedAt.Equal(*first.EndedAt) {
		t.Errorf("end time changed: %v -> %v", first.EndedAt, second.EndedAt)
	}
	st := m.Status()
	if !slices.Equal(st.Terminated, []string{id}) {
		t.Errorf("terminated = %v, want [%s]", st.Terminated, id)
	}
	if st.RunningID != "" {
		t.Error("running slot not vacated")
	}
	checkMembership(t, m)
}

func TestSetProcessState_TerminatedIsFinal(t *testing.T) {
	m := testManager(t, nil)
	id := mustCreate(t, m, "done", model.PriorityHigh, 2)
	other := mustCreate(t, m, "other", model.PriorityLow, 2)
	m.SetProcessState(other, model.ProcessStateRunning)
	m.SetProcessState(id, model.ProcessStateTerminated)

	for _, target := range []model.ProcessState{model.ProcessStateRunning, model.ProcessStateReady, model.ProcessStateWaiting} {
		if m.SetProcessState(id, target) {
			t.Errorf("terminated -> %s accepted", target)
		}
	}
	if st := m.Status(); st.RunningID != other {
		t.Errorf("running = %q, want %s untouched", st.RunningID, other)
	}
	err := m.ForceState(id, model.ProcessStateRunning)
	if _, ok := err.(*model.InvalidTransitionError); !ok {
		t.Errorf("ForceState error = %v, want InvalidTransitionError", err)
	}
	checkMembership(t, m)
}

func TestForceState_Errors(t *testing.T) {
	m := testManager(t, nil)
	id := mustCreate(t, m, "x", model.PriorityHigh, 2)

	err := m.ForceState("nope", model.ProcessStateReady)
	if apiErr, ok := err.(*model.APIError); !ok || apiErr.Code != model.ErrNotFound {
		t.Errorf("unknown id error = %v, want NOT_FOUND", err)
	}
	err = m.ForceState(id, model.ProcessState("SLEEPING"))
	if apiErr, ok := err.(*model.APIError); !ok || apiErr.Code != model.ErrValidation {
		t.Errorf("bad state error = %v, want VALIDATION_ERROR", err)
	}
	if err := m.ForceState(id, model.ProcessStateWaiting); err != nil {
		t.Errorf("valid ForceState: %v", err)
	}
}

func TestNotifications(t *testing.T) {
	m := testManager(t, nil)
	var calls int
	// The hook may call query methods because it runs without the lock held.
	m.OnChange(func() {
		calls++
		_ = m.GetCounts()
		_ = m.Snapshot()
	})

	id := mustCreate(t, m, "n", model.PriorityHigh, 3)
	m.SetProcessState(id, model.ProcessStateWaiting)
	m.SetProcessState("ghost", model.ProcessStateReady)
	m.SetTimeSlice(0)

	if calls != 2 {
		t.Errorf("hook calls = %d, want 2", calls)
	}

	m.OnChange(nil)
	mustCreate(t, m, "quiet", model.PriorityLow, 1)
	if calls != 2 {
		t.Errorf("hook called after removal")
	}
}

func TestSnapshot_Consistent(t *testing.T) {
	m := testManager(t, nil)
	a := mustCreate(t, m, "a", model.PriorityHigh, 3)
	b := mustCreate(t, m, "b", model.PriorityLow, 3)
	m.SetProcessState(b, model.ProcessStateRunning)

	snap := m.Snapshot()
	if len(snap.Processes) != 2 || snap.Processes[0].ID != a || snap.Processes[1].ID != b {
		t.Errorf("processes not in creation order: %+v", snap.Processes)
	}
	if snap.Counts != (model.Counts{Total: 2, Ready: 1, Running: 1}) {
		t.Errorf("counts = %+v", snap.Counts)
	}
	if snap.Scheduler.RunningID != b || snap.Scheduler.Running {
		t.Errorf("scheduler = %+v", snap.Scheduler)
	}

	// Mutating a snapshot must not leak into the manager.
	snap.Processes[0].RemainingTime = 0
	*snap.Processes[1].StartedAt = time.Time{}
	p, _ := m.GetProcess(a)
	if p.RemainingTime != 3 {
		t.Error("snapshot shares state with manager")
	}
	pb, _ := m.GetProcess(b)
	if pb.StartedAt.IsZero() {
		t.Error("snapshot shares start time with manager")
	}
}
