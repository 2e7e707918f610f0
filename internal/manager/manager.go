// Package manager owns the simulated processes and the scheduler that moves
// them between the ready queue, the running slot, the waiting set and the
// terminated collection.
//
// All structural mutations happen under a single mutex. The change hook is
// always invoked with that mutex released, so a hook may call back into the
// query methods. It still runs on the caller's goroutine (or the scheduling
// loop's) and must return quickly.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/me/procsim/pkg/model"
)

// Manager is the process registry and scheduler.
type Manager struct {
	config Config
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu         sync.Mutex
	rng        Rand
	processes  map[string]*model.Process
	order      []*model.Process // creation order
	ready      []*model.Process
	running    *model.Process
	waiting    []*model.Process
	terminated []*model.Process
	timeSlice  int

	onChange atomic.Pointer[func()]

	ctlMu     sync.Mutex // serializes StartScheduler/StopScheduler
	schedOn   atomic.Bool
	cancel    context.CancelFunc
	loopDone  chan struct{}
	iteration atomic.Uint64
}

// Option configures optional Manager dependencies.
type Option func(*Manager)

// WithRand replaces the random source used for burst draws and transitions.
func WithRand(r Rand) Option {
	return func(m *Manager) {
		m.rng = r
	}
}

// WithClock overrides the time source used for process timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDFunc overrides process id generation.
func WithIDFunc(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithOnChange registers the change hook at construction time.
func WithOnChange(fn func()) Option {
	return func(m *Manager) {
		m.OnChange(fn)
	}
}

// New creates a Manager. Zero-valued config fields fall back to DefaultConfig.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Manager {
	cfg = cfg.withDefaults()
	m := &Manager{
		config:    cfg,
		logger:    logger.With("component", "manager"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     newProcessID,
		processes: make(map[string]*model.Process),
		timeSlice: cfg.TimeSlice,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = newRand(cfg.Seed)
	}
	return m
}

// newProcessID returns a short unique id such as "proc_1a2b3c4d".
func newProcessID() string {
	return "proc_" + uuid.New().String()[:8]
}

// OnChange registers fn as the change hook, replacing any previous one.
// Passing nil removes the hook.
func (m *Manager) OnChange(fn func()) {
	if fn == nil {
		m.onChange.Store(nil)
		return
	}
	m.onChange.Store(&fn)
}

// notify invokes the change hook. Never call it with m.mu held.
func (m *Manager) notify() {
	if fn := m.onChange.Load(); fn != nil {
		(*fn)()
	}
}

// CreateProcess adds a Ready process with a burst time drawn uniformly from
// [MinBurst, MaxBurst]. It fails only for an unknown priority.
func (m *Manager) CreateProcess(name string, priority model.Priority) (string, bool) {
	if !priority.Valid() {
		return "", false
	}
	m.mu.Lock()
	p := m.createLocked(name, priority, m.drawBurst())
	m.mu.Unlock()

	m.logger.Info("process created", "process_id", p.ID, "name", p.Name, "priority", p.Priority, "burst", p.BurstTime)
	m.notify()
	return p.ID, true
}

// CreateProcessWithBurst adds a Ready process with an explicit burst time.
// Non-positive bursts and unknown priorities are rejected without mutation.
func (m *Manager) CreateProcessWithBurst(name string, priority model.Priority, burst int) (string, bool) {
	if !priority.Valid() || burst <= 0 {
		return "", false
	}
	m.mu.Lock()
	p := m.createLocked(name, priority, burst)
	m.mu.Unlock()

	m.logger.Info("process created", "process_id", p.ID, "name", p.Name, "priority", p.Priority, "burst", p.BurstTime)
	m.notify()
	return p.ID, true
}

// spawnNames are the application names SpawnRandom picks from.
var spawnNames = []string{
	"Chrome", "Firefox", "Word", "Excel", "Photoshop",
	"Notepad", "Calculator", "Explorer", "VSCode", "Spotify",
	"Discord", "Steam", "Skype", "Outlook", "OneDrive",
	"Teams", "Zoom", "Slack", "WhatsApp", "Telegram",
}

// SpawnRandom creates n processes named after a random application with a
// three-digit suffix, with random priorities and bursts drawn from
// [SpawnMinBurst, SpawnMaxBurst]. It fires a single notification and returns
// the new ids. Names may repeat; ids never do.
func (m *Manager) SpawnRandom(n int) []string {
	if n <= 0 {
		return nil
	}
	created := make([]string, 0, n)
	m.mu.Lock()
	for range n {
		name := fmt.Sprintf("%s-%d", spawnNames[m.rng.IntN(len(spawnNames))], 100+m.rng.IntN(900))
		prio := model.AllPriorities[m.rng.IntN(len(model.AllPriorities))]
		burst := m.config.SpawnMinBurst + m.rng.IntN(m.config.SpawnMaxBurst-m.config.SpawnMinBurst+1)
		p := m.createLocked(name, prio, burst)
		created = append(created, p.ID)
	}
	m.mu.Unlock()

	m.logger.Info("random processes created", "count", n)
	m.notify()
	return created
}

func (m *Manager) createLocked(name string, priority model.Priority, burst int) *model.Process {
	p := model.NewProcess(m.newID(), name, priority, burst, m.now())
	m.processes[p.ID] = p
	m.order = append(m.order, p)
	m.enqueueReady(p)
	return p
}

func (m *Manager) drawBurst() int {
	return m.config.MinBurst + m.rng.IntN(m.config.MaxBurst-m.config.MinBurst+1)
}

// SetTimeSlice changes the units granted per iteration. Non-positive values
// are rejected.
func (m *Manager) SetTimeSlice(n int) bool {
	if n <= 0 {
		return false
	}
	m.mu.Lock()
	m.timeSlice = n
	m.mu.Unlock()
	m.logger.Info("time slice updated", "time_slice", n)
	return true
}

// TimeSlice returns the current time slice.
func (m *Manager) TimeSlice() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeSlice
}

// GetAllProcesses returns snapshots of every process in creation order.
func (m *Manager) GetAllProcesses() []model.Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Process, len(m.order))
	for i, p := range m.order {
		out[i] = p.Snapshot()
	}
	return out
}

// GetProcess returns a snapshot of the process with the given id.
func (m *Manager) GetProcess(id string) (model.Process, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.processes[id]
	if !ok {
		return model.Process{}, false
	}
	return p.Snapshot(), true
}

// GetCounts returns the total and per-structure process counts.
func (m *Manager) GetCounts() model.Counts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countsLocked()
}

func (m *Manager) countsLocked() model.Counts {
	c := model.Counts{
		Total:      len(m.processes),
		Ready:      len(m.ready),
		Waiting:    len(m.waiting),
		Terminated: len(m.terminated),
	}
	if m.running != nil {
		c.Running = 1
	}
	return c
}

// Status returns the scheduler flag, time slice and queue membership by id.
func (m *Manager) Status() model.SchedulerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

func (m *Manager) statusLocked() model.SchedulerStatus {
	st := model.SchedulerStatus{
		Running:    m.schedOn.Load(),
		TimeSlice:  m.timeSlice,
		ReadyQueue: ids(m.ready),
		Waiting:    ids(m.waiting),
		Terminated: ids(m.terminated),
	}
	if m.running != nil {
		st.RunningID = m.running.ID
	}
	return st
}

// Snapshot captures processes, counts and scheduler status in one critical
// section so the three views always agree.
func (m *Manager) Snapshot() model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	procs := make([]model.Process, len(m.order))
	for i, p := range m.order {
		procs[i] = p.Snapshot()
	}
	return model.Snapshot{
		Processes: procs,
		Counts:    m.countsLocked(),
		Scheduler: m.statusLocked(),
	}
}
