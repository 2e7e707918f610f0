package manager

import (
	"context"
	"time"

	"github.com/me/procsim/pkg/model"
)

// StartScheduler launches the scheduling loop in a background goroutine. The
// loop runs until StopScheduler is called or ctx is cancelled. Starting an
// already running scheduler is a no-op returning false.
func (m *Manager) StartScheduler(ctx context.Context) bool {
	m.ctlMu.Lock()
	defer m.ctlMu.Unlock()
	if m.schedOn.Load() {
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.loopDone = done
	m.schedOn.Store(true)

	go m.run(loopCtx, done)

	m.logger.Info("scheduler started", "interval", m.config.Interval, "time_slice", m.TimeSlice())
	m.notify()
	return true
}

// StopScheduler signals the loop to exit and waits up to Config.StopTimeout
// for it to finish its current iteration. Whatever occupies the running slot
// afterwards is demoted to Ready, or filed as terminated if it already
// finished. Stopping a stopped scheduler returns false.
func (m *Manager) StopScheduler() bool {
	m.ctlMu.Lock()
	defer m.ctlMu.Unlock()
	if !m.schedOn.Load() {
		return false
	}
	m.schedOn.Store(false)
	m.cancel()

	timer := time.NewTimer(m.config.StopTimeout)
	select {
	case <-m.loopDone:
		timer.Stop()
	case <-timer.C:
		m.logger.Warn("scheduler did not stop in time; abandoning loop", "timeout", m.config.StopTimeout)
	}
	m.cancel = nil
	m.loopDone = nil

	m.mu.Lock()
	if p := m.running; p != nil {
		m.running = nil
		m.settle(p)
	}
	m.mu.Unlock()

	m.logger.Info("scheduler stopped", "iterations", m.iteration.Load())
	m.notify()
	return true
}

// SchedulerRunning reports whether the scheduler has been started and not
// yet stopped.
func (m *Manager) SchedulerRunning() bool {
	return m.schedOn.Load()
}

// run is the body of the scheduling goroutine.
func (m *Manager) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("scheduler loop exiting", "reason", context.Cause(ctx))
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs a single scheduling iteration: waiting-set review, dispatch,
// execution of one time slice, then the post-execution disposition. The
// change hook fires after execution and again after the full iteration.
//
// Cancelling ctx only shortens the dwell; the iteration always completes.
func (m *Manager) Tick(ctx context.Context) {
	n := m.iteration.Add(1)
	executed := m.execute(n)
	m.notify()

	if executed != nil {
		if m.config.Dwell > 0 {
			m.dwell(ctx)
		}
		m.dispose(n, executed)
	}
	m.notify()
}

func (m *Manager) dwell(ctx context.Context) {
	timer := time.NewTimer(m.config.Dwell)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// execute performs the first three phases under the lock and returns the
// process that received a time slice, if any.
func (m *Manager) execute(iteration uint64) *model.Process {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Phase 1: waiting-set review.
	if resumed := m.reviewWaiting(); resumed > 0 {
		m.logger.Debug("waiting processes resumed", "iteration", iteration, "count", resumed)
	}

	// Phase 2: dispatch.
	for m.running == nil {
		next := m.popReady()
		if next == nil {
			break
		}
		if !next.Start(m.now()) {
			m.logger.Warn("skipping non-ready process in ready queue", "iteration", iteration, "process_id", next.ID, "state", next.State)
			m.settle(next)
			continue
		}
		m.running = next
		m.logger.Debug("process dispatched", "iteration", iteration, "process_id", next.ID, "priority", next.Priority)
	}

	// Phase 3: execute one time slice.
	p := m.running
	if p == nil {
		return nil
	}
	units := p.Advance(m.timeSlice, m.now())
	m.logger.Debug("process executed", "iteration", iteration, "process_id", p.ID, "units", units, "remaining", p.RemainingTime)
	return p
}

// reviewWaiting resumes each waiting process with ResumeProbability and
// moves the resumed ones to the ready queue, sorting once afterwards.
func (m *Manager) reviewWaiting() int {
	if len(m.waiting) == 0 {
		return 0
	}
	kept := m.waiting[:0]
	var resumed []*model.Process
	for _, p := range m.waiting {
		if m.rng.Float64() < m.config.ResumeProbability && p.Resume() {
			resumed = append(resumed, p)
			continue
		}
		kept = append(kept, p)
	}
	clear(m.waiting[len(kept):])
	m.waiting = kept
	if len(resumed) > 0 {
		m.ready = append(m.ready, resumed...)
		m.sortReady()
	}
	return len(resumed)
}

// dispose routes the executed process to terminated, waiting or ready. If an
// operator moved it out of the running slot during the dwell, the external
// decision stands and nothing happens here.
func (m *Manager) dispose(iteration uint64, p *model.Process) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running != p {
		m.logger.Debug("disposition skipped; running slot changed", "iteration", iteration, "process_id", p.ID)
		return
	}
	m.running = nil

	switch {
	case p.State == model.ProcessStateTerminated:
		m.addTerminated(p)
		m.logger.Debug("process terminated", "iteration", iteration, "process_id", p.ID)
	case m.rng.Float64() < m.config.IOProbability:
		p.Wait(model.WaitReasonIO)
		m.addWaiting(p)
		m.logger.Debug("process waiting", "iteration", iteration, "process_id", p.ID, "reason", model.WaitReasonIO)
	default:
		p.Preempt()
		m.enqueueReady(p)
		m.logger.Debug("process preempted", "iteration", iteration, "process_id", p.ID)
	}
}
