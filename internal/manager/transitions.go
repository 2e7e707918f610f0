package manager

import (
	"github.com/me/procsim/pkg/model"
)

// SetProcessState forces the process with the given id into target, moving it
// between the scheduling structures as needed. It returns false for an
// unknown id, an unknown target, or any attempt to move a terminated process
// out of Terminated; in those cases nothing is mutated.
func (m *Manager) SetProcessState(id string, target model.ProcessState) bool {
	ok, from := m.setProcessState(id, target)
	if !ok {
		m.logger.Debug("forced transition rejected", "process_id", id, "from", from, "to", target)
		return false
	}
	m.logger.Debug("forced transition", "process_id", id, "from", from, "to", target)
	m.notify()
	return true
}

// ForceState is SetProcessState with a descriptive error instead of a bool,
// for hosts that report the reason to an operator.
func (m *Manager) ForceState(id string, target model.ProcessState) error {
	if _, ok := m.GetProcess(id); !ok {
		return model.NewNotFoundError("process", id)
	}
	if !target.Valid() {
		return model.NewValidationError("unknown state", model.FieldError{Field: "state", Message: string(target) + " is not a process state"})
	}
	ok, from := m.setProcessState(id, target)
	if !ok {
		return &model.InvalidTransitionError{ID: id, From: from, To: target}
	}
	m.logger.Debug("forced transition", "process_id", id, "from", from, "to", target)
	m.notify()
	return nil
}

func (m *Manager) setProcessState(id string, target model.ProcessState) (bool, model.ProcessState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.processes[id]
	if !ok {
		return false, ""
	}
	from := p.State
	if !target.Valid() {
		return false, from
	}
	if from == model.ProcessStateTerminated && target != model.ProcessStateTerminated {
		return false, from
	}

	switch target {
	case model.ProcessStateRunning:
		m.forceRunning(p)
	case model.ProcessStateReady:
		m.forceReady(p)
	case model.ProcessStateWaiting:
		m.forceWaiting(p)
	case model.ProcessStateTerminated:
		m.forceTerminated(p)
	}
	return true, from
}

func (m *Manager) forceRunning(p *model.Process) {
	if m.running == p {
		return
	}
	if cur := m.running; cur != nil {
		m.running = nil
		m.settle(cur)
	}
	m.removeReady(p)
	if m.removeWaiting(p) || p.State == model.ProcessStateWaiting {
		p.Resume()
	}
	p.Start(m.now())
	m.running = p
}

func (m *Manager) forceReady(p *model.Process) {
	switch p.State {
	case model.ProcessStateWaiting:
		p.Resume()
		m.removeWaiting(p)
	case model.ProcessStateRunning:
		p.Preempt()
	}
	m.vacate(p)
	m.enqueueReady(p)
}

func (m *Manager) forceWaiting(p *model.Process) {
	switch p.State {
	case model.ProcessStateRunning:
		p.Wait(model.WaitReasonUserRequest)
		m.vacate(p)
	case model.ProcessStateReady:
		m.removeReady(p)
		p.Block(model.WaitReasonUserRequest)
	}
	m.addWaiting(p)
}

func (m *Manager) forceTerminated(p *model.Process) {
	p.Terminate(m.now())
	m.vacate(p)
	m.removeReady(p)
	m.removeWaiting(p)
	m.addTerminated(p)
}
