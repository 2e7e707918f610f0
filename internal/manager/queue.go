package manager

import (
	"slices"

	"github.com/me/procsim/pkg/model"
)

// The helpers below operate on the Manager's structures and must be called
// with m.mu held.

// enqueueReady appends p to the ready queue unless already present and
// re-sorts by priority rank. The sort is stable so arrival order breaks ties.
func (m *Manager) enqueueReady(procs ...*model.Process) {
	for _, p := range procs {
		if !slices.Contains(m.ready, p) {
			m.ready = append(m.ready, p)
		}
	}
	m.sortReady()
}

func (m *Manager) sortReady() {
	slices.SortStableFunc(m.ready, func(a, b *model.Process) int {
		return a.Rank() - b.Rank()
	})
}

// popReady removes and returns the head of the ready queue.
func (m *Manager) popReady() *model.Process {
	if len(m.ready) == 0 {
		return nil
	}
	head := m.ready[0]
	m.ready = slices.Delete(m.ready, 0, 1)
	return head
}

func (m *Manager) removeReady(p *model.Process) bool {
	return removeFrom(&m.ready, p)
}

func (m *Manager) addWaiting(p *model.Process) {
	if !slices.Contains(m.waiting, p) {
		m.waiting = append(m.waiting, p)
	}
}

func (m *Manager) removeWaiting(p *model.Process) bool {
	return removeFrom(&m.waiting, p)
}

func (m *Manager) addTerminated(p *model.Process) {
	if !slices.Contains(m.terminated, p) {
		m.terminated = append(m.terminated, p)
	}
}

// settle files a process that left the running slot, or failed to enter it,
// under the structure matching its state. A runner that already finished
// goes to terminated, never back to the ready queue.
func (m *Manager) settle(p *model.Process) {
	switch p.State {
	case model.ProcessStateTerminated:
		m.addTerminated(p)
	case model.ProcessStateWaiting:
		m.addWaiting(p)
	default:
		p.Preempt()
		m.enqueueReady(p)
	}
}

// vacate clears the running slot if p occupies it.
func (m *Manager) vacate(p *model.Process) bool {
	if m.running != p || p == nil {
		return false
	}
	m.running = nil
	return true
}

func removeFrom(list *[]*model.Process, p *model.Process) bool {
	i := slices.Index(*list, p)
	if i < 0 {
		return false
	}
	*list = slices.Delete(*list, i, i+1)
	return true
}

func ids(procs []*model.Process) []string {
	out := make([]string, len(procs))
	for i, p := range procs {
		out[i] = p.ID
	}
	return out
}
