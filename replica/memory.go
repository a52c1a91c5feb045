package replica

import (
	"context"
	"sync"

	"github.com/chn0318/paxoslog/action"
)

// Memory is an in-process Writer backed by a map, generalized from the
// teacher's sharedlog/memorylog.MemoryLog: instead of indexing
// key/value DataRecords by a global sequence number, it indexes
// action.Action by Position, and tracks a separate "learned" high
// water mark so Beginning/Ending respect the learned-prefix invariant
// rather than just "has been written."
type Memory struct {
	mu sync.RWMutex

	pid string

	actions   map[uint64]action.Action
	beginning uint64 // first retained position
	ending    uint64 // last assigned position
	learned   uint64 // highest contiguously-learned position
}

// NewMemory creates an empty in-memory replica identified by pid.
func NewMemory(pid string) *Memory {
	return &Memory{
		pid:       pid,
		actions:   make(map[uint64]action.Action),
		beginning: 1,
	}
}

func (m *Memory) PID() string { return m.pid }

func (m *Memory) Beginning(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.beginning, nil
}

func (m *Memory) Ending(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.learned, nil
}

func (m *Memory) Read(ctx context.Context, from, to uint64) ([]action.Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if to < from {
		return nil, nil
	}
	out := make([]action.Action, 0, to-from+1)
	for p := from; p <= to; p++ {
		if p < m.beginning {
			out = append(out, action.Missing(p))
			continue
		}
		if a, ok := m.actions[p]; ok {
			out = append(out, a)
		} else {
			out = append(out, action.Missing(p))
		}
	}
	return out, nil
}

func (m *Memory) Append(ctx context.Context, bytes []byte) (action.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ending++
	a := action.Action{
		Position:    m.ending,
		Type:        action.Append,
		AppendBytes: bytes,
		Performed:   true,
	}
	m.actions[a.Position] = a
	return a, nil
}

func (m *Memory) Truncate(ctx context.Context, to uint64) (action.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ending++
	a := action.Action{
		Position:   m.ending,
		Type:       action.Truncate,
		TruncateTo: to,
		Performed:  true,
	}
	m.actions[a.Position] = a
	return a, nil
}

func (m *Memory) Learn(ctx context.Context, pos uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.actions[pos]
	if !ok || !a.Performed {
		return ErrNotPerformed
	}
	a.Learned = true
	m.actions[pos] = a
	m.advanceLearnedLocked()
	return nil
}

func (m *Memory) Install(ctx context.Context, a action.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.Performed = true
	a.Learned = true
	m.actions[a.Position] = a
	if a.Position > m.ending {
		m.ending = a.Position
	}
	m.advanceLearnedLocked()
	return nil
}

// advanceLearnedLocked recomputes the contiguous learned high water
// mark and, for any newly-contiguous Truncate action, advances
// beginning past it and drops every action at a position it left
// behind so Read reports them as holes instead of stale entries.
// Caller must hold mu.
func (m *Memory) advanceLearnedLocked() {
	for {
		next := m.learned + 1
		a, ok := m.actions[next]
		if !ok || !a.Learned {
			return
		}
		m.learned = next
		if a.Type == action.Truncate && a.TruncateTo+1 > m.beginning {
			m.beginning = a.TruncateTo + 1
			m.dropTruncatedLocked()
		}
	}
}

// dropTruncatedLocked deletes every stored action at a position below
// the current beginning, so a later Read treats it as a not-performed
// hole rather than returning a truncated-away value.
func (m *Memory) dropTruncatedLocked() {
	for p := range m.actions {
		if p < m.beginning {
			delete(m.actions, p)
		}
	}
}
