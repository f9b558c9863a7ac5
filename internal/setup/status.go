package setup

import (
	"context"
	"maps"
	"sync"

	"github.com/imamik/orchestrator/internal/resource"
)

// StatusTable is the readiness table shared by every kind of one run.
// Critical sections are a single read or write.
type StatusTable struct {
	mu       sync.Mutex
	status   map[resource.Type]bool
	recorded map[resource.Type]chan struct{}
	sealed   bool
}

// NewStatusTable returns an empty table.
func NewStatusTable() *StatusTable {
	return &StatusTable{
		status:   map[resource.Type]bool{},
		recorded: map[resource.Type]chan struct{}{},
	}
}

// Recorded returns a channel closed once kind has been recorded.
func (s *StatusTable) Recorded(kind resource.Type) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signal(kind)
}

// signal must be called with mu held.
func (s *StatusTable) signal(kind resource.Type) chan struct{} {
	ch, ok := s.recorded[kind]
	if !ok {
		ch = make(chan struct{})
		s.recorded[kind] = ch
	}
	return ch
}

// Get returns the recorded readiness of kind, false if never recorded.
func (s *StatusTable) Get(kind resource.Type) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status[kind]
}

// Lookup returns the recorded readiness and whether it was recorded at all.
func (s *StatusTable) Lookup(kind resource.Type) (ready, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ready, ok = s.status[kind]
	return ready, ok
}

// Update records the readiness of kind. It fails with *resource.LockError
// once the table is sealed.
func (s *StatusTable) Update(kind resource.Type, ready bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return &resource.LockError{Reason: "run completed, table is sealed"}
	}
	_, seen := s.status[kind]
	s.status[kind] = ready
	if !seen {
		close(s.signal(kind))
	}
	return nil
}

// Seal makes the table read-only.
func (s *StatusTable) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
}

// Snapshot returns a copy of every recorded kind.
func (s *StatusTable) Snapshot() map[resource.Type]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.status)
}

// Gate returns a Checker for polling a dependency. A dependency recorded
// as not ready ends polling at once, since each kind is recorded exactly
// once per run.
func (s *StatusTable) Gate(dependent resource.Type) resource.Checker[resource.Type] {
	return resource.CheckFunc[resource.Type](func(_ context.Context, kind resource.Type) (bool, error) {
		ready, ok := s.Lookup(kind)
		if ok && !ready {
			return false, &resource.DependencyNotReadyError{Kind: dependent, DependsOn: kind}
		}
		return ready, nil
	})
}
