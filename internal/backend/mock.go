package backend

import (
	"context"
	"sync"

	"ttlpanel/internal/config"
)

// gate blocks a procedure until released
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// MockService is an in-memory TTL backend for tests and the mock server
type MockService struct {
	mu         sync.Mutex
	ttl        int
	persistent *int
	calls      map[string]int
	args       map[string][]int
	rejects    map[string]bool
	faults     map[string]error
	silentAcks map[string]bool
	gates      map[string]*gate
}

// NewMockService creates a backend whose TTL starts at ttl
func NewMockService(ttl int) *MockService {
	return &MockService{
		ttl:        ttl,
		calls:      make(map[string]int),
		args:       make(map[string][]int),
		rejects:    make(map[string]bool),
		faults:     make(map[string]error),
		silentAcks: make(map[string]bool),
		gates:      make(map[string]*gate),
	}
}

// SetReject makes procedure return a falsy result (or -1 for reads)
func (m *MockService) SetReject(procedure string, reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejects[procedure] = reject
}

// SetFault makes procedure fail with err; nil clears the fault
func (m *MockService) SetFault(procedure string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.faults, procedure)
		return
	}
	m.faults[procedure] = err
}

// SetSilentAck makes procedure report success without applying the change
func (m *MockService) SetSilentAck(procedure string, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.silentAcks[procedure] = on
}

// Block holds calls to procedure until release is called. entered is
// closed once the first held call has arrived.
func (m *MockService) Block(procedure string) (entered <-chan struct{}, release func()) {
	g := &gate{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	m.mu.Lock()
	m.gates[procedure] = g
	m.mu.Unlock()

	return g.entered, func() {
		m.mu.Lock()
		if m.gates[procedure] == g {
			delete(m.gates, procedure)
		}
		m.mu.Unlock()
		close(g.release)
	}
}

// Calls returns how many times procedure was invoked
func (m *MockService) Calls(procedure string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[procedure]
}

// TotalCalls returns the number of calls across all procedures
func (m *MockService) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Args returns the integer arguments procedure was called with, in order
func (m *MockService) Args(procedure string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.args[procedure]...)
}

// TTL returns the backend's current TTL
func (m *MockService) TTL() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttl
}

// SetTTL changes the backend TTL behind the panel's back
func (m *MockService) SetTTL(ttl int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttl = ttl
}

// enter records the call and returns the configured outcome. It waits on a
// gate when one is installed for procedure.
func (m *MockService) enter(ctx context.Context, procedure string, args ...int) (reject, silent bool, err error) {
	m.mu.Lock()
	m.calls[procedure]++
	m.args[procedure] = append(m.args[procedure], args...)
	g := m.gates[procedure]
	m.mu.Unlock()

	if g != nil {
		g.once.Do(func() { close(g.entered) })
		select {
		case <-g.release:
		case <-ctx.Done():
			return false, false, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if fault := m.faults[procedure]; fault != nil {
		return false, false, fault
	}
	return m.rejects[procedure], m.silentAcks[procedure], nil
}

func (m *MockService) GetCurrentTTL(ctx context.Context) (int, error) {
	reject, _, err := m.enter(ctx, ProcGetCurrentTTL)
	if err != nil {
		return 0, err
	}
	if reject {
		return -1, nil
	}
	return m.TTL(), nil
}

func (m *MockService) SetTTLTo65(ctx context.Context) (bool, error) {
	return m.set(ctx, ProcSetTTLTo65, config.PresetTTL)
}

func (m *MockService) ResetTTLToDefault(ctx context.Context) (bool, error) {
	return m.set(ctx, ProcResetTTLToDefault, config.DefaultTTL)
}

func (m *MockService) SetTTLCustom(ctx context.Context, ttl int) (bool, error) {
	return m.set(ctx, ProcSetTTLCustom, ttl, ttl)
}

func (m *MockService) set(ctx context.Context, procedure string, ttl int, args ...int) (bool, error) {
	reject, silent, err := m.enter(ctx, procedure, args...)
	if err != nil || reject {
		return false, err
	}
	if !silent {
		m.SetTTL(ttl)
	}
	return true, nil
}

func (m *MockService) MakeTTLPersistent(ctx context.Context, ttl int) (bool, error) {
	reject, silent, err := m.enter(ctx, ProcMakeTTLPersistent, ttl)
	if err != nil || reject {
		return false, err
	}
	if silent {
		return true, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// The rule is rewritten for any value, the default included
	v := ttl
	m.persistent = &v
	return true, nil
}

func (m *MockService) GetPersistentTTL(ctx context.Context) (PersistenceStatus, error) {
	_, _, err := m.enter(ctx, ProcGetPersistentTTL)
	if err != nil {
		return PersistenceStatus{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.persistent == nil {
		return PersistenceStatus{}, nil
	}
	v := *m.persistent
	return PersistenceStatus{IsPersistent: true, TTLValue: &v}, nil
}
