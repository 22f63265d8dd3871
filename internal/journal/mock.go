package journal

import (
	"sort"
	"sync"
	"time"
)

// MockService is a simple in-memory journal for testing
type MockService struct {
	mu        sync.RWMutex
	entries   []Entry
	retention time.Duration
	err       error
}

// NewMockService creates a new mock journal service
func NewMockService() *MockService {
	return &MockService{retention: 24 * time.Hour}
}

// FailWith makes every subsequent call return err
func (m *MockService) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockService) Record(entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, stamp(entry, time.Now(), m.retention))
	return nil
}

func (m *MockService) Recent(limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	now := time.Now()
	var live []Entry
	for _, e := range m.entries {
		if e.ExpiresAt.After(now) {
			live = append(live, e)
		}
	}
	// Newest first; stable keeps insertion order reversed for equal times
	for i, j := 0, len(live)-1; i < j; i, j = i+1, j-1 {
		live[i], live[j] = live[j], live[i]
	}
	sort.SliceStable(live, func(a, b int) bool {
		return live[a].CreatedAt.After(live[b].CreatedAt)
	})

	if limit >= 0 && len(live) > limit {
		live = live[:limit]
	}
	return live, nil
}

func (m *MockService) Clear() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return 0, m.err
	}
	n := int64(len(m.entries))
	m.entries = nil
	return n, nil
}

func (m *MockService) Cleanup() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return 0, m.err
	}

	now := time.Now()
	kept := m.entries[:0]
	var removed int64
	for _, e := range m.entries {
		if now.After(e.ExpiresAt) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return removed, nil
}

func (m *MockService) Stats() (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	now := time.Now()
	stats := &Stats{TotalEntries: int64(len(m.entries))}
	for _, e := range m.entries {
		if now.After(e.ExpiresAt) {
			stats.ExpiredEntries++
			continue
		}
		if e.Outcome != OutcomeSuccess {
			stats.Failures++
		}
	}
	stats.ValidEntries = stats.TotalEntries - stats.ExpiredEntries
	return stats, nil
}

func (m *MockService) Close() error {
	return nil
}
