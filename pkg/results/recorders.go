package results

import "sync"

// MultiRecorder hands every finding to each recorder in order and stops at
// the first error.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(f Finding) error {
	for _, r := range m {
		if err := r.Record(f); err != nil {
			return err
		}
	}
	return nil
}

// Memory keeps findings in memory.
type Memory struct {
	mu       sync.Mutex
	findings []Finding
}

func (m *Memory) Record(f Finding) error {
	m.mu.Lock()
	m.findings = append(m.findings, f)
	m.mu.Unlock()
	return nil
}

// Findings returns a copy of everything recorded so far.
func (m *Memory) Findings() []Finding {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Finding(nil), m.findings...)
}
