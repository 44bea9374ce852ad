package hardware

import "sync"

// Mock implements Controller for testing. It records every intensity
// value it receives.
type Mock struct {
	// SetJawFunc overrides SetJaw when non-nil.
	SetJawFunc func(intensity int) error

	mu          sync.Mutex
	intensities []int
	closed      bool
}

// NewMock creates a mock controller.
func NewMock() *Mock {
	return &Mock{}
}

// SetJaw records the intensity.
func (m *Mock) SetJaw(intensity int) error {
	m.mu.Lock()
	m.intensities = append(m.intensities, intensity)
	m.mu.Unlock()

	if m.SetJawFunc != nil {
		return m.SetJawFunc(intensity)
	}
	return nil
}

// Intensities returns a copy of all recorded jaw commands.
func (m *Mock) Intensities() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.intensities))
	copy(out, m.intensities)
	return out
}

// Connected reports true until Close is called.
func (m *Mock) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Close marks the mock disconnected.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Verify Mock implements Controller at compile time.
var _ Controller = (*Mock)(nil)
