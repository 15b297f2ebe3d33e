package frame

import "time"

// ManualHost is a Host whose frames are fired explicitly. The terminal preview
// advances it from Bubble Tea ticks and tests use it as a fake frame clock.
type ManualHost struct {
	reqs requests
}

// NewManualHost creates an idle ManualHost.
func NewManualHost() *ManualHost {
	return new(ManualHost)
}

// RequestFrame registers fn for the next Advance.
func (m *ManualHost) RequestFrame(fn func(timestamp time.Duration)) Handle {
	return m.reqs.add(fn)
}

// CancelFrame drops a pending request. Unknown handles are ignored.
func (m *ManualHost) CancelFrame(h Handle) {
	m.reqs.cancel(h)
}

// Advance runs one frame at timestamp and returns how many requests fired.
func (m *ManualHost) Advance(timestamp time.Duration) int {
	return m.reqs.fire(timestamp)
}

// Pending returns the number of outstanding requests.
func (m *ManualHost) Pending() int {
	return m.reqs.len()
}
