package spektrum

import "time"

// DefaultTimeout is the default liveness timeout used by IsConnected.
const DefaultTimeout = 1000 * time.Millisecond

// Tracker tracks the connection status. Staleness is reported by
// IsConnected only, the status stays Receiving once frames arrived.
type Tracker struct {
	// Now is the clock, time.Now if nil.
	Now func() time.Time

	status    Status
	lastValid time.Time
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Status gets the current status.
func (t *Tracker) Status() Status {
	return t.status
}

// StartBinding enters Binding from NotConnected.
func (t *Tracker) StartBinding() bool {
	if t.status != NotConnected {
		return false
	}
	t.status = Binding
	return true
}

// EndBinding leaves Binding without a frame received.
func (t *Tracker) EndBinding() bool {
	if t.status != Binding {
		return false
	}
	t.status = NotConnected
	return true
}

// FrameReceived records a complete frame. Only valid frames change
// the status and refresh the liveness timestamp.
func (t *Tracker) FrameReceived(valid bool) {
	if !valid {
		return
	}
	t.status = Receiving
	t.lastValid = t.now()
}

// LastValid returns the arrival time of the last valid frame.
func (t *Tracker) LastValid() time.Time {
	return t.lastValid
}

// IsConnected reports if a valid frame arrived within timeout.
func (t *Tracker) IsConnected(timeout time.Duration) bool {
	if t.lastValid.IsZero() {
		return false
	}
	return t.now().Sub(t.lastValid) < timeout
}
