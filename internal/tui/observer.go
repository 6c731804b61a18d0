package tui

// UpdateNotifier coalesces coordinator publishes into a wake-up channel for
// Bubble Tea. The channel holds at most one pending notification; the model
// pulls the latest snapshot itself, so collapsing bursts loses nothing.
type UpdateNotifier struct {
	ch chan struct{}
}

// NewUpdateNotifier creates a notifier
func NewUpdateNotifier() *UpdateNotifier {
	return &UpdateNotifier{ch: make(chan struct{}, 1)}
}

// Notify wakes the model (non-blocking)
func (n *UpdateNotifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until the next notification
func (n *UpdateNotifier) Wait() <-chan struct{} {
	return n.ch
}
