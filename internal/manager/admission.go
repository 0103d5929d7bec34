package manager

import "context"

// acquire reserves the single in-flight slot when the handle is gated.
// Waiters block until the slot frees or their context ends; there is no
// queue limit. Returns a release func to be deferred.
func (h *ModelHandle) acquire(ctx context.Context) (func(), error) {
	if h.gate == nil {
		return func() {}, nil
	}
	select {
	case h.gate <- struct{}{}:
		return func() { <-h.gate }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	}
}
