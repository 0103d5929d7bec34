package manager

import (
	"time"

	"sentimentd/pkg/types"
)

// Ready reports whether the model handle has been constructed successfully.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateReady
}

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{State: m.state, ModelID: m.modelID, Err: m.lastErr}
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	resp := types.StatusResponse{
		State:     string(m.state),
		ModelID:   m.modelID,
		Backend:   m.backend,
		LastError: m.lastErr,
		LoadMS:    int64(m.loadDur / time.Millisecond),
	}
	m.mu.RUnlock()

	select {
	case <-m.loaded:
		if m.handle != nil {
			resp.Serialized = m.handle.Serialized()
		}
	default:
	}
	now := timeNow()
	resp.LoadsTotal = m.loads.Load()
	resp.RequestsTotal = m.requests.Load()
	resp.UptimeSeconds = int64(now.Sub(m.startTime) / time.Second)
	resp.ServerTimeUnix = now.Unix()
	return resp
}
