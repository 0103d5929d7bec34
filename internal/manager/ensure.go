package manager

import (
	"context"
	"fmt"
	"time"

	"sentimentd/internal/pipeline"
)

// GetModel returns the process-wide model handle, constructing it on the
// first call. Concurrent first callers share one construction. Construction
// is detached from the caller's cancellation: a caller whose context ends
// gets ctx.Err() while loading continues for everyone else. A construction
// failure is returned to every caller, now and later.
func (m *Manager) GetModel(ctx context.Context) (*ModelHandle, error) {
	m.startOnce.Do(func() {
		go m.load(context.WithoutCancel(ctx))
	})
	select {
	case <-m.loaded:
		return m.handle, m.loadErr
	default:
	}
	select {
	case <-m.loaded:
		return m.handle, m.loadErr
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Warmup forces construction and waits for it.
func (m *Manager) Warmup(ctx context.Context) error {
	_, err := m.GetModel(ctx)
	return err
}

func (m *Manager) load(ctx context.Context) {
	startTs := time.Now()
	m.loads.Add(1)
	m.setState(StateLoading, "", 0)
	m.log.Info().Str("model", m.modelID).Str("backend", m.backend).Msg("model load start")
	m.publisher.Publish(Event{Name: EventLoadStart, ModelID: m.modelID, Fields: map[string]any{"backend": m.backend}})

	p, err := m.construct(ctx)
	dur := time.Since(startTs)
	if err != nil {
		m.loadErr = initError{modelID: m.modelID, err: err}
		m.setState(StateError, err.Error(), dur)
		m.log.Error().Err(err).Str("model", m.modelID).Dur("dur", dur).Msg("model load failed")
		m.publisher.Publish(Event{Name: EventLoadError, ModelID: m.modelID, Fields: map[string]any{"error": err.Error()}})
		close(m.loaded)
		return
	}

	h := &ModelHandle{
		ModelID:  m.modelID,
		Backend:  m.backend,
		LoadedAt: timeNow(),
		pipeline: p,
	}
	if m.serialize || !pipeline.ConcurrentSafe(p) {
		h.gate = make(chan struct{}, 1)
	}
	m.handle = h
	m.setState(StateReady, "", dur)
	m.log.Info().Str("model", m.modelID).Dur("dur", dur).Bool("serialized", h.Serialized()).Msg("model ready")
	m.publisher.Publish(Event{Name: EventLoadReady, ModelID: m.modelID, Fields: map[string]any{"dur_ms": int(dur / time.Millisecond)}})
	close(m.loaded)
}

// construct calls the loader, converting a panic into an error.
func (m *Manager) construct(ctx context.Context) (p pipeline.Pipeline, err error) {
	defer func() {
		if v := recover(); v != nil {
			p, err = nil, fmt.Errorf("loader panic: %v", v)
		}
	}()
	p, err = m.loader.Load(ctx, m.modelID)
	if err == nil && p == nil {
		err = fmt.Errorf("loader returned no pipeline")
	}
	return p, err
}

func (m *Manager) setState(s State, errMsg string, dur time.Duration) {
	m.mu.Lock()
	m.state = s
	m.lastErr = errMsg
	if dur > 0 {
		m.loadDur = dur
	}
	m.mu.Unlock()
}
