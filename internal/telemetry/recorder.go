// Package telemetry holds best-effort request telemetry sinks. Recorders must
// never block the request path or surface failures to it.
package telemetry

import "fmt"

// Recorder receives one call per served inference request.
type Recorder interface {
	RecordRequest(modelID string)
}

// Noop drops every record.
type Noop struct{}

func (Noop) RecordRequest(string) {}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(modelID string)

func (f RecorderFunc) RecordRequest(modelID string) { f(modelID) }

// Multi fans a record out to every non-nil recorder. A panic in one recorder
// is reported to onPanic (if set) and does not reach the others or the caller.
func Multi(onPanic func(error), recorders ...Recorder) Recorder {
	out := make(multi, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, Isolate(r, onPanic))
		}
	}
	if len(out) == 0 {
		return Noop{}
	}
	return out
}

type multi []Recorder

func (m multi) RecordRequest(modelID string) {
	for _, r := range m {
		r.RecordRequest(modelID)
	}
}

// Isolate wraps r so that a panic inside RecordRequest is recovered.
func Isolate(r Recorder, onPanic func(error)) Recorder {
	if r == nil {
		return Noop{}
	}
	if _, ok := r.(isolated); ok {
		return r
	}
	return isolated{next: r, onPanic: onPanic}
}

type isolated struct {
	next    Recorder
	onPanic func(error)
}

func (i isolated) RecordRequest(modelID string) {
	defer func() {
		if v := recover(); v != nil && i.onPanic != nil {
			i.onPanic(fmt.Errorf("telemetry recorder panic: %v", v))
		}
	}()
	i.next.RecordRequest(modelID)
}
