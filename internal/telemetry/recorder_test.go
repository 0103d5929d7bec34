package telemetry

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulti_IsolatesPanics(t *testing.T) {
	var got []string
	var panics []error
	r := Multi(func(err error) { panics = append(panics, err) },
		RecorderFunc(func(string) { panic("boom") }),
		nil,
		RecorderFunc(func(m string) { got = append(got, m) }),
	)
	assert.NotPanics(t, func() { r.RecordRequest("m1") })
	assert.Equal(t, []string{"m1"}, got)
	require.Len(t, panics, 1)
	assert.Contains(t, panics[0].Error(), "boom")
}

func TestMulti_EmptyIsNoop(t *testing.T) {
	assert.Equal(t, Noop{}, Multi(nil))
	assert.Equal(t, Noop{}, Multi(nil, nil, nil))
}

func TestIsolate_NilOnPanic(t *testing.T) {
	r := Isolate(RecorderFunc(func(string) { panic("x") }), nil)
	assert.NotPanics(t, func() { r.RecordRequest("m") })
	_, ok := Isolate(r, nil).(isolated)
	assert.True(t, ok)
}

func TestPrometheusRecorder_CountsPerModel(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)
	p.RecordRequest("a")
	p.RecordRequest("a")
	p.RecordRequest("b")
	assert.Equal(t, 2.0, testutil.ToFloat64(p.requests.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.requests.WithLabelValues("b")))

	again, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)
	again.RecordRequest("a")
	assert.Equal(t, 3.0, testutil.ToFloat64(p.requests.WithLabelValues("a")))
}

type fakePublisher struct {
	mu   sync.Mutex
	subj []string
	data [][]byte
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subj = append(f.subj, subject)
	f.data = append(f.data, data)
	return f.err
}

func TestNATSRecorder_PublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	r := newNATSRecorder(pub, "", zerolog.Nop())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	r.RecordRequest("distilbert")
	require.Len(t, pub.data, 1)
	assert.Equal(t, DefaultSubject, pub.subj[0])
	var ev RequestEvent
	require.NoError(t, json.Unmarshal(pub.data[0], &ev))
	assert.Equal(t, "distilbert", ev.ModelID)
	assert.Equal(t, "inference_request", ev.Name)
	assert.True(t, fixed.Equal(ev.Time))
	assert.Len(t, ev.ID, 26)
}

func TestNATSRecorder_PublishErrorSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	r := newNATSRecorder(pub, "custom.subject", zerolog.Nop())
	assert.NotPanics(t, func() { r.RecordRequest("m") })
	assert.Equal(t, []string{"custom.subject"}, pub.subj)
	assert.NoError(t, r.Close())
}
