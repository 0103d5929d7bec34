package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// DefaultSubject is the subject request events are published on.
const DefaultSubject = "sentimentd.requests"

// RequestEvent is the payload published per inference request.
type RequestEvent struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	ModelID string    `json:"model"`
	Time    time.Time `json:"time"`
}

// publisher is the subset of *nats.Conn used here.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSRecorder publishes one RequestEvent per request. Publish is buffered by
// the NATS client; errors are logged and dropped.
type NATSRecorder struct {
	pub     publisher
	conn    *nats.Conn
	subject string
	log     zerolog.Logger
	now     func() time.Time
}

// ConnectNATS dials url and returns a recorder publishing on subject.
func ConnectNATS(url, subject string, log zerolog.Logger) (*NATSRecorder, error) {
	conn, err := nats.Connect(url,
		nats.Name("sentimentd"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	r := newNATSRecorder(conn, subject, log)
	r.conn = conn
	return r, nil
}

func newNATSRecorder(pub publisher, subject string, log zerolog.Logger) *NATSRecorder {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSRecorder{pub: pub, subject: subject, log: log, now: time.Now}
}

func (r *NATSRecorder) RecordRequest(modelID string) {
	ev := RequestEvent{
		ID:      ulid.Make().String(),
		Name:    "inference_request",
		ModelID: modelID,
		Time:    r.now().UTC(),
	}
	b, err := json.Marshal(ev)
	if err != nil {
		r.log.Warn().Err(err).Msg("telemetry encode failed")
		return
	}
	if err := r.pub.Publish(r.subject, b); err != nil {
		r.log.Warn().Err(err).Str("subject", r.subject).Msg("telemetry publish failed")
	}
}

// Close flushes pending events and closes the connection, if owned.
func (r *NATSRecorder) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Drain()
}
