package eventstream

import (
	"encoding/json"

	stan "github.com/nats-io/stan.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// StanEventStream publishes events to NATS Streaming. The subject is the
// configured prefix joined with the event topic, e.g. "spectra.job.queued".
type StanEventStream struct {
	connection    stan.Conn
	subjectPrefix string
}

func NewStanEventStream(connection stan.Conn, subjectPrefix string) *StanEventStream {
	return &StanEventStream{connection: connection, subjectPrefix: subjectPrefix}
}

func (s *StanEventStream) Publish(event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}
	subject := s.subjectPrefix + "." + event.Topic
	if err := s.connection.Publish(subject, data); err != nil {
		return errors.Wrapf(err, "failed to publish event %s to %s", event.Id, subject)
	}
	return nil
}

func (s *StanEventStream) Close() error {
	if err := s.connection.Close(); err != nil {
		log.WithError(err).Warn("failed to close stan connection")
		return err
	}
	return nil
}
