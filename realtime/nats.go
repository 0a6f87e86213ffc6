package realtime

import (
	"encoding/json"
	"errors"
	"time"

	"taikoweb/models"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var errEmptySubject = errors.New("empty subject")

// publisher is the part of *nats.Conn the bus needs
type publisher interface {
	Publish(subject string, data []byte) error
}

// NatsPublisher announces committed songs on a NATS subject
type NatsPublisher struct {
	conn    publisher
	close   func()
	subject string
	log     *zap.Logger
}

// NewNatsPublisher dials url and keeps reconnecting in the background
func NewNatsPublisher(url, subject string, log *zap.Logger) (*NatsPublisher, error) {
	if subject == "" {
		return nil, errEmptySubject
	}
	opts := []nats.Option{
		nats.Name("taikoweb"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("disconnected from NATS", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{conn: nc, close: nc.Close, subject: subject, log: log}, nil
}

func newPublisher(conn publisher, subject string, log *zap.Logger) *NatsPublisher {
	return &NatsPublisher{conn: conn, close: func() {}, subject: subject, log: log}
}

// SongIngested publishes the event. Failures are logged, the song is already committed.
func (p *NatsPublisher) SongIngested(song models.Song) {
	data, err := json.Marshal(SongEvent{Type: EventSongIngested, Song: song})
	if err != nil {
		p.log.Error("failed to encode song event", zap.String("id", song.ID), zap.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		p.log.Warn("failed to publish song event", zap.String("id", song.ID), zap.String("subject", p.subject), zap.Error(err))
	}
}

// Close shuts down the connection
func (p *NatsPublisher) Close() {
	if p != nil && p.close != nil {
		p.close()
	}
}
