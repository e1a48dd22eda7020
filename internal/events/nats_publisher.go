package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docpub/internal/config"
	"git.home.luguber.info/inful/docpub/internal/linkcheck"
	"git.home.luguber.info/inful/docpub/internal/logfields"
)

// NATSPublisher publishes build events to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to NATS using the events configuration.
func NewNATSPublisher(cfg *config.EventsConfig) (*NATSPublisher, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("events are disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("docpub"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS publisher initialized",
		logfields.URL(cfg.NATSURL),
		slog.String("subject", cfg.Subject))

	return &NATSPublisher{conn: conn, subject: cfg.Subject}, nil
}

func (p *NATSPublisher) BuildStarted(buildID string) error {
	data, err := marshalBuildEvent(TypeBuildStarted, buildID, "", 0, nil)
	if err != nil {
		return err
	}
	return p.publish(data)
}

func (p *NATSPublisher) BuildFinished(buildID, outcome string, duration time.Duration, buildErr error) error {
	data, err := marshalBuildEvent(TypeBuildFinished, buildID, outcome, duration, buildErr)
	if err != nil {
		return err
	}
	return p.publish(data)
}

func (p *NATSPublisher) BrokenLink(buildID string, link linkcheck.BrokenLink) error {
	data, err := json.Marshal(BrokenLinkEvent{
		Type:       TypeBrokenLink,
		BuildID:    buildID,
		Timestamp:  time.Now(),
		BrokenLink: link,
	})
	if err != nil {
		return err
	}
	return p.publish(data)
}

func (p *NATSPublisher) publish(data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close drains the connection so queued events are flushed.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		return p.conn.Drain()
	}
	return nil
}
