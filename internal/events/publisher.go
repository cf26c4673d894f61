package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	streamName    = "DOMAIN_EVENTS"
	subjectPrefix = "domain"
)

// Publisher pushes domain lifecycle events to NATS JetStream so downstream
// services (brand dashboard, notification hub) can react to status changes.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// DomainEventMessage is the wire format for published lifecycle events
type DomainEventMessage struct {
	EventType      string `json:"event_type"`
	DomainID       string `json:"domain_id"`
	BrandID        string `json:"brand_id"`
	Hostname       string `json:"hostname"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	SSLStatus      string `json:"ssl_status,omitempty"`
	Message        string `json:"message,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

// NewPublisher connects to NATS and ensures the domain event stream exists
func NewPublisher(url string) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("brand-domain-service"),
		nats.Timeout(10 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream(nats.PublishAsyncMaxPending(256))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{conn: conn, js: js}
	if err := p.ensureStream(); err != nil {
		// The stream might be created by another service.
		log.Warn().Err(err).Msg("Failed to ensure domain event stream")
	}

	log.Info().Str("url", url).Msg("Connected to NATS")
	return p, nil
}

// Close drains and closes the NATS connection
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
		p.conn.Close()
	}
}

// Publish sends one lifecycle event. The subject is domain.<event_type>.
func (p *Publisher) Publish(msg *DomainEventMessage) error {
	if msg.OccurredAt == "" {
		msg.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", subjectPrefix, msg.EventType)
	if _, err := p.js.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

func (p *Publisher) ensureStream() error {
	_, err := p.js.StreamInfo(streamName)
	if err == nil {
		return nil
	}
	if err != nats.ErrStreamNotFound {
		return err
	}

	_, err = p.js.AddStream(&nats.StreamConfig{
		Name:        streamName,
		Description: "Custom domain lifecycle events",
		Subjects:    []string{subjectPrefix + ".>"},
		Storage:     nats.FileStorage,
		Retention:   nats.LimitsPolicy,
		MaxAge:      24 * time.Hour * 7,
		MaxMsgs:     100000,
		Discard:     nats.DiscardOld,
	})
	if err != nil {
		return err
	}
	log.Info().Str("stream", streamName).Msg("Created domain event stream")
	return nil
}
