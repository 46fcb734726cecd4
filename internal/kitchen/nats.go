package kitchen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Config holds the NATS connection settings.
type Config struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NATSPublisher publishes JSON tickets on "<prefix>.<establishment>.tickets".
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// Compile-time check that NATSPublisher implements Publisher.
var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to NATS.
func NewNATSPublisher(cfg Config, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "cardapio"
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("cardapio-kitchen"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, prefix: cfg.SubjectPrefix, logger: logger}, nil
}

// Publish sends the ticket and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, ticket Ticket) error {
	msg, err := newTicketMsg(p.prefix, ticket)
	if err != nil {
		return err
	}

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish ticket: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush ticket: %w", err)
	}

	p.logger.DebugContext(ctx, "kitchen ticket published",
		"subject", msg.Subject,
		"ticket_id", ticket.ID,
	)
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

func newTicketMsg(prefix string, ticket Ticket) (*nats.Msg, error) {
	body, err := json.Marshal(ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket: %w", err)
	}

	msg := nats.NewMsg(Subject(prefix, ticket.EstablishmentID))
	msg.Data = body
	msg.Header.Set("Content-Type", "application/json")
	// JetStream de-duplicates on this header when the subject is captured by a stream.
	msg.Header.Set(nats.MsgIdHdr, ticket.ID.String())
	return msg, nil
}
