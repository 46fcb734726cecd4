package kitchen

import (
	"context"

	"github.com/google/uuid"
)

// Publisher delivers tickets to the kitchen.
type Publisher interface {
	Publish(ctx context.Context, ticket Ticket) error
	Close() error
}

// Subject returns the subject tickets of an establishment are published on.
func Subject(prefix string, establishmentID uuid.UUID) string {
	return prefix + "." + establishmentID.String() + ".tickets"
}

// NopPublisher drops tickets. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Ticket) error { return nil }
func (NopPublisher) Close() error                          { return nil }

// MockPublisher is a test implementation of Publisher.
type MockPublisher struct {
	PublishFunc func(ctx context.Context, ticket Ticket) error
	Published   []Ticket
}

// Publish records the ticket and delegates to PublishFunc when set.
func (m *MockPublisher) Publish(ctx context.Context, ticket Ticket) error {
	if m.PublishFunc != nil {
		if err := m.PublishFunc(ctx, ticket); err != nil {
			return err
		}
	}
	m.Published = append(m.Published, ticket)
	return nil
}

// Close does nothing.
func (m *MockPublisher) Close() error { return nil }
