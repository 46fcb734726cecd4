// Package domain provides the core menu, cart and coupon types for cardapio,
// together with the context helpers shared by every layer.
//
// Context helpers centralize request-scoped data access so establishment
// isolation is resolved in one place instead of being re-parsed per handler.
package domain

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// establishmentContextKey stores the establishment (tenant) in context.
	establishmentContextKey contextKey = iota

	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey
)

// Establishment represents the restaurant (tenant) a request is scoped to.
// This is a minimal struct for context storage.
type Establishment struct {
	ID   uuid.UUID
	Slug string
}

// --- Establishment Context Helpers ---

// NewContextWithEstablishment returns a new context with the establishment attached.
func NewContextWithEstablishment(ctx context.Context, est *Establishment) context.Context {
	return context.WithValue(ctx, establishmentContextKey, est)
}

// EstablishmentFromContext retrieves the establishment from context.
// Returns nil if no establishment is present.
func EstablishmentFromContext(ctx context.Context) *Establishment {
	est, _ := ctx.Value(establishmentContextKey).(*Establishment)
	return est
}

// EstablishmentIDFromContext retrieves the establishment ID from context.
// Returns uuid.Nil if no establishment is present.
func EstablishmentIDFromContext(ctx context.Context) uuid.UUID {
	if est := EstablishmentFromContext(ctx); est != nil {
		return est.ID
	}
	return uuid.Nil
}

// RequireEstablishmentID retrieves the establishment ID from context, returning
// ErrEstablishmentRequired when it is missing.
func RequireEstablishmentID(ctx context.Context) (uuid.UUID, error) {
	id := EstablishmentIDFromContext(ctx)
	if id == uuid.Nil {
		return uuid.Nil, ErrEstablishmentRequired
	}
	return id, nil
}

// --- Request ID Context Helpers ---

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}
