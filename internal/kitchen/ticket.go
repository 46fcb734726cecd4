// Package kitchen sends order tickets to the establishment's kitchen.
package kitchen

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/cardapio/internal/domain"
)

// Ticket is what the kitchen needs to prepare an order. Prices are included
// for the cashier; cooks read Items.
type Ticket struct {
	ID              uuid.UUID       `json:"id"`
	EstablishmentID uuid.UUID       `json:"establishment_id"`
	CartID          string          `json:"cart_id"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	Mode            string          `json:"mode"`
	Items           []TicketItem    `json:"items"`
	Total           decimal.Decimal `json:"total"`
	PlacedAt        time.Time       `json:"placed_at"`
}

// TicketItem is one line of a ticket in kitchen wording.
type TicketItem struct {
	Quantity  int      `json:"quantity"`
	Product   string   `json:"product"`
	Variation string   `json:"variation"`
	Additives []string `json:"additives,omitempty"`

	// Flavors lists the companion flavors of a split, base product excluded.
	Flavors []string `json:"flavors,omitempty"`
	Note    string   `json:"note,omitempty"`
}

// TicketParams carries the checkout data a ticket is built from.
type TicketParams struct {
	// OrderID becomes the ticket id; a new id is generated when it is nil.
	OrderID         uuid.UUID
	EstablishmentID uuid.UUID
	CartID          string
	PaymentIntentID string
	Mode            string
	Items           []domain.LineItem
	Total           decimal.Decimal
	PlacedAt        time.Time
}

// NewTicket builds a ticket from checked-out line items.
func NewTicket(p TicketParams) Ticket {
	id := p.OrderID
	if id == uuid.Nil {
		id = uuid.New()
	}
	t := Ticket{
		ID:              id,
		EstablishmentID: p.EstablishmentID,
		CartID:          p.CartID,
		PaymentIntentID: p.PaymentIntentID,
		Mode:            p.Mode,
		Items:           make([]TicketItem, 0, len(p.Items)),
		Total:           p.Total,
		PlacedAt:        p.PlacedAt.UTC(),
	}

	for _, li := range p.Items {
		item := TicketItem{
			Quantity:  li.Quantity,
			Product:   li.ProductName,
			Variation: li.Variation.Name,
			Note:      li.Note,
		}
		for _, a := range li.Additives {
			if a.Quantity > 1 {
				item.Additives = append(item.Additives, fmt.Sprintf("%dx %s", a.Quantity, a.Name))
			} else {
				item.Additives = append(item.Additives, a.Name)
			}
		}
		for _, f := range li.Flavors {
			item.Flavors = append(item.Flavors, f.Name)
		}
		t.Items = append(t.Items, item)
	}
	return t
}
