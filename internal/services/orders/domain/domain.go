// Package domain holds the order lookup types and ports
package domain

import "context"

// LatestInput asks for the customer's most recent eligible order.
type LatestInput struct {
	Email string `json:"email" validate:"required,email" example:"doc@clinic.example"`

	// UAT routes the lookup at the staging storefront. Derived from the
	// request's Referer by the transport layer, never client supplied
	UAT bool `json:"-"`
}

// Order is the campaign's view of one storefront order.
type Order struct {
	EntityID     int64
	IncrementID  string
	Status       string
	GrandTotal   float64
	CurrencyCode string
	CreatedAt    string

	CustomerID        int64
	CustomerEmail     string
	CustomerFirstname string
	CustomerLastname  string
}

// LatestResult is a found order plus its customer. TestMode marks synthetic
// sentinel orders so downstream claims label themselves accordingly.
type LatestResult struct {
	Order    Order
	TestMode bool
}

// ServicePort is the order lookup contract. Latest returns ErrNotFound when
// the customer has no order inside the eligibility window.
type ServicePort interface {
	Latest(ctx context.Context, in LatestInput) (*LatestResult, error)
}

// Source fetches the newest order for an email from the storefront, nil when
// there is none.
type Source interface {
	LatestOrder(ctx context.Context, email string) (*Order, error)
}
