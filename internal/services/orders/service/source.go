package service

import (
	"context"

	"masterbox/internal/adapters/commerce"
	"masterbox/internal/services/orders/domain"
)

// CommerceSource adapts the storefront client to domain.Source.
type CommerceSource struct {
	Client *commerce.Client
}

// LatestOrder implements domain.Source.
func (s CommerceSource) LatestOrder(ctx context.Context, email string) (*domain.Order, error) {
	o, err := s.Client.LatestOrder(ctx, email)
	if err != nil || o == nil {
		return nil, err
	}
	return &domain.Order{
		EntityID:          o.EntityID,
		IncrementID:       o.IncrementID,
		Status:            o.Status,
		GrandTotal:        o.GrandTotal,
		CurrencyCode:      o.CurrencyCode,
		CreatedAt:         o.CreatedAt,
		CustomerID:        o.CustomerID,
		CustomerEmail:     o.CustomerEmail,
		CustomerFirstname: o.CustomerFirstname,
		CustomerLastname:  o.CustomerLastname,
	}, nil
}
