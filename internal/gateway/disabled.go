package gateway

import (
	"context"
	"errors"

	"meditrip-api/internal/payment"
)

var errNotConfigured = errors.New("payment gateway not configured")

// Disabled stands in when no provider credentials are configured. Every call
// fails as an upstream outage so the rest of the API keeps working.
type Disabled struct{}

func (Disabled) RetrieveCharge(context.Context, string) (*payment.Charge, error) {
	return nil, errNotConfigured
}

func (Disabled) CreateSource(context.Context, payment.SourceRequest) (*payment.Initiation, error) {
	return nil, errNotConfigured
}
