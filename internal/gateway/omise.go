// Package gateway adapts the Omise payment provider to the payment.Gateway
// interface. Real money movement happens on the provider's side; this adapter
// only forwards identifiers and reads settlement state.
package gateway

import (
	"context"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"

	"meditrip-api/internal/payment"
)

type OmiseGateway struct {
	client *omise.Client
}

func NewOmise(publicKey, secretKey string) (*OmiseGateway, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, err
	}
	return &OmiseGateway{client: c}, nil
}

func (g *OmiseGateway) RetrieveCharge(_ context.Context, ref string) (*payment.Charge, error) {
	ch := &omise.Charge{}
	if err := g.client.Do(ch, &operations.RetrieveCharge{ChargeID: ref}); err != nil {
		return nil, err
	}
	return &payment.Charge{
		Ref:      ch.ID,
		Paid:     ch.Paid,
		Amount:   ch.Amount,
		Currency: ch.Currency,
	}, nil
}

func (g *OmiseGateway) CreateSource(_ context.Context, req payment.SourceRequest) (*payment.Initiation, error) {
	src := &omise.Source{}
	op := &operations.CreateSource{
		Type:     req.DestinationHandle,
		Amount:   req.Amount,
		Currency: req.Currency,
	}
	if err := g.client.Do(src, op); err != nil {
		return nil, err
	}
	return &payment.Initiation{
		Ref:     src.ID,
		Channel: src.Type,
	}, nil
}
