// Package gateway holds the mobile-money boundary. Real provider
// integration is out of scope; the simulated adapter stands in for MTN
// MoMo / Orange Money style collect-and-transfer APIs.
package gateway

import (
	"context"
	"errors"
)

type CollectRequest struct {
	Amount     int64
	PayerPhone string
	Method     string
	Reference  string
}

type TransferRequest struct {
	Amount         int64
	RecipientPhone string
	Channel        string
	Reference      string
}

type Result struct {
	TransactionID string
}

// Gateway is the narrow surface the engine needs from a mobile-money
// provider: charge a payer, pay out a recipient.
type Gateway interface {
	Collect(ctx context.Context, req CollectRequest) (Result, error)
	Transfer(ctx context.Context, req TransferRequest) (Result, error)
}

var (
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrInvalidPhone  = errors.New("invalid_phone")
)
