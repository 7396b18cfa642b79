package gateway

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Simulated accepts every request and hands back a generated transaction
// reference. Settlement then arrives through the webhook like it would
// from a real provider.
type Simulated struct {
	log *zap.Logger
}

func NewSimulated(log *zap.Logger) *Simulated {
	return &Simulated{log: log.Named("payment.gateway")}
}

func (g *Simulated) Collect(ctx context.Context, req CollectRequest) (Result, error) {
	if req.Amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	if strings.TrimSpace(req.PayerPhone) == "" {
		return Result{}, ErrInvalidPhone
	}

	txnID := newTxnID()
	g.log.Info("collect accepted",
		zap.String("txn_id", txnID),
		zap.Int64("amount", req.Amount),
		zap.String("method", req.Method),
		zap.String("reference", req.Reference),
	)
	return Result{TransactionID: txnID}, nil
}

func (g *Simulated) Transfer(ctx context.Context, req TransferRequest) (Result, error) {
	if req.Amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	if strings.TrimSpace(req.RecipientPhone) == "" {
		return Result{}, ErrInvalidPhone
	}

	txnID := newTxnID()
	g.log.Info("transfer accepted",
		zap.String("txn_id", txnID),
		zap.Int64("amount", req.Amount),
		zap.String("channel", req.Channel),
		zap.String("reference", req.Reference),
	)
	return Result{TransactionID: txnID}, nil
}

func newTxnID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}
