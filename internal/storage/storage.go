package storage

import (
	"context"
	"time"

	"bountyOracle/internal/model"
)

// PaidRecord is the durable proof that a bounty payout confirmed on chain.
type PaidRecord struct {
	BountyID     uint64    `json:"bounty_id"`
	TxHash       string    `json:"tx_hash"`
	BlockNumber  uint64    `json:"block_number"`
	WinnerWallet string    `json:"winner_wallet"`
	PaidAt       time.Time `json:"paid_at"`
}

// PaidLedger remembers which bounties were already paid across runs.
type PaidLedger interface {
	IsPaid(ctx context.Context, bountyID uint64) (bool, error)
	MarkPaid(ctx context.Context, record PaidRecord) error
	List(ctx context.Context) ([]PaidRecord, error)
}

// Journal is an append-only sink for per-event outcome records.
type Journal interface {
	PutOutcomeBatch(records []model.OutcomeRecord) error
}
