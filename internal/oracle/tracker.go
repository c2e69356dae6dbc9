package oracle

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"bountyOracle/internal/model"
)

const (
	defaultConfirmTimeout = 2 * time.Minute
	defaultPollInterval   = 2 * time.Second
)

// TrackerConfig bounds how long a submission is watched.
type TrackerConfig struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// Tracker waits for receipts and classifies the result.
type Tracker struct {
	cfg    TrackerConfig
	ledger LedgerClient
	logger *zap.Logger
}

func NewTracker(cfg TrackerConfig, ledger LedgerClient, logger *zap.Logger) *Tracker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultConfirmTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{cfg: cfg, ledger: ledger, logger: logger}
}

// Await polls until the transaction is included or the timeout elapses. Run
// cancellation does not cut the wait short; the timeout always applies.
func (t *Tracker) Await(ctx context.Context, pending model.PendingSubmission) model.Outcome {
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.cfg.Timeout)
	defer cancel()

	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	hash := common.HexToHash(pending.TxHash)
	for {
		receipt, err := t.ledger.Receipt(waitCtx, hash)
		if err != nil && waitCtx.Err() == nil {
			t.logger.Warn("receipt fetch failed",
				zap.Error(err),
				zap.Uint64("bounty_id", pending.BountyID),
				zap.String("tx_hash", pending.TxHash),
			)
		}
		if receipt != nil {
			return classifyReceipt(pending, receipt)
		}

		select {
		case <-waitCtx.Done():
			return model.SubmissionFailed(pending.BountyID, pending.TxHash, model.ReasonConfirmationTimeout)
		case <-ticker.C:
		}
	}
}

func classifyReceipt(pending model.PendingSubmission, receipt *types.Receipt) model.Outcome {
	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return model.Confirmed(pending.BountyID, pending.TxHash, block)
	}
	return model.Reverted(pending.BountyID, pending.TxHash, block)
}
