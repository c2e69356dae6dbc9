package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"bountyOracle/internal/chain"
	"bountyOracle/internal/escrow"
	"bountyOracle/internal/model"
)

// ErrSenderUnresolved is returned when the authorized sender was never resolved.
var ErrSenderUnresolved = errors.New("sender unresolved")

// SubmissionError reports that an approveBounty call never reached the chain.
type SubmissionError struct {
	BountyID uint64
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit bounty %d: %v", e.BountyID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Reason is the short form used in outcomes.
func (e *SubmissionError) Reason() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// SubmitterConfig controls sender resolution.
type SubmitterConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
	// Signer is the locally keyed account, if any. Zero means the node signs.
	Signer common.Address
}

// Submitter turns payout requests into approveBounty transactions.
type Submitter struct {
	cfg    SubmitterConfig
	ledger LedgerClient
	logger *zap.Logger

	mu       sync.RWMutex
	sender   common.Address
	resolved bool

	// Nonces for one account are a strictly ordered resource.
	senderLocks *keyedMutex
}

func NewSubmitter(cfg SubmitterConfig, ledger LedgerClient, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		cfg:         cfg,
		ledger:      ledger,
		logger:      logger,
		senderLocks: newKeyedMutex(),
	}
}

// ResolveSender looks up the contract owner once and keeps it for the rest of the run.
func (s *Submitter) ResolveSender(ctx context.Context) (common.Address, error) {
	if sender, ok := s.Sender(); ok {
		return sender, nil
	}

	var owner common.Address
	backoff := chain.Backoff{Retries: s.cfg.MaxRetries, Base: s.cfg.RetryBackoff}
	err := backoff.Do(ctx, func(ctx context.Context) error {
		out, err := s.ledger.Call(ctx, escrow.MethodOwner)
		if err != nil {
			s.logger.Warn("owner lookup failed", zap.Error(err))
			return err
		}
		if len(out) == 0 {
			return chain.Permanent(fmt.Errorf("owner returned no value"))
		}
		addr, ok := out[0].(common.Address)
		if !ok {
			return chain.Permanent(fmt.Errorf("owner returned %T, want address", out[0]))
		}
		owner = addr
		return nil
	})
	if err != nil {
		return common.Address{}, fmt.Errorf("resolve owner: %w", err)
	}

	if s.cfg.Signer != (common.Address{}) && s.cfg.Signer != owner {
		s.logger.Warn("signing key is not the escrow owner, approvals will be refused",
			zap.String("owner", owner.Hex()),
			zap.String("signer", s.cfg.Signer.Hex()),
		)
	}

	s.SetSender(owner)
	return owner, nil
}

// SetSender pins the sender without a contract lookup.
func (s *Submitter) SetSender(sender common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = sender
	s.resolved = true
}

func (s *Submitter) Sender() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sender, s.resolved
}

// Submit sends exactly one approveBounty call. Failures are not retried.
func (s *Submitter) Submit(ctx context.Context, req model.PayoutRequest) (model.PendingSubmission, error) {
	sender, ok := s.Sender()
	if !ok {
		return model.PendingSubmission{}, &SubmissionError{BountyID: req.BountyID, Err: ErrSenderUnresolved}
	}

	unlock := s.senderLocks.Lock(sender.Hex())
	defer unlock()

	if err := ctx.Err(); err != nil {
		return model.PendingSubmission{}, &SubmissionError{BountyID: req.BountyID, Err: err}
	}

	hash, err := s.ledger.Submit(ctx, sender, escrow.MethodApproveBounty, new(big.Int).SetUint64(req.BountyID))
	if err != nil {
		return model.PendingSubmission{}, &SubmissionError{BountyID: req.BountyID, Err: err}
	}

	s.logger.Info("payout submitted",
		zap.Uint64("bounty_id", req.BountyID),
		zap.String("winner_wallet", req.WinnerWallet),
		zap.String("pr_link", req.PRLink),
		zap.String("tx_hash", hash.Hex()),
	)

	return model.PendingSubmission{
		BountyID:    req.BountyID,
		TxHash:      hash.Hex(),
		Sender:      sender.Hex(),
		SubmittedAt: time.Now().UTC(),
	}, nil
}
