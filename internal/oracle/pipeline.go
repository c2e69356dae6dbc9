package oracle

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bountyOracle/internal/model"
	"bountyOracle/internal/storage"
)

const defaultWorkers = 4

// PipelineConfig holds runtime settings for event processing.
type PipelineConfig struct {
	// Workers bounds how many bounties are in flight at once; 1 processes the feed sequentially.
	Workers int
}

// Pipeline drives feed records through mapping, submission and confirmation.
type Pipeline struct {
	cfg         PipelineConfig
	submitter   *Submitter
	tracker     *Tracker
	paid        *runLedger
	observer    Observer
	logger      *zap.Logger
	bountyLocks *keyedMutex
}

// NewPipeline builds a Pipeline. A nil paid ledger keeps dedup state for this run only.
func NewPipeline(cfg PipelineConfig, submitter *Submitter, tracker *Tracker, paid storage.PaidLedger, observer Observer, logger *zap.Logger) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:         cfg,
		submitter:   submitter,
		tracker:     tracker,
		paid:        newRunLedger(paid),
		observer:    observer,
		logger:      logger,
		bountyLocks: newKeyedMutex(),
	}
}

// Process returns a report with exactly one outcome per event. Cancelling ctx stops
// new submissions; confirmations already in flight finish or time out.
func (p *Pipeline) Process(ctx context.Context, events []model.RawEvent) *Report {
	report := NewReport(len(events))

	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)

	for i, ev := range events {
		req, skipped := MapEvent(ev)
		if skipped != nil {
			p.logSkip(ev, *skipped)
			p.record(report, i, *skipped)
			continue
		}

		if ctx.Err() != nil {
			p.record(report, i, model.SubmissionFailed(req.BountyID, "", model.ReasonRunCancelled))
			continue
		}

		i, req := i, req
		g.Go(func() error {
			p.record(report, i, p.handle(ctx, req))
			return nil
		})
	}

	_ = g.Wait()
	return report
}

func (p *Pipeline) handle(ctx context.Context, req model.PayoutRequest) model.Outcome {
	unlock := p.bountyLocks.Lock(strconv.FormatUint(req.BountyID, 10))
	defer unlock()

	if ctx.Err() != nil {
		return model.SubmissionFailed(req.BountyID, "", model.ReasonRunCancelled)
	}

	paid, err := p.paid.IsPaid(ctx, req.BountyID)
	if err != nil {
		p.logger.Error("paid ledger lookup failed", zap.Error(err), zap.Uint64("bounty_id", req.BountyID))
		return model.SubmissionFailed(req.BountyID, "", model.ReasonLedgerUnavailable)
	}
	if paid {
		p.logger.Info("bounty already paid", zap.Uint64("bounty_id", req.BountyID))
		return model.AlreadyPaid(req.BountyID)
	}

	pending, err := p.submitter.Submit(ctx, req)
	if err != nil {
		reason := err.Error()
		var subErr *SubmissionError
		if errors.As(err, &subErr) {
			reason = subErr.Reason()
			if errors.Is(subErr.Err, context.Canceled) {
				reason = model.ReasonRunCancelled
			}
		}
		p.logger.Warn("payout submission failed", zap.Error(err), zap.Uint64("bounty_id", req.BountyID))
		return model.SubmissionFailed(req.BountyID, "", reason)
	}

	started := time.Now()
	outcome := p.tracker.Await(ctx, pending)
	p.observer.ObserveConfirmation(outcome, time.Since(started))

	switch outcome.Kind {
	case model.OutcomeConfirmed:
		p.logger.Info("payout confirmed",
			zap.Uint64("bounty_id", req.BountyID),
			zap.Uint64("block_number", outcome.BlockNumber),
			zap.String("tx_hash", outcome.TxHash),
		)
		record := storage.PaidRecord{
			BountyID:     req.BountyID,
			TxHash:       outcome.TxHash,
			BlockNumber:  outcome.BlockNumber,
			WinnerWallet: req.WinnerWallet,
			PaidAt:       time.Now().UTC(),
		}
		if err := p.paid.MarkPaid(context.WithoutCancel(ctx), record); err != nil {
			p.logger.Error("record paid bounty failed", zap.Error(err), zap.Uint64("bounty_id", req.BountyID))
		}
	case model.OutcomeReverted:
		p.logger.Warn("payout reverted",
			zap.Uint64("bounty_id", req.BountyID),
			zap.Uint64("block_number", outcome.BlockNumber),
			zap.String("tx_hash", outcome.TxHash),
		)
	default:
		p.logger.Warn("payout not confirmed",
			zap.Uint64("bounty_id", req.BountyID),
			zap.String("reason", outcome.Reason),
			zap.String("tx_hash", outcome.TxHash),
		)
	}
	return outcome
}

func (p *Pipeline) record(report *Report, index int, outcome model.Outcome) {
	report.Record(index, outcome)
	p.observer.ObserveOutcome(outcome)
}

func (p *Pipeline) logSkip(ev model.RawEvent, outcome model.Outcome) {
	fields := []zap.Field{zap.Int("index", ev.Index), zap.String("reason", outcome.Reason)}
	if outcome.Reason == model.ReasonUnrecognizedType {
		eventType, _ := ev.StringField(model.FieldEventType)
		p.logger.Info("skip event", append(fields, zap.String("event_type", eventType))...)
		return
	}
	if ev.Err != nil {
		fields = append(fields, zap.Error(ev.Err))
	}
	p.logger.Warn("skip malformed event", fields...)
}

// runLedger layers an in-memory set over the durable ledger so a bounty confirmed in
// this run is never resubmitted, even if the durable write failed.
type runLedger struct {
	local   *storage.MemoryLedger
	durable storage.PaidLedger
}

func newRunLedger(durable storage.PaidLedger) *runLedger {
	return &runLedger{local: storage.NewMemoryLedger(), durable: durable}
}

func (l *runLedger) IsPaid(ctx context.Context, bountyID uint64) (bool, error) {
	if paid, _ := l.local.IsPaid(ctx, bountyID); paid {
		return true, nil
	}
	if l.durable == nil {
		return false, nil
	}
	return l.durable.IsPaid(ctx, bountyID)
}

func (l *runLedger) MarkPaid(ctx context.Context, record storage.PaidRecord) error {
	_ = l.local.MarkPaid(ctx, record)
	if l.durable == nil {
		return nil
	}
	return l.durable.MarkPaid(ctx, record)
}
