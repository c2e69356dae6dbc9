package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"bountyOracle/internal/model"
	"bountyOracle/internal/storage"
)

// EventSource yields the feed snapshot for one run.
type EventSource interface {
	Load(ctx context.Context) ([]model.RawEvent, error)
}

// RunResult is everything one oracle run produced.
type RunResult struct {
	RunID  string
	Sender common.Address
	// SenderErr is set when the owner lookup failed; mapped events then fail individually.
	SenderErr error
	Report    *Report
	// Fatal is a run-level error; no events were processed when it is set.
	Fatal error
}

// Runner ties sender resolution, the event source and the pipeline together.
type Runner struct {
	runID     string
	source    EventSource
	submitter *Submitter
	pipeline  *Pipeline
	journal   storage.Journal
	logger    *zap.Logger
}

func NewRunner(runID string, source EventSource, submitter *Submitter, pipeline *Pipeline, journal storage.Journal, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		runID:     runID,
		source:    source,
		submitter: submitter,
		pipeline:  pipeline,
		journal:   journal,
		logger:    logger,
	}
}

// FatalResult builds the result of a run that stopped before reading the feed.
func FatalResult(runID string, err error) RunResult {
	return RunResult{RunID: runID, Report: NewReport(0), Fatal: err}
}

// Run resolves the sender once, loads the feed and processes every event.
func (r *Runner) Run(ctx context.Context) RunResult {
	result := RunResult{RunID: r.runID, Report: NewReport(0)}

	sender, err := r.submitter.ResolveSender(ctx)
	if err != nil {
		r.logger.Error("sender resolution failed", zap.Error(err))
		result.SenderErr = err
	} else {
		result.Sender = sender
		r.logger.Info("sender resolved", zap.String("sender", sender.Hex()))
	}

	events, err := r.source.Load(ctx)
	if err != nil {
		r.logger.Error("feed load failed", zap.Error(err))
		result.Fatal = fmt.Errorf("load feed: %w", err)
		return result
	}
	r.logger.Info("feed loaded", zap.Int("events", len(events)))

	result.Report = r.pipeline.Process(ctx, events)

	if r.journal != nil {
		if err := r.journal.PutOutcomeBatch(r.journalRecords(events, result.Report)); err != nil {
			r.logger.Error("write journal failed", zap.Error(err))
		}
	}

	r.logger.Info("run complete", zap.String("summary", result.Report.Summary().String()))
	return result
}

func (r *Runner) journalRecords(events []model.RawEvent, report *Report) []model.OutcomeRecord {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	outcomes := report.Outcomes()
	records := make([]model.OutcomeRecord, 0, len(outcomes))
	for i, o := range outcomes {
		rec := model.NewOutcomeRecord(r.runID, i, o, now)
		if o.Kind == model.OutcomeSkippedMalformed && i < len(events) && events[i].Fields != nil {
			raw, err := json.Marshal(events[i])
			if err != nil {
				r.logger.Warn("encode skipped record failed", zap.Int("index", i), zap.Error(err))
			} else {
				rec.Raw = raw
			}
		}
		records = append(records, rec)
	}
	return records
}
