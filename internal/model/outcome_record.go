package model

import "encoding/json"

// OutcomeRecord is the journal representation of one processed event.
type OutcomeRecord struct {
	RunID       string      `json:"run_id"`
	Index       int         `json:"index"`
	BountyID    *uint64     `json:"bounty_id,omitempty"`
	Outcome     OutcomeKind `json:"outcome"`
	BlockNumber uint64      `json:"block_number,omitempty"`
	TxHash      string      `json:"tx_hash,omitempty"`
	Reason      string      `json:"reason,omitempty"`
	// Raw holds the feed record for skipped events so they can be inspected later.
	Raw        json.RawMessage `json:"raw,omitempty"`
	RecordedAt string          `json:"recorded_at"`
}

// NewOutcomeRecord flattens an outcome for storage.
func NewOutcomeRecord(runID string, index int, outcome Outcome, recordedAt string) OutcomeRecord {
	return OutcomeRecord{
		RunID:       runID,
		Index:       index,
		BountyID:    outcome.BountyID,
		Outcome:     outcome.Kind,
		BlockNumber: outcome.BlockNumber,
		TxHash:      outcome.TxHash,
		Reason:      outcome.Reason,
		RecordedAt:  recordedAt,
	}
}
