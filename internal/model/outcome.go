package model

import "fmt"

// OutcomeKind classifies how processing of a single event ended.
type OutcomeKind string

const (
	OutcomeConfirmed        OutcomeKind = "confirmed"
	OutcomeReverted         OutcomeKind = "reverted"
	OutcomeSubmissionFailed OutcomeKind = "submission_failed"
	OutcomeSkippedMalformed OutcomeKind = "skipped_malformed"
	OutcomeAlreadyPaid      OutcomeKind = "already_paid"
)

// OutcomeKinds lists every kind in report order.
var OutcomeKinds = []OutcomeKind{
	OutcomeConfirmed,
	OutcomeReverted,
	OutcomeSubmissionFailed,
	OutcomeSkippedMalformed,
	OutcomeAlreadyPaid,
}

// Common skip and failure reasons.
const (
	ReasonUnrecognizedType    = "unrecognized type"
	ReasonMissingField        = "missing required field"
	ReasonInvalidBountyID     = "invalid bountyId"
	ReasonMalformedRecord     = "malformed record"
	ReasonConfirmationTimeout = "confirmation timeout"
	ReasonRunCancelled        = "run cancelled"
	ReasonLedgerUnavailable   = "paid ledger unavailable"
)

// Outcome is the terminal result for one feed record.
type Outcome struct {
	Kind        OutcomeKind
	BountyID    *uint64
	BlockNumber uint64
	TxHash      string
	Reason      string
}

func Confirmed(bountyID uint64, txHash string, block uint64) Outcome {
	return Outcome{Kind: OutcomeConfirmed, BountyID: &bountyID, TxHash: txHash, BlockNumber: block}
}

func Reverted(bountyID uint64, txHash string, block uint64) Outcome {
	return Outcome{Kind: OutcomeReverted, BountyID: &bountyID, TxHash: txHash, BlockNumber: block}
}

func SubmissionFailed(bountyID uint64, txHash, reason string) Outcome {
	return Outcome{Kind: OutcomeSubmissionFailed, BountyID: &bountyID, TxHash: txHash, Reason: reason}
}

func AlreadyPaid(bountyID uint64) Outcome {
	return Outcome{Kind: OutcomeAlreadyPaid, BountyID: &bountyID}
}

// SkippedMalformed builds a skip outcome; bountyID is nil when the record had none.
func SkippedMalformed(bountyID *uint64, reason string) Outcome {
	return Outcome{Kind: OutcomeSkippedMalformed, BountyID: bountyID, Reason: reason}
}

// Submitted reports whether an approveBounty transaction was accepted by the node.
func (o Outcome) Submitted() bool {
	return o.TxHash != ""
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeConfirmed:
		return fmt.Sprintf("Confirmed(%d)", o.BlockNumber)
	case OutcomeReverted:
		return "Reverted"
	case OutcomeSubmissionFailed:
		return fmt.Sprintf("SubmissionFailed(%s)", o.Reason)
	case OutcomeSkippedMalformed:
		return fmt.Sprintf("SkippedMalformed(%s)", o.Reason)
	case OutcomeAlreadyPaid:
		return "AlreadyPaid"
	default:
		return string(o.Kind)
	}
}
