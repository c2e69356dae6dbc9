package model

import "time"

// EventTypePRMerged is the only event type that releases a bounty payment.
const EventTypePRMerged = "PR_MERGED"

// Feed record keys.
const (
	FieldEventType    = "eventType"
	FieldBountyID     = "bountyId"
	FieldWinnerWallet = "winnerWallet"
	FieldPRLink       = "prLink"
)

// PayoutRequest is a validated PR_MERGED event ready for submission.
type PayoutRequest struct {
	Index        int
	BountyID     uint64
	WinnerWallet string
	PRLink       string
}

// PendingSubmission tracks one in-flight approveBounty transaction.
type PendingSubmission struct {
	BountyID    uint64
	TxHash      string
	Sender      string
	SubmittedAt time.Time
}
