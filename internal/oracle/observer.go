package oracle

import (
	"time"

	"bountyOracle/internal/model"
)

// Observer receives per-event signals for metrics.
type Observer interface {
	ObserveOutcome(outcome model.Outcome)
	ObserveConfirmation(outcome model.Outcome, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveOutcome(model.Outcome)                     {}
func (nopObserver) ObserveConfirmation(model.Outcome, time.Duration) {}
