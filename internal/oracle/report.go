package oracle

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"bountyOracle/internal/model"
)

// Report holds one outcome per feed record, in feed order.
type Report struct {
	mu       sync.Mutex
	outcomes []model.Outcome
	filled   []bool
}

func NewReport(size int) *Report {
	return &Report{
		outcomes: make([]model.Outcome, size),
		filled:   make([]bool, size),
	}
}

// Record stores the outcome for the record at index. The first outcome wins; it
// reports false for an out-of-range index or an already recorded slot.
func (r *Report) Record(index int, outcome model.Outcome) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.outcomes) || r.filled[index] {
		return false
	}
	r.outcomes[index] = outcome
	r.filled[index] = true
	return true
}

func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

// Complete reports whether every record has an outcome.
func (r *Report) Complete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ok := range r.filled {
		if !ok {
			return false
		}
	}
	return true
}

// Outcomes returns a copy of the recorded outcomes.
func (r *Report) Outcomes() []model.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Summary counts outcomes by kind.
type Summary struct {
	Total  int
	Counts map[model.OutcomeKind]int
}

func (r *Report) Summary() Summary {
	s := Summary{Counts: make(map[model.OutcomeKind]int, len(model.OutcomeKinds))}
	for _, o := range r.Outcomes() {
		s.Total++
		s.Counts[o.Kind]++
	}
	return s
}

func (s Summary) String() string {
	parts := make([]string, 0, len(model.OutcomeKinds))
	for _, kind := range model.OutcomeKinds {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, s.Counts[kind]))
	}
	return fmt.Sprintf("processed %d events: %s", s.Total, strings.Join(parts, " "))
}

// Render writes one line per record followed by the summary.
func (r *Report) Render(w io.Writer) error {
	for i, o := range r.Outcomes() {
		bounty := "-"
		if o.BountyID != nil {
			bounty = fmt.Sprintf("%d", *o.BountyID)
		}
		line := fmt.Sprintf("#%d bountyId=%s -> %s", i, bounty, o)
		if o.TxHash != "" {
			line += " tx=" + o.TxHash
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, r.Summary())
	return err
}
