package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"bountyOracle/internal/model"
)

// Recorder counts oracle outcomes for export after a run.
type Recorder struct {
	registry            *prometheus.Registry
	outcomesTotal       *prometheus.CounterVec
	submissionsTotal    prometheus.Counter
	confirmationSeconds *prometheus.HistogramVec
	lastRun             prometheus.Gauge
}

func NewRecorder() *Recorder {
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bounty_oracle_outcomes_total",
		Help: "Processed feed events by outcome",
	}, []string{"outcome"})

	submissions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bounty_oracle_submissions_total",
		Help: "approveBounty transactions accepted by the node",
	})

	confirmation := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bounty_oracle_confirmation_seconds",
		Help:    "Time from submission to a terminal receipt or timeout",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"outcome"})

	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bounty_oracle_last_run_timestamp_seconds",
		Help: "Unix time the last run finished",
	})

	r := prometheus.NewRegistry()
	r.MustRegister(outcomes, submissions, confirmation, lastRun)

	for _, kind := range model.OutcomeKinds {
		outcomes.WithLabelValues(string(kind))
	}

	return &Recorder{
		registry:            r,
		outcomesTotal:       outcomes,
		submissionsTotal:    submissions,
		confirmationSeconds: confirmation,
		lastRun:             lastRun,
	}
}

func (m *Recorder) ObserveOutcome(outcome model.Outcome) {
	m.outcomesTotal.WithLabelValues(string(outcome.Kind)).Inc()
	if outcome.Submitted() {
		m.submissionsTotal.Inc()
	}
}

func (m *Recorder) ObserveConfirmation(outcome model.Outcome, elapsed time.Duration) {
	m.confirmationSeconds.WithLabelValues(string(outcome.Kind)).Observe(elapsed.Seconds())
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Recorder) WriteTextfile(path string, finishedAt time.Time) error {
	m.lastRun.Set(float64(finishedAt.Unix()))
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
