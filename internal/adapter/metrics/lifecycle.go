package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/veritas/internal/domain"
)

// LifecycleMetrics records rumor lifecycle events. It satisfies app.Recorder.
type LifecycleMetrics struct {
	RumorsCreated     prometheus.Counter
	VotesCast         *prometheus.CounterVec
	Transitions       *prometheus.CounterVec
	ReputationPayouts *prometheus.CounterVec
	ReputationMoved   prometheus.Histogram
	SweepFailures     *prometheus.CounterVec
}

func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	m := &LifecycleMetrics{
		RumorsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rumors_created_total",
			Help:      "Total number of rumors posted.",
		}),
		VotesCast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Total number of recorded votes, by type.",
		}, []string{"type"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rumor_transitions_total",
			Help:      "Total number of committed status transitions.",
		}, []string{"from", "to", "trigger"}),
		ReputationPayouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reputation",
			Name:      "payouts_total",
			Help:      "Total number of reputation adjustments from finalization, by outcome.",
		}, []string{"outcome"}),
		ReputationMoved: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reputation",
			Name:      "payout_delta",
			Help:      "Requested reputation delta per payout, before clamping.",
			Buckets:   []float64{-20, -15, -10, -5, 0, 5, 10},
		}),
		SweepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_failures_total",
			Help:      "Total number of failed lazy transitions, by stage.",
		}, []string{"stage"}),
	}

	reg.MustRegister(m.RumorsCreated, m.VotesCast, m.Transitions, m.ReputationPayouts, m.ReputationMoved, m.SweepFailures)
	return m
}

func (m *LifecycleMetrics) RumorCreated() {
	m.RumorsCreated.Inc()
}

func (m *LifecycleMetrics) VoteCast(voteType domain.VoteType) {
	m.VotesCast.WithLabelValues(voteType.String()).Inc()
}

func (m *LifecycleMetrics) Transition(from, to domain.Status, trigger domain.Trigger) {
	m.Transitions.WithLabelValues(string(from), string(to), string(trigger)).Inc()
}

func (m *LifecycleMetrics) ReputationAdjusted(delta float64) {
	outcome := "reward"
	if delta < 0 {
		outcome = "penalty"
	}
	m.ReputationPayouts.WithLabelValues(outcome).Inc()
	m.ReputationMoved.Observe(delta)
}

func (m *LifecycleMetrics) SweepFailed(stage string) {
	m.SweepFailures.WithLabelValues(stage).Inc()
}
