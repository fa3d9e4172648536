package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus records metrics into a Prometheus registerer.
type Prometheus struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	verdicts  *prometheus.CounterVec
	grants    *prometheus.CounterVec
	votes     *prometheus.CounterVec
	closes    *prometheus.CounterVec
}

// NewPrometheus registers the collectors under namespace. It must be called at
// most once per registerer.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	p := &Prometheus{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"service", "operation"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_success_total",
			Help:      "Service operations completed without infrastructure error.",
		}, []string{"service", "operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failure_total",
			Help:      "Service operations that returned an infrastructure error or panicked.",
		}, []string{"service", "operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Eligibility verdicts computed, by tier and result.",
		}, []string{"tier", "eligible"}),
		grants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grant_attempts_total",
			Help:      "Role grant attempts, by tier and outcome.",
		}, []string{"tier", "outcome"}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nomination_votes_total",
			Help:      "Nomination vote submissions, by tier and outcome.",
		}, []string{"tier", "outcome"}),
		closes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nomination_threads_closed_total",
			Help:      "Nomination threads closed, by tier and reason.",
		}, []string{"tier", "reason"}),
	}

	reg.MustRegister(p.attempts, p.successes, p.failures, p.duration, p.verdicts, p.grants, p.votes, p.closes)
	return p
}

func (p *Prometheus) RecordOperationAttempt(_ context.Context, operation, service string) {
	p.attempts.WithLabelValues(service, operation).Inc()
}

func (p *Prometheus) RecordOperationSuccess(_ context.Context, operation, service string) {
	p.successes.WithLabelValues(service, operation).Inc()
}

func (p *Prometheus) RecordOperationFailure(_ context.Context, operation, service string) {
	p.failures.WithLabelValues(service, operation).Inc()
}

func (p *Prometheus) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	p.duration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

func (p *Prometheus) RecordVerdict(_ context.Context, tier string, eligible bool) {
	p.verdicts.WithLabelValues(tier, strconv.FormatBool(eligible)).Inc()
}

func (p *Prometheus) RecordGrantOutcome(_ context.Context, tier, outcome string) {
	p.grants.WithLabelValues(tier, outcome).Inc()
}

func (p *Prometheus) RecordVote(_ context.Context, tier, outcome string) {
	p.votes.WithLabelValues(tier, outcome).Inc()
}

func (p *Prometheus) RecordThreadClosed(_ context.Context, tier, reason string) {
	p.closes.WithLabelValues(tier, reason).Inc()
}

var (
	_ EligibilityMetrics = (*Prometheus)(nil)
	_ NominationMetrics  = (*Prometheus)(nil)
)
