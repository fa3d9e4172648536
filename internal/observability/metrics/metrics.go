// Package metrics defines the operation and domain metrics recorded by the
// eligibility and nomination services, with Prometheus and no-op backends.
package metrics

import (
	"context"
	"time"
)

// OperationMetrics records the lifecycle of a service operation.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// EligibilityMetrics records verdicts and grant attempts.
type EligibilityMetrics interface {
	OperationMetrics
	RecordVerdict(ctx context.Context, tier string, eligible bool)
	RecordGrantOutcome(ctx context.Context, tier, outcome string)
}

// NominationMetrics records vote admissions and thread closes.
type NominationMetrics interface {
	OperationMetrics
	RecordVote(ctx context.Context, tier, outcome string)
	RecordThreadClosed(ctx context.Context, tier, reason string)
}

// Noop discards every measurement.
type Noop struct{}

// NewNoop returns a metrics sink that records nothing.
func NewNoop() *Noop { return &Noop{} }

func (*Noop) RecordOperationAttempt(context.Context, string, string)                 {}
func (*Noop) RecordOperationSuccess(context.Context, string, string)                 {}
func (*Noop) RecordOperationFailure(context.Context, string, string)                 {}
func (*Noop) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (*Noop) RecordVerdict(context.Context, string, bool)                            {}
func (*Noop) RecordGrantOutcome(context.Context, string, string)                     {}
func (*Noop) RecordVote(context.Context, string, string)                             {}
func (*Noop) RecordThreadClosed(context.Context, string, string)                     {}

var (
	_ EligibilityMetrics = (*Noop)(nil)
	_ NominationMetrics  = (*Noop)(nil)
)
