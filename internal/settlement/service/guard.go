package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/dentalclinic/payouts/internal/observability/tracing"
	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func lockKey(id snowflake.ID) string {
	return fmt.Sprintf("settlement:%s", id.String())
}

// run bounds fn by the operation timeout, holds the settlement lock when id is set,
// and records the outcome on the span and the operation counter.
func (s *Service) run(ctx context.Context, action string, id snowflake.ID, fn func(ctx context.Context) error) (err error) {
	policy := s.policyValue()
	ctx, cancel := context.WithTimeout(ctx, policy.OperationTimeout)
	defer cancel()

	attrs := []attribute.KeyValue{}
	if id != 0 {
		attrs = append(attrs, attribute.String("settlement_id", id.String()))
	}
	ctx, span := s.tracer.Start(ctx, "settlement."+action, trace.WithAttributes(attrs...))
	defer func() {
		s.metrics.RecordOperation(ctx, action, outcome(err))
		if err != nil && !settlementdomain.IsValidation(err) {
			span.RecordError(tracing.SafeError(err))
			span.SetStatus(codes.Error, outcome(err))
		}
		span.End()
	}()

	if id != 0 && s.locker != nil {
		unlock, lockErr := s.locker.Acquire(ctx, lockKey(id), policy.LockTTL)
		switch {
		case errors.Is(lockErr, settlementdomain.ErrConcurrentModification):
			return lockErr
		case lockErr != nil:
			// row lock and version check still serialize the write
			s.log.Warn("settlement lock unavailable, continuing without it",
				zap.String("settlement_id", id.String()),
				zap.Error(lockErr),
			)
		default:
			defer func() {
				if releaseErr := unlock.Release(context.WithoutCancel(ctx)); releaseErr != nil {
					s.log.Warn("failed to release settlement lock",
						zap.String("settlement_id", id.String()),
						zap.Error(releaseErr),
					)
				}
			}()
		}
	}

	return fn(ctx)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case settlementdomain.IsValidation(err):
		return "invalid"
	case errors.Is(err, settlementdomain.ErrNotFound), errors.Is(err, settlementdomain.ErrProfessionalNotFound):
		return "not_found"
	case errors.Is(err, settlementdomain.ErrInvalidStateTransition):
		return "invalid_state"
	case errors.Is(err, settlementdomain.ErrAlreadyExists), errors.Is(err, settlementdomain.ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, settlementdomain.ErrComputeFailure):
		return "compute_failure"
	default:
		return "error"
	}
}
