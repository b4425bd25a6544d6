package service

import (
	"context"
	"time"

	auditdomain "github.com/dentalclinic/payouts/internal/audit/domain"
	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	"go.uber.org/zap"
)

const notifyTimeout = 15 * time.Second

// emitAudit runs after commit. Audit failures are logged by the sink and never undo the change.
func (s *Service) emitAudit(ctx context.Context, action string, before, after *settlementdomain.Settlement) {
	if s.auditSvc == nil {
		return
	}
	ref := after
	if ref == nil {
		ref = before
	}
	if ref == nil {
		return
	}

	entry := auditdomain.Entry{
		Action:     action,
		TargetType: "settlement",
		TargetID:   ref.ID.String(),
		Metadata: map[string]any{
			"professional_id": ref.ProfessionalID.String(),
			"period_start":    ref.PeriodStart.Format(dateLayout),
			"period_end":      ref.PeriodEnd.Format(dateLayout),
		},
	}
	if before != nil {
		entry.Before = before
	}
	if after != nil {
		entry.After = after
	}
	_ = s.auditSvc.Record(context.WithoutCancel(ctx), entry)
}

// notifyReady is best effort: the approval is already committed.
func (s *Service) notifyReady(ctx context.Context, st settlementdomain.Settlement) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.SettlementReady(ctx, st); err != nil {
		s.log.Warn("settlement ready notification not delivered",
			zap.String("settlement_id", st.ID.String()),
			zap.Error(err),
		)
	}
}
