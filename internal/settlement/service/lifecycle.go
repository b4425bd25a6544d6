package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) Approve(ctx context.Context, rawID string) (settlementdomain.Settlement, error) {
	before, after, err := s.transition(ctx, rawID, settlementdomain.ActionApprove, func(st *settlementdomain.Settlement, now time.Time) {
		st.ApprovedAt = &now
	})
	if err != nil {
		return settlementdomain.Settlement{}, err
	}

	s.emitAudit(ctx, "settlement.approved", before, after)
	s.notifyReady(ctx, *after)
	return *after, nil
}

func (s *Service) MarkPaid(ctx context.Context, rawID string, req settlementdomain.MarkPaidRequest) (settlementdomain.Settlement, error) {
	reference := strings.TrimSpace(req.PaymentReference)
	before, after, err := s.transition(ctx, rawID, settlementdomain.ActionMarkPaid, func(st *settlementdomain.Settlement, now time.Time) {
		st.PaymentDate = &now
		if reference != "" {
			st.PaymentReference = &reference
		}
	})
	if err != nil {
		return settlementdomain.Settlement{}, err
	}

	s.emitAudit(ctx, "settlement.paid", before, after)
	return *after, nil
}

// Cancel is allowed from any non-terminal state. A non-empty reason is appended to the notes.
func (s *Service) Cancel(ctx context.Context, rawID string, reason string) (settlementdomain.Settlement, error) {
	reason = strings.TrimSpace(reason)
	before, after, err := s.transition(ctx, rawID, settlementdomain.ActionCancel, func(st *settlementdomain.Settlement, now time.Time) {
		st.CancelledAt = &now
		if reason == "" {
			return
		}
		if st.Notes != "" {
			st.Notes += "\n"
		}
		st.Notes += "Cancelled: " + reason
	})
	if err != nil {
		return settlementdomain.Settlement{}, err
	}

	s.emitAudit(ctx, "settlement.cancelled", before, after)
	return *after, nil
}

// transition applies a status-only change under the row lock and the version guard.
func (s *Service) transition(
	ctx context.Context,
	rawID string,
	action settlementdomain.Action,
	mutate func(st *settlementdomain.Settlement, now time.Time),
) (*settlementdomain.Settlement, *settlementdomain.Settlement, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, nil, err
	}

	var before, after *settlementdomain.Settlement
	err = s.run(ctx, string(action), id, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			current, err := s.loadForUpdate(ctx, tx, id)
			if err != nil {
				return err
			}
			next, err := settlementdomain.Next(current.Status, action)
			if err != nil {
				return err
			}

			snapshot := *current
			updated := *current
			now := s.clock.Now()
			mutate(&updated, now)
			updated.Status = next
			updated.UpdatedAt = now
			updated.Version = current.Version + 1

			ok, err := s.repo.Update(ctx, tx, &updated, current.Version)
			if err != nil {
				return err
			}
			if !ok {
				return settlementdomain.ErrConcurrentModification
			}
			before, after = &snapshot, &updated
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("settlement transitioned",
		zap.String("settlement_id", id.String()),
		zap.String("action", string(action)),
		zap.String("from", string(before.Status)),
		zap.String("to", string(after.Status)),
	)
	return before, after, nil
}

func settlementIDs(items []settlementdomain.Settlement) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}
