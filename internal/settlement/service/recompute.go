package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dentalclinic/payouts/internal/commission"
	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recompute replaces the settlement's line items and applied discounts with the result
// of the current attentions and active rules. All writes share one transaction.
func (s *Service) Recompute(ctx context.Context, rawID string) (settlementdomain.Settlement, error) {
	id, err := parseID(rawID)
	if err != nil {
		return settlementdomain.Settlement{}, err
	}

	var (
		before, after *settlementdomain.Settlement
		lineItems     int
	)
	started := time.Now()
	err = s.run(ctx, string(settlementdomain.ActionRecompute), id, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
			if err != nil {
				return computeErr(id, "load_settlement", err)
			}
			if current == nil {
				return settlementdomain.ErrNotFound
			}
			next, err := settlementdomain.Next(current.Status, settlementdomain.ActionRecompute)
			if err != nil {
				return err
			}

			snapshot := *current
			updated, n, err := s.recompute(ctx, tx, *current, next)
			if err != nil {
				return err
			}
			before, after, lineItems = &snapshot, &updated, n
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, settlementdomain.ErrComputeFailure) {
			s.log.Error("recompute rolled back", zap.String("settlement_id", id.String()), zap.Error(err))
		}
		return settlementdomain.Settlement{}, err
	}

	s.metrics.ObserveRecompute(ctx, time.Since(started), lineItems)
	s.log.Info("settlement recomputed",
		zap.String("settlement_id", id.String()),
		zap.Int("line_items", lineItems),
		zap.String("net_amount", after.NetAmount.StringFixed(2)),
	)
	s.emitAudit(ctx, "settlement.recomputed", before, after)
	return *after, nil
}

func (s *Service) recompute(ctx context.Context, tx *gorm.DB, st settlementdomain.Settlement, next settlementdomain.Status) (settlementdomain.Settlement, int, error) {
	places := s.policyValue().MoneyPlaces

	// the rule set is pinned here for the whole computation
	rules, err := s.discounts.ListActive(ctx, tx)
	if err != nil {
		return st, 0, computeErr(st.ID, "load_rules", err)
	}
	eligible, err := s.attentions.ListCompletedForPeriod(ctx, tx, st.ProfessionalID, st.PeriodStart, st.PeriodEnd)
	if err != nil {
		return st, 0, computeErr(st.ID, "load_attentions", err)
	}

	if err := s.repo.DeleteChildren(ctx, tx, st.ID); err != nil {
		return st, 0, computeErr(st.ID, "clear_children", err)
	}

	now := s.clock.Now()
	totalAttended := decimal.Zero
	totalCommission := decimal.Zero
	items := make([]settlementdomain.LineItem, 0, len(eligible))
	for _, a := range eligible {
		res := commission.Calculate(commission.Input{
			AmountCharged:               a.AmountCharged,
			InsuranceDiscountPercentage: a.InsuranceDiscountPercentage,
			CommissionPercentage:        a.CommissionPercentage,
			ServiceCommissionPercentage: a.ServiceCommissionPercentage,
		})
		totalAttended = totalAttended.Add(a.AmountCharged)
		totalCommission = totalCommission.Add(res.Amount)

		attentionID := a.ID
		items = append(items, settlementdomain.LineItem{
			ID:                          s.genID.Generate(),
			SettlementID:                st.ID,
			AttentionID:                 &attentionID,
			ServiceCode:                 a.ServiceCode,
			ServiceName:                 a.ServiceName,
			AttentionDate:               a.Date,
			AmountCharged:               a.AmountCharged.Round(places),
			InsuranceDiscountPercentage: a.InsuranceDiscountPercentage,
			CommissionPercentage:        res.Rate,
			CommissionAmount:            res.Amount.Round(places),
			CreatedAt:                   now,
		})
	}
	if err := s.repo.InsertLineItems(ctx, tx, items); err != nil {
		return st, 0, computeErr(st.ID, "insert_line_items", err)
	}

	agg := commission.ApplyRules(totalCommission, rules)
	applied := make([]settlementdomain.AppliedDiscount, 0, len(agg.Applied))
	for _, a := range agg.Applied {
		applied = append(applied, settlementdomain.AppliedDiscount{
			ID:             s.genID.Generate(),
			SettlementID:   st.ID,
			DiscountID:     a.Rule.ID,
			Name:           a.Rule.Name,
			Category:       string(a.Rule.Category),
			DiscountType:   string(a.Rule.DiscountType),
			DiscountValue:  a.Rule.Value,
			DiscountAmount: a.Amount.Round(places),
			CreatedAt:      now,
		})
	}
	if err := s.repo.InsertDiscounts(ctx, tx, applied); err != nil {
		return st, 0, computeErr(st.ID, "insert_discounts", err)
	}

	expected := st.Version
	st.TotalAttended = totalAttended.Round(places)
	st.TotalCommission = totalCommission.Round(places)
	st.TotalDiscounts = agg.TotalDiscounts.Round(places)
	st.TotalRetentions = agg.TotalRetentions.Round(places)
	// derived from the stored values so the invariant holds exactly on disk
	st.NetAmount = st.TotalCommission.Sub(st.TotalDiscounts).Sub(st.TotalRetentions)
	st.Status = next
	st.CalculatedAt = &now
	st.UpdatedAt = now
	st.Version = expected + 1

	ok, err := s.repo.Update(ctx, tx, &st, expected)
	if err != nil {
		return st, 0, computeErr(st.ID, "update_settlement", err)
	}
	if !ok {
		return st, 0, settlementdomain.ErrConcurrentModification
	}
	return st, len(items), nil
}

func computeErr(id snowflake.ID, step string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return &settlementdomain.ComputeError{SettlementID: id.String(), Step: step, Err: err}
}
