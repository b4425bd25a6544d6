package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	professionaldomain "github.com/dentalclinic/payouts/internal/professional/domain"
	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GenerateForPeriod gets or creates one draft settlement per professional for the period.
// Without a filter every active professional is included. Repeated calls never duplicate rows.
func (s *Service) GenerateForPeriod(ctx context.Context, req settlementdomain.GenerateRequest) (settlementdomain.GenerateResult, error) {
	start, end, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return settlementdomain.GenerateResult{}, err
	}
	requested := make([]snowflake.ID, 0, len(req.ProfessionalIDs))
	seen := map[snowflake.ID]struct{}{}
	for _, raw := range req.ProfessionalIDs {
		id, err := parseProfessionalID(raw)
		if err != nil {
			return settlementdomain.GenerateResult{}, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		requested = append(requested, id)
	}

	var (
		result  settlementdomain.GenerateResult
		created []settlementdomain.Settlement
	)
	err = s.run(ctx, "generate", 0, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			professionalIDs, err := s.resolveProfessionals(ctx, tx, requested)
			if err != nil {
				return err
			}

			result = settlementdomain.GenerateResult{
				Settlements: make([]settlementdomain.Settlement, 0, len(professionalIDs)),
				Created:     []string{},
			}
			created = created[:0]
			for _, professionalID := range professionalIDs {
				draft := s.newDraft(ctx, professionalID, start, end)
				inserted, err := s.repo.Insert(ctx, tx, &draft)
				if err != nil {
					return err
				}
				if inserted {
					result.Settlements = append(result.Settlements, draft)
					result.Created = append(result.Created, draft.ID.String())
					created = append(created, draft)
					continue
				}

				existing, err := s.repo.FindByPeriod(ctx, tx, professionalID, start, end)
				if err != nil {
					return err
				}
				if existing == nil {
					return settlementdomain.ErrConcurrentModification
				}
				result.Settlements = append(result.Settlements, *existing)
			}
			return nil
		})
	})
	if err != nil {
		return settlementdomain.GenerateResult{}, err
	}

	for i := range created {
		s.emitAudit(ctx, "settlement.created", nil, &created[i])
	}
	s.log.Info("settlements generated",
		zap.String("period_start", start.Format(dateLayout)),
		zap.String("period_end", end.Format(dateLayout)),
		zap.Int("total", len(result.Settlements)),
		zap.Int("created", len(created)),
		zap.Any("created_ids", settlementIDs(created)),
	)
	return result, nil
}

// resolveProfessionals validates an explicit filter or falls back to every active professional.
func (s *Service) resolveProfessionals(ctx context.Context, tx *gorm.DB, requested []snowflake.ID) ([]snowflake.ID, error) {
	if len(requested) == 0 {
		return s.professionals.ListActiveIDs(ctx, tx)
	}
	for _, id := range requested {
		prof, err := s.loadProfessional(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if prof.Status != professionaldomain.StatusActive {
			return nil, settlementdomain.ErrInvalidProfessional
		}
	}
	return requested, nil
}
