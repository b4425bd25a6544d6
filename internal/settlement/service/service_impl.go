package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	attentiondomain "github.com/dentalclinic/payouts/internal/attention/domain"
	auditdomain "github.com/dentalclinic/payouts/internal/audit/domain"
	"github.com/dentalclinic/payouts/internal/auditcontext"
	"github.com/dentalclinic/payouts/internal/clock"
	"github.com/dentalclinic/payouts/internal/config"
	discountdomain "github.com/dentalclinic/payouts/internal/discount/domain"
	"github.com/dentalclinic/payouts/internal/observability/metrics"
	professionaldomain "github.com/dentalclinic/payouts/internal/professional/domain"
	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	"github.com/dentalclinic/payouts/pkg/db/pagination"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          settlementdomain.Repository
	Attentions    attentiondomain.Repository
	Discounts     discountdomain.Repository
	Professionals professionaldomain.Repository

	AuditSvc auditdomain.Service            `optional:"true"`
	Notifier settlementdomain.Notifier      `optional:"true"`
	Locker   settlementdomain.Locker        `optional:"true"`
	Policy   *config.SettlementPolicyHolder `optional:"true"`
	Metrics  *metrics.Metrics               `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	repo          settlementdomain.Repository
	attentions    attentiondomain.Repository
	discounts     discountdomain.Repository
	professionals professionaldomain.Repository

	auditSvc auditdomain.Service
	notifier settlementdomain.Notifier
	locker   settlementdomain.Locker
	policy   *config.SettlementPolicyHolder
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func NewService(p Params) settlementdomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("settlement.service"),
		genID: p.GenID,
		clock: clk,

		repo:          p.Repo,
		attentions:    p.Attentions,
		discounts:     p.Discounts,
		professionals: p.Professionals,

		auditSvc: p.AuditSvc,
		notifier: p.Notifier,
		locker:   p.Locker,
		policy:   p.Policy,
		metrics:  p.Metrics,
		tracer:   otel.Tracer("payouts/settlement"),
	}
}

func (s *Service) Create(ctx context.Context, req settlementdomain.CreateSettlementRequest) (settlementdomain.Settlement, error) {
	professionalID, err := parseProfessionalID(req.ProfessionalID)
	if err != nil {
		return settlementdomain.Settlement{}, err
	}
	start, end, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return settlementdomain.Settlement{}, err
	}

	var created settlementdomain.Settlement
	err = s.run(ctx, "create", 0, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := s.loadProfessional(ctx, tx, professionalID); err != nil {
				return err
			}

			settlement := s.newDraft(ctx, professionalID, start, end)
			settlement.Notes = strings.TrimSpace(req.Notes)
			inserted, err := s.repo.Insert(ctx, tx, &settlement)
			if err != nil {
				return err
			}
			if !inserted {
				return settlementdomain.ErrAlreadyExists
			}
			created = settlement
			return nil
		})
	})
	if err != nil {
		return settlementdomain.Settlement{}, err
	}

	s.emitAudit(ctx, "settlement.created", nil, &created)
	return created, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (settlementdomain.Detail, error) {
	id, err := parseID(rawID)
	if err != nil {
		return settlementdomain.Detail{}, err
	}

	settlement, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return settlementdomain.Detail{}, err
	}
	if settlement == nil {
		return settlementdomain.Detail{}, settlementdomain.ErrNotFound
	}

	items, err := s.repo.ListLineItems(ctx, s.db, id)
	if err != nil {
		return settlementdomain.Detail{}, err
	}
	discounts, err := s.repo.ListDiscounts(ctx, s.db, id)
	if err != nil {
		return settlementdomain.Detail{}, err
	}

	return settlementdomain.Detail{
		Settlement: *settlement,
		LineItems:  items,
		Discounts:  discounts,
	}, nil
}

func (s *Service) List(ctx context.Context, req settlementdomain.ListSettlementRequest) (settlementdomain.ListSettlementResponse, error) {
	filter, err := buildFilter(req.ProfessionalID, req.Status, req.PeriodFrom, req.PeriodTo)
	if err != nil {
		return settlementdomain.ListSettlementResponse{}, err
	}
	filter.Limit = req.Limit()
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return settlementdomain.ListSettlementResponse{}, err
		}
		filter.AfterID = snowflake.ID(cursor.ID)
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return settlementdomain.ListSettlementResponse{}, err
	}
	page, info, err := pagination.Trim(items, filter.Limit, func(item *settlementdomain.Settlement) pagination.Cursor {
		return pagination.Cursor{ID: item.ID.Int64()}
	})
	if err != nil {
		return settlementdomain.ListSettlementResponse{}, err
	}

	out := make([]settlementdomain.Settlement, 0, len(page))
	for _, item := range page {
		out = append(out, *item)
	}
	return settlementdomain.ListSettlementResponse{PageInfo: info, Settlements: out}, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	var deleted *settlementdomain.Settlement
	err = s.run(ctx, string(settlementdomain.ActionDelete), id, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			current, err := s.loadForUpdate(ctx, tx, id)
			if err != nil {
				return err
			}
			if _, err := settlementdomain.Next(current.Status, settlementdomain.ActionDelete); err != nil {
				return err
			}
			ok, err := s.repo.Delete(ctx, tx, id, current.Version)
			if err != nil {
				return err
			}
			if !ok {
				return settlementdomain.ErrConcurrentModification
			}
			deleted = current
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, "settlement.deleted", deleted, nil)
	return nil
}

func (s *Service) newDraft(ctx context.Context, professionalID snowflake.ID, start, end time.Time) settlementdomain.Settlement {
	now := s.clock.Now()
	settlement := settlementdomain.Settlement{
		ID:             s.genID.Generate(),
		ProfessionalID: professionalID,
		PeriodStart:    start,
		PeriodEnd:      end,
		Status:         settlementdomain.StatusDraft,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, actorID := auditcontext.ActorFromContext(ctx); actorID != "" {
		settlement.CreatedBy = &actorID
	}
	return settlement
}

func (s *Service) loadForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*settlementdomain.Settlement, error) {
	current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, settlementdomain.ErrNotFound
	}
	return current, nil
}

func (s *Service) loadProfessional(ctx context.Context, db *gorm.DB, id snowflake.ID) (*professionaldomain.Professional, error) {
	prof, err := s.professionals.FindByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if prof == nil {
		return nil, settlementdomain.ErrProfessionalNotFound
	}
	return prof, nil
}

func (s *Service) policyValue() config.SettlementPolicy {
	return s.policy.Get()
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, settlementdomain.ErrInvalidID
	}
	return id, nil
}

func parseProfessionalID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, settlementdomain.ErrInvalidProfessional
	}
	return id, nil
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, settlementdomain.ErrInvalidPeriod
	}
	return t, nil
}

// parsePeriod accepts inclusive calendar dates with start <= end.
func parsePeriod(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := parseDate(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, settlementdomain.ErrInvalidPeriod
	}
	return start, end, nil
}

func buildFilter(professionalID, status, from, to string) (settlementdomain.ListFilter, error) {
	var filter settlementdomain.ListFilter
	if strings.TrimSpace(professionalID) != "" {
		id, err := parseProfessionalID(professionalID)
		if err != nil {
			return filter, err
		}
		filter.ProfessionalID = id
	}
	if status = strings.TrimSpace(status); status != "" {
		st := settlementdomain.Status(strings.ToLower(status))
		if !st.Valid() {
			return filter, settlementdomain.ErrInvalidStatus
		}
		filter.Status = st
	}
	if strings.TrimSpace(from) != "" {
		t, err := parseDate(from)
		if err != nil {
			return filter, err
		}
		filter.PeriodFrom = &t
	}
	if strings.TrimSpace(to) != "" {
		t, err := parseDate(to)
		if err != nil {
			return filter, err
		}
		filter.PeriodTo = &t
	}
	if filter.PeriodFrom != nil && filter.PeriodTo != nil && filter.PeriodTo.Before(*filter.PeriodFrom) {
		return filter, settlementdomain.ErrInvalidPeriod
	}
	return filter, nil
}
