// Package notification tells professionals their settlement is ready once it is approved.
package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/dentalclinic/payouts/internal/config"
	"github.com/dentalclinic/payouts/internal/observability/metrics"
	professionaldomain "github.com/dentalclinic/payouts/internal/professional/domain"
	"github.com/dentalclinic/payouts/internal/providers/email"
	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

var ErrNoRecipient = errors.New("professional_has_no_email")

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Email        email.Provider
	Professional professionaldomain.Repository
	Policy       *config.SettlementPolicyHolder
	Metrics      *metrics.Metrics `optional:"true"`
}

type EmailNotifier struct {
	db           *gorm.DB
	log          *zap.Logger
	email        email.Provider
	professional professionaldomain.Repository
	policy       *config.SettlementPolicyHolder
	metrics      *metrics.Metrics
}

func NewEmailNotifier(p Params) settlementdomain.Notifier {
	return &EmailNotifier{
		db:           p.DB,
		log:          p.Log.Named("notification"),
		email:        p.Email,
		professional: p.Professional,
		policy:       p.Policy,
		metrics:      p.Metrics,
	}
}

func (n *EmailNotifier) SettlementReady(ctx context.Context, s settlementdomain.Settlement) error {
	if !n.policy.Get().NotifyOnApproval {
		n.metrics.RecordNotification(ctx, "settlement_ready", "disabled")
		return nil
	}

	err := n.send(ctx, s)
	outcome := "sent"
	if err != nil {
		outcome = "failed"
		n.log.Warn("settlement ready notification failed",
			zap.String("settlement_id", s.ID.String()),
			zap.Error(err),
		)
	}
	n.metrics.RecordNotification(ctx, "settlement_ready", outcome)
	return err
}

func (n *EmailNotifier) send(ctx context.Context, s settlementdomain.Settlement) error {
	prof, err := n.professional.FindByID(ctx, n.db, s.ProfessionalID)
	if err != nil {
		return err
	}
	if prof == nil || strings.TrimSpace(prof.Email) == "" {
		return ErrNoRecipient
	}

	data := map[string]any{
		"ProfessionalName": prof.Name,
		"SettlementID":     s.ID.String(),
		"PeriodStart":      s.PeriodStart.Format(dateLayout),
		"PeriodEnd":        s.PeriodEnd.Format(dateLayout),
		"TotalAttended":    s.TotalAttended.StringFixed(2),
		"TotalCommission":  s.TotalCommission.StringFixed(2),
		"TotalDiscounts":   s.TotalDiscounts.StringFixed(2),
		"TotalRetentions":  s.TotalRetentions.StringFixed(2),
		"NetAmount":        s.NetAmount.StringFixed(2),
	}
	subject := "Settlement approved for " + s.PeriodStart.Format(dateLayout) + " to " + s.PeriodEnd.Format(dateLayout)
	return n.email.SendTemplate(ctx, []string{prof.Email}, subject, "settlement_ready", data)
}
