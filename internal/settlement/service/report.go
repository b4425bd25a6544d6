package service

import (
	"context"

	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	"github.com/shopspring/decimal"
)

// Report counts settlements and sums net_amount, overall and per status.
func (s *Service) Report(ctx context.Context, req settlementdomain.ReportRequest) (settlementdomain.Report, error) {
	filter, err := buildFilter(req.ProfessionalID, req.Status, req.PeriodFrom, req.PeriodTo)
	if err != nil {
		return settlementdomain.Report{}, err
	}

	rows, err := s.repo.Report(ctx, s.db, filter)
	if err != nil {
		return settlementdomain.Report{}, err
	}

	report := settlementdomain.Report{
		NetAmount: decimal.Zero,
		ByStatus:  rows,
	}
	for _, row := range rows {
		report.Count += row.Count
		report.NetAmount = report.NetAmount.Add(row.NetAmount)
	}
	return report, nil
}
