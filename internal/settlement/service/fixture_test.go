package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	attentiondomain "github.com/dentalclinic/payouts/internal/attention/domain"
	attentionrepo "github.com/dentalclinic/payouts/internal/attention/repository"
	auditdomain "github.com/dentalclinic/payouts/internal/audit/domain"
	"github.com/dentalclinic/payouts/internal/clock"
	"github.com/dentalclinic/payouts/internal/config"
	discountdomain "github.com/dentalclinic/payouts/internal/discount/domain"
	discountrepo "github.com/dentalclinic/payouts/internal/discount/repository"
	professionaldomain "github.com/dentalclinic/payouts/internal/professional/domain"
	professionalrepo "github.com/dentalclinic/payouts/internal/professional/repository"
	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	settlementrepo "github.com/dentalclinic/payouts/internal/settlement/repository"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingAudit struct {
	mu      sync.Mutex
	entries []auditdomain.Entry
}

func (r *recordingAudit) Record(_ context.Context, entry auditdomain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingAudit) List(context.Context, auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	t     *testing.T
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	audit *recordingAudit
	repo  settlementdomain.Repository
	svc   settlementdomain.Service
	ctx   context.Context
}

type option func(*Params)

func withRepo(wrap func(settlementdomain.Repository) settlementdomain.Repository) option {
	return func(p *Params) { p.Repo = wrap(p.Repo) }
}

func withNotifier(n settlementdomain.Notifier) option {
	return func(p *Params) { p.Notifier = n }
}

func withLocker(l settlementdomain.Locker) option {
	return func(p *Params) { p.Locker = l }
}

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&professionaldomain.Professional{},
		&attentiondomain.Service{},
		&attentiondomain.Attention{},
		&discountdomain.Discount{},
		&settlementdomain.Settlement{},
		&settlementdomain.LineItem{},
		&settlementdomain.AppliedDiscount{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		t:     t,
		db:    db,
		node:  node,
		clock: clock.NewFakeClock(time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC)),
		audit: &recordingAudit{},
		ctx:   context.Background(),
	}

	p := Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         f.clock,
		Repo:          settlementrepo.Provide(),
		Attentions:    attentionrepo.Provide(),
		Discounts:     discountrepo.Provide(),
		Professionals: professionalrepo.Provide(),
		AuditSvc:      f.audit,
		Policy:        config.NewStaticSettlementPolicyHolder(config.DefaultSettlementPolicy()),
	}
	for _, opt := range opts {
		opt(&p)
	}
	f.repo = p.Repo
	f.svc = NewService(p)
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) professional(name string, status professionaldomain.Status) snowflake.ID {
	f.t.Helper()
	p := professionaldomain.Professional{
		ID:     f.node.Generate(),
		Name:   name,
		Email:  name + "@clinic.local",
		Status: status,
	}
	require.NoError(f.t, f.db.Create(&p).Error)
	return p.ID
}

func (f *fixture) service(code string, rate string) snowflake.ID {
	f.t.Helper()
	s := attentiondomain.Service{
		ID:                   f.node.Generate(),
		Code:                 code,
		Name:                 "Service " + code,
		CommissionPercentage: dec(rate),
		Active:               true,
	}
	require.NoError(f.t, f.db.Create(&s).Error)
	return s.ID
}

type attentionSpec struct {
	professional snowflake.ID
	service      snowflake.ID
	date         time.Time
	amount       string
	insurance    string
	override     string
	status       attentiondomain.Status
}

func (f *fixture) attention(spec attentionSpec) snowflake.ID {
	f.t.Helper()
	if spec.insurance == "" {
		spec.insurance = "0"
	}
	if spec.status == "" {
		spec.status = attentiondomain.StatusCompleted
	}
	a := attentiondomain.Attention{
		ID:                          f.node.Generate(),
		ProfessionalID:              spec.professional,
		ServiceID:                   spec.service,
		PatientName:                 "Patient",
		Date:                        spec.date,
		AmountCharged:               dec(spec.amount),
		InsuranceDiscountPercentage: dec(spec.insurance),
		Status:                      spec.status,
	}
	if spec.override != "" {
		a.CommissionPercentage = decimal.NewNullDecimal(dec(spec.override))
	}
	require.NoError(f.t, f.db.Create(&a).Error)
	return a.ID
}

func (f *fixture) rule(name string, category discountdomain.Category, typ discountdomain.Type, value string, active bool) snowflake.ID {
	f.t.Helper()
	d := discountdomain.Discount{
		ID:           f.node.Generate(),
		Name:         name,
		Category:     category,
		DiscountType: typ,
		Value:        dec(value),
		Active:       true,
	}
	require.NoError(f.t, f.db.Create(&d).Error)
	if !active {
		require.NoError(f.t, f.db.Model(&discountdomain.Discount{}).Where("id = ?", d.ID).Update("active", false).Error)
	}
	return d.ID
}

func (f *fixture) create(professional snowflake.ID, start, end string) settlementdomain.Settlement {
	f.t.Helper()
	st, err := f.svc.Create(f.ctx, settlementdomain.CreateSettlementRequest{
		ProfessionalID: professional.String(),
		PeriodStart:    start,
		PeriodEnd:      end,
	})
	require.NoError(f.t, err)
	return st
}

func (f *fixture) count(model any, settlementID snowflake.ID) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Where("settlement_id = ?", settlementID).Count(&n).Error)
	return n
}

func (f *fixture) reload(id snowflake.ID) settlementdomain.Settlement {
	f.t.Helper()
	var st settlementdomain.Settlement
	require.NoError(f.t, f.db.Where("id = ?", id).First(&st).Error)
	return st
}

// scenario seeds the January example: commission 500 from two attentions,
// a 10% discount and a 20.00 flat retention.
func (f *fixture) scenario() (snowflake.ID, settlementdomain.Settlement) {
	f.t.Helper()
	prof := f.professional("ruiz", professionaldomain.StatusActive)
	cleaning := f.service("CLN", "30")
	implant := f.service("IMP", "40")

	// 1000 * 30% = 300
	f.attention(attentionSpec{professional: prof, service: cleaning, date: day(2024, 1, 3).Add(9 * time.Hour), amount: "1000"})
	// 500 * 80% * 50% = 200, override beats the service rate; last minute of the period counts
	f.attention(attentionSpec{professional: prof, service: implant, date: day(2024, 1, 31).Add(23*time.Hour + 59*time.Minute), amount: "500", insurance: "20", override: "50"})
	// excluded: outside the period, not completed, other professional
	f.attention(attentionSpec{professional: prof, service: cleaning, date: day(2024, 2, 1), amount: "900"})
	f.attention(attentionSpec{professional: prof, service: cleaning, date: day(2024, 1, 10), amount: "900", status: attentiondomain.StatusPending})
	f.attention(attentionSpec{professional: prof, service: cleaning, date: day(2024, 1, 11), amount: "900", status: attentiondomain.StatusCancelled})
	other := f.professional("lopez", professionaldomain.StatusActive)
	f.attention(attentionSpec{professional: other, service: cleaning, date: day(2024, 1, 12), amount: "900"})

	f.rule("Clinic fee", discountdomain.CategoryDiscount, discountdomain.TypePercentage, "10", true)
	f.rule("Tax withholding", discountdomain.CategoryRetention, discountdomain.TypeFixed, "20", true)
	f.rule("Old fee", discountdomain.CategoryDiscount, discountdomain.TypePercentage, "50", false)
	f.rule("Equipment", discountdomain.CategoryDeduction, discountdomain.TypeFixed, "75", true)

	return prof, f.create(prof, "2024-01-01", "2024-01-31")
}

func (f *fixture) policyTTL() time.Duration {
	return config.DefaultSettlementPolicy().LockTTL
}
