package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/dentalclinic/payouts/internal/audit/domain"
	"github.com/dentalclinic/payouts/internal/audit/repository"
	"github.com/dentalclinic/payouts/internal/auditcontext"
	"github.com/dentalclinic/payouts/internal/clock"
	"github.com/dentalclinic/payouts/pkg/db/pagination"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAudit(t *testing.T) (auditdomain.Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, db
}

type settlementState struct {
	Status           string `json:"status"`
	PaymentReference string `json:"payment_reference,omitempty"`
}

func TestRecordStoresBeforeAfterAndActor(t *testing.T) {
	svc, db := setupAudit(t)
	ctx := auditcontext.WithActor(context.Background(), "user", "42")
	ctx = auditcontext.WithRequestID(ctx, "req-1")

	err := svc.Record(ctx, auditdomain.Entry{
		Action:     "settlement.paid",
		TargetType: "settlement",
		TargetID:   "99",
		Before:     settlementState{Status: "approved"},
		After:      settlementState{Status: "paid", PaymentReference: "TRX-1234567890"},
	})
	require.NoError(t, err)

	var stored auditdomain.AuditLog
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "settlement.paid", stored.Action)
	assert.Equal(t, "user", stored.ActorType)
	require.NotNil(t, stored.ActorID)
	assert.Equal(t, "42", *stored.ActorID)
	assert.Equal(t, "approved", stored.Before["status"])
	assert.Equal(t, "paid", stored.After["status"])
	assert.Equal(t, "****7890", stored.After["payment_reference"])
	assert.Equal(t, "req-1", stored.Metadata["request_id"])
}

func TestRecordDefaultsToSystemActor(t *testing.T) {
	svc, db := setupAudit(t)

	require.NoError(t, svc.Record(context.Background(), auditdomain.Entry{
		Action:     "settlement.deleted",
		TargetType: "settlement",
		TargetID:   "1",
		Before:     settlementState{Status: "draft"},
	}))

	var stored auditdomain.AuditLog
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "system", stored.ActorType)
	assert.Nil(t, stored.ActorID)
	assert.Empty(t, stored.After)
}

func TestRecordRejectsEmptyAction(t *testing.T) {
	svc, _ := setupAudit(t)
	err := svc.Record(context.Background(), auditdomain.Entry{Action: "  "})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListFiltersByActor(t *testing.T) {
	svc, _ := setupAudit(t)
	alice := auditcontext.WithActor(context.Background(), "user", "alice")
	bob := auditcontext.WithActor(context.Background(), "user", "bob")
	require.NoError(t, svc.Record(alice, auditdomain.Entry{Action: "settlement.approved", TargetType: "settlement", TargetID: "1"}))
	require.NoError(t, svc.Record(bob, auditdomain.Entry{Action: "settlement.paid", TargetType: "settlement", TargetID: "1"}))
	require.NoError(t, svc.Record(context.Background(), auditdomain.Entry{Action: "settlement.recomputed", TargetType: "settlement", TargetID: "1"}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{ActorID: "alice"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "settlement.approved", resp.AuditLogs[0].Action)

	all, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	assert.Len(t, all.AuditLogs, 3)
}

func TestListPagesNewestFirst(t *testing.T) {
	svc, _ := setupAudit(t)
	ctx := context.Background()
	for _, action := range []string{"settlement.created", "settlement.recomputed", "settlement.approved"} {
		require.NoError(t, svc.Record(ctx, auditdomain.Entry{Action: action, TargetType: "settlement", TargetID: "7"}))
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2},
		TargetID:   "7",
	})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, "settlement.approved", first.AuditLogs[0].Action)

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
		TargetID:   "7",
	})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.Equal(t, "settlement.created", second.AuditLogs[0].Action)
	assert.False(t, second.HasMore)
}

func TestListRejectsInvertedRange(t *testing.T) {
	svc, _ := setupAudit(t)
	start := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}
