package main

import (
	"github.com/dentalclinic/payouts/internal/attention"
	"github.com/dentalclinic/payouts/internal/audit"
	"github.com/dentalclinic/payouts/internal/clock"
	"github.com/dentalclinic/payouts/internal/config"
	"github.com/dentalclinic/payouts/internal/discount"
	"github.com/dentalclinic/payouts/internal/lock"
	"github.com/dentalclinic/payouts/internal/migration"
	"github.com/dentalclinic/payouts/internal/notification"
	"github.com/dentalclinic/payouts/internal/observability"
	"github.com/dentalclinic/payouts/internal/professional"
	"github.com/dentalclinic/payouts/internal/providers/email"
	"github.com/dentalclinic/payouts/internal/ratelimit"
	"github.com/dentalclinic/payouts/internal/server"
	"github.com/dentalclinic/payouts/internal/settlement"
	"github.com/dentalclinic/payouts/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		db.Module,
		migration.Module,
		clock.Module,
		lock.Module,
		ratelimit.Module,

		// Clinic data the engine reads
		professional.Module,
		attention.Module,
		discount.Module,

		// Settlements
		audit.Module,
		email.Module,
		notification.Module,
		settlement.Module,

		server.Module,
	)
	app.Run()
}
