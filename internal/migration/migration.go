package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	attentiondomain "github.com/dentalclinic/payouts/internal/attention/domain"
	auditdomain "github.com/dentalclinic/payouts/internal/audit/domain"
	discountdomain "github.com/dentalclinic/payouts/internal/discount/domain"
	professionaldomain "github.com/dentalclinic/payouts/internal/professional/domain"
	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Models lists every table the service owns or reads, in dependency order.
func Models() []any {
	return []any{
		&professionaldomain.Professional{},
		&attentiondomain.Service{},
		&attentiondomain.Attention{},
		&discountdomain.Discount{},
		&settlementdomain.Settlement{},
		&settlementdomain.LineItem{},
		&settlementdomain.AppliedDiscount{},
		&auditdomain.AuditLog{},
	}
}

// RunMigrations applies the versioned SQL files to a postgres database.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB

	return nil
}

// AutoMigrate creates the schema from the gorm models. Used for sqlite and mysql,
// which the SQL files do not target.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
