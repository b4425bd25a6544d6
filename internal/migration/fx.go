package migration

import (
	"github.com/dentalclinic/payouts/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		log = log.Named("migration")

		if cfg.DBType != "postgres" || cfg.DBAutoMigrate {
			log.Info("applying schema from models", zap.String("db_type", cfg.DBType))
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		log.Info("applying sql migrations")
		return RunMigrations(sqlDB)
	}),
)
