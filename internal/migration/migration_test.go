package migration

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dentalclinic/payouts/internal/config"
	pkgdb "github.com/dentalclinic/payouts/pkg/db"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	assert.Equal(t, ups, downs)
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(conn))
	assertSchema(t, conn)
}

// The sqlite dialect used outside tests must accept repeated AutoMigrate on boot.
func TestAutoMigrateIsRepeatableOnSqliteDialect(t *testing.T) {
	dialect, err := pkgdb.Dialect(config.Config{
		DBType: "sqlite",
		DBPath: filepath.Join(t.TempDir(), "payouts.db"),
	})
	require.NoError(t, err)
	conn, err := gorm.Open(dialect, &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, AutoMigrate(conn))
	require.NoError(t, AutoMigrate(conn))
	assertSchema(t, conn)
}

func assertSchema(t *testing.T, conn *gorm.DB) {
	t.Helper()
	for _, table := range []string{
		"professionals", "services", "attentions", "discounts",
		"settlements", "settlement_line_items", "settlement_discounts", "audit_logs",
	} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
	assert.True(t, conn.Migrator().HasIndex("settlements", "ux_settlements_professional_period"))
}
