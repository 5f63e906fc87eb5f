package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/smallbiznis/storekeep/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	files, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	up, down := 0, 0
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, ".up.sql"):
			up++
		case strings.HasSuffix(f, ".down.sql"):
			down++
		}
	}
	assert.Equal(t, up, down)
}

func TestRun_AutoMigratesSQLite(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, Run(db))

	for _, table := range []string{"settings", "categories", "products"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasColumn("products", "suggested_mrp"))
	assert.True(t, db.Migrator().HasColumn("products", "priced_at"))
}
