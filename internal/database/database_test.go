package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/futurepro/internal/config"
)

func TestConnectAndMigrate_Idempotent(t *testing.T) {
	cfg := config.Config{DBDriver: DriverSQLite, DataDir: filepath.Join(t.TempDir(), "nested"), SQLiteFile: "test.db"}
	db, err := Connect(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, DriverSQLite))
	require.NoError(t, Migrate(ctx, db, DriverSQLite))

	for _, table := range []string{"accounts", "personas", "chat_messages", "media_offers", "media_access", "ledger_entries", "jobs", "credit_packs", "promo_codes", "promo_redemptions", "payments"} {
		var count int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count), table)
		assert.Zero(t, count, table)
	}

	rows, err := db.QueryContext(ctx, "SELECT stripe_price_id FROM credit_packs LIMIT 0")
	require.NoError(t, err)
	rows.Close()
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.Config{DBDriver: "oracle"})
	assert.EqualError(t, err, "unsupported db driver: oracle")
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x INT);\n\n  ;CREATE TABLE b (y INT);  ")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE TABLE b (y INT)"}, got)
}
