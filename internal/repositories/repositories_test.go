package repositories

import (
	"context"
	"testing"
	"time"

	"SignalTradeBot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dryRun builds statements against the postgres dialect without a server.
func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=test dbname=test sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)
	return db
}

func TestRangeQuery(t *testing.T) {
	db := dryRun(t)
	repo := NewPriceRepository(db)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []models.Price
		return repo.rangeQuery(tx, "BTCUSDT", "1d", from, to).Find(&out)
	})
	assert.Contains(t, sql, `FROM "prices"`)
	assert.Contains(t, sql, "symbol = 'BTCUSDT' AND time_frame = '1d'")
	assert.Contains(t, sql, "open_time >=")
	assert.Contains(t, sql, "open_time <=")
	assert.Contains(t, sql, "ORDER BY open_time ASC")

	open := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []models.Price
		return repo.rangeQuery(tx, "BTCUSDT", "1d", time.Time{}, time.Time{}).Find(&out)
	})
	assert.NotContains(t, open, "open_time >=")
	assert.NotContains(t, open, "open_time <=")
}

func TestUpsertClause(t *testing.T) {
	db := dryRun(t)
	bars := []models.Price{{Symbol: "BTCUSDT", TimeFrame: "1d", OpenTime: time.Now(), Close: 1}}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Clauses(upsertClause()).Create(&bars)
	})
	assert.Contains(t, sql, "ON CONFLICT")
	assert.Contains(t, sql, "DO UPDATE SET")
	assert.Contains(t, sql, `"close"=`)
}

func TestPriceRepositoryRejectsMissingKeys(t *testing.T) {
	repo := NewPriceRepository(dryRun(t))

	_, err := repo.GetPricesByTimeFrame(context.Background(), "", "1d", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = repo.GetLatestPriceByTimeFrame(context.Background(), "BTCUSDT", "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	assert.NoError(t, repo.Upsert(context.Background(), nil))
}

func TestRunRepositoryCreateRequiresID(t *testing.T) {
	repo := NewRunRepository(dryRun(t))

	assert.Error(t, repo.Create(context.Background(), nil))
	assert.ErrorIs(t, repo.Create(context.Background(), &models.BacktestRun{}), models.ErrInvalidInput)
}

func TestRunRepositoryRejectsEmptyID(t *testing.T) {
	repo := NewRunRepository(dryRun(t))

	_, err := repo.FindByID(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.ErrorIs(t, repo.Delete(context.Background(), ""), models.ErrInvalidInput)
}

func TestListQuery(t *testing.T) {
	db := dryRun(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var runs []models.BacktestRun
		return listQuery(tx, "BTCUSDT", 5).Find(&runs)
	})
	assert.Contains(t, sql, `FROM "backtest_runs"`)
	assert.Contains(t, sql, "symbol = 'BTCUSDT'")
	assert.Contains(t, sql, "ORDER BY created_at DESC")
	assert.Contains(t, sql, "LIMIT 5")

	all := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var runs []models.BacktestRun
		return listQuery(tx, "", 0).Find(&runs)
	})
	assert.NotContains(t, all, "symbol =")
	assert.Contains(t, all, "LIMIT 20")
}

func TestCountQuery(t *testing.T) {
	db := dryRun(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var n int64
		return countQuery(tx, "ETHUSDT", "4h").Count(&n)
	})
	assert.Contains(t, sql, "count(*)")
	assert.Contains(t, sql, "symbol = 'ETHUSDT' AND time_frame = '4h'")
}
