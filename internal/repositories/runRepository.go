package repositories

import (
	"context"
	"errors"
	"fmt"

	"SignalTradeBot/internal/models"

	"gorm.io/gorm"
)

// RunRepository persists backtest runs together with their trades and
// equity samples.
type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create stores the run and its associations in one transaction.
func (r *RunRepository) Create(ctx context.Context, run *models.BacktestRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if run.ID == "" {
		return fmt.Errorf("%w: run id is required", models.ErrInvalidInput)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Trades", "Equity").Create(run).Error; err != nil {
			return fmt.Errorf("create run %s: %w", run.ID, err)
		}
		if len(run.Trades) > 0 {
			for i := range run.Trades {
				run.Trades[i].RunID = run.ID
			}
			if err := tx.CreateInBatches(run.Trades, batchSize).Error; err != nil {
				return fmt.Errorf("create trades for run %s: %w", run.ID, err)
			}
		}
		if len(run.Equity) > 0 {
			for i := range run.Equity {
				run.Equity[i].RunID = run.ID
			}
			if err := tx.CreateInBatches(run.Equity, batchSize).Error; err != nil {
				return fmt.Errorf("create equity for run %s: %w", run.ID, err)
			}
		}
		return nil
	})
}

// FindByID loads a run with its trades and equity curve in order.
func (r *RunRepository) FindByID(ctx context.Context, id string) (*models.BacktestRun, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: run id is required", models.ErrInvalidInput)
	}
	var run models.BacktestRun
	err := r.db.WithContext(ctx).
		Preload("Trades", func(db *gorm.DB) *gorm.DB { return db.Order("entry_time ASC") }).
		Preload("Equity", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &run, err
}

// ListBySymbol returns the most recent runs for symbol without associations.
// An empty symbol lists runs of every symbol.
func (r *RunRepository) ListBySymbol(ctx context.Context, symbol string, limit int) ([]models.BacktestRun, error) {
	var runs []models.BacktestRun
	err := listQuery(r.db.WithContext(ctx), symbol, limit).Find(&runs).Error
	return runs, err
}

// listQuery selects the newest runs, of every symbol when symbol is empty.
func listQuery(tx *gorm.DB, symbol string, limit int) *gorm.DB {
	if limit <= 0 {
		limit = 20
	}
	if symbol != "" {
		tx = tx.Where("symbol = ?", symbol)
	}
	return tx.Order("created_at DESC").Limit(limit)
}

// Delete removes a run and everything recorded under it.
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: run id is required", models.ErrInvalidInput)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&models.Trade{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", id).Delete(&models.EquitySample{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.BacktestRun{}, "id = ?", id).Error
	})
}

// Migrate creates or updates the tables owned by the repositories.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Price{}, &models.BacktestRun{}, &models.Trade{}, &models.EquitySample{})
}
