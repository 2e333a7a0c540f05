package database

import (
	"context"
	"errors"
	"fmt"

	"trade-dashboard-go/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no trade has the requested identifier.
var ErrNotFound = errors.New("trade not found")

const seedBatchSize = 2000

// sortColumns maps the accepted sort keys to columns. Unknown keys sort by date.
var sortColumns = map[string]string{
	"date":   "date",
	"close":  "close",
	"volume": "volume",
}

// ListQuery filters, sorts and slices the trades table.
type ListQuery struct {
	TradeCode string
	DateFrom  string
	DateTo    string
	Sort      string
	Order     string
	Limit     int
	Offset    int
}

// TradeRepository stores trades in a gorm database.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a repository on db.
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// TradeCodes returns the distinct, non-empty trade codes in ascending order.
func (r *TradeRepository) TradeCodes(ctx context.Context) ([]string, error) {
	codes := []string{}
	err := r.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("trade_code <> ?", "").
		Distinct().
		Order("trade_code").
		Pluck("trade_code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("could not list trade codes: %w", err)
	}
	return codes, nil
}

// List returns the page of trades selected by q and the count of all matches.
func (r *TradeRepository) List(ctx context.Context, q ListQuery) (models.TradePage, error) {
	filtered := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&models.Trade{})
		if q.TradeCode != "" {
			tx = tx.Where("trade_code = ?", q.TradeCode)
		}
		if q.DateFrom != "" {
			tx = tx.Where("date >= ?", q.DateFrom)
		}
		if q.DateTo != "" {
			tx = tx.Where("date <= ?", q.DateTo)
		}
		return tx
	}

	page := models.TradePage{Items: []models.Trade{}}
	if err := filtered().Count(&page.Total).Error; err != nil {
		return models.TradePage{}, fmt.Errorf("could not count trades: %w", err)
	}

	column, ok := sortColumns[q.Sort]
	if !ok {
		column = sortColumns["date"]
	}
	direction := "ASC"
	if q.Order == "desc" {
		direction = "DESC"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = -1 // no limit
	}

	err := filtered().
		Order(column + " " + direction).
		Order("id ASC").
		Offset(q.Offset).
		Limit(limit).
		Find(&page.Items).Error
	if err != nil {
		return models.TradePage{}, fmt.Errorf("could not list trades: %w", err)
	}
	return page, nil
}

// Create inserts trade and fills in its new identifier.
func (r *TradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	trade.ID = 0
	if err := r.db.WithContext(ctx).Create(trade).Error; err != nil {
		return fmt.Errorf("could not create trade: %w", err)
	}
	return nil
}

// Patch applies patch to the trade with id and returns the stored result.
func (r *TradeRepository) Patch(ctx context.Context, id uint, patch models.TradePatch) (models.Trade, error) {
	var trade models.Trade
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&trade, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		patch.Apply(&trade)
		return tx.Save(&trade).Error
	})
	if err != nil {
		return models.Trade{}, fmt.Errorf("could not patch trade %d: %w", id, err)
	}
	return trade, nil
}

// Delete removes the trade with id.
func (r *TradeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Trade{}, id)
	if res.Error != nil {
		return fmt.Errorf("could not delete trade %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("could not delete trade %d: %w", id, ErrNotFound)
	}
	return nil
}

// Count returns the number of stored trades.
func (r *TradeRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Trade{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("could not count trades: %w", err)
	}
	return n, nil
}

// ReplaceAll clears the table and bulk-inserts trades in batches.
func (r *TradeRepository) ReplaceAll(ctx context.Context, trades []models.Trade) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Trade{}).Error; err != nil {
			return fmt.Errorf("failed to clear trades: %w", err)
		}
		if len(trades) == 0 {
			return nil
		}
		for i := range trades {
			trades[i].ID = 0
		}
		if err := tx.CreateInBatches(trades, seedBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert trades: %w", err)
		}
		return nil
	})
}
