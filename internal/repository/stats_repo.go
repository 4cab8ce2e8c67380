package repository

import (
	"context"
	"time"

	"go-ecom-api/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatsRepository interface {
	CatalogStats(ctx context.Context, lowStockThreshold int) (*CatalogStats, error)
	OrdersByStatus(ctx context.Context) ([]StatusCount, error)
	DailySales(ctx context.Context, from, to time.Time) ([]DailySales, error)
}

// CatalogStats is the inventory overview.
type CatalogStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
}

type StatusCount struct {
	Status model.OrderStatus `json:"status"`
	Orders int64             `json:"orders"`
	Amount decimal.Decimal   `json:"amount"`
}

// DailySales is one chart point. Cancelled orders are excluded.
type DailySales struct {
	Date    string          `json:"date"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type statsRepo struct {
	db *gorm.DB
}

func NewStatsRepo(db *gorm.DB) StatsRepository {
	return &statsRepo{db}
}

func (r *statsRepo) CatalogStats(ctx context.Context, lowStockThreshold int) (*CatalogStats, error) {
	var stats CatalogStats
	db := r.db.WithContext(ctx)

	// Total Products
	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, translate(err)
	}

	// Low Stock Count
	if err := db.Model(&model.Product{}).Where("stock_quantity < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, translate(err)
	}

	// Inventory Value (SUM of stock * price)
	if err := db.Model(&model.Product{}).Select("COALESCE(SUM(stock_quantity * price), 0)").Scan(&stats.InventoryValue).Error; err != nil {
		return nil, translate(err)
	}

	return &stats, nil
}

func (r *statsRepo) OrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	var results []StatusCount
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("status, COUNT(*) AS orders, COALESCE(SUM(total_amount), 0) AS amount").
		Group("status").
		Order("status ASC").
		Scan(&results).Error
	if err != nil {
		return nil, translate(err)
	}
	return results, nil
}

func (r *statsRepo) DailySales(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	var results []DailySales

	// Aggregate orders per day
	rows, err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select(`
			TO_CHAR(DATE(created_at), 'YYYY-MM-DD') AS date,
			COUNT(*) AS orders,
			COALESCE(SUM(total_amount), 0) AS revenue
		`).
		Where("created_at BETWEEN ? AND ? AND status <> ?", from, to, model.OrderCancelled).
		Group("DATE(created_at)").
		Order("DATE(created_at) ASC").
		Rows()
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	for rows.Next() {
		var data DailySales
		if err := rows.Scan(&data.Date, &data.Orders, &data.Revenue); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}
