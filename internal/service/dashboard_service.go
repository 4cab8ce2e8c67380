package service

import (
	"context"
	"time"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository"

	"github.com/google/uuid"
)

// LowStockThreshold is the stock level under which a product counts as low.
const LowStockThreshold = 10

type DashboardService interface {
	GetSales(ctx context.Context, p policy.Principal, days int, now time.Time) ([]repository.DailySales, error)
	GetStats(ctx context.Context, p policy.Principal) (*DashboardStats, error)
}

type DashboardStats struct {
	repository.CatalogStats
	Orders []repository.StatusCount `json:"orders"`
}

type dashboardService struct {
	store repository.Store
}

func NewDashboardService(store repository.Store) DashboardService {
	return &dashboardService{store: store}
}

func (s *dashboardService) GetSales(ctx context.Context, p policy.Principal, days int, now time.Time) ([]repository.DailySales, error) {
	if err := policy.Authorize(p, policy.ReportView, uuid.Nil); err != nil {
		return nil, err
	}
	endDate := now
	startDate := endDate.AddDate(0, 0, -days)

	sales, err := s.store.Stats().DailySales(ctx, startDate, endDate)
	if err != nil {
		return nil, apperror.Database("failed to fetch sales", err)
	}
	return sales, nil
}

func (s *dashboardService) GetStats(ctx context.Context, p policy.Principal) (*DashboardStats, error) {
	if err := policy.Authorize(p, policy.ReportView, uuid.Nil); err != nil {
		return nil, err
	}
	catalog, err := s.store.Stats().CatalogStats(ctx, LowStockThreshold)
	if err != nil {
		return nil, apperror.Database("failed to fetch dashboard stats", err)
	}
	orders, err := s.store.Stats().OrdersByStatus(ctx)
	if err != nil {
		return nil, apperror.Database("failed to fetch dashboard stats", err)
	}
	return &DashboardStats{CatalogStats: *catalog, Orders: orders}, nil
}
