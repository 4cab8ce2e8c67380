package memstore

import (
	"context"
	"sort"
	"time"

	"go-ecom-api/internal/model"
	"go-ecom-api/internal/repository"

	"github.com/shopspring/decimal"
)

type stats struct{ st *state }

func (r stats) CatalogStats(_ context.Context, lowStockThreshold int) (*repository.CatalogStats, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("stats.CatalogStats"); err != nil {
		return nil, err
	}
	out := &repository.CatalogStats{InventoryValue: decimal.Zero}
	for _, p := range r.st.t.products {
		if p.DeletedAt.Valid {
			continue
		}
		out.TotalProducts++
		if p.StockQuantity < lowStockThreshold {
			out.LowStockCount++
		}
		out.InventoryValue = out.InventoryValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity))))
	}
	return out, nil
}

func (r stats) OrdersByStatus(_ context.Context) ([]repository.StatusCount, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("stats.OrdersByStatus"); err != nil {
		return nil, err
	}
	byStatus := map[model.OrderStatus]*repository.StatusCount{}
	for _, o := range r.st.t.orders {
		sc, ok := byStatus[o.Status]
		if !ok {
			sc = &repository.StatusCount{Status: o.Status, Amount: decimal.Zero}
			byStatus[o.Status] = sc
		}
		sc.Orders++
		sc.Amount = sc.Amount.Add(o.TotalAmount)
	}
	out := make([]repository.StatusCount, 0, len(byStatus))
	for _, sc := range byStatus {
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (r stats) DailySales(_ context.Context, from, to time.Time) ([]repository.DailySales, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("stats.DailySales"); err != nil {
		return nil, err
	}
	byDay := map[string]*repository.DailySales{}
	for _, o := range r.st.t.orders {
		if o.Status == model.OrderCancelled || o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		day := o.CreatedAt.Format("2006-01-02")
		d, ok := byDay[day]
		if !ok {
			d = &repository.DailySales{Date: day, Revenue: decimal.Zero}
			byDay[day] = d
		}
		d.Orders++
		d.Revenue = d.Revenue.Add(o.TotalAmount)
	}
	out := make([]repository.DailySales, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
