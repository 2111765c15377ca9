package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

// Summary is the workshop overview shown on the landing screen.
type Summary struct {
	Customers      int64                       `json:"customers"`
	Machines       int64                       `json:"machines"`
	ActiveRolls    int64                       `json:"activeRolls"`
	QuotesByStatus map[enums.QuoteStatus]int64 `json:"quotesByStatus"`
	OrdersByStatus map[enums.OrderStatus]int64 `json:"ordersByStatus"`
	MonthRevenue   decimal.Decimal             `json:"monthRevenue"`
	MonthMargin    decimal.Decimal             `json:"monthMargin"`
	RevenueGrowth  decimal.Decimal             `json:"revenueGrowthPercent"`
	ActiveOrders   []models.Order              `json:"activeOrders"`
}

// Service computes tenant-wide aggregates for the dashboard.
type Service interface {
	Summary(ctx context.Context, tenantID uuid.UUID) (*Summary, error)
}

type service struct {
	db *gorm.DB
}

// NewService wires a dashboard service with its database handle.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle required")
	}
	return &service{db: db}, nil
}

func (s *service) Summary(ctx context.Context, tenantID uuid.UUID) (*Summary, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}

	out := &Summary{
		QuotesByStatus: make(map[enums.QuoteStatus]int64),
		OrdersByStatus: make(map[enums.OrderStatus]int64),
		MonthRevenue:   decimal.Zero,
		MonthMargin:    decimal.Zero,
		RevenueGrowth:  decimal.Zero,
	}

	counts := []struct {
		model any
		dest  *int64
		extra string
	}{
		{&models.Customer{}, &out.Customers, ""},
		{&models.Machine{}, &out.Machines, ""},
		{&models.Filament{}, &out.ActiveRolls, "is_active = ?"},
	}
	for _, c := range counts {
		query := s.db.WithContext(ctx).Model(c.model).Where("tenant_id = ?", tenantID)
		if c.extra != "" {
			query = query.Where(c.extra, true)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count entities")
		}
	}

	var quoteRows []struct {
		Status enums.QuoteStatus
		Count  int64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Quote{}).
		Select("status, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&quoteRows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count quotes")
	}
	for _, row := range quoteRows {
		out.QuotesByStatus[row.Status] = row.Count
	}

	var orderRows []struct {
		Status enums.OrderStatus
		Count  int64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&orderRows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	for _, row := range orderRows {
		out.OrdersByStatus[row.Status] = row.Count
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevStart := monthStart.AddDate(0, -1, 0)

	thisMonth, err := s.revenueBetween(ctx, tenantID, monthStart, now)
	if err != nil {
		return nil, err
	}
	lastMonth, err := s.revenueBetween(ctx, tenantID, prevStart, monthStart)
	if err != nil {
		return nil, err
	}
	out.MonthRevenue = thisMonth.revenue
	out.MonthMargin = thisMonth.revenue.Sub(thisMonth.cost)
	if lastMonth.revenue.IsPositive() {
		out.RevenueGrowth = thisMonth.revenue.Sub(lastMonth.revenue).
			Div(lastMonth.revenue).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ?", tenantID, []enums.OrderStatus{
			enums.OrderStatusNew, enums.OrderStatusInProduction, enums.OrderStatusReady,
		}).
		Order("created_at DESC").
		Limit(10).
		Find(&out.ActiveOrders).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active orders")
	}
	return out, nil
}

type revenueWindow struct {
	revenue decimal.Decimal
	cost    decimal.Decimal
}

// revenueBetween sums final price and cost over non-cancelled orders
// created in [from, to).
func (s *service) revenueBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (revenueWindow, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status <> ? AND created_at >= ? AND created_at < ?",
			tenantID, enums.OrderStatusCancelled, from, to).
		Find(&orders).Error; err != nil {
		return revenueWindow{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load revenue window")
	}

	win := revenueWindow{revenue: decimal.Zero, cost: decimal.Zero}
	for _, order := range orders {
		win.revenue = win.revenue.Add(order.FinalPrice)
		win.cost = win.cost.Add(order.TotalCost)
	}
	return win, nil
}
