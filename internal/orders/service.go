package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/internal/filaments"
	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type quoteSource interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Quote, error)
}

// Service exposes order creation and the fulfillment state machine.
type Service interface {
	List(ctx context.Context, tenantID uuid.UUID, status enums.OrderStatus) ([]models.Order, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error)
	CreateFromQuote(ctx context.Context, tenantID, quoteID uuid.UUID) (*models.Order, error)
	Transition(ctx context.Context, tenantID, id uuid.UUID, target enums.OrderStatus) (*models.Order, error)
}

// transitions is the strict production flow: no skipping, Cancelled
// reachable from every non-terminal state via the IsTerminal check in
// Transition rather than this table.
var transitions = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusNew:          enums.OrderStatusInProduction,
	enums.OrderStatusInProduction: enums.OrderStatusReady,
	enums.OrderStatusReady:        enums.OrderStatusShipped,
	enums.OrderStatusShipped:      enums.OrderStatusDelivered,
}

type service struct {
	repo   Repository
	tx     txRunner
	quotes quoteSource
}

// NewService wires an order service with its repository, transaction
// runner, and the quote source orders are derived from.
func NewService(repo Repository, tx txRunner, quotes quoteSource) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if quotes == nil {
		return nil, fmt.Errorf("quote source required")
	}
	return &service{repo: repo, tx: tx, quotes: quotes}, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, status enums.OrderStatus) ([]models.Order, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if status != "" && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status filter %q", status))
	}
	return s.repo.List(ctx, tenantID, status)
}

func (s *service) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// CreateFromQuote derives an order from an approved quote, copying the
// item tree and prices as a frozen snapshot. Later quote edits never
// reach the order.
func (s *service) CreateFromQuote(ctx context.Context, tenantID, quoteID uuid.UUID) (*models.Order, error) {
	quote, err := s.quotes.FindByID(ctx, tenantID, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	if quote.Status != enums.QuoteStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("quote is %s; only approved quotes become orders", quote.Status))
	}
	if quote.TotalCost == nil || quote.FinalPrice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quote has no computed prices to freeze")
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		seq, err := repo.NextSeq(ctx, tenantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve order number")
		}

		order := &models.Order{
			ID:          uuid.New(),
			TenantID:    tenantID,
			QuoteID:     quote.ID,
			CustomerID:  quote.CustomerID,
			OrderNumber: fmt.Sprintf("ORD-%d-%04d", time.Now().UTC().Year(), seq),
			OrderSeq:    seq,
			Status:      enums.OrderStatusNew,
			TotalCost:   *quote.TotalCost,
			FinalPrice:  *quote.FinalPrice,
			Items:       snapshotItems(quote.Items),
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Transition advances the order. The strict flow forbids skipping;
// Cancelled is reachable from any non-terminal state. Entering
// production verifies filament stock and debits the ledger atomically
// with the status change: either both commit or neither does.
func (s *service) Transition(ctx context.Context, tenantID, id uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", target))
	}

	order, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(order.Status, target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		moved, err := repo.UpdateStatus(ctx, tenantID, id, order.Status, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently")
		}

		if order.Status == enums.OrderStatusNew && target == enums.OrderStatusInProduction {
			requirements := stockRequirements(order)
			reason := fmt.Sprintf("Order %s production start", order.OrderNumber)
			if err := filaments.ConsumeStock(ctx, tx, tenantID, requirements, reason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order.Status = target
	order.UpdatedAt = &now
	return order, nil
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == enums.OrderStatusCancelled {
		return true
	}
	return transitions[from] == to
}

// stockRequirements aggregates the gram draw per filament across the
// whole order: weight per unit times quantity, summed over items that
// share a roll.
func stockRequirements(order *models.Order) []filaments.StockRequirement {
	totals := make(map[uuid.UUID]filaments.StockRequirement)
	ids := make([]uuid.UUID, 0)
	for _, item := range order.Items {
		qty := int64(item.Quantity)
		for _, mat := range item.Materials {
			draw := mat.WeightG.Mul(decimal.NewFromInt(qty))
			req, ok := totals[mat.FilamentID]
			if !ok {
				ids = append(ids, mat.FilamentID)
				req = filaments.StockRequirement{FilamentID: mat.FilamentID}
			}
			req.RequiredG = req.RequiredG.Add(draw)
			totals[mat.FilamentID] = req
		}
	}

	out := make([]filaments.StockRequirement, 0, len(ids))
	for _, id := range ids {
		out = append(out, totals[id])
	}
	return out
}

func snapshotItems(items []models.QuoteItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		oi := models.OrderItem{
			ID:            uuid.New(),
			MachineID:     item.MachineID,
			Position:      item.Position,
			Description:   item.Description,
			Quantity:      item.Quantity,
			PrintMinutes:  item.PrintMinutes,
			PostMinutes:   item.PostMinutes,
			RiskPercent:   item.RiskPercent,
			PackagingCost: item.PackagingCost,
		}
		if item.ItemCost != nil {
			oi.ItemCost = *item.ItemCost
		}
		if item.UnitPrice != nil {
			oi.UnitPrice = *item.UnitPrice
		}
		for _, mat := range item.Materials {
			oi.Materials = append(oi.Materials, models.OrderItemMaterial{
				ID:          uuid.New(),
				OrderItemID: oi.ID,
				FilamentID:  mat.FilamentID,
				WeightG:     mat.WeightG,
			})
		}
		out = append(out, oi)
	}
	return out
}
