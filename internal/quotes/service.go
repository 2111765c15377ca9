package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printforge/printforge-backend/internal/pricing"
	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type customerSource interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Customer, error)
}

type machineSource interface {
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Machine, error)
}

type filamentSource interface {
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Filament, error)
}

// Service exposes quote management and recalculation.
type Service interface {
	List(ctx context.Context, tenantID uuid.UUID, status enums.QuoteStatus) ([]models.Quote, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Quote, error)
	Create(ctx context.Context, input QuoteInput) (*models.Quote, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, input QuoteInput) (*models.Quote, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	Recalculate(ctx context.Context, tenantID, id uuid.UUID) (*models.Quote, error)
	ChangeStatus(ctx context.Context, tenantID, id uuid.UUID, target enums.QuoteStatus) (*models.Quote, error)
}

// MaterialInput is the per-unit filament draw of one quote item.
type MaterialInput struct {
	FilamentID uuid.UUID
	WeightG    decimal.Decimal
}

// ItemInput is one job line of a quote.
type ItemInput struct {
	MachineID     uuid.UUID
	Description   string
	Quantity      int
	PrintMinutes  decimal.Decimal
	PostMinutes   decimal.Decimal
	RiskPercent   decimal.Decimal
	PackagingCost decimal.Decimal
	Materials     []MaterialInput
}

// QuoteInput carries the editable quote fields.
type QuoteInput struct {
	TenantID        uuid.UUID
	CustomerID      uuid.UUID
	MarginPercent   decimal.Decimal
	AdjustmentType  enums.AdjustmentType
	AdjustmentValue decimal.Decimal
	Notes           string
	Items           []ItemInput
}

// quoteStatusFlow lists the permitted status moves. Sent can fall back
// to Draft for re-editing; Draft can be approved directly when the
// customer confirms out of band.
var quoteStatusFlow = map[enums.QuoteStatus][]enums.QuoteStatus{
	enums.QuoteStatusDraft: {enums.QuoteStatusSent, enums.QuoteStatusApproved},
	enums.QuoteStatusSent:  {enums.QuoteStatusApproved, enums.QuoteStatusRejected, enums.QuoteStatusDraft},
}

type service struct {
	repo      Repository
	tx        txRunner
	customers customerSource
	machines  machineSource
	filaments filamentSource
}

// NewService wires a quote service with its repository, transaction
// runner, and the rate sources recalculation resolves against.
func NewService(repo Repository, tx txRunner, customers customerSource, machines machineSource, filaments filamentSource) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quote repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer source required")
	}
	if machines == nil {
		return nil, fmt.Errorf("machine source required")
	}
	if filaments == nil {
		return nil, fmt.Errorf("filament source required")
	}
	return &service{repo: repo, tx: tx, customers: customers, machines: machines, filaments: filaments}, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, status enums.QuoteStatus) ([]models.Quote, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if status != "" && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status filter %q", status))
	}
	return s.repo.List(ctx, tenantID, status)
}

func (s *service) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Quote, error) {
	quote, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	return quote, nil
}

func (s *service) Create(ctx context.Context, input QuoteInput) (*models.Quote, error) {
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	var created *models.Quote
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		seq, err := repo.NextSeq(ctx, input.TenantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve quote number")
		}

		quoteID := uuid.New()
		quote := &models.Quote{
			ID:              quoteID,
			TenantID:        input.TenantID,
			CustomerID:      input.CustomerID,
			QuoteNumber:     fmt.Sprintf("Q-%d-%04d", time.Now().UTC().Year(), seq),
			QuoteSeq:        seq,
			Status:          enums.QuoteStatusDraft,
			MarginPercent:   input.MarginPercent,
			AdjustmentType:  input.AdjustmentType,
			AdjustmentValue: input.AdjustmentValue,
			Notes:           input.Notes,
			Items:           buildItems(quoteID, input.Items),
		}
		if err := repo.Create(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quote")
		}
		created = quote
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces the quote's inputs and item tree. The derived price
// fields are cleared: they are stale until the next recalculation.
func (s *service) Update(ctx context.Context, tenantID, id uuid.UUID, input QuoteInput) (*models.Quote, error) {
	input.TenantID = tenantID
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	var updated *models.Quote
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := findForUpdate(ctx, repo, tenantID, id)
		if err != nil {
			return err
		}
		if quote.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("quote is %s and can no longer be edited", quote.Status))
		}

		now := time.Now().UTC()
		quote.CustomerID = input.CustomerID
		quote.MarginPercent = input.MarginPercent
		quote.AdjustmentType = input.AdjustmentType
		quote.AdjustmentValue = input.AdjustmentValue
		quote.Notes = input.Notes
		quote.TotalCost = nil
		quote.SuggestedPrice = nil
		quote.FinalPrice = nil
		quote.UpdatedAt = &now

		items := buildItems(quote.ID, input.Items)
		if err := repo.ReplaceItems(ctx, quote.ID, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace quote items")
		}
		quote.Items = items
		if err := repo.Update(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quote")
		}
		updated = quote
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a quote that no order was derived from.
func (s *service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	count, err := s.repo.CountOrders(ctx, tenantID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check quote orders")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "quote has orders and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete quote")
	}
	return nil
}

// Recalculate prices the quote against current machine and filament
// rates and persists the breakdown. It never touches the filament
// ledger; pricing is a simulation, not a stock commitment.
func (s *service) Recalculate(ctx context.Context, tenantID, id uuid.UUID) (*models.Quote, error) {
	quote, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if quote.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("quote is %s and can no longer be repriced", quote.Status))
	}

	rates, err := s.resolveRates(ctx, tenantID, quote)
	if err != nil {
		return nil, err
	}

	breakdown, err := pricing.Recalculate(snapshotOf(quote), rates)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	quote.TotalCost = &breakdown.TotalCost
	quote.SuggestedPrice = &breakdown.SuggestedPrice
	quote.FinalPrice = &breakdown.FinalPrice
	quote.UpdatedAt = &now
	for i := range quote.Items {
		item := breakdown.Items[i]
		quote.Items[i].MachineCost = ptr(item.MachineCost)
		quote.Items[i].MaterialCost = ptr(item.MaterialCost)
		quote.Items[i].ItemCost = ptr(item.ItemCost)
		quote.Items[i].UnitPrice = ptr(item.UnitPrice)
		quote.Items[i].TotalPrice = ptr(item.TotalPrice)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist quote totals")
		}
		for i := range quote.Items {
			if err := tx.WithContext(ctx).
				Model(&models.QuoteItem{}).
				Where("id = ?", quote.Items[i].ID).
				Updates(map[string]any{
					"machine_cost":  quote.Items[i].MachineCost,
					"material_cost": quote.Items[i].MaterialCost,
					"item_cost":     quote.Items[i].ItemCost,
					"unit_price":    quote.Items[i].UnitPrice,
					"total_price":   quote.Items[i].TotalPrice,
				}).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist item breakdown")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// ChangeStatus moves the quote along its commercial flow. Approval
// requires a current recalculation so the order derived later has
// frozen prices to copy.
func (s *service) ChangeStatus(ctx context.Context, tenantID, id uuid.UUID, target enums.QuoteStatus) (*models.Quote, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quote status %q", target))
	}

	quote, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !statusAllowed(quote.Status, target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move quote from %s to %s", quote.Status, target))
	}
	if target == enums.QuoteStatusApproved && quote.FinalPrice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quote must be recalculated before approval")
	}

	moved, err := s.repo.UpdateStatus(ctx, tenantID, id, quote.Status, target)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quote status")
	}
	if !moved {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "quote status changed concurrently")
	}

	now := time.Now().UTC()
	quote.Status = target
	quote.UpdatedAt = &now
	return quote, nil
}

func (s *service) validateInput(ctx context.Context, input QuoteInput) error {
	if input.TenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.MarginPercent.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "margin percent cannot be negative")
	}
	if input.AdjustmentType != "" && !input.AdjustmentType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid adjustment type %q", input.AdjustmentType))
	}
	for i, item := range input.Items {
		if item.MachineID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: machine id required", i+1))
		}
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be at least 1", i+1))
		}
		if item.PrintMinutes.IsNegative() || item.PostMinutes.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: minutes cannot be negative", i+1))
		}
		if item.RiskPercent.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: risk percent cannot be negative", i+1))
		}
		if item.PackagingCost.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: packaging cost cannot be negative", i+1))
		}
		for j, mat := range item.Materials {
			if mat.FilamentID == uuid.Nil {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d material %d: filament id required", i+1, j+1))
			}
			if !mat.WeightG.IsPositive() {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d material %d: weight must be positive", i+1, j+1))
			}
		}
	}

	if _, err := s.customers.FindByID(ctx, input.TenantID, input.CustomerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return nil
}

// resolveRates loads the machine hourly and filament per-kg rates every
// item references. Unknown references fail the whole recalculation.
func (s *service) resolveRates(ctx context.Context, tenantID uuid.UUID, quote *models.Quote) (pricing.Rates, error) {
	machineIDs := make([]uuid.UUID, 0, len(quote.Items))
	seenMachines := make(map[uuid.UUID]bool)
	filamentIDs := make([]uuid.UUID, 0)
	seenFilaments := make(map[uuid.UUID]bool)
	for _, item := range quote.Items {
		if !seenMachines[item.MachineID] {
			seenMachines[item.MachineID] = true
			machineIDs = append(machineIDs, item.MachineID)
		}
		for _, mat := range item.Materials {
			if !seenFilaments[mat.FilamentID] {
				seenFilaments[mat.FilamentID] = true
				filamentIDs = append(filamentIDs, mat.FilamentID)
			}
		}
	}

	rates := pricing.Rates{
		MachineHourly: make(map[uuid.UUID]decimal.Decimal, len(machineIDs)),
		FilamentPerKg: make(map[uuid.UUID]decimal.Decimal, len(filamentIDs)),
	}
	machines, err := s.machines.FindByIDs(ctx, tenantID, machineIDs)
	if err != nil {
		return pricing.Rates{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load machine rates")
	}
	for _, m := range machines {
		rates.MachineHourly[m.ID] = m.CostPerHour
	}
	filaments, err := s.filaments.FindByIDs(ctx, tenantID, filamentIDs)
	if err != nil {
		return pricing.Rates{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load filament rates")
	}
	for _, f := range filaments {
		rates.FilamentPerKg[f.ID] = f.CostPerKg
	}
	return rates, nil
}

func findForUpdate(ctx context.Context, repo Repository, tenantID, id uuid.UUID) (*models.Quote, error) {
	quote, err := repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	return quote, nil
}

func buildItems(quoteID uuid.UUID, inputs []ItemInput) []models.QuoteItem {
	items := make([]models.QuoteItem, 0, len(inputs))
	for i, in := range inputs {
		item := models.QuoteItem{
			ID:            uuid.New(),
			QuoteID:       quoteID,
			MachineID:     in.MachineID,
			Position:      i + 1,
			Description:   in.Description,
			Quantity:      in.Quantity,
			PrintMinutes:  in.PrintMinutes,
			PostMinutes:   in.PostMinutes,
			RiskPercent:   in.RiskPercent,
			PackagingCost: in.PackagingCost,
		}
		for _, mat := range in.Materials {
			item.Materials = append(item.Materials, models.QuoteMaterial{
				ID:          uuid.New(),
				QuoteItemID: item.ID,
				FilamentID:  mat.FilamentID,
				WeightG:     mat.WeightG,
			})
		}
		items = append(items, item)
	}
	return items
}

func snapshotOf(quote *models.Quote) pricing.Quote {
	snap := pricing.Quote{
		MarginPercent:   quote.MarginPercent,
		AdjustmentType:  quote.AdjustmentType,
		AdjustmentValue: quote.AdjustmentValue,
		Items:           make([]pricing.Item, 0, len(quote.Items)),
	}
	if snap.AdjustmentType == "" {
		snap.AdjustmentType = enums.AdjustmentTypeNone
	}
	for _, item := range quote.Items {
		pi := pricing.Item{
			MachineID:     item.MachineID,
			Quantity:      item.Quantity,
			PrintMinutes:  item.PrintMinutes,
			PostMinutes:   item.PostMinutes,
			RiskPercent:   item.RiskPercent,
			PackagingCost: item.PackagingCost,
		}
		for _, mat := range item.Materials {
			pi.Materials = append(pi.Materials, pricing.Material{
				FilamentID: mat.FilamentID,
				WeightG:    mat.WeightG,
			})
		}
		snap.Items = append(snap.Items, pi)
	}
	return snap
}

func statusAllowed(from, to enums.QuoteStatus) bool {
	for _, allowed := range quoteStatusFlow[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
