package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

var (
	sixty    = decimal.NewFromInt(60)
	thousand = decimal.NewFromInt(1000)
	hundred  = decimal.NewFromInt(100)
	one      = decimal.NewFromInt(1)
)

// Material is the per-unit filament draw of an item.
type Material struct {
	FilamentID uuid.UUID
	WeightG    decimal.Decimal
}

// Item is one job line of the quote snapshot being priced.
type Item struct {
	MachineID     uuid.UUID
	Quantity      int
	PrintMinutes  decimal.Decimal
	PostMinutes   decimal.Decimal
	RiskPercent   decimal.Decimal
	PackagingCost decimal.Decimal
	Materials     []Material
}

// Quote is the snapshot the engine prices. It is never mutated.
type Quote struct {
	MarginPercent   decimal.Decimal
	AdjustmentType  enums.AdjustmentType
	AdjustmentValue decimal.Decimal
	Items           []Item
}

// Rates resolves machine hourly cost and filament cost per kilogram.
// The engine consults nothing else; it performs no I/O.
type Rates struct {
	MachineHourly map[uuid.UUID]decimal.Decimal
	FilamentPerKg map[uuid.UUID]decimal.Decimal
}

// ItemBreakdown is the priced result for a single item, in input order.
type ItemBreakdown struct {
	MachineCost  decimal.Decimal
	MaterialCost decimal.Decimal
	ItemCost     decimal.Decimal
	UnitPrice    decimal.Decimal
	TotalPrice   decimal.Decimal
}

// Breakdown is the full recalculation output.
type Breakdown struct {
	TotalCost      decimal.Decimal
	SuggestedPrice decimal.Decimal
	FinalPrice     decimal.Decimal
	Items          []ItemBreakdown
}

// Recalculate prices a quote snapshot. It is deterministic and
// idempotent: the same snapshot and rates always produce the same
// breakdown. Unresolved machine or filament references fail the whole
// recalculation; no item is silently priced at zero.
//
// Per item: machineCost = printMinutes/60 * hourly rate,
// materialCost = sum(weightG * perKg / 1000), then packaging is added
// and the risk uplift applied. Margin applies per unit on top of the
// risk-adjusted cost. Money fields are rounded to 2 decimal places.
func Recalculate(q Quote, rates Rates) (*Breakdown, error) {
	if err := validate(q, rates); err != nil {
		return nil, err
	}

	out := &Breakdown{Items: make([]ItemBreakdown, 0, len(q.Items))}
	marginFactor := one.Add(q.MarginPercent.Div(hundred))

	totalCost := decimal.Zero
	for _, item := range q.Items {
		hourly := rates.MachineHourly[item.MachineID]
		machineCost := item.PrintMinutes.Div(sixty).Mul(hourly)

		materialCost := decimal.Zero
		for _, mat := range item.Materials {
			perKg := rates.FilamentPerKg[mat.FilamentID]
			materialCost = materialCost.Add(mat.WeightG.Mul(perKg).Div(thousand))
		}

		baseCost := machineCost.Add(materialCost).Add(item.PackagingCost)
		itemCost := baseCost.Mul(one.Add(item.RiskPercent.Div(hundred)))
		unitPrice := itemCost.Mul(marginFactor)

		totalCost = totalCost.Add(itemCost.Mul(decimal.NewFromInt(int64(item.Quantity))))

		out.Items = append(out.Items, ItemBreakdown{
			MachineCost:  machineCost.Round(2),
			MaterialCost: materialCost.Round(2),
			ItemCost:     itemCost.Round(2),
			UnitPrice:    unitPrice.Round(2),
			TotalPrice:   unitPrice.Round(2),
		})
	}

	suggested := totalCost.Mul(marginFactor)

	final := suggested
	switch q.AdjustmentType {
	case enums.AdjustmentTypeValue:
		final = suggested.Add(q.AdjustmentValue)
	case enums.AdjustmentTypePercent:
		final = suggested.Mul(one.Add(q.AdjustmentValue.Div(hundred)))
	}

	out.TotalCost = totalCost.Round(2)
	out.SuggestedPrice = suggested.Round(2)
	out.FinalPrice = final.Round(2)
	return out, nil
}

func validate(q Quote, rates Rates) error {
	if q.MarginPercent.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "margin percent cannot be negative")
	}
	if !q.AdjustmentType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid adjustment type %q", q.AdjustmentType))
	}

	missingMachines := []string{}
	missingFilaments := []string{}
	for i, item := range q.Items {
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
		if _, ok := rates.MachineHourly[item.MachineID]; !ok {
			missingMachines = append(missingMachines, item.MachineID.String())
		}
		for _, mat := range item.Materials {
			if !mat.WeightG.IsPositive() {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: material weight must be positive", i+1))
			}
			if _, ok := rates.FilamentPerKg[mat.FilamentID]; !ok {
				missingFilaments = append(missingFilaments, mat.FilamentID.String())
			}
		}
	}

	if len(missingMachines) > 0 || len(missingFilaments) > 0 {
		details := map[string]any{}
		if len(missingMachines) > 0 {
			details["unknown_machine_ids"] = missingMachines
		}
		if len(missingFilaments) > 0 {
			details["unknown_filament_ids"] = missingFilaments
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "quote references unknown machines or filaments").WithDetails(details)
	}
	return nil
}
