package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printforge/printforge-backend/api/responses"
	"github.com/printforge/printforge-backend/api/validators"
	"github.com/printforge/printforge-backend/internal/quotes"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/logger"
)

type quoteMaterialRequest struct {
	FilamentID uuid.UUID       `json:"filamentId" validate:"required"`
	WeightG    decimal.Decimal `json:"weightG"`
}

type quoteItemRequest struct {
	MachineID     uuid.UUID              `json:"machineId" validate:"required"`
	Description   string                 `json:"description" validate:"required,min=1,max=240"`
	Quantity      int                    `json:"quantity" validate:"required,min=1"`
	PrintMinutes  decimal.Decimal        `json:"printMinutes"`
	PostMinutes   decimal.Decimal        `json:"postMinutes"`
	RiskPercent   decimal.Decimal        `json:"riskPercent"`
	PackagingCost decimal.Decimal        `json:"packagingCost"`
	Materials     []quoteMaterialRequest `json:"materials" validate:"required,min=1,dive"`
}

type quoteRequest struct {
	CustomerID      uuid.UUID          `json:"customerId" validate:"required"`
	MarginPercent   decimal.Decimal    `json:"marginPercent"`
	AdjustmentType  string             `json:"adjustmentType" validate:"omitempty"`
	AdjustmentValue decimal.Decimal    `json:"adjustmentValue"`
	Notes           string             `json:"notes"`
	Items           []quoteItemRequest `json:"items" validate:"required,min=1,dive"`
}

type quoteStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (req quoteRequest) toInput(tenantID uuid.UUID) (quotes.QuoteInput, error) {
	adjustment := enums.AdjustmentTypeNone
	if req.AdjustmentType != "" {
		parsed, err := enums.ParseAdjustmentType(req.AdjustmentType)
		if err != nil {
			return quotes.QuoteInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid adjustment type")
		}
		adjustment = parsed
	}

	input := quotes.QuoteInput{
		TenantID:        tenantID,
		CustomerID:      req.CustomerID,
		MarginPercent:   req.MarginPercent,
		AdjustmentType:  adjustment,
		AdjustmentValue: req.AdjustmentValue,
		Notes:           req.Notes,
	}
	for _, item := range req.Items {
		materials := make([]quotes.MaterialInput, 0, len(item.Materials))
		for _, material := range item.Materials {
			materials = append(materials, quotes.MaterialInput{
				FilamentID: material.FilamentID,
				WeightG:    material.WeightG,
			})
		}
		input.Items = append(input.Items, quotes.ItemInput{
			MachineID:     item.MachineID,
			Description:   item.Description,
			Quantity:      item.Quantity,
			PrintMinutes:  item.PrintMinutes,
			PostMinutes:   item.PostMinutes,
			RiskPercent:   item.RiskPercent,
			PackagingCost: item.PackagingCost,
			Materials:     materials,
		})
	}
	return input, nil
}

// QuoteList returns the workshop's quotes, optionally filtered by status.
func QuoteList(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status enums.QuoteStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseQuoteStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = parsed
		}

		list, err := svc.List(r.Context(), tenantID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// QuoteDetail returns a quote with its items and materials.
func QuoteDetail(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parsePathID(r, chi.URLParam(r, "quoteId"), "quote id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Get(r.Context(), tenantID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

// QuoteCreate drafts a new quote and assigns its number.
func QuoteCreate(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body quoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput(tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, quote)
	}
}

// QuoteUpdate replaces the editable fields and line items of a quote.
func QuoteUpdate(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parsePathID(r, chi.URLParam(r, "quoteId"), "quote id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body quoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput(tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Update(r.Context(), tenantID, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

// QuoteDelete removes a quote that has not produced an order.
func QuoteDelete(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parsePathID(r, chi.URLParam(r, "quoteId"), "quote id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), tenantID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// QuoteRecalculate reprices the quote from current machine and filament rates.
func QuoteRecalculate(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parsePathID(r, chi.URLParam(r, "quoteId"), "quote id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Recalculate(r.Context(), tenantID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

// QuoteStatus moves a quote through its lifecycle.
func QuoteStatus(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parsePathID(r, chi.URLParam(r, "quoteId"), "quote id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body quoteStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseQuoteStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		quote, err := svc.ChangeStatus(r.Context(), tenantID, id, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}
