package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/printforge/printforge-backend/api/responses"
	"github.com/printforge/printforge-backend/api/validators"
	"github.com/printforge/printforge-backend/internal/filaments"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/logger"
)

type filamentCreateRequest struct {
	Material  string          `json:"material" validate:"required,min=1,max=80"`
	Color     string          `json:"color" validate:"required,min=1,max=80"`
	Brand     string          `json:"brand" validate:"omitempty,max=120"`
	WeightG   decimal.Decimal `json:"weightG"`
	CostPerKg decimal.Decimal `json:"costPerKg"`
	Notes     string          `json:"notes"`
}

type filamentUpdateRequest struct {
	Material  string          `json:"material" validate:"required,min=1,max=80"`
	Color     string          `json:"color" validate:"required,min=1,max=80"`
	Brand     string          `json:"brand" validate:"omitempty,max=120"`
	CostPerKg decimal.Decimal `json:"costPerKg"`
	Notes     string          `json:"notes"`
	IsActive  bool            `json:"isActive"`
}

type filamentAdjustRequest struct {
	NewWeightG decimal.Decimal `json:"newWeightG"`
	Reason     string          `json:"reason" validate:"required,min=1,max=240"`
}

// FilamentList returns the workshop's rolls, optionally filtered by search.
func FilamentList(svc filaments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filament service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		search := validators.SanitizeString(r.URL.Query().Get("search"), 120)
		list, err := svc.List(r.Context(), tenantID, search)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// FilamentDetail returns a single roll by id.
func FilamentDetail(svc filaments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filament service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parsePathID(r, chi.URLParam(r, "filamentId"), "filament id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roll, err := svc.Get(r.Context(), tenantID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, roll)
	}
}

// FilamentCreate registers a new roll, seeding the ledger with its opening stock.
func FilamentCreate(svc filaments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filament service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body filamentCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roll, err := svc.Create(r.Context(), filaments.CreateFilamentInput{
			TenantID:  tenantID,
			Material:  body.Material,
			Color:     body.Color,
			Brand:     body.Brand,
			WeightG:   body.WeightG,
			CostPerKg: body.CostPerKg,
			Notes:     body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, roll)
	}
}

// FilamentUpdate edits roll metadata. The stock balance only moves
// through adjustments and order consumption.
func FilamentUpdate(svc filaments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filament service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parsePathID(r, chi.URLParam(r, "filamentId"), "filament id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body filamentUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roll, err := svc.Update(r.Context(), filaments.UpdateFilamentInput{
			TenantID:  tenantID,
			ID:        id,
			Material:  body.Material,
			Color:     body.Color,
			Brand:     body.Brand,
			CostPerKg: body.CostPerKg,
			Notes:     body.Notes,
			IsActive:  body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, roll)
	}
}

// FilamentDelete removes a roll, or deactivates it when movements exist.
func FilamentDelete(svc filaments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filament service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parsePathID(r, chi.URLParam(r, "filamentId"), "filament id")
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

// FilamentMovements lists the ledger entries for a roll, newest first.
func FilamentMovements(svc filaments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filament service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parsePathID(r, chi.URLParam(r, "filamentId"), "filament id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movements, err := svc.Movements(r.Context(), tenantID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, movements)
	}
}

// FilamentAdjust records a stocktake correction against a roll.
func FilamentAdjust(svc filaments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filament service unavailable"))
			return
		}

		tenantID, err := resolveTenantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parsePathID(r, chi.URLParam(r, "filamentId"), "filament id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body filamentAdjustRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roll, err := svc.AdjustWeight(r.Context(), filaments.AdjustWeightInput{
			TenantID:   tenantID,
			FilamentID: id,
			NewWeightG: body.NewWeightG,
			Reason:     body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, roll)
	}
}
