package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/printforge/printforge-backend/api/middleware"
	"github.com/printforge/printforge-backend/internal/filaments"
	"github.com/printforge/printforge-backend/internal/orders"
	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

type fakeOrderService struct {
	transitionErr error
	order         *models.Order
}

func (f fakeOrderService) List(ctx context.Context, tenantID uuid.UUID, status enums.OrderStatus) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (f fakeOrderService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	return f.order, nil
}

func (f fakeOrderService) CreateFromQuote(ctx context.Context, tenantID, quoteID uuid.UUID) (*models.Order, error) {
	return f.order, nil
}

func (f fakeOrderService) Transition(ctx context.Context, tenantID, id uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if f.transitionErr != nil {
		return nil, f.transitionErr
	}
	return f.order, nil
}

func orderStatusRequestWithTenant(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", uuid.NewString())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithTenantID(ctx, uuid.NewString())
	return req.WithContext(ctx)
}

func TestOrderStatusSurfacesShortfalls(t *testing.T) {
	shortfall := filaments.Shortfall{
		FilamentID: uuid.New(),
		Material:   "PLA",
		Color:      "Black",
		MissingG:   decimal.RequireFromString("50.50"),
	}
	svc := fakeOrderService{
		transitionErr: pkgerrors.New(pkgerrors.CodeInsufficientInventory, "insufficient filament stock").
			WithDetails(map[string]any{"missingMaterials": []filaments.Shortfall{shortfall}}),
	}

	resp := httptest.NewRecorder()
	OrderStatus(svc, nil)(resp, orderStatusRequestWithTenant(t, `{"status":"InProduction"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details struct {
				MissingMaterials []struct {
					Material string `json:"material"`
					MissingG string `json:"missingG"`
				} `json:"missingMaterials"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInsufficientInventory) {
		t.Fatalf("expected insufficient inventory code, got %s", envelope.Error.Code)
	}
	if len(envelope.Error.Details.MissingMaterials) != 1 {
		t.Fatalf("expected one shortfall, got %d", len(envelope.Error.Details.MissingMaterials))
	}
	if envelope.Error.Details.MissingMaterials[0].Material != "PLA" {
		t.Fatalf("unexpected shortfall material %s", envelope.Error.Details.MissingMaterials[0].Material)
	}
	if envelope.Error.Details.MissingMaterials[0].MissingG != "50.5" {
		t.Fatalf("unexpected shortfall amount %s", envelope.Error.Details.MissingMaterials[0].MissingG)
	}
}

func TestOrderStatusRejectsUnknownStatus(t *testing.T) {
	resp := httptest.NewRecorder()
	OrderStatus(fakeOrderService{}, nil)(resp, orderStatusRequestWithTenant(t, `{"status":"Teleported"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderStatusRequiresTenant(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"InProduction"}`))
	resp := httptest.NewRecorder()
	OrderStatus(fakeOrderService{}, nil)(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

var _ orders.Service = fakeOrderService{}
