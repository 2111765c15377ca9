package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/printforge/printforge-backend/api/middleware"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
)

// resolveTenantID extracts the workshop scope every private route runs under.
func resolveTenantID(r *http.Request) (uuid.UUID, error) {
	tenantID := middleware.TenantIDFromContext(r.Context())
	if tenantID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	id, err := uuid.Parse(tenantID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tenant id")
	}
	return id, nil
}

func parsePathID(r *http.Request, raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return id, nil
}
