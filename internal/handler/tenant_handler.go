package handler

import (
	"net/http"

	"github.com/inmoflow/rentas-backend/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Portal del inquilino — GET /v1/tenant/statement
// ============================================================

func tenantStatementHandler(svc *service.StatementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/tenant/statement")
		defer span.End()

		leaseID := LeaseIDFromContext(ctx)
		span.SetAttributes(attribute.String("lease.id", leaseID))

		stmt, err := svc.TenantStatement(ctx, leaseID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stmt)
	}
}
