package handler

import (
	"net/http"

	"github.com/inmoflow/rentas-backend/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard — /v1/dashboard
// ============================================================

func dashboardSummaryHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/summary")
		defer span.End()

		summary, err := svc.Summary(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func dashboardStatementsHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/statements")
		defer span.End()

		statements, err := svc.Statements(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, statements)
	}
}
