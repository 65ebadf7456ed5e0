package handler

import (
	"encoding/json"
	"net/http"

	"github.com/inmoflow/rentas-backend/internal/domain"
	"github.com/inmoflow/rentas-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Alquileres — /v1/leases
// ============================================================

func listLeasesHandler(svc *service.LeaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/leases")
		defer span.End()

		userID := UserIDFromContext(ctx)
		leases, err := svc.ListLeases(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, leases)
	}
}

func createLeaseHandler(svc *service.LeaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/leases")
		defer span.End()

		var req service.CreateLeaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lease, err := svc.CreateLease(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, lease)
	}
}

func getLeaseHandler(svc *service.LeaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/leases/{leaseId}")
		defer span.End()

		leaseID := chi.URLParam(r, "leaseId")
		span.SetAttributes(attribute.String("lease.id", leaseID))

		lease, err := svc.GetLease(ctx, UserIDFromContext(ctx), leaseID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lease)
	}
}

func updateLeaseHandler(svc *service.LeaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/leases/{leaseId}")
		defer span.End()

		var updates map[string]any
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lease, err := svc.UpdateLease(ctx, UserIDFromContext(ctx), chi.URLParam(r, "leaseId"), updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lease)
	}
}

func deleteLeaseHandler(svc *service.LeaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/leases/{leaseId}")
		defer span.End()

		if err := svc.DeleteLease(ctx, UserIDFromContext(ctx), chi.URLParam(r, "leaseId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Plan de pagos — GET /v1/leases/{leaseId}/schedule
// ============================================================

func scheduleHandler(svc *service.StatementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/leases/{leaseId}/schedule")
		defer span.End()

		periods, err := svc.Schedule(ctx, UserIDFromContext(ctx), chi.URLParam(r, "leaseId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, periods)
	}
}

func statementHandler(svc *service.StatementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/leases/{leaseId}/statement")
		defer span.End()

		stmt, err := svc.BuildStatement(ctx, UserIDFromContext(ctx), chi.URLParam(r, "leaseId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stmt)
	}
}

// ============================================================
// Pagos — POST /v1/leases/{leaseId}/payments
// ============================================================

func registerPaymentHandler(svc *service.LeaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/leases/{leaseId}/payments")
		defer span.End()

		var req service.RegisterPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lease, err := svc.RegisterPayment(ctx, UserIDFromContext(ctx), chi.URLParam(r, "leaseId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lease)
	}
}

// ============================================================
// Ajuste de renta — POST /v1/leases/{leaseId}/adjustment
// ============================================================

func adjustRentHandler(svc *service.LeaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/leases/{leaseId}/adjustment")
		defer span.End()

		var req service.AdjustRentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lease, err := svc.ApplyRentAdjustment(ctx, UserIDFromContext(ctx), chi.URLParam(r, "leaseId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lease)
	}
}

// ============================================================
// Incidencias — /v1/leases/{leaseId}/tickets
// ============================================================

func listTicketsHandler(svc *service.LeaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/leases/{leaseId}/tickets")
		defer span.End()

		lease, err := svc.GetLease(ctx, UserIDFromContext(ctx), chi.URLParam(r, "leaseId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		tickets := lease.Tickets
		if tickets == nil {
			tickets = []domain.Ticket{}
		}
		writeJSON(w, http.StatusOK, tickets)
	}
}

func createTicketHandler(svc *service.LeaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/leases/{leaseId}/tickets")
		defer span.End()

		var req service.CreateTicketRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lease, err := svc.CreateTicket(ctx, UserIDFromContext(ctx), chi.URLParam(r, "leaseId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, lease)
	}
}

func updateTicketHandler(svc *service.LeaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/leases/{leaseId}/tickets/{ticketId}")
		defer span.End()

		var req service.UpdateTicketRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lease, err := svc.UpdateTicket(ctx, UserIDFromContext(ctx),
			chi.URLParam(r, "leaseId"), chi.URLParam(r, "ticketId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lease)
	}
}

// ============================================================
// Enlace del inquilino — POST /v1/leases/{leaseId}/tenant-link
// ============================================================

func tenantLinkHandler(authSvc *service.AuthService, leaseSvc *service.LeaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/leases/{leaseId}/tenant-link")
		defer span.End()

		leaseID := chi.URLParam(r, "leaseId")

		// The link must only be mintable by the lease's owner.
		if _, err := leaseSvc.GetLease(ctx, UserIDFromContext(ctx), leaseID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		link, err := authSvc.IssueTenantLink(ctx, leaseID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, link)
	}
}
