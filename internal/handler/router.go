package handler

import (
	"net/http"
	"time"

	"github.com/inmoflow/rentas-backend/internal/domain"
	"github.com/inmoflow/rentas-backend/internal/infra/observability"
	"github.com/inmoflow/rentas-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(
	leaseSvc *service.LeaseService,
	stmtSvc *service.StatementService,
	dashSvc *service.DashboardService,
	authSvc *service.AuthService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(leaseSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Autenticación
		// POST /v1/auth/login
		// =============================================
		r.Post("/auth/login", authLoginHandler(authSvc, logger))

		// =============================================
		// 2. Alquileres (protected)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			r.Route("/leases", func(r chi.Router) {
				r.Get("/", listLeasesHandler(leaseSvc, logger))
				r.Post("/", createLeaseHandler(leaseSvc, logger))

				r.Route("/{leaseId}", func(r chi.Router) {
					r.Get("/", getLeaseHandler(leaseSvc, logger))
					r.Patch("/", updateLeaseHandler(leaseSvc, logger))
					r.Delete("/", deleteLeaseHandler(leaseSvc, logger))

					r.Get("/schedule", scheduleHandler(stmtSvc, logger))
					r.Get("/statement", statementHandler(stmtSvc, logger))
					r.Post("/payments", registerPaymentHandler(leaseSvc, logger))
					r.Post("/adjustment", adjustRentHandler(leaseSvc, logger))
					r.Get("/tickets", listTicketsHandler(leaseSvc, logger))
					r.Post("/tickets", createTicketHandler(leaseSvc, logger))
					r.Patch("/tickets/{ticketId}", updateTicketHandler(leaseSvc, logger))
					r.Post("/tenant-link", tenantLinkHandler(authSvc, leaseSvc, logger))
				})
			})

			// =============================================
			// 3. Dashboard
			// =============================================
			r.Get("/dashboard/summary", dashboardSummaryHandler(dashSvc, logger))
			r.Get("/dashboard/statements", dashboardStatementsHandler(dashSvc, logger))

			// =============================================
			// 4. Métricas (quick counters, no Prometheus stack needed)
			// =============================================
			r.Get("/metrics/summary", opsMetricsHandler(metrics, logger))
		})

		// =============================================
		// 5. Portal del inquilino (lease-scoped token)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(TenantAuthMiddleware(authSvc, logger))
			r.Get("/tenant/statement", tenantStatementHandler(stmtSvc, logger))
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(leaseSvc *service.LeaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "rentas-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if leaseSvc != nil {
			start := time.Now()
			_, err := leaseSvc.ListLeases(ctx, "health-check")
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func opsMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetOpsSnapshot())
	}
}
