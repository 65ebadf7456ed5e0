package supabase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inmoflow/rentas-backend/internal/domain"
	"github.com/inmoflow/rentas-backend/internal/infra/observability"
	"github.com/inmoflow/rentas-backend/internal/infra/resilience"
	"github.com/inmoflow/rentas-backend/internal/infra/supabase"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*supabase.Client, *observability.Metrics) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	metrics := observability.NewMetrics()
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond}
	client := supabase.NewClient(srv.Client(), srv.URL, "anon-key", "service-key",
		resilience.NewCircuitBreaker("supabase-test"), cfg, metrics, zap.NewNop())
	return client, metrics
}

func TestListLeasesDecodesRows(t *testing.T) {
	client, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"id": "lease-1",
			"user_id": "op-1",
			"address": "Calle Mayor 12",
			"tenant_name": "Ana García",
			"start_date": "2025-01-01",
			"end_date": "2025-12-31",
			"monthly_rent": 1000,
			"due_day": 10,
			"status": "activo"
		}]`))
	})

	leases, err := client.ListLeases(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("ListLeases() error = %v", err)
	}
	if len(leases) != 1 || leases[0].ID != "lease-1" || leases[0].MonthlyRent != 1000 {
		t.Errorf("ListLeases() = %+v, want one lease-1 at 1000", leases)
	}
	if got := metrics.GetOpsSnapshot().ExternalErrors; got != 0 {
		t.Errorf("external errors = %v after a clean read, want 0", got)
	}
}

func TestListLeasesCountsBackendErrors(t *testing.T) {
	client, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"service unavailable"}`, http.StatusInternalServerError)
	})

	_, err := client.ListLeases(context.Background(), "op-1")
	var extErr *domain.ErrExternalService
	if !errors.As(err, &extErr) {
		t.Fatalf("ListLeases() error = %v, want ErrExternalService", err)
	}
	if got := metrics.GetOpsSnapshot().ExternalErrors; got != 1 {
		t.Errorf("external errors = %v, want 1", got)
	}
}

func TestGetLeaseNotFoundIsNotABackendError(t *testing.T) {
	client, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})

	_, err := client.GetLease(context.Background(), "op-1", "missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("GetLease() error = %v, want ErrNotFound", err)
	}
	if got := metrics.GetOpsSnapshot().ExternalErrors; got != 0 {
		t.Errorf("external errors = %v for a missing row, want 0", got)
	}
}
