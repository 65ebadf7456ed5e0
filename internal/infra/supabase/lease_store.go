package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/inmoflow/rentas-backend/internal/domain"
	"github.com/inmoflow/rentas-backend/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Lease store (implements port.LeaseStore)
// ============================================================

// supabaseLease maps the `leases` table. Payment history and tickets
// are jsonb columns holding the embedded documents whole.
type supabaseLease struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"user_id"`
	PropertyID    string                 `json:"property_id"`
	Address       string                 `json:"address"`
	TenantID      string                 `json:"tenant_id"`
	TenantName    string                 `json:"tenant_name"`
	TenantContact string                 `json:"tenant_contact"`
	StartDate     string                 `json:"start_date"`
	EndDate       string                 `json:"end_date"`
	MonthlyRent   float64                `json:"monthly_rent"`
	DueDay        int                    `json:"due_day"`
	FeeModel      domain.FeeModel        `json:"fee_model"`
	Adjustment    domain.Adjustment      `json:"adjustment"`
	History       []domain.PaymentRecord `json:"payment_history"`
	Tickets       []domain.Ticket        `json:"tickets"`
	Status        string                 `json:"status"`
	CreatedAt     string                 `json:"created_at"`
	UpdatedAt     string                 `json:"updated_at"`
}

func (r *supabaseLease) toDomain() domain.Lease {
	return domain.Lease{
		ID:            r.ID,
		UserID:        r.UserID,
		PropertyID:    r.PropertyID,
		Address:       r.Address,
		TenantID:      r.TenantID,
		TenantName:    r.TenantName,
		TenantContact: r.TenantContact,
		StartDate:     parseDate(r.StartDate),
		EndDate:       parseDate(r.EndDate),
		MonthlyRent:   r.MonthlyRent,
		DueDay:        r.DueDay,
		FeeModel:      r.FeeModel,
		Adjustment:    r.Adjustment,
		History:       r.History,
		Tickets:       r.Tickets,
		Status:        r.Status,
		CreatedAt:     parseDate(r.CreatedAt),
		UpdatedAt:     parseDate(r.UpdatedAt),
	}
}

// parseDate accepts both timestamptz and date column renderings.
func parseDate(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// ListLeases returns every lease owned by the user.
func (c *Client) ListLeases(ctx context.Context, userID string) ([]domain.Lease, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListLeases")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var leases []domain.Lease

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("leases?user_id=eq.%s&order=created_at.desc", url.QueryEscape(userID))
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				leases = []domain.Lease{}
				return nil
			}

			var rows []supabaseLease
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode leases: %w", err)
			}

			leases = make([]domain.Lease, 0, len(rows))
			for i := range rows {
				leases = append(leases, rows[i].toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, c.externalError("supabase/leases", err)
	}
	return leases, nil
}

// GetLease fetches one lease, scoped to its owner.
func (c *Client) GetLease(ctx context.Context, userID, leaseID string) (*domain.Lease, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetLease")
	defer span.End()
	span.SetAttributes(attribute.String("lease.id", leaseID))

	var lease *domain.Lease

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("leases?id=eq.%s&user_id=eq.%s&limit=1",
				url.QueryEscape(leaseID), url.QueryEscape(userID))
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "lease", ID: leaseID}
			}

			var rows []supabaseLease
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode lease: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "lease", ID: leaseID}
			}

			l := rows[0].toDomain()
			lease = &l
			return nil
		})
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, c.externalError("supabase/leases", err)
	}
	return lease, nil
}

// GetLeaseByID fetches one lease without owner scoping. Used by the
// tenant statement path, where the lease-scoped token is the access
// control.
func (c *Client) GetLeaseByID(ctx context.Context, leaseID string) (*domain.Lease, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetLeaseByID")
	defer span.End()
	span.SetAttributes(attribute.String("lease.id", leaseID))

	var lease *domain.Lease

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("leases?id=eq.%s&limit=1", url.QueryEscape(leaseID))
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "lease", ID: leaseID}
			}

			var rows []supabaseLease
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode lease: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "lease", ID: leaseID}
			}

			l := rows[0].toDomain()
			lease = &l
			return nil
		})
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, c.externalError("supabase/leases", err)
	}
	return lease, nil
}

// CreateLease inserts a new lease row.
func (c *Client) CreateLease(ctx context.Context, lease *domain.Lease) (*domain.Lease, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateLease")
	defer span.End()

	row := map[string]any{
		"id":              lease.ID,
		"user_id":         lease.UserID,
		"property_id":     lease.PropertyID,
		"address":         lease.Address,
		"tenant_id":       lease.TenantID,
		"tenant_name":     lease.TenantName,
		"tenant_contact":  lease.TenantContact,
		"start_date":      lease.StartDate.Format(time.RFC3339),
		"end_date":        lease.EndDate.Format(time.RFC3339),
		"monthly_rent":    lease.MonthlyRent,
		"due_day":         lease.DueDay,
		"fee_model":       lease.FeeModel,
		"adjustment":      lease.Adjustment,
		"payment_history": lease.History,
		"tickets":         lease.Tickets,
		"status":          lease.Status,
		"created_at":      lease.CreatedAt.Format(time.RFC3339),
		"updated_at":      lease.UpdatedAt.Format(time.RFC3339),
	}

	body, err := c.doPost(ctx, "leases", row)
	if err != nil {
		c.logger.Error("supabase: create lease failed", zap.String("lease_id", lease.ID), zap.Error(err))
		return nil, c.externalError("supabase/leases", err)
	}

	var rows []supabaseLease
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		// Insert succeeded; fall back to what we sent.
		return lease, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

// UpdateLease applies a partial update and returns the updated row.
func (c *Client) UpdateLease(ctx context.Context, userID, leaseID string, updates map[string]any) (*domain.Lease, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateLease")
	defer span.End()
	span.SetAttributes(attribute.String("lease.id", leaseID))

	path := fmt.Sprintf("leases?id=eq.%s&user_id=eq.%s",
		url.QueryEscape(leaseID), url.QueryEscape(userID))
	body, err := c.doPatchReturning(ctx, path, updates)
	if err != nil {
		return nil, c.externalError("supabase/leases", err)
	}

	var rows []supabaseLease
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, c.externalError("supabase/leases", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "lease", ID: leaseID}
	}
	updated := rows[0].toDomain()
	return &updated, nil
}

// DeleteLease removes a lease row, scoped to its owner.
func (c *Client) DeleteLease(ctx context.Context, userID, leaseID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteLease")
	defer span.End()

	path := fmt.Sprintf("leases?id=eq.%s&user_id=eq.%s",
		url.QueryEscape(leaseID), url.QueryEscape(userID))
	if err := c.doDelete(ctx, path); err != nil {
		return c.externalError("supabase/leases", err)
	}
	return nil
}

// ReplacePaymentHistory overwrites the embedded history document.
func (c *Client) ReplacePaymentHistory(ctx context.Context, userID, leaseID string, history []domain.PaymentRecord) (*domain.Lease, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ReplacePaymentHistory")
	defer span.End()
	span.SetAttributes(attribute.String("lease.id", leaseID))

	return c.UpdateLease(ctx, userID, leaseID, map[string]any{
		"payment_history": history,
		"updated_at":      time.Now().UTC().Format(time.RFC3339),
	})
}

// ReplaceTickets overwrites the embedded tickets document.
func (c *Client) ReplaceTickets(ctx context.Context, userID, leaseID string, tickets []domain.Ticket) (*domain.Lease, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ReplaceTickets")
	defer span.End()

	return c.UpdateLease(ctx, userID, leaseID, map[string]any{
		"tickets":    tickets,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
}
