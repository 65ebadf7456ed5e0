package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/inmoflow/rentas-backend/internal/domain"
	"github.com/inmoflow/rentas-backend/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Auth store (implements port.AuthStore)
// ============================================================

// supabaseOperator maps the `operator_credentials` table.
type supabaseOperator struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	PasswordHash   string `json:"password_hash"`
	FailedAttempts int    `json:"failed_attempts"`
	LockedUntil    string `json:"locked_until"`
}

// GetOperatorByEmail looks up operator credentials. Returns (nil, nil)
// when no operator matches, so callers can distinguish "unknown email"
// from a backend failure.
func (c *Client) GetOperatorByEmail(ctx context.Context, email string) (*domain.OperatorCredential, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetOperatorByEmail")
	defer span.End()
	span.SetAttributes(attribute.String("operator.email", email))

	var cred *domain.OperatorCredential

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("operator_credentials?email=eq.%s&limit=1", url.QueryEscape(email))
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return nil // unknown email, not an error
			}

			var rows []supabaseOperator
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode operator: %w", err)
			}
			if len(rows) == 0 {
				return nil
			}

			r := rows[0]
			cred = &domain.OperatorCredential{
				UserID:         r.UserID,
				Email:          r.Email,
				Name:           r.Name,
				PasswordHash:   r.PasswordHash,
				FailedAttempts: r.FailedAttempts,
			}
			if r.LockedUntil != "" {
				if t, err := time.Parse(time.RFC3339, r.LockedUntil); err == nil {
					cred.LockedUntil = &t
				}
			}
			return nil
		})
	})

	if err != nil {
		return nil, c.externalError("supabase/auth", err)
	}
	return cred, nil
}

// UpdateOperator applies a partial update to the operator row.
func (c *Client) UpdateOperator(ctx context.Context, userID string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateOperator")
	defer span.End()

	path := fmt.Sprintf("operator_credentials?user_id=eq.%s", url.QueryEscape(userID))
	if err := c.doPatch(ctx, path, updates); err != nil {
		return c.externalError("supabase/auth", err)
	}
	return nil
}
