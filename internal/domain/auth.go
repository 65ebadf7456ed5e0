package domain

import "time"

// ============================================================
// Authentication (operators + tenant statement links)
// ============================================================

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed access token for an operator session.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // seconds
	UserID      string `json:"user_id"`
	Name        string `json:"name,omitempty"`
}

// OperatorCredential is an operator login row.
type OperatorCredential struct {
	UserID         string     `json:"user_id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	PasswordHash   string     `json:"password_hash"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
}

// TenantLink is an access-gated statement link for one lease. The token is
// a lease-scoped JWT; whoever holds the link can read that lease's
// statement and nothing else.
type TenantLink struct {
	LeaseID   string `json:"lease_id"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // seconds
}
