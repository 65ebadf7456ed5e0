// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/inmoflow/rentas-backend/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// Clock abstracts "now" so classification is testable against fixed
// reference instants.
type Clock interface {
	Now() time.Time
}

// LeaseStore defines all data operations on lease documents.
// Implemented by the Supabase adapter (or any other persistence layer).
type LeaseStore interface {
	// Leases
	ListLeases(ctx context.Context, userID string) ([]domain.Lease, error)
	GetLease(ctx context.Context, userID, leaseID string) (*domain.Lease, error)

	// GetLeaseByID looks a lease up without owner scoping. Only the
	// tenant statement path uses it; the lease-scoped token is the
	// access check there.
	GetLeaseByID(ctx context.Context, leaseID string) (*domain.Lease, error)
	CreateLease(ctx context.Context, lease *domain.Lease) (*domain.Lease, error)
	UpdateLease(ctx context.Context, userID, leaseID string, updates map[string]any) (*domain.Lease, error)
	DeleteLease(ctx context.Context, userID, leaseID string) error

	// Embedded collections (stored as jsonb on the lease row)
	ReplacePaymentHistory(ctx context.Context, userID, leaseID string, history []domain.PaymentRecord) (*domain.Lease, error)
	ReplaceTickets(ctx context.Context, userID, leaseID string, tickets []domain.Ticket) (*domain.Lease, error)
}

// AuthStore defines the data operations for operator authentication.
type AuthStore interface {
	GetOperatorByEmail(ctx context.Context, email string) (*domain.OperatorCredential, error)
	UpdateOperator(ctx context.Context, userID string, updates map[string]any) error
}
