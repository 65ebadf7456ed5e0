// Package service provides the business logic layer (use cases).
// LeaseService handles the lease lifecycle: CRUD, payment registration,
// rent adjustments and maintenance tickets.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/inmoflow/rentas-backend/internal/domain"
	"github.com/inmoflow/rentas-backend/internal/infra/observability"
	"github.com/inmoflow/rentas-backend/internal/port"
	"github.com/inmoflow/rentas-backend/internal/schedule"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var leaseTracer = otel.Tracer("service/lease")

// LeaseService orchestrates lease operations via the Supabase store.
type LeaseService struct {
	store   port.LeaseStore
	metrics *observability.Metrics
	logger  *zap.Logger
	clock   port.Clock
}

// NewLeaseService creates a new lease service.
func NewLeaseService(store port.LeaseStore, metrics *observability.Metrics, logger *zap.Logger, clock port.Clock) *LeaseService {
	return &LeaseService{store: store, metrics: metrics, logger: logger, clock: clock}
}

// ============================================================
// CRUD
// ============================================================

func (s *LeaseService) ListLeases(ctx context.Context, userID string) ([]domain.Lease, error) {
	ctx, span := leaseTracer.Start(ctx, "LeaseService.ListLeases")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.store.ListLeases(ctx, userID)
}

func (s *LeaseService) GetLease(ctx context.Context, userID, leaseID string) (*domain.Lease, error) {
	ctx, span := leaseTracer.Start(ctx, "LeaseService.GetLease")
	defer span.End()

	return s.store.GetLease(ctx, userID, leaseID)
}

// CreateLeaseRequest is the input for CreateLease.
type CreateLeaseRequest struct {
	PropertyID    string            `json:"property_id"`
	Address       string            `json:"address"`
	TenantID      string            `json:"tenant_id"`
	TenantName    string            `json:"tenant_name"`
	TenantContact string            `json:"tenant_contact"`
	StartDate     time.Time         `json:"start_date"`
	EndDate       time.Time         `json:"end_date"`
	MonthlyRent   float64           `json:"monthly_rent"`
	DueDay        int               `json:"due_day"`
	FeeModel      domain.FeeModel   `json:"fee_model"`
	Adjustment    domain.Adjustment `json:"adjustment"`
	Status        string            `json:"status"`
}

func (s *LeaseService) CreateLease(ctx context.Context, userID string, req *CreateLeaseRequest) (*domain.Lease, error) {
	ctx, span := leaseTracer.Start(ctx, "LeaseService.CreateLease")
	defer span.End()

	if req.TenantName == "" {
		return nil, &domain.ErrValidation{Field: "tenant_name", Message: "required"}
	}
	if req.Address == "" {
		return nil, &domain.ErrValidation{Field: "address", Message: "required"}
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, &domain.ErrValidation{Field: "end_date", Message: "must not precede start_date"}
	}
	if req.MonthlyRent < 0 {
		return nil, &domain.ErrValidation{Field: "monthly_rent", Message: "must not be negative"}
	}
	switch req.FeeModel.Kind {
	case "", domain.FeeFixed, domain.FeePercentage:
	default:
		return nil, &domain.ErrValidation{Field: "fee_model.kind", Message: fmt.Sprintf("unknown kind '%s'", req.FeeModel.Kind)}
	}

	status := req.Status
	if status == "" {
		status = domain.LeasePending
	}

	now := s.clock.Now()
	lease := &domain.Lease{
		ID:            uuid.New().String(),
		UserID:        userID,
		PropertyID:    req.PropertyID,
		Address:       req.Address,
		TenantID:      req.TenantID,
		TenantName:    req.TenantName,
		TenantContact: req.TenantContact,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		MonthlyRent:   req.MonthlyRent,
		DueDay:        req.DueDay,
		FeeModel:      req.FeeModel,
		Adjustment:    req.Adjustment,
		History:       []domain.PaymentRecord{},
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.store.CreateLease(ctx, lease)
	if err != nil {
		s.logger.Error("failed to create lease", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("lease created",
		zap.String("user_id", userID),
		zap.String("lease_id", created.ID),
		zap.String("tenant", created.TenantName),
	)
	return created, nil
}

// UpdateLease applies a partial update to the lease row.
func (s *LeaseService) UpdateLease(ctx context.Context, userID, leaseID string, updates map[string]any) (*domain.Lease, error) {
	ctx, span := leaseTracer.Start(ctx, "LeaseService.UpdateLease")
	defer span.End()

	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}
	if status, ok := updates["status"].(string); ok {
		switch status {
		case domain.LeaseActive, domain.LeasePending, domain.LeaseFinished:
		default:
			return nil, &domain.ErrValidation{Field: "status", Message: fmt.Sprintf("unknown status '%s'", status)}
		}
	}
	updates["updated_at"] = s.clock.Now().Format(time.RFC3339)

	return s.store.UpdateLease(ctx, userID, leaseID, updates)
}

func (s *LeaseService) DeleteLease(ctx context.Context, userID, leaseID string) error {
	ctx, span := leaseTracer.Start(ctx, "LeaseService.DeleteLease")
	defer span.End()

	if err := s.store.DeleteLease(ctx, userID, leaseID); err != nil {
		return err
	}
	s.logger.Info("lease deleted", zap.String("user_id", userID), zap.String("lease_id", leaseID))
	return nil
}

// ============================================================
// Payments
// ============================================================

// RegisterPaymentRequest is the input for RegisterPayment.
type RegisterPaymentRequest struct {
	PeriodKey   string     `json:"period"`
	Amount      float64    `json:"amount"`
	PaidAt      *time.Time `json:"paid_at"`
	Method      string     `json:"method"`
	ReceiptURL  string     `json:"receipt_url"`
	FeeOverride *float64   `json:"fee_override"`
}

// RegisterPayment marks a period as paid, upserting by period key: if the
// month already has a record it is replaced, otherwise a new one is
// appended. The lease is reloaded, mutated and written back whole since
// the history lives embedded in the lease row.
func (s *LeaseService) RegisterPayment(ctx context.Context, userID, leaseID string, req *RegisterPaymentRequest) (*domain.Lease, error) {
	ctx, span := leaseTracer.Start(ctx, "LeaseService.RegisterPayment")
	defer span.End()
	span.SetAttributes(attribute.String("lease.id", leaseID), attribute.String("period", req.PeriodKey))

	if !validPeriodKey(req.PeriodKey) {
		return nil, &domain.ErrValidation{Field: "period", Message: "must be YYYY-MM"}
	}
	if req.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}

	lease, err := s.store.GetLease(ctx, userID, leaseID)
	if err != nil {
		return nil, err
	}

	periodStart, err := time.Parse(schedule.PeriodKeyFormat, req.PeriodKey)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "period", Message: "must be YYYY-MM"}
	}

	paidAt := req.PaidAt
	if paidAt == nil {
		now := s.clock.Now()
		paidAt = &now
	}

	rec := domain.PaymentRecord{
		ID:          uuid.New().String(),
		PeriodKey:   req.PeriodKey,
		Amount:      req.Amount,
		DueDate:     schedule.DueDateFor(periodStart, schedule.DueDay(lease)),
		Status:      domain.PaymentPaid,
		PaidAt:      paidAt,
		Method:      req.Method,
		ReceiptURL:  req.ReceiptURL,
		FeeOverride: req.FeeOverride,
	}
	if req.Amount == 0 {
		rec.Amount = lease.MonthlyRent
	}

	history := upsertRecord(lease.History, rec)
	updated, err := s.store.ReplacePaymentHistory(ctx, userID, leaseID, history)
	if err != nil {
		s.logger.Error("failed to register payment",
			zap.String("lease_id", leaseID),
			zap.String("period", req.PeriodKey),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordPaymentRegistered()
	s.logger.Info("payment registered",
		zap.String("lease_id", leaseID),
		zap.String("period", req.PeriodKey),
		zap.Float64("amount", rec.Amount),
	)
	return updated, nil
}

// upsertRecord replaces the record for the same period in place, or
// appends when the period has no record yet.
func upsertRecord(history []domain.PaymentRecord, rec domain.PaymentRecord) []domain.PaymentRecord {
	for i := range history {
		if history[i].PeriodKey == rec.PeriodKey {
			history[i] = rec
			return history
		}
	}
	return append(history, rec)
}

func validPeriodKey(key string) bool {
	if len(key) != 7 || key[4] != '-' {
		return false
	}
	_, err := time.Parse(schedule.PeriodKeyFormat, key)
	return err == nil
}

// ============================================================
// Rent adjustments
// ============================================================

// AdjustRentRequest is the input for ApplyRentAdjustment.
type AdjustRentRequest struct {
	Kind    string  `json:"kind"`              // percentage, manual, index
	Value   float64 `json:"value"`             // percent for percentage, new rent for manual/index
	Effect  string  `json:"effective_period"`  // optional "YYYY-MM"; informational
	Comment string  `json:"comment,omitempty"` // informational
}

// ApplyRentAdjustment recalculates the monthly rent. Existing history is
// untouched; only future projected periods pick up the new amount.
func (s *LeaseService) ApplyRentAdjustment(ctx context.Context, userID, leaseID string, req *AdjustRentRequest) (*domain.Lease, error) {
	ctx, span := leaseTracer.Start(ctx, "LeaseService.ApplyRentAdjustment")
	defer span.End()

	lease, err := s.store.GetLease(ctx, userID, leaseID)
	if err != nil {
		return nil, err
	}

	var newRent float64
	switch req.Kind {
	case domain.AdjustPercentage:
		rent := decimal.NewFromFloat(lease.MonthlyRent)
		factor := decimal.NewFromFloat(1).Add(decimal.NewFromFloat(req.Value).Div(decimal.NewFromInt(100)))
		newRent, _ = rent.Mul(factor).Round(2).Float64()
	case domain.AdjustManual, domain.AdjustIndex:
		newRent = req.Value
	default:
		return nil, &domain.ErrValidation{Field: "kind", Message: fmt.Sprintf("unknown adjustment kind '%s'", req.Kind)}
	}
	if newRent < 0 {
		return nil, &domain.ErrValidation{Field: "value", Message: "adjusted rent must not be negative"}
	}

	updates := map[string]any{
		"monthly_rent": newRent,
		"adjustment":   domain.Adjustment{Kind: req.Kind, Value: req.Value},
		"updated_at":   s.clock.Now().Format(time.RFC3339),
	}
	updated, err := s.store.UpdateLease(ctx, userID, leaseID, updates)
	if err != nil {
		s.logger.Error("failed to apply rent adjustment", zap.String("lease_id", leaseID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("rent adjusted",
		zap.String("lease_id", leaseID),
		zap.String("kind", req.Kind),
		zap.Float64("old_rent", lease.MonthlyRent),
		zap.Float64("new_rent", newRent),
	)
	return updated, nil
}

// ============================================================
// Tickets
// ============================================================

// CreateTicketRequest is the input for CreateTicket.
type CreateTicketRequest struct {
	Title string `json:"title"`
	Desc  string `json:"description"`
}

func (s *LeaseService) CreateTicket(ctx context.Context, userID, leaseID string, req *CreateTicketRequest) (*domain.Lease, error) {
	ctx, span := leaseTracer.Start(ctx, "LeaseService.CreateTicket")
	defer span.End()

	if req.Title == "" {
		return nil, &domain.ErrValidation{Field: "title", Message: "required"}
	}

	lease, err := s.store.GetLease(ctx, userID, leaseID)
	if err != nil {
		return nil, err
	}

	ticket := domain.Ticket{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Desc:      req.Desc,
		Status:    "abierto",
		CreatedAt: s.clock.Now(),
	}
	return s.store.ReplaceTickets(ctx, userID, leaseID, append(lease.Tickets, ticket))
}

// UpdateTicketRequest is the input for UpdateTicket.
type UpdateTicketRequest struct {
	Status  string `json:"status,omitempty"`
	Comment string `json:"comment,omitempty"`
}

func (s *LeaseService) UpdateTicket(ctx context.Context, userID, leaseID, ticketID string, req *UpdateTicketRequest) (*domain.Lease, error) {
	ctx, span := leaseTracer.Start(ctx, "LeaseService.UpdateTicket")
	defer span.End()

	lease, err := s.store.GetLease(ctx, userID, leaseID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range lease.Tickets {
		if lease.Tickets[i].ID == ticketID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, &domain.ErrNotFound{Resource: "ticket", ID: ticketID}
	}

	t := &lease.Tickets[idx]
	if req.Status != "" {
		switch req.Status {
		case "abierto", "en_proceso", "resuelto":
		default:
			return nil, &domain.ErrValidation{Field: "status", Message: fmt.Sprintf("unknown status '%s'", req.Status)}
		}
		t.Status = req.Status
		if req.Status == "resuelto" {
			now := s.clock.Now()
			t.ResolvedAt = &now
		}
	}
	if req.Comment != "" {
		t.Comments = append(t.Comments, req.Comment)
	}

	return s.store.ReplaceTickets(ctx, userID, leaseID, lease.Tickets)
}
