package service

import (
	"context"

	"github.com/inmoflow/rentas-backend/internal/domain"
	"github.com/inmoflow/rentas-backend/internal/infra/observability"
	"github.com/inmoflow/rentas-backend/internal/port"
	"github.com/inmoflow/rentas-backend/internal/schedule"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var stmtTracer = otel.Tracer("service/statement")

// StatementService turns stored lease documents into classified payment
// statements. It owns the only call sites of the schedule package so
// every read path classifies against the same clock.
type StatementService struct {
	store   port.LeaseStore
	metrics *observability.Metrics
	logger  *zap.Logger
	clock   port.Clock
}

// NewStatementService creates a new statement service.
func NewStatementService(store port.LeaseStore, metrics *observability.Metrics, logger *zap.Logger, clock port.Clock) *StatementService {
	return &StatementService{store: store, metrics: metrics, logger: logger, clock: clock}
}

// BuildStatement expands and classifies one lease's payment plan.
func (s *StatementService) BuildStatement(ctx context.Context, userID, leaseID string) (*domain.Statement, error) {
	ctx, span := stmtTracer.Start(ctx, "StatementService.BuildStatement")
	defer span.End()
	span.SetAttributes(attribute.String("lease.id", leaseID))

	lease, err := s.store.GetLease(ctx, userID, leaseID)
	if err != nil {
		return nil, err
	}
	return s.StatementFor(lease)
}

// StatementFor classifies an already-loaded lease. Exposed so the
// dashboard can reuse leases it fetched in bulk.
func (s *StatementService) StatementFor(lease *domain.Lease) (*domain.Statement, error) {
	periods, err := schedule.BuildSchedule(lease)
	if err != nil {
		s.logger.Warn("unschedulable lease",
			zap.String("lease_id", lease.ID),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.RecordScheduleBuilt(len(periods))

	now := s.clock.Now()
	schedule.Classify(periods, now)
	pending, paid := schedule.SplitAndSort(periods)

	stmt := &domain.Statement{
		LeaseID:     lease.ID,
		TenantName:  lease.TenantName,
		Address:     lease.Address,
		MonthlyRent: lease.MonthlyRent,
		Pending:     pending,
		Paid:        paid,
	}
	if next := schedule.NextDue(pending); next != nil {
		days := schedule.DaysUntilNextDue(next.DueDate, now)
		stmt.DaysUntilNextDue = &days
		stmt.NextDue = next
	}
	return stmt, nil
}

// TenantStatement builds the statement behind a tenant link. No owner
// scoping; the lease-scoped token already proved access to this lease.
func (s *StatementService) TenantStatement(ctx context.Context, leaseID string) (*domain.Statement, error) {
	ctx, span := stmtTracer.Start(ctx, "StatementService.TenantStatement")
	defer span.End()
	span.SetAttributes(attribute.String("lease.id", leaseID))

	lease, err := s.store.GetLeaseByID(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	return s.StatementFor(lease)
}

// Schedule returns the full classified plan of one lease in calendar
// order, without the pending/paid split.
func (s *StatementService) Schedule(ctx context.Context, userID, leaseID string) ([]domain.PaymentPeriod, error) {
	ctx, span := stmtTracer.Start(ctx, "StatementService.Schedule")
	defer span.End()

	lease, err := s.store.GetLease(ctx, userID, leaseID)
	if err != nil {
		return nil, err
	}
	periods, err := schedule.BuildSchedule(lease)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordScheduleBuilt(len(periods))
	return schedule.Classify(periods, s.clock.Now()), nil
}
