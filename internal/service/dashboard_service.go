package service

import (
	"context"
	"fmt"
	"time"

	"github.com/inmoflow/rentas-backend/internal/domain"
	"github.com/inmoflow/rentas-backend/internal/infra/observability"
	"github.com/inmoflow/rentas-backend/internal/infra/resilience"
	"github.com/inmoflow/rentas-backend/internal/port"
	"github.com/inmoflow/rentas-backend/internal/schedule"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashTracer = otel.Tracer("service/dashboard")

// expiringWindowDays bounds the "due soon" card: a lease counts when its
// next due date is between today and five days out, inclusive.
const expiringWindowDays = 5

// DashboardService aggregates portfolio-wide figures for the operator
// dashboard. Summaries are cached per user because every widget on the
// page requests the same numbers.
type DashboardService struct {
	store      port.LeaseStore
	statements *StatementService
	cache      port.Cache[*domain.DashboardSummary]
	bulkhead   *resilience.Bulkhead
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      port.Clock
}

// NewDashboardService creates a new dashboard service. The bulkhead caps
// the per-lease fan-out so one big portfolio cannot starve the process.
func NewDashboardService(
	store port.LeaseStore,
	statements *StatementService,
	cache port.Cache[*domain.DashboardSummary],
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
	clock port.Clock,
) *DashboardService {
	return &DashboardService{
		store:      store,
		statements: statements,
		cache:      cache,
		bulkhead:   bulkhead,
		metrics:    metrics,
		logger:     logger,
		clock:      clock,
	}
}

// Summary computes the dashboard figures for one user's portfolio.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*domain.DashboardSummary, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.Summary")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("dashboard_summary", time.Since(start)) }()

	cacheKey := fmt.Sprintf("dashboard:%s", userID)
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("dashboard")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("dashboard")

	leases, err := s.store.ListLeases(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	month := schedule.PeriodKey(now)

	type leaseFigures struct {
		active       bool
		expiringSoon bool
		fees         decimal.Decimal
		arrears      decimal.Decimal
		openTickets  int
		failed       bool
	}

	results := make([]leaseFigures, len(leases))
	var g errgroup.Group

	for i := range leases {
		i := i
		g.Go(func() error {
			if err := s.bulkhead.Acquire(ctx); err != nil {
				results[i].failed = true
				return nil
			}
			defer s.bulkhead.Release()

			l := &leases[i]
			fig := &results[i]

			fig.active = l.Status == domain.LeaseActive
			fig.fees = decimal.NewFromFloat(schedule.FeeForMonth(l, month))
			for _, t := range l.Tickets {
				if t.Status != "resuelto" {
					fig.openTickets++
				}
			}

			periods, err := schedule.BuildSchedule(l)
			if err != nil {
				// One bad document must not blank the whole dashboard.
				s.logger.Warn("dashboard: skipping unschedulable lease",
					zap.String("lease_id", l.ID),
					zap.Error(err),
				)
				fig.failed = true
				return nil
			}
			schedule.Classify(periods, now)
			fig.arrears = decimal.NewFromFloat(schedule.Arrears(periods))

			pending, _ := schedule.SplitAndSort(periods)
			if next := schedule.NextDue(pending); next != nil && fig.active {
				days := schedule.DaysUntilNextDue(next.DueDate, now)
				fig.expiringSoon = days >= 0 && days <= expiringWindowDays
			}
			return nil
		})
	}
	// The workers only report through results; Wait is for completion.
	_ = g.Wait()

	summary := &domain.DashboardSummary{
		TotalLeases: len(leases),
		Month:       month,
	}
	fees := decimal.Zero
	arrears := decimal.Zero
	for _, fig := range results {
		if fig.active {
			summary.ActiveLeases++
		}
		if fig.expiringSoon {
			summary.ExpiringSoon++
		}
		if fig.failed {
			summary.LeasesInError++
		}
		summary.OpenTickets += fig.openTickets
		fees = fees.Add(fig.fees)
		arrears = arrears.Add(fig.arrears)
	}
	summary.FeesMonth, _ = fees.Round(2).Float64()
	summary.TotalArrears, _ = arrears.Round(2).Float64()

	s.cache.Set(cacheKey, summary)
	return summary, nil
}

// Statements builds the classified statement of every lease in the
// portfolio, for the dashboard's per-lease table.
func (s *DashboardService) Statements(ctx context.Context, userID string) ([]domain.Statement, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.Statements")
	defer span.End()

	leases, err := s.store.ListLeases(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Statement, 0, len(leases))
	for i := range leases {
		stmt, err := s.statements.StatementFor(&leases[i])
		if err != nil {
			continue
		}
		out = append(out, *stmt)
	}
	return out, nil
}
