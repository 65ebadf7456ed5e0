// Package schedule derives a lease's month-by-month payment plan from its
// contractual term and recorded payment history, and classifies the
// resulting periods against a reference instant. Everything in this
// package is pure: no clocks, no stores, no I/O.
package schedule

import (
	"time"

	"github.com/inmoflow/rentas-backend/internal/domain"
)

// MaxPeriods caps the generated plan. Anything a normal residential or
// commercial lease needs fits well under it; terms longer than five years
// are truncated rather than rejected.
const MaxPeriods = 60

// PeriodKeyFormat renders a time as a "YYYY-MM" period key.
const PeriodKeyFormat = "2006-01"

// PeriodKey returns the calendar-month key a point in time falls into.
func PeriodKey(t time.Time) string {
	return t.Format(PeriodKeyFormat)
}

// monthFloor truncates a time to the first instant of its calendar month, UTC.
func monthFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DueDay returns the lease's configured due day, falling back to the
// default when unset or outside 1-31.
func DueDay(l *domain.Lease) int {
	if l.DueDay >= 1 && l.DueDay <= 31 {
		return l.DueDay
	}
	return domain.DefaultDueDay
}

// DueDateFor computes the due date of a period identified by its month
// start. Days past the end of the month roll into the next one (due day 31
// in April yields May 1); this mirrors how the historical data was
// produced, so changing it would silently re-date old periods.
func DueDateFor(monthStart time.Time, dueDay int) time.Time {
	return time.Date(monthStart.Year(), monthStart.Month(), dueDay, 0, 0, 0, 0, time.UTC)
}

// BuildSchedule expands a lease into its full ordered payment plan, one
// period per calendar month from the month of StartDate through the month
// of EndDate, capped at MaxPeriods.
//
// Months covered by a recorded payment keep that record's amount, due
// date and status verbatim. Uncovered months become projected periods at
// the current monthly rent, due on the lease's due day, with a pending
// status that the classifier later resolves against a reference time.
func BuildSchedule(l *domain.Lease) ([]domain.PaymentPeriod, error) {
	if l.EndDate.Before(l.StartDate) {
		return nil, &domain.ErrInvalidTerm{LeaseID: l.ID, Reason: "end date precedes start date"}
	}
	if l.MonthlyRent < 0 {
		return nil, &domain.ErrInvalidTerm{LeaseID: l.ID, Reason: "negative monthly rent"}
	}

	// Later records for the same month win, matching how upserts append.
	byPeriod := make(map[string]*domain.PaymentRecord, len(l.History))
	for i := range l.History {
		rec := &l.History[i]
		byPeriod[rec.PeriodKey] = rec
	}

	dueDay := DueDay(l)
	start := monthFloor(l.StartDate)
	end := monthFloor(l.EndDate)

	var out []domain.PaymentPeriod
	for cur := start; !cur.After(end) && len(out) < MaxPeriods; cur = cur.AddDate(0, 1, 0) {
		key := PeriodKey(cur)
		if rec, ok := byPeriod[key]; ok {
			out = append(out, domain.PaymentPeriod{
				PeriodKey: key,
				DueAmount: rec.Amount,
				DueDate:   rec.DueDate,
				Status:    rec.Status,
				PaidAt:    rec.PaidAt,
				Projected: false,
				Source:    rec,
			})
			continue
		}
		out = append(out, domain.PaymentPeriod{
			PeriodKey: key,
			DueAmount: l.MonthlyRent,
			DueDate:   DueDateFor(cur, dueDay),
			Status:    domain.PaymentPending,
			Projected: true,
		})
	}
	return out, nil
}
