package schedule

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inmoflow/rentas-backend/internal/domain"
)

// Classify resolves every non-paid period's status against the reference
// instant: strictly past its due date means overdue, otherwise pending.
// Paid periods are immutable regardless of their due date. The input
// slice is modified in place and returned for convenience.
func Classify(periods []domain.PaymentPeriod, now time.Time) []domain.PaymentPeriod {
	for i := range periods {
		if periods[i].Status == domain.PaymentPaid {
			continue
		}
		if periods[i].DueDate.Before(now) {
			periods[i].Status = domain.PaymentOverdue
		} else {
			periods[i].Status = domain.PaymentPending
		}
	}
	return periods
}

// SplitAndSort partitions a classified plan into the two views the
// statement shows: outstanding periods oldest first (the next thing owed
// on top) and paid periods most recent first (latest receipt on top).
func SplitAndSort(periods []domain.PaymentPeriod) (pending, paid []domain.PaymentPeriod) {
	for _, p := range periods {
		if p.Status == domain.PaymentPaid {
			paid = append(paid, p)
		} else {
			pending = append(pending, p)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].PeriodKey < pending[j].PeriodKey
	})
	sort.SliceStable(paid, func(i, j int) bool {
		return paid[i].PeriodKey > paid[j].PeriodKey
	})
	return pending, paid
}

// NextDue returns the earliest outstanding period, or nil when the plan
// is fully settled. Expects the pending slice from SplitAndSort.
func NextDue(pending []domain.PaymentPeriod) *domain.PaymentPeriod {
	if len(pending) == 0 {
		return nil
	}
	return &pending[0]
}

// DaysUntilNextDue counts days from now to a due date, rounding any
// partial day up so "due tomorrow morning" reads as 1, not 0. Past due
// dates yield negative values.
func DaysUntilNextDue(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// FeeForRecord computes the agency fee earned on one paid record. A
// per-record override wins outright; otherwise the lease fee model
// applies, with percentage fees taken from the record's own amount so
// historical periods keep the rent they were actually paid at.
func FeeForRecord(l *domain.Lease, rec *domain.PaymentRecord) float64 {
	if rec.FeeOverride != nil {
		return *rec.FeeOverride
	}
	switch l.FeeModel.Kind {
	case domain.FeeFixed:
		return l.FeeModel.Amount
	case domain.FeePercentage:
		fee := decimal.NewFromFloat(rec.Amount).
			Mul(decimal.NewFromFloat(l.FeeModel.Rate)).
			Round(2)
		f, _ := fee.Float64()
		return f
	}
	return 0
}

// FeeForMonth sums the fees on payments actually collected during the
// given month, regardless of which period those payments settle. A March
// payment of January's rent counts toward March's fee income; that is
// when the agency got paid.
func FeeForMonth(l *domain.Lease, month string) float64 {
	total := decimal.Zero
	for i := range l.History {
		rec := &l.History[i]
		if rec.Status != domain.PaymentPaid || rec.PaidAt == nil {
			continue
		}
		if PeriodKey(*rec.PaidAt) != month {
			continue
		}
		total = total.Add(decimal.NewFromFloat(FeeForRecord(l, rec)))
	}
	f, _ := total.Round(2).Float64()
	return f
}

// Arrears sums the due amounts of overdue periods in a classified plan.
func Arrears(periods []domain.PaymentPeriod) float64 {
	total := decimal.Zero
	for _, p := range periods {
		if p.Status == domain.PaymentOverdue {
			total = total.Add(decimal.NewFromFloat(p.DueAmount))
		}
	}
	f, _ := total.Round(2).Float64()
	return f
}
