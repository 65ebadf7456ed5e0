package schedule

import (
	"testing"
	"time"

	"github.com/inmoflow/rentas-backend/internal/domain"
)

func TestClassifyMarksStrictlyPastDueAsOverdue(t *testing.T) {
	now := date(2025, time.March, 15)
	periods := []domain.PaymentPeriod{
		{PeriodKey: "2025-02", DueDate: date(2025, time.February, 10), Status: domain.PaymentPending},
		{PeriodKey: "2025-03", DueDate: date(2025, time.March, 15), Status: domain.PaymentPending}, // due exactly now
		{PeriodKey: "2025-04", DueDate: date(2025, time.April, 10), Status: domain.PaymentPending},
	}

	Classify(periods, now)

	if periods[0].Status != domain.PaymentOverdue {
		t.Errorf("past-due period status = %q, want %q", periods[0].Status, domain.PaymentOverdue)
	}
	// Due date equal to now is not yet overdue; the comparison is strict.
	if periods[1].Status != domain.PaymentPending {
		t.Errorf("due-now period status = %q, want %q", periods[1].Status, domain.PaymentPending)
	}
	if periods[2].Status != domain.PaymentPending {
		t.Errorf("future period status = %q, want %q", periods[2].Status, domain.PaymentPending)
	}
}

func TestClassifyNeverTouchesPaidPeriods(t *testing.T) {
	now := date(2025, time.June, 1)
	paidAt := date(2025, time.January, 9)
	periods := []domain.PaymentPeriod{
		{PeriodKey: "2025-01", DueDate: date(2025, time.January, 10), Status: domain.PaymentPaid, PaidAt: &paidAt},
	}

	Classify(periods, now)

	if periods[0].Status != domain.PaymentPaid {
		t.Errorf("paid period reclassified to %q", periods[0].Status)
	}
}

func TestClassifyResolvesStaleOverdueBackToPending(t *testing.T) {
	// A record stored as overdue but whose due date was later pushed into
	// the future must read as pending again.
	now := date(2025, time.March, 1)
	periods := []domain.PaymentPeriod{
		{PeriodKey: "2025-03", DueDate: date(2025, time.March, 10), Status: domain.PaymentOverdue},
	}

	Classify(periods, now)

	if periods[0].Status != domain.PaymentPending {
		t.Errorf("status = %q, want %q", periods[0].Status, domain.PaymentPending)
	}
}

func TestSplitAndSortOrdering(t *testing.T) {
	periods := []domain.PaymentPeriod{
		{PeriodKey: "2025-03", Status: domain.PaymentPending},
		{PeriodKey: "2025-01", Status: domain.PaymentPaid},
		{PeriodKey: "2025-04", Status: domain.PaymentOverdue},
		{PeriodKey: "2025-02", Status: domain.PaymentPaid},
		{PeriodKey: "2025-05", Status: domain.PaymentPending},
	}

	pending, paid := SplitAndSort(periods)

	wantPending := []string{"2025-03", "2025-04", "2025-05"}
	if len(pending) != len(wantPending) {
		t.Fatalf("pending len = %d, want %d", len(pending), len(wantPending))
	}
	for i, p := range pending {
		if p.PeriodKey != wantPending[i] {
			t.Errorf("pending[%d] = %q, want %q (oldest first)", i, p.PeriodKey, wantPending[i])
		}
	}

	wantPaid := []string{"2025-02", "2025-01"}
	if len(paid) != len(wantPaid) {
		t.Fatalf("paid len = %d, want %d", len(paid), len(wantPaid))
	}
	for i, p := range paid {
		if p.PeriodKey != wantPaid[i] {
			t.Errorf("paid[%d] = %q, want %q (most recent first)", i, p.PeriodKey, wantPaid[i])
		}
	}
}

func TestNextDue(t *testing.T) {
	pending := []domain.PaymentPeriod{
		{PeriodKey: "2025-03"},
		{PeriodKey: "2025-04"},
	}
	if nd := NextDue(pending); nd == nil || nd.PeriodKey != "2025-03" {
		t.Errorf("NextDue = %+v, want the 2025-03 period", nd)
	}
	if nd := NextDue(nil); nd != nil {
		t.Errorf("NextDue(empty) = %+v, want nil", nd)
	}
}

func TestDaysUntilNextDueRoundsPartialDaysUp(t *testing.T) {
	now := time.Date(2025, time.March, 9, 18, 0, 0, 0, time.UTC)

	// 6 hours away still counts as one day out.
	if got := DaysUntilNextDue(date(2025, time.March, 10), now); got != 1 {
		t.Errorf("DaysUntilNextDue(+6h) = %d, want 1", got)
	}
	if got := DaysUntilNextDue(date(2025, time.March, 15), now); got != 6 {
		t.Errorf("DaysUntilNextDue(+5d6h) = %d, want 6", got)
	}
	if got := DaysUntilNextDue(date(2025, time.March, 9), now); got != 0 {
		t.Errorf("DaysUntilNextDue(-18h) = %d, want 0", got)
	}
	if got := DaysUntilNextDue(date(2025, time.March, 5), now); got >= 0 {
		t.Errorf("DaysUntilNextDue(past) = %d, want negative", got)
	}
}

func TestFeeForRecordPercentage(t *testing.T) {
	l := &domain.Lease{FeeModel: domain.FeeModel{Kind: domain.FeePercentage, Rate: 0.08}}
	rec := &domain.PaymentRecord{Amount: 1200}

	if got := FeeForRecord(l, rec); got != 96 {
		t.Errorf("8%% of 1200 = %v, want 96", got)
	}
}

func TestFeeForRecordFixed(t *testing.T) {
	l := &domain.Lease{FeeModel: domain.FeeModel{Kind: domain.FeeFixed, Amount: 120}}
	rec := &domain.PaymentRecord{Amount: 1200}

	if got := FeeForRecord(l, rec); got != 120 {
		t.Errorf("fixed fee = %v, want 120", got)
	}
}

func TestFeeForRecordOverrideWins(t *testing.T) {
	override := 50.0
	l := &domain.Lease{FeeModel: domain.FeeModel{Kind: domain.FeePercentage, Rate: 0.08}}
	rec := &domain.PaymentRecord{Amount: 1200, FeeOverride: &override}

	if got := FeeForRecord(l, rec); got != 50 {
		t.Errorf("override fee = %v, want 50", got)
	}
}

func TestFeeForRecordNoModel(t *testing.T) {
	l := &domain.Lease{}
	rec := &domain.PaymentRecord{Amount: 1200}

	if got := FeeForRecord(l, rec); got != 0 {
		t.Errorf("fee without model = %v, want 0", got)
	}
}

func TestFeeForMonthCountsByPaymentDateNotPeriod(t *testing.T) {
	l := &domain.Lease{FeeModel: domain.FeeModel{Kind: domain.FeePercentage, Rate: 0.08}}

	janPaidInMarch := date(2025, time.March, 3)
	marchPaidInMarch := date(2025, time.March, 12)
	febPaidInFeb := date(2025, time.February, 10)
	l.History = []domain.PaymentRecord{
		// January's rent, settled late in March: counts toward March.
		{PeriodKey: "2025-01", Amount: 1200, Status: domain.PaymentPaid, PaidAt: &janPaidInMarch},
		{PeriodKey: "2025-02", Amount: 1200, Status: domain.PaymentPaid, PaidAt: &febPaidInFeb},
		{PeriodKey: "2025-03", Amount: 1200, Status: domain.PaymentPaid, PaidAt: &marchPaidInMarch},
		// Unpaid records never earn fees.
		{PeriodKey: "2025-04", Amount: 1200, Status: domain.PaymentPending},
	}

	if got := FeeForMonth(l, "2025-03"); got != 192 {
		t.Errorf("March fee income = %v, want 192 (two payments collected in March)", got)
	}
	if got := FeeForMonth(l, "2025-02"); got != 96 {
		t.Errorf("February fee income = %v, want 96", got)
	}
	if got := FeeForMonth(l, "2025-01"); got != 0 {
		t.Errorf("January fee income = %v, want 0 (nothing collected that month)", got)
	}
}

func TestArrears(t *testing.T) {
	periods := []domain.PaymentPeriod{
		{PeriodKey: "2025-01", DueAmount: 1000, Status: domain.PaymentOverdue},
		{PeriodKey: "2025-02", DueAmount: 1000, Status: domain.PaymentOverdue},
		{PeriodKey: "2025-03", DueAmount: 1000, Status: domain.PaymentPending},
		{PeriodKey: "2024-12", DueAmount: 1000, Status: domain.PaymentPaid},
	}

	if got := Arrears(periods); got != 2000 {
		t.Errorf("Arrears = %v, want 2000", got)
	}
}
