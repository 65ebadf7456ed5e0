package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inmoflow/rentas-backend/internal/domain"
	"github.com/inmoflow/rentas-backend/internal/infra/observability"
	"github.com/inmoflow/rentas-backend/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeLeaseStore struct {
	leases map[string]*domain.Lease
	err    error
}

func newFakeLeaseStore(leases ...*domain.Lease) *fakeLeaseStore {
	s := &fakeLeaseStore{leases: make(map[string]*domain.Lease)}
	for _, l := range leases {
		s.leases[l.ID] = l
	}
	return s
}

func (s *fakeLeaseStore) ListLeases(_ context.Context, userID string) ([]domain.Lease, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Lease
	for _, l := range s.leases {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *fakeLeaseStore) GetLease(_ context.Context, userID, leaseID string) (*domain.Lease, error) {
	if s.err != nil {
		return nil, s.err
	}
	l, ok := s.leases[leaseID]
	if !ok || l.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "lease", ID: leaseID}
	}
	cp := *l
	return &cp, nil
}

func (s *fakeLeaseStore) GetLeaseByID(_ context.Context, leaseID string) (*domain.Lease, error) {
	l, ok := s.leases[leaseID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "lease", ID: leaseID}
	}
	cp := *l
	return &cp, nil
}

func (s *fakeLeaseStore) CreateLease(_ context.Context, lease *domain.Lease) (*domain.Lease, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := *lease
	s.leases[lease.ID] = &cp
	return lease, nil
}

func (s *fakeLeaseStore) UpdateLease(_ context.Context, userID, leaseID string, updates map[string]any) (*domain.Lease, error) {
	l, ok := s.leases[leaseID]
	if !ok || l.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "lease", ID: leaseID}
	}
	if v, ok := updates["monthly_rent"].(float64); ok {
		l.MonthlyRent = v
	}
	if v, ok := updates["status"].(string); ok {
		l.Status = v
	}
	if v, ok := updates["adjustment"].(domain.Adjustment); ok {
		l.Adjustment = v
	}
	cp := *l
	return &cp, nil
}

func (s *fakeLeaseStore) DeleteLease(_ context.Context, userID, leaseID string) error {
	l, ok := s.leases[leaseID]
	if !ok || l.UserID != userID {
		return &domain.ErrNotFound{Resource: "lease", ID: leaseID}
	}
	delete(s.leases, leaseID)
	return nil
}

func (s *fakeLeaseStore) ReplacePaymentHistory(_ context.Context, userID, leaseID string, history []domain.PaymentRecord) (*domain.Lease, error) {
	l, ok := s.leases[leaseID]
	if !ok || l.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "lease", ID: leaseID}
	}
	l.History = history
	cp := *l
	return &cp, nil
}

func (s *fakeLeaseStore) ReplaceTickets(_ context.Context, userID, leaseID string, tickets []domain.Ticket) (*domain.Lease, error) {
	l, ok := s.leases[leaseID]
	if !ok || l.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "lease", ID: leaseID}
	}
	l.Tickets = tickets
	cp := *l
	return &cp, nil
}

func testLease() *domain.Lease {
	return &domain.Lease{
		ID:          "lease-1",
		UserID:      "user-1",
		Address:     "Calle Mayor 12",
		TenantName:  "Ana García",
		StartDate:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
		MonthlyRent: 1000,
		DueDay:      10,
		FeeModel:    domain.FeeModel{Kind: domain.FeePercentage, Rate: 0.08},
		Status:      domain.LeaseActive,
	}
}

func newLeaseService(store *fakeLeaseStore, now time.Time) *service.LeaseService {
	return service.NewLeaseService(store, observability.NewMetrics(), zap.NewNop(), fixedClock{t: now})
}

// --- Tests ---

func TestRegisterPaymentAppendsRecord(t *testing.T) {
	store := newFakeLeaseStore(testLease())
	now := time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)
	svc := newLeaseService(store, now)

	lease, err := svc.RegisterPayment(context.Background(), "user-1", "lease-1", &service.RegisterPaymentRequest{
		PeriodKey: "2025-03",
		Amount:    1000,
		Method:    "transferencia",
	})
	if err != nil {
		t.Fatalf("RegisterPayment() error = %v", err)
	}
	if len(lease.History) != 1 {
		t.Fatalf("history len = %d, want 1", len(lease.History))
	}

	rec := lease.History[0]
	if rec.PeriodKey != "2025-03" {
		t.Errorf("record period = %q, want 2025-03", rec.PeriodKey)
	}
	if rec.Status != domain.PaymentPaid {
		t.Errorf("record status = %q, want %q", rec.Status, domain.PaymentPaid)
	}
	if rec.PaidAt == nil || !rec.PaidAt.Equal(now) {
		t.Errorf("record paid_at = %v, want %v", rec.PaidAt, now)
	}
	if rec.DueDate.Day() != 10 || rec.DueDate.Month() != time.March {
		t.Errorf("record due date = %v, want March 10", rec.DueDate)
	}
}

func TestRegisterPaymentUpsertsByPeriod(t *testing.T) {
	l := testLease()
	old := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	l.History = []domain.PaymentRecord{
		{ID: "old", PeriodKey: "2025-03", Amount: 900, Status: domain.PaymentPaid, PaidAt: &old},
	}
	store := newFakeLeaseStore(l)
	svc := newLeaseService(store, time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC))

	lease, err := svc.RegisterPayment(context.Background(), "user-1", "lease-1", &service.RegisterPaymentRequest{
		PeriodKey: "2025-03",
		Amount:    1000,
	})
	if err != nil {
		t.Fatalf("RegisterPayment() error = %v", err)
	}
	if len(lease.History) != 1 {
		t.Fatalf("history len = %d, want 1 (replaced, not appended)", len(lease.History))
	}
	if lease.History[0].Amount != 1000 {
		t.Errorf("amount = %v, want the replacement's 1000", lease.History[0].Amount)
	}
	if lease.History[0].ID == "old" {
		t.Error("record should have been replaced with a fresh one")
	}
}

func TestRegisterPaymentDefaultsAmountToRent(t *testing.T) {
	store := newFakeLeaseStore(testLease())
	svc := newLeaseService(store, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))

	lease, err := svc.RegisterPayment(context.Background(), "user-1", "lease-1", &service.RegisterPaymentRequest{
		PeriodKey: "2025-04",
	})
	if err != nil {
		t.Fatalf("RegisterPayment() error = %v", err)
	}
	if lease.History[0].Amount != 1000 {
		t.Errorf("amount = %v, want the lease rent 1000", lease.History[0].Amount)
	}
}

func TestRegisterPaymentRejectsBadPeriodKey(t *testing.T) {
	store := newFakeLeaseStore(testLease())
	svc := newLeaseService(store, time.Now())

	for _, bad := range []string{"", "2025", "2025-13", "03-2025", "2025/03"} {
		_, err := svc.RegisterPayment(context.Background(), "user-1", "lease-1", &service.RegisterPaymentRequest{
			PeriodKey: bad,
			Amount:    1000,
		})
		var validation *domain.ErrValidation
		if !errors.As(err, &validation) {
			t.Errorf("period %q: error = %v, want validation error", bad, err)
		}
	}
}

func TestRegisterPaymentUnknownLease(t *testing.T) {
	store := newFakeLeaseStore(testLease())
	svc := newLeaseService(store, time.Now())

	_, err := svc.RegisterPayment(context.Background(), "user-1", "nope", &service.RegisterPaymentRequest{
		PeriodKey: "2025-03",
		Amount:    1000,
	})
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestApplyRentAdjustmentPercentage(t *testing.T) {
	store := newFakeLeaseStore(testLease())
	svc := newLeaseService(store, time.Now())

	lease, err := svc.ApplyRentAdjustment(context.Background(), "user-1", "lease-1", &service.AdjustRentRequest{
		Kind:  domain.AdjustPercentage,
		Value: 10,
	})
	if err != nil {
		t.Fatalf("ApplyRentAdjustment() error = %v", err)
	}
	if lease.MonthlyRent != 1100 {
		t.Errorf("rent after +10%% = %v, want 1100", lease.MonthlyRent)
	}
}

func TestApplyRentAdjustmentManual(t *testing.T) {
	store := newFakeLeaseStore(testLease())
	svc := newLeaseService(store, time.Now())

	lease, err := svc.ApplyRentAdjustment(context.Background(), "user-1", "lease-1", &service.AdjustRentRequest{
		Kind:  domain.AdjustManual,
		Value: 1250,
	})
	if err != nil {
		t.Fatalf("ApplyRentAdjustment() error = %v", err)
	}
	if lease.MonthlyRent != 1250 {
		t.Errorf("rent = %v, want 1250", lease.MonthlyRent)
	}
}

func TestApplyRentAdjustmentUnknownKind(t *testing.T) {
	store := newFakeLeaseStore(testLease())
	svc := newLeaseService(store, time.Now())

	_, err := svc.ApplyRentAdjustment(context.Background(), "user-1", "lease-1", &service.AdjustRentRequest{
		Kind:  "inflación",
		Value: 3,
	})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Errorf("error = %v, want validation error", err)
	}
}

func TestCreateLeaseValidation(t *testing.T) {
	store := newFakeLeaseStore()
	svc := newLeaseService(store, time.Now())

	cases := map[string]*service.CreateLeaseRequest{
		"missing tenant": {
			Address:   "Calle Mayor 12",
			StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		"inverted term": {
			Address:    "Calle Mayor 12",
			TenantName: "Ana García",
			StartDate:  time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		"negative rent": {
			Address:     "Calle Mayor 12",
			TenantName:  "Ana García",
			StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
			MonthlyRent: -1,
		},
	}

	for name, req := range cases {
		_, err := svc.CreateLease(context.Background(), "user-1", req)
		var validation *domain.ErrValidation
		if !errors.As(err, &validation) {
			t.Errorf("%s: error = %v, want validation error", name, err)
		}
	}
}

func TestCreateLeaseDefaultsStatus(t *testing.T) {
	store := newFakeLeaseStore()
	svc := newLeaseService(store, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	lease, err := svc.CreateLease(context.Background(), "user-1", &service.CreateLeaseRequest{
		Address:     "Calle Mayor 12",
		TenantName:  "Ana García",
		StartDate:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		MonthlyRent: 900,
	})
	if err != nil {
		t.Fatalf("CreateLease() error = %v", err)
	}
	if lease.Status != domain.LeasePending {
		t.Errorf("status = %q, want %q", lease.Status, domain.LeasePending)
	}
	if lease.ID == "" {
		t.Error("lease should get a generated ID")
	}
	if lease.UserID != "user-1" {
		t.Errorf("user_id = %q, want user-1", lease.UserID)
	}
}

func TestTicketLifecycle(t *testing.T) {
	store := newFakeLeaseStore(testLease())
	now := time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)
	svc := newLeaseService(store, now)

	lease, err := svc.CreateTicket(context.Background(), "user-1", "lease-1", &service.CreateTicketRequest{
		Title: "Caldera averiada",
		Desc:  "No hay agua caliente",
	})
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}
	if len(lease.Tickets) != 1 || lease.Tickets[0].Status != "abierto" {
		t.Fatalf("ticket = %+v, want one open ticket", lease.Tickets)
	}

	ticketID := lease.Tickets[0].ID
	lease, err = svc.UpdateTicket(context.Background(), "user-1", "lease-1", ticketID, &service.UpdateTicketRequest{
		Status:  "resuelto",
		Comment: "Pieza sustituida",
	})
	if err != nil {
		t.Fatalf("UpdateTicket() error = %v", err)
	}
	tk := lease.Tickets[0]
	if tk.Status != "resuelto" {
		t.Errorf("status = %q, want resuelto", tk.Status)
	}
	if tk.ResolvedAt == nil {
		t.Error("resolved ticket should carry its resolution time")
	}
	if len(tk.Comments) != 1 {
		t.Errorf("comments = %v, want one entry", tk.Comments)
	}

	_, err = svc.UpdateTicket(context.Background(), "user-1", "lease-1", "missing", &service.UpdateTicketRequest{Status: "abierto"})
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("error = %v, want not found", err)
	}
}
