package domain

// ============================================================
// Dashboard & Statement read models
// ============================================================

// DashboardSummary feeds the operator dashboard stat cards.
type DashboardSummary struct {
	TotalLeases   int     `json:"total_leases"`
	ActiveLeases  int     `json:"active_leases"`
	ExpiringSoon  int     `json:"expiring_soon"` // pending due in the next 0–5 days (inclusive)
	FeesMonth     float64 `json:"fees_month"`    // agency fee income collected in Month
	Month         string  `json:"month"`         // "YYYY-MM"
	OpenTickets   int     `json:"open_tickets"`
	TotalArrears  float64 `json:"total_arrears"` // sum of overdue due amounts across leases
	LeasesInError int     `json:"leases_in_error,omitempty"`
}

// Statement is the classified payment plan of one lease, shared by the
// operator detail view and the tenant portal.
type Statement struct {
	LeaseID          string          `json:"lease_id"`
	TenantName       string          `json:"tenant_name"`
	Address          string          `json:"address"`
	MonthlyRent      float64         `json:"monthly_rent"`
	Pending          []PaymentPeriod `json:"pending"` // oldest due first
	Paid             []PaymentPeriod `json:"paid"`    // most recent payment first
	DaysUntilNextDue *int            `json:"days_until_next_due"`
	NextDue          *PaymentPeriod  `json:"next_due,omitempty"`
}

// ServiceHealth describes one dependency in the health report.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latency_ms"`
	LastChecked string `json:"last_checked"`
}

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}
