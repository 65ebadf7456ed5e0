package domain

import "time"

// ============================================================
// Leases (Alquileres) & Payments
// ============================================================

// Payment / period statuses. Values are kept in Spanish because that is
// what the stored documents and every consumer of the API use.
const (
	PaymentPaid    = "pagado"
	PaymentPending = "pendiente"
	PaymentOverdue = "vencido"
)

// Lease statuses.
const (
	LeaseActive   = "activo"
	LeasePending  = "pendiente"
	LeaseFinished = "finalizado"
)

// Fee model kinds.
const (
	FeeFixed      = "fixed"
	FeePercentage = "percentage"
)

// Rent adjustment kinds. AdjustIndex amounts are resolved by an external
// collaborator; the service only applies an already-known adjusted rent.
const (
	AdjustPercentage = "percentage"
	AdjustManual     = "manual"
	AdjustIndex      = "index"
)

// DefaultDueDay is used when a lease has no due day configured, or the
// configured one is outside 1–31.
const DefaultDueDay = 10

// FeeModel is the agency commission structure for a lease: a fixed amount
// per period, or a fraction of the rent (Rate 0.08 = 8%).
type FeeModel struct {
	Kind   string  `json:"kind"`
	Amount float64 `json:"amount,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
}

// Adjustment describes how the rent is periodically adjusted.
type Adjustment struct {
	Kind  string  `json:"kind,omitempty"`
	Value float64 `json:"value,omitempty"`
}

// PaymentRecord is one entry in a lease's recorded payment ledger,
// attributed to a calendar month via PeriodKey ("YYYY-MM").
type PaymentRecord struct {
	ID          string     `json:"id"`
	PeriodKey   string     `json:"period"`
	Amount      float64    `json:"amount"`
	DueDate     time.Time  `json:"due_date"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	Method      string     `json:"method,omitempty"`
	ReceiptURL  string     `json:"receipt_url,omitempty"`
	FeeOverride *float64   `json:"fee_override,omitempty"` // supersedes the lease FeeModel for this period
}

// Ticket is a maintenance request (incidencia) attached to a lease.
type Ticket struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Desc       string     `json:"description"`
	Status     string     `json:"status"` // abierto, en_proceso, resuelto
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	Comments   []string   `json:"comments,omitempty"`
}

// Lease represents one rental agreement, stored document-style: the
// payment history and tickets live embedded in the lease row.
type Lease struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	PropertyID    string          `json:"property_id"`
	Address       string          `json:"address"`
	TenantID      string          `json:"tenant_id"`
	TenantName    string          `json:"tenant_name"`
	TenantContact string          `json:"tenant_contact,omitempty"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	MonthlyRent   float64         `json:"monthly_rent"`
	DueDay        int             `json:"due_day"`
	FeeModel      FeeModel        `json:"fee_model"`
	Adjustment    Adjustment      `json:"adjustment"`
	History       []PaymentRecord `json:"payment_history"`
	Tickets       []Ticket        `json:"tickets,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PaymentPeriod is one calendar month's rent obligation under a lease,
// derived by the schedule builder. Never persisted; recomputed from the
// lease document on every read.
type PaymentPeriod struct {
	PeriodKey string         `json:"period"`
	DueAmount float64        `json:"due_amount"`
	DueDate   time.Time      `json:"due_date"`
	Status    string         `json:"status"`
	PaidAt    *time.Time     `json:"paid_at,omitempty"`
	Projected bool           `json:"projected"`
	Source    *PaymentRecord `json:"source,omitempty"` // nil for projected periods
}
