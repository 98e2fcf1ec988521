/*
Package credit provides the core installment-credit ledger engine.

PURPOSE:
  This package contains the domain types and algorithms for managing
  installment-credit accounts: computing next payment dates from weekly or
  biweekly schedules, amortizing payments against an outstanding balance,
  and re-deriving credit state when payments or terms change retroactively.

KEY CONCEPTS IN THIS FILE (types.go):
  - Client:       Identity record a credit belongs to
  - Product:      A named item with a fixed price, attached to a credit
  - PaymentEntry: A recorded payment (amount + timestamp), index-addressable
  - Credit:       The central aggregate: products, balance, installment
                  counters, schedule parameters, payment history

DESIGN PRINCIPLES:
  1. Purity: Every operation is a synchronous transform over one in-memory
     Credit; persistence is the caller's job (load-modify-save).
  2. Precision: Uses decimal.Decimal to avoid floating-point errors.
  3. Explicit time: No function reads the wall clock; "today" and "now" are
     always caller-supplied, normalized to the business timezone.

INVARIANTS:
  - RemainingInstallments >= 0, clamped at zero.
  - TotalAmount >= 0, clamped at zero on overpayment.
  - Status == paid implies NextPaymentDate == nil and CompletionDate != nil.
  - Installment counters track payment COUNT, independent of amounts. A
    credit can run out of installments while a balance remains; that is a
    first-class outcome ("needs more installments"), not an error.

SEE ALSO:
  - schedule.go:   Next-payment-date calculator
  - engine.go:     Payment lifecycle transitions
  - projection.go: Agenda and reporting projections
  - errors.go:     Error taxonomy
*/
package credit

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUS AND FREQUENCY
// =============================================================================

// Status is the lifecycle state of a credit.
type Status string

const (
	// StatusActive means the credit has an outstanding balance.
	StatusActive Status = "active"
	// StatusPaid means the balance reached zero. Reversible only by
	// deleting a historical payment, never by editing one.
	StatusPaid Status = "paid"
)

// Frequency is the payment schedule cadence, fixed at creation.
type Frequency string

const (
	// FrequencyWeekly collects on a fixed day of the week (Monday=1..Sunday=7).
	FrequencyWeekly Frequency = "weekly"
	// FrequencyBiweekly collects on a fixed set of days of the month.
	FrequencyBiweekly Frequency = "biweekly"
)

// =============================================================================
// CLIENT
// =============================================================================

// Client is the identity record credits are issued against.
// Identity fields (FullName, NationalID) are immutable after intake;
// contact fields may change. Clients are never deleted.
type Client struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	NationalID string    `json:"nationalId"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// =============================================================================
// PRODUCT AND PAYMENT ENTRY
// =============================================================================

// Product is a named item with a fixed price. Immutable once attached to a
// credit, except through the add-products operation.
type Product struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ProductsTotal sums product prices.
func ProductsTotal(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price)
	}
	return total
}

// PaymentEntry is one recorded payment. Entries are ordered by insertion and
// addressed by index; the Date is informational and not necessarily ordered.
type PaymentEntry struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

// =============================================================================
// CREDIT AGGREGATE
// =============================================================================

// Credit is the central aggregate: one client, a set of purchased products,
// an outstanding balance, installment counters, and a payment schedule.
type Credit struct {
	ID       string    `json:"id"`
	ClientID string    `json:"client"`
	Products []Product `json:"products"`

	// OriginalAmount is cumulative principal: the sum of product prices at
	// creation, increased when products are added later. Never decreases.
	OriginalAmount decimal.Decimal `json:"originalAmount"`
	// TotalAmount is the current outstanding balance.
	TotalAmount decimal.Decimal `json:"totalAmount"`

	// Installments is the agreed installment count; RemainingInstallments
	// counts installments not yet paid. The pair tracks payment count
	// independently of monetary amounts.
	Installments          int `json:"installments"`
	RemainingInstallments int `json:"remainingInstallments"`

	Status Status `json:"status"`

	PaymentFrequency Frequency `json:"paymentFrequency"`
	// PaymentDayOfWeek is Monday=1..Sunday=7. Weekly credits only.
	PaymentDayOfWeek int `json:"paymentDayOfWeek,omitempty"`
	// PaymentDaysOfMonth holds day-of-month anchors. Biweekly credits only.
	PaymentDaysOfMonth []int `json:"paymentDaysOfMonth,omitempty"`

	// NextPaymentDate is derived; nil exactly when Status is paid.
	NextPaymentDate *time.Time `json:"nextPaymentDate"`
	// CompletionDate is set on the paid transition and cleared on revert.
	CompletionDate *time.Time `json:"completionDate"`

	PaymentHistory []PaymentEntry `json:"paymentHistory"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PaidInstallments derives the number of installment units already consumed.
func (c *Credit) PaidInstallments() int {
	return c.Installments - c.RemainingInstallments
}

// IsPaid reports whether the credit has reached its terminal state.
func (c *Credit) IsPaid() bool { return c.Status == StatusPaid }

// Clone returns a deep copy. Stores hand out clones so callers can mutate a
// working copy without aliasing persisted state.
func (c *Credit) Clone() *Credit {
	if c == nil {
		return nil
	}
	out := *c
	out.Products = append([]Product(nil), c.Products...)
	out.PaymentDaysOfMonth = append([]int(nil), c.PaymentDaysOfMonth...)
	out.PaymentHistory = append([]PaymentEntry(nil), c.PaymentHistory...)
	if c.NextPaymentDate != nil {
		d := *c.NextPaymentDate
		out.NextPaymentDate = &d
	}
	if c.CompletionDate != nil {
		d := *c.CompletionDate
		out.CompletionDate = &d
	}
	return &out
}

// =============================================================================
// USERS (credential check for the API layer)
// =============================================================================

// User is an operator account. The engine treats authentication as a
// black-box credential check; only the bcrypt hash is stored.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// =============================================================================
// OPERATION RESULTS
// =============================================================================

// PaymentResult is the outcome of registering a payment.
//
// NeedsMoreInstallments is the distinguished outcome where the agreed
// installment count is exhausted but a balance remains. The payment is
// already recorded; the caller must top up installments before scheduling
// continues.
type PaymentResult struct {
	Credit                *Credit
	NeedsMoreInstallments bool
	RemainingBalance      decimal.Decimal
}
