/*
engine.go - Credit lifecycle state transitions

PURPOSE:
  The payment-amortization core. Every function here is a synchronous,
  pure transform over one in-memory Credit: validate first, mutate only
  after every check passes, so a failed call leaves the aggregate exactly
  as loaded and the caller can safely skip the save.

OPERATIONS:
  NewCredit        Create an aggregate with a derived schedule
  RegisterPayment  Record a payment, amortize the balance
  EditPayment      Retroactively change a historical payment amount
  DeletePayment    Remove a historical payment and restore its effects
  AddInstallments  Top up the agreed installment count
  AddProducts      Attach products mid-life, re-derive counters
  UpdateTerms      Replace installment total and/or schedule parameters

STATE MACHINE:
  active --balance reaches 0--> paid
  paid   --payment deleted----> active (completion cleared, date recomputed)

  Two asymmetries are load-bearing and must not be unified:
  - EDIT never reverts paid->active, even if the new balance is positive.
    DELETE does revert. Both behaviors are policy, not accidents.
  - AddInstallments accumulates both counters directly; AddProducts and
    UpdateTerms re-derive RemainingInstallments from the paid count.

SEE ALSO:
  - schedule.go: Date derivation
  - types.go:    Aggregate and result types
*/
package credit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CREATION
// =============================================================================

// NewCreditParams carries everything needed to open a credit.
type NewCreditParams struct {
	ClientID           string
	Products           []Product
	Installments       int
	PaymentFrequency   Frequency
	PaymentDayOfWeek   int
	PaymentDaysOfMonth []int
}

// NewCredit builds a credit aggregate: principal from product prices, full
// remaining installments, empty history, and a first due date derived from
// the schedule. now is the creation instant; the due date is computed from
// its business day.
func (cal Calendar) NewCredit(p NewCreditParams, now time.Time) (*Credit, error) {
	if p.ClientID == "" {
		return nil, validationf("client", "client id is required")
	}
	if len(p.Products) == 0 {
		return nil, validationf("products", "at least one product is required")
	}
	for i, prod := range p.Products {
		if prod.Name == "" {
			return nil, validationf("products", "product %d has no name", i)
		}
		if prod.Price.Sign() <= 0 {
			return nil, validationf("products", "product %q price must be positive", prod.Name)
		}
	}
	if p.Installments <= 0 {
		return nil, validationf("installments", "must be a positive count, got %d", p.Installments)
	}

	today := cal.Today(now)
	next, err := cal.NextPaymentDate(today, p.PaymentFrequency, p.PaymentDayOfWeek, p.PaymentDaysOfMonth)
	if err != nil {
		return nil, err
	}

	total := ProductsTotal(p.Products)
	return &Credit{
		ID:                    uuid.NewString(),
		ClientID:              p.ClientID,
		Products:              append([]Product(nil), p.Products...),
		OriginalAmount:        total,
		TotalAmount:           total,
		Installments:          p.Installments,
		RemainingInstallments: p.Installments,
		Status:                StatusActive,
		PaymentFrequency:      p.PaymentFrequency,
		PaymentDayOfWeek:      p.PaymentDayOfWeek,
		PaymentDaysOfMonth:    append([]int(nil), p.PaymentDaysOfMonth...),
		NextPaymentDate:       &next,
		PaymentHistory:        []PaymentEntry{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// =============================================================================
// PAYMENT REGISTRATION
// =============================================================================

// RegisterPayment records a payment and amortizes the balance.
//
// Exactly one installment unit is consumed per call regardless of the
// amount: balance and installment count are independent ledgers. The
// resulting state branches, in precedence order:
//
//  1. Balance <= 0: terminal paid transition. Balance clamps to zero, the
//     due date is cleared, CompletionDate is stamped.
//  2. Installments exhausted with balance remaining: the payment stays
//     recorded and the result carries NeedsMoreInstallments plus the
//     outstanding balance. The due date is deliberately NOT recomputed;
//     scheduling resumes only after an installment top-up.
//  3. Otherwise: the payment lands as-is. A normal payment does not
//     re-derive the next due date.
func RegisterPayment(c *Credit, amount decimal.Decimal, now time.Time) (PaymentResult, error) {
	if amount.Sign() <= 0 {
		return PaymentResult{}, validationf("amount", "payment amount must be positive, got %s", amount)
	}

	c.PaymentHistory = append(c.PaymentHistory, PaymentEntry{Amount: amount, Date: now})
	c.TotalAmount = c.TotalAmount.Sub(amount)
	c.RemainingInstallments--
	c.UpdatedAt = now

	if c.TotalAmount.Sign() <= 0 {
		markPaid(c, now)
		return PaymentResult{Credit: c}, nil
	}

	if c.RemainingInstallments <= 0 {
		c.RemainingInstallments = 0
		return PaymentResult{
			Credit:                c,
			NeedsMoreInstallments: true,
			RemainingBalance:      c.TotalAmount,
		}, nil
	}

	return PaymentResult{Credit: c}, nil
}

// markPaid applies the terminal transition.
func markPaid(c *Credit, now time.Time) {
	c.Status = StatusPaid
	c.TotalAmount = decimal.Zero
	if c.RemainingInstallments < 0 {
		c.RemainingInstallments = 0
	}
	c.NextPaymentDate = nil
	completion := now
	c.CompletionDate = &completion
}

// =============================================================================
// PAYMENT EDIT
// =============================================================================

// EditPayment replaces the amount of a historical payment and reconstructs
// the balance as if that amount had always been the entry's value.
//
// The paid transition re-applies if the new balance reaches zero, but an
// edit NEVER reverts a paid credit back to active, even when the new
// balance is positive. That asymmetry with DeletePayment is intentional.
// Installment counters are untouched.
func EditPayment(c *Credit, index int, amount decimal.Decimal, now time.Time) error {
	if index < 0 || index >= len(c.PaymentHistory) {
		return &RangeError{Index: index, Length: len(c.PaymentHistory)}
	}
	if amount.Sign() <= 0 {
		return validationf("amount", "payment amount must be positive, got %s", amount)
	}

	oldAmount := c.PaymentHistory[index].Amount
	c.PaymentHistory[index].Amount = amount
	c.TotalAmount = c.TotalAmount.Add(oldAmount).Sub(amount)
	c.UpdatedAt = now

	if c.TotalAmount.Sign() <= 0 {
		markPaid(c, now)
	}
	return nil
}

// =============================================================================
// PAYMENT DELETION
// =============================================================================

// DeletePayment removes a historical payment, restoring its amount to the
// balance and one unit to the remaining installment count.
//
// Unlike EditPayment, deletion reverts a paid credit to active: the
// completion date is cleared and the next due date is recomputed from the
// current business day.
func (cal Calendar) DeletePayment(c *Credit, index int, now time.Time) error {
	if index < 0 || index >= len(c.PaymentHistory) {
		return &RangeError{Index: index, Length: len(c.PaymentHistory)}
	}

	// Derive the revert date up front so a schedule failure leaves the
	// aggregate untouched.
	var next time.Time
	reverting := c.Status == StatusPaid
	if reverting {
		var err error
		next, err = cal.NextPaymentDateFor(c, cal.Today(now))
		if err != nil {
			return err
		}
	}

	deleted := c.PaymentHistory[index]
	c.PaymentHistory = append(c.PaymentHistory[:index], c.PaymentHistory[index+1:]...)
	c.TotalAmount = c.TotalAmount.Add(deleted.Amount)
	c.RemainingInstallments++
	c.UpdatedAt = now

	if reverting {
		c.Status = StatusActive
		c.CompletionDate = nil
		c.NextPaymentDate = &next
	}
	return nil
}

// =============================================================================
// INSTALLMENT TOP-UP
// =============================================================================

// AddInstallments grows the agreed installment count. Both counters
// accumulate directly; no re-derivation from the paid count happens here
// (contrast UpdateTerms and AddProducts).
func AddInstallments(c *Credit, additional int, now time.Time) error {
	if additional <= 0 {
		return validationf("additionalInstallments", "must be a positive count, got %d", additional)
	}
	if c.IsPaid() {
		return ErrCreditPaid
	}

	c.Installments += additional
	c.RemainingInstallments += additional
	c.UpdatedAt = now
	return nil
}

// =============================================================================
// PRODUCT ADDITION
// =============================================================================

// AddProducts attaches products mid-life. The added value raises both the
// outstanding balance and the cumulative principal. newTotalInstallments is
// an ABSOLUTE replacement for the agreed count: remaining installments are
// re-derived as the new total minus installments already paid, floored at
// zero.
func AddProducts(c *Credit, newProducts []Product, newTotalInstallments int, now time.Time) error {
	if c.IsPaid() {
		return ErrCreditPaid
	}
	if len(newProducts) == 0 {
		return validationf("newProducts", "at least one product is required")
	}
	for i, p := range newProducts {
		if p.Name == "" {
			return validationf("newProducts", "product %d has no name", i)
		}
		if p.Price.Sign() <= 0 {
			return validationf("newProducts", "product %q price must be positive", p.Name)
		}
	}
	if newTotalInstallments <= 0 {
		return validationf("newTotalInstallments", "must be a positive count, got %d", newTotalInstallments)
	}

	addedValue := ProductsTotal(newProducts)
	// Paid count is derived from the counters BEFORE this update.
	paid := c.PaidInstallments()

	c.Products = append(c.Products, newProducts...)
	c.TotalAmount = c.TotalAmount.Add(addedValue)
	c.OriginalAmount = c.OriginalAmount.Add(addedValue)
	c.Installments = newTotalInstallments
	c.RemainingInstallments = newTotalInstallments - paid
	if c.RemainingInstallments < 0 {
		c.RemainingInstallments = 0
	}
	c.UpdatedAt = now
	return nil
}

// =============================================================================
// TERMS UPDATE
// =============================================================================

// TermsUpdate carries the editable terms of a credit. Nil fields are left
// untouched.
type TermsUpdate struct {
	Installments       *int
	PaymentFrequency   *Frequency
	PaymentDayOfWeek   *int
	PaymentDaysOfMonth []int
}

// UpdateTerms replaces the agreed installment total and/or the schedule.
//
// When the installment total changes, remaining installments are re-derived
// from the paid count against the new total, floored at zero. When any
// schedule parameter changes on an active credit, the next due date is
// recomputed from the current business day.
func (cal Calendar) UpdateTerms(c *Credit, u TermsUpdate, now time.Time) error {
	freq := c.PaymentFrequency
	dayOfWeek := c.PaymentDayOfWeek
	daysOfMonth := c.PaymentDaysOfMonth
	scheduleChanged := false

	if u.PaymentFrequency != nil {
		freq = *u.PaymentFrequency
		scheduleChanged = true
	}
	if u.PaymentDayOfWeek != nil {
		dayOfWeek = *u.PaymentDayOfWeek
		scheduleChanged = true
	}
	if u.PaymentDaysOfMonth != nil {
		daysOfMonth = u.PaymentDaysOfMonth
		scheduleChanged = true
	}
	if scheduleChanged {
		if err := ValidateSchedule(freq, dayOfWeek, daysOfMonth); err != nil {
			return err
		}
	}
	if u.Installments != nil && *u.Installments <= 0 {
		return validationf("installments", "must be a positive count, got %d", *u.Installments)
	}

	if u.Installments != nil {
		paid := c.PaidInstallments()
		c.Installments = *u.Installments
		c.RemainingInstallments = *u.Installments - paid
		if c.RemainingInstallments < 0 {
			c.RemainingInstallments = 0
		}
	}

	if scheduleChanged {
		c.PaymentFrequency = freq
		c.PaymentDayOfWeek = dayOfWeek
		c.PaymentDaysOfMonth = append([]int(nil), daysOfMonth...)
		if !c.IsPaid() {
			next, err := cal.NextPaymentDate(cal.Today(now), freq, dayOfWeek, daysOfMonth)
			if err != nil {
				return err
			}
			c.NextPaymentDate = &next
		}
	}

	c.UpdatedAt = now
	return nil
}
