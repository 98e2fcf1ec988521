/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract: the engine
  computes on decimals, the wire carries plain numbers.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

FIELD NAMES:
  The credit payload mirrors the store record: client, products[{name,
  price}], totalAmount, originalAmount, installments,
  remainingInstallments, status, paymentFrequency, paymentDayOfWeek,
  paymentDaysOfMonth, nextPaymentDate, completionDate,
  paymentHistory[{amount,date}].

VALIDATION:
  Structural validation (missing fields, bad dates) happens in handlers;
  business validation happens in the credit package. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - credit/types.go: Domain counterparts
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/crediario/credit-engine/credit"
)

// =============================================================================
// AUTH
// =============================================================================

// LoginRequest carries operator credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// =============================================================================
// CLIENTS
// =============================================================================

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// CreateClientRequest is the intake payload.
type CreateClientRequest struct {
	FullName   string `json:"fullName"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

// UpdateClientRequest carries mutable contact fields. Identity fields are
// fixed at intake.
type UpdateClientRequest struct {
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// =============================================================================
// CREDITS
// =============================================================================

// ProductDTO is one purchased item.
type ProductDTO struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// PaymentEntryDTO is one recorded payment.
type PaymentEntryDTO struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
}

// CreditDTO represents a credit aggregate in API responses. Client carries
// the identity reference; list endpoints resolve it to name and national id.
type CreditDTO struct {
	ID                    string            `json:"id"`
	Client                ClientDTO         `json:"client"`
	Products              []ProductDTO      `json:"products"`
	TotalAmount           float64           `json:"totalAmount"`
	OriginalAmount        float64           `json:"originalAmount"`
	Installments          int               `json:"installments"`
	RemainingInstallments int               `json:"remainingInstallments"`
	Status                string            `json:"status"`
	PaymentFrequency      string            `json:"paymentFrequency"`
	PaymentDayOfWeek      int               `json:"paymentDayOfWeek,omitempty"`
	PaymentDaysOfMonth    []int             `json:"paymentDaysOfMonth,omitempty"`
	NextPaymentDate       *string           `json:"nextPaymentDate"`
	CompletionDate        *string           `json:"completionDate"`
	PaymentHistory        []PaymentEntryDTO `json:"paymentHistory"`
	CreatedAt             string            `json:"createdAt,omitempty"`
}

// CreateCreditRequest opens a credit for a client.
type CreateCreditRequest struct {
	Client             string       `json:"client"`
	Products           []ProductDTO `json:"products"`
	Installments       int          `json:"installments"`
	PaymentFrequency   string       `json:"paymentFrequency"`
	PaymentDayOfWeek   int          `json:"paymentDayOfWeek"`
	PaymentDaysOfMonth []int        `json:"paymentDaysOfMonth"`
}

// UpdateCreditRequest replaces credit terms. Nil fields are left untouched.
type UpdateCreditRequest struct {
	Installments       *int    `json:"installments"`
	PaymentFrequency   *string `json:"paymentFrequency"`
	PaymentDayOfWeek   *int    `json:"paymentDayOfWeek"`
	PaymentDaysOfMonth []int   `json:"paymentDaysOfMonth"`
}

// RegisterPaymentRequest records a payment against a credit.
type RegisterPaymentRequest struct {
	Amount float64 `json:"amount"`
}

// EditPaymentRequest replaces a historical payment amount.
type EditPaymentRequest struct {
	Amount float64 `json:"amount"`
}

// AddInstallmentsRequest tops up the agreed installment count.
type AddInstallmentsRequest struct {
	AdditionalInstallments int `json:"additionalInstallments"`
}

// AddProductsRequest attaches products mid-life with an absolute new
// installment total.
type AddProductsRequest struct {
	NewProducts          []ProductDTO `json:"newProducts"`
	NewTotalInstallments int          `json:"newTotalInstallments"`
}

// PaymentResponse wraps a payment outcome. NeedsMoreInstallments marks the
// distinguished "installments exhausted, balance remains" result.
type PaymentResponse struct {
	Credit                CreditDTO `json:"credit"`
	NeedsMoreInstallments bool      `json:"needsMoreInstallments,omitempty"`
	RemainingBalance      *float64  `json:"remainingBalance,omitempty"`
}

// =============================================================================
// AGENDA AND REPORTS
// =============================================================================

// AgendaDTO partitions active credits by due date.
type AgendaDTO struct {
	Today    []CreditDTO `json:"today"`
	Upcoming []CreditDTO `json:"upcoming"`
}

// SummaryDTO is the collection summary report.
type SummaryDTO struct {
	TotalDue              float64 `json:"totalDue"`
	TotalCollected        float64 `json:"totalCollected"`
	CurrentMonthCollected float64 `json:"currentMonthCollected"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toClientDTO(c *credit.Client) ClientDTO {
	return ClientDTO{
		ID:         c.ID,
		FullName:   c.FullName,
		NationalID: c.NationalID,
		Phone:      c.Phone,
		Address:    c.Address,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  c.UpdatedAt.Format(time.RFC3339),
	}
}

// toCreditDTO converts an aggregate. client may be nil when the identity
// record is not being resolved (the reference id is still carried).
func toCreditDTO(c *credit.Credit, client *credit.Client) CreditDTO {
	total, _ := c.TotalAmount.Float64()
	original, _ := c.OriginalAmount.Float64()

	products := make([]ProductDTO, len(c.Products))
	for i, p := range c.Products {
		price, _ := p.Price.Float64()
		products[i] = ProductDTO{Name: p.Name, Price: price}
	}

	history := make([]PaymentEntryDTO, len(c.PaymentHistory))
	for i, p := range c.PaymentHistory {
		amount, _ := p.Amount.Float64()
		history[i] = PaymentEntryDTO{Amount: amount, Date: p.Date.Format(time.RFC3339)}
	}

	dto := CreditDTO{
		ID:                    c.ID,
		Client:                ClientDTO{ID: c.ClientID},
		Products:              products,
		TotalAmount:           total,
		OriginalAmount:        original,
		Installments:          c.Installments,
		RemainingInstallments: c.RemainingInstallments,
		Status:                string(c.Status),
		PaymentFrequency:      string(c.PaymentFrequency),
		PaymentDayOfWeek:      c.PaymentDayOfWeek,
		PaymentDaysOfMonth:    c.PaymentDaysOfMonth,
		PaymentHistory:        history,
		CreatedAt:             c.CreatedAt.Format(time.RFC3339),
	}
	if client != nil {
		dto.Client = ClientDTO{ID: client.ID, FullName: client.FullName, NationalID: client.NationalID}
	}
	if c.NextPaymentDate != nil {
		s := c.NextPaymentDate.Format(time.RFC3339)
		dto.NextPaymentDate = &s
	}
	if c.CompletionDate != nil {
		s := c.CompletionDate.Format(time.RFC3339)
		dto.CompletionDate = &s
	}
	return dto
}

func toProducts(dtos []ProductDTO) []credit.Product {
	out := make([]credit.Product, len(dtos))
	for i, p := range dtos {
		out[i] = credit.Product{Name: p.Name, Price: decimal.NewFromFloat(p.Price)}
	}
	return out
}

func toPaymentResponse(res credit.PaymentResult, client *credit.Client) PaymentResponse {
	out := PaymentResponse{
		Credit:                toCreditDTO(res.Credit, client),
		NeedsMoreInstallments: res.NeedsMoreInstallments,
	}
	if res.NeedsMoreInstallments {
		balance, _ := res.RemainingBalance.Float64()
		out.RemainingBalance = &balance
	}
	return out
}
