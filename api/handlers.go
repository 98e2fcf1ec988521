/*
handlers.go - HTTP API handlers for the credit ledger service

PURPOSE:
  Exposes the credit engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the pure domain logic. Every
  mutation is a load-modify-save cycle: the aggregate is loaded, a credit
  engine transform runs in memory, and the result is saved only on
  success.

ENDPOINTS:
  Auth:
    POST   /api/login                       Credential check, issues JWT

  Clients:
    GET    /api/clients                     List clients
    POST   /api/clients                     Intake
    GET    /api/clients/{id}                Get client
    PUT    /api/clients/{id}                Update contact fields
    GET    /api/clients/{id}/credits        Credits of one client

  Credits:
    GET    /api/credits                     Active credits
    GET    /api/credits/completed           Paid credits, newest first
    POST   /api/credits                     Open a credit
    GET    /api/credits/{id}                Get credit
    PUT    /api/credits/{id}                Replace terms
    DELETE /api/credits/{id}                Remove credit
    POST   /api/credits/{id}/payments       Register payment
    PUT    /api/credits/{id}/payments/{index}    Edit payment
    DELETE /api/credits/{id}/payments/{index}    Delete payment
    POST   /api/credits/{id}/add-installments    Installment top-up
    POST   /api/credits/{id}/add-products        Product addition

  Agenda and reports:
    GET    /api/agenda
    GET    /api/reports/summary
    GET    /api/reports/completed-sales?startDate=&endDate=

ERROR HANDLING:
  Errors are returned as JSON with the status derived from the error kind:
  - 400: Validation errors, bad indices, malformed input
  - 401: Missing/invalid credentials or token
  - 404: Client or credit not found
  - 409: Operation on a paid credit
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - credit/engine.go: The transforms handlers delegate to
*/
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/crediario/credit-engine/credit"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     credit.Store
	Users     credit.UserStore
	Calendar  credit.Calendar
	JWTSecret string
	Logger    *logrus.Logger

	// nowFn is swappable in tests; the engine itself never reads the clock.
	nowFn func() time.Time
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(store credit.Store, users credit.UserStore, cal credit.Calendar, jwtSecret string, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		Store:     store,
		Users:     users,
		Calendar:  cal,
		JWTSecret: jwtSecret,
		Logger:    logger,
		nowFn:     time.Now,
	}
}

func (h *Handler) now() time.Time { return h.nowFn() }

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateClient registers a new client.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FullName == "" || req.NationalID == "" || req.Phone == "" || req.Address == "" {
		writeError(w, http.StatusBadRequest, "fullName, nationalId, phone and address are required", nil)
		return
	}

	now := h.now()
	client := &credit.Client{
		ID:         uuid.NewString(),
		FullName:   req.FullName,
		NationalID: req.NationalID,
		Phone:      req.Phone,
		Address:    req.Address,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.Store.SaveClient(r.Context(), client); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client", err)
		return
	}

	h.Logger.Infof("Client created: %s", client.ID)
	writeJSON(w, http.StatusCreated, toClientDTO(client))
}

// GetClient returns a single client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.Store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(client))
}

// UpdateClient changes a client's contact fields. Identity fields are
// immutable after intake.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	client, err := h.Store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}

	if req.Phone != "" {
		client.Phone = req.Phone
	}
	if req.Address != "" {
		client.Address = req.Address
	}
	client.UpdatedAt = h.now()

	if err := h.Store.SaveClient(r.Context(), client); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(client))
}

// ListClientCredits returns every credit issued to one client.
func (h *Handler) ListClientCredits(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")

	client, err := h.Store.GetClient(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}

	credits, err := h.Store.ListCreditsByClient(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list credits", err)
		return
	}

	dtos := make([]CreditDTO, len(credits))
	for i, c := range credits {
		dtos[i] = toCreditDTO(c, client)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CREDIT HANDLERS
// =============================================================================

// ListActiveCredits returns credits with an outstanding balance, with the
// client reference resolved to name and national id.
func (h *Handler) ListActiveCredits(w http.ResponseWriter, r *http.Request) {
	credits, err := h.Store.ListCredits(r.Context(), credit.StatusActive)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list credits", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toCreditDTOs(r, credits))
}

// ListCompletedCredits returns paid credits, most recently completed first.
func (h *Handler) ListCompletedCredits(w http.ResponseWriter, r *http.Request) {
	credits, err := h.Store.ListCredits(r.Context(), credit.StatusPaid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list credits", err)
		return
	}

	sort.Slice(credits, func(i, j int) bool {
		a, b := credits[i].CompletionDate, credits[j].CompletionDate
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.After(*b)
	})
	writeJSON(w, http.StatusOK, h.toCreditDTOs(r, credits))
}

// CreateCredit opens a credit: principal from product prices, first due
// date derived from the schedule.
func (h *Handler) CreateCredit(w http.ResponseWriter, r *http.Request) {
	var req CreateCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	client, err := h.Store.GetClient(r.Context(), req.Client)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}

	c, err := h.Calendar.NewCredit(credit.NewCreditParams{
		ClientID:           req.Client,
		Products:           toProducts(req.Products),
		Installments:       req.Installments,
		PaymentFrequency:   credit.Frequency(req.PaymentFrequency),
		PaymentDayOfWeek:   req.PaymentDayOfWeek,
		PaymentDaysOfMonth: req.PaymentDaysOfMonth,
	}, h.now())
	if err != nil {
		writeError(w, statusFor(err), "Failed to create credit", err)
		return
	}

	if err := h.Store.SaveCredit(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save credit", err)
		return
	}

	h.Logger.Infof("Credit created: %s for client %s", c.ID, c.ClientID)
	writeJSON(w, http.StatusCreated, toCreditDTO(c, client))
}

// GetCredit returns a single credit with its client resolved.
func (h *Handler) GetCredit(w http.ResponseWriter, r *http.Request) {
	c := h.loadCredit(w, r)
	if c == nil {
		return
	}
	client, _ := h.Store.GetClient(r.Context(), c.ClientID)
	writeJSON(w, http.StatusOK, toCreditDTO(c, client))
}

// UpdateCredit replaces the agreed installment total and/or the schedule.
// Remaining installments are re-derived from the paid count.
func (h *Handler) UpdateCredit(w http.ResponseWriter, r *http.Request) {
	var req UpdateCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c := h.loadCredit(w, r)
	if c == nil {
		return
	}

	update := credit.TermsUpdate{
		Installments:       req.Installments,
		PaymentDayOfWeek:   req.PaymentDayOfWeek,
		PaymentDaysOfMonth: req.PaymentDaysOfMonth,
	}
	if req.PaymentFrequency != nil {
		f := credit.Frequency(*req.PaymentFrequency)
		update.PaymentFrequency = &f
	}

	if err := h.Calendar.UpdateTerms(c, update, h.now()); err != nil {
		writeError(w, statusFor(err), "Failed to update credit", err)
		return
	}
	h.saveAndRespond(w, r, c)
}

// DeleteCredit removes a credit entirely.
func (h *Handler) DeleteCredit(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeleteCredit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), "Failed to delete credit", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Credit deleted"})
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// RegisterPayment records a payment against a credit. When the agreed
// installment count runs out with a balance remaining, the payment is
// still persisted and the response carries needsMoreInstallments plus the
// outstanding balance.
func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	var req RegisterPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c := h.loadCredit(w, r)
	if c == nil {
		return
	}

	res, err := credit.RegisterPayment(c, decimal.NewFromFloat(req.Amount), h.now())
	if err != nil {
		writeError(w, statusFor(err), "Failed to register payment", err)
		return
	}

	if err := h.Store.SaveCredit(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save credit", err)
		return
	}

	client, _ := h.Store.GetClient(r.Context(), c.ClientID)
	if res.NeedsMoreInstallments {
		h.Logger.Infof("Credit %s needs more installments, balance %s", c.ID, res.RemainingBalance)
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(res, client))
}

// EditPayment replaces a historical payment amount. A paid credit stays
// paid even when the edit makes the balance positive again.
func (h *Handler) EditPayment(w http.ResponseWriter, r *http.Request) {
	var req EditPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	index, ok := h.paymentIndex(w, r)
	if !ok {
		return
	}
	c := h.loadCredit(w, r)
	if c == nil {
		return
	}

	if err := credit.EditPayment(c, index, decimal.NewFromFloat(req.Amount), h.now()); err != nil {
		writeError(w, statusFor(err), "Failed to edit payment", err)
		return
	}
	h.saveAndRespond(w, r, c)
}

// DeletePayment removes a historical payment, restoring its amount and one
// installment unit, and reverts a paid credit to active.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	index, ok := h.paymentIndex(w, r)
	if !ok {
		return
	}
	c := h.loadCredit(w, r)
	if c == nil {
		return
	}

	if err := h.Calendar.DeletePayment(c, index, h.now()); err != nil {
		writeError(w, statusFor(err), "Failed to delete payment", err)
		return
	}
	h.saveAndRespond(w, r, c)
}

// AddInstallments tops up the agreed installment count.
func (h *Handler) AddInstallments(w http.ResponseWriter, r *http.Request) {
	var req AddInstallmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c := h.loadCredit(w, r)
	if c == nil {
		return
	}

	if err := credit.AddInstallments(c, req.AdditionalInstallments, h.now()); err != nil {
		writeError(w, statusFor(err), "Failed to add installments", err)
		return
	}
	h.saveAndRespond(w, r, c)
}

// AddProducts attaches products mid-life with an absolute new installment
// total.
func (h *Handler) AddProducts(w http.ResponseWriter, r *http.Request) {
	var req AddProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c := h.loadCredit(w, r)
	if c == nil {
		return
	}

	if err := credit.AddProducts(c, toProducts(req.NewProducts), req.NewTotalInstallments, h.now()); err != nil {
		writeError(w, statusFor(err), "Failed to add products", err)
		return
	}
	h.saveAndRespond(w, r, c)
}

// =============================================================================
// AGENDA AND REPORT HANDLERS
// =============================================================================

// GetAgenda partitions active credits into due-today and due-this-week.
func (h *Handler) GetAgenda(w http.ResponseWriter, r *http.Request) {
	credits, err := h.Store.ListCredits(r.Context(), credit.StatusActive)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list credits", err)
		return
	}

	agenda := h.Calendar.BuildAgenda(credits, h.now())
	names := h.clientIndex(r)
	writeJSON(w, http.StatusOK, AgendaDTO{
		Today:    h.resolveCredits(agenda.Today, names),
		Upcoming: h.resolveCredits(agenda.Upcoming, names),
	})
}

// GetSummary returns the collection summary report.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	credits, err := h.Store.ListAllCredits(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list credits", err)
		return
	}

	s := h.Calendar.BuildSummary(credits, h.now())
	totalDue, _ := s.TotalDue.Float64()
	totalCollected, _ := s.TotalCollected.Float64()
	monthCollected, _ := s.CurrentMonthCollected.Float64()
	writeJSON(w, http.StatusOK, SummaryDTO{
		TotalDue:              totalDue,
		TotalCollected:        totalCollected,
		CurrentMonthCollected: monthCollected,
	})
}

// GetCompletedSales returns paid credits completed within a date range.
func (h *Handler) GetCompletedSales(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("startDate")
	endStr := r.URL.Query().Get("endDate")
	if startStr == "" || endStr == "" {
		writeError(w, http.StatusBadRequest, "startDate and endDate are required", nil)
		return
	}
	start, err := time.ParseInLocation("2006-01-02", startStr, h.Calendar.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid startDate format (use YYYY-MM-DD)", err)
		return
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, h.Calendar.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid endDate format (use YYYY-MM-DD)", err)
		return
	}

	credits, err := h.Store.ListCredits(r.Context(), credit.StatusPaid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list credits", err)
		return
	}

	sales := h.Calendar.CompletedBetween(credits, start, end)
	writeJSON(w, http.StatusOK, h.toCreditDTOs(r, sales))
}

// =============================================================================
// HELPERS
// =============================================================================

// loadCredit fetches the aggregate for the {id} route param, writing a 404
// when absent. Returns nil when a response was already written.
func (h *Handler) loadCredit(w http.ResponseWriter, r *http.Request) *credit.Credit {
	c, err := h.Store.GetCredit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get credit", err)
		return nil
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Credit not found", nil)
		return nil
	}
	return c
}

// paymentIndex parses the {index} route param.
func (h *Handler) paymentIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment index", err)
		return 0, false
	}
	return index, true
}

// saveAndRespond persists the transformed aggregate and writes it back.
func (h *Handler) saveAndRespond(w http.ResponseWriter, r *http.Request, c *credit.Credit) {
	if err := h.Store.SaveCredit(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save credit", err)
		return
	}
	client, _ := h.Store.GetClient(r.Context(), c.ClientID)
	writeJSON(w, http.StatusOK, toCreditDTO(c, client))
}

// clientIndex loads clients once for list resolution.
func (h *Handler) clientIndex(r *http.Request) map[string]*credit.Client {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		h.Logger.Warnf("Failed to resolve clients: %v", err)
		return nil
	}
	index := make(map[string]*credit.Client, len(clients))
	for _, c := range clients {
		index[c.ID] = c
	}
	return index
}

func (h *Handler) toCreditDTOs(r *http.Request, credits []*credit.Credit) []CreditDTO {
	return h.resolveCredits(credits, h.clientIndex(r))
}

func (h *Handler) resolveCredits(credits []*credit.Credit, index map[string]*credit.Client) []CreditDTO {
	dtos := make([]CreditDTO, len(credits))
	for i, c := range credits {
		dtos[i] = toCreditDTO(c, index[c.ClientID])
	}
	return dtos
}

// statusFor maps engine error kinds to HTTP statuses.
func statusFor(err error) int {
	switch {
	case credit.IsNotFound(err):
		return http.StatusNotFound
	case credit.IsInvalidState(err):
		return http.StatusConflict
	case credit.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
