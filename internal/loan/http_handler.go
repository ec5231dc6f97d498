package loan

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"locallibrary/internal/access"
	"locallibrary/internal/crud"
	"locallibrary/internal/httpx"
)

const dateLayout = "2006-01-02"

type HTTPHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewHTTPHandler(service *Service, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/instances", h.List)
	mux.HandleFunc("POST /v1/instances", h.Create)
	mux.HandleFunc("GET /v1/instances/{id}", h.Get)
	mux.HandleFunc("PUT /v1/instances/{id}", h.Update)
	mux.HandleFunc("DELETE /v1/instances/{id}", h.Delete)

	mux.HandleFunc("POST /v1/instances/{id}/make-available", h.MakeAvailable)
	mux.HandleFunc("POST /v1/instances/{id}/reserve", h.Reserve)
	mux.HandleFunc("POST /v1/instances/{id}/checkout", h.Checkout)
	mux.HandleFunc("POST /v1/instances/{id}/return", h.Return)
	mux.HandleFunc("POST /v1/instances/{id}/withdraw", h.Withdraw)
	mux.HandleFunc("GET /v1/instances/{id}/renew", h.RenewForm)
	mux.HandleFunc("POST /v1/instances/{id}/renew", h.Renew)

	mux.HandleFunc("GET /v1/me/loans", h.MyLoans)
	mux.HandleFunc("GET /v1/loans", h.AllOnLoan)
	mux.HandleFunc("GET /v1/loans/overdue", h.Overdue)
}

type InstanceResponse struct {
	ID          string  `json:"id"`
	BookID      int64   `json:"book_id"`
	BookTitle   string  `json:"book_title"`
	Imprint     string  `json:"imprint"`
	DueBack     *string `json:"due_back"`
	BorrowerID  *string `json:"borrower_id"`
	Status      string  `json:"status"`
	StatusLabel string  `json:"status_label"`
	IsOverdue   bool    `json:"is_overdue"`
}

// NewInstanceResponse renders a copy with is_overdue computed as of now.
func NewInstanceResponse(bi BookInstance, now time.Time) InstanceResponse {
	resp := InstanceResponse{
		ID:          bi.ID.String(),
		BookID:      bi.BookID,
		BookTitle:   bi.BookTitle,
		Imprint:     bi.Imprint,
		BorrowerID:  bi.BorrowerID,
		Status:      string(bi.Status),
		StatusLabel: bi.Status.Label(),
		IsOverdue:   bi.IsOverdue(now),
	}
	if bi.DueBack != nil {
		d := bi.DueBack.Format(dateLayout)
		resp.DueBack = &d
	}
	return resp
}

func (h *HTTPHandler) render(items []BookInstance) []InstanceResponse {
	now := h.service.Now()
	out := make([]InstanceResponse, len(items))
	for i, bi := range items {
		out[i] = NewInstanceResponse(bi, now)
	}
	return out
}

type InstanceReq struct {
	BookID  int64  `json:"book_id" validate:"required,gt=0"`
	Imprint string `json:"imprint" validate:"required,max=200"`
}

type ReserveReq struct {
	BorrowerID *string `json:"borrower_id" validate:"omitempty,uuid"`
}

type CheckoutReq struct {
	BorrowerID string `json:"borrower_id" validate:"required,uuid"`
	DueBack    string `json:"due_back" validate:"required,datetime=2006-01-02"`
}

type RenewReq struct {
	DueBack string `json:"due_back" validate:"required,datetime=2006-01-02"`
}

// List handles GET /v1/instances
// @Summary List book copies
// @Tags instances
// @Produce json
// @Param book_id query int false "Filter by book"
// @Param status query string false "m, o, a or r"
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/instances [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := httpx.Page(r)
	params := r.URL.Query()
	q := Query{Limit: pageSize, Offset: (page - 1) * pageSize}

	if v := params.Get("book_id"); v != "" {
		id, err := crud.Int64Key(v)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid book_id", nil)
			return
		}
		q.BookID = id
	}
	if v := params.Get("status"); v != "" {
		q.Status = Status(v)
		if !q.Status.Valid() {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid status", nil)
			return
		}
	}

	items, total, err := h.service.List(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, h.render(items), httpx.PageMeta(page, pageSize, total))
}

func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	bi, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, NewInstanceResponse(bi, h.service.Now()), nil)
}

// Create handles POST /v1/instances
// @Summary Add a copy of a book
// @Tags instances
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body InstanceReq true "Copy"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /v1/instances [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.ManageCatalog) {
		return
	}
	var req InstanceReq
	if !h.decode(w, r, &req) {
		return
	}
	bi, err := h.service.Create(r.Context(), httpx.ActorFrom(r), req.BookID, req.Imprint)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// The title comes from the join, so reload.
	if full, err := h.service.Get(r.Context(), bi.ID); err == nil {
		bi = full
	}
	httpx.JSONSuccessCreated(w, r, NewInstanceResponse(bi, h.service.Now()))
}

func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.ManageCatalog) {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	var req InstanceReq
	if !h.decode(w, r, &req) {
		return
	}
	bi, err := h.service.UpdateDetails(r.Context(), httpx.ActorFrom(r), id, req.BookID, req.Imprint)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, NewInstanceResponse(bi, h.service.Now()), nil)
}

func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.ManageCatalog) {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), httpx.ActorFrom(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

func (h *HTTPHandler) MakeAvailable(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.ManageCatalog) {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.service.MakeAvailable(r.Context(), httpx.ActorFrom(r), id))
}

func (h *HTTPHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.ManageCatalog) {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	var req ReserveReq
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, r)(h.service.Reserve(r.Context(), httpx.ActorFrom(r), id, req.BorrowerID))
}

// Checkout handles POST /v1/instances/{id}/checkout
// @Summary Lend a copy
// @Tags instances
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Instance UUID"
// @Param request body CheckoutReq true "Borrower and due date"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/instances/{id}/checkout [post]
func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.ManageCatalog) {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	var req CheckoutReq
	if !h.decode(w, r, &req) {
		return
	}
	due, _ := time.Parse(dateLayout, req.DueBack)
	h.respond(w, r)(h.service.Checkout(r.Context(), httpx.ActorFrom(r), id, req.BorrowerID, due))
}

func (h *HTTPHandler) Return(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.MarkReturned) {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.service.Return(r.Context(), httpx.ActorFrom(r), id))
}

func (h *HTTPHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.ManageCatalog) {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.service.Withdraw(r.Context(), httpx.ActorFrom(r), id))
}

// RenewForm handles GET /v1/instances/{id}/renew
// @Summary Proposed renewal date
// @Tags loans
// @Produce json
// @Security Bearer
// @Param id path string true "Instance UUID"
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/instances/{id}/renew [get]
func (h *HTTPHandler) RenewForm(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.Renew) {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	bi, proposed, err := h.service.ProposeRenewal(r.Context(), httpx.ActorFrom(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]any{
		"instance":          NewInstanceResponse(bi, h.service.Now()),
		"proposed_due_back": proposed.Format(dateLayout),
	}, nil)
}

// Renew handles POST /v1/instances/{id}/renew
// @Summary Renew a loan
// @Description Sets a new due date between today and four weeks from today.
// @Tags loans
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Instance UUID"
// @Param request body RenewReq true "New due date"
// @Success 303 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /v1/instances/{id}/renew [post]
func (h *HTTPHandler) Renew(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, access.Renew) {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	var req RenewReq
	if !h.decode(w, r, &req) {
		return
	}
	due, _ := time.Parse(dateLayout, req.DueBack)
	bi, err := h.service.Renew(r.Context(), httpx.ActorFrom(r), id, due)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSeeOther(w, r, "/v1/loans", NewInstanceResponse(bi, h.service.Now()))
}

func (h *HTTPHandler) MyLoans(w http.ResponseWriter, r *http.Request) {
	h.list(w, r)(h.service.OnLoanTo(r.Context(), httpx.ActorFrom(r)))
}

func (h *HTTPHandler) AllOnLoan(w http.ResponseWriter, r *http.Request) {
	h.list(w, r)(h.service.AllOnLoan(r.Context(), httpx.ActorFrom(r)))
}

func (h *HTTPHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	h.list(w, r)(h.service.Overdue(r.Context(), httpx.ActorFrom(r)))
}

func (h *HTTPHandler) respond(w http.ResponseWriter, r *http.Request) func(BookInstance, error) {
	return func(bi BookInstance, err error) {
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httpx.JSONSuccess(w, r, NewInstanceResponse(bi, h.service.Now()), nil)
	}
}

func (h *HTTPHandler) list(w http.ResponseWriter, r *http.Request) func([]BookInstance, error) {
	return func(items []BookInstance, err error) {
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httpx.JSONSuccess(w, r, h.render(items), map[string]any{"total": len(items)})
	}
}

// authorize rejects the caller before any path or body validation runs.
func (h *HTTPHandler) authorize(w http.ResponseWriter, r *http.Request, p access.Permission) bool {
	if err := access.Authorize(httpx.ActorFrom(r), p); err != nil {
		h.writeError(w, r, err)
		return false
	}
	return true
}

func (h *HTTPHandler) id(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid instance id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return false
	}
	if details := httpx.ValidateStruct(dst); len(details) > 0 {
		crud.WriteValidation(w, r, details)
		return false
	}
	return true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", string(ve.Kind), []httpx.ErrorDetail{
			{Field: ve.Field(), Message: ve.Message},
		})
		return
	}
	crud.WriteError(w, r, h.logger, err)
}
