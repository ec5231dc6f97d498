package user

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"locallibrary/internal/access"
	"locallibrary/internal/crud"
	"locallibrary/internal/httpx"
)

type HTTPHandler struct {
	service *Service
	logger  *zap.Logger
}

func NewHTTPHandler(service *Service, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/users/register", h.RegisterUser)
	mux.HandleFunc("GET /v1/me", h.GetCurrentUser)
}

type RegisterReq struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,password_strength"`
}

// RegisterUser handles POST /v1/users/register
// @Summary Register a new user
// @Description Create a library account without permissions
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterReq true "Registration request"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/users/register [post]
func (h *HTTPHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(&req); len(details) > 0 {
		crud.WriteValidation(w, r, details)
		return
	}

	u, err := h.service.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			httpx.JSONError(w, r, http.StatusConflict, "ALREADY_EXISTS", "Email already exists", nil)
			return
		}
		crud.WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, u)
}

// GetCurrentUser handles GET /v1/me
// @Summary Get current user
// @Tags users
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /v1/me [get]
func (h *HTTPHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor := httpx.ActorFrom(r)
	if err := access.RequireLogin(actor); err != nil {
		crud.WriteError(w, r, h.logger, err)
		return
	}

	u, err := h.service.GetByID(r.Context(), actor.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Token outlived its account.
			httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return
		}
		crud.WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, u, nil)
}
