package crud

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"locallibrary/internal/access"
	"locallibrary/internal/httpx"
)

// Handler serves the five CRUD routes for one entity. Reads are public;
// writes require can_manage_catalog.
type Handler[T any, K comparable] struct {
	store    Store[T, K]
	parseKey func(string) (K, error)
	validate func(*T) []httpx.ErrorDetail
	logger   *zap.Logger
}

func NewHandler[T any, K comparable](store Store[T, K], parseKey func(string) (K, error), logger *zap.Logger) *Handler[T, K] {
	return &Handler[T, K]{store: store, parseKey: parseKey, logger: logger}
}

// WithValidator adds checks that struct tags cannot express, such as cross-field dates.
func (h *Handler[T, K]) WithValidator(fn func(*T) []httpx.ErrorDetail) *Handler[T, K] {
	h.validate = fn
	return h
}

// Register mounts the routes under base, e.g. "/v1/genres".
func (h *Handler[T, K]) Register(mux *http.ServeMux, base string) {
	mux.HandleFunc("GET "+base, h.List)
	mux.HandleFunc("POST "+base, h.Create)
	mux.HandleFunc("GET "+base+"/{id}", h.Get)
	mux.HandleFunc("PUT "+base+"/{id}", h.Update)
	mux.HandleFunc("DELETE "+base+"/{id}", h.Delete)
}

// ListQuery reads q, sort, desc, page and page_size into a store query.
func ListQuery(r *http.Request) (Query, int, int) {
	page, pageSize := httpx.Page(r)
	params := r.URL.Query()
	return Query{
		Search: params.Get("q"),
		Sort:   params.Get("sort"),
		Desc:   params.Get("desc") == "true",
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}, page, pageSize
}

func (h *Handler[T, K]) List(w http.ResponseWriter, r *http.Request) {
	q, page, pageSize := ListQuery(r)
	items, total, err := h.store.List(r.Context(), q)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, items, httpx.PageMeta(page, pageSize, total))
}

func (h *Handler[T, K]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.key(w, r)
	if !ok {
		return
	}
	item, err := h.store.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, item, nil)
}

func (h *Handler[T, K]) Create(w http.ResponseWriter, r *http.Request) {
	if err := access.Authorize(httpx.ActorFrom(r), access.ManageCatalog); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	item, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.store.Create(r.Context(), item); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, item)
}

func (h *Handler[T, K]) Update(w http.ResponseWriter, r *http.Request) {
	if err := access.Authorize(httpx.ActorFrom(r), access.ManageCatalog); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	id, ok := h.key(w, r)
	if !ok {
		return
	}
	item, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.store.Update(r.Context(), id, item); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, item, nil)
}

func (h *Handler[T, K]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := access.Authorize(httpx.ActorFrom(r), access.ManageCatalog); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	id, ok := h.key(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

func (h *Handler[T, K]) key(w http.ResponseWriter, r *http.Request) (K, bool) {
	id, err := h.parseKey(r.PathValue("id"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid id", nil)
		return id, false
	}
	return id, true
}

func (h *Handler[T, K]) decode(w http.ResponseWriter, r *http.Request) (*T, bool) {
	item := new(T)
	if err := httpx.DecodeJSON(r, item); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return nil, false
	}
	details := httpx.ValidateStruct(item)
	if h.validate != nil {
		details = append(details, h.validate(item)...)
	}
	if len(details) > 0 {
		WriteValidation(w, r, details)
		return nil, false
	}
	return item, true
}

// Int64Key parses a positive integer path id.
func Int64Key(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
