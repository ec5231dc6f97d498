package catalog

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"locallibrary/internal/access"
	"locallibrary/internal/crud"
	"locallibrary/internal/httpx"
	"locallibrary/internal/loan"
)

// Copies lists the physical copies of a book.
type Copies interface {
	List(ctx context.Context, q loan.Query) ([]loan.BookInstance, int, error)
	Now() time.Time
}

type HTTPHandler struct {
	genres    crud.Store[Genre, int64]
	languages crud.Store[Language, int64]
	authors   crud.Store[Author, int64]
	books     crud.Store[Book, int64]
	copies    Copies
	importer  *Importer
	logger    *zap.Logger
}

type Deps struct {
	Genres    crud.Store[Genre, int64]
	Languages crud.Store[Language, int64]
	Authors   crud.Store[Author, int64]
	Books     crud.Store[Book, int64]
	Copies    Copies
	Importer  *Importer
}

func NewHTTPHandler(d Deps, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		genres:    d.Genres,
		languages: d.Languages,
		authors:   d.Authors,
		books:     d.Books,
		copies:    d.Copies,
		importer:  d.Importer,
		logger:    logger,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	crud.NewHandler(h.genres, crud.Int64Key, h.logger).Register(mux, "/v1/genres")
	crud.NewHandler(h.languages, crud.Int64Key, h.logger).Register(mux, "/v1/languages")
	crud.NewHandler(h.authors, crud.Int64Key, h.logger).
		WithValidator(validateAuthorDates).
		Register(mux, "/v1/authors")
	crud.NewHandler(h.books, crud.Int64Key, h.logger).Register(mux, "/v1/books")

	mux.HandleFunc("GET /v1/books/{id}/instances", h.BookInstances)
	mux.HandleFunc("GET /v1/authors/{id}/books", h.AuthorBooks)
	mux.HandleFunc("POST /v1/books/import", h.Import)
}

// BookInstances handles GET /v1/books/{id}/instances
// @Summary List the copies of a book
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/books/{id}/instances [get]
func (h *HTTPHandler) BookInstances(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	book, err := h.books.Get(r.Context(), id)
	if err != nil {
		crud.WriteError(w, r, h.logger, err)
		return
	}

	page, pageSize := httpx.Page(r)
	items, total, err := h.copies.List(r.Context(), loan.Query{
		BookID: book.ID,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		crud.WriteError(w, r, h.logger, err)
		return
	}

	now := h.copies.Now()
	out := make([]loan.InstanceResponse, len(items))
	for i, bi := range items {
		out[i] = loan.NewInstanceResponse(bi, now)
	}
	httpx.JSONSuccess(w, r, out, httpx.PageMeta(page, pageSize, total))
}

// AuthorBooks handles GET /v1/authors/{id}/books
// @Summary List the books of an author
// @Tags authors
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/authors/{id}/books [get]
func (h *HTTPHandler) AuthorBooks(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	if _, err := h.authors.Get(r.Context(), id); err != nil {
		crud.WriteError(w, r, h.logger, err)
		return
	}

	q, page, pageSize := crud.ListQuery(r)
	q.Filter = map[string]any{"author_id": id}
	books, total, err := h.books.List(r.Context(), q)
	if err != nil {
		crud.WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, books, httpx.PageMeta(page, pageSize, total))
}

type ImportReq struct {
	ISBN string `json:"isbn" validate:"required,isbn"`
}

// Import handles POST /v1/books/import
// @Summary Import a book from Open Library
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ImportReq true "ISBN-13"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/books/import [post]
func (h *HTTPHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := access.Authorize(httpx.ActorFrom(r), access.ManageCatalog); err != nil {
		crud.WriteError(w, r, h.logger, err)
		return
	}
	var req ImportReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(&req); len(details) > 0 {
		crud.WriteValidation(w, r, details)
		return
	}

	book, err := h.importer.Import(r.Context(), httpx.ActorFrom(r), req.ISBN)
	if err != nil {
		crud.WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, book)
}

func (h *HTTPHandler) id(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := crud.Int64Key(r.PathValue("id"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid id", nil)
		return 0, false
	}
	return id, true
}
