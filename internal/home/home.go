// Package home serves the index page counts.
package home

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"locallibrary/internal/crud"
	"locallibrary/internal/httpx"
	"locallibrary/internal/session"
)

type Stats struct {
	NumBooks              int `json:"num_books"`
	NumInstances          int `json:"num_instances"`
	NumInstancesAvailable int `json:"num_instances_available"`
	NumAuthors            int `json:"num_authors"`
	NumGenresWithWord     int `json:"num_genres_with_word"`
	NumBooksWithWordThe   int `json:"num_books_with_word_the"`
	NumVisits             int `json:"num_visits"`
}

// Counter is satisfied by crud.PGStore.
type Counter interface {
	Count(ctx context.Context, q crud.Query) (int, error)
}

type BookCounter interface {
	Counter
	CountTitleContaining(ctx context.Context, word string) (int, error)
}

type InstanceCounter interface {
	Count(ctx context.Context) (int, error)
	AvailableCount(ctx context.Context) (int, error)
}

type Visits interface {
	RecordVisit(ctx context.Context, id uuid.UUID) (int, error)
}

type Handler struct {
	books     BookCounter
	authors   Counter
	genres    Counter
	instances InstanceCounter
	visits    Visits
	logger    *zap.Logger
}

func NewHandler(books BookCounter, authors, genres Counter, instances InstanceCounter, visits Visits, logger *zap.Logger) *Handler {
	return &Handler{
		books:     books,
		authors:   authors,
		genres:    genres,
		instances: instances,
		visits:    visits,
		logger:    logger,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/{$}", h.Index)
}

// Index handles GET /v1/
// @Summary Library summary
// @Description Record counts and the visitor's index view count
// @Tags home
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/ [get]
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats(r.Context())
	if err != nil {
		crud.WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, stats, nil)
}

// Stats gathers the counts concurrently. The visit is recorded only when a
// session is attached to ctx.
func (h *Handler) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		s.NumBooks, err = h.books.Count(gctx, crud.Query{})
		return err
	})
	g.Go(func() (err error) {
		s.NumBooksWithWordThe, err = h.books.CountTitleContaining(gctx, "the ")
		return err
	})
	g.Go(func() (err error) {
		s.NumAuthors, err = h.authors.Count(gctx, crud.Query{})
		return err
	})
	g.Go(func() (err error) {
		s.NumGenresWithWord, err = h.genres.Count(gctx, crud.Query{Search: "horror"})
		return err
	})
	g.Go(func() (err error) {
		s.NumInstances, err = h.instances.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		s.NumInstancesAvailable, err = h.instances.AvailableCount(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	if id, ok := session.IDFrom(ctx); ok {
		n, err := h.visits.RecordVisit(ctx, id)
		switch {
		case errors.Is(err, session.ErrNotFound):
			// Expired between middleware and here; report no visits.
		case err != nil:
			return Stats{}, err
		default:
			s.NumVisits = n
		}
	}
	return s, nil
}
