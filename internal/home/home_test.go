package home

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"locallibrary/internal/crud"
	"locallibrary/internal/session"
)

type countByQuery map[string]int

func (c countByQuery) Count(_ context.Context, q crud.Query) (int, error) {
	n, ok := c[q.Search]
	if !ok {
		return 0, errors.New("unexpected query " + q.Search)
	}
	return n, nil
}

type books struct {
	countByQuery
	words map[string]int
}

func (b books) CountTitleContaining(_ context.Context, word string) (int, error) {
	return b.words[word], nil
}

type instances struct {
	total, available int
	err              error
}

func (i instances) Count(context.Context) (int, error)          { return i.total, i.err }
func (i instances) AvailableCount(context.Context) (int, error) { return i.available, i.err }

type visits struct {
	counts map[uuid.UUID]int
	err    error
}

func (v *visits) RecordVisit(_ context.Context, id uuid.UUID) (int, error) {
	if v.err != nil {
		return 0, v.err
	}
	v.counts[id]++
	return v.counts[id], nil
}

func newTestHandler(inst instances, v *visits) *Handler {
	return NewHandler(
		books{countByQuery: countByQuery{"": 12}, words: map[string]int{"the ": 4}},
		countByQuery{"": 5},
		countByQuery{"horror": 1},
		inst,
		v,
		zap.NewNop(),
	)
}

func TestHandler_Index(t *testing.T) {
	v := &visits{counts: map[uuid.UUID]int{}}
	h := newTestHandler(instances{total: 30, available: 17}, v)
	mux := http.NewServeMux()
	h.Register(mux)

	id := uuid.New()
	get := func() Stats {
		r := httptest.NewRequest(http.MethodGet, "/v1/", nil)
		r = r.WithContext(session.ContextWithID(r.Context(), id))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data Stats `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		return body.Data
	}

	first := get()
	assert.Equal(t, Stats{
		NumBooks:              12,
		NumInstances:          30,
		NumInstancesAvailable: 17,
		NumAuthors:            5,
		NumGenresWithWord:     1,
		NumBooksWithWordThe:   4,
		NumVisits:             1,
	}, first)

	assert.Equal(t, 2, get().NumVisits)
}

func TestHandler_Stats_NoSession(t *testing.T) {
	v := &visits{counts: map[uuid.UUID]int{}}
	s, err := newTestHandler(instances{}, v).Stats(context.Background())

	require.NoError(t, err)
	assert.Zero(t, s.NumVisits)
	assert.Empty(t, v.counts)
}

func TestHandler_Stats_ExpiredSession(t *testing.T) {
	v := &visits{err: session.ErrNotFound}
	ctx := session.ContextWithID(context.Background(), uuid.New())

	s, err := newTestHandler(instances{}, v).Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, s.NumVisits)
}

func TestHandler_Index_StoreError(t *testing.T) {
	h := newTestHandler(instances{err: errors.New("db down")}, &visits{counts: map[uuid.UUID]int{}})
	w := httptest.NewRecorder()
	h.Index(w, httptest.NewRequest(http.MethodGet, "/v1/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}
