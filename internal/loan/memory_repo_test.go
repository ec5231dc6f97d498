package loan

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"locallibrary/internal/crud"
)

// memoryRepo is an in-process Repository used by the ledger property tests.
type memoryRepo struct {
	mu        sync.Mutex
	instances map[uuid.UUID]BookInstance
}

func newMemoryRepo(items ...BookInstance) *memoryRepo {
	r := &memoryRepo{instances: make(map[uuid.UUID]BookInstance)}
	for _, bi := range items {
		r.instances[bi.ID] = bi
	}
	return r
}

func (r *memoryRepo) Create(_ context.Context, bi *BookInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[bi.ID]; ok {
		return crud.ErrConflict
	}
	r.instances[bi.ID] = *bi
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) (BookInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bi, ok := r.instances[id]
	if !ok {
		return BookInstance{}, crud.ErrNotFound
	}
	return bi, nil
}

func (r *memoryRepo) filter(keep func(BookInstance) bool) []BookInstance {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]BookInstance, 0)
	for _, bi := range r.instances {
		if keep(bi) {
			out = append(out, bi)
		}
	}
	sortByDueBack(out)
	return out
}

func sortByDueBack(items []BookInstance) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].DueBack, items[j].DueBack
		switch {
		case a == nil && b == nil:
			return items[i].ID.String() < items[j].ID.String()
		case a == nil:
			return true
		case b == nil:
			return false
		case a.Equal(*b):
			return items[i].ID.String() < items[j].ID.String()
		}
		return a.Before(*b)
	})
}

func (r *memoryRepo) List(_ context.Context, q Query) ([]BookInstance, int, error) {
	out := r.filter(func(bi BookInstance) bool {
		return (q.BookID == 0 || bi.BookID == q.BookID) && (q.Status == "" || bi.Status == q.Status)
	})
	total := len(out)
	if q.Offset > len(out) {
		q.Offset = len(out)
	}
	out = out[q.Offset:]
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, total, nil
}

func (r *memoryRepo) UpdateDetails(_ context.Context, id uuid.UUID, bookID int64, imprint string) (BookInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bi, ok := r.instances[id]
	if !ok {
		return BookInstance{}, crud.ErrNotFound
	}
	bi.BookID, bi.Imprint = bookID, imprint
	r.instances[id] = bi
	return bi, nil
}

func (r *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[id]; !ok {
		return crud.ErrNotFound
	}
	delete(r.instances, id)
	return nil
}

func (r *memoryRepo) Modify(_ context.Context, id uuid.UUID, fn func(*BookInstance) error) (BookInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bi, ok := r.instances[id]
	if !ok {
		return BookInstance{}, crud.ErrNotFound
	}
	if err := fn(&bi); err != nil {
		return BookInstance{}, err
	}
	r.instances[id] = bi
	return bi, nil
}

func (r *memoryRepo) CountByStatus(_ context.Context, status Status) (int, error) {
	return len(r.filter(func(bi BookInstance) bool { return bi.Status == status })), nil
}

func (r *memoryRepo) Count(_ context.Context) (int, error) {
	return len(r.filter(func(BookInstance) bool { return true })), nil
}

func (r *memoryRepo) ListOnLoan(_ context.Context, borrowerID string) ([]BookInstance, error) {
	return r.filter(func(bi BookInstance) bool {
		return bi.Status == OnLoan && (borrowerID == "" || (bi.BorrowerID != nil && *bi.BorrowerID == borrowerID))
	}), nil
}

func (r *memoryRepo) ListOverdue(_ context.Context, asOf time.Time) ([]BookInstance, error) {
	return r.filter(func(bi BookInstance) bool {
		return bi.Status == OnLoan && bi.IsOverdue(asOf)
	}), nil
}
