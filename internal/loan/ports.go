package loan

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Query filters instance listings. Zero values mean "any".
type Query struct {
	BookID int64
	Status Status
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, bi *BookInstance) error
	Get(ctx context.Context, id uuid.UUID) (BookInstance, error)
	List(ctx context.Context, q Query) ([]BookInstance, int, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, bookID int64, imprint string) (BookInstance, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Modify locks the row, applies fn to the freshest copy and writes it back
	// only when fn succeeds.
	Modify(ctx context.Context, id uuid.UUID, fn func(*BookInstance) error) (BookInstance, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
	Count(ctx context.Context) (int, error)
	// ListOnLoan returns on-loan copies ordered by due_back, nulls first.
	// An empty borrowerID matches every borrower.
	ListOnLoan(ctx context.Context, borrowerID string) ([]BookInstance, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]BookInstance, error)
}
