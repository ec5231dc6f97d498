package loan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"locallibrary/internal/access"
)

type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithClock replaces the time source used for "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (BookInstance, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, q Query) ([]BookInstance, int, error) {
	return s.repo.List(ctx, q)
}

// Create registers a new copy. Copies always start in maintenance.
func (s *Service) Create(ctx context.Context, actor access.Actor, bookID int64, imprint string) (BookInstance, error) {
	if err := access.Authorize(actor, access.ManageCatalog); err != nil {
		return BookInstance{}, err
	}
	bi := BookInstance{
		ID:      uuid.New(),
		BookID:  bookID,
		Imprint: imprint,
		Status:  Maintenance,
	}
	if err := s.repo.Create(ctx, &bi); err != nil {
		return BookInstance{}, err
	}
	s.logger.Info("instance created",
		zap.Stringer("instance_id", bi.ID),
		zap.Int64("book_id", bookID),
		zap.String("actor", actor.UserID),
	)
	return bi, nil
}

// UpdateDetails edits the catalog fields of a copy. Status and borrower only
// change through the transition operations.
func (s *Service) UpdateDetails(ctx context.Context, actor access.Actor, id uuid.UUID, bookID int64, imprint string) (BookInstance, error) {
	if err := access.Authorize(actor, access.ManageCatalog); err != nil {
		return BookInstance{}, err
	}
	return s.repo.UpdateDetails(ctx, id, bookID, imprint)
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if err := access.Authorize(actor, access.ManageCatalog); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Renew sets a new due date on an on-loan copy. Permission is checked before
// any date validation; the date is validated against the locked, freshest row.
func (s *Service) Renew(ctx context.Context, actor access.Actor, id uuid.UUID, due time.Time) (BookInstance, error) {
	now := s.now()
	return s.transition(ctx, actor, access.Renew, id, "renew", func(bi *BookInstance) error {
		return bi.Renew(due, now)
	})
}

// ProposeRenewal returns the copy with the suggested renewal date.
func (s *Service) ProposeRenewal(ctx context.Context, actor access.Actor, id uuid.UUID) (BookInstance, time.Time, error) {
	if err := access.Authorize(actor, access.Renew); err != nil {
		return BookInstance{}, time.Time{}, err
	}
	bi, err := s.repo.Get(ctx, id)
	if err != nil {
		return BookInstance{}, time.Time{}, err
	}
	return bi, ProposedRenewal(s.now()), nil
}

func (s *Service) MakeAvailable(ctx context.Context, actor access.Actor, id uuid.UUID) (BookInstance, error) {
	return s.transition(ctx, actor, access.ManageCatalog, id, "make_available", (*BookInstance).MakeAvailable)
}

func (s *Service) Reserve(ctx context.Context, actor access.Actor, id uuid.UUID, borrowerID *string) (BookInstance, error) {
	return s.transition(ctx, actor, access.ManageCatalog, id, "reserve", func(bi *BookInstance) error {
		return bi.Reserve(borrowerID)
	})
}

func (s *Service) Checkout(ctx context.Context, actor access.Actor, id uuid.UUID, borrowerID string, due time.Time) (BookInstance, error) {
	now := s.now()
	return s.transition(ctx, actor, access.ManageCatalog, id, "checkout", func(bi *BookInstance) error {
		return bi.Checkout(borrowerID, due, now)
	})
}

func (s *Service) Return(ctx context.Context, actor access.Actor, id uuid.UUID) (BookInstance, error) {
	return s.transition(ctx, actor, access.MarkReturned, id, "return", (*BookInstance).Return)
}

func (s *Service) Withdraw(ctx context.Context, actor access.Actor, id uuid.UUID) (BookInstance, error) {
	return s.transition(ctx, actor, access.ManageCatalog, id, "withdraw", (*BookInstance).Withdraw)
}

func (s *Service) transition(ctx context.Context, actor access.Actor, perm access.Permission, id uuid.UUID, action string, apply func(*BookInstance) error) (BookInstance, error) {
	if err := access.Authorize(actor, perm); err != nil {
		return BookInstance{}, err
	}

	var from Status
	bi, err := s.repo.Modify(ctx, id, func(bi *BookInstance) error {
		from = bi.Status
		return apply(bi)
	})
	if err != nil {
		return BookInstance{}, err
	}

	s.logger.Info("instance transition",
		zap.String("action", action),
		zap.Stringer("instance_id", id),
		zap.String("from", from.Label()),
		zap.String("to", bi.Status.Label()),
		zap.String("actor", actor.UserID),
	)
	return bi, nil
}

// AvailableCount counts copies that can be lent right now.
func (s *Service) AvailableCount(ctx context.Context) (int, error) {
	return s.repo.CountByStatus(ctx, Available)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// OnLoanTo lists the copies the actor has borrowed, soonest due first.
func (s *Service) OnLoanTo(ctx context.Context, actor access.Actor) ([]BookInstance, error) {
	if err := access.RequireLogin(actor); err != nil {
		return nil, err
	}
	return s.repo.ListOnLoan(ctx, actor.UserID)
}

// AllOnLoan lists every on-loan copy for librarians.
func (s *Service) AllOnLoan(ctx context.Context, actor access.Actor) ([]BookInstance, error) {
	if err := access.Authorize(actor, access.MarkReturned); err != nil {
		return nil, err
	}
	return s.repo.ListOnLoan(ctx, "")
}

// Overdue lists on-loan copies whose due date has passed.
func (s *Service) Overdue(ctx context.Context, actor access.Actor) ([]BookInstance, error) {
	if err := access.Authorize(actor, access.MarkLate); err != nil {
		return nil, err
	}
	return s.repo.ListOverdue(ctx, Today(s.now()))
}

// Now exposes the service clock so responses can compute is_overdue consistently.
func (s *Service) Now() time.Time {
	return s.now()
}
