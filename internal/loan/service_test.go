package loan

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"locallibrary/internal/access"
	"locallibrary/internal/crud"
)

var (
	librarian = access.NewActor("librarian-1", []string{
		string(access.ManageCatalog), string(access.MarkReturned), string(access.Renew), string(access.MarkLate),
	})
	member    = access.NewActor("borrower-1", nil)
	anonymous = access.Anonymous()
)

func newTestService(repo Repository) *Service {
	return NewService(repo, zap.NewNop()).WithClock(func() time.Time { return now })
}

func TestService_Renew(t *testing.T) {
	ctx := context.Background()

	t.Run("success persists only due_back", func(t *testing.T) {
		bi := onLoan(datePtr(day(2)))
		repo := newMemoryRepo(bi)

		got, err := newTestService(repo).Renew(ctx, librarian, bi.ID, day(20))
		require.NoError(t, err)
		assert.Equal(t, day(20), *got.DueBack)

		stored, _ := repo.Get(ctx, bi.ID)
		assert.Equal(t, day(20), *stored.DueBack)
		assert.Equal(t, OnLoan, stored.Status)
		assert.Equal(t, "borrower-1", *stored.BorrowerID)
	})

	t.Run("invalid date leaves stored copy unchanged", func(t *testing.T) {
		bi := onLoan(datePtr(day(2)))
		repo := newMemoryRepo(bi)

		_, err := newTestService(repo).Renew(ctx, librarian, bi.ID, day(29))
		assert.Equal(t, InvalidRenewalDate, kindOf(t, err))

		stored, _ := repo.Get(ctx, bi.ID)
		assert.Equal(t, day(2), *stored.DueBack)
	})

	t.Run("maintenance copy is not on loan", func(t *testing.T) {
		bi := BookInstance{ID: uuid.New(), Status: Maintenance}
		_, err := newTestService(newMemoryRepo(bi)).Renew(ctx, librarian, bi.ID, day(7))
		assert.Equal(t, NotOnLoan, kindOf(t, err))
	})

	t.Run("permission is checked before the row is read", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		// No repository call is expected.
		svc := newTestService(repo)

		_, err := svc.Renew(ctx, member, uuid.New(), day(-100))
		assert.ErrorIs(t, err, access.ErrAccessDenied)
		assert.NotErrorIs(t, err, access.ErrLoginRequired)

		_, err = svc.Renew(ctx, anonymous, uuid.New(), day(7))
		assert.ErrorIs(t, err, access.ErrLoginRequired)
	})

	t.Run("missing copy", func(t *testing.T) {
		_, err := newTestService(newMemoryRepo()).Renew(ctx, librarian, uuid.New(), day(7))
		assert.ErrorIs(t, err, crud.ErrNotFound)
	})
}

func TestService_ProposeRenewal(t *testing.T) {
	bi := onLoan(datePtr(day(1)))
	svc := newTestService(newMemoryRepo(bi))

	got, proposed, err := svc.ProposeRenewal(context.Background(), librarian, bi.ID)
	require.NoError(t, err)
	assert.Equal(t, bi.ID, got.ID)
	assert.Equal(t, day(21), proposed)

	_, _, err = svc.ProposeRenewal(context.Background(), member, bi.ID)
	assert.ErrorIs(t, err, access.ErrAccessDenied)
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo)

	bi, err := svc.Create(ctx, librarian, 5, "Penguin, 1999")
	require.NoError(t, err)
	assert.Equal(t, Maintenance, bi.Status)
	assert.NotEqual(t, uuid.Nil, bi.ID)

	bi, err = svc.MakeAvailable(ctx, librarian, bi.ID)
	require.NoError(t, err)
	assert.Equal(t, Available, bi.Status)

	n, err := svc.AvailableCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	borrower := "borrower-1"
	bi, err = svc.Reserve(ctx, librarian, bi.ID, &borrower)
	require.NoError(t, err)
	assert.Equal(t, Reserved, bi.Status)

	bi, err = svc.Checkout(ctx, librarian, bi.ID, borrower, day(14))
	require.NoError(t, err)
	assert.Equal(t, OnLoan, bi.Status)

	_, err = svc.Return(ctx, member, bi.ID)
	assert.ErrorIs(t, err, access.ErrAccessDenied)

	bi, err = svc.Return(ctx, librarian, bi.ID)
	require.NoError(t, err)
	assert.Equal(t, Available, bi.Status)
	assert.Nil(t, bi.BorrowerID)

	bi, err = svc.Withdraw(ctx, librarian, bi.ID)
	require.NoError(t, err)
	assert.Equal(t, Maintenance, bi.Status)

	bi, err = svc.UpdateDetails(ctx, librarian, bi.ID, 6, "Tor, 2001")
	require.NoError(t, err)
	assert.Equal(t, int64(6), bi.BookID)
	assert.Equal(t, Maintenance, bi.Status)

	require.NoError(t, svc.Delete(ctx, librarian, bi.ID))
	total, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestService_CatalogWritesNeedPermission(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo())

	_, err := svc.Create(ctx, member, 1, "x")
	assert.ErrorIs(t, err, access.ErrAccessDenied)
	_, err = svc.UpdateDetails(ctx, member, uuid.New(), 1, "x")
	assert.ErrorIs(t, err, access.ErrAccessDenied)
	assert.ErrorIs(t, svc.Delete(ctx, anonymous, uuid.New()), access.ErrLoginRequired)
	_, err = svc.Checkout(ctx, member, uuid.New(), "borrower-1", day(3))
	assert.ErrorIs(t, err, access.ErrAccessDenied)
}

func TestService_LoanListings(t *testing.T) {
	ctx := context.Background()
	mine1 := onLoan(datePtr(day(5)))
	mine2 := onLoan(nil)
	mine3 := onLoan(datePtr(day(-3)))
	other := onLoan(datePtr(day(-1)))
	other.BorrowerID = strPtr("borrower-2")
	shelved := BookInstance{ID: uuid.New(), Status: Available}

	svc := newTestService(newMemoryRepo(mine1, mine2, mine3, other, shelved))

	mine, err := svc.OnLoanTo(ctx, member)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mine2.ID, mine3.ID, mine1.ID}, ids(mine))

	_, err = svc.OnLoanTo(ctx, anonymous)
	assert.ErrorIs(t, err, access.ErrLoginRequired)

	all, err := svc.AllOnLoan(ctx, librarian)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mine2.ID, mine3.ID, other.ID, mine1.ID}, ids(all))

	_, err = svc.AllOnLoan(ctx, member)
	assert.ErrorIs(t, err, access.ErrAccessDenied)

	overdue, err := svc.Overdue(ctx, librarian)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mine3.ID, other.ID}, ids(overdue))

	_, err = svc.Overdue(ctx, member)
	assert.ErrorIs(t, err, access.ErrAccessDenied)
}

func TestService_LogsTransitions(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	bi := BookInstance{ID: uuid.New(), Status: Maintenance}
	svc := NewService(newMemoryRepo(bi), zap.New(core)).WithClock(func() time.Time { return now })

	_, err := svc.MakeAvailable(context.Background(), librarian, bi.ID)
	require.NoError(t, err)

	entries := logs.FilterMessage("instance transition").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "Maintenance", fields["from"])
	assert.Equal(t, "Available", fields["to"])
	assert.Equal(t, "librarian-1", fields["actor"])
	assert.Equal(t, bi.ID.String(), fields["instance_id"])
}

func ids(items []BookInstance) []uuid.UUID {
	out := make([]uuid.UUID, len(items))
	for i, bi := range items {
		out[i] = bi.ID
	}
	return out
}
