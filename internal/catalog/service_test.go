package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"locallibrary/internal/access"
	"locallibrary/internal/crud"
	"locallibrary/internal/platform/openlibrary"
)

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) GetBookByISBN(ctx context.Context, isbn string) (*openlibrary.Edition, error) {
	args := m.Called(ctx, isbn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openlibrary.Edition), args.Error(1)
}

type mockImportStore struct {
	mock.Mock
}

func (m *mockImportStore) SaveImport(ctx context.Context, d ImportDraft) (Book, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(Book), args.Error(1)
}

var librarian = access.NewActor("lib-1", []string{string(access.ManageCatalog)})

func scalzi() *openlibrary.Edition {
	return &openlibrary.Edition{
		Title:   "Old Man's War",
		Authors: []openlibrary.Named{{Name: "John Scalzi"}},
		Subjects: []openlibrary.Named{
			{Name: "Science fiction"},
			{Name: "science fiction"},
			{Name: "Space warfare"},
			{Name: " "},
			{Name: "Interstellar travel"},
			{Name: "Fiction"},
		},
		Notes: "A soldier's second life.",
	}
}

func TestDraftFromEdition(t *testing.T) {
	d := DraftFromEdition("9780765348272", scalzi())

	assert.Equal(t, "Old Man's War", d.Title)
	assert.Equal(t, "A soldier's second life.", d.Summary)
	assert.Equal(t, "9780765348272", d.ISBN)
	assert.Equal(t, "John", d.AuthorFirst)
	assert.Equal(t, "Scalzi", d.AuthorLast)
	assert.Equal(t, []string{"Science fiction", "Space warfare", "Interstellar travel"}, d.Genres)
}

func TestDraftFromEdition_TrimsToColumnLimits(t *testing.T) {
	ed := &openlibrary.Edition{
		Title:    strings.Repeat("t", 190),
		Subtitle: strings.Repeat("s", 50),
		Notes:    strings.Repeat("n", 1500),
	}
	d := DraftFromEdition("9780000000000", ed)

	assert.Len(t, []rune(d.Title), 200)
	assert.Len(t, []rune(d.Summary), 1000)
	assert.Empty(t, d.AuthorFirst)
	assert.Empty(t, d.AuthorLast)
	assert.Empty(t, d.Genres)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"John Scalzi", "John", "Scalzi"},
		{"Ursula K. Le Guin", "Ursula K. Le", "Guin"},
		{"Homer", "", "Homer"},
		{"  ", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			first, last := splitName(tt.in)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
		})
	}
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the book and logs it", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		lookup := new(mockLookup)
		store := new(mockImportStore)
		lookup.On("GetBookByISBN", ctx, "9780765348272").Return(scalzi(), nil)
		store.On("SaveImport", ctx, mock.MatchedBy(func(d ImportDraft) bool {
			return d.AuthorLast == "Scalzi" && d.ISBN == "9780765348272"
		})).Return(Book{ID: 42, Title: "Old Man's War", ISBN: "9780765348272"}, nil)
		imp := NewImporter(lookup, store, zap.New(core))

		book, err := imp.Import(ctx, librarian, "9780765348272")
		require.NoError(t, err)
		assert.Equal(t, int64(42), book.ID)
		store.AssertExpectations(t)

		entries := logs.FilterMessage("book imported").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "lib-1", entries[0].ContextMap()["actor"])
	})

	t.Run("requires can_manage_catalog", func(t *testing.T) {
		lookup := new(mockLookup)
		store := new(mockImportStore)
		imp := NewImporter(lookup, store, zap.NewNop())

		_, err := imp.Import(ctx, access.NewActor("member", nil), "9780765348272")
		assert.ErrorIs(t, err, access.ErrAccessDenied)
		lookup.AssertNotCalled(t, "GetBookByISBN", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "SaveImport", mock.Anything, mock.Anything)
	})

	t.Run("unknown isbn is not found", func(t *testing.T) {
		lookup := new(mockLookup)
		store := new(mockImportStore)
		lookup.On("GetBookByISBN", ctx, "9780000000000").Return(nil, openlibrary.ErrNotFound)
		imp := NewImporter(lookup, store, zap.NewNop())

		_, err := imp.Import(ctx, librarian, "9780000000000")
		assert.ErrorIs(t, err, crud.ErrNotFound)
		store.AssertNotCalled(t, "SaveImport", mock.Anything, mock.Anything)
	})

	t.Run("duplicate isbn conflicts", func(t *testing.T) {
		lookup := new(mockLookup)
		store := new(mockImportStore)
		lookup.On("GetBookByISBN", ctx, "9780765348272").Return(scalzi(), nil)
		store.On("SaveImport", ctx, mock.Anything).Return(Book{}, crud.ErrConflict)
		imp := NewImporter(lookup, store, zap.NewNop())

		_, err := imp.Import(ctx, librarian, "9780765348272")
		assert.ErrorIs(t, err, crud.ErrConflict)
	})

	t.Run("upstream failure passes through", func(t *testing.T) {
		boom := errors.New("upstream down")
		lookup := new(mockLookup)
		lookup.On("GetBookByISBN", ctx, "9780765348272").Return(nil, boom)
		imp := NewImporter(lookup, new(mockImportStore), zap.NewNop())

		_, err := imp.Import(ctx, librarian, "9780765348272")
		assert.ErrorIs(t, err, boom)
	})
}
