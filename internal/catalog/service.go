package catalog

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"locallibrary/internal/access"
	"locallibrary/internal/crud"
	"locallibrary/internal/platform/openlibrary"
)

const maxImportedGenres = 3

// Lookup fetches edition metadata for an ISBN.
type Lookup interface {
	GetBookByISBN(ctx context.Context, isbn string) (*openlibrary.Edition, error)
}

// ImportStore persists an import draft atomically.
type ImportStore interface {
	SaveImport(ctx context.Context, d ImportDraft) (Book, error)
}

// ImportDraft is a book ready to be written, with its author and genres
// given by name rather than id.
type ImportDraft struct {
	Title       string
	Summary     string
	ISBN        string
	AuthorFirst string
	AuthorLast  string
	Genres      []string
}

type Importer struct {
	lookup Lookup
	store  ImportStore
	logger *zap.Logger
}

func NewImporter(lookup Lookup, store ImportStore, logger *zap.Logger) *Importer {
	return &Importer{lookup: lookup, store: store, logger: logger}
}

// Import creates a Book from Open Library metadata. An unknown ISBN yields
// crud.ErrNotFound and an ISBN already in the catalog yields crud.ErrConflict.
func (i *Importer) Import(ctx context.Context, actor access.Actor, isbn string) (Book, error) {
	if err := access.Authorize(actor, access.ManageCatalog); err != nil {
		return Book{}, err
	}

	ed, err := i.lookup.GetBookByISBN(ctx, isbn)
	if errors.Is(err, openlibrary.ErrNotFound) {
		return Book{}, crud.ErrNotFound
	}
	if err != nil {
		return Book{}, err
	}

	book, err := i.store.SaveImport(ctx, DraftFromEdition(isbn, ed))
	if err != nil {
		return Book{}, err
	}
	i.logger.Info("book imported",
		zap.Int64("book_id", book.ID),
		zap.String("isbn", isbn),
		zap.String("actor", actor.UserID),
	)
	return book, nil
}

// DraftFromEdition keeps the first author and at most three subjects, and
// trims text to the column limits.
func DraftFromEdition(isbn string, ed *openlibrary.Edition) ImportDraft {
	title := ed.Title
	if ed.Subtitle != "" {
		title += ": " + ed.Subtitle
	}
	d := ImportDraft{
		Title:   truncate(title, 200),
		Summary: truncate(ed.Summary(), 1000),
		ISBN:    isbn,
	}
	if len(ed.Authors) > 0 {
		d.AuthorFirst, d.AuthorLast = splitName(ed.Authors[0].Name)
	}

	seen := make(map[string]bool)
	for _, s := range ed.Subjects {
		name := truncate(strings.TrimSpace(s.Name), 200)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		d.Genres = append(d.Genres, name)
		if len(d.Genres) == maxImportedGenres {
			break
		}
	}
	return d
}

// splitName treats the last word as the family name.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", truncate(parts[0], 100)
	}
	first = strings.Join(parts[:len(parts)-1], " ")
	return truncate(first, 100), truncate(parts[len(parts)-1], 100)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
