package catalog

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"locallibrary/internal/crud"
)

var dialect = goqu.Dialect("postgres")

// Stores bundles the per-table stores built over one pool.
type Stores struct {
	db        *pgxpool.Pool
	Genres    *crud.PGStore[Genre, int64]
	Languages *crud.PGStore[Language, int64]
	Authors   *crud.PGStore[Author, int64]
	Books     *BookRepo
}

func NewStores(db *pgxpool.Pool, timeout time.Duration) *Stores {
	return &Stores{
		db:        db,
		Genres:    crud.NewPGStore(db, GenreTable, timeout),
		Languages: crud.NewPGStore(db, LanguageTable, timeout),
		Authors:   crud.NewPGStore(db, AuthorTable, timeout),
		Books:     NewBookRepo(db, timeout),
	}
}

// BookRepo is a crud.Store for books that keeps book_genres in step with
// the book row inside one transaction.
type BookRepo struct {
	db      *pgxpool.Pool
	books   *crud.PGStore[Book, int64]
	timeout time.Duration
}

func NewBookRepo(db *pgxpool.Pool, timeout time.Duration) *BookRepo {
	return &BookRepo{db: db, books: crud.NewPGStore(db, BookTable, timeout), timeout: timeout}
}

func (r *BookRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *BookRepo) List(ctx context.Context, q crud.Query) ([]Book, int, error) {
	books, total, err := r.books.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachGenres(ctx, books); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *BookRepo) Count(ctx context.Context, q crud.Query) (int, error) {
	return r.books.Count(ctx, q)
}

// CountTitleContaining counts books whose title contains word, ignoring case.
func (r *BookRepo) CountTitleContaining(ctx context.Context, word string) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := dialect.From("books").Prepared(true).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("title").ILike(crud.ContainsPattern(word))).
		ToSQL()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, crud.Translate(err)
	}
	return n, nil
}

func (r *BookRepo) Get(ctx context.Context, id int64) (Book, error) {
	b, err := r.books.Get(ctx, id)
	if err != nil {
		return Book{}, err
	}
	books := []Book{b}
	if err := r.attachGenres(ctx, books); err != nil {
		return Book{}, err
	}
	return books[0], nil
}

func (r *BookRepo) Create(ctx context.Context, b *Book) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := r.books.WithTx(tx).Create(ctx, b); err != nil {
			return err
		}
		return replaceGenres(ctx, tx, b.ID, b.GenreIDs)
	})
}

func (r *BookRepo) Update(ctx context.Context, id int64, b *Book) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := r.books.WithTx(tx).Update(ctx, id, b); err != nil {
			return err
		}
		return replaceGenres(ctx, tx, id, b.GenreIDs)
	})
}

// Delete fails with crud.ErrIntegrity while copies of the book exist.
func (r *BookRepo) Delete(ctx context.Context, id int64) error {
	return r.books.Delete(ctx, id)
}

func replaceGenres(ctx context.Context, tx pgx.Tx, bookID int64, genreIDs []int64) error {
	del, args, err := dialect.Delete("book_genres").Prepared(true).
		Where(goqu.C("book_id").Eq(bookID)).
		ToSQL()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, del, args...); err != nil {
		return crud.Translate(err)
	}
	if len(genreIDs) == 0 {
		return nil
	}

	rows := make([]any, 0, len(genreIDs))
	seen := make(map[int64]bool, len(genreIDs))
	for _, gid := range genreIDs {
		if seen[gid] {
			continue
		}
		seen[gid] = true
		rows = append(rows, goqu.Record{"book_id": bookID, "genre_id": gid})
	}
	ins, args, err := dialect.Insert("book_genres").Prepared(true).Rows(rows...).ToSQL()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, ins, args...); err != nil {
		return crud.Translate(err)
	}
	return nil
}

func (r *BookRepo) attachGenres(ctx context.Context, books []Book) error {
	if len(books) == 0 {
		return nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ids := make([]int64, len(books))
	index := make(map[int64]int, len(books))
	for i := range books {
		ids[i] = books[i].ID
		index[books[i].ID] = i
		books[i].GenreIDs = []int64{}
	}

	query, args, err := dialect.From("book_genres").Prepared(true).
		Select("book_id", "genre_id").
		Where(goqu.C("book_id").In(ids)).
		Order(goqu.C("genre_id").Asc()).
		ToSQL()
	if err != nil {
		return err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return crud.Translate(err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID, genreID int64
		if err := rows.Scan(&bookID, &genreID); err != nil {
			return err
		}
		i := index[bookID]
		books[i].GenreIDs = append(books[i].GenreIDs, genreID)
	}
	return rows.Err()
}

// SaveImport creates the book from an import draft, reusing or creating its
// author and genres, all in one transaction.
func (s *Stores) SaveImport(ctx context.Context, d ImportDraft) (Book, error) {
	var out Book
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		b := Book{Title: d.Title, Summary: d.Summary, ISBN: d.ISBN}

		if d.AuthorFirst != "" || d.AuthorLast != "" {
			a, err := findOrCreate(ctx, s.Authors.WithTx(tx),
				map[string]any{"first_name": d.AuthorFirst, "last_name": d.AuthorLast},
				Author{FirstName: d.AuthorFirst, LastName: d.AuthorLast})
			if err != nil {
				return err
			}
			b.AuthorID = &a.ID
		}

		genres := s.Genres.WithTx(tx)
		for _, name := range d.Genres {
			g, err := findOrCreate(ctx, genres, map[string]any{"name": name}, Genre{Name: name})
			if err != nil {
				return err
			}
			b.GenreIDs = append(b.GenreIDs, g.ID)
		}

		if err := s.Books.books.WithTx(tx).Create(ctx, &b); err != nil {
			return err
		}
		if err := replaceGenres(ctx, tx, b.ID, b.GenreIDs); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return Book{}, err
	}
	return out, nil
}

// findOrCreate returns the first row matching filter exactly, creating fresh when none does.
func findOrCreate[T any](ctx context.Context, store *crud.PGStore[T, int64], filter map[string]any, fresh T) (T, error) {
	found, _, err := store.List(ctx, crud.Query{Filter: filter, Limit: 1})
	if err != nil {
		return fresh, err
	}
	if len(found) > 0 {
		return found[0], nil
	}
	if err := store.Create(ctx, &fresh); err != nil {
		return fresh, err
	}
	return fresh, nil
}
