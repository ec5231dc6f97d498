package crud

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"locallibrary/internal/platform/postgres"
)

var dialect = goqu.Dialect("postgres")

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGStore[T any, K comparable] struct {
	db      DBTX
	table   Table[T, K]
	timeout time.Duration
}

func NewPGStore[T any, K comparable](db DBTX, table Table[T, K], timeout time.Duration) *PGStore[T, K] {
	return &PGStore[T, K]{db: db, table: table, timeout: timeout}
}

// WithTx returns a store bound to tx, sharing the table descriptor.
func (s *PGStore[T, K]) WithTx(tx pgx.Tx) *PGStore[T, K] {
	return &PGStore[T, K]{db: tx, table: s.table, timeout: s.timeout}
}

func (s *PGStore[T, K]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a LIKE pattern matching text literally anywhere.
// Backslash is the Postgres default LIKE escape character.
func ContainsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

func (s *PGStore[T, K]) filtered(q Query) *goqu.SelectDataset {
	ds := dialect.From(s.table.Name).Prepared(true)
	if len(q.Filter) > 0 {
		ds = ds.Where(goqu.Ex(q.Filter))
	}
	if q.Search != "" && len(s.table.SearchCols) > 0 {
		pattern := ContainsPattern(q.Search)
		ors := make([]exp.Expression, len(s.table.SearchCols))
		for i, c := range s.table.SearchCols {
			ors[i] = goqu.C(c).ILike(pattern)
		}
		ds = ds.Where(goqu.Or(ors...))
	}
	return ds
}

// Count returns how many rows match the query's search and filter.
func (s *PGStore[T, K]) Count(ctx context.Context, q Query) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query, args, err := s.filtered(q).Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, err
	}
	var total int
	if err := s.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, Translate(err)
	}
	return total, nil
}

func (s *PGStore[T, K]) List(ctx context.Context, q Query) ([]T, int, error) {
	total, err := s.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	order := make([]exp.OrderedExpression, 0, 2)
	for _, c := range s.table.sortColumns(q.Sort) {
		if q.Desc {
			order = append(order, goqu.C(c).Desc())
		} else {
			order = append(order, goqu.C(c).Asc())
		}
	}
	// Stable pagination when the sort column has duplicates.
	order = append(order, goqu.C(s.table.Key).Asc())

	ds := s.filtered(q).Select(s.table.selectCols()...).Order(order...)
	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}
	if q.Offset > 0 {
		ds = ds.Offset(uint(q.Offset))
	}
	dataSQL, args, err := ds.ToSQL()
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, Translate(err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := s.table.Scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, item)
	}
	return out, total, Translate(rows.Err())
}

func (s *PGStore[T, K]) Get(ctx context.Context, id K) (T, error) {
	var zero T
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query, args, err := dialect.From(s.table.Name).Prepared(true).
		Select(s.table.selectCols()...).
		Where(goqu.C(s.table.Key).Eq(id)).
		ToSQL()
	if err != nil {
		return zero, err
	}
	item, err := s.table.Scan(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		return zero, Translate(err)
	}
	return item, nil
}

func (s *PGStore[T, K]) Create(ctx context.Context, item *T) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query, args, err := dialect.Insert(s.table.Name).Prepared(true).
		Rows(s.table.Record(item)).
		Returning(goqu.C(s.table.Key)).
		ToSQL()
	if err != nil {
		return err
	}
	var id K
	if err := s.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return Translate(err)
	}
	s.table.SetKey(item, id)
	return nil
}

func (s *PGStore[T, K]) Update(ctx context.Context, id K, item *T) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query, args, err := dialect.Update(s.table.Name).Prepared(true).
		Set(s.table.Record(item)).
		Where(goqu.C(s.table.Key).Eq(id)).
		ToSQL()
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.table.SetKey(item, id)
	return nil
}

func (s *PGStore[T, K]) Delete(ctx context.Context, id K) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query, args, err := dialect.Delete(s.table.Name).Prepared(true).
		Where(goqu.C(s.table.Key).Eq(id)).
		ToSQL()
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Translate turns driver errors into the package sentinels. Repositories that
// issue their own SQL use it too.
func Translate(err error) error {
	err = postgres.Classify(err)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, postgres.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, postgres.ErrUnique):
		return errors.Join(ErrConflict, err)
	case errors.Is(err, postgres.ErrReference):
		return errors.Join(ErrIntegrity, err)
	}
	return err
}
