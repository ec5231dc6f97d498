package loan

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"locallibrary/internal/crud"
)

var dialect = goqu.Dialect("postgres")

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func selectInstances() *goqu.SelectDataset {
	return dialect.From(goqu.T("book_instances").As("bi")).Prepared(true).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("bi.book_id")))).
		Select(
			goqu.I("bi.id"),
			goqu.I("bi.book_id"),
			goqu.I("b.title"),
			goqu.I("bi.imprint"),
			goqu.I("bi.due_back"),
			goqu.L(`"bi"."borrower_id"::text`),
			goqu.I("bi.status"),
		)
}

// byDueBack is the default instance ordering: due date ascending, undated first.
func byDueBack(ds *goqu.SelectDataset) *goqu.SelectDataset {
	return ds.Order(goqu.I("bi.due_back").Asc().NullsFirst(), goqu.I("bi.id").Asc())
}

func scanInstance(row pgx.Row) (BookInstance, error) {
	var bi BookInstance
	var status string
	err := row.Scan(&bi.ID, &bi.BookID, &bi.BookTitle, &bi.Imprint, &bi.DueBack, &bi.BorrowerID, &status)
	bi.Status = Status(status)
	return bi, err
}

func queryInstances(ctx context.Context, q querier, ds *goqu.SelectDataset) ([]BookInstance, error) {
	sql, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, crud.Translate(err)
	}
	defer rows.Close()

	out := make([]BookInstance, 0)
	for rows.Next() {
		bi, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bi)
	}
	return out, crud.Translate(rows.Err())
}

func getInstance(ctx context.Context, q querier, ds *goqu.SelectDataset) (BookInstance, error) {
	sql, args, err := ds.ToSQL()
	if err != nil {
		return BookInstance{}, err
	}
	bi, err := scanInstance(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return BookInstance{}, crud.Translate(err)
	}
	return bi, nil
}

func (r *PostgresRepo) Create(ctx context.Context, bi *BookInstance) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := dialect.Insert("book_instances").Prepared(true).
		Rows(goqu.Record{
			"id":          bi.ID,
			"book_id":     bi.BookID,
			"imprint":     bi.Imprint,
			"due_back":    bi.DueBack,
			"borrower_id": bi.BorrowerID,
			"status":      string(bi.Status),
		}).
		ToSQL()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return crud.Translate(err)
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id uuid.UUID) (BookInstance, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return getInstance(ctx, r.db, selectInstances().Where(goqu.I("bi.id").Eq(id)))
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]BookInstance, int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	where := goqu.Ex{}
	if q.BookID != 0 {
		where["bi.book_id"] = q.BookID
	}
	if q.Status != "" {
		where["bi.status"] = string(q.Status)
	}

	countSQL, args, err := dialect.From(goqu.T("book_instances").As("bi")).Prepared(true).
		Select(goqu.COUNT(goqu.Star())).
		Where(where).
		ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, crud.Translate(err)
	}

	ds := byDueBack(selectInstances().Where(where))
	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}
	if q.Offset > 0 {
		ds = ds.Offset(uint(q.Offset))
	}
	items, err := queryInstances(ctx, r.db, ds)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresRepo) UpdateDetails(ctx context.Context, id uuid.UUID, bookID int64, imprint string) (BookInstance, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := dialect.Update("book_instances").Prepared(true).
		Set(goqu.Record{"book_id": bookID, "imprint": imprint}).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return BookInstance{}, err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return BookInstance{}, crud.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return BookInstance{}, crud.ErrNotFound
	}
	return getInstance(ctx, r.db, selectInstances().Where(goqu.I("bi.id").Eq(id)))
}

func (r *PostgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := dialect.Delete("book_instances").Prepared(true).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return crud.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return crud.ErrNotFound
	}
	return nil
}

// Modify reads the row under FOR UPDATE so concurrent transitions serialize
// and each one validates against the latest committed state.
func (r *PostgresRepo) Modify(ctx context.Context, id uuid.UUID, fn func(*BookInstance) error) (BookInstance, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out BookInstance
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		bi, err := getInstance(ctx, tx, selectInstances().
			Where(goqu.I("bi.id").Eq(id)).
			ForUpdate(exp.Wait, goqu.T("bi")))
		if err != nil {
			return err
		}
		if err := fn(&bi); err != nil {
			return err
		}

		sql, args, err := dialect.Update("book_instances").Prepared(true).
			Set(goqu.Record{
				"due_back":    bi.DueBack,
				"borrower_id": bi.BorrowerID,
				"status":      string(bi.Status),
			}).
			Where(goqu.C("id").Eq(id)).
			ToSQL()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return crud.Translate(err)
		}
		out = bi
		return nil
	})
	if err != nil {
		return BookInstance{}, err
	}
	return out, nil
}

func (r *PostgresRepo) count(ctx context.Context, where goqu.Ex) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := dialect.From("book_instances").Prepared(true).
		Select(goqu.COUNT(goqu.Star())).
		Where(where).
		ToSQL()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, crud.Translate(err)
	}
	return n, nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	return r.count(ctx, goqu.Ex{})
}

func (r *PostgresRepo) CountByStatus(ctx context.Context, status Status) (int, error) {
	return r.count(ctx, goqu.Ex{"status": string(status)})
}

func (r *PostgresRepo) ListOnLoan(ctx context.Context, borrowerID string) ([]BookInstance, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	where := goqu.Ex{"bi.status": string(OnLoan)}
	if borrowerID != "" {
		where["bi.borrower_id"] = borrowerID
	}
	return queryInstances(ctx, r.db, byDueBack(selectInstances().Where(where)))
}

func (r *PostgresRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]BookInstance, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return queryInstances(ctx, r.db, byDueBack(selectInstances().Where(
		goqu.I("bi.status").Eq(string(OnLoan)),
		goqu.I("bi.due_back").Lt(Today(asOf)),
	)))
}
