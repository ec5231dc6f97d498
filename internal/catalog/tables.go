package catalog

import (
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"locallibrary/internal/crud"
)

var GenreTable = crud.Table[Genre, int64]{
	Name:        "genres",
	Key:         "id",
	Columns:     []string{"id", "name"},
	SearchCols:  []string{"name"},
	SortCols:    []string{"id", "name"},
	DefaultSort: []string{"name"},
	Scan: func(row pgx.Row) (Genre, error) {
		var g Genre
		err := row.Scan(&g.ID, &g.Name)
		return g, err
	},
	Record: func(g *Genre) goqu.Record { return goqu.Record{"name": g.Name} },
	SetKey: func(g *Genre, id int64) { g.ID = id },
}

var LanguageTable = crud.Table[Language, int64]{
	Name:        "languages",
	Key:         "id",
	Columns:     []string{"id", "name"},
	SearchCols:  []string{"name"},
	SortCols:    []string{"id", "name"},
	DefaultSort: []string{"name"},
	Scan: func(row pgx.Row) (Language, error) {
		var l Language
		err := row.Scan(&l.ID, &l.Name)
		return l, err
	},
	Record: func(l *Language) goqu.Record { return goqu.Record{"name": l.Name} },
	SetKey: func(l *Language, id int64) { l.ID = id },
}

var AuthorTable = crud.Table[Author, int64]{
	Name:        "authors",
	Key:         "id",
	Columns:     []string{"id", "first_name", "last_name", "date_of_birth", "date_of_death"},
	SearchCols:  []string{"first_name", "last_name"},
	SortCols:    []string{"id", "first_name", "last_name", "date_of_birth", "date_of_death"},
	DefaultSort: []string{"last_name", "first_name"},
	Scan: func(row pgx.Row) (Author, error) {
		var a Author
		var born, died *time.Time
		err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &born, &died)
		a.DateOfBirth, a.DateOfDeath = formatDate(born), formatDate(died)
		return a, err
	},
	Record: func(a *Author) goqu.Record {
		return goqu.Record{
			"first_name":    a.FirstName,
			"last_name":     a.LastName,
			"date_of_birth": parseDate(a.DateOfBirth),
			"date_of_death": parseDate(a.DateOfDeath),
		}
	},
	SetKey: func(a *Author, id int64) { a.ID = id },
}

// BookTable covers the books row only; genre links live in book_genres.
var BookTable = crud.Table[Book, int64]{
	Name:        "books",
	Key:         "id",
	Columns:     []string{"id", "title", "author_id", "summary", "isbn", "language_id"},
	SearchCols:  []string{"title", "isbn", "summary"},
	SortCols:    []string{"id", "title", "isbn"},
	DefaultSort: []string{"title"},
	Scan: func(row pgx.Row) (Book, error) {
		var b Book
		err := row.Scan(&b.ID, &b.Title, &b.AuthorID, &b.Summary, &b.ISBN, &b.LanguageID)
		return b, err
	},
	Record: func(b *Book) goqu.Record {
		return goqu.Record{
			"title":       b.Title,
			"author_id":   b.AuthorID,
			"summary":     b.Summary,
			"isbn":        b.ISBN,
			"language_id": b.LanguageID,
		}
	},
	SetKey: func(b *Book, id int64) { b.ID = id },
}
