// Package catalog holds the bibliographic records: genres, languages,
// authors and books.
package catalog

import (
	"time"

	"locallibrary/internal/httpx"
)

const dateLayout = "2006-01-02"

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required,max=200"`
}

type Language struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required,max=200"`
}

// Author dates travel as YYYY-MM-DD strings.
type Author struct {
	ID          int64   `json:"id"`
	FirstName   string  `json:"first_name" validate:"required,max=100"`
	LastName    string  `json:"last_name" validate:"required,max=100"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	DateOfDeath *string `json:"date_of_death" validate:"omitempty,datetime=2006-01-02"`
}

func (a Author) FullName() string {
	return a.LastName + ", " + a.FirstName
}

type Book struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title" validate:"required,max=200"`
	AuthorID   *int64  `json:"author_id"`
	Summary    string  `json:"summary" validate:"max=1000"`
	ISBN       string  `json:"isbn" validate:"required,isbn"`
	LanguageID *int64  `json:"language_id"`
	GenreIDs   []int64 `json:"genre_ids" validate:"dive,gt=0"`
}

func parseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// validateAuthorDates rejects a death date before the birth date.
func validateAuthorDates(a *Author) []httpx.ErrorDetail {
	born, died := parseDate(a.DateOfBirth), parseDate(a.DateOfDeath)
	if born != nil && died != nil && died.Before(*born) {
		return []httpx.ErrorDetail{{Field: "date_of_death", Message: "date_of_death must not be before date_of_birth"}}
	}
	return nil
}
