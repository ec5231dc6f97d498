package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", pgx.ErrNoRows, ErrNoRows},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNoRows},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "books_isbn_key"}, ErrUnique},
		{"foreign key", &pgconn.PgError{Code: "23503"}, ErrReference},
		{"check", &pgconn.PgError{Code: "23514"}, ErrCheck},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tt.in), tt.want)
		})
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, Classify(other))
	undefined := &pgconn.PgError{Code: "42P01"}
	assert.Equal(t, undefined, Classify(undefined))
	assert.NoError(t, Classify(nil))
}
