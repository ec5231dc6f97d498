// Package crud provides list/get/create/update/delete over any catalog table,
// backed by goqu-built SQL and exposed over HTTP by a generic handler.
package crud

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("already exists")
	ErrIntegrity = errors.New("referenced by other records")
)

// Query selects a page of rows. Filter holds exact-match column constraints.
type Query struct {
	Search string
	Sort   string
	Desc   bool
	Limit  int
	Offset int
	Filter map[string]any
}

type Store[T any, K comparable] interface {
	List(ctx context.Context, q Query) ([]T, int, error)
	Get(ctx context.Context, id K) (T, error)
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, id K, item *T) error
	Delete(ctx context.Context, id K) error
}
