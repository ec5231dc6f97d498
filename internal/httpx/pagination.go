package httpx

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page reads page and page_size from the query string, clamping bad values.
func Page(r *http.Request) (page, pageSize int) {
	query := r.URL.Query()
	page, _ = strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}
