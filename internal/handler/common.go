package handler // handler defines http handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// pageParams reads page/page_size query parameters and converts them to
// LIMIT/OFFSET values. Out-of-range input falls back to defaults rather
// than erroring; pagination is plumbing, not an invariant.
func pageParams(c echo.Context) (limit, offset int) {
	page := 1
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	size := defaultPageSize
	if v, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && v > 0 {
		size = v
		if size > maxPageSize {
			size = maxPageSize
		}
	}
	return size, (page - 1) * size
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil
}
