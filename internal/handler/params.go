// File: internal/handler/params.go
package handler

import (
	"strconv"

	"quill/internal/apperror"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParseID 解析路徑上的 uuid
func ParseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.ValidationFailed(name, "invalid "+name)
	}
	return id, nil
}

// Pagination 讀取 limit / offset，limit 上限 MaxPageSize
func Pagination(c echo.Context) (limit, offset int, err error) {
	limit, offset = DefaultPageSize, 0
	if v := c.QueryParam("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n <= 0 {
			return 0, 0, apperror.ValidationFailed("limit", "limit must be a positive integer")
		}
		limit = min(n, MaxPageSize)
	}
	if v := c.QueryParam("offset"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 0 {
			return 0, 0, apperror.ValidationFailed("offset", "offset must not be negative")
		}
		offset = n
	}
	return limit, offset, nil
}
