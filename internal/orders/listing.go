package orders

import (
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	"strconv"
	"strings"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type ListQuery struct {
	Status string
	Search string
	Page   int
	Limit  int
}

type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
	Pages  int     `json:"pages"`
}

// ParseListQuery reads status, search, page and limit from raw query values.
// Empty values fall back to defaults; malformed ones are a validation error.
func ParseListQuery(status, search, page, limit string) (ListQuery, error) {
	q := ListQuery{Status: strings.TrimSpace(status), Search: strings.TrimSpace(search)}
	var err error
	if page != "" {
		if q.Page, err = strconv.Atoi(page); err != nil || q.Page < 1 {
			return ListQuery{}, apperr.Validation("page must be a positive integer")
		}
	}
	if limit != "" {
		if q.Limit, err = strconv.Atoi(limit); err != nil || q.Limit < 1 {
			return ListQuery{}, apperr.Validation("limit must be a positive integer")
		}
	}
	return q.Normalize(), nil
}

func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	return q
}

func (q ListQuery) Offset() int { return (q.Page - 1) * q.Limit }

func pageCount(total, limit int) int {
	if limit <= 0 || total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
