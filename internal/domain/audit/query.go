package audit

import "time"

const (
	DefaultLimit             = 50
	DefaultLoginHistoryLimit = 10
)

// Query filters and paginates a trail. Nil bounds and empty strings are unconstrained.
type Query struct {
	Page    int
	Limit   int
	Start   *time.Time
	End     *time.Time
	Action  string
	AdminID string
	// HideSuperAdminEntries drops entries whose metadata.role is SuperAdmin.
	HideSuperAdminEntries bool
}

// Offset is the number of rows skipped before the requested page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Normalize applies the page and limit defaults.
func (q Query) Normalize(defaultLimit int) Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	return q
}

// Page is a paginated response.
type Page[T any] struct {
	Logs        []T   `json:"logs"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
}

// NewPage wraps one page of logs with its pagination counters.
func NewPage[T any](logs []T, q Query, total int64) Page[T] {
	if logs == nil {
		logs = []T{}
	}
	pages := 0
	if q.Limit > 0 {
		pages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	return Page[T]{Logs: logs, CurrentPage: q.Page, TotalPages: pages, TotalItems: total}
}

// EmptyPage is the response for a query that cannot match anything.
func EmptyPage[T any](q Query) Page[T] {
	return Page[T]{Logs: []T{}, CurrentPage: q.Page}
}
