package shared

// Filter carries list-query options from the HTTP layer down to the
// repositories. Repositories validate OrderBy against a per-table allow
// list before interpolating it, and map Filters keys onto typed columns.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]interface{}
}

// Offset converts the 1-based page into a row offset.
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// DefaultFilter is newest-first with a 20-row page.
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
}
