package persistence

import "strings"

// sortColumns is a per-table allow list for ORDER BY. Anything outside the
// list, including injection attempts, silently falls back to the default
// column. The clause it produces is interpolated into SQL, so nothing
// user-supplied may pass through unchecked.
type sortColumns struct {
	allowed  map[string]struct{}
	fallback string
}

func newSortColumns(fallback string, columns ...string) sortColumns {
	allowed := make(map[string]struct{}, len(columns)+1)
	allowed[fallback] = struct{}{}
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return sortColumns{allowed: allowed, fallback: fallback}
}

// orderClause builds "<column> <ASC|DESC>" from untrusted input.
func (s sortColumns) orderClause(orderBy, orderDir string) string {
	return s.column(orderBy) + " " + sortDirection(orderDir)
}

func (s sortColumns) column(requested string) string {
	requested = strings.TrimSpace(requested)
	if _, ok := s.allowed[requested]; ok {
		return requested
	}
	return s.fallback
}

// sortDirection admits only ASC; everything else, garbage included,
// becomes DESC.
func sortDirection(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

var (
	homeSortColumns = newSortColumns("created_at",
		"id", "updated_at", "address", "lot_number", "list_price",
		"general_status", "is_listed", "published_at", "publish_version")

	communitySortColumns = newSortColumns("name",
		"id", "created_at", "updated_at", "city", "state", "market")
)
