package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortDirection(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"asc", "ASC"},
		{"ASC", "ASC"},
		{"  Asc  ", "ASC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"sideways", "DESC"},
		{"ASC; DROP TABLE homes", "DESC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sortDirection(tt.input), "input %q", tt.input)
	}
}

func TestSortColumns_OrderClause(t *testing.T) {
	t.Run("allowed column passes through", func(t *testing.T) {
		assert.Equal(t, "address ASC", homeSortColumns.orderClause("address", "asc"))
	})

	t.Run("unknown column falls back", func(t *testing.T) {
		assert.Equal(t, "created_at DESC", homeSortColumns.orderClause("secret_column", "desc"))
	})

	t.Run("injection attempt falls back", func(t *testing.T) {
		assert.Equal(t, "name DESC", communitySortColumns.orderClause("name; DROP TABLE communities", ""))
	})

	t.Run("empty column uses table default", func(t *testing.T) {
		assert.Equal(t, "name DESC", communitySortColumns.orderClause("", ""))
	})

	t.Run("surrounding whitespace trimmed", func(t *testing.T) {
		assert.Equal(t, "city ASC", communitySortColumns.orderClause("  city  ", "asc"))
	})
}
