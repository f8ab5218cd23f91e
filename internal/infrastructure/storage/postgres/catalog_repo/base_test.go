package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/id"
	"receiptflow/internal/domain"
)

func newTestRepo() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any](nil, "cat_test", "test", []string{"id", "code", "name"}, func() any { return nil })
}

func TestListQuery(t *testing.T) {
	repo := newTestRepo()
	a, b := id.New(), id.New()

	tests := []struct {
		name     string
		filter   domain.ListFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no filter",
			filter:  domain.ListFilter{},
			wantSQL: "SELECT id, code, name FROM cat_test",
		},
		{
			name:     "search",
			filter:   domain.ListFilter{Search: " bolt "},
			wantSQL:  "SELECT id, code, name FROM cat_test WHERE (code ILIKE $1 OR name ILIKE $2)",
			wantArgs: []any{"%bolt%", "%bolt%"},
		},
		{
			name:     "ids",
			filter:   domain.ListFilter{IDs: []id.ID{a, b}},
			wantSQL:  "SELECT id, code, name FROM cat_test WHERE id IN ($1,$2)",
			wantArgs: []any{a, b},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := repo.listQuery(tt.filter)
			require.NoError(t, err)

			sql, args, err := q.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestParseOrderBy(t *testing.T) {
	repo := newTestRepo()

	got, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "name ASC", got)

	got, err = repo.parseOrderBy("-code")
	require.NoError(t, err)
	assert.Equal(t, "code DESC", got)

	_, err = repo.parseOrderBy("name; DROP TABLE cat_test")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
