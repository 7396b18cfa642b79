package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Normalize().PageSize)
	assert.Equal(t, 25, Pagination{PageSize: 25}.Normalize().PageSize)
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1_000}.Normalize().PageSize)
}

func TestBuildCursorPageInfo(t *testing.T) {
	type row struct{ id string }
	extract := func(r *row) string { return r.id }

	info := BuildCursorPageInfo([]*row{}, 2, extract)
	assert.False(t, info.HasMore)

	// repositories fetch limit+1 rows; the extra one only signals more
	info = BuildCursorPageInfo([]*row{{"a"}, {"b"}, {"c"}}, 2, extract)
	assert.True(t, info.HasMore)
	assert.Equal(t, "b", info.NextPageToken)

	info = BuildCursorPageInfo([]*row{{"a"}, {"b"}}, 2, extract)
	assert.False(t, info.HasMore)
	assert.Equal(t, "b", info.NextPageToken)
}
