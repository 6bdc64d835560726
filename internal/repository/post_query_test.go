package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibecreator/mixpost-api/internal/models"
)

func TestPostListQueryNoFilters(t *testing.T) {
	q := buildPostListQuery(7, models.PostFilter{}, Page{Number: 3, Size: 20})

	assert.Equal(t, `SELECT COUNT(*) FROM posts p WHERE p.user_id = $1 AND p.deleted_at IS NULL`, q.count)
	assert.Equal(t, []any{int64(7)}, q.countArgs)

	assert.True(t, strings.HasSuffix(q.list, `ORDER BY p.created_at DESC, p.id DESC LIMIT $2 OFFSET $3`), q.list)
	assert.Equal(t, []any{int64(7), 20, 40}, q.listArgs)
}

func TestPostListQueryFilters(t *testing.T) {
	status := models.PostStatusFailed
	tests := []struct {
		name     string
		filter   models.PostFilter
		contains []string
		args     []any
	}{
		{
			name:     "status",
			filter:   models.PostFilter{Status: &status},
			contains: []string{"p.status = $2"},
			args:     []any{int64(1), 3},
		},
		{
			name:     "tag",
			filter:   models.PostFilter{TagID: 5},
			contains: []string{"pt.tag_id = $2"},
			args:     []any{int64(1), int64(5)},
		},
		{
			name:     "account",
			filter:   models.PostFilter{AccountID: 9},
			contains: []string{"pa.account_id = $2"},
			args:     []any{int64(1), int64(9)},
		},
		{
			name:     "keyword",
			filter:   models.PostFilter{Keyword: "  Launch "},
			contains: []string{"jsonb_array_elements(v.content)", "b->>'value' ILIKE $2"},
			args:     []any{int64(1), "%Launch%"},
		},
		{
			name:     "all",
			filter:   models.PostFilter{Status: &status, TagID: 5, AccountID: 9, Keyword: "x"},
			contains: []string{"p.status = $2", "pt.tag_id = $3", "pa.account_id = $4", "ILIKE $5"},
			args:     []any{int64(1), 3, int64(5), int64(9), "%x%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := buildPostListQuery(1, tt.filter, Page{Number: 1, Size: 20})
			for _, c := range tt.contains {
				assert.Contains(t, q.count, c)
				assert.Contains(t, q.list, c)
			}
			assert.Equal(t, tt.args, q.countArgs)
			assert.Equal(t, append(tt.args, 20, 0), q.listArgs)
		})
	}
}

func TestKeywordIsEscaped(t *testing.T) {
	q := buildPostListQuery(1, models.PostFilter{Keyword: `50%_off\`}, Page{Number: 1, Size: 20})
	require.Len(t, q.countArgs, 2)
	assert.Equal(t, `%50\%\_off\\%`, q.countArgs[1])
}

func TestCalendarQuery(t *testing.T) {
	from := time.Date(2024, time.February, 26, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.April, 8, 0, 0, 0, 0, time.UTC)

	query, args := buildCalendarQuery(4, models.CalendarFilter{From: from, To: to, AccountID: 2})

	assert.Contains(t, query, "COALESCE(p.scheduled_at, p.published_at) >= $2")
	assert.Contains(t, query, "COALESCE(p.scheduled_at, p.published_at) < $3")
	assert.Contains(t, query, "pa.account_id = $4")
	assert.NotContains(t, query, "pt.tag_id")
	assert.True(t, strings.HasSuffix(query, "ORDER BY COALESCE(p.scheduled_at, p.published_at) ASC, p.id ASC"))
	assert.Equal(t, []any{int64(4), from, to, int64(2)}, args)
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 0, Size: 20}.Offset())
	assert.Equal(t, 0, Page{Number: 1, Size: 20}.Offset())
	assert.Equal(t, 50, Page{Number: 3, Size: 25}.Offset())
}
