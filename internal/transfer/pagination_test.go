package transfer

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaginatedMiddlePage(t *testing.T) {
	query := url.Values{"status": {"1"}, "page": {"2"}}
	p := NewPaginated([]int{21, 22, 23}, 2, 20, 63, "https://app.test/posts", query)

	assert.Equal(t, 2, p.Meta.CurrentPage)
	assert.Equal(t, 4, p.Meta.LastPage)
	require.NotNil(t, p.Meta.From)
	require.NotNil(t, p.Meta.To)
	assert.Equal(t, 21, *p.Meta.From)
	assert.Equal(t, 23, *p.Meta.To)

	assert.Equal(t, "https://app.test/posts?page=1&status=1", p.Links.First)
	assert.Equal(t, "https://app.test/posts?page=4&status=1", p.Links.Last)
	require.NotNil(t, p.Links.Prev)
	require.NotNil(t, p.Links.Next)
	assert.Equal(t, "https://app.test/posts?page=1&status=1", *p.Links.Prev)
	assert.Equal(t, "https://app.test/posts?page=3&status=1", *p.Links.Next)

	// The caller's query is left untouched.
	assert.Equal(t, "2", query.Get("page"))
}

func TestNewPaginatedEmpty(t *testing.T) {
	p := NewPaginated[int](nil, 1, 20, 0, "https://app.test/posts", nil)

	assert.NotNil(t, p.Data)
	assert.Empty(t, p.Data)
	assert.Equal(t, 1, p.Meta.LastPage)
	assert.Nil(t, p.Meta.From)
	assert.Nil(t, p.Meta.To)
	assert.Nil(t, p.Links.Prev)
	assert.Nil(t, p.Links.Next)
}
