package http

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetPaginatorAdvancesUntilShortPage(t *testing.T) {
	p := NewOffsetPaginator("/public/api/awards", 2)
	p.Query = url.Values{"agency": []string{"DOD"}}

	first := p.FirstPage()
	assert.Equal(t, "0", first.Query.Get("start"))
	assert.Equal(t, "2", first.Query.Get("rows"))
	assert.Equal(t, "DOD", first.Query.Get("agency"))

	// Full page: advance by the fetched count
	next, err := p.NextPage(context.Background(), &Response{Body: []byte(`[{"a":1},{"a":2}]`)})
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "2", next.Query.Get("start"))

	// Short page ends pagination
	next, err = p.NextPage(context.Background(), &Response{Body: []byte(`[{"a":3}]`)})
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestPagePaginatorBoundedByTotalRecords(t *testing.T) {
	p := NewPagePaginator("/entity-information/v3/entities", 2)

	first := p.FirstPage()
	assert.Equal(t, "0", first.Query.Get("page"))
	assert.Equal(t, "2", first.Query.Get("size"))

	envelope := func(total int) []byte {
		b, _ := json.Marshal(map[string]any{"totalRecords": total})
		return b
	}

	next, err := p.NextPage(context.Background(), &Response{Body: envelope(3)})
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "1", next.Query.Get("page"))

	next, err = p.NextPage(context.Background(), &Response{Body: envelope(3)})
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestCursorPaginatorAdvance(t *testing.T) {
	p := NewCursorPaginator()
	assert.Equal(t, 1, p.Page)

	assert.True(t, p.Advance(true))
	assert.Equal(t, 2, p.Page)

	assert.False(t, p.Advance(false))
	assert.Equal(t, 2, p.Page)
}
