package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: 1234567890123})
	require.NoError(t, err)

	c, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1234567890123), c.ID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not-a-token!!")
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}

func TestTrim(t *testing.T) {
	items := []int64{1, 2, 3}
	page, info, err := Trim(items, 2, func(v int64) Cursor { return Cursor{ID: v} })
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, page)
	assert.True(t, info.HasMore)

	next, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.ID)

	page, info, err = Trim(items, 5, func(v int64) Cursor { return Cursor{ID: v} })
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)
}

func TestLimitClamps(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Limit())
	assert.Equal(t, 7, Pagination{PageSize: 7}.Limit())
}
