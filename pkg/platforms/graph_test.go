package platforms

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphTimeParsesOffsets(t *testing.T) {
	var gt graphTime
	require.NoError(t, json.Unmarshal([]byte(`"2024-06-01T12:00:00+0000"`), &gt))
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), gt.UTC())

	require.NoError(t, json.Unmarshal([]byte(`"2024-06-01T12:00:00Z"`), &gt))
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), gt.UTC())

	gt = graphTime{}
	require.NoError(t, json.Unmarshal([]byte(`null`), &gt))
	assert.True(t, gt.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"last tuesday"`), &gt))
}

func TestGraphPagingHasMore(t *testing.T) {
	var p graphPaging
	require.NoError(t, json.Unmarshal([]byte(`{"cursors":{"after":"abc"},"next":"https://example.test/next"}`), &p))
	assert.True(t, p.hasMore())
	assert.Equal(t, "abc", p.Cursors.After)

	p = graphPaging{}
	require.NoError(t, json.Unmarshal([]byte(`{"cursors":{"after":"abc"}}`), &p))
	assert.False(t, p.hasMore(), "a trailing cursor without a next link is the last page")
}
