package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelResult_States(t *testing.T) {
	assert.True(t, ChannelResult{}.IsEmpty())
	assert.False(t, ChannelResult{}.Failed())

	failed := ChannelResult{Error: "boom"}
	assert.True(t, failed.Failed())
	assert.False(t, failed.IsEmpty())

	ok := ChannelResult{MessagesFile: "a.json", SummaryFile: "a.md", Summary: "s"}
	assert.False(t, ok.Failed())
	assert.False(t, ok.IsEmpty())
}

func TestBatchResult_OrderAndCounts(t *testing.T) {
	b := NewBatchResult()
	b.Set("@gamma", ChannelResult{Error: "resolve failed"})
	b.Set("@alpha", ChannelResult{MessagesFile: "a.json", SummaryFile: "a.md", Summary: "s"})
	b.Set("@beta", ChannelResult{})
	b.Set("@gamma", ChannelResult{Error: "second failure"})

	assert.Equal(t, []string{"@gamma", "@alpha", "@beta"}, b.Channels())
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"@alpha"}, b.Succeeded())
	assert.Equal(t, []string{"@beta"}, b.Empty())
	assert.Equal(t, []string{"@gamma"}, b.Failed())

	got, ok := b.Get("@gamma")
	require.True(t, ok)
	assert.Equal(t, "second failure", got.Error)
}

func TestBatchResult_MarshalJSONKeepsOrder(t *testing.T) {
	b := NewBatchResult()
	b.Set("@beta", ChannelResult{})
	b.Set("@alpha", ChannelResult{Summary: "s"})

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `{"@beta":{},"@alpha":{"summary_text":"s"}}`, string(data))
}
