package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtraction(t *testing.T) {
	topics, err := parseExtraction(`[{"keyword":"Work","sentiment":"negative"},{"keyword":"running","sentiment":"positive+"}]`)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, TopicSentiment{Keyword: "work", Sentiment: Negative}, topics[0])
	assert.Equal(t, TopicSentiment{Keyword: "running", Sentiment: Positive}, topics[1])
}

func TestParseExtraction_FencedJSON(t *testing.T) {
	response := "```json\n[{\"keyword\":\"sleep\",\"sentiment\":\"neutral\"}]\n```"
	topics, err := parseExtraction(response)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, TopicSentiment{Keyword: "sleep", Sentiment: Neutral}, topics[0])
}

func TestParseExtraction_DropsInvalidEntries(t *testing.T) {
	topics, err := parseExtraction(`[
		{"keyword":"","sentiment":"positive"},
		{"keyword":"work","sentiment":"confused"},
		{"keyword":"gardens","sentiment":"positive"}
	]`)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "gardens", topics[0].Keyword)
}

func TestParseExtraction_EmptyArray(t *testing.T) {
	topics, err := parseExtraction(`[]`)
	require.NoError(t, err)
	assert.Empty(t, topics)
}

func TestParseExtraction_NotJSON(t *testing.T) {
	_, err := parseExtraction("I think the entry is about work.")
	assert.Error(t, err)
}
