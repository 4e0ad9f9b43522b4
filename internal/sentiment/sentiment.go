package sentiment

import "strings"

// Sentiment is the polarity a journal entry expresses about a topic.
// It is a closed enumeration; relationship types in the graph are derived
// from it at the query boundary and nowhere else.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// All lists every valid sentiment value
var All = []Sentiment{Positive, Negative, Neutral}

// Valid reports whether s is one of the three enumerated values
func (s Sentiment) Valid() bool {
	switch s {
	case Positive, Negative, Neutral:
		return true
	}
	return false
}

// String returns the lower-cased sentiment name
func (s Sentiment) String() string {
	return string(s)
}

// EdgeType resolves the sentiment to the relationship type used in the
// graph. Callers interpolating this into a Cypher template must only ever
// pass values for which Valid() holds.
func (s Sentiment) EdgeType() string {
	switch s {
	case Positive:
		return "POSITIVE"
	case Negative:
		return "NEGATIVE"
	case Neutral:
		return "NEUTRAL"
	}
	return ""
}

// FromEdgeType maps a relationship type back to a sentiment value
func FromEdgeType(edgeType string) (Sentiment, bool) {
	switch edgeType {
	case "POSITIVE":
		return Positive, true
	case "NEGATIVE":
		return Negative, true
	case "NEUTRAL":
		return Neutral, true
	}
	return "", false
}

// Parse normalizes a raw polarity marker from the extraction service.
// Strong-polarity suffixes collapse to the plain value ("positive+" and
// "positive++" are both Positive).
func Parse(raw string) (Sentiment, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.TrimRight(normalized, "+")

	switch normalized {
	case "positive", "pos":
		return Positive, true
	case "negative", "neg":
		return Negative, true
	case "neutral", "neu":
		return Neutral, true
	}
	return "", false
}

// TopicSentiment is one extracted (keyword, polarity) pair
type TopicSentiment struct {
	Keyword   string    `json:"keyword"`
	Sentiment Sentiment `json:"sentiment"`
}

// NormalizeKeyword lower-cases and trims a topic keyword so the same word
// always maps to the same Topic node regardless of casing in the entry
func NormalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}
