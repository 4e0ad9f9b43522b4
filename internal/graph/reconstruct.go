package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"kindred/internal/sentiment"
)

// ============================================================================
// Entity Reconstruction
// ============================================================================

// collapseEntryRows rebuilds structured entries from a flattened result
// set holding one row per (entry, topic) pair. Rows are scanned in order;
// a new entry starts whenever the (date, content) identity changes, so the
// query feeding this must keep each entry's rows contiguous (our read
// query orders by entry identity explicitly).
//
// A row whose three sentiment columns are all null belongs to an entry
// with no topics and contributes the entry alone. Otherwise exactly one of
// the columns carries the keyword, and which one it is encodes the
// sentiment.
func collapseEntryRows(records []*neo4j.Record) []JournalEntry {
	var entries []JournalEntry

	for _, record := range records {
		date := getTimeFromRecord(record, "date")
		content := getStringFromRecord(record, "content")

		if len(entries) == 0 || !sameEntry(&entries[len(entries)-1], date, content) {
			entries = append(entries, JournalEntry{
				Date:    date,
				Content: content,
			})
		}

		current := &entries[len(entries)-1]
		if topic, ok := topicFromRow(record); ok {
			current.Topics = append(current.Topics, topic)
		}
	}

	return entries
}

// sameEntry reports whether a row belongs to the entry most recently
// started. Identity is the (date, content) pair.
func sameEntry(entry *JournalEntry, date time.Time, content string) bool {
	return entry.Date.Equal(date) && entry.Content == content
}

// topicFromRow picks the single non-null sentiment column out of a row,
// returning false for topicless rows
func topicFromRow(record *neo4j.Record) (Topic, bool) {
	if keyword, ok := optionalStringFromRecord(record, "positive"); ok {
		return Topic{Keyword: keyword, Sentiment: sentiment.Positive}, true
	}
	if keyword, ok := optionalStringFromRecord(record, "negative"); ok {
		return Topic{Keyword: keyword, Sentiment: sentiment.Negative}, true
	}
	if keyword, ok := optionalStringFromRecord(record, "neutral"); ok {
		return Topic{Keyword: keyword, Sentiment: sentiment.Neutral}, true
	}
	return Topic{}, false
}
