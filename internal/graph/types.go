package graph

import (
	"time"

	"kindred/internal/sentiment"
)

// User represents a registered journal author
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Salt         string `json:"-"`
	ContactInfo  string `json:"contact_info,omitempty"`
}

// Topic is a deduplicated keyword together with the sentiment a particular
// entry expressed about it. The keyword identifies the shared Topic node;
// the sentiment lives on the relationship, not the node.
type Topic struct {
	Keyword   string              `json:"keyword"`
	Sentiment sentiment.Sentiment `json:"sentiment"`
}

// JournalEntry is one dated entry with its extracted topics
type JournalEntry struct {
	Date    time.Time `json:"date"`
	Content string    `json:"content"`
	Topics  []Topic   `json:"topics,omitempty"`
}

// JournalEntryCollection holds every entry a user wrote on one day.
// A single entry is a one-element collection.
type JournalEntryCollection struct {
	Date    time.Time      `json:"date"`
	Entries []JournalEntry `json:"entries"`
}

// UserContact is another user surfaced by the matching query or an already
// confirmed connection. GUID and Date are only set on confirmed connections.
type UserContact struct {
	Username    string    `json:"username"`
	ContactInfo string    `json:"contact_info,omitempty"`
	Topic       Topic     `json:"topic"`
	GUID        string    `json:"guid,omitempty"`
	Date        time.Time `json:"date,omitempty"`
}
