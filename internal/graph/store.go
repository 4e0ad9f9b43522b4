package graph

import (
	"context"
	"time"

	"kindred/internal/sentiment"
)

// Store is the persistence surface the rest of the application talks to.
// Write operations report logical success through the boolean (the write
// ran but had no effect reads as false); hard failures come back through
// the error channel as pkg/apperr kinds.
type Store interface {
	CreateUser(ctx context.Context, user User) (bool, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUserPassword(ctx context.Context, username, passwordHash, salt string) (bool, error)
	UpdateUserContactInfo(ctx context.Context, username, contactInfo string) (bool, error)

	AddJournalEntry(ctx context.Context, entry JournalEntry, username string) (bool, error)
	GetJournalEntries(ctx context.Context, date time.Time, username string) (*JournalEntryCollection, error)
	DeleteJournalEntry(ctx context.Context, entry JournalEntry, username string) (bool, error)

	GetSameSentimentList(ctx context.Context, username string, polarity sentiment.Sentiment) ([]UserContact, error)
	CreateNewUserContact(ctx context.Context, username string, contact UserContact) (string, error)
	GetUserContactRelationships(ctx context.Context, username string) ([]UserContact, error)
}

// ActivityLog is the append-only audit trail written by the logging
// decorator. Implementations never fail the caller: a lost log line is
// reported to the process logger only.
type ActivityLog interface {
	Record(ctx context.Context, message string, elapsed time.Duration)
	RecordForUser(ctx context.Context, username, message string, elapsed time.Duration)
}
