package graph

import (
	"context"
	"time"

	"kindred/internal/sentiment"
)

// ============================================================================
// Logging Decorator
// ============================================================================

// LoggedStore wraps a Store, timing every call and writing one activity
// log line per operation. It is purely an observability decorator: the
// wrapped call's results pass through untouched.
//
// CreateUser and GetUserByUsername log unlinked (they run before a
// persisted user is known); every other operation links its log line to
// the acting user.
type LoggedStore struct {
	inner Store
	audit ActivityLog
}

// NewLoggedStore decorates a store with activity logging
func NewLoggedStore(inner Store, audit ActivityLog) *LoggedStore {
	return &LoggedStore{inner: inner, audit: audit}
}

var _ Store = (*LoggedStore)(nil)

// outcome derives the log message: the operation name, prefixed with
// "Failure:" when the call errored or reported no logical effect
func outcome(operation string, ok bool, err error) string {
	if err != nil || !ok {
		return "Failure:" + operation
	}
	return operation
}

func (s *LoggedStore) CreateUser(ctx context.Context, user User) (bool, error) {
	start := time.Now()
	ok, err := s.inner.CreateUser(ctx, user)
	s.audit.Record(ctx, outcome("CreateUser", ok, err), time.Since(start))
	return ok, err
}

func (s *LoggedStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	start := time.Now()
	user, err := s.inner.GetUserByUsername(ctx, username)
	s.audit.Record(ctx, outcome("GetUserByUsername", true, err), time.Since(start))
	return user, err
}

func (s *LoggedStore) UpdateUserPassword(ctx context.Context, username, passwordHash, salt string) (bool, error) {
	start := time.Now()
	ok, err := s.inner.UpdateUserPassword(ctx, username, passwordHash, salt)
	s.audit.RecordForUser(ctx, username, outcome("UpdateUserPassword", ok, err), time.Since(start))
	return ok, err
}

func (s *LoggedStore) UpdateUserContactInfo(ctx context.Context, username, contactInfo string) (bool, error) {
	start := time.Now()
	ok, err := s.inner.UpdateUserContactInfo(ctx, username, contactInfo)
	s.audit.RecordForUser(ctx, username, outcome("UpdateUserContactInfo", ok, err), time.Since(start))
	return ok, err
}

func (s *LoggedStore) AddJournalEntry(ctx context.Context, entry JournalEntry, username string) (bool, error) {
	start := time.Now()
	ok, err := s.inner.AddJournalEntry(ctx, entry, username)
	s.audit.RecordForUser(ctx, username, outcome("AddJournalEntry", ok, err), time.Since(start))
	return ok, err
}

func (s *LoggedStore) GetJournalEntries(ctx context.Context, date time.Time, username string) (*JournalEntryCollection, error) {
	start := time.Now()
	entries, err := s.inner.GetJournalEntries(ctx, date, username)
	s.audit.RecordForUser(ctx, username, outcome("GetJournalEntries", true, err), time.Since(start))
	return entries, err
}

func (s *LoggedStore) DeleteJournalEntry(ctx context.Context, entry JournalEntry, username string) (bool, error) {
	start := time.Now()
	ok, err := s.inner.DeleteJournalEntry(ctx, entry, username)
	s.audit.RecordForUser(ctx, username, outcome("DeleteJournalEntry", ok, err), time.Since(start))
	return ok, err
}

func (s *LoggedStore) GetSameSentimentList(ctx context.Context, username string, polarity sentiment.Sentiment) ([]UserContact, error) {
	start := time.Now()
	contacts, err := s.inner.GetSameSentimentList(ctx, username, polarity)
	s.audit.RecordForUser(ctx, username, outcome("GetSameSentimentList", true, err), time.Since(start))
	return contacts, err
}

func (s *LoggedStore) CreateNewUserContact(ctx context.Context, username string, contact UserContact) (string, error) {
	start := time.Now()
	guid, err := s.inner.CreateNewUserContact(ctx, username, contact)
	s.audit.RecordForUser(ctx, username, outcome("CreateNewUserContact", guid != "", err), time.Since(start))
	return guid, err
}

func (s *LoggedStore) GetUserContactRelationships(ctx context.Context, username string) ([]UserContact, error) {
	start := time.Now()
	contacts, err := s.inner.GetUserContactRelationships(ctx, username)
	s.audit.RecordForUser(ctx, username, outcome("GetUserContactRelationships", true, err), time.Since(start))
	return contacts, err
}
