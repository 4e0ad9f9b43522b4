package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kindred/internal/auth"
	"kindred/internal/graph"
	"kindred/internal/sentiment"
	"kindred/pkg/apperr"
)

// memoryStore is an in-memory Store for exercising the service without a
// database. Just enough behavior for the flows under test.
type memoryStore struct {
	users   map[string]graph.User
	entries []graph.JournalEntry
	matches []graph.UserContact
	guid    string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[string]graph.User{}, guid: "token-1"}
}

func (m *memoryStore) CreateUser(ctx context.Context, user graph.User) (bool, error) {
	if _, exists := m.users[user.Username]; exists {
		return false, nil
	}
	m.users[user.Username] = user
	return true, nil
}

func (m *memoryStore) GetUserByUsername(ctx context.Context, username string) (*graph.User, error) {
	if user, ok := m.users[username]; ok {
		return &user, nil
	}
	return nil, nil
}

func (m *memoryStore) UpdateUserPassword(ctx context.Context, username, hash, salt string) (bool, error) {
	user, ok := m.users[username]
	if !ok {
		return false, nil
	}
	user.PasswordHash, user.Salt = hash, salt
	m.users[username] = user
	return true, nil
}

func (m *memoryStore) UpdateUserContactInfo(ctx context.Context, username, contactInfo string) (bool, error) {
	user, ok := m.users[username]
	if !ok {
		return false, nil
	}
	user.ContactInfo = contactInfo
	m.users[username] = user
	return true, nil
}

func (m *memoryStore) AddJournalEntry(ctx context.Context, entry graph.JournalEntry, username string) (bool, error) {
	m.entries = append(m.entries, entry)
	return true, nil
}

func (m *memoryStore) GetJournalEntries(ctx context.Context, date time.Time, username string) (*graph.JournalEntryCollection, error) {
	return &graph.JournalEntryCollection{Date: date, Entries: m.entries}, nil
}

func (m *memoryStore) DeleteJournalEntry(ctx context.Context, entry graph.JournalEntry, username string) (bool, error) {
	return len(m.entries) > 0, nil
}

func (m *memoryStore) GetSameSentimentList(ctx context.Context, username string, polarity sentiment.Sentiment) ([]graph.UserContact, error) {
	return m.matches, nil
}

func (m *memoryStore) CreateNewUserContact(ctx context.Context, username string, contact graph.UserContact) (string, error) {
	return m.guid, nil
}

func (m *memoryStore) GetUserContactRelationships(ctx context.Context, username string) ([]graph.UserContact, error) {
	return m.matches, nil
}

// stubAnalyzer returns fixed topics for any content
type stubAnalyzer struct {
	topics []sentiment.TopicSentiment
	err    error
}

func (s *stubAnalyzer) AnalyzeText(ctx context.Context, content string) ([]sentiment.TopicSentiment, error) {
	return s.topics, s.err
}

func TestService_RequiresLogin(t *testing.T) {
	svc := NewService(newMemoryStore(), &stubAnalyzer{})
	ctx := context.Background()

	_, err := svc.WriteEntry(ctx, "hello")
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)

	_, err = svc.EntriesOn(ctx, time.Now())
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)

	_, err = svc.FindMatches(ctx, sentiment.Positive)
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)

	_, err = svc.Connect(ctx, graph.UserContact{})
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)
}

func TestService_RegisterRejectsDuplicate(t *testing.T) {
	svc := NewService(newMemoryStore(), &stubAnalyzer{})
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ada", "pw", "@ada"))

	err := svc.Register(ctx, "ada", "pw2", "@ada2")
	require.Error(t, err)
	assert.True(t, apperr.IsErrorType(err, apperr.ErrorTypeAuth))
}

func TestService_LoginVerifiesPassword(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, &stubAnalyzer{})
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ada", "pw", "@ada"))

	assert.ErrorIs(t, svc.Login(ctx, "ada", "wrong"), apperr.ErrInvalidCredentials)
	assert.Nil(t, svc.CurrentUser())

	require.NoError(t, svc.Login(ctx, "ada", "pw"))
	require.NotNil(t, svc.CurrentUser())
	assert.Equal(t, "ada", svc.CurrentUser().Username)

	svc.Logout()
	assert.Nil(t, svc.CurrentUser())
}

func TestService_WriteEntryAttachesExtractedTopics(t *testing.T) {
	store := newMemoryStore()
	analyzer := &stubAnalyzer{topics: []sentiment.TopicSentiment{
		{Keyword: "work", Sentiment: sentiment.Negative},
		{Keyword: "running", Sentiment: sentiment.Positive},
	}}
	svc := NewService(store, analyzer)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ada", "pw", "@ada"))
	require.NoError(t, svc.Login(ctx, "ada", "pw"))

	entry, err := svc.WriteEntry(ctx, "long day, good run")
	require.NoError(t, err)
	require.Len(t, entry.Topics, 2)
	assert.Equal(t, graph.Topic{Keyword: "work", Sentiment: sentiment.Negative}, entry.Topics[0])

	require.Len(t, store.entries, 1)
	assert.Equal(t, "long day, good run", store.entries[0].Content)
}

func TestService_ConnectMintsToken(t *testing.T) {
	store := newMemoryStore()
	store.matches = []graph.UserContact{
		{Username: "ben", Topic: graph.Topic{Keyword: "work", Sentiment: sentiment.Positive}},
	}
	svc := NewService(store, &stubAnalyzer{})
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ada", "pw", "@ada"))
	require.NoError(t, svc.Login(ctx, "ada", "pw"))

	matches, err := svc.FindMatches(ctx, sentiment.Positive)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	guid, err := svc.Connect(ctx, matches[0])
	require.NoError(t, err)
	assert.Equal(t, "token-1", guid)
}

func TestService_ChangePasswordRotatesSalt(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, &stubAnalyzer{})
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "ada", "old", "@ada"))
	require.NoError(t, svc.Login(ctx, "ada", "old"))

	before := store.users["ada"]

	ok, err := svc.ChangePassword(ctx, "new")
	require.NoError(t, err)
	require.True(t, ok)

	after := store.users["ada"]
	assert.NotEqual(t, before.Salt, after.Salt)
	assert.True(t, auth.VerifyPassword(after.PasswordHash, "new", after.Salt))
	assert.False(t, auth.VerifyPassword(after.PasswordHash, "old", after.Salt))

	// Session reflects the rotation immediately
	assert.Equal(t, after.PasswordHash, svc.CurrentUser().PasswordHash)
}
