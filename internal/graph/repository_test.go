package graph

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kindred/internal/sentiment"
)

// These tests require a running Neo4j instance.
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables.

func createTestDriver() (neo4j.DriverWithContext, error) {
	uri := envOr("NEO4J_URI", "bolt://localhost:7687")
	user := envOr("NEO4J_USER", "neo4j")
	password := envOr("NEO4J_PASSWORD", "password")

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}

	return driver, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newIntegrationRepo skips in short mode and hands back a repository plus a
// cleanup deleting everything the test created under its username prefix
func newIntegrationRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	driver, err := createTestDriver()
	require.NoError(t, err, "Failed to create driver")

	ctx := context.Background()
	// Usernames are case-folded on write, so the prefix must be too for the
	// cleanup match and the test assertions to line up
	prefix := strings.ToLower(fmt.Sprintf("it-%s-%s", t.Name(), time.Now().Format("20060102150405")))

	t.Cleanup(func() {
		session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(ctx)
		_, _ = session.Run(ctx, `
			MATCH (u:User) WHERE u.username STARTS WITH $prefix
			OPTIONAL MATCH (u)-[:AUTHOR]-(e:JournalEntry)
			OPTIONAL MATCH (u)-[:SIMILAR]-(c:UserConnection)
			OPTIONAL MATCH (u)-[:ACTIVITY]->(l:LogMessage)
			DETACH DELETE e, c, l, u
		`, map[string]interface{}{"prefix": prefix})
		driver.Close(ctx)
	})

	repo := NewRepository(driver)
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo, prefix
}

func TestRepository_CreateUser_DuplicateFailsDistinctly(t *testing.T) {
	repo, prefix := newIntegrationRepo(t)
	ctx := context.Background()
	username := prefix + "-ada"

	ok, err := repo.CreateUser(ctx, User{Username: username, PasswordHash: "h", Salt: "s"})
	require.NoError(t, err)
	require.True(t, ok)

	// Second create trips the uniqueness constraint instead of overwriting
	ok, err = repo.CreateUser(ctx, User{Username: username, PasswordHash: "h2", Salt: "s2"})
	assert.False(t, ok)
	assert.Error(t, err)

	stored, err := repo.GetUserByUsername(ctx, username)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "h", stored.PasswordHash)
}

func TestRepository_GetUserByUsername_CaseFolded(t *testing.T) {
	repo, prefix := newIntegrationRepo(t)
	ctx := context.Background()
	username := prefix + "-ada"

	_, err := repo.CreateUser(ctx, User{Username: username, PasswordHash: "h", Salt: "s", ContactInfo: "@ada"})
	require.NoError(t, err)

	upper := prefix + "-ADA"
	stored, err := repo.GetUserByUsername(ctx, upper)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, username, stored.Username)
}

func TestRepository_AddJournalEntry_Idempotent(t *testing.T) {
	repo, prefix := newIntegrationRepo(t)
	ctx := context.Background()
	username := prefix + "-ada"

	entry := JournalEntry{
		Date:    time.Now().UTC().Truncate(time.Second),
		Content: "same entry twice",
		Topics: []Topic{
			{Keyword: "work", Sentiment: sentiment.Negative},
		},
	}

	for i := 0; i < 2; i++ {
		ok, err := repo.AddJournalEntry(ctx, entry, username)
		require.NoError(t, err)
		require.True(t, ok)
	}

	collection, err := repo.GetJournalEntries(ctx, entry.Date, username)
	require.NoError(t, err)
	require.Len(t, collection.Entries, 1, "identical timestamp+content must collapse into one entry")
	assert.Len(t, collection.Entries[0].Topics, 1, "sentiment edge must not duplicate")
}

func TestRepository_TopicDedupAcrossUsersAndCasing(t *testing.T) {
	repo, prefix := newIntegrationRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	first := JournalEntry{Date: now, Content: "ada on work",
		Topics: []Topic{{Keyword: "Work", Sentiment: sentiment.Positive}}}
	second := JournalEntry{Date: now.Add(time.Minute), Content: "ben on work",
		Topics: []Topic{{Keyword: "work", Sentiment: sentiment.Negative}}}

	ok, err := repo.AddJournalEntry(ctx, first, prefix+"-ada")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.AddJournalEntry(ctx, second, prefix+"-ben")
	require.NoError(t, err)
	require.True(t, ok)

	session := repo.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	result, err := session.Run(ctx,
		`MATCH (t:Topic {keyword: 'work'}) RETURN count(t) AS n`, nil)
	require.NoError(t, err)
	record, err := result.Single(ctx)
	require.NoError(t, err)
	n, _ := record.Get("n")
	assert.EqualValues(t, 1, n, "'Work' and 'work' must share one Topic node")
}

func TestRepository_EntryRoundTrip(t *testing.T) {
	repo, prefix := newIntegrationRepo(t)
	ctx := context.Background()
	username := prefix + "-ada"

	entry := JournalEntry{
		Date:    time.Now().UTC().Truncate(time.Second),
		Content: "ran far, slept badly",
		Topics: []Topic{
			{Keyword: "running", Sentiment: sentiment.Positive},
			{Keyword: "sleep", Sentiment: sentiment.Negative},
			{Keyword: "weather", Sentiment: sentiment.Neutral},
		},
	}

	ok, err := repo.AddJournalEntry(ctx, entry, username)
	require.NoError(t, err)
	require.True(t, ok)

	collection, err := repo.GetJournalEntries(ctx, entry.Date, username)
	require.NoError(t, err)
	require.Len(t, collection.Entries, 1)

	got := collection.Entries[0]
	assert.Equal(t, entry.Content, got.Content)
	assert.True(t, got.Date.Equal(entry.Date))
	assert.ElementsMatch(t, entry.Topics, got.Topics)
}

func TestRepository_MatchWindowIsStrict(t *testing.T) {
	repo, prefix := newIntegrationRepo(t)
	ctx := context.Background()
	me, other := prefix+"-ada", prefix+"-ben"
	now := time.Now().UTC().Truncate(time.Second)

	mine := JournalEntry{Date: now.Add(-time.Hour), Content: "mine recent",
		Topics: []Topic{{Keyword: prefix + "-gardens", Sentiment: sentiment.Positive}}}
	stale := JournalEntry{Date: now.Add(-8 * 24 * time.Hour), Content: "theirs stale",
		Topics: []Topic{{Keyword: prefix + "-gardens", Sentiment: sentiment.Positive}}}

	ok, err := repo.AddJournalEntry(ctx, mine, me)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.AddJournalEntry(ctx, stale, other)
	require.NoError(t, err)
	require.True(t, ok)

	matches, err := repo.GetSameSentimentList(ctx, me, sentiment.Positive)
	require.NoError(t, err)
	assert.Empty(t, matches, "entries older than the window must not match")

	fresh := JournalEntry{Date: now.Add(-2 * time.Hour), Content: "theirs fresh",
		Topics: []Topic{{Keyword: prefix + "-gardens", Sentiment: sentiment.Positive}}}
	ok, err = repo.AddJournalEntry(ctx, fresh, other)
	require.NoError(t, err)
	require.True(t, ok)

	matches, err = repo.GetSameSentimentList(ctx, me, sentiment.Positive)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, other, matches[0].Username)
}

func TestRepository_MatchMultiplicityAndSelfExclusion(t *testing.T) {
	repo, prefix := newIntegrationRepo(t)
	ctx := context.Background()
	me, other := prefix+"-ada", prefix+"-ben"
	now := time.Now().UTC().Truncate(time.Second)

	shared := []Topic{
		{Keyword: prefix + "-focus", Sentiment: sentiment.Positive},
		{Keyword: prefix + "-growth", Sentiment: sentiment.Positive},
	}

	ok, err := repo.AddJournalEntry(ctx,
		JournalEntry{Date: now.Add(-time.Hour), Content: "mine", Topics: shared}, me)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.AddJournalEntry(ctx,
		JournalEntry{Date: now.Add(-2 * time.Hour), Content: "theirs", Topics: shared}, other)
	require.NoError(t, err)
	require.True(t, ok)

	matches, err := repo.GetSameSentimentList(ctx, me, sentiment.Positive)
	require.NoError(t, err)
	require.Len(t, matches, 2, "one row per shared topic, no dedup")
	for _, match := range matches {
		assert.Equal(t, other, match.Username, "the querying user never matches themselves")
		assert.Equal(t, sentiment.Positive, match.Topic.Sentiment)
	}
}

func TestRepository_ConnectionRoundTrip(t *testing.T) {
	repo, prefix := newIntegrationRepo(t)
	ctx := context.Background()
	me, other := prefix+"-ada", prefix+"-ben"

	contact := UserContact{
		Username: other,
		Topic:    Topic{Keyword: "gardens", Sentiment: sentiment.Positive},
	}

	first, err := repo.CreateNewUserContact(ctx, me, contact)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Connections are events: a second identical match mints a new token
	second, err := repo.CreateNewUserContact(ctx, me, contact)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	connections, err := repo.GetUserContactRelationships(ctx, me)
	require.NoError(t, err)
	require.Len(t, connections, 2)
	for _, c := range connections {
		assert.Equal(t, other, c.Username)
		assert.Equal(t, "gardens", c.Topic.Keyword)
		assert.Equal(t, sentiment.Positive, c.Topic.Sentiment)
		assert.NotEmpty(t, c.GUID)
	}
}

func TestRepository_DeleteEntryKeepsTopics(t *testing.T) {
	repo, prefix := newIntegrationRepo(t)
	ctx := context.Background()
	username := prefix + "-ada"

	entry := JournalEntry{
		Date:    time.Now().UTC().Truncate(time.Second),
		Content: "to be deleted",
		Topics:  []Topic{{Keyword: prefix + "-keepme", Sentiment: sentiment.Neutral}},
	}
	ok, err := repo.AddJournalEntry(ctx, entry, username)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.DeleteJournalEntry(ctx, entry, username)
	require.NoError(t, err)
	assert.True(t, ok)

	// Deleting again reports no effect without an error
	ok, err = repo.DeleteJournalEntry(ctx, entry, username)
	require.NoError(t, err)
	assert.False(t, ok)

	session := repo.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	result, err := session.Run(ctx,
		`MATCH (t:Topic {keyword: $kw}) RETURN count(t) AS n`,
		map[string]interface{}{"kw": prefix + "-keepme"})
	require.NoError(t, err)
	record, err := result.Single(ctx)
	require.NoError(t, err)
	n, _ := record.Get("n")
	assert.EqualValues(t, 1, n, "topic nodes survive entry deletion")
}
