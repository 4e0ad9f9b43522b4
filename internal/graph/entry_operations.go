package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"kindred/internal/sentiment"
)

// AddJournalEntry persists an entry, its AUTHOR edge and every topic in a
// single composed query, so a crash cannot leave the entry saved with its
// topics missing beyond what the store's own per-query atomicity allows.
// Entry identity is (date, content): re-running the identical call merges
// into the same nodes and edges instead of duplicating them.
func (r *Repository) AddJournalEntry(ctx context.Context, entry JournalEntry, username string) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	positive, negative, neutral := bucketTopics(entry.Topics)

	// Relationship types cannot be parameterized, so the topic lists are
	// split per sentiment and each branch carries its type literally.
	query := `
		MERGE (u:User {username: $username})
		MERGE (e:JournalEntry {date: datetime($date), content: $content})
		MERGE (u)-[:AUTHOR]->(e)
		WITH e
		FOREACH (kw IN $positive |
			MERGE (t:Topic {keyword: kw})
			MERGE (t)-[:POSITIVE]->(e))
		FOREACH (kw IN $negative |
			MERGE (t:Topic {keyword: kw})
			MERGE (t)-[:NEGATIVE]->(e))
		FOREACH (kw IN $neutral |
			MERGE (t:Topic {keyword: kw})
			MERGE (t)-[:NEUTRAL]->(e))
		RETURN e.date AS date
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"username": normalizeUsername(username),
		"date":     entry.Date.UTC().Format(time.RFC3339),
		"content":  entry.Content,
		"positive": positive,
		"negative": negative,
		"neutral":  neutral,
	})
	if err != nil {
		return false, r.classify("AddJournalEntry", err)
	}

	if _, err := result.Single(ctx); err != nil {
		return false, r.classify("AddJournalEntry", err)
	}

	r.logger.Info("Journal entry saved",
		zap.String("username", normalizeUsername(username)),
		zap.Time("date", entry.Date),
		zap.Int("topics", len(entry.Topics)),
	)
	return true, nil
}

// GetJournalEntries returns every entry the user wrote in the half-open
// 24-hour window starting at midnight of the given date, with all attached
// topics and their sentiment. The datastore hands back one row per
// (entry, topic) pair; reconstruction collapses them, relying on the
// ORDER BY keeping each entry's rows contiguous.
func (r *Repository) GetJournalEntries(ctx context.Context, date time.Time, username string) (*JournalEntryCollection, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	from := midnight(date)
	to := from.Add(24 * time.Hour)

	query := `
		MATCH (u:User {username: $username})-[:AUTHOR]-(e:JournalEntry)
		WHERE e.date >= datetime($from) AND e.date < datetime($to)
		OPTIONAL MATCH (t:Topic)-[s:POSITIVE|NEGATIVE|NEUTRAL]->(e)
		RETURN e.date AS date, e.content AS content,
		       CASE WHEN type(s) = 'POSITIVE' THEN t.keyword END AS positive,
		       CASE WHEN type(s) = 'NEGATIVE' THEN t.keyword END AS negative,
		       CASE WHEN type(s) = 'NEUTRAL' THEN t.keyword END AS neutral
		ORDER BY e.date, e.content
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"username": normalizeUsername(username),
		"from":     from.UTC().Format(time.RFC3339),
		"to":       to.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, r.classify("GetJournalEntries", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, r.classify("GetJournalEntries", err)
	}

	return &JournalEntryCollection{
		Date:    from,
		Entries: collapseEntryRows(records),
	}, nil
}

// DeleteJournalEntry removes the entry matching the user and exact
// timestamp. Topic nodes are left alone: other entries may reference them.
// False means no entry matched.
func (r *Repository) DeleteJournalEntry(ctx context.Context, entry JournalEntry, username string) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {username: $username})-[:AUTHOR]-(e:JournalEntry {date: datetime($date)})
		DETACH DELETE e
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"username": normalizeUsername(username),
		"date":     entry.Date.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false, r.classify("DeleteJournalEntry", err)
	}

	summary, err := result.Consume(ctx)
	if err != nil {
		return false, r.classify("DeleteJournalEntry", err)
	}

	deleted := summary.Counters().NodesDeleted() > 0
	if deleted {
		r.logger.Info("Journal entry deleted",
			zap.String("username", normalizeUsername(username)),
			zap.Time("date", entry.Date),
		)
	}
	return deleted, nil
}

// bucketTopics splits an entry's topics into per-sentiment keyword lists
// for the three literal relationship branches of the upsert query
func bucketTopics(topics []Topic) (positive, negative, neutral []string) {
	positive = []string{}
	negative = []string{}
	neutral = []string{}
	for _, topic := range topics {
		keyword := sentiment.NormalizeKeyword(topic.Keyword)
		if keyword == "" {
			continue
		}
		switch topic.Sentiment {
		case sentiment.Positive:
			positive = append(positive, keyword)
		case sentiment.Negative:
			negative = append(negative, keyword)
		case sentiment.Neutral:
			neutral = append(neutral, keyword)
		}
	}
	return positive, negative, neutral
}

// midnight truncates a timestamp to the start of its calendar day
func midnight(date time.Time) time.Time {
	year, month, day := date.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, date.Location())
}
