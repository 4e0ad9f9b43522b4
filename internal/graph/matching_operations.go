package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"kindred/internal/sentiment"
	"kindred/pkg/apperr"
)

// matchWindow is how far back the matching query looks. Entries dated
// exactly at the boundary are excluded: the comparison is strict.
const matchWindow = 7 * 24 * time.Hour

// GetSameSentimentList finds other users who expressed the given sentiment
// about a topic this user also wrote about within the last week. A topic
// shared across several qualifying entry pairs yields one row per pair;
// rows are deliberately not deduplicated.
func (r *Repository) GetSameSentimentList(ctx context.Context, username string, polarity sentiment.Sentiment) ([]UserContact, error) {
	if !polarity.Valid() {
		return nil, apperr.NewQueryFailed("GetSameSentimentList", fmt.Errorf("invalid sentiment %q", polarity))
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	// The sentiment arrives as a validated enum value; EdgeType is the only
	// place it turns into a schema token, and only type names ever get
	// interpolated. Everything user-supplied stays a bound parameter.
	edge := polarity.EdgeType()
	query := fmt.Sprintf(`
		MATCH (me:User {username: $username})-[:AUTHOR]-(mine:JournalEntry),
		      (t:Topic)-[:%s]->(mine),
		      (t)-[:%s]->(other:JournalEntry),
		      (other)-[:AUTHOR]-(them:User)
		WHERE mine.date > datetime($weekAgo)
		  AND other.date > datetime($weekAgo)
		  AND them.username <> $username
		RETURN them.username AS username, them.contactInfo AS contactInfo,
		       t.keyword AS keyword
	`, edge, edge)

	weekAgo := time.Now().UTC().Add(-matchWindow)

	result, err := session.Run(ctx, query, map[string]interface{}{
		"username": normalizeUsername(username),
		"weekAgo":  weekAgo.Format(time.RFC3339),
	})
	if err != nil {
		return nil, r.classify("GetSameSentimentList", err)
	}

	var contacts []UserContact
	for result.Next(ctx) {
		record := result.Record()
		contacts = append(contacts, UserContact{
			Username:    getStringFromRecord(record, "username"),
			ContactInfo: getStringFromRecord(record, "contactInfo"),
			Topic: Topic{
				Keyword:   getStringFromRecord(record, "keyword"),
				Sentiment: polarity,
			},
		})
	}
	if err := result.Err(); err != nil {
		return nil, r.classify("GetSameSentimentList", err)
	}

	return contacts, nil
}

// CreateNewUserContact records a confirmed match between two users as a
// UserConnection event carrying a fresh GUID and links both users to it.
// Connections are events, never deduplicated: matching twice on the same
// topic yields two connections with two different tokens. Returns the GUID.
func (r *Repository) CreateNewUserContact(ctx context.Context, username string, contact UserContact) (string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	guid := uuid.New().String()

	query := `
		MERGE (a:User {username: $me})
		MERGE (b:User {username: $other})
		CREATE (c:UserConnection {
			guid: $guid,
			date: datetime($now),
			topic: $topic,
			sentiment: $sentiment
		})
		CREATE (a)-[:SIMILAR]->(c)
		CREATE (b)-[:SIMILAR]->(c)
		RETURN c.guid AS guid
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"me":        normalizeUsername(username),
		"other":     normalizeUsername(contact.Username),
		"guid":      guid,
		"now":       time.Now().UTC().Format(time.RFC3339),
		"topic":     sentiment.NormalizeKeyword(contact.Topic.Keyword),
		"sentiment": contact.Topic.Sentiment.String(),
	})
	if err != nil {
		return "", r.classify("CreateNewUserContact", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return "", r.classify("CreateNewUserContact", err)
	}

	minted := getStringFromRecord(record, "guid")
	r.logger.Info("User connection created",
		zap.String("username", normalizeUsername(username)),
		zap.String("other", normalizeUsername(contact.Username)),
		zap.String("topic", contact.Topic.Keyword),
	)
	return minted, nil
}

// GetUserContactRelationships returns every confirmed connection involving
// the user, one row per connection, carrying the other user's identity and
// contact info
func (r *Repository) GetUserContactRelationships(ctx context.Context, username string) ([]UserContact, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {username: $username})-[:SIMILAR]-(c:UserConnection)-[:SIMILAR]-(other:User)
		WHERE other.username <> $username
		RETURN other.username AS username, other.contactInfo AS contactInfo,
		       c.topic AS topic, c.sentiment AS sentiment,
		       c.guid AS guid, c.date AS date
		ORDER BY c.date DESC
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"username": normalizeUsername(username),
	})
	if err != nil {
		return nil, r.classify("GetUserContactRelationships", err)
	}

	var contacts []UserContact
	for result.Next(ctx) {
		record := result.Record()
		polarity, _ := sentiment.Parse(getStringFromRecord(record, "sentiment"))
		contacts = append(contacts, UserContact{
			Username:    getStringFromRecord(record, "username"),
			ContactInfo: getStringFromRecord(record, "contactInfo"),
			Topic: Topic{
				Keyword:   getStringFromRecord(record, "topic"),
				Sentiment: polarity,
			},
			GUID: getStringFromRecord(record, "guid"),
			Date: getTimeFromRecord(record, "date"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, r.classify("GetUserContactRelationships", err)
	}

	return contacts, nil
}
