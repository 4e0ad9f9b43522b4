package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// Activity Log
// ============================================================================

// The activity log is a write-only audit trail: LogMessage nodes are
// appended and never read back by the application. Record failures are
// reported to the process logger only so an unavailable audit write can
// never change the outcome of the operation being logged.

var _ ActivityLog = (*Repository)(nil)

// Record appends a LogMessage node with no user link. Used for operations
// that happen before a persisted user is known (registration, lookup
// before login).
func (r *Repository) Record(ctx context.Context, message string, elapsed time.Duration) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE (l:LogMessage {
			message: $message,
			time: $ms,
			at: datetime($now)
		})
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"message": message,
		"ms":      elapsed.Milliseconds(),
		"now":     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		r.logger.Warn("Activity log write failed",
			zap.String("message", message),
			zap.Error(err),
		)
	}
}

// RecordForUser appends a LogMessage node linked to the acting user via an
// ACTIVITY edge. The user is matched, not merged: a log line must never be
// the thing that creates a User node.
func (r *Repository) RecordForUser(ctx context.Context, username, message string, elapsed time.Duration) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {username: $username})
		CREATE (l:LogMessage {
			message: $message,
			time: $ms,
			at: datetime($now)
		})
		CREATE (u)-[:ACTIVITY]->(l)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"username": normalizeUsername(username),
		"message":  message,
		"ms":       elapsed.Milliseconds(),
		"now":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		r.logger.Warn("Activity log write failed",
			zap.String("username", normalizeUsername(username)),
			zap.String("message", message),
			zap.Error(err),
		)
	}
}
