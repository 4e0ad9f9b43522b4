package graph

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"kindred/pkg/apperr"
	"kindred/pkg/logger"
)

// Repository handles all Neo4j database operations
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository. The driver is constructed
// once at startup and injected; the repository never owns reconnection.
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

var _ Store = (*Repository)(nil)

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// EnsureSchema installs the uniqueness constraints the upsert queries rely
// on. Topic dedup under concurrent writers holds only with the constraint
// in place, so this runs before the first repository call.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	constraints := []string{
		`CREATE CONSTRAINT user_username IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE`,
		`CREATE CONSTRAINT topic_keyword IF NOT EXISTS FOR (t:Topic) REQUIRE t.keyword IS UNIQUE`,
		`CREATE CONSTRAINT connection_guid IF NOT EXISTS FOR (c:UserConnection) REQUIRE c.guid IS UNIQUE`,
	}

	for _, constraint := range constraints {
		if _, err := session.Run(ctx, constraint, nil); err != nil {
			return r.classify("EnsureSchema", err)
		}
	}

	r.logger.Info("Graph schema constraints ensured")
	return nil
}

// CreateUser creates a User node. It does not pre-check for an existing
// username; that is the caller's responsibility. False means the expected
// node creation was not observed.
func (r *Repository) CreateUser(ctx context.Context, user User) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE (u:User {
			username: $username,
			passwordHash: $passwordHash,
			salt: $salt,
			contactInfo: $contactInfo
		})
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"username":     normalizeUsername(user.Username),
		"passwordHash": user.PasswordHash,
		"salt":         user.Salt,
		"contactInfo":  user.ContactInfo,
	})
	if err != nil {
		return false, r.classify("CreateUser", err)
	}

	summary, err := result.Consume(ctx)
	if err != nil {
		return false, r.classify("CreateUser", err)
	}

	created := summary.Counters().NodesCreated() == 1
	if created {
		r.logger.Info("User created", zap.String("username", normalizeUsername(user.Username)))
	}
	return created, nil
}

// GetUserByUsername returns the user with the exact (case-folded) username,
// or nil when absent. More than one match means the uniqueness invariant is
// broken and is surfaced as an integrity error.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {username: $username})
		RETURN u.username AS username, u.passwordHash AS passwordHash,
		       u.salt AS salt, u.contactInfo AS contactInfo
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"username": normalizeUsername(username),
	})
	if err != nil {
		return nil, r.classify("GetUserByUsername", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, r.classify("GetUserByUsername", err)
	}

	switch len(records) {
	case 0:
		return nil, nil
	case 1:
		record := records[0]
		return &User{
			Username:     getStringFromRecord(record, "username"),
			PasswordHash: getStringFromRecord(record, "passwordHash"),
			Salt:         getStringFromRecord(record, "salt"),
			ContactInfo:  getStringFromRecord(record, "contactInfo"),
		}, nil
	default:
		return nil, apperr.NewIntegrity("multiple User nodes share username " + normalizeUsername(username))
	}
}

// UpdateUserPassword replaces the stored password hash and salt in place.
// False means no User node matched.
func (r *Repository) UpdateUserPassword(ctx context.Context, username, passwordHash, salt string) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {username: $username})
		SET u.passwordHash = $passwordHash,
		    u.salt = $salt
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"username":     normalizeUsername(username),
		"passwordHash": passwordHash,
		"salt":         salt,
	})
	if err != nil {
		return false, r.classify("UpdateUserPassword", err)
	}

	summary, err := result.Consume(ctx)
	if err != nil {
		return false, r.classify("UpdateUserPassword", err)
	}

	return summary.Counters().PropertiesSet() > 0, nil
}

// UpdateUserContactInfo updates the contact info property in place.
// False means no User node matched.
func (r *Repository) UpdateUserContactInfo(ctx context.Context, username, contactInfo string) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {username: $username})
		SET u.contactInfo = $contactInfo
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"username":    normalizeUsername(username),
		"contactInfo": contactInfo,
	})
	if err != nil {
		return false, r.classify("UpdateUserContactInfo", err)
	}

	summary, err := result.Consume(ctx)
	if err != nil {
		return false, r.classify("UpdateUserContactInfo", err)
	}

	return summary.Counters().PropertiesSet() > 0, nil
}

// classify maps a driver error onto our error taxonomy. Connectivity
// problems and constraint violations get their own kinds; everything else
// is a rejected query, which indicates a construction bug.
func (r *Repository) classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if neo4j.IsConnectivityError(err) {
		target := r.driver.Target()
		return apperr.NewConnectionFailed(target.String(), err)
	}
	if strings.Contains(err.Error(), "ConstraintValidationFailed") {
		return apperr.NewIntegrity(operation + ": " + err.Error())
	}
	return apperr.NewQueryFailed(operation, err)
}

// normalizeUsername case-folds a username. Every read and write goes
// through this so usernames compare equal regardless of input casing.
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
