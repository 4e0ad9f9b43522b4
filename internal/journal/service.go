package journal

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"kindred/internal/auth"
	"kindred/internal/graph"
	"kindred/internal/sentiment"
	"kindred/pkg/apperr"
	"kindred/pkg/logger"
)

// Service ties the sentiment analyzer, the graph store and a login session
// together. Everything past Register/Login requires an authenticated
// session and fails with ErrNotAuthenticated otherwise.
type Service struct {
	store    graph.Store
	analyzer sentiment.Analyzer
	logger   *zap.Logger

	mu      sync.RWMutex
	current *graph.User
}

// NewService creates a journal service over the given store and analyzer
func NewService(store graph.Store, analyzer sentiment.Analyzer) *Service {
	return &Service{
		store:    store,
		analyzer: analyzer,
		logger:   logger.Get(),
	}
}

// CurrentUser returns the logged-in user, or nil
func (s *Service) CurrentUser() *graph.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Service) requireLogin() (*graph.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, apperr.ErrNotAuthenticated
	}
	return s.current, nil
}

// Register creates a new account. The uniqueness pre-check happens here,
// before the store-level create, which itself only verifies the write.
func (s *Service) Register(ctx context.Context, username, password, contactInfo string) error {
	existing, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.NewUsernameTaken(username)
	}

	salt := auth.NewSalt()
	hash, err := auth.HashPassword(password, salt)
	if err != nil {
		return err
	}

	ok, err := s.store.CreateUser(ctx, graph.User{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		ContactInfo:  contactInfo,
	})
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NewUsernameTaken(username)
	}

	s.logger.Info("Account registered", zap.String("username", username))
	return nil
}

// Login verifies credentials and starts a session
func (s *Service) Login(ctx context.Context, username, password string) error {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil || !auth.VerifyPassword(user.PasswordHash, password, user.Salt) {
		return apperr.ErrInvalidCredentials
	}

	s.mu.Lock()
	s.current = user
	s.mu.Unlock()

	s.logger.Info("User logged in", zap.String("username", user.Username))
	return nil
}

// Logout ends the session
func (s *Service) Logout() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// WriteEntry runs sentiment extraction over the content and persists the
// dated entry with its topics in one store call
func (s *Service) WriteEntry(ctx context.Context, content string) (*graph.JournalEntry, error) {
	user, err := s.requireLogin()
	if err != nil {
		return nil, err
	}

	extracted, err := s.analyzer.AnalyzeText(ctx, content)
	if err != nil {
		return nil, err
	}

	topics := make([]graph.Topic, 0, len(extracted))
	for _, ts := range extracted {
		topics = append(topics, graph.Topic{Keyword: ts.Keyword, Sentiment: ts.Sentiment})
	}

	entry := graph.JournalEntry{
		Date:    time.Now().UTC(),
		Content: content,
		Topics:  topics,
	}

	ok, err := s.store.AddJournalEntry(ctx, entry, user.Username)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NewQueryFailed("AddJournalEntry", nil)
	}

	return &entry, nil
}

// EntriesOn returns the day's entries for the logged-in user
func (s *Service) EntriesOn(ctx context.Context, date time.Time) (*graph.JournalEntryCollection, error) {
	user, err := s.requireLogin()
	if err != nil {
		return nil, err
	}
	return s.store.GetJournalEntries(ctx, date, user.Username)
}

// DeleteEntry removes one of the logged-in user's entries
func (s *Service) DeleteEntry(ctx context.Context, entry graph.JournalEntry) (bool, error) {
	user, err := s.requireLogin()
	if err != nil {
		return false, err
	}
	return s.store.DeleteJournalEntry(ctx, entry, user.Username)
}

// FindMatches lists candidate users who shared the given sentiment about
// overlapping topics within the matching window
func (s *Service) FindMatches(ctx context.Context, polarity sentiment.Sentiment) ([]graph.UserContact, error) {
	user, err := s.requireLogin()
	if err != nil {
		return nil, err
	}
	return s.store.GetSameSentimentList(ctx, user.Username, polarity)
}

// Connect confirms a match: a UserConnection event is persisted and the
// minted token returned for the two users to share off-platform
func (s *Service) Connect(ctx context.Context, match graph.UserContact) (string, error) {
	user, err := s.requireLogin()
	if err != nil {
		return "", err
	}
	return s.store.CreateNewUserContact(ctx, user.Username, match)
}

// Connections lists the logged-in user's confirmed connections
func (s *Service) Connections(ctx context.Context) ([]graph.UserContact, error) {
	user, err := s.requireLogin()
	if err != nil {
		return nil, err
	}
	return s.store.GetUserContactRelationships(ctx, user.Username)
}

// ChangePassword re-hashes with a fresh salt and updates the User node
func (s *Service) ChangePassword(ctx context.Context, newPassword string) (bool, error) {
	user, err := s.requireLogin()
	if err != nil {
		return false, err
	}

	salt := auth.NewSalt()
	hash, err := auth.HashPassword(newPassword, salt)
	if err != nil {
		return false, err
	}

	ok, err := s.store.UpdateUserPassword(ctx, user.Username, hash, salt)
	if err != nil || !ok {
		return ok, err
	}

	s.mu.Lock()
	s.current.PasswordHash = hash
	s.current.Salt = salt
	s.mu.Unlock()
	return true, nil
}

// UpdateContactInfo updates the User node's contact info in place
func (s *Service) UpdateContactInfo(ctx context.Context, contactInfo string) (bool, error) {
	user, err := s.requireLogin()
	if err != nil {
		return false, err
	}

	ok, err := s.store.UpdateUserContactInfo(ctx, user.Username, contactInfo)
	if err != nil || !ok {
		return ok, err
	}

	s.mu.Lock()
	s.current.ContactInfo = contactInfo
	s.mu.Unlock()
	return true, nil
}
