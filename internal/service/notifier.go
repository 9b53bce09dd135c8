package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_deps.go -package=mocks classroom-notifier/internal/service Searcher,Sweeper,Syncer,UserStore
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_notifier_service.go -package=mocks -mock_names=NotifierService=MockNotifierService classroom-notifier/internal/service NotifierService

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"classroom-notifier/internal/classroom"
	"classroom-notifier/internal/content"
	"classroom-notifier/internal/contextutil"
	"classroom-notifier/internal/indexer"
	"classroom-notifier/internal/messaging"
	"classroom-notifier/internal/search"
	"classroom-notifier/internal/storage"
	"classroom-notifier/internal/sweep"
)

// Searcher queries a user's indexed records.
// This interface is defined from the service layer's perspective (consumer-first).
type Searcher interface {
	Search(ctx context.Context, userID string, filter search.Filter) ([]content.Record, error)
	Location() *time.Location
}

// Sweeper runs one reminder and new-content sweep.
type Sweeper interface {
	RunSweep(ctx context.Context) (sweep.Report, error)
}

// Syncer indexes all content of one user.
type Syncer interface {
	SyncUser(ctx context.Context, user storage.User) (indexer.SyncStats, error)
}

// UserStore persists registered users.
type UserStore interface {
	Register(ctx context.Context, u storage.User) (storage.User, error)
	Get(ctx context.Context, userID string) (storage.User, error)
}

// SearchRequest asks for a user's records. Filter takes precedence over Query;
// Query is free text such as "homework due this week".
type SearchRequest struct {
	UserID string
	Filter *search.Filter
	Query  string
}

// SearchResponse carries the matches and a chat-ready rendering of them.
type SearchResponse struct {
	Records []content.Record
	Filter  search.Filter
	Text    string
}

// RegisterRequest registers or updates a user.
type RegisterRequest struct {
	ID            string
	Handle        string
	DisplayName   string
	CredentialRef string
}

// NotifierService is the front door to the content index and the sweep.
type NotifierService interface {
	// Search runs a structured or free-text query over the user's index.
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
	// Sweep runs one sweep over all registered users.
	Sweep(ctx context.Context) (sweep.Report, error)
	// SyncUser indexes every course of a registered user.
	SyncUser(ctx context.Context, userID string) (indexer.SyncStats, error)
	// RegisterUser creates or replaces a user.
	RegisterUser(ctx context.Context, req RegisterRequest) (storage.User, error)
}

// notifierService implements NotifierService.
type notifierService struct {
	searcher Searcher
	sweeper  Sweeper
	syncer   Syncer
	users    UserStore
	now      func() time.Time
	logger   *slog.Logger
}

// NewNotifierService creates a new NotifierService.
func NewNotifierService(searcher Searcher, sweeper Sweeper, syncer Syncer, users UserStore) NotifierService {
	return &notifierService{
		searcher: searcher,
		sweeper:  sweeper,
		syncer:   syncer,
		users:    users,
		now:      time.Now,
		logger:   slog.Default(),
	}
}

// Search validates the request, resolves free text into a filter and runs it.
func (s *notifierService) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	logger := contextutil.LoggerOr(ctx, s.logger)

	if strings.TrimSpace(req.UserID) == "" {
		logger.WarnContext(ctx, "empty user id in search request")
		return SearchResponse{}, &ValidationError{Field: "userId", Message: "cannot be empty"}
	}

	loc := s.searcher.Location()
	var filter search.Filter
	switch {
	case req.Filter != nil:
		filter = *req.Filter
	case strings.TrimSpace(req.Query) != "":
		filter = search.ParseText(req.Query, s.now(), loc)
	}

	if err := filter.Validate(); err != nil {
		logger.WarnContext(ctx, "invalid search filter", "error", err)
		return SearchResponse{}, &ValidationError{Field: "filter", Message: err.Error()}
	}

	records, err := s.searcher.Search(ctx, req.UserID, filter)
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "user_id", req.UserID, "error", err)
		if errors.Is(err, storage.ErrBackendUnavailable) {
			return SearchResponse{}, wrapAs(ErrExternalService, err, "failed to search index")
		}
		return SearchResponse{}, WrapError(err, "failed to search index")
	}

	logger.InfoContext(ctx, "search processed successfully", "user_id", req.UserID, "results", len(records))
	return SearchResponse{
		Records: records,
		Filter:  filter,
		Text:    messaging.FormatSearchResults(records, loc),
	}, nil
}

// Sweep runs one sweep. A sweep already in progress is reported as a conflict.
func (s *notifierService) Sweep(ctx context.Context) (sweep.Report, error) {
	logger := contextutil.LoggerOr(ctx, s.logger)

	report, err := s.sweeper.RunSweep(ctx)
	if err != nil {
		if errors.Is(err, sweep.ErrSweepInProgress) {
			logger.WarnContext(ctx, "sweep requested while another is running")
			return sweep.Report{}, wrapAs(ErrConflict, err, "failed to start sweep")
		}
		logger.ErrorContext(ctx, "sweep failed", "error", err)
		return report, WrapError(err, "sweep failed")
	}
	return report, nil
}

// SyncUser indexes the user's courses.
func (s *notifierService) SyncUser(ctx context.Context, userID string) (indexer.SyncStats, error) {
	logger := contextutil.LoggerOr(ctx, s.logger)

	if strings.TrimSpace(userID) == "" {
		return indexer.SyncStats{}, &ValidationError{Field: "userId", Message: "cannot be empty"}
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return indexer.SyncStats{}, wrapAs(ErrNotFound, err, "unknown user "+userID)
		}
		logger.ErrorContext(ctx, "failed to load user", "user_id", userID, "error", err)
		return indexer.SyncStats{}, wrapAs(ErrExternalService, err, "failed to load user")
	}

	stats, err := s.syncer.SyncUser(ctx, user)
	if err != nil {
		logger.ErrorContext(ctx, "sync failed", "user_id", userID, "error", err)
		switch {
		case errors.Is(err, classroom.ErrMissingCredential):
			return stats, wrapAs(ErrUnauthorized, err, "failed to sync user")
		case errors.Is(err, classroom.ErrUnavailable), errors.Is(err, storage.ErrBackendUnavailable):
			return stats, wrapAs(ErrExternalService, err, "failed to sync user")
		}
		return stats, WrapError(err, "failed to sync user")
	}
	return stats, nil
}

// RegisterUser validates and stores a user.
func (s *notifierService) RegisterUser(ctx context.Context, req RegisterRequest) (storage.User, error) {
	logger := contextutil.LoggerOr(ctx, s.logger)

	if strings.TrimSpace(req.ID) == "" {
		return storage.User{}, &ValidationError{Field: "id", Message: "cannot be empty"}
	}
	if strings.TrimSpace(req.Handle) == "" {
		return storage.User{}, &ValidationError{Field: "handle", Message: "cannot be empty"}
	}

	user, err := s.users.Register(ctx, storage.User{
		ID:            req.ID,
		Handle:        req.Handle,
		DisplayName:   req.DisplayName,
		CredentialRef: req.CredentialRef,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to register user", "user_id", req.ID, "error", err)
		return storage.User{}, wrapAs(ErrExternalService, err, "failed to register user")
	}

	logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}
