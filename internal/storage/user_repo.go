package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"classroom-notifier/internal/contextutil"
	"classroom-notifier/internal/kv"
)

// User is a registered recipient of notifications.
type User struct {
	ID string `json:"id"`
	// Handle is the opaque messaging recipient.
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	// CredentialRef is handed to the content source to authorize calls for this user.
	CredentialRef string    `json:"credentialRef,omitempty"`
	RegisteredAt  time.Time `json:"registeredAt"`
}

// UserRepo stores registered users.
type UserRepo struct {
	store kv.Store
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(store kv.Store) *UserRepo {
	return &UserRepo{store: store}
}

// Register creates or replaces a user. RegisteredAt is set when empty.
func (r *UserRepo) Register(ctx context.Context, u User) (User, error) {
	if strings.TrimSpace(u.ID) == "" {
		return User{}, fmt.Errorf("user id is required")
	}
	if u.RegisteredAt.IsZero() {
		u.RegisteredAt = time.Now().UTC()
	}
	body, err := json.Marshal(u)
	if err != nil {
		return User{}, fmt.Errorf("failed to encode user: %w", err)
	}
	if err := r.store.Set(ctx, UserKey(u.ID), string(body)); err != nil {
		return User{}, backendErr("register user", err)
	}
	return u, nil
}

// Get loads a user by ID.
func (r *UserRepo) Get(ctx context.Context, userID string) (User, error) {
	key := UserKey(userID)
	value, err := r.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, backendErr("get "+key, err)
	}
	var u User
	if err := json.Unmarshal([]byte(value), &u); err != nil {
		return User{}, malformedErr(key, err)
	}
	return u, nil
}

// List returns all registered users. Entries that fail to load are logged and skipped.
func (r *UserRepo) List(ctx context.Context) ([]User, error) {
	logger := contextutil.LoggerFromContext(ctx)

	keys, err := r.store.ListKeysByPrefix(ctx, userKeyPrefix)
	if err != nil {
		return nil, backendErr("list users", err)
	}

	users := make([]User, 0, len(keys))
	for _, key := range keys {
		u, err := r.Get(ctx, strings.TrimPrefix(key, userKeyPrefix))
		if err != nil {
			logger.WarnContext(ctx, "skipping unreadable user", "key", key, "error", err)
			continue
		}
		users = append(users, u)
	}
	return users, nil
}
