package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func sessionKey(token string) string {
	return "sessions:" + token
}

// redisSessionStore keeps sessions in redis with a TTL so expiry needs no
// sweeper. The owner id is derived deterministically from the email, so
// the same user keeps the same collection across sessions.
type redisSessionStore struct {
	logger *zap.Logger
	client *redis.Client
	ids    UIDHandler
	clock  Clocker
	ttl    time.Duration
}

func NewRedisSessionStore(logger *zap.Logger, client *redis.Client, ids UIDHandler, clock Clocker, ttl time.Duration) SessionStore {
	return &redisSessionStore{
		logger: logger,
		client: client,
		ids:    ids,
		clock:  clock,
		ttl:    ttl,
	}
}

// OwnerIDFromEmail maps an email to a stable user id.
func OwnerIDFromEmail(email string) string {
	return uuid.NewV5(uuid.NamespaceOID, email).String()
}

// Create issues a fresh session token for the given email.
func (ss *redisSessionStore) Create(ctx context.Context, email string) (Session, error) {
	now := ss.clock.Now().UTC()
	session := Session{
		Token:     ss.ids.Generate(SessionIDPrefix),
		UserID:    OwnerIDFromEmail(email),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(ss.ttl),
	}
	sessionBytes, err := json.Marshal(session)
	if err != nil {
		return Session{}, &AuthError{Reason: "encode session", Err: err}
	}
	if err = ss.client.Set(ctx, sessionKey(session.Token), sessionBytes, ss.ttl).Err(); err != nil {
		return Session{}, &AuthError{Reason: "store session", Err: err}
	}
	return session, nil
}

// Get resolves a token to its session. Expired tokens vanish with their
// redis key, so they surface as ErrSessionNotFound like unknown ones.
func (ss *redisSessionStore) Get(ctx context.Context, token string) (Session, error) {
	row, err := ss.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, &AuthError{Reason: "resolve session", Err: err}
	}
	var session Session
	if err = json.Unmarshal([]byte(row), &session); err != nil {
		return Session{}, &AuthError{Reason: "decode session", Err: err}
	}
	return session, nil
}

// Delete terminates a session. Deleting an unknown token is not an error.
func (ss *redisSessionStore) Delete(ctx context.Context, token string) error {
	if err := ss.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return &AuthError{Reason: "terminate session", Err: err}
	}
	return nil
}
