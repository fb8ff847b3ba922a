package main

import (
	"context"
	"time"
)

// Session is the authenticated identity context every collection
// operation is scoped to.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore issues and resolves sessions. Get returns
// ErrSessionNotFound for unknown or expired tokens.
type SessionStore interface {
	Create(ctx context.Context, email string) (Session, error)
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}
