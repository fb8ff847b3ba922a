package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startRedisDockerContainer(t *testing.T) (string, func()) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("Failed to start Dockertest: %+v", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		t.Fatalf("Could not connect to Docker: %+v", err)
	}

	resource, err := pool.Run("redis", "7.0.10-alpine", nil)
	if err != nil {
		t.Fatalf("Failed to start redis: %+v", err)
	}

	// build address the container is listening on
	addr := net.JoinHostPort("localhost", resource.GetPort("6379/tcp"))

	// ensure to wait for the container to be ready
	err = pool.Retry(func() error {
		var e error
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()

		e = client.Ping(context.Background()).Err()
		return e
	})

	if err != nil {
		t.Fatalf("Failed to ping Redis: %+v", err)
	}

	destroyFunc := func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Failed to purge resource: %+v", err)
		}
	}

	return addr, destroyFunc
}

func TestRedisBookStorage(t *testing.T) {
	addr, destroyFunc := startRedisDockerContainer(t)
	defer destroyFunc()
	rs := NewRedisBookStorage(zap.NewNop(), redis.NewClient(&redis.Options{Addr: addr}), NewIDsHandler())

	record := BookRecord{
		OwnerID: "owner-1",
		Title:   "Redis test book title",
		Authors: "Jerome Amon",
		Status:  StatusToRead,
		AddedAt: time.Date(2023, 7, 1, 20, 19, 10, 0, time.UTC),
	}

	var committed BookRecord

	t.Run("Insert assigns the record id", func(t *testing.T) {
		var err error
		committed, err = rs.Insert(context.Background(), record)
		require.NoError(t, err)
		assert.NotEmpty(t, committed.ID)
		assert.Contains(t, committed.ID, BookIDPrefix+":")
	})

	t.Run("SelectByOwner returns the owner rows", func(t *testing.T) {
		records, err := rs.SelectByOwner(context.Background(), "owner-1")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, committed, records[0])
	})

	t.Run("SelectByOwner of unknown owner is empty not an error", func(t *testing.T) {
		records, err := rs.SelectByOwner(context.Background(), "owner-404")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("UpdateStatus mutates only status and timestamp", func(t *testing.T) {
		changedAt := time.Date(2023, 7, 2, 0, 0, 0, 0, time.UTC)
		updated, err := rs.UpdateStatus(context.Background(), "owner-1", committed.ID, StatusReading, changedAt)
		require.NoError(t, err)
		assert.Equal(t, StatusReading, updated.Status)
		require.NotNil(t, updated.StatusChangedAt)
		assert.Equal(t, changedAt, *updated.StatusChangedAt)
		assert.Equal(t, committed.Title, updated.Title)
		assert.Equal(t, committed.AddedAt, updated.AddedAt)
	})

	t.Run("UpdateStatus with wrong owner is not found", func(t *testing.T) {
		_, err := rs.UpdateStatus(context.Background(), "owner-2", committed.ID, StatusRead, time.Now().UTC())
		assert.Equal(t, ErrBookNotFound, err)
	})

	t.Run("UpdateStatus with unknown id is not found", func(t *testing.T) {
		_, err := rs.UpdateStatus(context.Background(), "owner-1", "bk:unknown", StatusRead, time.Now().UTC())
		assert.Equal(t, ErrBookNotFound, err)
	})

	t.Run("Insert twice creates two distinct rows", func(t *testing.T) {
		again, err := rs.Insert(context.Background(), record)
		require.NoError(t, err)
		assert.NotEqual(t, committed.ID, again.ID)
		records, err := rs.SelectByOwner(context.Background(), "owner-1")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestRedisSessionStore(t *testing.T) {
	addr, destroyFunc := startRedisDockerContainer(t)
	defer destroyFunc()
	client := redis.NewClient(&redis.Options{Addr: addr})
	ss := NewRedisSessionStore(zap.NewNop(), client, NewIDsHandler(), NewMockClocker(), time.Hour)

	session, err := ss.Create(context.Background(), "reader@books.test")
	require.NoError(t, err)
	assert.Contains(t, session.Token, SessionIDPrefix+":")
	assert.Equal(t, OwnerIDFromEmail("reader@books.test"), session.UserID)
	assert.Equal(t, session.CreatedAt.Add(time.Hour), session.ExpiresAt)

	t.Run("same email maps to the same owner", func(t *testing.T) {
		other, err := ss.Create(context.Background(), "reader@books.test")
		require.NoError(t, err)
		assert.NotEqual(t, session.Token, other.Token)
		assert.Equal(t, session.UserID, other.UserID)
	})

	t.Run("token resolves to its session", func(t *testing.T) {
		resolved, err := ss.Get(context.Background(), session.Token)
		require.NoError(t, err)
		assert.Equal(t, session, resolved)
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		_, err := ss.Get(context.Background(), "ss:unknown")
		assert.Equal(t, ErrSessionNotFound, err)
	})

	t.Run("deleted token is not found", func(t *testing.T) {
		err := ss.Delete(context.Background(), session.Token)
		require.NoError(t, err)
		_, err = ss.Get(context.Background(), session.Token)
		assert.Equal(t, ErrSessionNotFound, err)
	})

	t.Run("deleting an unknown token is not an error", func(t *testing.T) {
		assert.NoError(t, ss.Delete(context.Background(), "ss:unknown"))
	})
}

func TestRedisQueue(t *testing.T) {
	addr, destroyFunc := startRedisDockerContainer(t)
	defer destroyFunc()
	q := NewRedisQueue(redis.NewClient(&redis.Options{Addr: addr}))

	record := BookRecord{ID: "bk:1", OwnerID: "owner-1", Title: "Dune", Status: StatusToRead}
	err := q.Push(context.Background(), AddedQueue, record)
	require.NoError(t, err)

	qid, popped, err := q.Pop(context.Background(), AddedQueue, MovedQueue)
	require.NoError(t, err)
	assert.Equal(t, AddedQueue, qid)
	assert.Equal(t, record, popped)
}
