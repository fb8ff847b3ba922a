package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// booksKey scopes every record under its owner, so reads and writes are
// filtered by owner by construction: a guessed or stale id can never reach
// another user's rows.
func booksKey(ownerID string) string {
	return "books:" + ownerID
}

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
	ids    UIDHandler
}

// NewRedisBookStorage provides the redis-backed record store. The store
// is the id authority: Insert assigns the record id.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client, ids UIDHandler) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
		ids:    ids,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// SelectByOwner retrieves every record belonging to the owner.
func (rs *redisBookStorage) SelectByOwner(ctx context.Context, ownerID string) ([]BookRecord, error) {
	rows, err := rs.client.HVals(ctx, booksKey(ownerID)).Result()
	if err != nil {
		return nil, err
	}
	records := []BookRecord{}
	for _, row := range rows {
		var record BookRecord
		if err = json.Unmarshal([]byte(row), &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Insert assigns a fresh id and commits the record. The committed row is
// returned so callers never reflect anything the store did not accept.
func (rs *redisBookStorage) Insert(ctx context.Context, record BookRecord) (BookRecord, error) {
	record.ID = rs.ids.Generate(BookIDPrefix)
	recordBytes, err := json.Marshal(record)
	if err != nil {
		return BookRecord{}, err
	}
	if err = rs.client.HSet(ctx, booksKey(record.OwnerID), record.ID, recordBytes).Err(); err != nil {
		return BookRecord{}, err
	}
	return record, nil
}

// UpdateStatus mutates only the status and its change timestamp of the row
// matching both the owner and the book id. Returns ErrBookNotFound when
// the owner holds no such row. Concurrent updates on the same row resolve
// as last-write-wins.
func (rs *redisBookStorage) UpdateStatus(ctx context.Context, ownerID, bookID string, status BookStatus, changedAt time.Time) (BookRecord, error) {
	row, err := rs.client.HGet(ctx, booksKey(ownerID), bookID).Result()
	if err == redis.Nil {
		return BookRecord{}, ErrBookNotFound
	}
	if err != nil {
		return BookRecord{}, err
	}

	var record BookRecord
	if err = json.Unmarshal([]byte(row), &record); err != nil {
		return BookRecord{}, err
	}
	record.Status = status
	record.StatusChangedAt = &changedAt

	recordBytes, err := json.Marshal(record)
	if err != nil {
		return BookRecord{}, err
	}
	if err = rs.client.HSet(ctx, booksKey(ownerID), bookID, recordBytes).Err(); err != nil {
		return BookRecord{}, err
	}
	return record, nil
}
