package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Queue IDs for committed collection mutations.
const (
	AddedQueue = "collection:added"
	MovedQueue = "collection:moved"
)

// Ensure *redisQueue implements Queuer.
var _ Queuer = (*redisQueue)(nil)

// Queuer carries committed book records between the manager and the
// mirror consumers.
type Queuer interface {
	Push(ctx context.Context, qid string, record BookRecord) error
	Pop(ctx context.Context, qids ...string) (string, BookRecord, error)
}

// redisQueue implements Queuer on top of redis lists.
type redisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) Queuer {
	return &redisQueue{client: client}
}

// Push enqueues a committed record onto the queue identified by qid.
func (q *redisQueue) Push(ctx context.Context, qid string, record BookRecord) error {
	recordBytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, qid, recordBytes).Err()
}

// Pop blocks until a record is available on any of the given queues and
// returns it along with the queue id it came from.
func (q *redisQueue) Pop(ctx context.Context, qids ...string) (string, BookRecord, error) {
	var record BookRecord
	infos, err := q.client.BLPop(ctx, 0*time.Second, qids...).Result()
	if err != nil {
		return "", record, err
	}
	if err = json.Unmarshal([]byte(infos[1]), &record); err != nil {
		return "", record, err
	}
	return infos[0], record, nil
}
