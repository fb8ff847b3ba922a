package main

import (
	"context"

	"go.uber.org/zap"
)

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// boltDBConsumer drains committed mutation events into the bolt mirror.
// Both queue ids carry a full record, so a plain put is enough for adds
// and moves alike.
type boltDBConsumer struct {
	logger *zap.Logger
	queue  Queuer
	mirror BookMirror
}

func NewBoltDBConsumer(logger *zap.Logger, q Queuer, mirror BookMirror) Consumer {
	return &boltDBConsumer{logger, q, mirror}
}

func (bc *boltDBConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, record, err := bc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			bc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}
		if err != nil {
			bc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			continue
		}

		switch qid {
		case AddedQueue, MovedQueue:
			if err = bc.mirror.Put(ctx, record); err != nil {
				bc.logger.Error("consumer: failed to mirror record",
					zap.String("qid", qid),
					zap.String("book.id", record.ID),
					zap.Error(err),
				)
			}
		default:
			bc.logger.Warn("consumer: received record on unknown queue id", zap.String("qid", qid), zap.String("book.id", record.ID))
		}
	}
}
