package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

// boltBookMirror replicates committed records into boltdb. Records are
// stored under one nested bucket per owner so the read path stays scoped
// the same way the primary store is.
type boltBookMirror struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient sets up the database and the root bucket then provides
// a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BoltDB.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BoltDB.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltBookMirror provides the bolt-based mirror of the record store.
func NewBoltBookMirror(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) *boltBookMirror {
	return &boltBookMirror{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

// Close shuts down the bolt-based mirror.
func (bm *boltBookMirror) Close() error {
	return bm.client.Close()
}

// Put upserts a committed record under its owner's bucket. Adds and moves
// both land here; the latest committed row wins.
func (bm *boltBookMirror) Put(_ context.Context, record BookRecord) error {
	recordBytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return bm.client.Update(func(tx *bolt.Tx) error {
		owner, err := tx.Bucket([]byte(bm.config.BucketName)).CreateBucketIfNotExists([]byte(record.OwnerID))
		if err != nil {
			return err
		}
		return owner.Put([]byte(record.ID), recordBytes)
	})
}

// SelectByOwner retrieves the mirrored records of one owner. Used by ops
// tooling to inspect the replica; the serving path never reads from here.
func (bm *boltBookMirror) SelectByOwner(_ context.Context, ownerID string) ([]BookRecord, error) {
	tx, err := bm.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	records := []BookRecord{}
	owner := tx.Bucket([]byte(bm.config.BucketName)).Bucket([]byte(ownerID))
	if owner == nil {
		return records, nil
	}

	c := owner.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var record BookRecord
		if err = json.Unmarshal(v, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
