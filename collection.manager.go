package main

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// CollectionManager owns the in-memory partition of each owner's books and
// keeps it consistent with the record store. Every mutation commits to the
// store before being reflected locally, so there is never anything to roll
// back. The mutex guards only the in-memory transitions; store calls run
// outside of it, and concurrent mutations on the same record resolve as
// last-response-wins.
type CollectionManager struct {
	logger  *zap.Logger
	clock   Clocker
	storage BookStorage
	queue   Queuer

	mu          sync.Mutex
	collections map[string]*CollectionState
}

func NewCollectionManager(logger *zap.Logger, clock Clocker, storage BookStorage, queue Queuer) *CollectionManager {
	return &CollectionManager{
		logger:      logger,
		clock:       clock,
		storage:     storage,
		queue:       queue,
		collections: make(map[string]*CollectionState),
	}
}

// Load fetches all of the owner's records and replaces the cached state
// wholesale. On a store failure the previous state is left untouched and a
// *FetchError is returned.
func (cm *CollectionManager) Load(ctx context.Context, ownerID string) (*CollectionState, error) {
	records, err := cm.storage.SelectByOwner(ctx, ownerID)
	if err != nil {
		return nil, &FetchError{Op: "select books", Err: err}
	}
	state, err := PartitionRecords(records)
	if err != nil {
		return nil, &FetchError{Op: "partition books", Err: err}
	}

	cm.mu.Lock()
	cm.collections[ownerID] = state
	snapshot := state.clone()
	cm.mu.Unlock()
	return snapshot, nil
}

// State returns a snapshot of the cached partition for the owner, or an
// empty-bucketed state when nothing was loaded yet. It never touches the
// store.
func (cm *CollectionManager) State(ownerID string) *CollectionState {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if state, ok := cm.collections[ownerID]; ok {
		return state.clone()
	}
	return NewCollectionState()
}

// Add inserts a record built from the search item. The store assigns the
// id; only the committed row is appended to the TO_READ shelf. Calling Add
// twice with the same item creates two distinct records.
func (cm *CollectionManager) Add(ctx context.Context, ownerID string, item SearchResultItem) (BookRecord, error) {
	record := BookRecord{
		OwnerID:     ownerID,
		Title:       item.Title,
		Authors:     item.Authors,
		Cover:       item.Cover,
		ISBN:        item.ISBN,
		Description: item.Description,
		Status:      StatusToRead,
		AddedAt:     cm.clock.Now().UTC(),
	}

	committed, err := cm.storage.Insert(ctx, record)
	if err != nil {
		return BookRecord{}, &PersistError{Op: "insert book", Err: err}
	}

	cm.mu.Lock()
	cm.stateLocked(ownerID).append(committed)
	cm.mu.Unlock()

	cm.enqueue(ctx, AddedQueue, committed)
	return committed, nil
}

// Move transfers a record from one shelf to another. When the record is
// not on the source shelf the call is a silent no-op: the caller derives
// the source shelf from render state, so a stale id is not an error. The
// boolean reports whether a move actually happened.
func (cm *CollectionManager) Move(ctx context.Context, ownerID, bookID string, from, to BookStatus) (BookRecord, bool, error) {
	cm.mu.Lock()
	_, ok := cm.stateLocked(ownerID).find(from, bookID)
	cm.mu.Unlock()
	if !ok {
		return BookRecord{}, false, nil
	}

	changedAt := cm.clock.Now().UTC()
	committed, err := cm.storage.UpdateStatus(ctx, ownerID, bookID, to, changedAt)
	if err != nil {
		return BookRecord{}, false, &PersistError{Op: "update book status", Err: err}
	}

	// Single locked remove+append so no intermediate state where the id
	// sits in two shelves, or none, is ever observable.
	cm.mu.Lock()
	cm.stateLocked(ownerID).transition(committed)
	cm.mu.Unlock()

	cm.enqueue(ctx, MovedQueue, committed)
	return committed, true, nil
}

// Forget drops the owner's cached partition. Called on signout so no
// state outlives the session.
func (cm *CollectionManager) Forget(ownerID string) {
	cm.mu.Lock()
	delete(cm.collections, ownerID)
	cm.mu.Unlock()
}

// stateLocked returns the owner's live state, creating an empty one on
// first use. Callers must hold cm.mu.
func (cm *CollectionManager) stateLocked(ownerID string) *CollectionState {
	state, ok := cm.collections[ownerID]
	if !ok {
		state = NewCollectionState()
		cm.collections[ownerID] = state
	}
	return state
}

// enqueue mirrors a committed record. Mirroring is best-effort: a queue
// failure is logged and never fails the user-facing mutation.
func (cm *CollectionManager) enqueue(ctx context.Context, qid string, record BookRecord) {
	if cm.queue == nil {
		return
	}
	if err := cm.queue.Push(ctx, qid, record); err != nil {
		cm.logger.Error("manager: failed to push record to queue",
			zap.String("qid", qid),
			zap.String("book.id", record.ID),
			zap.Error(err),
		)
	}
}
