package main

import (
	"context"
	"fmt"
	"time"
)

// BookStatus identifies the shelf a book currently sits on.
// The set is closed: records never carry any other value.
type BookStatus string

const (
	StatusToRead    BookStatus = "TO_READ"
	StatusReading   BookStatus = "READING"
	StatusRead      BookStatus = "READ"
	StatusAbandoned BookStatus = "ABANDONED"
)

// NumBookStatuses is the number of shelves a collection always exposes.
const NumBookStatuses = 4

// AllBookStatuses lists every shelf in presentation order.
var AllBookStatuses = [NumBookStatuses]BookStatus{
	StatusToRead,
	StatusReading,
	StatusRead,
	StatusAbandoned,
}

// ParseBookStatus validates a raw status value against the closed set.
func ParseBookStatus(raw string) (BookStatus, error) {
	for _, status := range AllBookStatuses {
		if string(status) == raw {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown book status: %q", raw)
}

// statusIndex maps a status to its fixed bucket slot.
func statusIndex(status BookStatus) (int, bool) {
	for i, s := range AllBookStatuses {
		if s == status {
			return i, true
		}
	}
	return 0, false
}

// BookRecord represents a book owned by a user. Descriptive fields are
// immutable once the record is inserted. Only the move operation mutates
// Status and StatusChangedAt.
type BookRecord struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"user_id"`
	Title           string     `json:"title"`
	Authors         string     `json:"authors"`
	Cover           string     `json:"cover"`
	ISBN            string     `json:"isbn"`
	Description     string     `json:"description"`
	Status          BookStatus `json:"status"`
	AddedAt         time.Time  `json:"added_at"`
	StatusChangedAt *time.Time `json:"status_changed_at,omitempty"`
}

// SearchResultItem is a transient catalog hit. It carries the same
// descriptive fields as a record but no store identity or status.
type SearchResultItem struct {
	ExternalID  string `json:"external_id"`
	Title       string `json:"title"`
	Authors     string `json:"authors"`
	Cover       string `json:"cover"`
	ISBN        string `json:"isbn"`
	Description string `json:"description"`
}

// BookStorage defines the record store operations the collection manager
// relies on. Insert assigns the record id; UpdateStatus must only touch a
// row matching both the owner and the book id.
type BookStorage interface {
	SelectByOwner(ctx context.Context, ownerID string) ([]BookRecord, error)
	Insert(ctx context.Context, record BookRecord) (BookRecord, error)
	UpdateStatus(ctx context.Context, ownerID, bookID string, status BookStatus, changedAt time.Time) (BookRecord, error)
}

// BookMirror receives committed records for replication into a
// secondary store.
type BookMirror interface {
	Put(ctx context.Context, record BookRecord) error
}
