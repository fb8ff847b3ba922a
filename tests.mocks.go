package main

import (
	"context"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	SelectByOwnerFunc func(ctx context.Context, ownerID string) ([]BookRecord, error)
	InsertFunc        func(ctx context.Context, record BookRecord) (BookRecord, error)
	UpdateStatusFunc  func(ctx context.Context, ownerID, bookID string, status BookStatus, changedAt time.Time) (BookRecord, error)
}

// SelectByOwner mocks the behavior of listing an owner's records by the repository.
func (m *MockBookStorage) SelectByOwner(ctx context.Context, ownerID string) ([]BookRecord, error) {
	return m.SelectByOwnerFunc(ctx, ownerID)
}

// Insert mocks the behavior of record creation by the repository.
func (m *MockBookStorage) Insert(ctx context.Context, record BookRecord) (BookRecord, error) {
	return m.InsertFunc(ctx, record)
}

// UpdateStatus mocks the behavior of a status update by the repository.
func (m *MockBookStorage) UpdateStatus(ctx context.Context, ownerID, bookID string, status BookStatus, changedAt time.Time) (BookRecord, error) {
	return m.UpdateStatusFunc(ctx, ownerID, bookID, status, changedAt)
}

// MockBookMirror implements a fake BookMirror.
type MockBookMirror struct {
	PutFunc func(ctx context.Context, record BookRecord) error
}

// Put mocks the mirroring of a committed record.
func (m *MockBookMirror) Put(ctx context.Context, record BookRecord) error {
	return m.PutFunc(ctx, record)
}

// MockQueuer implements a fake Queuer.
type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, record BookRecord) error
	PopFunc  func(ctx context.Context, qids ...string) (string, BookRecord, error)
}

// Push mocks the enqueueing of a committed record.
func (m *MockQueuer) Push(ctx context.Context, qid string, record BookRecord) error {
	return m.PushFunc(ctx, qid, record)
}

// Pop mocks the dequeueing of a committed record.
func (m *MockQueuer) Pop(ctx context.Context, qids ...string) (string, BookRecord, error) {
	return m.PopFunc(ctx, qids...)
}

// MockCatalogSearcher implements a fake CatalogSearcher.
type MockCatalogSearcher struct {
	SearchFunc func(ctx context.Context, query string, maxResults int) ([]SearchResultItem, error)
}

// Search mocks a catalog lookup.
func (m *MockCatalogSearcher) Search(ctx context.Context, query string, maxResults int) ([]SearchResultItem, error) {
	return m.SearchFunc(ctx, query, maxResults)
}

// MockSessionStore implements a fake SessionStore.
type MockSessionStore struct {
	CreateFunc func(ctx context.Context, email string) (Session, error)
	GetFunc    func(ctx context.Context, token string) (Session, error)
	DeleteFunc func(ctx context.Context, token string) error
}

// Create mocks the issuance of a session.
func (m *MockSessionStore) Create(ctx context.Context, email string) (Session, error) {
	return m.CreateFunc(ctx, email)
}

// Get mocks the resolution of a session token.
func (m *MockSessionStore) Get(ctx context.Context, token string) (Session, error) {
	return m.GetFunc(ctx, token)
}

// Delete mocks the termination of a session.
func (m *MockSessionStore) Delete(ctx context.Context, token string) error {
	return m.DeleteFunc(ctx, token)
}

// MockCollectionProvider implements a fake CollectionServiceProvider.
type MockCollectionProvider struct {
	LoadCollectionFunc   func(ctx context.Context, ownerID string) *CollectionState
	SearchCatalogFunc    func(ctx context.Context, query string, maxResults int) []SearchResultItem
	AddToCollectionFunc  func(ctx context.Context, ownerID string, item SearchResultItem) (BookRecord, error)
	MoveBookFunc         func(ctx context.Context, ownerID, bookID string, from, to BookStatus) (BookRecord, bool, error)
	ForgetCollectionFunc func(ownerID string)
}

// LoadCollection mocks the read path of the collection service.
func (m *MockCollectionProvider) LoadCollection(ctx context.Context, ownerID string) *CollectionState {
	return m.LoadCollectionFunc(ctx, ownerID)
}

// SearchCatalog mocks the catalog path of the collection service.
func (m *MockCollectionProvider) SearchCatalog(ctx context.Context, query string, maxResults int) []SearchResultItem {
	return m.SearchCatalogFunc(ctx, query, maxResults)
}

// AddToCollection mocks the add path of the collection service.
func (m *MockCollectionProvider) AddToCollection(ctx context.Context, ownerID string, item SearchResultItem) (BookRecord, error) {
	return m.AddToCollectionFunc(ctx, ownerID, item)
}

// MoveBook mocks the move path of the collection service.
func (m *MockCollectionProvider) MoveBook(ctx context.Context, ownerID, bookID string, from, to BookStatus) (BookRecord, bool, error) {
	return m.MoveBookFunc(ctx, ownerID, bookID, from, to)
}

// ForgetCollection mocks the session-bound state drop.
func (m *MockCollectionProvider) ForgetCollection(ownerID string) {
	m.ForgetCollectionFunc(ownerID)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
// equals to `2023-07-02 00:00:00 +0000 UTC` in String format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}
