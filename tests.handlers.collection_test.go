package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newCollectionAPI builds an api handler over the given provider with a
// minimal catalog config.
func newCollectionAPI(provider CollectionServiceProvider) *APIHandler {
	config := &Config{Catalog: CatalogConfig{MaxResults: 5}}
	return NewAPIHandler(zap.NewNop(), config, &Statistics{started: time.Now()}, NewMockClocker(), NewMockUIDHandler("uid", true), NewMetrics(), nil, provider)
}

// withSession attaches an authenticated session to the request context.
func withSession(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), ContextSession, Session{Token: "ss:token-1", UserID: userID})
	return req.WithContext(ctx)
}

// TestGetCollectionHandler ensures the partitioned state is rendered with
// all four shelves and a record count, even when the store fetch failed.
func TestGetCollectionHandler(t *testing.T) {
	state := NewCollectionState()
	state.append(BookRecord{ID: "bk:1", OwnerID: "u1", Title: "Dune", Status: StatusReading})
	mockCollection := &MockCollectionProvider{
		LoadCollectionFunc: func(ctx context.Context, ownerID string) *CollectionState {
			return state
		},
	}
	api := newCollectionAPI(mockCollection)

	req := withSession(httptest.NewRequest(http.MethodGet, "/v1/collection", nil), "u1")
	w := httptest.NewRecorder()
	api.GetCollection(w, req, httprouter.Params{})
	res := w.Result()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	resultMap := make(map[string]interface{})
	err = json.Unmarshal(data, &resultMap)
	require.NoError(t, err)
	assert.Equal(t, "Collection fetched successfully.", resultMap["message"])
	assert.Equal(t, float64(1), resultMap["total"])

	shelves, ok := resultMap["data"].(map[string]interface{})
	require.True(t, ok)
	for _, status := range AllBookStatuses {
		shelf, ok := shelves[string(status)].([]interface{})
		assert.Truef(t, ok, "shelf %s must always be an array", status)
		if status == StatusReading {
			assert.Len(t, shelf, 1)
		} else {
			assert.Empty(t, shelf)
		}
	}
}

// TestSearchCatalogHandler ensures the query parameters are honored and a
// degraded catalog still answers 200 with an empty list.
func TestSearchCatalogHandler(t *testing.T) {
	var gotQuery string
	var gotMax int
	mockCollection := &MockCollectionProvider{
		SearchCatalogFunc: func(ctx context.Context, query string, maxResults int) []SearchResultItem {
			gotQuery = query
			gotMax = maxResults
			return []SearchResultItem{{Title: "Dune"}, {Title: "Dune Messiah"}}
		},
	}
	api := newCollectionAPI(mockCollection)

	t.Run("should pass: query with explicit max", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodGet, "/v1/catalog/search?q=dune&max=7", nil), "u1")
		w := httptest.NewRecorder()
		api.SearchCatalog(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "dune", gotQuery)
		assert.Equal(t, 7, gotMax)

		resultMap := make(map[string]interface{})
		err = json.Unmarshal(data, &resultMap)
		require.NoError(t, err)
		assert.Equal(t, float64(2), resultMap["total"])
	})

	t.Run("should pass: invalid max falls back to configured size", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodGet, "/v1/catalog/search?q=dune&max=abc", nil), "u1")
		w := httptest.NewRecorder()
		api.SearchCatalog(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, 5, gotMax)
	})

	t.Run("should pass: degraded catalog answers 200 with empty list", func(t *testing.T) {
		mockCollection.SearchCatalogFunc = func(ctx context.Context, query string, maxResults int) []SearchResultItem {
			return []SearchResultItem{}
		}
		req := withSession(httptest.NewRequest(http.MethodGet, "/v1/catalog/search?q=dune", nil), "u1")
		w := httptest.NewRecorder()
		api.SearchCatalog(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		resultMap := make(map[string]interface{})
		err = json.Unmarshal(data, &resultMap)
		require.NoError(t, err)
		assert.Equal(t, float64(0), resultMap["total"])
	})

	t.Run("should fail: missing query parameter", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodGet, "/v1/catalog/search", nil), "u1")
		w := httptest.NewRecorder()
		api.SearchCatalog(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

// TestAddBookHandler ensures an accepted item is committed before being
// acknowledged and a persist failure surfaces its cause.
func TestAddBookHandler(t *testing.T) {
	mockCollection := &MockCollectionProvider{
		AddToCollectionFunc: func(ctx context.Context, ownerID string, item SearchResultItem) (BookRecord, error) {
			return BookRecord{
				ID:      "bk:1",
				OwnerID: ownerID,
				Title:   item.Title,
				Status:  StatusToRead,
				AddedAt: NewMockClocker().Now(),
			}, nil
		},
	}
	api := newCollectionAPI(mockCollection)

	t.Run("should pass: valid payload", func(t *testing.T) {
		payload, err := json.Marshal(SearchResultItem{Title: "Dune", Authors: "Frank Herbert"})
		require.NoError(t, err)
		req := withSession(httptest.NewRequest(http.MethodPost, "/v1/collection/books", bytes.NewBuffer(payload)), "u1")
		w := httptest.NewRecorder()
		api.AddBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		resultMap := make(map[string]interface{})
		err = json.Unmarshal(data, &resultMap)
		require.NoError(t, err)
		assert.Equal(t, "Book added to collection.", resultMap["message"])

		bookMap, ok := resultMap["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "bk:1", bookMap["id"])
		assert.Equal(t, "u1", bookMap["user_id"])
		assert.Equal(t, string(StatusToRead), bookMap["status"])
	})

	t.Run("should fail: missing title", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodPost, "/v1/collection/books", bytes.NewBufferString(`{"authors":"Frank Herbert"}`)), "u1")
		w := httptest.NewRecorder()
		api.AddBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("should fail: persist failure surfaces its cause", func(t *testing.T) {
		mockCollection.AddToCollectionFunc = func(ctx context.Context, ownerID string, item SearchResultItem) (BookRecord, error) {
			return BookRecord{}, &PersistError{Op: "insert book", Err: errors.New("write timeout")}
		}
		payload, err := json.Marshal(SearchResultItem{Title: "Dune"})
		require.NoError(t, err)
		req := withSession(httptest.NewRequest(http.MethodPost, "/v1/collection/books", bytes.NewBuffer(payload)), "u1")
		w := httptest.NewRecorder()
		api.AddBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

		resultMap := make(map[string]interface{})
		err = json.Unmarshal(data, &resultMap)
		require.NoError(t, err)
		assert.Contains(t, resultMap["message"], "write timeout")
	})
}

// TestMoveBookHandler ensures shelf transfers validate their payload and
// distinguish a committed move from a stale no-op.
func TestMoveBookHandler(t *testing.T) {
	changedAt := NewMockClocker().Now()
	mockCollection := &MockCollectionProvider{
		MoveBookFunc: func(ctx context.Context, ownerID, bookID string, from, to BookStatus) (BookRecord, bool, error) {
			return BookRecord{ID: bookID, OwnerID: ownerID, Status: to, StatusChangedAt: &changedAt}, true, nil
		},
	}
	api := newCollectionAPI(mockCollection)
	params := httprouter.Params{{Key: "id", Value: "bk:1"}}

	t.Run("should pass: committed move", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodPatch, "/v1/collection/books/bk:1/status", bytes.NewBufferString(`{"from":"TO_READ","to":"READING"}`)), "u1")
		w := httptest.NewRecorder()
		api.MoveBook(w, req, params)
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		resultMap := make(map[string]interface{})
		err = json.Unmarshal(data, &resultMap)
		require.NoError(t, err)
		assert.Equal(t, "Book moved successfully.", resultMap["message"])

		bookMap, ok := resultMap["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, string(StatusReading), bookMap["status"])
		assert.NotEmpty(t, bookMap["status_changed_at"])
	})

	t.Run("should pass: stale source shelf is acknowledged as no-op", func(t *testing.T) {
		mockCollection.MoveBookFunc = func(ctx context.Context, ownerID, bookID string, from, to BookStatus) (BookRecord, bool, error) {
			return BookRecord{}, false, nil
		}
		req := withSession(httptest.NewRequest(http.MethodPatch, "/v1/collection/books/bk:1/status", bytes.NewBufferString(`{"from":"READ","to":"ABANDONED"}`)), "u1")
		w := httptest.NewRecorder()
		api.MoveBook(w, req, params)
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		resultMap := make(map[string]interface{})
		err = json.Unmarshal(data, &resultMap)
		require.NoError(t, err)
		assert.Equal(t, "Book not found on source shelf. Nothing to move.", resultMap["message"])
	})

	t.Run("should fail: unknown status", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodPatch, "/v1/collection/books/bk:1/status", bytes.NewBufferString(`{"from":"WISHLIST","to":"READING"}`)), "u1")
		w := httptest.NewRecorder()
		api.MoveBook(w, req, params)
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("should fail: identical shelves", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodPatch, "/v1/collection/books/bk:1/status", bytes.NewBufferString(`{"from":"READING","to":"READING"}`)), "u1")
		w := httptest.NewRecorder()
		api.MoveBook(w, req, params)
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("should fail: persist failure surfaces its cause", func(t *testing.T) {
		mockCollection.MoveBookFunc = func(ctx context.Context, ownerID, bookID string, from, to BookStatus) (BookRecord, bool, error) {
			return BookRecord{}, false, &PersistError{Op: "update book status", Err: errors.New("write timeout")}
		}
		req := withSession(httptest.NewRequest(http.MethodPatch, "/v1/collection/books/bk:1/status", bytes.NewBufferString(`{"from":"TO_READ","to":"READING"}`)), "u1")
		w := httptest.NewRecorder()
		api.MoveBook(w, req, params)
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

		resultMap := make(map[string]interface{})
		err = json.Unmarshal(data, &resultMap)
		require.NoError(t, err)
		assert.Contains(t, resultMap["message"], "write timeout")
	})
}
