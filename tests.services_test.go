package main

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestService wires a collection service over mocked storage and catalog.
func newTestService(repo *MockBookStorage, catalog *MockCatalogSearcher) (CollectionServiceProvider, *Metrics) {
	metrics := NewMetrics()
	cm := NewCollectionManager(zap.NewNop(), NewMockClocker(), repo, nil)
	return NewCollectionService(zap.NewNop(), nil, cm, catalog, metrics), metrics
}

// TestServiceLoadCollection ensures the read path never surfaces a store
// failure: the retained state is served and the failure only counted.
func TestServiceLoadCollection(t *testing.T) {
	failing := false
	mockRepo := &MockBookStorage{
		SelectByOwnerFunc: func(ctx context.Context, ownerID string) ([]BookRecord, error) {
			if failing {
				return nil, errors.New("connection refused")
			}
			return []BookRecord{{ID: "bk:1", OwnerID: "u1", Status: StatusReading}}, nil
		},
	}
	service, metrics := newTestService(mockRepo, nil)

	state := service.LoadCollection(context.Background(), "u1")
	assert.Equal(t, 1, state.Total())
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.LoadFailuresTotal))

	failing = true
	state = service.LoadCollection(context.Background(), "u1")
	assert.Equal(t, 1, state.Total())
	assert.Equal(t, "bk:1", state.Bucket(StatusReading)[0].ID)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.LoadFailuresTotal))

	t.Run("first load failure serves four empty shelves", func(t *testing.T) {
		state := service.LoadCollection(context.Background(), "u2")
		assert.Equal(t, 0, state.Total())
		for _, status := range AllBookStatuses {
			assert.NotNil(t, state.Bucket(status))
		}
	})
}

// TestServiceSearchCatalog ensures catalog failures degrade to an empty
// result list instead of erroring out.
func TestServiceSearchCatalog(t *testing.T) {
	mockCatalog := &MockCatalogSearcher{
		SearchFunc: func(ctx context.Context, query string, maxResults int) ([]SearchResultItem, error) {
			return []SearchResultItem{{Title: "Dune"}}, nil
		},
	}
	service, metrics := newTestService(nil, mockCatalog)

	items := service.SearchCatalog(context.Background(), "dune", 5)
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CatalogSearchesTotal.WithLabelValues("ok")))

	mockCatalog.SearchFunc = func(ctx context.Context, query string, maxResults int) ([]SearchResultItem, error) {
		return nil, errors.New("upstream unavailable")
	}
	items = service.SearchCatalog(context.Background(), "dune", 5)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CatalogSearchesTotal.WithLabelValues("failed")))
}

// TestServiceMutations ensures the write path propagates failures with
// their cause and counts only committed mutations.
func TestServiceMutations(t *testing.T) {
	mockRepo := &MockBookStorage{
		InsertFunc: func(ctx context.Context, record BookRecord) (BookRecord, error) {
			record.ID = "bk:1"
			return record, nil
		},
		UpdateStatusFunc: nil,
	}
	service, metrics := newTestService(mockRepo, nil)

	record, err := service.AddToCollection(context.Background(), "u1", SearchResultItem{Title: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, "bk:1", record.ID)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.MutationsTotal.WithLabelValues("add")))

	t.Run("should fail: add surfaces the persist failure", func(t *testing.T) {
		mockRepo.InsertFunc = func(ctx context.Context, record BookRecord) (BookRecord, error) {
			return BookRecord{}, errors.New("write timeout")
		}
		_, err := service.AddToCollection(context.Background(), "u1", SearchResultItem{Title: "Dune"})
		var persistErr *PersistError
		require.ErrorAs(t, err, &persistErr)
		assert.Contains(t, err.Error(), "write timeout")
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.MutationsTotal.WithLabelValues("add")))
	})

	t.Run("should pass: no-op move is not counted as a mutation", func(t *testing.T) {
		_, moved, err := service.MoveBook(context.Background(), "u1", "bk:404", StatusRead, StatusAbandoned)
		require.NoError(t, err)
		assert.False(t, moved)
		assert.Equal(t, float64(0), testutil.ToFloat64(metrics.MutationsTotal.WithLabelValues("move")))
	})
}
