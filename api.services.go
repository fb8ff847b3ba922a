package main

import (
	"context"

	"go.uber.org/zap"
)

// CollectionServiceProvider is the presentation-facing surface of the
// collection core.
type CollectionServiceProvider interface {
	LoadCollection(ctx context.Context, ownerID string) *CollectionState
	SearchCatalog(ctx context.Context, query string, maxResults int) []SearchResultItem
	AddToCollection(ctx context.Context, ownerID string, item SearchResultItem) (BookRecord, error)
	MoveBook(ctx context.Context, ownerID, bookID string, from, to BookStatus) (BookRecord, bool, error)
	ForgetCollection(ownerID string)
}

// CollectionService applies the two failure-visibility tiers on top of the
// manager: read-path failures (load, search) are logged and degraded, while
// write-path failures propagate with their cause for user display.
type CollectionService struct {
	logger  *zap.Logger
	config  *Config
	manager *CollectionManager
	catalog CatalogSearcher
	metrics *Metrics
}

func NewCollectionService(logger *zap.Logger, config *Config, manager *CollectionManager, catalog CatalogSearcher, metrics *Metrics) CollectionServiceProvider {
	return &CollectionService{
		logger:  logger,
		config:  config,
		manager: manager,
		catalog: catalog,
		metrics: metrics,
	}
}

// LoadCollection refreshes the owner's partition from the store. A fetch
// failure is logged and the retained state (or an empty one on first load)
// is served instead; the user never sees a blocking error on the read path.
func (cs *CollectionService) LoadCollection(ctx context.Context, ownerID string) *CollectionState {
	state, err := cs.manager.Load(ctx, ownerID)
	if err != nil {
		cs.logger.Error("service: failed to load collection", zap.String("owner.id", ownerID), zap.Error(err))
		cs.metrics.LoadFailuresTotal.Inc()
		return cs.manager.State(ownerID)
	}
	return state
}

// SearchCatalog queries the external catalog. Failures degrade to an empty
// result list; the cause is only logged.
func (cs *CollectionService) SearchCatalog(ctx context.Context, query string, maxResults int) []SearchResultItem {
	items, err := cs.catalog.Search(ctx, query, maxResults)
	if err != nil {
		cs.logger.Error("service: catalog search failed", zap.String("query", query), zap.Error(err))
		cs.metrics.CatalogSearchesTotal.WithLabelValues("failed").Inc()
		return []SearchResultItem{}
	}
	cs.metrics.CatalogSearchesTotal.WithLabelValues("ok").Inc()
	return items
}

// AddToCollection persists a new record for the search item and returns
// the committed row.
func (cs *CollectionService) AddToCollection(ctx context.Context, ownerID string, item SearchResultItem) (BookRecord, error) {
	record, err := cs.manager.Add(ctx, ownerID, item)
	if err != nil {
		return BookRecord{}, err
	}
	cs.metrics.MutationsTotal.WithLabelValues("add").Inc()
	return record, nil
}

// MoveBook transfers a record between shelves.
func (cs *CollectionService) MoveBook(ctx context.Context, ownerID, bookID string, from, to BookStatus) (BookRecord, bool, error) {
	record, moved, err := cs.manager.Move(ctx, ownerID, bookID, from, to)
	if err != nil {
		return BookRecord{}, false, err
	}
	if moved {
		cs.metrics.MutationsTotal.WithLabelValues("move").Inc()
	}
	return record, moved, nil
}

// ForgetCollection drops the owner's cached state on session termination.
func (cs *CollectionService) ForgetCollection(ownerID string) {
	cs.manager.Forget(ownerID)
}
