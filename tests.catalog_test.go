package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const catalogTestEndpoint = "https://catalog.test/volumes"

// newCatalogClient provides a client backed by an isolated mock transport.
func newCatalogClient(transport *httpmock.MockTransport) *GoogleBooksClient {
	return NewGoogleBooksClient(zap.NewNop(), &http.Client{Transport: transport}, catalogTestEndpoint)
}

// TestCatalogSearch ensures volumes are flattened into search items with
// the sentinel substitutions for missing fields.
func TestCatalogSearch(t *testing.T) {

	t.Run("should pass: full volume is mapped field by field", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		transport.RegisterResponder("GET", catalogTestEndpoint,
			httpmock.NewStringResponder(http.StatusOK, `{
				"items": [{
					"id": "vol-1",
					"volumeInfo": {
						"title": "Dune",
						"authors": ["Frank Herbert"],
						"description": "A desert planet.",
						"imageLinks": {"thumbnail": "https://covers.test/dune.jpg"},
						"industryIdentifiers": [{"type": "ISBN_13", "identifier": "9780441013593"}]
					}
				}]
			}`))

		items, err := newCatalogClient(transport).Search(context.Background(), "dune", 5)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, SearchResultItem{
			ExternalID:  "vol-1",
			Title:       "Dune",
			Authors:     "Frank Herbert",
			Cover:       "https://covers.test/dune.jpg",
			ISBN:        "9780441013593",
			Description: "A desert planet.",
		}, items[0])
	})

	t.Run("should pass: missing fields fall back to sentinels", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		transport.RegisterResponder("GET", catalogTestEndpoint,
			httpmock.NewStringResponder(http.StatusOK, `{
				"items": [{"id": "vol-2", "volumeInfo": {"title": "Untitled Draft"}}]
			}`))

		items, err := newCatalogClient(transport).Search(context.Background(), "draft", 5)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, UnknownAuthors, items[0].Authors)
		assert.Equal(t, PlaceholderCover, items[0].Cover)
		assert.Equal(t, UnknownISBN, items[0].ISBN)
		assert.Equal(t, NoDescription, items[0].Description)
	})

	t.Run("should pass: multiple authors are comma joined", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		transport.RegisterResponder("GET", catalogTestEndpoint,
			httpmock.NewStringResponder(http.StatusOK, `{
				"items": [{"id": "vol-3", "volumeInfo": {"title": "Good Omens", "authors": ["Terry Pratchett", "Neil Gaiman"]}}]
			}`))

		items, err := newCatalogClient(transport).Search(context.Background(), "omens", 5)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Terry Pratchett, Neil Gaiman", items[0].Authors)
	})

	t.Run("should pass: blank query returns empty without calling out", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		items, err := newCatalogClient(transport).Search(context.Background(), "   ", 5)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Zero(t, transport.GetTotalCallCount())
	})

	t.Run("should pass: empty reply yields empty list", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		transport.RegisterResponder("GET", catalogTestEndpoint,
			httpmock.NewStringResponder(http.StatusOK, `{}`))

		items, err := newCatalogClient(transport).Search(context.Background(), "nothing", 5)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("should fail: non 200 statuses are errors", func(t *testing.T) {
		for _, status := range []int{http.StatusTooManyRequests, http.StatusForbidden, http.StatusInternalServerError} {
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", catalogTestEndpoint,
				httpmock.NewStringResponder(status, ""))

			_, err := newCatalogClient(transport).Search(context.Background(), "dune", 5)
			assert.Error(t, err)
		}
	})

	t.Run("should fail: transport failure is an error", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		transport.RegisterResponder("GET", catalogTestEndpoint,
			httpmock.NewErrorResponder(context.DeadlineExceeded))

		_, err := newCatalogClient(transport).Search(context.Background(), "dune", 5)
		assert.Error(t, err)
	})

	t.Run("should fail: malformed reply is an error", func(t *testing.T) {
		transport := httpmock.NewMockTransport()
		transport.RegisterResponder("GET", catalogTestEndpoint,
			httpmock.NewStringResponder(http.StatusOK, `{"items": [`))

		_, err := newCatalogClient(transport).Search(context.Background(), "dune", 5)
		assert.Error(t, err)
	})
}

// TestCatalogSearchMaxResultsClamp ensures the requested page size is
// bounded by the API limits.
func TestCatalogSearchMaxResultsClamp(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		expected  string
	}{
		{"zero falls back to default", 0, "5"},
		{"negative falls back to default", -3, "5"},
		{"above api limit is capped", 100, "40"},
		{"in range is kept", 12, "12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", catalogTestEndpoint,
				func(req *http.Request) (*http.Response, error) {
					got = req.URL.Query().Get("maxResults")
					return httpmock.NewStringResponse(http.StatusOK, `{}`), nil
				})

			_, err := newCatalogClient(transport).Search(context.Background(), "dune", tt.requested)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
