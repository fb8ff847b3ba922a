package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// googleBooksEndpoint is the volumes search API.
	googleBooksEndpoint = "https://www.googleapis.com/books/v1/volumes"
	// googleBooksMaxResults is the upper bound the API accepts.
	googleBooksMaxResults = 40
	// DefaultSearchResults is used when the caller does not say how many.
	DefaultSearchResults = 5
)

// Sentinels substituted for catalog fields the volume does not carry.
const (
	UnknownAuthors   = "Unknown author"
	PlaceholderCover = "/placeholder-book.png"
	UnknownISBN      = "No ISBN"
	NoDescription    = "No description"
)

// CatalogSearcher finds candidate books in an external catalog.
type CatalogSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResultItem, error)
}

// Ensure *GoogleBooksClient implements CatalogSearcher.
var _ CatalogSearcher = (*GoogleBooksClient)(nil)

// GoogleBooksClient queries the Google Books volumes API. The endpoint and
// http client are injectable so tests can stub the transport.
type GoogleBooksClient struct {
	logger     *zap.Logger
	httpClient *http.Client
	endpoint   string
}

func NewGoogleBooksClient(logger *zap.Logger, httpClient *http.Client, endpoint string) *GoogleBooksClient {
	if endpoint == "" {
		endpoint = googleBooksEndpoint
	}
	return &GoogleBooksClient{
		logger:     logger,
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

// Wire shapes of the volumes API reply. Only the fields mapped below are
// decoded.
type googleVolumesReply struct {
	Items []googleVolume `json:"items"`
}

type googleVolume struct {
	ID         string           `json:"id"`
	VolumeInfo googleVolumeInfo `json:"volumeInfo"`
}

type googleVolumeInfo struct {
	Title               string             `json:"title"`
	Authors             []string           `json:"authors"`
	Description         string             `json:"description"`
	ImageLinks          *googleImageLinks  `json:"imageLinks"`
	IndustryIdentifiers []googleIdentifier `json:"industryIdentifiers"`
}

type googleImageLinks struct {
	Thumbnail string `json:"thumbnail"`
}

type googleIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// Search returns catalog candidates for a free-text query. A blank query
// returns no results without calling out. Any transport, status or decode
// failure is returned as an error; the caller decides how visible it is.
func (gc *GoogleBooksClient) Search(ctx context.Context, query string, maxResults int) ([]SearchResultItem, error) {
	if strings.TrimSpace(query) == "" {
		return []SearchResultItem{}, nil
	}
	if maxResults <= 0 {
		maxResults = DefaultSearchResults
	}
	if maxResults > googleBooksMaxResults {
		maxResults = googleBooksMaxResults
	}

	reqURL, err := url.Parse(gc.endpoint)
	if err != nil {
		return nil, fmt.Errorf("catalog: invalid endpoint: %w", err)
	}
	q := reqURL.Query()
	q.Set("q", query)
	q.Set("maxResults", strconv.Itoa(maxResults))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: build request: %w", err)
	}

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog: unexpected status %d", resp.StatusCode)
	}

	var reply googleVolumesReply
	if err = json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("catalog: decode reply: %w", err)
	}

	items := make([]SearchResultItem, 0, len(reply.Items))
	for _, volume := range reply.Items {
		items = append(items, formatVolume(volume))
	}
	return items, nil
}

// formatVolume flattens a volume into a search item, substituting the
// sentinel values for anything the catalog left out.
func formatVolume(volume googleVolume) SearchResultItem {
	info := volume.VolumeInfo
	item := SearchResultItem{
		ExternalID:  volume.ID,
		Title:       info.Title,
		Authors:     UnknownAuthors,
		Cover:       PlaceholderCover,
		ISBN:        UnknownISBN,
		Description: NoDescription,
	}
	if len(info.Authors) > 0 {
		item.Authors = strings.Join(info.Authors, ", ")
	}
	if info.ImageLinks != nil && info.ImageLinks.Thumbnail != "" {
		item.Cover = info.ImageLinks.Thumbnail
	}
	if len(info.IndustryIdentifiers) > 0 && info.IndustryIdentifiers[0].Identifier != "" {
		item.ISBN = info.IndustryIdentifiers[0].Identifier
	}
	if info.Description != "" {
		item.Description = info.Description
	}
	return item
}
