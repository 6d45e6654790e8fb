package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"vidfetch-go/config"
	"vidfetch-go/models"
)

// MetadataFetcher calls the remote info endpoint
type MetadataFetcher struct {
	Client   *http.Client
	Endpoint string
	Timeout  time.Duration
}

// NewMetadataFetcher returns a fetcher wired to the configured endpoint
func NewMetadataFetcher() *MetadataFetcher {
	return &MetadataFetcher{
		Client:   config.InfoClient,
		Endpoint: config.InfoEndpoint,
		Timeout:  config.InfoTimeout,
	}
}

// infoResponse mirrors the info endpoint contract. Formats stays raw so an
// absent field can be told apart from an empty list.
type infoResponse struct {
	Title     string          `json:"title"`
	Thumbnail string          `json:"thumbnail"`
	Error     string          `json:"error"`
	Formats   json.RawMessage `json:"formats"`
}

// Fetch issues a single bounded request to the info endpoint. It succeeds
// only when the response carries a formats field; an error field in an
// otherwise well-formed response becomes a FetchServerError with that
// message, and a response with neither is FetchMalformed.
func (f *MetadataFetcher) Fetch(rawURL string) (*models.VideoMetadata, error) {
	body, err := json.Marshal(models.InfoRequest{URL: rawURL})
	if err != nil {
		return nil, ClassifyFetch(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", f.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, ClassifyFetch(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, ClassifyFetch(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ClassifyFetch(err)
	}

	var info infoResponse
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, &FetchError{Kind: FetchMalformed}
	}

	if info.Error != "" {
		return nil, &FetchError{Kind: FetchServerError, Message: info.Error}
	}

	if info.Formats == nil {
		return nil, &FetchError{Kind: FetchMalformed}
	}

	// A formats field that is not a list still counts as a successful
	// fetch; it just yields zero variants.
	var formats []models.FormatVariant
	if err := json.Unmarshal(info.Formats, &formats); err != nil {
		formats = nil
	}

	return &models.VideoMetadata{
		Title:     info.Title,
		Thumbnail: info.Thumbnail,
		Formats:   formats,
	}, nil
}
