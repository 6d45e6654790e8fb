package services

import (
	"sync"

	"vidfetch-go/models"
)

// Session owns the current-metadata slot. The slot holds whatever the most
// recently completed fetch produced, regardless of issuance order; a failed
// fetch clears it. Concurrent refreshes are not deduplicated.
type Session struct {
	fetcher *MetadataFetcher

	mu      sync.Mutex
	current *models.VideoMetadata
}

// NewSession creates a session backed by the given fetcher
func NewSession(fetcher *MetadataFetcher) *Session {
	return &Session{fetcher: fetcher}
}

// Refresh fetches metadata for the URL and installs the result in the slot.
// On failure the slot is cleared and the classified error returned.
func (s *Session) Refresh(rawURL string) (*models.VideoMetadata, error) {
	meta, err := s.fetcher.Fetch(rawURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.current = nil
		return nil, err
	}

	s.current = meta
	return meta, nil
}

// Current returns the metadata from the last completed fetch, or nil
func (s *Session) Current() *models.VideoMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
