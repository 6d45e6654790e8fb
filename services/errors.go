package services

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FetchErrorKind classifies metadata fetch failures
type FetchErrorKind int

const (
	FetchTimeout FetchErrorKind = iota
	FetchNetworkError
	FetchServerError
	FetchMalformed
)

// FetchError is a classified metadata fetch failure
type FetchError struct {
	Kind    FetchErrorKind
	Message string
}

func (e *FetchError) Error() string {
	const prefix = "Failed to fetch video info."
	switch e.Kind {
	case FetchTimeout:
		return prefix + " The request timed out."
	case FetchNetworkError:
		return prefix + " Check your network connection."
	case FetchServerError:
		return prefix + " " + e.Message
	default:
		return prefix + " Unexpected response from server."
	}
}

// DownloadErrorKind classifies download failures
type DownloadErrorKind int

const (
	DownloadTimeout DownloadErrorKind = iota
	DownloadHTTPError
	DownloadEmptyPayload
	DownloadGeneric
)

// DownloadError is a classified download failure, scoped to one task
type DownloadError struct {
	Kind    DownloadErrorKind
	Status  int
	Message string
}

func (e *DownloadError) Error() string {
	const prefix = "Download failed:"
	switch e.Kind {
	case DownloadTimeout:
		return prefix + " request timed out."
	case DownloadHTTPError:
		return fmt.Sprintf("%s server returned status %d.", prefix, e.Status)
	case DownloadEmptyPayload:
		return prefix + " received an empty file."
	default:
		return prefix + " " + e.Message
	}
}

// ClassifyFetch maps a raw fetch failure into the fetch taxonomy. Already
// classified errors pass through unchanged.
func ClassifyFetch(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if isTimeout(err) {
		return &FetchError{Kind: FetchTimeout}
	}
	return &FetchError{Kind: FetchNetworkError, Message: err.Error()}
}

// ClassifyDownload maps a raw download failure into the download taxonomy.
// Already classified errors pass through unchanged.
func ClassifyDownload(err error) *DownloadError {
	var de *DownloadError
	if errors.As(err, &de) {
		return de
	}
	if isTimeout(err) {
		return &DownloadError{Kind: DownloadTimeout}
	}
	return &DownloadError{Kind: DownloadGeneric, Message: err.Error()}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
