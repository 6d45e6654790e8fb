package models

// MediaType distinguishes video and audio variants
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
)

// FormatVariant is one downloadable encoding option for a video:
// a specific quality/codec/container combination as reported by the
// info endpoint. Fields other than Ext may be absent in raw records.
type FormatVariant struct {
	FormatID string    `json:"format_id,omitempty"`
	Type     MediaType `json:"type,omitempty"`
	Ext      string    `json:"ext"`
	Quality  string    `json:"quality,omitempty"`
	Height   int       `json:"height,omitempty"`
	Abr      float64   `json:"abr,omitempty"`
	Vcodec   string    `json:"vcodec,omitempty"`
	Acodec   string    `json:"acodec,omitempty"`
	Filesize int64     `json:"filesize,omitempty"`
}

// FormatKey identifies a variant for deduplication and for the per-task
// registry. When the server assigned a format ID the ID alone is the key;
// otherwise the key is the composite of the remaining fields.
type FormatKey struct {
	ID      string
	Type    MediaType
	Ext     string
	Quality string
	Abr     float64
	Height  int
}

// Key returns the identity key for the variant.
func (v *FormatVariant) Key() FormatKey {
	if v.FormatID != "" {
		return FormatKey{ID: v.FormatID}
	}
	return FormatKey{
		Type:    v.Type,
		Ext:     v.Ext,
		Quality: v.Quality,
		Abr:     v.Abr,
		Height:  v.Height,
	}
}

// codecPresent reports whether a codec tag names an actual codec.
// Extractors use the literal "none" for a missing stream.
func codecPresent(codec string) bool {
	return codec != "" && codec != "none"
}

// HasVideoMarkers reports whether the record carries video signals
func (v *FormatVariant) HasVideoMarkers() bool {
	return v.Height > 0 || codecPresent(v.Vcodec)
}

// HasAudioMarkers reports whether the record carries audio signals
func (v *FormatVariant) HasAudioMarkers() bool {
	return v.Abr > 0 || codecPresent(v.Acodec)
}

// VideoMetadata is the result of one successful info fetch. It is replaced
// wholesale on each fetch, never mutated in place.
type VideoMetadata struct {
	Title     string          `json:"title"`
	Thumbnail string          `json:"thumbnail,omitempty"`
	Formats   []FormatVariant `json:"formats"`
}

// InfoRequest is the body of POST /api/info
type InfoRequest struct {
	URL string `json:"url"`
}

// InfoResponse is returned by POST /api/info with the normalized partitions
type InfoResponse struct {
	Title        string          `json:"title"`
	Thumbnail    string          `json:"thumbnail,omitempty"`
	VideoFormats []FormatVariant `json:"videoFormats"`
	AudioFormats []FormatVariant `json:"audioFormats"`
}

// DownloadRequest is the body of POST /api/download
type DownloadRequest struct {
	URL     string        `json:"url"`
	Title   string        `json:"title"`
	Variant FormatVariant `json:"variant"`
}

// DownloadAccepted is returned when a download request has been taken.
// Started is false when a download for the same variant was already in
// flight and the request was a no-op.
type DownloadAccepted struct {
	Started bool   `json:"started"`
	State   string `json:"state"`
}

// TaskSnapshot is the observable state of one download task
type TaskSnapshot struct {
	AttemptID string `json:"attemptId,omitempty"`
	FormatID  string `json:"formatId,omitempty"`
	Type      string `json:"type"`
	Ext       string `json:"ext"`
	State     string `json:"state"`
	Filename  string `json:"filename,omitempty"`
	Error     string `json:"error,omitempty"`
	UpdatedAt int64  `json:"updatedAt"`
}

// HealthResponse for health check
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// DeleteResponse for file deletion
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}
