package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"vidfetch-go/models"
)

var (
	// Characters not allowed in filenames
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	// Multiple spaces/underscores
	multipleSpaces = regexp.MustCompile(`[\s_]+`)
)

// SanitizeFilename removes invalid characters from filename
func SanitizeFilename(name string) string {
	// Replace invalid characters with underscore
	name = invalidChars.ReplaceAllString(name, "_")
	// Replace multiple spaces/underscores with single underscore
	name = multipleSpaces.ReplaceAllString(name, "_")
	// Trim leading/trailing underscores and spaces
	name = strings.Trim(name, "_ ")
	// Limit length, backing up to a rune boundary so the cut never
	// produces invalid UTF-8
	if len(name) > 200 {
		cut := 200
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	return name
}

// OutputFilename builds the save-as filename for a download: the sanitized
// title (or "video" when empty) plus mp3 for audio tasks, mp4 otherwise.
func OutputFilename(title string, mediaType models.MediaType) string {
	name := SanitizeFilename(title)
	if name == "" {
		name = "video"
	}

	ext := "mp4"
	if mediaType == models.MediaTypeAudio {
		ext = "mp3"
	}

	return fmt.Sprintf("%s.%s", name, ext)
}

// ContentTypeFromExt returns content type for file extension
func ContentTypeFromExt(ext string) string {
	switch ext {
	case "mp4":
		return "video/mp4"
	case "mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
