package services

import "vidfetch-go/models"

// ClassifyType resolves the media type of a raw variant record with fixed
// precedence: video-only markers, then audio-only markers, then the record's
// own declared type, defaulting to video. A record carrying both marker sets
// (a muxed stream) or neither falls through to its declared type.
func ClassifyType(v *models.FormatVariant) models.MediaType {
	video := v.HasVideoMarkers()
	audio := v.HasAudioMarkers()

	switch {
	case video && !audio:
		return models.MediaTypeVideo
	case audio && !video:
		return models.MediaTypeAudio
	}

	if v.Type == models.MediaTypeAudio {
		return models.MediaTypeAudio
	}
	return models.MediaTypeVideo
}

// Normalize classifies and deduplicates a raw variant list into ordered
// video and audio partitions. Deduplication is first-seen-wins over the
// identity key; both partitions preserve the input's relative order and no
// secondary sort is applied. A nil input yields two empty partitions.
func Normalize(raw []models.FormatVariant) (video, audio []models.FormatVariant) {
	video = []models.FormatVariant{}
	audio = []models.FormatVariant{}

	seen := make(map[models.FormatKey]struct{}, len(raw))

	for _, v := range raw {
		v.Type = ClassifyType(&v)

		key := v.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if v.Type == models.MediaTypeAudio {
			audio = append(audio, v)
		} else {
			video = append(video, v)
		}
	}

	return video, audio
}
