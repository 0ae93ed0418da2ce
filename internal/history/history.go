package history

import "github.com/desertthunder/scorify/internal/models"

// Reconcile merges fresh into cache.
//
// fresh is compared position by position against the head of cache using the track name only. When every
// position matches, cache is returned as is and changed is false. Otherwise the whole of fresh is prepended to
// cache without further deduplication. A fresh slice longer than cache can never match.
//
// Neither input is modified; merged is always a new slice when changed is true.
func Reconcile(cache, fresh []models.Track) (merged []models.Track, changed bool) {
	if len(fresh) == 0 || HeadMatches(cache, fresh) {
		return cache, false
	}

	merged = make([]models.Track, 0, len(fresh)+len(cache))
	merged = append(merged, fresh...)
	merged = append(merged, cache...)
	return merged, true
}

// HeadMatches reports whether the first len(fresh) entries of cache carry the same track names as fresh.
func HeadMatches(cache, fresh []models.Track) bool {
	if len(fresh) > len(cache) {
		return false
	}
	for i := range fresh {
		if fresh[i].TrackName != cache[i].TrackName {
			return false
		}
	}
	return true
}

// Page returns the items in [start, end) clamped to the list bounds.
func Page(list []models.Track, start, end int) []models.Track {
	start = max(0, min(start, len(list)))
	end = max(start, min(end, len(list)))
	return list[start:end]
}
