package matching

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturematch/backend/internal/db"
)

func sharedItem(mediaID uint64, title, mediaType string, ra, rb *float64, at time.Time) db.SharedItem {
	return db.SharedItem{MediaID: mediaID, Title: title, MediaType: mediaType, RatingA: ra, RatingB: rb, InteractedAt: at}
}

func TestIcebreakerNamesHighestRatedItem(t *testing.T) {
	now := time.Now().UTC()
	shared := []db.SharedItem{
		sharedItem(1, "MovieX", "movie", rating(5), rating(5), now),
		sharedItem(2, "MovieY", "movie", rating(2), rating(3), now),
	}

	got, ok := Icebreaker(shared, true)
	require.True(t, ok)
	assert.Contains(t, got, "MovieX")
	assert.NotContains(t, got, "MovieY")

	// deterministic across invocations
	again, _ := Icebreaker(shared, true)
	assert.Equal(t, got, again)
}

func TestIcebreakerTieBreaksByRecency(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	shared := []db.SharedItem{
		sharedItem(1, "TrackOld", "track", rating(4), rating(4), older),
		sharedItem(2, "TrackNew", "track", rating(4), rating(4), newer),
	}

	got, ok := Icebreaker(shared, false)
	require.True(t, ok)
	assert.Contains(t, got, "TrackNew")
}

func TestIcebreakerMentionsMediaKind(t *testing.T) {
	now := time.Now().UTC()
	for _, mediaType := range []string{"movie", "track", "album", "artist"} {
		got, ok := Icebreaker([]db.SharedItem{
			sharedItem(1, "Something", mediaType, nil, nil, now),
		}, false)
		require.True(t, ok)
		assert.True(t, strings.Contains(got, mediaType) || strings.Contains(got, "Something"),
			"prompt for %s should reference title or kind: %s", mediaType, got)
	}
}

func TestIcebreakerVibeFallback(t *testing.T) {
	got, ok := Icebreaker(nil, true)
	require.True(t, ok)
	assert.Contains(t, got, "vibes")
}

func TestIcebreakerNoSignal(t *testing.T) {
	_, ok := Icebreaker(nil, false)
	assert.False(t, ok)
}
