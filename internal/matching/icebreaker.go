package matching

import (
	"fmt"

	"github.com/culturematch/backend/internal/db"
)

// genericIcebreaker is used when a pair shares no items but both completed
// the taste quiz.
const genericIcebreaker = "You two have similar cultural vibes! Start by sharing your current favorite song or movie."

// Icebreaker derives a conversation starter from a shared-items snapshot.
// Deterministic: the same snapshot always yields the same prompt.
//
// Selection: the shared item with the highest combined rating wins,
// tie-broken by the most recent interaction, then by media id. With an
// empty snapshot a generic vibe prompt is emitted when both users have
// taste vectors; otherwise there is no icebreaker and ok is false.
func Icebreaker(shared []db.SharedItem, bothHaveVectors bool) (string, bool) {
	if len(shared) == 0 {
		if bothHaveVectors {
			return genericIcebreaker, true
		}
		return "", false
	}

	best := shared[0]
	for _, it := range shared[1:] {
		switch {
		case combinedRating(it) > combinedRating(best):
			best = it
		case combinedRating(it) == combinedRating(best) && it.InteractedAt.After(best.InteractedAt):
			best = it
		case combinedRating(it) == combinedRating(best) && it.InteractedAt.Equal(best.InteractedAt) && it.MediaID < best.MediaID:
			best = it
		}
	}

	return prompt(best), true
}

func combinedRating(it db.SharedItem) float64 {
	var sum float64
	if it.RatingA != nil {
		sum += *it.RatingA
	}
	if it.RatingB != nil {
		sum += *it.RatingB
	}
	return sum
}

func prompt(it db.SharedItem) string {
	if it.RatingA != nil && it.RatingB != nil && *it.RatingA >= 4 && *it.RatingB >= 4 {
		return fmt.Sprintf("You both rated the %s '%s' highly! What made it special for you?", it.MediaType, it.Title)
	}

	switch it.MediaType {
	case db.MediaMovie:
		return fmt.Sprintf("You both have the movie '%s' in your library. What scene lives rent-free in your head?", it.Title)
	case db.MediaTrack, db.MediaAlbum:
		return fmt.Sprintf("You both have the %s '%s' in your library. What's your go-to listening moment for it?", it.MediaType, it.Title)
	case db.MediaArtist:
		return fmt.Sprintf("You both have the artist '%s' in your library. Which of their eras wins?", it.Title)
	default:
		return fmt.Sprintf("You both have the %s '%s' in your library. Great taste recognizes great taste!", it.MediaType, it.Title)
	}
}
