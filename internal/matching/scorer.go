// Package matching holds the pure compatibility-scoring and icebreaker
// logic. Everything here is deterministic and side-effect free; persistence
// and candidate retrieval live in the service and repository layers.
package matching

import (
	"math"
	"sort"
	"time"

	"github.com/culturematch/backend/internal/db"
	"github.com/culturematch/backend/internal/vecindex"
)

// Scoring weights: directly observed shared taste is weighted above fuzzy
// vector similarity. Overlap caps at 60 of 100 points, vector similarity
// at 40. Pairs without vectors cannot exceed 60.
const (
	overlapWeight   = 60.0
	embeddingWeight = 40.0

	// ratingSpan is the widest possible rating delta (5.0 - 0.5).
	ratingSpan = 4.5

	// unratedContribution is the fixed closeness assumed for a shared item
	// where either side has no rating.
	unratedContribution = 0.5
)

// RatedItem is one user's qualifying interaction with a media item.
type RatedItem struct {
	MediaID      uint64
	Title        string
	MediaType    string
	Rating       *float64
	InteractedAt int64 // unix millis of the interaction
}

// Result is a computed compatibility score plus the shared-items snapshot
// it was derived from.
type Result struct {
	Score       float64
	SharedItems []db.SharedItem
}

// Score combines interaction overlap and vector similarity into a single
// [0,100] score. Symmetric: Score(a, b) == Score(b, a) up to the A/B
// labeling of the snapshot ratings.
//
// vecA/vecB may be nil; the embedding component is then 0 and the overlap
// component is not renormalized.
func Score(itemsA, itemsB []RatedItem, vecA, vecB []float32) Result {
	shared, unionSize := intersect(itemsA, itemsB)

	var overlap float64
	if len(shared) > 0 {
		var sum float64
		for _, s := range shared {
			sum += contribution(s.RatingA, s.RatingB)
		}
		avg := sum / float64(len(shared))
		overlap = avg * (float64(len(shared)) / float64(unionSize)) * overlapWeight
		overlap = clamp(overlap, 0, overlapWeight)
	}

	var embedding float64
	if len(vecA) > 0 && len(vecB) > 0 {
		cos := clamp(vecindex.Cosine(vecA, vecB), -1, 1)
		embedding = (cos + 1) / 2 * embeddingWeight
	}

	return Result{
		Score:       clamp(round2(overlap+embedding), 0, 100),
		SharedItems: shared,
	}
}

// Label maps a score onto the user-facing compatibility band.
func Label(score float64) string {
	switch {
	case score >= 75:
		return "high compatibility"
	case score >= 50:
		return "medium compatibility"
	default:
		return "low compatibility"
	}
}

// contribution is the per-item closeness: rating agreement when both sides
// rated, otherwise the fixed baseline.
func contribution(ra, rb *float64) float64 {
	if ra == nil || rb == nil {
		return unratedContribution
	}
	return 1 - math.Abs(*ra-*rb)/ratingSpan
}

// intersect returns the shared-items snapshot (ordered by media id) and the
// size of the union of both users' qualifying items.
func intersect(itemsA, itemsB []RatedItem) ([]db.SharedItem, int) {
	byMediaA := make(map[uint64]RatedItem, len(itemsA))
	for _, it := range itemsA {
		byMediaA[it.MediaID] = it
	}

	union := make(map[uint64]struct{}, len(itemsA)+len(itemsB))
	for _, it := range itemsA {
		union[it.MediaID] = struct{}{}
	}

	var shared []db.SharedItem
	for _, itB := range itemsB {
		union[itB.MediaID] = struct{}{}
		itA, ok := byMediaA[itB.MediaID]
		if !ok {
			continue
		}
		latest := itA.InteractedAt
		if itB.InteractedAt > latest {
			latest = itB.InteractedAt
		}
		shared = append(shared, db.SharedItem{
			MediaID:      itA.MediaID,
			Title:        itA.Title,
			MediaType:    itA.MediaType,
			RatingA:      itA.Rating,
			RatingB:      itB.Rating,
			InteractedAt: unixMilli(latest),
		})
	}

	sort.Slice(shared, func(i, j int) bool { return shared[i].MediaID < shared[j].MediaID })
	return shared, len(union)
}

func unixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
