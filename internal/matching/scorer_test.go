package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rating(v float64) *float64 { return &v }

func item(mediaID uint64, title, mediaType string, r *float64, at int64) RatedItem {
	return RatedItem{MediaID: mediaID, Title: title, MediaType: mediaType, Rating: r, InteractedAt: at}
}

// Scenario: A's top4 = {Movie1:4, Movie2:3}, B's top4 = {Movie1:4.5, Movie3:2},
// neither has a taste vector. One shared item out of a union of three, rating
// contribution 1 - 0.5/4.5, no embedding component.
func TestScoreOverlapOnlyScenario(t *testing.T) {
	a := []RatedItem{
		item(1, "Movie1", "movie", rating(4), 100),
		item(2, "Movie2", "movie", rating(3), 100),
	}
	b := []RatedItem{
		item(1, "Movie1", "movie", rating(4.5), 200),
		item(3, "Movie3", "movie", rating(2), 200),
	}

	res := Score(a, b, nil, nil)

	require.Len(t, res.SharedItems, 1)
	assert.Equal(t, uint64(1), res.SharedItems[0].MediaID)
	assert.Equal(t, 4.0, *res.SharedItems[0].RatingA)
	assert.Equal(t, 4.5, *res.SharedItems[0].RatingB)
	assert.InDelta(t, 17.78, res.Score, 0.01)
	assert.Equal(t, "low compatibility", Label(res.Score))
}

func TestScoreSymmetry(t *testing.T) {
	a := []RatedItem{
		item(1, "Movie1", "movie", rating(4), 10),
		item(2, "Track2", "track", nil, 20),
	}
	b := []RatedItem{
		item(1, "Movie1", "movie", rating(2.5), 30),
		item(3, "Artist3", "artist", rating(5), 40),
	}
	vecA := []float32{0.3, 0.8, -0.1}
	vecB := []float32{0.2, 0.9, 0.05}

	ab := Score(a, b, vecA, vecB)
	ba := Score(b, a, vecB, vecA)

	assert.Equal(t, ab.Score, ba.Score)
	require.Len(t, ba.SharedItems, len(ab.SharedItems))
	// snapshot ratings swap sides with the arguments
	assert.Equal(t, *ab.SharedItems[0].RatingA, *ba.SharedItems[0].RatingB)
}

func TestScoreEmptyInputs(t *testing.T) {
	res := Score(nil, nil, nil, nil)
	assert.Equal(t, 0.0, res.Score)
	assert.Empty(t, res.SharedItems)
}

func TestScoreVectorOnly(t *testing.T) {
	vec := []float32{0.5, 0.5, 0.5}

	// identical vectors, no shared items: full embedding component
	res := Score(nil, nil, vec, vec)
	assert.Equal(t, 40.0, res.Score)
	assert.Empty(t, res.SharedItems)

	// opposed vectors bottom out at 0
	opp := []float32{-0.5, -0.5, -0.5}
	res = Score(nil, nil, vec, opp)
	assert.Equal(t, 0.0, res.Score)
}

func TestScoreMissingVectorCapsAtOverlapWeight(t *testing.T) {
	// perfect agreement on every item, but only one side has a vector:
	// the score cannot exceed 60 and is not renormalized.
	a := []RatedItem{item(1, "Movie1", "movie", rating(5), 10)}
	b := []RatedItem{item(1, "Movie1", "movie", rating(5), 20)}

	res := Score(a, b, []float32{1, 0}, nil)
	assert.Equal(t, 60.0, res.Score)
}

func TestScoreUnratedBaseline(t *testing.T) {
	// single shared unrated item, union of one: 0.5 * 1 * 60 = 30
	a := []RatedItem{item(1, "Track1", "track", nil, 10)}
	b := []RatedItem{item(1, "Track1", "track", nil, 20)}

	res := Score(a, b, nil, nil)
	assert.Equal(t, 30.0, res.Score)
}

func TestScoreWithinRange(t *testing.T) {
	cases := [][2][]RatedItem{
		{nil, nil},
		{{item(1, "M", "movie", rating(0.5), 1)}, {item(1, "M", "movie", rating(5), 2)}},
		{{item(1, "M", "movie", rating(5), 1)}, {item(1, "M", "movie", rating(5), 2)}},
	}
	vecs := [][2][]float32{
		{nil, nil},
		{{1, 0}, {1, 0}},
		{{1, 0}, {-1, 0}},
	}
	for _, c := range cases {
		for _, v := range vecs {
			res := Score(c[0], c[1], v[0], v[1])
			assert.GreaterOrEqual(t, res.Score, 0.0)
			assert.LessOrEqual(t, res.Score, 100.0)
		}
	}
}

func TestLabelBands(t *testing.T) {
	assert.Equal(t, "low compatibility", Label(0))
	assert.Equal(t, "low compatibility", Label(49.99))
	assert.Equal(t, "medium compatibility", Label(50))
	assert.Equal(t, "medium compatibility", Label(74.99))
	assert.Equal(t, "high compatibility", Label(75))
	assert.Equal(t, "high compatibility", Label(100))
}
