package db

import (
	"fmt"
	"log"
	"math"
	"math/rand"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seedRand keeps the demo dataset reproducible across runs.
const seedRand = 42

// SeedTestData resets the database and populates it with demo users, a
// small media catalog, interactions and taste vectors.
//
// Behavior:
//  1. Clears all tables.
//  2. Creates 12 users with hashed passwords; the first 8 get taste
//     vectors (quiz completed), the rest stay vector-less.
//  3. Gives every user a handful of qualifying interactions with ratings,
//     skewed so neighboring user ids share taste.
func SeedTestData(db *gorm.DB, vectorDim int) error {
	r := rand.New(rand.NewSource(seedRand))

	for _, table := range []string{"messages", "matches", "interactions", "media_items", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	// --- Users ---
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	for i := 1; i <= 12; i++ {
		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			DisplayName:  fmt.Sprintf("Demo User %d", i),
		}
		if i <= 8 {
			user.TasteVector = demoVector(r, vectorDim, i)
			user.QuizDone = true
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 12 users.")

	// --- Media catalog ---
	catalog := []MediaItem{
		{ExternalID: "tmdb:27205", MediaType: MediaMovie, Title: "Inception"},
		{ExternalID: "tmdb:157336", MediaType: MediaMovie, Title: "Interstellar"},
		{ExternalID: "tmdb:496243", MediaType: MediaMovie, Title: "Parasite"},
		{ExternalID: "tmdb:680", MediaType: MediaMovie, Title: "Pulp Fiction"},
		{ExternalID: "tmdb:129", MediaType: MediaMovie, Title: "Spirited Away"},
		{ExternalID: "tmdb:438631", MediaType: MediaMovie, Title: "Dune"},
		{ExternalID: "spotify:4LH4d3cOWNNsVw41Gqt2kv", MediaType: MediaAlbum, Title: "The Dark Side of the Moon"},
		{ExternalID: "spotify:2fenSS68JI1h4Fo296JfGr", MediaType: MediaAlbum, Title: "Discovery"},
		{ExternalID: "spotify:0ETFjACtuP2ADo6LFhL6HN", MediaType: MediaAlbum, Title: "Abbey Road"},
		{ExternalID: "spotify:4tZwfgrHOc3mvqYlEYSvVi", MediaType: MediaTrack, Title: "Daydreaming"},
		{ExternalID: "spotify:3AJwUDP919kvQ9QcozQPxg", MediaType: MediaTrack, Title: "Yellow"},
		{ExternalID: "spotify:06HL4z0CvFAxyc27GXpf02", MediaType: MediaArtist, Title: "Taylor Swift"},
		{ExternalID: "spotify:4Z8W4fKeB5YxbusRsdQVPb", MediaType: MediaArtist, Title: "Radiohead"},
		{ExternalID: "spotify:3WrFJ7ztbogyGnTHbHJFl2", MediaType: MediaArtist, Title: "The Beatles"},
	}
	for i := range catalog {
		if err := db.Create(&catalog[i]).Error; err != nil {
			return fmt.Errorf("failed to seed media: %w", err)
		}
	}
	log.Printf("Seeded %d media items.", len(catalog))

	// --- Interactions ---
	kinds := []string{KindTop4, KindFavorite, KindAnthem, KindLogged}
	var users []User
	if err := db.Order("id ASC").Find(&users).Error; err != nil {
		return err
	}
	for idx, user := range users {
		// neighbors start from overlapping catalog offsets
		for j := 0; j < 6; j++ {
			media := catalog[(idx/2+j*2)%len(catalog)]
			kind := kinds[j%len(kinds)]

			interaction := Interaction{
				UserID:  user.ID,
				MediaID: media.ID,
				Kind:    kind,
			}
			if r.Intn(100) < 75 {
				rating := 0.5 + 0.5*float64(r.Intn(10))
				interaction.Rating = &rating
			}
			err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "media_id"}, {Name: "kind"}},
				DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "updated_at"}),
			}).Create(&interaction).Error
			if err != nil {
				return fmt.Errorf("failed to seed interaction: %w", err)
			}
		}
	}
	log.Println("Seeded interactions.")

	return nil
}

// demoVector builds a unit vector leaning toward one of four taste
// clusters so similar user ids rank near each other.
func demoVector(r *rand.Rand, dim, userIdx int) []float32 {
	v := make([]float32, dim)
	cluster := userIdx % 4
	var mag float64
	for i := range v {
		base := 0.05 * r.NormFloat64()
		if i%4 == cluster {
			base += 1
		}
		v[i] = float32(base)
		mag += base * base
	}
	norm := float32(math.Sqrt(mag))
	for i := range v {
		v[i] /= norm
	}
	return v
}
