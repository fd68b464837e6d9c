package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/culturematch/backend/internal/db"
	svcErr "github.com/culturematch/backend/internal/errors"
)

// UserRepository provides data access methods for users and their taste
// vectors. It is the EmbeddingProvider contract of the matching engine:
// vectors are opaque fixed-length slices produced elsewhere.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Get fetches a user by id.
func (r *UserRepository) Get(ctx context.Context, userID uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// TasteVector returns the user's taste vector, or nil when the taste quiz
// has not been completed.
func (r *UserRepository) TasteVector(ctx context.Context, userID uint64) ([]float32, error) {
	user, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.TasteVector) == 0 {
		return nil, nil
	}
	return user.TasteVector, nil
}

// SetTasteVector stores a new taste vector and marks the quiz complete.
func (r *UserRepository) SetTasteVector(ctx context.Context, userID uint64, vector []float32) error {
	user, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	user.TasteVector = vector
	user.QuizDone = true
	return r.db.WithContext(ctx).Save(user).Error
}

// AllWithVectors lists every user that has a taste vector, used to build
// the in-process vector index at boot.
func (r *UserRepository) AllWithVectors(ctx context.Context) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("quiz_done = ?", true).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if len(u.TasteVector) > 0 {
			out = append(out, u)
		}
	}
	return out, nil
}
