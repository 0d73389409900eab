package sqlstore

import (
	"context"
	"fmt"

	"github.com/vehicle-market-api/internal/domain"
	"gorm.io/gorm"
)

// Column names used in partial update maps.
const (
	ColumnName         = "name"
	ColumnPhotoURL     = "photo_url"
	ColumnFirebaseUID  = "firebase_uid"
	ColumnPasswordHash = "password_hash"
)

// UserRepo provides typed operations on the users table.
type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error, "user")
}

func (r *UserRepo) Get(ctx context.Context, userID uint) (*domain.User, error) {
	return r.first(ctx, "user_id = ?", userID)
}

// GetByEmail expects an already normalized (lowercased) email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetBySubject looks an account up by its identity-provider subject.
func (r *UserRepo) GetBySubject(ctx context.Context, subject string) (*domain.User, error) {
	return r.first(ctx, "firebase_uid = ?", subject)
}

// Update applies a partial update. Keys are column names.
func (r *UserRepo) Update(ctx context.Context, userID uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update")
	}
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("user_id = ?", userID).Updates(updates)
	if res.Error != nil {
		return translate(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, userID uint, hash string) error {
	return r.Update(ctx, userID, map[string]interface{}{ColumnPasswordHash: hash})
}

// Authors returns the public profile of each listed user, keyed by id.
func (r *UserRepo) Authors(ctx context.Context, userIDs []uint) (map[uint]domain.OpinionAuthor, error) {
	out := make(map[uint]domain.OpinionAuthor, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var users []domain.User
	if err := r.db.WithContext(ctx).
		Select("user_id", "name", "photo_url").
		Where("user_id IN ?", userIDs).
		Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.UserID] = domain.OpinionAuthor{UserID: u.UserID, Name: u.Name, PhotoURL: u.PhotoURL}
	}
	return out, nil
}

func (r *UserRepo) first(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}
