package repositories

import (
	"context"
	"errors"

	"github.com/astralpath/interstellar/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateUser covers both username and email collisions. The
	// caller deliberately gets no field attribution.
	ErrDuplicateUser = errors.New("username or email already exists")
	ErrUserNotFound  = errors.New("user not found")
)

// UserRepository persists user records in the users table.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user. Uniqueness of username and email is enforced by
// the database constraints, not a read-then-write check, so two concurrent
// signups for the same name resolve to exactly one winner.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateUser
	}
	return err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfilePic records the public path of the user's profile picture.
func (r *UserRepository) UpdateProfilePic(ctx context.Context, userID uuid.UUID, path string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("profile_pic", path)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
