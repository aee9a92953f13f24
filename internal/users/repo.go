package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/db/models"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
)

// Repository reads and writes the users table. Not-found lookups surface
// gorm.ErrRecordNotFound for the services to translate.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) users(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.User{})
}

func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) first(ctx context.Context, cond string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByUsernameOrEmail reports whether either identifier is already taken.
func (r *Repository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := r.users(ctx).Where("username = ? OR email = ?", username, email).Limit(1).Count(&n).Error
	return n > 0, err
}

// UpdatePasswordHash is used when a login upgrades a legacy hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.users(ctx).Where("id = ?", id).Update("password_hash", hash).Error
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.users(ctx).Count(&n).Error
	return n, err
}

// CountCreatedBetween counts accounts registered in [from, to).
func (r *Repository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.users(ctx).Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).Count(&n).Error
	return n, err
}

// AdminEmails lists admin addresses, oldest account first. Reports go to
// all of them.
func (r *Repository) AdminEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.users(ctx).Where("role = ?", enums.UserRoleAdmin).Order("created_at ASC").Pluck("email", &emails).Error
	return emails, err
}
