package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.conn(ctx).Create(u).Error, "user")
}

func (r *GormRepo) SaveUser(ctx context.Context, u *models.User) error {
	return translate(r.conn(ctx).Save(u).Error, "user")
}

func (r *GormRepo) UserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.conn(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *GormRepo) UserByName(ctx context.Context, userName string) (*models.User, error) {
	var u models.User
	if err := r.conn(ctx).Where("user_name = ?", userName).First(&u).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *GormRepo) UsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.conn(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	res := r.conn(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("user")
	}
	return nil
}

// SetRefreshToken overwrites the stored refresh token state. Nil values clear it.
func (r *GormRepo) SetRefreshToken(ctx context.Context, userID string, hash *string, expiresAt *time.Time) error {
	res := r.conn(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"refresh_token_hash":       hash,
		"refresh_token_expires_at": expiresAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("user")
	}
	return nil
}

// RotateRefreshToken replaces the stored hash only while it still equals oldHash,
// so at most one of several concurrent rotations of the same token succeeds.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, userID, oldHash, newHash string, expiresAt time.Time) (bool, error) {
	res := r.conn(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token_hash = ?", userID, oldHash).
		Updates(map[string]any{
			"refresh_token_hash":       newHash,
			"refresh_token_expires_at": expiresAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
