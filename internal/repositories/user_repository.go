package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"refhub_backend/internal/algorithms"
	"refhub_backend/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, role models.UserRole, limit, offset int) ([]models.User, int64, error)
	SetSuspended(ctx context.Context, id string, suspended bool) error

	// ConsumeWeeklyApplication atomically takes one application slot for the
	// week containing now. It resets a stale counter first, then increments
	// under the limit guard. Returns false when the limit is already used up.
	ConsumeWeeklyApplication(ctx context.Context, userID string, now time.Time, limit int) (bool, error)

	// ReleaseWeeklyApplication undoes one consumed slot in the current week.
	// Used as compensation when application creation fails after the slot was
	// taken.
	ReleaseWeeklyApplication(ctx context.Context, userID string, now time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) List(ctx context.Context, role models.UserRole, limit, offset int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) SetSuspended(ctx context.Context, id string, suspended bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("is_suspended", suspended)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) ConsumeWeeklyApplication(ctx context.Context, userID string, now time.Time, limit int) (bool, error) {
	weekStart := algorithms.WeekStart(now)

	// Stale or missing anchor: reset the counter to 1 for this week.
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND (week_start IS NULL OR week_start <> ?)", userID, weekStart).
		Updates(map[string]interface{}{
			"weekly_application_count": 1,
			"week_start":               weekStart,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// Same week: increment only while below the limit.
	res = r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND week_start = ? AND weekly_application_count < ?", userID, weekStart, limit).
		Update("weekly_application_count", gorm.Expr("weekly_application_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

func (r *userRepository) ReleaseWeeklyApplication(ctx context.Context, userID string, now time.Time) error {
	weekStart := algorithms.WeekStart(now)

	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND week_start = ? AND weekly_application_count > 0", userID, weekStart).
		Update("weekly_application_count", gorm.Expr("weekly_application_count - 1")).Error
}
