package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"refhub_backend/internal/models"
)

var ErrReferralNotFound = errors.New("referral not found")

// ReferralFilter narrows referral searches. Zero values mean no constraint.
type ReferralFilter struct {
	Company  string
	Location string
	Skill    string
	Search   string
	Limit    int
	Offset   int
}

type ReferralRepository interface {
	Create(ctx context.Context, referral *models.Referral) error
	GetByID(ctx context.Context, id string) (*models.Referral, error)
	Update(ctx context.Context, referral *models.Referral) error
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context, filter ReferralFilter) ([]models.Referral, int64, error)
	ListByReferrer(ctx context.Context, referrerID string, limit, offset int) ([]models.Referral, int64, error)

	// MarkExpired persists the derived expired status. Guarded so only active
	// rows change; concurrent reads marking the same referral stay safe.
	MarkExpired(ctx context.Context, id string) error

	// ExpireDue sweeps all active referrals past their deadline. Used by the
	// background worker; reads do not depend on it.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)

	IncrementViews(ctx context.Context, id string) error
	IncrementApplicationCount(ctx context.Context, id string) error
	DecrementApplicationCount(ctx context.Context, id string) error
}

type referralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) Create(ctx context.Context, referral *models.Referral) error {
	return r.db.WithContext(ctx).Create(referral).Error
}

func (r *referralRepository) GetByID(ctx context.Context, id string) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.WithContext(ctx).Preload("Referrer").First(&referral, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReferralNotFound
	}
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

func (r *referralRepository) Update(ctx context.Context, referral *models.Referral) error {
	return r.db.WithContext(ctx).Save(referral).Error
}

func (r *referralRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Referral{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReferralNotFound
	}
	return nil
}

func (r *referralRepository) ListActive(ctx context.Context, filter ReferralFilter) ([]models.Referral, int64, error) {
	var referrals []models.Referral
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("status = ?", models.ReferralActive)

	if filter.Company != "" {
		query = query.Where("company ILIKE ?", "%"+filter.Company+"%")
	}
	if filter.Location != "" {
		query = query.Where("location ILIKE ?", "%"+filter.Location+"%")
	}
	if filter.Skill != "" {
		query = query.Where("skills::text ILIKE ?", "%"+filter.Skill+"%")
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&referrals).Error
	if err != nil {
		return nil, 0, err
	}

	return referrals, total, nil
}

func (r *referralRepository) ListByReferrer(ctx context.Context, referrerID string, limit, offset int) ([]models.Referral, int64, error) {
	var referrals []models.Referral
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("referrer_id = ?", referrerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&referrals).Error
	if err != nil {
		return nil, 0, err
	}

	return referrals, total, nil
}

func (r *referralRepository) MarkExpired(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ? AND status = ?", id, models.ReferralActive).
		Update("status", models.ReferralExpired).Error
}

func (r *referralRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("status = ? AND deadline IS NOT NULL AND deadline < ?", models.ReferralActive, now).
		Update("status", models.ReferralExpired)
	return res.RowsAffected, res.Error
}

func (r *referralRepository) IncrementViews(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ?", id).
		Update("views", gorm.Expr("views + 1")).Error
}

func (r *referralRepository) IncrementApplicationCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ?", id).
		Update("application_count", gorm.Expr("application_count + 1")).Error
}

func (r *referralRepository) DecrementApplicationCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ? AND application_count > 0", id).
		Update("application_count", gorm.Expr("application_count - 1")).Error
}
