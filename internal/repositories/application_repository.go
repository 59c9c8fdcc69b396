package repositories

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"refhub_backend/internal/models"
)

var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("application already exists for this referral")
)

type ApplicationRepository interface {
	Create(ctx context.Context, application *models.Application) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	ListByReferral(ctx context.Context, referralID string, limit, offset int) ([]models.Application, int64, error)
	ListByJobSeeker(ctx context.Context, jobSeekerID string, limit, offset int) ([]models.Application, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error
	UpdateCommunicationHistory(ctx context.Context, id string, history datatypes.JSON) error
	Exists(ctx context.Context, referralID, jobSeekerID string) (bool, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, application *models.Application) error {
	err := r.db.WithContext(ctx).Create(application).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateApplication
	}
	return err
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	var application models.Application
	err := r.db.WithContext(ctx).
		Preload("Referral").
		Preload("JobSeeker").
		First(&application, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *applicationRepository) ListByReferral(ctx context.Context, referralID string, limit, offset int) ([]models.Application, int64, error) {
	var applications []models.Application
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("referral_id = ?", referralID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("JobSeeker").
		Order("match_score DESC, created_at ASC").
		Limit(limit).Offset(offset).
		Find(&applications).Error
	if err != nil {
		return nil, 0, err
	}

	return applications, total, nil
}

func (r *applicationRepository) ListByJobSeeker(ctx context.Context, jobSeekerID string, limit, offset int) ([]models.Application, int64, error) {
	var applications []models.Application
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("job_seeker_id = ?", jobSeekerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Referral").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&applications).Error
	if err != nil {
		return nil, 0, err
	}

	return applications, total, nil
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (r *applicationRepository) UpdateCommunicationHistory(ctx context.Context, id string, history datatypes.JSON) error {
	res := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ?", id).
		Update("communication_history", history)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (r *applicationRepository) Exists(ctx context.Context, referralID, jobSeekerID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("referral_id = ? AND job_seeker_id = ?", referralID, jobSeekerID).
		Count(&count).Error
	return count > 0, err
}
