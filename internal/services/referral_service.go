package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"refhub_backend/internal/logger"
	"refhub_backend/internal/models"
	"refhub_backend/internal/repositories"
	"refhub_backend/internal/services/dto"
	"refhub_backend/pkg/apperrors"
)

type ReferralService struct {
	referralRepo repositories.ReferralRepository
	userRepo     repositories.UserRepository
}

func NewReferralService(
	referralRepo repositories.ReferralRepository,
	userRepo repositories.UserRepository,
) *ReferralService {
	return &ReferralService{
		referralRepo: referralRepo,
		userRepo:     userRepo,
	}
}

// Create makes a draft referral. It goes live via Publish.
func (s *ReferralService) Create(ctx context.Context, referrerID string, req *dto.CreateReferralRequest) (*models.Referral, error) {
	if req.Deadline != nil && req.Deadline.Before(time.Now()) {
		return nil, apperrors.ErrInvalidOperation("referral", "Deadline must be in the future")
	}

	skills, err := json.Marshal(req.Skills)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	referral := &models.Referral{
		ReferrerID:  referrerID,
		Title:       req.Title,
		Company:     req.Company,
		Description: req.Description,
		Location:    req.Location,
		JobURL:      req.JobURL,
		Skills:      datatypes.JSON(skills),
		Status:      models.ReferralDraft,
		Deadline:    req.Deadline,
	}

	if err := s.referralRepo.Create(ctx, referral); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "referral created", "referral_id", referral.ID, "referrer_id", referrerID)

	return referral, nil
}

// Get resolves lazy expiry: a stale active row past its deadline is returned
// as expired and the stored status is repaired in the background.
func (s *ReferralService) Get(ctx context.Context, id string) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrReferralNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.resolveExpiry(referral)

	go func() {
		if err := s.referralRepo.IncrementViews(context.Background(), id); err != nil {
			logger.WithError(err).Warn("failed to increment referral views", "referral_id", id)
		}
	}()

	return referral, nil
}

func (s *ReferralService) Update(ctx context.Context, id, referrerID string, req *dto.UpdateReferralRequest) (*models.Referral, error) {
	referral, err := s.getOwned(ctx, id, referrerID)
	if err != nil {
		return nil, err
	}

	if referral.Status == models.ReferralClosed || referral.EffectiveStatus(time.Now()) == models.ReferralExpired {
		return nil, apperrors.ErrInvalidStatus("referral", "Closed or expired referrals cannot be edited")
	}

	if req.Title != "" {
		referral.Title = req.Title
	}
	if req.Description != "" {
		referral.Description = req.Description
	}
	if req.Location != "" {
		referral.Location = req.Location
	}
	if req.JobURL != "" {
		referral.JobURL = req.JobURL
	}
	if req.Skills != nil {
		skills, err := json.Marshal(req.Skills)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		referral.Skills = datatypes.JSON(skills)
	}
	if req.Deadline != nil {
		if req.Deadline.Before(time.Now()) {
			return nil, apperrors.ErrInvalidOperation("referral", "Deadline must be in the future")
		}
		referral.Deadline = req.Deadline
	}

	if err := s.referralRepo.Update(ctx, referral); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return referral, nil
}

// Publish moves a draft referral to active.
func (s *ReferralService) Publish(ctx context.Context, id, referrerID string) (*models.Referral, error) {
	return s.transition(ctx, id, referrerID, models.ReferralActive)
}

// Close stops an active referral from taking new applications.
func (s *ReferralService) Close(ctx context.Context, id, referrerID string) (*models.Referral, error) {
	return s.transition(ctx, id, referrerID, models.ReferralClosed)
}

func (s *ReferralService) transition(ctx context.Context, id, referrerID string, target models.ReferralStatus) (*models.Referral, error) {
	referral, err := s.getOwned(ctx, id, referrerID)
	if err != nil {
		return nil, err
	}

	current := referral.EffectiveStatus(time.Now())
	if !current.CanTransition(target) {
		return nil, apperrors.ErrInvalidStatus("referral",
			"Cannot move referral from "+string(current)+" to "+string(target))
	}

	referral.Status = target
	if err := s.referralRepo.Update(ctx, referral); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return referral, nil
}

func (s *ReferralService) Delete(ctx context.Context, id, referrerID string) error {
	referral, err := s.getOwned(ctx, id, referrerID)
	if err != nil {
		return err
	}

	if referral.Status != models.ReferralDraft {
		return apperrors.ErrInvalidStatus("referral", "Only draft referrals can be deleted")
	}

	if err := s.referralRepo.Delete(ctx, id); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// List returns active referrals. Rows whose deadline has lapsed since the
// last sweep are filtered out here and repaired in the background.
func (s *ReferralService) List(ctx context.Context, filter repositories.ReferralFilter) ([]models.Referral, int64, error) {
	referrals, total, err := s.referralRepo.ListActive(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}

	now := time.Now()
	live := referrals[:0]
	for i := range referrals {
		if referrals[i].IsExpired(now) {
			s.repairExpired(referrals[i].ID)
			total--
			continue
		}
		live = append(live, referrals[i])
	}

	return live, total, nil
}

func (s *ReferralService) ListByReferrer(ctx context.Context, referrerID string, limit, offset int) ([]models.Referral, int64, error) {
	referrals, total, err := s.referralRepo.ListByReferrer(ctx, referrerID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}

	now := time.Now()
	for i := range referrals {
		if referrals[i].IsExpired(now) {
			referrals[i].Status = models.ReferralExpired
			s.repairExpired(referrals[i].ID)
		}
	}

	return referrals, total, nil
}

func (s *ReferralService) getOwned(ctx context.Context, id, referrerID string) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrReferralNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if referral.ReferrerID != referrerID {
		return nil, apperrors.ErrInsufficientPermissions
	}

	return referral, nil
}

func (s *ReferralService) resolveExpiry(referral *models.Referral) {
	if referral.IsExpired(time.Now()) {
		referral.Status = models.ReferralExpired
		s.repairExpired(referral.ID)
	}
}

func (s *ReferralService) repairExpired(id string) {
	go func() {
		if err := s.referralRepo.MarkExpired(context.Background(), id); err != nil {
			logger.WithError(err).Warn("failed to persist referral expiry", "referral_id", id)
		}
	}()
}
