package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"refhub_backend/internal/algorithms"
	"refhub_backend/internal/models"
	"refhub_backend/internal/repositories"
	"refhub_backend/internal/services/dto"
	"refhub_backend/pkg/apperrors"
)

type UserService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.Skills != nil {
		raw, err := json.Marshal(req.Skills)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		user.Skills = datatypes.JSON(raw)
	}
	if req.ResumeURL != "" {
		user.ResumeURL = req.ResumeURL
	}
	if req.Experience != nil {
		user.Experience = *req.Experience
	}
	if req.Company != "" {
		user.Company = req.Company
	}
	if req.Position != "" {
		user.Position = req.Position
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return user, nil
}

// GetQuotaStatus reports the weekly allowance. A stale counter from a past
// week reads as zero used; subscribers are unlimited.
func (s *UserService) GetQuotaStatus(ctx context.Context, userID string) (*dto.QuotaStatus, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	now := time.Now()
	status := &dto.QuotaStatus{
		Limit:     algorithms.FreeWeeklyApplicationLimit,
		WeekStart: algorithms.WeekStart(now),
	}

	if user.HasActiveSubscription(now) {
		status.Unlimited = true
		status.Remaining = -1
		status.SubscribedTo = user.SubscriptionExpiresAt
		return status, nil
	}

	if algorithms.SameQuotaWeek(user.WeekStart, now) {
		status.Used = user.WeeklyApplicationCount
	}
	status.Remaining = status.Limit - status.Used
	if status.Remaining < 0 {
		status.Remaining = 0
	}

	return status, nil
}

// --- Admin operations ---

func (s *UserService) ListUsers(ctx context.Context, role models.UserRole, limit, offset int) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(ctx, role, limit, offset)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return users, total, nil
}

func (s *UserService) SetSuspended(ctx context.Context, userID string, suspended bool) error {
	err := s.userRepo.SetSuspended(ctx, userID, suspended)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return apperrors.ErrNotFound(err)
	}
	if err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}
