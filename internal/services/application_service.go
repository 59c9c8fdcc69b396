package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"refhub_backend/internal/algorithms"
	"refhub_backend/internal/logger"
	"refhub_backend/internal/models"
	"refhub_backend/internal/repositories"
	"refhub_backend/internal/services/dto"
	"refhub_backend/pkg/apperrors"
)

type ApplicationService struct {
	applicationRepo repositories.ApplicationRepository
	referralRepo    repositories.ReferralRepository
	userRepo        repositories.UserRepository
	notifications   *NotificationService
}

func NewApplicationService(
	applicationRepo repositories.ApplicationRepository,
	referralRepo repositories.ReferralRepository,
	userRepo repositories.UserRepository,
	notifications *NotificationService,
) *ApplicationService {
	return &ApplicationService{
		applicationRepo: applicationRepo,
		referralRepo:    referralRepo,
		userRepo:        userRepo,
		notifications:   notifications,
	}
}

// Apply submits an application. Free-tier seekers consume one weekly quota
// slot atomically before the row is created; if creation then fails the slot
// is released as compensation.
func (s *ApplicationService) Apply(ctx context.Context, jobSeekerID string, req *dto.CreateApplicationRequest) (*models.Application, error) {
	seeker, err := s.userRepo.GetByID(ctx, jobSeekerID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if seeker.IsSuspended {
		return nil, apperrors.ErrUserSuspended
	}

	referral, err := s.referralRepo.GetByID(ctx, req.ReferralID)
	if errors.Is(err, repositories.ErrReferralNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	now := time.Now()
	if referral.ReferrerID == jobSeekerID {
		return nil, apperrors.ErrCannotApplyToOwnReferral
	}
	if referral.IsExpired(now) {
		return nil, apperrors.ErrReferralExpired
	}
	if referral.Status != models.ReferralActive {
		return nil, apperrors.ErrReferralNotActive
	}

	// Cheap duplicate check; the unique index is the real guarantee.
	exists, err := s.applicationRepo.Exists(ctx, req.ReferralID, jobSeekerID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if exists {
		return nil, apperrors.ErrApplicationAlreadyExists
	}

	consumed := false
	if !seeker.HasActiveSubscription(now) {
		ok, err := s.userRepo.ConsumeWeeklyApplication(ctx, jobSeekerID, now, algorithms.FreeWeeklyApplicationLimit)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if !ok {
			return nil, apperrors.ErrApplicationLimitReached(algorithms.FreeWeeklyApplicationLimit)
		}
		consumed = true
	}

	application := &models.Application{
		ReferralID:  req.ReferralID,
		JobSeekerID: jobSeekerID,
		ReferrerID:  referral.ReferrerID,
		Status:      models.ApplicationPending,
		CoverLetter: req.CoverLetter,
		ResumeURL:   req.ResumeURL,
		MatchScore:  algorithms.MatchScore(decodeSkills(referral.Skills), decodeSkills(seeker.Skills)),
	}

	if err := s.applicationRepo.Create(ctx, application); err != nil {
		if consumed {
			if relErr := s.userRepo.ReleaseWeeklyApplication(ctx, jobSeekerID, now); relErr != nil {
				logger.CtxWithError(ctx, "failed to release quota slot after create failure", relErr,
					"user_id", jobSeekerID)
			}
		}
		if errors.Is(err, repositories.ErrDuplicateApplication) {
			return nil, apperrors.ErrApplicationAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	go func() {
		bg := context.Background()
		if err := s.referralRepo.IncrementApplicationCount(bg, req.ReferralID); err != nil {
			logger.WithError(err).Warn("failed to increment application count", "referral_id", req.ReferralID)
		}
		s.notifications.Notify(bg, referral.ReferrerID, models.NotificationNewApplication,
			"New application received",
			seeker.Name+" applied to your referral for "+referral.Title,
			map[string]string{"referralId": referral.ID, "applicationId": application.ID})
	}()

	logger.CtxInfo(ctx, "application submitted",
		"application_id", application.ID,
		"referral_id", req.ReferralID,
		"match_score", application.MatchScore)

	return application, nil
}

func (s *ApplicationService) Get(ctx context.Context, id, requesterID string) (*models.Application, error) {
	application, err := s.getWithAccess(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	return application, nil
}

// Withdraw is the applicant-only transition. A withdrawn application does not
// refund the quota slot it consumed.
func (s *ApplicationService) Withdraw(ctx context.Context, id, jobSeekerID string) (*models.Application, error) {
	application, err := s.getWithAccess(ctx, id, jobSeekerID)
	if err != nil {
		return nil, err
	}
	if application.JobSeekerID != jobSeekerID {
		return nil, apperrors.ErrInsufficientPermissions
	}

	if !application.Status.CanTransition(models.ApplicationWithdrawn) {
		return nil, apperrors.ErrInvalidStatus("application",
			"Cannot withdraw an application in status "+string(application.Status))
	}

	if err := s.applicationRepo.UpdateStatus(ctx, id, models.ApplicationWithdrawn); err != nil {
		return nil, apperrors.InternalError(err)
	}
	application.Status = models.ApplicationWithdrawn

	go func() {
		if err := s.referralRepo.DecrementApplicationCount(context.Background(), application.ReferralID); err != nil {
			logger.WithError(err).Warn("failed to decrement application count", "referral_id", application.ReferralID)
		}
	}()

	return application, nil
}

// UpdateStatus is the referrer-side review transition.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id, referrerID string, req *dto.UpdateApplicationStatusRequest) (*models.Application, error) {
	application, err := s.getWithAccess(ctx, id, referrerID)
	if err != nil {
		return nil, err
	}
	if application.Referral == nil || application.Referral.ReferrerID != referrerID {
		return nil, apperrors.ErrInsufficientPermissions
	}

	target := models.ApplicationStatus(req.Status)
	if !application.Status.CanReferrerTransition(target) {
		return nil, apperrors.ErrInvalidStatus("application",
			"Cannot move application from "+string(application.Status)+" to "+string(target))
	}

	if err := s.applicationRepo.UpdateStatus(ctx, id, target); err != nil {
		return nil, apperrors.InternalError(err)
	}
	application.Status = target

	go s.notifications.Notify(context.Background(), application.JobSeekerID, models.NotificationApplicationStatus,
		"Application status updated",
		"Your application for "+application.Referral.Title+" is now "+string(target),
		map[string]string{"applicationId": application.ID})

	return application, nil
}

// AddMessage appends to the communication history. Only the applicant and the
// referral owner may write.
func (s *ApplicationService) AddMessage(ctx context.Context, id, senderID string, req *dto.AddMessageRequest) (*models.Application, error) {
	application, err := s.getWithAccess(ctx, id, senderID)
	if err != nil {
		return nil, err
	}

	var history []models.CommunicationEntry
	if len(application.CommunicationHistory) > 0 {
		if err := json.Unmarshal(application.CommunicationHistory, &history); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	history = append(history, models.CommunicationEntry{
		From:    senderID,
		Message: req.Message,
		SentAt:  time.Now().Format(time.RFC3339),
	})

	raw, err := json.Marshal(history)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.applicationRepo.UpdateCommunicationHistory(ctx, id, datatypes.JSON(raw)); err != nil {
		return nil, apperrors.InternalError(err)
	}
	application.CommunicationHistory = datatypes.JSON(raw)

	recipient := application.JobSeekerID
	if senderID == application.JobSeekerID && application.Referral != nil {
		recipient = application.Referral.ReferrerID
	}
	go s.notifications.Notify(context.Background(), recipient, models.NotificationNewMessage,
		"New message",
		"You have a new message on an application",
		map[string]string{"applicationId": application.ID})

	return application, nil
}

func (s *ApplicationService) ListByReferral(ctx context.Context, referralID, referrerID string, limit, offset int) ([]models.Application, int64, error) {
	referral, err := s.referralRepo.GetByID(ctx, referralID)
	if errors.Is(err, repositories.ErrReferralNotFound) {
		return nil, 0, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	if referral.ReferrerID != referrerID {
		return nil, 0, apperrors.ErrInsufficientPermissions
	}

	applications, total, err := s.applicationRepo.ListByReferral(ctx, referralID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return applications, total, nil
}

func (s *ApplicationService) ListMine(ctx context.Context, jobSeekerID string, limit, offset int) ([]models.Application, int64, error) {
	applications, total, err := s.applicationRepo.ListByJobSeeker(ctx, jobSeekerID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return applications, total, nil
}

// getWithAccess loads the application and checks that the requester is either
// the applicant or the referral owner.
func (s *ApplicationService) getWithAccess(ctx context.Context, id, requesterID string) (*models.Application, error) {
	application, err := s.applicationRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrApplicationNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if application.JobSeekerID != requesterID &&
		(application.Referral == nil || application.Referral.ReferrerID != requesterID) {
		return nil, apperrors.ErrInsufficientPermissions
	}

	return application, nil
}

func decodeSkills(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var skills []string
	if err := json.Unmarshal(raw, &skills); err != nil {
		return nil
	}
	return skills
}
