package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"refhub_backend/internal/algorithms"
	"refhub_backend/internal/repositories"
	"refhub_backend/internal/services/dto"
	"refhub_backend/pkg/apperrors"
)

// recommendationScanLimit bounds how many active referrals one recommendation
// request scores.
const recommendationScanLimit = 500

type MatchingService struct {
	referralRepo repositories.ReferralRepository
	userRepo     repositories.UserRepository
}

func NewMatchingService(
	referralRepo repositories.ReferralRepository,
	userRepo repositories.UserRepository,
) *MatchingService {
	return &MatchingService{
		referralRepo: referralRepo,
		userRepo:     userRepo,
	}
}

// Recommend scores active referrals against the seeker's skills and returns
// the best matches, highest score first. Referrals with no skill overlap are
// dropped. Personalized recommendations are a subscriber feature.
func (s *MatchingService) Recommend(ctx context.Context, jobSeekerID string, limit int) ([]dto.MatchedReferral, error) {
	user, err := s.userRepo.GetByID(ctx, jobSeekerID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if !user.HasActiveSubscription(time.Now()) {
		return nil, apperrors.ErrSubscriptionRequired
	}

	candidateSkills := decodeSkills(user.Skills)
	if len(candidateSkills) == 0 {
		return []dto.MatchedReferral{}, nil
	}

	referrals, _, err := s.referralRepo.ListActive(ctx, repositories.ReferralFilter{
		Limit: recommendationScanLimit,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	matches := make([]dto.MatchedReferral, 0, limit)
	for i := range referrals {
		score := algorithms.MatchScore(decodeSkills(referrals[i].Skills), candidateSkills)
		if score == 0 {
			continue
		}
		matches = append(matches, dto.MatchedReferral{
			Referral: referrals[i],
			Score:    score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// ScoreFor scores the seeker's skills against one referral. Unlike
// Recommend this is free for every seeker, so the listing page can show the
// score before applying.
func (s *MatchingService) ScoreFor(ctx context.Context, jobSeekerID, referralID string) (*dto.MatchScoreResponse, error) {
	user, err := s.userRepo.GetByID(ctx, jobSeekerID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	referral, err := s.referralRepo.GetByID(ctx, referralID)
	if errors.Is(err, repositories.ErrReferralNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.MatchScoreResponse{
		ReferralID: referral.ID,
		Score:      algorithms.MatchScore(decodeSkills(referral.Skills), decodeSkills(user.Skills)),
	}, nil
}
