package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refhub_backend/internal/models"
	"refhub_backend/internal/services/dto"
	"refhub_backend/pkg/apperrors"
)

type applicationFixture struct {
	svc       *ApplicationService
	users     *fakeUserRepo
	referrals *fakeReferralRepo
	apps      *fakeApplicationRepo
}

func newApplicationFixture() *applicationFixture {
	users := newFakeUserRepo()
	referrals := newFakeReferralRepo()
	apps := newFakeApplicationRepo(referrals)
	notifications, _ := newTestNotifications(users)

	return &applicationFixture{
		svc:       NewApplicationService(apps, referrals, users, notifications),
		users:     users,
		referrals: referrals,
		apps:      apps,
	}
}

func (f *applicationFixture) seedSeeker(id string, skills string) {
	u := &models.User{
		BaseModel: models.BaseModel{ID: id},
		Email:     id + "@example.com",
		Name:      "Seeker " + id,
		Role:      models.RoleJobSeeker,
	}
	if skills != "" {
		u.Skills = []byte(skills)
	}
	f.users.put(u)
}

func (f *applicationFixture) seedActiveReferral(id, referrerID string, skills string) {
	ref := &models.Referral{
		BaseModel:  models.BaseModel{ID: id},
		ReferrerID: referrerID,
		Title:      "Backend Engineer",
		Company:    "Acme",
		Status:     models.ReferralActive,
	}
	if skills != "" {
		ref.Skills = []byte(skills)
	}
	f.referrals.put(ref)
}

func TestApplyConsumesQuotaUntilLimit(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()
	f.seedSeeker("seeker", `["go"]`)
	for _, id := range []string{"r1", "r2", "r3", "r4"} {
		f.seedActiveReferral(id, "referrer", `["go"]`)
	}

	for _, id := range []string{"r1", "r2", "r3"} {
		_, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: id})
		require.NoError(t, err)
	}

	_, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r4"})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeLimitExceeded, appErr.Code)

	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, details["limit_reached"])
	assert.Equal(t, 3, details["weekly_limit"])
}

func TestApplyResetsCounterOnNewWeek(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()
	f.seedSeeker("seeker", `["go"]`)
	f.seedActiveReferral("r1", "referrer", `["go"]`)

	// Counter exhausted last week.
	lastWeek := time.Now().AddDate(0, 0, -8)
	u, err := f.users.GetByID(context.Background(), "seeker")
	require.NoError(t, err)
	u.WeeklyApplicationCount = 3
	u.WeekStart = &lastWeek
	f.users.put(u)

	_, err = f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r1"})
	require.NoError(t, err)

	u, err = f.users.GetByID(context.Background(), "seeker")
	require.NoError(t, err)
	assert.Equal(t, 1, u.WeeklyApplicationCount)
}

func TestApplySubscriberBypassesQuota(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()

	expires := time.Now().Add(24 * time.Hour)
	f.users.put(&models.User{
		BaseModel:             models.BaseModel{ID: "seeker"},
		Email:                 "seeker@example.com",
		Role:                  models.RoleJobSeeker,
		Skills:                []byte(`["go"]`),
		SubscriptionPlan:      models.PlanMonthly,
		SubscriptionExpiresAt: &expires,
	})

	for _, id := range []string{"r1", "r2", "r3", "r4", "r5"} {
		f.seedActiveReferral(id, "referrer", `["go"]`)
		_, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: id})
		require.NoError(t, err)
	}

	u, err := f.users.GetByID(context.Background(), "seeker")
	require.NoError(t, err)
	assert.Equal(t, 0, u.WeeklyApplicationCount)
}

func TestApplyLapsedSubscriptionFallsBackToQuota(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()

	expired := time.Now().Add(-time.Hour)
	f.users.put(&models.User{
		BaseModel:             models.BaseModel{ID: "seeker"},
		Email:                 "seeker@example.com",
		Role:                  models.RoleJobSeeker,
		SubscriptionPlan:      models.PlanMonthly,
		SubscriptionExpiresAt: &expired,
	})
	f.seedActiveReferral("r1", "referrer", `["go"]`)

	_, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r1"})
	require.NoError(t, err)

	u, err := f.users.GetByID(context.Background(), "seeker")
	require.NoError(t, err)
	assert.Equal(t, 1, u.WeeklyApplicationCount)
}

func TestApplyDuplicateRejected(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()
	f.seedSeeker("seeker", `["go"]`)
	f.seedActiveReferral("r1", "referrer", `["go"]`)

	_, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r1"})
	require.NoError(t, err)

	_, err = f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r1"})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeAlreadyExists, appErr.Code)

	// The rejected attempt must not have burned a quota slot.
	u, err := f.users.GetByID(context.Background(), "seeker")
	require.NoError(t, err)
	assert.Equal(t, 1, u.WeeklyApplicationCount)
}

func TestApplyReleasesQuotaWhenCreateFails(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()
	f.seedSeeker("seeker", `["go"]`)
	f.seedActiveReferral("r1", "referrer", `["go"]`)
	f.apps.failCreate = errors.New("connection reset")

	_, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r1"})
	require.Error(t, err)

	u, err := f.users.GetByID(context.Background(), "seeker")
	require.NoError(t, err)
	assert.Equal(t, 0, u.WeeklyApplicationCount)
}

func TestApplyToOwnReferralRejected(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()
	f.seedSeeker("seeker", `["go"]`)
	f.seedActiveReferral("r1", "seeker", `["go"]`)

	_, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r1"})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidOperation, appErr.Code)
}

func TestApplyToLapsedDeadlineRejected(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()
	f.seedSeeker("seeker", `["go"]`)

	// Stored as active, but the deadline has passed since the last sweep.
	deadline := time.Now().Add(-time.Hour)
	f.referrals.put(&models.Referral{
		BaseModel:  models.BaseModel{ID: "r1"},
		ReferrerID: "referrer",
		Title:      "Backend Engineer",
		Company:    "Acme",
		Status:     models.ReferralActive,
		Deadline:   &deadline,
	})

	_, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r1"})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidStatus, appErr.Code)
}

func TestApplyToDraftRejected(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()
	f.seedSeeker("seeker", `["go"]`)
	f.referrals.put(&models.Referral{
		BaseModel:  models.BaseModel{ID: "r1"},
		ReferrerID: "referrer",
		Title:      "Backend Engineer",
		Company:    "Acme",
		Status:     models.ReferralDraft,
	})

	_, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r1"})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidStatus, appErr.Code)
}

func TestApplyComputesMatchScore(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()
	f.seedSeeker("seeker", `["Go", "Docker"]`)
	f.seedActiveReferral("r1", "referrer", `["golang", "kubernetes", "docker"]`)

	application, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r1"})
	require.NoError(t, err)

	// "go" matches "golang", "docker" matches exactly: 2 of 3.
	assert.Equal(t, 67, application.MatchScore)

	// The referral owner is denormalized onto the application.
	assert.Equal(t, "referrer", application.ReferrerID)
}

func TestWithdrawOnlyByApplicant(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()
	f.seedSeeker("seeker", `["go"]`)
	f.seedActiveReferral("r1", "referrer", `["go"]`)

	application, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r1"})
	require.NoError(t, err)

	_, err = f.svc.Withdraw(context.Background(), application.ID, "referrer")
	require.Error(t, err)

	withdrawn, err := f.svc.Withdraw(context.Background(), application.ID, "seeker")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationWithdrawn, withdrawn.Status)

	// Terminal: a second withdraw is rejected.
	_, err = f.svc.Withdraw(context.Background(), application.ID, "seeker")
	require.Error(t, err)
}

func TestReferrerStatusTransitions(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()
	f.seedSeeker("seeker", `["go"]`)
	f.seedActiveReferral("r1", "referrer", `["go"]`)

	application, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r1"})
	require.NoError(t, err)

	// The seeker cannot drive review transitions.
	_, err = f.svc.UpdateStatus(context.Background(), application.ID, "seeker",
		&dto.UpdateApplicationStatusRequest{Status: "reviewed"})
	require.Error(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), application.ID, "referrer",
		&dto.UpdateApplicationStatusRequest{Status: "shortlisted"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationShortlisted, updated.Status)

	// Backwards moves are not in the transition table.
	_, err = f.svc.UpdateStatus(context.Background(), application.ID, "referrer",
		&dto.UpdateApplicationStatusRequest{Status: "reviewed"})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidStatus, appErr.Code)

	updated, err = f.svc.UpdateStatus(context.Background(), application.ID, "referrer",
		&dto.UpdateApplicationStatusRequest{Status: "accepted"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationAccepted, updated.Status)

	// Accepted is terminal.
	_, err = f.svc.UpdateStatus(context.Background(), application.ID, "referrer",
		&dto.UpdateApplicationStatusRequest{Status: "rejected"})
	require.Error(t, err)
}

func TestAddMessageRestrictedToParticipants(t *testing.T) {
	t.Parallel()

	f := newApplicationFixture()
	f.seedSeeker("seeker", `["go"]`)
	f.seedActiveReferral("r1", "referrer", `["go"]`)

	application, err := f.svc.Apply(context.Background(), "seeker", &dto.CreateApplicationRequest{ReferralID: "r1"})
	require.NoError(t, err)

	_, err = f.svc.AddMessage(context.Background(), application.ID, "stranger",
		&dto.AddMessageRequest{Message: "hello"})
	require.Error(t, err)

	updated, err := f.svc.AddMessage(context.Background(), application.ID, "seeker",
		&dto.AddMessageRequest{Message: "looking forward to hearing from you"})
	require.NoError(t, err)
	assert.Contains(t, string(updated.CommunicationHistory), "looking forward")

	updated, err = f.svc.AddMessage(context.Background(), application.ID, "referrer",
		&dto.AddMessageRequest{Message: "thanks, reviewing now"})
	require.NoError(t, err)
	assert.Contains(t, string(updated.CommunicationHistory), "looking forward")
	assert.Contains(t, string(updated.CommunicationHistory), "reviewing now")
}
