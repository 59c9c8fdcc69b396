package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refhub_backend/internal/algorithms"
	"refhub_backend/internal/models"
)

func TestQuotaStatusFreshUser(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	users.put(&models.User{
		BaseModel: models.BaseModel{ID: "u1"},
		Email:     "u1@example.com",
		Role:      models.RoleJobSeeker,
	})
	svc := NewUserService(users)

	status, err := svc.GetQuotaStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, algorithms.FreeWeeklyApplicationLimit, status.Limit)
	assert.Equal(t, 0, status.Used)
	assert.Equal(t, 3, status.Remaining)
	assert.False(t, status.Unlimited)
}

func TestQuotaStatusStaleCounterReadsAsZero(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	lastWeek := time.Now().AddDate(0, 0, -8)
	users.put(&models.User{
		BaseModel:              models.BaseModel{ID: "u1"},
		Email:                  "u1@example.com",
		Role:                   models.RoleJobSeeker,
		WeeklyApplicationCount: 3,
		WeekStart:              &lastWeek,
	})
	svc := NewUserService(users)

	status, err := svc.GetQuotaStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, status.Used)
	assert.Equal(t, 3, status.Remaining)
}

func TestQuotaStatusSubscriberUnlimited(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	expires := time.Now().Add(24 * time.Hour)
	users.put(&models.User{
		BaseModel:              models.BaseModel{ID: "u1"},
		Email:                  "u1@example.com",
		Role:                   models.RoleJobSeeker,
		WeeklyApplicationCount: 3,
		SubscriptionPlan:       models.PlanMonthly,
		SubscriptionExpiresAt:  &expires,
	})
	svc := NewUserService(users)

	status, err := svc.GetQuotaStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, status.Unlimited)
	assert.Equal(t, -1, status.Remaining)
}
