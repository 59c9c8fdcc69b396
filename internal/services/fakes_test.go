package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/datatypes"

	"refhub_backend/internal/algorithms"
	"refhub_backend/internal/config"
	"refhub_backend/internal/email"
	"refhub_backend/internal/gateway"
	"refhub_backend/internal/models"
	"refhub_backend/internal/repositories"
)

// --- user repository fake ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) put(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, role models.UserRole, limit, offset int) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) SetSuspended(_ context.Context, id string, suspended bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.IsSuspended = suspended
	return nil
}

func (r *fakeUserRepo) ConsumeWeeklyApplication(_ context.Context, userID string, now time.Time, limit int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, nil
	}

	weekStart := algorithms.WeekStart(now)
	if u.WeekStart == nil || !u.WeekStart.Equal(weekStart) {
		u.WeeklyApplicationCount = 1
		u.WeekStart = &weekStart
		return true, nil
	}
	if u.WeeklyApplicationCount >= limit {
		return false, nil
	}
	u.WeeklyApplicationCount++
	return true, nil
}

func (r *fakeUserRepo) ReleaseWeeklyApplication(_ context.Context, userID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil
	}
	weekStart := algorithms.WeekStart(now)
	if u.WeekStart != nil && u.WeekStart.Equal(weekStart) && u.WeeklyApplicationCount > 0 {
		u.WeeklyApplicationCount--
	}
	return nil
}

// --- payment repository fake ---

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*models.Payment // by ID
	users    *fakeUserRepo
}

func newFakePaymentRepo(users *fakeUserRepo) *fakePaymentRepo {
	return &fakePaymentRepo{
		payments: make(map[string]*models.Payment),
		users:    users,
	}
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if payment.ID == "" {
		payment.ID = "pay-" + payment.GatewayOrderID
	}
	cp := *payment
	r.payments[payment.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) GetByGatewayOrderID(_ context.Context, gatewayOrderID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.GatewayOrderID == gatewayOrderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrPaymentNotFound
}

func (r *fakePaymentRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payment
	for _, p := range r.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) List(_ context.Context, status models.PaymentStatus, limit, offset int) ([]models.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payment
	for _, p := range r.payments {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, *p)
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *fakePaymentRepo) Stats(_ context.Context) (*repositories.PaymentStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repositories.PaymentStats{}
	for _, p := range r.payments {
		switch p.Status {
		case models.PaymentPaid:
			stats.PaidCount++
			stats.TotalRevenue += p.Amount
		case models.PaymentFailed:
			stats.FailedCount++
		case models.PaymentCreated:
			stats.PendingCount++
		}
	}
	return stats, nil
}

func (r *fakePaymentRepo) MarkPaid(_ context.Context, gatewayOrderID, gatewayPaymentID, signature string, payload datatypes.JSON) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.GatewayOrderID != gatewayOrderID {
			continue
		}
		if p.Status != models.PaymentCreated && p.Status != models.PaymentAttempted {
			return 0, nil
		}
		now := time.Now()
		p.Status = models.PaymentPaid
		p.GatewayPaymentID = gatewayPaymentID
		p.VerifiedAt = &now
		if signature != "" {
			p.GatewaySignature = signature
		}
		if payload != nil {
			p.WebhookPayload = payload
		}
		return 1, nil
	}
	return 0, nil
}

func (r *fakePaymentRepo) MarkFailed(_ context.Context, gatewayOrderID, reason string, payload datatypes.JSON) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.GatewayOrderID != gatewayOrderID {
			continue
		}
		if p.Status != models.PaymentCreated && p.Status != models.PaymentAttempted {
			return 0, nil
		}
		p.Status = models.PaymentFailed
		p.FailReason = reason
		if payload != nil {
			p.WebhookPayload = payload
		}
		return 1, nil
	}
	return 0, nil
}

func (r *fakePaymentRepo) MarkRefunded(_ context.Context, paymentID string, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok || p.Status != models.PaymentPaid {
		return 0, nil
	}
	now := time.Now()
	p.Status = models.PaymentRefunded
	p.RefundAmount = amount
	p.RefundedAt = &now
	return 1, nil
}

func (r *fakePaymentRepo) ListPaidUnapplied(_ context.Context, limit int) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payment
	for _, p := range r.payments {
		if p.Status == models.PaymentPaid && !p.SubscriptionApplied {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) ApplySubscription(_ context.Context, paymentID string) error {
	r.mu.Lock()
	p, ok := r.payments[paymentID]
	if !ok {
		r.mu.Unlock()
		return repositories.ErrPaymentNotFound
	}
	if p.Status != models.PaymentPaid || p.SubscriptionApplied {
		r.mu.Unlock()
		return nil
	}
	plan := p.Plan
	duration := p.PlanDuration()
	userID := p.UserID
	id := p.ID
	r.mu.Unlock()

	r.users.mu.Lock()
	u, ok := r.users.users[userID]
	if !ok {
		r.users.mu.Unlock()
		return repositories.ErrUserNotFound
	}
	now := time.Now()
	base := now
	if u.SubscriptionExpiresAt != nil && u.SubscriptionExpiresAt.After(now) {
		base = *u.SubscriptionExpiresAt
	}
	expiresAt := base.Add(duration)
	u.SubscriptionPlan = plan
	u.SubscriptionStartedAt = &base
	u.SubscriptionExpiresAt = &expiresAt
	u.SubscriptionPaymentID = &id
	r.users.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	p.SubscriptionApplied = true
	p.SubscriptionStart = &base
	p.SubscriptionEnd = &expiresAt
	return nil
}

// --- referral repository fake ---

type fakeReferralRepo struct {
	mu        sync.Mutex
	referrals map[string]*models.Referral
}

func newFakeReferralRepo() *fakeReferralRepo {
	return &fakeReferralRepo{referrals: make(map[string]*models.Referral)}
}

func (r *fakeReferralRepo) put(ref *models.Referral) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ref
	r.referrals[ref.ID] = &cp
}

func (r *fakeReferralRepo) Create(_ context.Context, referral *models.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if referral.ID == "" {
		referral.ID = "ref-" + referral.Title
	}
	cp := *referral
	r.referrals[referral.ID] = &cp
	return nil
}

func (r *fakeReferralRepo) GetByID(_ context.Context, id string) (*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.referrals[id]
	if !ok {
		return nil, repositories.ErrReferralNotFound
	}
	cp := *ref
	return &cp, nil
}

func (r *fakeReferralRepo) Update(_ context.Context, referral *models.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *referral
	r.referrals[referral.ID] = &cp
	return nil
}

func (r *fakeReferralRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.referrals[id]; !ok {
		return repositories.ErrReferralNotFound
	}
	delete(r.referrals, id)
	return nil
}

func (r *fakeReferralRepo) ListActive(_ context.Context, filter repositories.ReferralFilter) ([]models.Referral, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Referral
	for _, ref := range r.referrals {
		if ref.Status == models.ReferralActive {
			out = append(out, *ref)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReferralRepo) ListByReferrer(_ context.Context, referrerID string, limit, offset int) ([]models.Referral, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Referral
	for _, ref := range r.referrals {
		if ref.ReferrerID == referrerID {
			out = append(out, *ref)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReferralRepo) MarkExpired(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref, ok := r.referrals[id]; ok && ref.Status == models.ReferralActive {
		ref.Status = models.ReferralExpired
	}
	return nil
}

func (r *fakeReferralRepo) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, ref := range r.referrals {
		if ref.Status == models.ReferralActive && ref.Deadline != nil && ref.Deadline.Before(now) {
			ref.Status = models.ReferralExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeReferralRepo) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref, ok := r.referrals[id]; ok {
		ref.Views++
	}
	return nil
}

func (r *fakeReferralRepo) IncrementApplicationCount(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref, ok := r.referrals[id]; ok {
		ref.ApplicationCount++
	}
	return nil
}

func (r *fakeReferralRepo) DecrementApplicationCount(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref, ok := r.referrals[id]; ok && ref.ApplicationCount > 0 {
		ref.ApplicationCount--
	}
	return nil
}

// --- application repository fake ---

type fakeApplicationRepo struct {
	mu           sync.Mutex
	applications map[string]*models.Application
	referrals    *fakeReferralRepo
	failCreate   error
}

func newFakeApplicationRepo(referrals *fakeReferralRepo) *fakeApplicationRepo {
	return &fakeApplicationRepo{
		applications: make(map[string]*models.Application),
		referrals:    referrals,
	}
}

func (r *fakeApplicationRepo) Create(_ context.Context, application *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	for _, a := range r.applications {
		if a.ReferralID == application.ReferralID && a.JobSeekerID == application.JobSeekerID {
			return repositories.ErrDuplicateApplication
		}
	}
	if application.ID == "" {
		application.ID = "app-" + application.ReferralID + "-" + application.JobSeekerID
	}
	cp := *application
	r.applications[application.ID] = &cp
	return nil
}

func (r *fakeApplicationRepo) GetByID(ctx context.Context, id string) (*models.Application, error) {
	r.mu.Lock()
	a, ok := r.applications[id]
	if !ok {
		r.mu.Unlock()
		return nil, repositories.ErrApplicationNotFound
	}
	cp := *a
	r.mu.Unlock()

	if r.referrals != nil {
		if ref, err := r.referrals.GetByID(ctx, cp.ReferralID); err == nil {
			cp.Referral = ref
		}
	}
	return &cp, nil
}

func (r *fakeApplicationRepo) ListByReferral(_ context.Context, referralID string, limit, offset int) ([]models.Application, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Application
	for _, a := range r.applications {
		if a.ReferralID == referralID {
			out = append(out, *a)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeApplicationRepo) ListByJobSeeker(_ context.Context, jobSeekerID string, limit, offset int) ([]models.Application, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Application
	for _, a := range r.applications {
		if a.JobSeekerID == jobSeekerID {
			out = append(out, *a)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeApplicationRepo) UpdateStatus(_ context.Context, id string, status models.ApplicationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.applications[id]
	if !ok {
		return repositories.ErrApplicationNotFound
	}
	a.Status = status
	return nil
}

func (r *fakeApplicationRepo) UpdateCommunicationHistory(_ context.Context, id string, history datatypes.JSON) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.applications[id]
	if !ok {
		return repositories.ErrApplicationNotFound
	}
	a.CommunicationHistory = history
	return nil
}

func (r *fakeApplicationRepo) Exists(_ context.Context, referralID, jobSeekerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.applications {
		if a.ReferralID == referralID && a.JobSeekerID == jobSeekerID {
			return true, nil
		}
	}
	return false, nil
}

// --- notification repository fake ---

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == "" {
		n.ID = "notif-" + n.UserID + "-" + string(n.Type)
	}
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			r.notifications[i].IsRead = true
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].UserID == userID {
			r.notifications[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.notifications {
		if r.notifications[i].UserID == userID && !r.notifications[i].IsRead {
			n++
		}
	}
	return n, nil
}

// --- gateway fake ---

type fakeGateway struct {
	nextOrderID  string
	createErr    error
	validPayment bool
	validWebhook bool
	lastReceipt  string
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*gateway.Order, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.lastReceipt = receipt
	id := g.nextOrderID
	if id == "" {
		id = "order_fake"
	}
	return &gateway.Order{ID: id, Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return g.validPayment
}

func (g *fakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return g.validWebhook
}

// --- helpers ---

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Plans.Monthly = 49900
	cfg.Plans.Yearly = 499900
	cfg.Plans.Currency = "INR"
	cfg.Gateway.KeyID = "rzp_test_key"
	return cfg
}

func newTestNotifications(users *fakeUserRepo) (*NotificationService, *fakeNotificationRepo) {
	repo := newFakeNotificationRepo()
	return NewNotificationService(repo, users, email.NewNoopSender()), repo
}
