package workers

import (
	"context"
	"time"

	"refhub_backend/internal/logger"
	"refhub_backend/internal/repositories"
)

// ReferralExpiryWorker sweeps active referrals past their deadline. Reads
// already derive expiry lazily; the sweep just keeps stored rows and counters
// from drifting for referrals nobody looks at.
type ReferralExpiryWorker struct {
	referralRepo repositories.ReferralRepository
	interval     time.Duration
}

func NewReferralExpiryWorker(referralRepo repositories.ReferralRepository) *ReferralExpiryWorker {
	return &ReferralExpiryWorker{
		referralRepo: referralRepo,
		interval:     time.Hour,
	}
}

func (w *ReferralExpiryWorker) Start(ctx context.Context) {
	logger.Info("referral expiry worker started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("referral expiry worker stopped")
			return
		case <-ticker.C:
			expired, err := w.referralRepo.ExpireDue(ctx, time.Now())
			if err != nil {
				logger.WorkerLog("referral_expiry", "expire_due", err)
				continue
			}
			if expired > 0 {
				logger.Info("expired stale referrals", "count", expired)
			}
		}
	}
}
