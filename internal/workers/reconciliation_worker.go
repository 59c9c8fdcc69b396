package workers

import (
	"context"
	"time"

	"refhub_backend/internal/logger"
	"refhub_backend/internal/services"
)

// ReconciliationWorker retries subscription activation for paid payments that
// never reached the user, closing the gap left by crashes between mark-paid
// and activation.
type ReconciliationWorker struct {
	payments  *services.PaymentService
	interval  time.Duration
	batchSize int
}

func NewReconciliationWorker(payments *services.PaymentService) *ReconciliationWorker {
	return &ReconciliationWorker{
		payments:  payments,
		interval:  5 * time.Minute,
		batchSize: 100,
	}
}

func (w *ReconciliationWorker) Start(ctx context.Context) {
	logger.Info("reconciliation worker started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// One pass right away so a restart repairs pending payments immediately.
	w.run(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("reconciliation worker stopped")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *ReconciliationWorker) run(ctx context.Context) {
	repaired, err := w.payments.ReconcileUnapplied(ctx, w.batchSize)
	if err != nil {
		logger.WorkerLog("reconciliation", "reconcile_unapplied", err)
		return
	}
	if repaired > 0 {
		logger.Info("reconciled unapplied payments", "count", repaired)
	}
}
