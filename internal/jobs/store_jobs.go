package jobs

import (
	"context"
	"time"

	"github.com/straye-as/minicrm/internal/config"
	"go.uber.org/zap"
)

// Job names
const (
	NormalizeJobName = "normalize_customers"
	BillingJobName   = "bill_due_subscriptions"
)

// Normalizer rewrites stored customers into canonical shape
type Normalizer interface {
	NormalizeAllCustomers(ctx context.Context) (bool, error)
}

// SubscriptionBiller invoices subscriptions that are due
type SubscriptionBiller interface {
	BillDueSubscriptions(ctx context.Context, asOf time.Time) (int, error)
}

// NormalizeJob runs NormalizeAllCustomers with a timeout
type NormalizeJob struct {
	store   Normalizer
	logger  *zap.Logger
	timeout time.Duration
}

// NewNormalizeJob creates a new normalize job
func NewNormalizeJob(store Normalizer, logger *zap.Logger, timeout time.Duration) *NormalizeJob {
	return &NormalizeJob{store: store, logger: logger, timeout: timeout}
}

// Run executes one normalization pass
func (j *NormalizeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	changed, err := j.store.NormalizeAllCustomers(ctx)
	if err != nil {
		j.logger.Error("customer normalization failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}
	j.logger.Info("customer normalization completed",
		zap.Bool("rewritten", changed),
		zap.Duration("duration", time.Since(start)))
}

// BillingJob invoices every due subscription
type BillingJob struct {
	store   SubscriptionBiller
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewBillingJob creates a new subscription billing job
func NewBillingJob(store SubscriptionBiller, logger *zap.Logger, timeout time.Duration) *BillingJob {
	return &BillingJob{store: store, logger: logger, timeout: timeout, now: time.Now}
}

// Run bills subscriptions due on or before today
func (j *BillingJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	billed, err := j.store.BillDueSubscriptions(ctx, j.now())
	if err != nil {
		j.logger.Error("subscription billing failed",
			zap.Error(err),
			zap.Int("billed_before_failure", billed),
			zap.Duration("duration", time.Since(start)))
		return
	}
	j.logger.Info("subscription billing completed",
		zap.Int("invoices_created", billed),
		zap.Duration("duration", time.Since(start)))
}

// StoreJobs is what the registered jobs need from the record store
type StoreJobs interface {
	Normalizer
	SubscriptionBiller
}

// RegisterStoreJobs adds the enabled maintenance jobs to s
func RegisterStoreJobs(s *Scheduler, store StoreJobs, cfg *config.JobsConfig, logger *zap.Logger) error {
	if cfg.NormalizeEnabled {
		job := NewNormalizeJob(store, logger, time.Minute)
		if err := s.AddJob(NormalizeJobName, cfg.NormalizeCron, job.Run); err != nil {
			return err
		}
	}
	if cfg.BillingEnabled {
		job := NewBillingJob(store, logger, 5*time.Minute)
		if err := s.AddJob(BillingJobName, cfg.BillingCron, job.Run); err != nil {
			return err
		}
	} else {
		logger.Info("subscription billing job disabled")
	}
	return nil
}
