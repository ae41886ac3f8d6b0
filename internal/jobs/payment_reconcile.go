package jobs

import (
	"context"
	"time"

	"therapylink_backend/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const reconcileRunTimeout = 5 * time.Minute

// Sweeper re-checks payment accounts that are still waiting for
// verification. *reconciler.Reconciler implements it.
type Sweeper interface {
	SweepPending(ctx context.Context) (int, error)
}

// PaymentReconcileJob periodically pulls account status for therapists whose
// verification webhook may have been missed.
type PaymentReconcileJob struct {
	sweeper       Sweeper
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

func NewPaymentReconcileJob(sweeper Sweeper, logger *zap.Logger, cfg *config.Config) *PaymentReconcileJob {
	scheduler := cron.New(
		cron.WithLogger(NewCronLogger(logger.Named("cron"))),
		cron.WithChain(cron.SkipIfStillRunning(NewCronLogger(logger.Named("cron")))),
	)

	return &PaymentReconcileJob{
		sweeper:       sweeper,
		logger:        logger.Named("PaymentReconcileJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules the sweep and starts the scheduler. An empty
// PAYMENT_RECONCILE_SCHEDULE leaves the job off.
func (j *PaymentReconcileJob) SetupAndStart() error {
	jobSpec := j.cfg.PaymentReconcileSchedule
	if jobSpec == "" {
		j.logger.Info("Payment reconcile schedule not set (PAYMENT_RECONCILE_SCHEDULE). Sweep disabled.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule payment reconcile job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Payment reconcile job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *PaymentReconcileJob) runJob() {
	j.logger.Info("Starting payment reconcile run...")
	ctx, cancel := context.WithTimeout(context.Background(), reconcileRunTimeout)
	defer cancel()

	completed, err := j.sweeper.SweepPending(ctx)
	if err != nil {
		j.logger.Error("Payment reconcile run finished with errors", zap.Int("therapists_completed", completed), zap.Error(err))
		return
	}
	j.logger.Info("Payment reconcile run completed", zap.Int("therapists_completed", completed))
}

// Stop stops the scheduler, waiting up to 10s for a running sweep.
func (j *PaymentReconcileJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping payment reconcile scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Payment reconcile scheduler stopped.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Payment reconcile scheduler stop timed out.")
	}
}
