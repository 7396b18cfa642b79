package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kirapay/kirapay/internal/clock"
	leasedomain "github.com/kirapay/kirapay/internal/lease/domain"
	notificationdomain "github.com/kirapay/kirapay/internal/notification/domain"
	obsmetrics "github.com/kirapay/kirapay/internal/observability/metrics"
	paymentdomain "github.com/kirapay/kirapay/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	LeaseSvc    leasedomain.Service
	PaymentSvc  paymentdomain.Service
	PaymentRepo paymentdomain.Repository
	Notifier    notificationdomain.Notifier
	Config      Config `optional:"true"`
}

type Scheduler struct {
	db          *gorm.DB
	log         *zap.Logger
	cfg         Config
	genID       *snowflake.Node
	clock       clock.Clock
	leaseSvc    leasedomain.Service
	paymentSvc  paymentdomain.Service
	paymentRepo paymentdomain.Repository
	notifier    notificationdomain.Notifier
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.LeaseSvc == nil || p.PaymentSvc == nil || p.PaymentRepo == nil || p.Notifier == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:          p.DB,
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:         p.Config.withDefaults(),
		genID:       p.GenID,
		clock:       p.Clock,
		leaseSvc:    p.LeaseSvc,
		paymentSvc:  p.PaymentSvc,
		paymentRepo: p.PaymentRepo,
		notifier:    p.Notifier,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, s.cfg.BatchSize)
	if owner {
		s.logJobStart(run)
	}
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(run)
	}
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		schedMetrics.IncJobTimeout(name)
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	schedMetrics.IncJobError(name)
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes each enabled job exactly once. Every job is safe to
// repeat within the same day; a second run finds nothing left to do.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"invoice", func(ctx context.Context) error {
			return s.runJob(ctx, "invoice", 30*time.Second, s.InvoiceJob)
		}},
		{"reminders", func(ctx context.Context) error {
			return s.runJob(ctx, "reminders", 30*time.Second, s.ReminderJob)
		}},
	}

	for _, job := range jobs {
		if s.isJobEnabled(job.Name) {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		if lag := time.Since(nextRun); lag > 0 {
			schedMetrics.ObserveRunLoopLag(lag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// empty EnabledJobs means all jobs run (monolith mode)
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// InvoiceJob creates the pending rent payment for the current period on
// every lease whose advance months are exhausted. A lease still inside
// its advance window is skipped: those months were paid up front as part
// of the caution. Crossing the first regular payment date also flips the
// lease from active_advance to active_regular.
func (s *Scheduler) InvoiceJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "invoice", s.cfg.BatchSize)
	if owner {
		s.logJobStart(run)
		defer s.logJobFinish(run)
	}
	now := s.clock.Now().UTC()
	var jobErr error
	schedMetrics := obsmetrics.Scheduler()

	var cursor snowflake.ID
	for {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}

		leases, err := s.fetchLeasesForWork(ctx, cursor, s.cfg.BatchSize)
		if err != nil {
			s.logSchedulerError(run, "scheduler.lease.fetch.failed", "invoice", 0, err)
			return errors.Join(jobErr, err)
		}
		if len(leases) == 0 {
			break
		}
		cursor = leases[len(leases)-1].ID

		generated := 0
		for _, lease := range leases {
			if lease.FirstRegularPaymentAt == nil {
				continue
			}
			// advance months still cover the rent
			if now.Before(lease.FirstRegularPaymentAt.UTC()) {
				continue
			}

			if lease.Status == leasedomain.LeaseStatusActiveAdvance {
				if _, err := s.leaseSvc.ActivateRegular(ctx, lease.ID); err != nil {
					jobErr = errors.Join(jobErr, err)
					s.logSchedulerError(run, "scheduler.lease.activate.failed", "invoice", lease.ID, err)
					continue
				}
				s.log.Info("lease.regular_phase_started", zap.String("lease_id", lease.ID.String()))
			}

			_, created, err := s.paymentSvc.CreateRentInvoice(ctx, lease.ID, now)
			if err != nil {
				jobErr = errors.Join(jobErr, err)
				s.logSchedulerError(run, "scheduler.invoice.generate.failed", "invoice", lease.ID, err)
				continue
			}
			if created {
				generated++
				run.AddProcessed(1)
			}
		}
		schedMetrics.AddBatchProcessed("invoice", "leases", generated)
	}

	return jobErr
}

// ReminderJob walks the same lease set and evaluates every reminder rule
// against the clock's current day. Each (lease, rule, day) is recorded
// before sending, so running the job five times a day still notifies at
// most once.
func (s *Scheduler) ReminderJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "reminders", s.cfg.BatchSize)
	if owner {
		s.logJobStart(run)
		defer s.logJobFinish(run)
	}
	now := s.clock.Now().UTC()
	var jobErr error

	var cursor snowflake.ID
	for {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}

		leases, err := s.fetchLeasesForWork(ctx, cursor, s.cfg.BatchSize)
		if err != nil {
			s.logSchedulerError(run, "scheduler.lease.fetch.failed", "reminders", 0, err)
			return errors.Join(jobErr, err)
		}
		if len(leases) == 0 {
			break
		}
		cursor = leases[len(leases)-1].ID

		for _, lease := range leases {
			if err := s.evaluateReminders(ctx, lease, now, run); err != nil {
				jobErr = errors.Join(jobErr, err)
				s.logSchedulerError(run, "scheduler.reminder.failed", "reminders", lease.ID, err)
			}
		}
	}

	return jobErr
}
