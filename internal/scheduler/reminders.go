package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	leasedomain "github.com/kirapay/kirapay/internal/lease/domain"
	notificationdomain "github.com/kirapay/kirapay/internal/notification/domain"
	paymentdomain "github.com/kirapay/kirapay/internal/payment/domain"
	reminderdomain "github.com/kirapay/kirapay/internal/reminder/domain"
	"github.com/kirapay/kirapay/pkg/db"
	"go.uber.org/zap"
)

// evaluateReminders applies every rule to one lease. Rules are checked
// independently so a run that was down on the 5th still fires the 10th's
// deadline when it comes back.
func (s *Scheduler) evaluateReminders(ctx context.Context, lease WorkLease, now time.Time, run *jobRun) error {
	if lease.FirstRegularPaymentAt == nil {
		return nil
	}
	firstRegular := lease.FirstRegularPaymentAt.UTC()

	// the advance window is about to run out; tell the tenant rent
	// invoicing starts tomorrow
	if lease.Status == leasedomain.LeaseStatusActiveAdvance && sameDay(now.AddDate(0, 0, 1), firstRegular) {
		sent, err := s.sendReminder(ctx, lease, reminderdomain.TypeAdvanceEnding, now, lease.TenantID,
			notificationdomain.TypeAdvanceEnding,
			"Advance period ending",
			fmt.Sprintf("Your advance months are used up. Monthly rent of %d starts on %s.", lease.MonthlyRent, firstRegular.Format("2 January 2006")),
		)
		if err != nil {
			return err
		}
		if sent {
			run.AddProcessed(1)
		}
	}

	// the in-month rules only apply once the lease pays month by month
	if now.Before(firstRegular) {
		return nil
	}

	period := paymentdomain.PeriodOf(now)
	settled, err := s.paymentRepo.SettledExists(ctx, s.db, lease.ID, period)
	if err != nil {
		return err
	}
	if settled {
		return nil
	}

	switch {
	case now.Day() == s.cfg.CourtesyDay:
		sent, err := s.sendReminder(ctx, lease, reminderdomain.TypeCourtesy, now, lease.TenantID,
			notificationdomain.TypeCourtesy,
			"Rent reminder",
			fmt.Sprintf("A friendly reminder that your rent of %d for %s is due by the %dth.", lease.MonthlyRent, now.Format("January"), s.cfg.GraceDay),
		)
		if err != nil {
			return err
		}
		if sent {
			run.AddProcessed(1)
		}

	case now.Day() == s.cfg.GraceDay:
		sent, err := s.sendReminder(ctx, lease, reminderdomain.TypeDeadline, now, lease.TenantID,
			notificationdomain.TypeDeadline,
			"Rent due today",
			fmt.Sprintf("Today is the last day to pay your rent of %d for %s.", lease.MonthlyRent, now.Format("January")),
		)
		if err != nil {
			return err
		}
		if sent {
			run.AddProcessed(1)
		}

	case now.Day() == s.cfg.GraceDay+1:
		// a charge awaiting the gateway callback is not an unpaid month;
		// escalation waits until it settles or fails
		covered, err := s.paymentRepo.SettledOrInProgressExists(ctx, s.db, lease.ID, period)
		if err != nil {
			return err
		}
		if covered {
			return nil
		}
		return s.handleOverdue(ctx, lease, now, run)
	}

	return nil
}

// handleOverdue fires once per month: the tenant and the manager are
// each told, and the lease flips to overdue.
func (s *Scheduler) handleOverdue(ctx context.Context, lease WorkLease, now time.Time, run *jobRun) error {
	sent, err := s.sendReminder(ctx, lease, reminderdomain.TypeOverdue, now, lease.TenantID,
		notificationdomain.TypeOverdue,
		"Rent overdue",
		fmt.Sprintf("Your rent of %d for %s was not received by the %dth. Please pay as soon as possible.", lease.MonthlyRent, now.Format("January"), s.cfg.GraceDay),
	)
	if err != nil {
		return err
	}
	if !sent {
		// another run already handled this day
		return nil
	}
	run.AddProcessed(1)

	s.notify(ctx, lease, lease.ManagerID,
		notificationdomain.TypeOverdueManager,
		"Tenant payment overdue",
		fmt.Sprintf("Rent of %d for %s was not received from the tenant by the %dth.", lease.MonthlyRent, now.Format("January"), s.cfg.GraceDay),
	)

	if lease.Status == leasedomain.LeaseStatusActiveRegular {
		if _, err := s.leaseSvc.MarkOverdue(ctx, lease.ID); err != nil {
			return err
		}
		s.log.Info("lease.marked_overdue", zap.String("lease_id", lease.ID.String()))
	}
	return nil
}

// sendReminder inserts the dedupe record first and only notifies when
// the insert wins. A duplicate key means an earlier run on the same day
// already sent this reminder.
func (s *Scheduler) sendReminder(
	ctx context.Context,
	lease WorkLease,
	reminderType reminderdomain.ReminderType,
	now time.Time,
	recipientID snowflake.ID,
	notificationType, title, message string,
) (bool, error) {
	record := reminderdomain.Record{
		ID:           s.genID.Generate(),
		SpaceID:      lease.SpaceID,
		LeaseID:      lease.ID,
		ReminderType: reminderType,
		ReminderDate: reminderdomain.DateKey(now),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}

	s.notify(ctx, lease, recipientID, notificationType, title, message)
	return true, nil
}

func (s *Scheduler) notify(ctx context.Context, lease WorkLease, recipientID snowflake.ID, typ, title, message string) {
	if err := s.notifier.Notify(ctx, notificationdomain.NotifyRequest{
		SpaceID:     lease.SpaceID,
		RecipientID: recipientID,
		LeaseID:     lease.ID,
		Type:        typ,
		Title:       title,
		Message:     message,
	}); err != nil {
		s.log.Warn("notify failed",
			zap.String("type", typ),
			zap.String("lease_id", lease.ID.String()),
			zap.Error(err),
		)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
