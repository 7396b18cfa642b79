package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ReminderType string

const (
	// TypeAdvanceEnding fires the day before the first regular payment
	// date while the lease is still consuming its advance months.
	TypeAdvanceEnding ReminderType = "advance_ending"

	// TypeCourtesy is the friendly nudge on the 5th of the month.
	TypeCourtesy ReminderType = "courtesy"

	// TypeDeadline is the payment deadline notice on the 10th.
	TypeDeadline ReminderType = "deadline"

	// TypeOverdue fires on the 11th when the period is still unpaid. It
	// also flips the lease to overdue and alerts the manager.
	TypeOverdue ReminderType = "overdue"
)

// Record is one reminder sent for a lease on a calendar day. The unique
// index is what makes the reminder job safe to run any number of times
// per day: a second run inserting the same (lease, type, day) hits the
// constraint and skips.
type Record struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	SpaceID      snowflake.ID `gorm:"not null;index" json:"space_id"`
	LeaseID      snowflake.ID `gorm:"not null;uniqueIndex:idx_reminders_lease_type_date,priority:1" json:"lease_id"`
	ReminderType ReminderType `gorm:"not null;uniqueIndex:idx_reminders_lease_type_date,priority:2" json:"reminder_type"`
	ReminderDate string       `gorm:"not null;uniqueIndex:idx_reminders_lease_type_date,priority:3" json:"reminder_date"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Record) TableName() string {
	return "reminders"
}

// DateKey formats a time as the day key reminders dedupe on.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
