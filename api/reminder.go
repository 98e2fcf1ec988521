/*
reminder.go - Daily collection reminder job

PURPOSE:
  Builds the day's agenda on a cron schedule and mails a collection
  summary to the configured recipient, replacing the manual morning
  agenda check. The job is read-only: it reuses the agenda projection
  and never mutates credit state.

DESIGN:
  - robfig/cron with the business timezone, so "0 7 * * *" means 7am
    where collections happen, not 7am UTC.
  - The mail sender is an interface; tests plug in a recorder.
  - A run that fails to load credits or send logs and moves on; the next
    tick retries naturally.

SEE ALSO:
  - credit/projection.go: BuildAgenda
  - notify/email.go: SMTP sender
*/
package api

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/crediario/credit-engine/credit"
)

// AgendaSender delivers a day's agenda summary.
type AgendaSender interface {
	SendAgendaSummary(day time.Time, agenda credit.Agenda, clientNames map[string]string) error
}

// ReminderScheduler mails the collection agenda once a day.
type ReminderScheduler struct {
	Store    credit.Store
	Sender   AgendaSender
	Calendar credit.Calendar
	CronSpec string
	Logger   *logrus.Logger

	nowFn func() time.Time
	cron  *cron.Cron
}

// NewReminderScheduler creates the scheduler; Start arms it.
func NewReminderScheduler(store credit.Store, sender AgendaSender, cal credit.Calendar, cronSpec string, logger *logrus.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		Store:    store,
		Sender:   sender,
		Calendar: cal,
		CronSpec: cronSpec,
		Logger:   logger,
		nowFn:    time.Now,
	}
}

// Start registers the cron entry and begins ticking.
func (rs *ReminderScheduler) Start() error {
	rs.cron = cron.New(cron.WithLocation(rs.Calendar.Location()))
	if _, err := rs.cron.AddFunc(rs.CronSpec, rs.Run); err != nil {
		return err
	}
	rs.cron.Start()
	rs.Logger.Infof("Reminder scheduler started with spec %q", rs.CronSpec)
	return nil
}

// Stop halts the scheduler and waits for an in-flight run.
func (rs *ReminderScheduler) Stop() {
	if rs.cron != nil {
		<-rs.cron.Stop().Done()
	}
}

// Run executes one reminder cycle. Exported so a run can also be
// triggered manually.
func (rs *ReminderScheduler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := rs.nowFn()
	credits, err := rs.Store.ListCredits(ctx, credit.StatusActive)
	if err != nil {
		rs.Logger.Errorf("Reminder run failed to load credits: %v", err)
		return
	}

	agenda := rs.Calendar.BuildAgenda(credits, now)
	if len(agenda.Today) == 0 && len(agenda.Upcoming) == 0 {
		rs.Logger.Info("Reminder run: nothing due, no mail sent")
		return
	}

	names := map[string]string{}
	if clients, err := rs.Store.ListClients(ctx); err == nil {
		for _, c := range clients {
			names[c.ID] = c.FullName
		}
	} else {
		rs.Logger.Warnf("Reminder run could not resolve client names: %v", err)
	}

	if err := rs.Sender.SendAgendaSummary(rs.Calendar.Today(now), agenda, names); err != nil {
		rs.Logger.Errorf("Reminder run failed to send: %v", err)
		return
	}
	rs.Logger.Infof("Reminder sent: %d due today, %d upcoming", len(agenda.Today), len(agenda.Upcoming))
}
