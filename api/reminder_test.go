package api

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/crediario/credit-engine/credit"
	"github.com/crediario/credit-engine/credit/store"
)

// recordingSender captures agenda summaries instead of mailing them.
type recordingSender struct {
	calls []recordedSend
}

type recordedSend struct {
	day    time.Time
	agenda credit.Agenda
	names  map[string]string
}

func (r *recordingSender) SendAgendaSummary(day time.Time, agenda credit.Agenda, names map[string]string) error {
	r.calls = append(r.calls, recordedSend{day: day, agenda: agenda, names: names})
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newReminderFixture(now time.Time) (*store.Memory, *recordingSender, *ReminderScheduler) {
	mem := store.NewMemory()
	sender := &recordingSender{}
	rs := NewReminderScheduler(mem, sender, credit.MustCalendar("UTC"), "0 7 * * *", quietLogger())
	rs.nowFn = func() time.Time { return now }
	return mem, sender, rs
}

func TestReminderRun_SendsAgendaWithResolvedNames(t *testing.T) {
	// GIVEN: A credit due today and a registered client
	// WHEN: The reminder job runs
	// THEN: One summary goes out with the due credit and the client's name

	now := time.Date(2025, time.June, 4, 7, 0, 0, 0, time.UTC)
	mem, sender, rs := newReminderFixture(now)
	ctx := context.Background()

	client := &credit.Client{ID: "c1", FullName: "Maria Lopez", NationalID: "123", CreatedAt: now, UpdatedAt: now}
	if err := mem.SaveClient(ctx, client); err != nil {
		t.Fatal(err)
	}
	due := time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC)
	cr := &credit.Credit{
		ID:              "cr1",
		ClientID:        "c1",
		Status:          credit.StatusActive,
		TotalAmount:     decimal.NewFromInt(200),
		NextPaymentDate: &due,
		PaymentHistory:  []credit.PaymentEntry{},
	}
	if err := mem.SaveCredit(ctx, cr); err != nil {
		t.Fatal(err)
	}

	rs.Run()

	if len(sender.calls) != 1 {
		t.Fatalf("expected one send, got %d", len(sender.calls))
	}
	sent := sender.calls[0]
	if len(sent.agenda.Today) != 1 || sent.agenda.Today[0].ID != "cr1" {
		t.Errorf("expected cr1 due today, got %+v", sent.agenda)
	}
	if sent.names["c1"] != "Maria Lopez" {
		t.Errorf("expected resolved client name, got %v", sent.names)
	}
	if !sent.day.Equal(due) {
		t.Errorf("expected business day %s, got %s", due, sent.day)
	}
}

func TestReminderRun_SkipsWhenNothingDue(t *testing.T) {
	now := time.Date(2025, time.June, 4, 7, 0, 0, 0, time.UTC)
	mem, sender, rs := newReminderFixture(now)
	ctx := context.Background()

	// A credit due far in the future is outside the agenda window.
	due := time.Date(2025, time.July, 20, 0, 0, 0, 0, time.UTC)
	cr := &credit.Credit{
		ID:              "cr1",
		ClientID:        "c1",
		Status:          credit.StatusActive,
		TotalAmount:     decimal.NewFromInt(200),
		NextPaymentDate: &due,
		PaymentHistory:  []credit.PaymentEntry{},
	}
	if err := mem.SaveCredit(ctx, cr); err != nil {
		t.Fatal(err)
	}

	rs.Run()

	if len(sender.calls) != 0 {
		t.Errorf("expected no send for an empty agenda, got %d", len(sender.calls))
	}
}
