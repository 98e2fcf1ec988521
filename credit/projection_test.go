package credit_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crediario/credit-engine/credit"
)

// creditDue builds a minimal active credit due on the given day.
func creditDue(id string, due time.Time) *credit.Credit {
	return &credit.Credit{
		ID:              id,
		Status:          credit.StatusActive,
		TotalAmount:     decimal.NewFromInt(100),
		NextPaymentDate: &due,
	}
}

// =============================================================================
// AGENDA
// =============================================================================

func TestBuildAgenda_PartitionsByDueDate(t *testing.T) {
	// GIVEN: Credits due today, in 3 days, in exactly 7 days, in 8 days,
	//        and one overdue
	// WHEN: The agenda is built
	// THEN: Today and the 7-day window are bucketed; overdue and beyond
	//       fall in neither

	now := day(2025, time.June, 10)
	credits := []*credit.Credit{
		creditDue("due-today", day(2025, time.June, 10)),
		creditDue("due-soon", day(2025, time.June, 13)),
		creditDue("due-window-edge", day(2025, time.June, 17)),
		creditDue("due-later", day(2025, time.June, 18)),
		creditDue("overdue", day(2025, time.June, 8)),
	}

	agenda := utc.BuildAgenda(credits, now)

	if len(agenda.Today) != 1 || agenda.Today[0].ID != "due-today" {
		t.Errorf("unexpected today bucket: %+v", ids(agenda.Today))
	}
	if len(agenda.Upcoming) != 2 {
		t.Fatalf("expected 2 upcoming, got %v", ids(agenda.Upcoming))
	}
	if agenda.Upcoming[0].ID != "due-soon" || agenda.Upcoming[1].ID != "due-window-edge" {
		t.Errorf("unexpected upcoming bucket: %v", ids(agenda.Upcoming))
	}
}

func TestBuildAgenda_SkipsPaidAndUnscheduled(t *testing.T) {
	now := day(2025, time.June, 10)
	due := day(2025, time.June, 10)

	paid := creditDue("paid", due)
	paid.Status = credit.StatusPaid
	unscheduled := creditDue("unscheduled", due)
	unscheduled.NextPaymentDate = nil

	agenda := utc.BuildAgenda([]*credit.Credit{paid, unscheduled}, now)
	if len(agenda.Today) != 0 || len(agenda.Upcoming) != 0 {
		t.Errorf("expected empty agenda, got today=%v upcoming=%v", ids(agenda.Today), ids(agenda.Upcoming))
	}
}

func ids(credits []*credit.Credit) []string {
	out := make([]string, 0, len(credits))
	for _, c := range credits {
		out = append(out, c.ID)
	}
	return out
}

// =============================================================================
// SUMMARY REPORT
// =============================================================================

func TestBuildSummary_AggregatesAcrossCredits(t *testing.T) {
	// GIVEN: An active credit with one May and one June payment, plus a
	//        paid credit with an April payment
	// WHEN: The summary is built on June 10th
	// THEN: Outstanding counts only the active credit; all-time collected
	//       counts everything; current-month counts the June payment only

	active := creditDue("active", day(2025, time.June, 11))
	active.TotalAmount = money("250.00")
	active.PaymentHistory = []credit.PaymentEntry{
		{Amount: money("50.00"), Date: day(2025, time.May, 20)},
		{Amount: money("70.00"), Date: day(2025, time.June, 3)},
	}

	paid := creditDue("paid", day(2025, time.April, 10))
	paid.Status = credit.StatusPaid
	paid.TotalAmount = decimal.Zero
	paid.NextPaymentDate = nil
	paid.PaymentHistory = []credit.PaymentEntry{
		{Amount: money("120.00"), Date: day(2025, time.April, 9)},
	}

	s := utc.BuildSummary([]*credit.Credit{active, paid}, day(2025, time.June, 10))

	assertMoney(t, "totalDue", s.TotalDue, money("250.00"))
	assertMoney(t, "totalCollected", s.TotalCollected, money("240.00"))
	assertMoney(t, "currentMonthCollected", s.CurrentMonthCollected, money("70.00"))
}

func TestBuildSummary_FirstOfMonthPaymentCounts(t *testing.T) {
	c := creditDue("c", day(2025, time.June, 11))
	c.PaymentHistory = []credit.PaymentEntry{
		{Amount: money("40.00"), Date: day(2025, time.June, 1)},
	}

	s := utc.BuildSummary([]*credit.Credit{c}, day(2025, time.June, 10))
	assertMoney(t, "currentMonthCollected", s.CurrentMonthCollected, money("40.00"))
}

// =============================================================================
// COMPLETED SALES
// =============================================================================

func TestCompletedBetween_InclusiveRangeSortedRecentFirst(t *testing.T) {
	completedOn := func(id string, done time.Time) *credit.Credit {
		return &credit.Credit{ID: id, Status: credit.StatusPaid, CompletionDate: &done}
	}

	credits := []*credit.Credit{
		completedOn("on-start", day(2025, time.June, 1)),
		completedOn("mid", day(2025, time.June, 15)),
		completedOn("on-end", day(2025, time.June, 30)),
		completedOn("before", day(2025, time.May, 31)),
		completedOn("after", day(2025, time.July, 1)),
		creditDue("still-active", day(2025, time.June, 15)),
	}

	out := utc.CompletedBetween(credits, day(2025, time.June, 1), day(2025, time.June, 30))

	got := ids(out)
	want := []string{"on-end", "mid", "on-start"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCompletedBetween_EndOfDayInclusive(t *testing.T) {
	// A completion stamped late in the evening of the end date is still in
	// range.
	done := time.Date(2025, time.June, 30, 22, 45, 0, 0, time.UTC)
	c := &credit.Credit{ID: "late", Status: credit.StatusPaid, CompletionDate: &done}

	out := utc.CompletedBetween([]*credit.Credit{c}, day(2025, time.June, 1), day(2025, time.June, 30))
	if len(out) != 1 {
		t.Fatalf("expected the late completion in range, got %v", ids(out))
	}
}
