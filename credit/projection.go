/*
projection.go - Read-only agenda and reporting projections

PURPOSE:
  Pure derivations over persisted credits. Nothing here mutates state;
  callers load credits from the store and hand them in together with an
  explicit reference instant.

PROJECTIONS:
  Agenda           Partition active credits into "due today" and
                   "due within 7 days"
  Summary          Outstanding total, all-time collected, collected
                   this calendar month
  CompletedBetween Paid credits whose completion date falls in a range,
                   most recent first

DATE SEMANTICS:
  All comparisons are at business-day granularity in the configured
  timezone. "Upcoming" means strictly after today and at most seven days
  out; overdue credits fall in neither bucket.

SEE ALSO:
  - schedule.go: Calendar normalization used throughout
  - api/handlers.go: HTTP exposure of these projections
*/
package credit

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGENDA
// =============================================================================

// Agenda partitions active credits by due date.
type Agenda struct {
	Today    []*Credit `json:"today"`
	Upcoming []*Credit `json:"upcoming"`
}

// BuildAgenda walks active credits and buckets them by their next due date
// relative to the reference instant's business day.
func (cal Calendar) BuildAgenda(credits []*Credit, now time.Time) Agenda {
	today := cal.Today(now)
	upcomingLimit := today.AddDate(0, 0, 7)

	agenda := Agenda{Today: []*Credit{}, Upcoming: []*Credit{}}
	for _, c := range credits {
		if c.Status != StatusActive || c.NextPaymentDate == nil {
			continue
		}
		due := cal.Today(*c.NextPaymentDate)
		switch {
		case due.Equal(today):
			agenda.Today = append(agenda.Today, c)
		case due.After(today) && !due.After(upcomingLimit):
			agenda.Upcoming = append(agenda.Upcoming, c)
		}
	}
	return agenda
}

// =============================================================================
// SUMMARY REPORT
// =============================================================================

// Summary aggregates collection figures across all credits.
type Summary struct {
	// TotalDue sums outstanding balances of active credits.
	TotalDue decimal.Decimal `json:"totalDue"`
	// TotalCollected sums every historical payment across all credits.
	TotalCollected decimal.Decimal `json:"totalCollected"`
	// CurrentMonthCollected sums payments dated on/after the first day of
	// the current calendar month.
	CurrentMonthCollected decimal.Decimal `json:"currentMonthCollected"`
}

// BuildSummary derives the summary report at the reference instant.
func (cal Calendar) BuildSummary(credits []*Credit, now time.Time) Summary {
	startOfMonth := cal.StartOfMonth(now)

	s := Summary{
		TotalDue:              decimal.Zero,
		TotalCollected:        decimal.Zero,
		CurrentMonthCollected: decimal.Zero,
	}
	for _, c := range credits {
		if c.Status == StatusActive {
			s.TotalDue = s.TotalDue.Add(c.TotalAmount)
		}
		for _, p := range c.PaymentHistory {
			s.TotalCollected = s.TotalCollected.Add(p.Amount)
			if !p.Date.In(cal.Location()).Before(startOfMonth) {
				s.CurrentMonthCollected = s.CurrentMonthCollected.Add(p.Amount)
			}
		}
	}
	return s
}

// =============================================================================
// COMPLETED SALES
// =============================================================================

// CompletedBetween returns paid credits completed within [start, end],
// end-inclusive to the last instant of its business day, sorted most
// recent first.
func (cal Calendar) CompletedBetween(credits []*Credit, start, end time.Time) []*Credit {
	from := cal.Today(start)
	to := cal.EndOfDay(end)

	var out []*Credit
	for _, c := range credits {
		if c.Status != StatusPaid || c.CompletionDate == nil {
			continue
		}
		done := c.CompletionDate.In(cal.Location())
		if !done.Before(from) && !done.After(to) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletionDate.After(*out[j].CompletionDate)
	})
	return out
}
