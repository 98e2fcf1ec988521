/*
schedule.go - Next-payment-date calculator

PURPOSE:
  Derives the next due date for a credit from its schedule parameters and a
  caller-supplied reference day. The calculator is a pure function: it never
  reads the wall clock, so collection timing is fully testable.

SCHEDULES:
  Weekly:   One business day per week, numbered Monday=1..Sunday=7. The
            numbering is converted to the calendar library's Sunday=0 form
            with a mod-7. If the target day is today or already passed this
            week, the date rolls a FULL week forward: a payment due "today"
            is always scheduled for next week's occurrence. That rollover is
            a deliberate policy and must not be "fixed" to same-day.

  Biweekly: A set of day-of-month anchors, e.g. [5, 20]. The next date is
            the smallest anchor strictly after today's day-of-month, in the
            current month; if all anchors have passed, the first anchor of
            the next month. Month and year wrapping is delegated to
            time.Date normalization, never hand-rolled day math.

TIMEZONE:
  All dates are midnights in a fixed business timezone, carried by Calendar.
  The zone is configuration, not an ambient global.

SEE ALSO:
  - engine.go:     Callers (creation, payment deletion, terms update)
  - projection.go: Agenda partitioning uses the same midnight normalization
*/
package credit

import (
	"sort"
	"time"
)

// DefaultTimezone is the business timezone used when none is configured.
const DefaultTimezone = "America/Bogota"

// =============================================================================
// CALENDAR - Business-timezone date normalization
// =============================================================================

// Calendar normalizes instants to business-day midnights.
type Calendar struct {
	loc *time.Location
}

// NewCalendar loads the business timezone.
func NewCalendar(tz string) (Calendar, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Calendar{}, validationf("timezone", "unknown timezone %q: %v", tz, err)
	}
	return Calendar{loc: loc}, nil
}

// MustCalendar is NewCalendar for compile-time-known zones.
func MustCalendar(tz string) Calendar {
	c, err := NewCalendar(tz)
	if err != nil {
		panic(err)
	}
	return c
}

// Location exposes the business timezone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Today truncates an instant to midnight of its business day.
func (c Calendar) Today(now time.Time) time.Time {
	t := now.In(c.Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location())
}

// StartOfMonth returns midnight on the first day of the instant's month.
func (c Calendar) StartOfMonth(now time.Time) time.Time {
	t := now.In(c.Location())
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, c.Location())
}

// EndOfDay returns the last nanosecond of the instant's business day.
// Used for inclusive date-range report bounds.
func (c Calendar) EndOfDay(t time.Time) time.Time {
	return c.Today(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// =============================================================================
// SCHEDULE VALIDATION
// =============================================================================

// ValidateSchedule checks schedule parameters for a frequency.
// An empty anchor set for biweekly credits is rejected here, at creation
// time, rather than producing an undefined next date later.
func ValidateSchedule(freq Frequency, dayOfWeek int, daysOfMonth []int) error {
	switch freq {
	case FrequencyWeekly:
		if dayOfWeek < 1 || dayOfWeek > 7 {
			return validationf("paymentDayOfWeek", "must be 1 (Monday) through 7 (Sunday), got %d", dayOfWeek)
		}
	case FrequencyBiweekly:
		if len(daysOfMonth) == 0 {
			return validationf("paymentDaysOfMonth", "at least one day-of-month anchor is required")
		}
		for _, d := range daysOfMonth {
			if d < 1 || d > 31 {
				return validationf("paymentDaysOfMonth", "day %d outside 1..31", d)
			}
		}
	default:
		return validationf("paymentFrequency", "must be %q or %q, got %q", FrequencyWeekly, FrequencyBiweekly, freq)
	}
	return nil
}

// =============================================================================
// NEXT-PAYMENT-DATE CALCULATOR
// =============================================================================

// NextPaymentDate computes the next due date for a credit's schedule,
// strictly after the given business day. today must already be a business
// midnight (Calendar.Today); the result is a business midnight too.
func (cal Calendar) NextPaymentDate(today time.Time, freq Frequency, dayOfWeek int, daysOfMonth []int) (time.Time, error) {
	if err := ValidateSchedule(freq, dayOfWeek, daysOfMonth); err != nil {
		return time.Time{}, err
	}

	switch freq {
	case FrequencyWeekly:
		// Sunday=7 becomes Sunday=0 to line up with time.Weekday.
		paymentDay := dayOfWeek % 7
		current := int(today.Weekday())
		daysUntil := paymentDay - current
		if daysUntil <= 0 {
			// Target is today or already passed this week: roll a full
			// week forward. Due-today never schedules same-day.
			daysUntil += 7
		}
		return today.AddDate(0, 0, daysUntil), nil

	default: // FrequencyBiweekly, guaranteed by validation above
		anchors := append([]int(nil), daysOfMonth...)
		sort.Ints(anchors)

		for _, day := range anchors {
			if day > today.Day() {
				// time.Date normalizes day overflow (e.g. Feb 31)
				// into the following month.
				return time.Date(today.Year(), today.Month(), day, 0, 0, 0, 0, cal.Location()), nil
			}
		}
		// Past every anchor this month: first anchor of next month.
		// time.Date wraps December into January of the next year.
		return time.Date(today.Year(), today.Month()+1, anchors[0], 0, 0, 0, 0, cal.Location()), nil
	}
}

// NextPaymentDateFor recomputes the due date from a credit's own schedule.
func (cal Calendar) NextPaymentDateFor(c *Credit, today time.Time) (time.Time, error) {
	return cal.NextPaymentDate(today, c.PaymentFrequency, c.PaymentDayOfWeek, c.PaymentDaysOfMonth)
}

// SameDay reports whether two instants fall on the same business day.
func (c Calendar) SameDay(a, b time.Time) bool {
	return c.Today(a).Equal(c.Today(b))
}
