package credit_test

import (
	"errors"
	"testing"
	"time"

	"github.com/crediario/credit-engine/credit"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var utc = credit.MustCalendar("UTC")

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// WEEKLY SCHEDULE
// =============================================================================

func TestWeekly_DueToday_RollsFullWeekForward(t *testing.T) {
	// GIVEN: Payment day Wednesday (3), today is a Wednesday
	// WHEN: Computing the next due date
	// THEN: The result is NEXT Wednesday, never today

	today := day(2025, time.June, 4) // Wednesday
	next, err := utc.NextPaymentDate(today, credit.FrequencyWeekly, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := day(2025, time.June, 11); !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next)
	}
}

func TestWeekly_TargetLaterThisWeek(t *testing.T) {
	// GIVEN: Payment day Wednesday, today is Monday
	today := day(2025, time.June, 2) // Monday
	next, err := utc.NextPaymentDate(today, credit.FrequencyWeekly, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := day(2025, time.June, 4); !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next)
	}
}

func TestWeekly_TargetAlreadyPassed_NextWeek(t *testing.T) {
	// GIVEN: Payment day Wednesday, today is Friday
	today := day(2025, time.June, 6) // Friday
	next, err := utc.NextPaymentDate(today, credit.FrequencyWeekly, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := day(2025, time.June, 11); !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next)
	}
}

func TestWeekly_SundayIsSeven(t *testing.T) {
	// GIVEN: Payment day Sunday expressed as 7 (the engine numbers
	// Monday=1..Sunday=7; the calendar library numbers Sunday=0)
	// THEN: mod-7 conversion lands on the following Sunday

	today := day(2025, time.June, 5) // Thursday
	next, err := utc.NextPaymentDate(today, credit.FrequencyWeekly, 7, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := day(2025, time.June, 8); !next.Equal(want) {
		t.Errorf("expected Sunday %s, got %s", want, next)
	}

	// Due today (a Sunday) rolls a full week.
	next, err = utc.NextPaymentDate(day(2025, time.June, 8), credit.FrequencyWeekly, 7, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := day(2025, time.June, 15); !next.Equal(want) {
		t.Errorf("expected next Sunday %s, got %s", want, next)
	}
}

func TestWeekly_InvalidDayOfWeek(t *testing.T) {
	for _, bad := range []int{0, 8, -1} {
		_, err := utc.NextPaymentDate(day(2025, time.June, 2), credit.FrequencyWeekly, bad, nil)
		if !errors.Is(err, credit.ErrInvalidInput) {
			t.Errorf("day %d: expected validation error, got %v", bad, err)
		}
	}
}

// =============================================================================
// BIWEEKLY SCHEDULE
// =============================================================================

func TestBiweekly_NextAnchorThisMonth(t *testing.T) {
	// GIVEN: Anchors [5, 20], today is the 10th
	// THEN: Next date is the 20th of the same month

	next, err := utc.NextPaymentDate(day(2025, time.June, 10), credit.FrequencyBiweekly, 0, []int{5, 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := day(2025, time.June, 20); !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next)
	}
}

func TestBiweekly_PastAllAnchors_FirstOfNextMonth(t *testing.T) {
	// GIVEN: Anchors [5, 20], today is the 25th
	next, err := utc.NextPaymentDate(day(2025, time.June, 25), credit.FrequencyBiweekly, 0, []int{5, 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := day(2025, time.July, 5); !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next)
	}
}

func TestBiweekly_DecemberWrapsToNextYear(t *testing.T) {
	next, err := utc.NextPaymentDate(day(2025, time.December, 25), credit.FrequencyBiweekly, 0, []int{5, 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := day(2026, time.January, 5); !next.Equal(want) {
		t.Errorf("expected year rollover to %s, got %s", want, next)
	}
}

func TestBiweekly_AnchorsNeedNotBeSorted(t *testing.T) {
	next, err := utc.NextPaymentDate(day(2025, time.June, 10), credit.FrequencyBiweekly, 0, []int{20, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := day(2025, time.June, 20); !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next)
	}
}

func TestBiweekly_AnchorDueToday_SkipsToNext(t *testing.T) {
	// An anchor equal to today's day-of-month is not "strictly greater":
	// the 20th on the 20th schedules next month's 5th... unless a later
	// anchor exists this month.
	next, err := utc.NextPaymentDate(day(2025, time.June, 20), credit.FrequencyBiweekly, 0, []int{5, 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := day(2025, time.July, 5); !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next)
	}
}

func TestBiweekly_EmptyAnchors_Rejected(t *testing.T) {
	_, err := utc.NextPaymentDate(day(2025, time.June, 10), credit.FrequencyBiweekly, 0, nil)
	if !errors.Is(err, credit.ErrInvalidInput) {
		t.Errorf("expected validation error for empty anchors, got %v", err)
	}
}

func TestBiweekly_OverflowAnchorNormalizes(t *testing.T) {
	// Anchor 31 in February normalizes forward, matching calendar
	// normalization rather than clamping.
	next, err := utc.NextPaymentDate(day(2025, time.February, 10), credit.FrequencyBiweekly, 0, []int{31})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := day(2025, time.March, 3); !next.Equal(want) {
		t.Errorf("expected normalized %s, got %s", want, next)
	}
}

// =============================================================================
// CALENDAR NORMALIZATION
// =============================================================================

func TestCalendar_TodayUsesBusinessTimezone(t *testing.T) {
	// GIVEN: The Bogota business timezone (UTC-5)
	// WHEN: Normalizing an instant that is already "tomorrow" in UTC
	// THEN: The business day is still the local date

	cal := credit.MustCalendar("America/Bogota")
	instant := time.Date(2025, time.June, 5, 3, 30, 0, 0, time.UTC) // 22:30 Jun 4 in Bogota

	got := cal.Today(instant)
	if got.Year() != 2025 || got.Month() != time.June || got.Day() != 4 {
		t.Errorf("expected business day 2025-06-04, got %s", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("expected midnight, got %s", got)
	}
}

func TestCalendar_UnknownTimezoneRejected(t *testing.T) {
	_, err := credit.NewCalendar("Not/AZone")
	if !errors.Is(err, credit.ErrInvalidInput) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestValidateSchedule_UnknownFrequency(t *testing.T) {
	err := credit.ValidateSchedule(credit.Frequency("monthly"), 0, nil)
	if !errors.Is(err, credit.ErrInvalidInput) {
		t.Errorf("expected validation error, got %v", err)
	}
}
