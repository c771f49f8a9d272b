package usecase

import (
	"fmt"
	"strings"
	"time"

	"car-rental/pkg/apperror"
)

const dateLayout = "2006-01-02"

// DateRange is a validated half-open range of calendar days [Start, End).
// Both bounds are midnight UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Days() int {
	return RentalDays(r.Start, r.End)
}

type DateRangeOptions struct {
	// Today is the first calendar day a new range may start on.
	Today time.Time
	// AllowPast skips the Today check, e.g. for an edit that keeps the
	// original start date.
	AllowPast bool
}

// ValidateDateRange parses both bounds and checks, in order, that they are
// well formed, that start is before end, and that start is not before today.
func ValidateDateRange(start, end string, opts DateRangeOptions) (DateRange, error) {
	startDay, err := parseDay(start)
	if err != nil {
		return DateRange{}, apperror.Validation(apperror.CodeMalformed,
			fmt.Sprintf("start_date %q is not a valid date (expected YYYY-MM-DD)", start)).Wrap(err)
	}
	endDay, err := parseDay(end)
	if err != nil {
		return DateRange{}, apperror.Validation(apperror.CodeMalformed,
			fmt.Sprintf("end_date %q is not a valid date (expected YYYY-MM-DD)", end)).Wrap(err)
	}

	if !startDay.Before(endDay) {
		return DateRange{}, apperror.Validation(apperror.CodeInverted, "start_date must be before end_date")
	}

	if !opts.AllowPast && startDay.Before(Today(opts.Today)) {
		return DateRange{}, apperror.Validation(apperror.CodeInPast, "start_date cannot be in the past")
	}

	return DateRange{Start: startDay, End: endDay}, nil
}

// Today truncates t to its UTC calendar day.
func Today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseDay accepts YYYY-MM-DD or an RFC 3339 timestamp.
func parseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return Today(t), nil
}

func formatDay(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
