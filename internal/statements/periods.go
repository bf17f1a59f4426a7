package statements

import (
	"time"
)

// Frequency selects the calendar bucket size for a period summary.
type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// ParseFrequency maps a request string to a Frequency, defaulting to
// monthly for unknown values.
func ParseFrequency(s string) Frequency {
	switch Frequency(s) {
	case Daily, Weekly, Monthly, Quarterly, Yearly:
		return Frequency(s)
	default:
		return Monthly
	}
}

const dateLayout = "2006-01-02"

// periodEnds returns the calendar period-end dates that fall inside
// [start, end]: every day for daily, Sundays for weekly, last day of the
// month / quarter / year otherwise.
func periodEnds(start, end time.Time, freq Frequency) []time.Time {
	var ends []time.Time
	switch freq {
	case Daily:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			ends = append(ends, d)
		}
	case Weekly:
		d := start
		for d.Weekday() != time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		for ; !d.After(end); d = d.AddDate(0, 0, 7) {
			ends = append(ends, d)
		}
	case Monthly:
		d := endOfMonth(start)
		for ; !d.After(end); d = endOfMonth(d.AddDate(0, 0, 1)) {
			if !d.Before(start) {
				ends = append(ends, d)
			}
		}
	case Quarterly:
		d := endOfQuarter(start)
		for ; !d.After(end); d = endOfQuarter(d.AddDate(0, 0, 1)) {
			if !d.Before(start) {
				ends = append(ends, d)
			}
		}
	case Yearly:
		for y := start.Year(); ; y++ {
			d := time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
			if d.After(end) {
				break
			}
			if !d.Before(start) {
				ends = append(ends, d)
			}
		}
	}
	return ends
}

// periodStart returns the first day of the calendar period containing d.
func periodStart(d time.Time, freq Frequency) time.Time {
	switch freq {
	case Daily:
		return d
	case Weekly:
		// Weeks run Monday through Sunday.
		offset := int(d.Weekday()) - int(time.Monday)
		if offset < 0 {
			offset += 7
		}
		return d.AddDate(0, 0, -offset)
	case Monthly:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Quarterly:
		startMonth := time.Month(((int(d.Month())-1)/3)*3 + 1)
		return time.Date(d.Year(), startMonth, 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return d
}

func endOfMonth(d time.Time) time.Time {
	firstOfNext := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

func endOfQuarter(d time.Time) time.Time {
	endMonth := time.Month(((int(d.Month())-1)/3)*3 + 3)
	return endOfMonth(time.Date(d.Year(), endMonth, 1, 0, 0, 0, 0, time.UTC))
}

// label formats a bucket's period label: YYYY-MM for monthly buckets,
// YYYY-MM-DD otherwise.
func label(periodEnd time.Time, freq Frequency) string {
	if freq == Monthly {
		return periodEnd.Format("2006-01")
	}
	return periodEnd.Format(dateLayout)
}
