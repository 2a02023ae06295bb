package ndbc

import (
	"fmt"
	"time"
)

// DateFromRaw builds a UTC timestamp from the leading date columns of an NDBC
// row: year, month, day, hour and, from 2005 on, minute.
//
// Two legacy corrections are applied exactly as the archive loaders always
// have. A year below 1900 gets 1900 added, so "8" becomes 1908. A nonzero
// minute is treated as a clock offset and pushed forward to the next hour by
// 60-minute minutes; starting mid 2008 buoy 46022 logs met data at :50 while
// spectra stay on the hour.
func DateFromRaw(fields []int) (time.Time, error) {
	if len(fields) != 4 && len(fields) != 5 {
		return time.Time{}, fmt.Errorf("expected 4 or 5 date fields, got %d", len(fields))
	}

	year, month, day, hour := fields[0], fields[1], fields[2], fields[3]
	minute := 0
	if len(fields) == 5 {
		minute = fields[4]
	}

	if year < 1900 {
		year += 1900
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month out of range: %d", month)
	}
	if day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, fmt.Errorf("day out of range: %d", day)
	}
	if hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("hour out of range: %d", hour)
	}
	if minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("minute out of range: %d", minute)
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if minute != 0 {
		t = t.Add(time.Duration(60-minute) * time.Minute)
	}
	return t, nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
