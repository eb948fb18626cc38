package core

import "time"

// ResolveCycle computes the active reward cycle containing ref.
//
// For PeriodMonthly the cycle is ref's calendar month and anchorDay is
// ignored. For PeriodStatementCycle anchorDay is the statement closing date:
// the cycle runs from the day after the previous closing at 00:00:00 through
// the next closing at 23:59:59. A closing day longer than the month is
// clamped to the month's last day.
func ResolveCycle(anchorDay int, period PeriodKind, ref time.Time) (start, end time.Time) {
	loc := ref.Location()
	year, month, _ := ref.Date()

	if period == PeriodMonthly {
		start = time.Date(year, month, 1, 0, 0, 0, 0, loc)
		end = time.Date(year, month+1, 0, 23, 59, 59, 0, loc)
		return start, end
	}

	closeYear, closeMonth := year, month
	if ref.Day() > clampToMonth(closeYear, closeMonth, anchorDay) {
		closeYear, closeMonth = addMonth(closeYear, closeMonth, 1)
	}
	end = time.Date(closeYear, closeMonth, clampToMonth(closeYear, closeMonth, anchorDay), 23, 59, 59, 0, loc)

	prevYear, prevMonth := addMonth(closeYear, closeMonth, -1)
	prevClosing := time.Date(prevYear, prevMonth, clampToMonth(prevYear, prevMonth, anchorDay), 0, 0, 0, 0, loc)
	start = prevClosing.AddDate(0, 0, 1)
	return start, end
}

// clampToMonth keeps day inside the month's valid range.
func clampToMonth(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	if day < 1 {
		return 1
	}
	return day
}

func addMonth(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
