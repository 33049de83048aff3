package lookup

import "time"

// DateRange identifies one of the relative date windows offered by the
// finding filter's "date" select.
type DateRange int

const (
	Today DateRange = iota + 1
	PastSevenDays
	PastThirtyDays
	PastNinetyDays
	CurrentMonth
	CurrentYear
	PastYear
)

// Date lookup keys written by ApplyDateRange.
const (
	DateYear  = "date__year"
	DateMonth = "date__month"
	DateDay   = "date__day"
	DateGTE   = "date__gte"
	DateLT    = "date__lt"
)

// String returns the label shown in the filter select.
func (d DateRange) String() string {
	switch d {
	case Today:
		return "Today"
	case PastSevenDays:
		return "Past 7 days"
	case PastThirtyDays:
		return "Past 30 days"
	case PastNinetyDays:
		return "Past 90 days"
	case CurrentMonth:
		return "Current month"
	case CurrentYear:
		return "Current year"
	case PastYear:
		return "Past year"
	default:
		return "Any date"
	}
}

// ApplyDateRange writes the bounds for code into m using now as reference.
// Windows are day-truncated and end at the start of tomorrow. Unknown codes
// leave m untouched.
func ApplyDateRange(code DateRange, m Lookup, now time.Time) {
	if m == nil {
		return
	}
	switch code {
	case Today:
		m[DateYear] = now.Year()
		m[DateMonth] = int(now.Month())
		m[DateDay] = now.Day()
	case PastSevenDays:
		applyWindow(m, now, 7)
	case PastThirtyDays:
		applyWindow(m, now, 30)
	case PastNinetyDays:
		applyWindow(m, now, 90)
	case CurrentMonth:
		m[DateYear] = now.Year()
		m[DateMonth] = int(now.Month())
	case CurrentYear:
		m[DateYear] = now.Year()
	case PastYear:
		applyWindow(m, now, 365)
	}
}

func applyWindow(m Lookup, now time.Time, days int) {
	m[DateGTE] = Truncate(now.AddDate(0, 0, -days))
	m[DateLT] = Truncate(now.AddDate(0, 0, 1))
}

// Truncate drops the time of day from t, keeping its location.
func Truncate(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
