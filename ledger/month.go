package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - Calendar month key (this IS a monthly budgeting system)
// =============================================================================

// Month identifies one calendar month. It is the key type for BudgetMonth
// and CategoryMonth rows and for the cascade's forward walk.
type Month struct {
	Year int
	Mon  time.Month
}

// Constructors
func NewMonth(year int, mon time.Month) Month { return Month{Year: year, Mon: mon} }

func MonthOf(t time.Time) Month { return Month{Year: t.Year(), Mon: t.Month()} }

func CurrentMonth() Month { return MonthOf(time.Now().UTC()) }

// ParseMonth parses "2006-01".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (use YYYY-MM): %w", s, err)
	}
	return MonthOf(t), nil
}

// Arithmetic
func (m Month) Next() Month { return MonthOf(m.FirstDay().AddDate(0, 1, 0)) }
func (m Month) Prev() Month { return MonthOf(m.FirstDay().AddDate(0, -1, 0)) }

// Comparison
func (m Month) Equal(o Month) bool { return m.Year == o.Year && m.Mon == o.Mon }
func (m Month) Before(o Month) bool {
	return m.Year < o.Year || (m.Year == o.Year && m.Mon < o.Mon)
}
func (m Month) After(o Month) bool { return o.Before(m) }

// Properties
func (m Month) IsZero() bool { return m.Year == 0 && m.Mon == 0 }

// FirstDay returns the first-of-month date in UTC.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Mon, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) String() string { return m.FirstDay().Format("2006-01") }
