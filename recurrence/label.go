package recurrence

import (
	"fmt"

	"github.com/cyp0633/openinvite/plan"
)

// Label returns the human-readable summary shown next to a recurring plan,
// e.g. "Repeats weekly" or "Repeats every 10 days". Plans that do not repeat
// get an empty label.
func Label(p *plan.Plan) string {
	if p == nil || p.Recurrence == nil {
		return ""
	}

	r := p.Recurrence
	switch r.Type {
	case plan.RecurrenceWeekly:
		return "Repeats weekly"
	case plan.RecurrenceBiweekly:
		return "Repeats every 2 weeks"
	case plan.RecurrenceMonthly:
		return "Repeats monthly"
	case plan.RecurrenceCustom:
		switch n := r.Interval(); n {
		case 1:
			return "Repeats daily"
		default:
			return fmt.Sprintf("Repeats every %d days", n)
		}
	}
	return ""
}
