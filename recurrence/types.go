package recurrence

import (
	"github.com/cyp0633/openinvite/internal/dates"
)

// Occurrence is one dated slot of a series
type Occurrence struct {
	Index    int        // Zero-based position in the series
	Date     dates.Date // Date of the gathering
	Deadline dates.Date // RSVP deadline, same gap to Date as the template
}

// Window bounds how much of a series is materialized at once
type Window struct {
	FromIndex int         // First instance index to include
	Limit     int         // Maximum occurrences to return (0 = no count limit)
	Horizon   *dates.Date // Last date to include (nil = no date limit)
}

// bounded reports whether the window can terminate on a never-ending rule
func (w Window) bounded() bool {
	return w.Limit > 0 || w.Horizon != nil
}
