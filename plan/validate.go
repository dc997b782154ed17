package plan

import (
	"strings"

	"github.com/cyp0633/openinvite/internal/dates"
)

// Validate checks a create payload. Recurring inputs are additionally
// checked for a series that would contain no occurrence at all.
func (in Input) Validate() error {
	if err := validateCore(in.Title, in.Location, in.TotalSpots, in.Date, in.RSVPDeadline, in.Time); err != nil {
		return err
	}
	if in.Visibility != nil {
		if err := in.Visibility.Validate(); err != nil {
			return err
		}
	}
	if in.IsRecurring() {
		return in.Recurrence.Validate(in.Date)
	}
	return nil
}

// Validate checks a stored plan, including the capacity invariant.
func (p *Plan) Validate() error {
	if err := validateCore(p.Title, p.Location, p.TotalSpots, p.Date, p.RSVPDeadline, p.Time); err != nil {
		return err
	}
	if p.FilledSpots < 0 || p.FilledSpots > p.TotalSpots {
		return Invalid("filledSpots", "must be between 0 and totalSpots")
	}
	if p.Visibility != nil {
		return p.Visibility.Validate()
	}
	return nil
}

func validateCore(title, location string, totalSpots int, date, deadline dates.Date, at dates.TimeOfDay) error {
	if strings.TrimSpace(title) == "" {
		return Invalid("title", "must not be empty")
	}
	if strings.TrimSpace(location) == "" {
		return Invalid("location", "must not be empty")
	}
	if totalSpots < 1 {
		return Invalid("totalSpots", "must be at least 1")
	}
	if !date.IsValid() {
		return Invalid("date", "must be a calendar date")
	}
	if !deadline.IsValid() {
		return Invalid("rsvpDeadline", "must be a calendar date")
	}
	if deadline.After(date) {
		return Invalid("rsvpDeadline", "must not be after the plan date")
	}
	if !at.IsValid() {
		return Invalid("time", "must be a wall-clock time")
	}
	return nil
}

// Validate checks the audience rule. Empty id sets are allowed; they simply
// match nobody.
func (v *Visibility) Validate() error {
	switch v.Type {
	case "", VisibleToEveryone, VisibleToFriends, VisibleToGroups, VisibleToPeople:
		return nil
	}
	return Invalid("visibility", "unknown type "+string(v.Type))
}

// Validate checks that a recurrence anchored at start yields at least one
// occurrence.
func (r *Recurrence) Validate(start dates.Date) error {
	switch r.Type {
	case RecurrenceNone, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly, RecurrenceCustom:
	default:
		return Invalid("recurrence.type", "unknown type "+string(r.Type))
	}
	switch r.End.Type {
	case "", EndNever:
	case EndAfter:
		if r.End.Occurrences < 1 {
			return Invalid("recurrence.end.occurrences", "series would have no occurrences")
		}
	case EndOnDate:
		if r.End.EndDate == nil {
			return Invalid("recurrence.end.endDate", "must be set")
		}
		if r.End.EndDate.Before(start) {
			return Invalid("recurrence.end.endDate", "series would have no occurrences")
		}
	default:
		return Invalid("recurrence.end.type", "unknown type "+string(r.End.Type))
	}
	return nil
}
