package plan

import (
	"github.com/samber/mo"

	"github.com/cyp0633/openinvite/internal/dates"
)

// Fields is a partial update. Only present options are applied. The id,
// creation time and filled spots are not updatable; filled spots belong to
// the RSVP ledger.
type Fields struct {
	Title        mo.Option[string]
	Date         mo.Option[dates.Date]
	Time         mo.Option[dates.TimeOfDay]
	Location     mo.Option[string]
	TotalSpots   mo.Option[int]
	RSVPDeadline mo.Option[dates.Date]
	Notes        mo.Option[string]
	Visibility   mo.Option[*Visibility]
	Recurrence   mo.Option[*Recurrence]
}

// IsEmpty reports whether no field is set.
func (f Fields) IsEmpty() bool {
	return f.Title.IsAbsent() && f.Date.IsAbsent() && f.Time.IsAbsent() &&
		f.Location.IsAbsent() && f.TotalSpots.IsAbsent() && f.RSVPDeadline.IsAbsent() &&
		f.Notes.IsAbsent() && f.Visibility.IsAbsent() && f.Recurrence.IsAbsent()
}

// SeriesWide strips the fields that stay per occurrence during a series edit:
// date, time, deadline and recurrence. Propagating them would collapse the
// series onto one date.
func (f Fields) SeriesWide() Fields {
	f.Date = mo.None[dates.Date]()
	f.Time = mo.None[dates.TimeOfDay]()
	f.RSVPDeadline = mo.None[dates.Date]()
	f.Recurrence = mo.None[*Recurrence]()
	return f
}

// Apply returns a copy of p with the present fields written over it.
func (f Fields) Apply(p Plan) Plan {
	p = p.Clone()
	if v, ok := f.Title.Get(); ok {
		p.Title = v
	}
	if v, ok := f.Date.Get(); ok {
		p.Date = v
	}
	if v, ok := f.Time.Get(); ok {
		p.Time = v
	}
	if v, ok := f.Location.Get(); ok {
		p.Location = v
	}
	if v, ok := f.TotalSpots.Get(); ok {
		p.TotalSpots = v
	}
	if v, ok := f.RSVPDeadline.Get(); ok {
		p.RSVPDeadline = v
	}
	if v, ok := f.Notes.Get(); ok {
		p.Notes = v
	}
	if v, ok := f.Visibility.Get(); ok {
		if v != nil {
			c := v.clone()
			v = &c
		}
		p.Visibility = v
	}
	if v, ok := f.Recurrence.Get(); ok {
		if v != nil {
			c := v.clone()
			v = &c
		}
		p.Recurrence = v
	}
	return p
}
