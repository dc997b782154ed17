package plan

import (
	"time"

	"github.com/cyp0633/openinvite/internal/dates"
)

// Plan is a proposed gathering with a capacity and a deadline for responses.
type Plan struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Date         dates.Date      `json:"date"`
	Time         dates.TimeOfDay `json:"time"`
	Location     string          `json:"location"`
	TotalSpots   int             `json:"totalSpots"`
	FilledSpots  int             `json:"filledSpots"`
	RSVPDeadline dates.Date      `json:"rsvpDeadline"`
	Notes        string          `json:"notes,omitempty"`
	CreatedBy    string          `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
	// Visibility is nil for "everyone".
	Visibility *Visibility `json:"visibility,omitempty"`
	// Recurrence is nil (or type none) for a standalone plan.
	Recurrence *Recurrence `json:"recurrence,omitempty"`
}

// IsRecurring reports whether p belongs to a series.
func (p *Plan) IsRecurring() bool {
	return p.Recurrence != nil && p.Recurrence.Type != RecurrenceNone && p.Recurrence.SeriesID != ""
}

// SeriesID returns the series the plan belongs to, or "".
func (p *Plan) SeriesID() string {
	if p.Recurrence == nil {
		return ""
	}
	return p.Recurrence.SeriesID
}

// OpenSpots is the remaining "going" capacity.
func (p *Plan) OpenSpots() int {
	return p.TotalSpots - p.FilledSpots
}

// IsFull reports whether no "going" slot is left.
func (p *Plan) IsFull() bool {
	return p.FilledSpots >= p.TotalSpots
}

// DeadlineGap is the number of days between the RSVP deadline and the plan
// date. Recurring occurrences keep the gap of their template.
func (p *Plan) DeadlineGap() int {
	return dates.DaysBetween(p.RSVPDeadline, p.Date)
}

// VisibilityType returns the effective audience rule; nil means everyone.
func (p *Plan) VisibilityType() VisibilityType {
	if p.Visibility == nil || p.Visibility.Type == "" {
		return VisibleToEveryone
	}
	return p.Visibility.Type
}

// Clone returns a deep copy so callers cannot mutate store state.
func (p Plan) Clone() Plan {
	if p.Visibility != nil {
		v := p.Visibility.clone()
		p.Visibility = &v
	}
	if p.Recurrence != nil {
		r := p.Recurrence.clone()
		p.Recurrence = &r
	}
	return p
}

// VisibilityType is the audience rule attached to a plan.
type VisibilityType string

const (
	VisibleToEveryone VisibilityType = "everyone"
	VisibleToFriends  VisibilityType = "friends"
	VisibleToGroups   VisibilityType = "groups"
	VisibleToPeople   VisibilityType = "people"
)

// Visibility scopes who can discover a plan. GroupIDs is used by the groups
// rule and UserIDs by the people rule; an empty set matches nobody.
type Visibility struct {
	Type     VisibilityType `json:"type"`
	GroupIDs []string       `json:"groupIds,omitempty"`
	UserIDs  []string       `json:"userIds,omitempty"`
}

func (v Visibility) clone() Visibility {
	if v.GroupIDs != nil {
		v.GroupIDs = append([]string(nil), v.GroupIDs...)
	}
	if v.UserIDs != nil {
		v.UserIDs = append([]string(nil), v.UserIDs...)
	}
	return v
}

// RecurrenceType selects the stepping rule of a series.
type RecurrenceType string

const (
	RecurrenceNone     RecurrenceType = "none"
	RecurrenceWeekly   RecurrenceType = "weekly"
	RecurrenceBiweekly RecurrenceType = "biweekly"
	RecurrenceMonthly  RecurrenceType = "monthly"
	RecurrenceCustom   RecurrenceType = "custom"
)

// DefaultCustomDays is the interval used when a custom rule has none.
const DefaultCustomDays = 7

// EndType selects how a series terminates.
type EndType string

const (
	EndNever  EndType = "never"
	EndAfter  EndType = "after"
	EndOnDate EndType = "on_date"
)

// RecurrenceEnd is the termination condition of a series.
type RecurrenceEnd struct {
	Type        EndType     `json:"type"`
	Occurrences int         `json:"occurrences,omitempty"`
	EndDate     *dates.Date `json:"endDate,omitempty"`
}

// Recurrence describes how one authored template expands into a series.
type Recurrence struct {
	Type          RecurrenceType `json:"type"`
	CustomDays    int            `json:"customDays,omitempty"`
	End           RecurrenceEnd  `json:"end"`
	SeriesID      string         `json:"seriesId,omitempty"`
	InstanceIndex int            `json:"instanceIndex"`
}

func (r Recurrence) clone() Recurrence {
	if r.End.EndDate != nil {
		d := *r.End.EndDate
		r.End.EndDate = &d
	}
	return r
}

// Interval returns the custom interval in days, falling back to
// DefaultCustomDays for unset or non-positive values.
func (r Recurrence) Interval() int {
	if r.CustomDays <= 0 {
		return DefaultCustomDays
	}
	return r.CustomDays
}

// Status is a user's declared response to a plan.
type Status string

const (
	StatusGoing      Status = "going"
	StatusMaybe      Status = "maybe"
	StatusInterested Status = "interested"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusGoing, StatusMaybe, StatusInterested:
		return true
	}
	return false
}

// RSVP is one user's response to one plan.
type RSVP struct {
	UserID string `json:"userId"`
	PlanID string `json:"planId"`
	Status Status `json:"status"`
}

// Input is the payload for creating a plan. It carries no id or creation
// time; those are assigned on insert.
type Input struct {
	Title        string
	Date         dates.Date
	Time         dates.TimeOfDay
	Location     string
	TotalSpots   int
	RSVPDeadline dates.Date
	Notes        string
	CreatedBy    string
	Visibility   *Visibility
	Recurrence   *Recurrence
}

// IsRecurring reports whether the input asks for a series.
func (in Input) IsRecurring() bool {
	return in.Recurrence != nil && in.Recurrence.Type != RecurrenceNone && in.Recurrence.Type != ""
}
