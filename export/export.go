// Package export renders plans as calendar data: iCalendar (RFC 5545) for
// calendar apps and xCal (RFC 6321) for XML consumers. Every plan becomes one
// event; recurring plans are already materialized, so no RRULE is written.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/cyp0633/openinvite/plan"
)

const (
	// DefaultProductID identifies the generator in the calendar header
	DefaultProductID = "-//OpenInvite//Plans//EN"
	// DefaultDuration is the event length used when plans carry none
	DefaultDuration = 2 * time.Hour

	// PropSeries carries the series id of a recurring plan
	PropSeries = "X-OPENINVITE-SERIES"
	// PropInstance carries the instance index of a recurring plan
	PropInstance = "X-OPENINVITE-INSTANCE"
	// PropSpots carries "filled/total"
	PropSpots = "X-OPENINVITE-SPOTS"

	uidDomain = "openinvite"
)

// Encoder holds the settings shared by the ICS and xCal writers
type Encoder struct {
	loc       *time.Location
	duration  time.Duration
	productID string
	now       func() time.Time
}

// Option configures an Encoder
type Option func(*Encoder)

// WithLocation sets the zone plan dates and times are interpreted in
func WithLocation(loc *time.Location) Option {
	return func(e *Encoder) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithDuration sets the length of every event
func WithDuration(d time.Duration) Option {
	return func(e *Encoder) {
		if d > 0 {
			e.duration = d
		}
	}
}

// WithProductID overrides DefaultProductID
func WithProductID(id string) Option {
	return func(e *Encoder) {
		if id != "" {
			e.productID = id
		}
	}
}

// WithClock replaces the clock used for DTSTAMP
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEncoder creates an encoder writing UTC events of DefaultDuration
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		loc:       time.UTC,
		duration:  DefaultDuration,
		productID: DefaultProductID,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// event is the format-neutral view of one plan
type event struct {
	uid         string
	stamp       time.Time
	start       time.Time
	end         time.Time
	summary     string
	location    string
	description string
	seriesID    string
	instance    int
	spots       string
}

func (e *Encoder) events(plans []plan.Plan) ([]event, error) {
	stamp := e.now().UTC()
	out := make([]event, 0, len(plans))
	for _, p := range plans {
		if p.ID == "" {
			return nil, fmt.Errorf("plan %q has no id", p.Title)
		}
		start := p.Time.On(p.Date, e.loc)
		ev := event{
			uid:         UID(p.ID),
			stamp:       stamp,
			start:       start,
			end:         start.Add(e.duration),
			summary:     p.Title,
			location:    p.Location,
			description: p.Notes,
			spots:       fmt.Sprintf("%d/%d", p.FilledSpots, p.TotalSpots),
		}
		if p.IsRecurring() {
			ev.seriesID = p.SeriesID()
			ev.instance = p.Recurrence.InstanceIndex
		}
		out = append(out, ev)
	}
	return out, nil
}

// UID is the calendar identifier of a plan
func UID(planID string) string {
	return planID + "@" + uidDomain
}

// PlanID reverses UID; foreign identifiers come back unchanged
func PlanID(uid string) string {
	return strings.TrimSuffix(uid, "@"+uidDomain)
}
