package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/emersion/go-ical"

	"github.com/cyp0633/openinvite/internal/dates"
	"github.com/cyp0633/openinvite/plan"
)

// EncodeICS writes plans as a single VCALENDAR
func (e *Encoder) EncodeICS(w io.Writer, plans []plan.Plan) error {
	events, err := e.events(plans)
	if err != nil {
		return err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, e.productID)

	for _, ev := range events {
		vevent := ical.NewEvent()
		vevent.Props.SetText(ical.PropUID, ev.uid)
		vevent.Props.SetDateTime(ical.PropDateTimeStamp, ev.stamp)
		vevent.Props.SetDateTime(ical.PropDateTimeStart, ev.start)
		vevent.Props.SetDateTime(ical.PropDateTimeEnd, ev.end)
		vevent.Props.SetText(ical.PropSummary, ev.summary)
		vevent.Props.SetText(ical.PropLocation, ev.location)
		if ev.description != "" {
			vevent.Props.SetText(ical.PropDescription, ev.description)
		}
		vevent.Props.SetText(PropSpots, ev.spots)
		if ev.seriesID != "" {
			vevent.Props.SetText(PropSeries, ev.seriesID)
			vevent.Props.SetText(PropInstance, strconv.Itoa(ev.instance))
		}
		cal.Children = append(cal.Children, vevent.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// ImportedEvent is a VEVENT read back from an iCalendar stream
type ImportedEvent struct {
	UID         string
	Summary     string
	Location    string
	Description string
	Start       time.Time
	End         time.Time
	SeriesID    string
	Instance    int
}

// PlanID returns the plan id encoded in the UID, if it came from EncodeICS
func (ev ImportedEvent) PlanID() string {
	return PlanID(ev.UID)
}

// Input turns the event into a plan input starting at the event's wall
// clock time. The RSVP deadline is the event date.
func (ev ImportedEvent) Input(createdBy string, totalSpots int) plan.Input {
	d := dates.Today(ev.Start)
	return plan.Input{
		Title:        ev.Summary,
		Date:         d,
		Time:         dates.TimeOfDay{Hour: ev.Start.Hour(), Minute: ev.Start.Minute()},
		Location:     ev.Location,
		TotalSpots:   totalSpots,
		RSVPDeadline: d,
		Notes:        ev.Description,
		CreatedBy:    createdBy,
	}
}

// DecodeICS reads every VEVENT of every calendar in r. Floating times are
// read in loc, UTC when nil.
func DecodeICS(r io.Reader, loc *time.Location) ([]ImportedEvent, error) {
	dec := ical.NewDecoder(r)

	var out []ImportedEvent
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}

		for _, vevent := range cal.Events() {
			ev, err := importEvent(vevent, loc)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
	}
	return out, nil
}

func importEvent(vevent ical.Event, loc *time.Location) (ImportedEvent, error) {
	var (
		ev  ImportedEvent
		err error
	)
	if ev.UID, err = vevent.Props.Text(ical.PropUID); err != nil {
		return ev, fmt.Errorf("invalid UID: %w", err)
	}
	if ev.Start, err = vevent.DateTimeStart(loc); err != nil {
		return ev, fmt.Errorf("event %s: invalid DTSTART: %w", ev.UID, err)
	}
	if ev.End, err = vevent.DateTimeEnd(loc); err != nil {
		return ev, fmt.Errorf("event %s: invalid DTEND: %w", ev.UID, err)
	}

	for name, dst := range map[string]*string{
		ical.PropSummary:     &ev.Summary,
		ical.PropLocation:    &ev.Location,
		ical.PropDescription: &ev.Description,
		PropSeries:           &ev.SeriesID,
	} {
		if *dst, err = vevent.Props.Text(name); err != nil {
			return ev, fmt.Errorf("event %s: invalid %s: %w", ev.UID, name, err)
		}
	}

	if prop := vevent.Props.Get(PropInstance); prop != nil {
		if ev.Instance, err = strconv.Atoi(prop.Value); err != nil {
			return ev, fmt.Errorf("event %s: invalid %s: %w", ev.UID, PropInstance, err)
		}
	}
	return ev, nil
}
