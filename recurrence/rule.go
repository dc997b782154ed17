package recurrence

import (
	"fmt"
	"iter"

	"cloud.google.com/go/civil"
	"github.com/teambition/rrule-go"

	"github.com/cyp0633/openinvite/internal/dates"
	"github.com/cyp0633/openinvite/plan"
)

// Rule translates a plan recurrence anchored at start into an RRULE.
//
// Monthly rules whose anchor day is past the 28th use
// BYMONTHDAY=28..day;BYSETPOS=-1, which picks the anchor day when the month
// has it and the month's last day otherwise. Jan 31 therefore steps to
// Feb 28, then back to Mar 31.
func Rule(r plan.Recurrence, start dates.Date) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Dtstart:  dates.Midnight(start),
		Interval: 1,
	}

	switch r.Type {
	case plan.RecurrenceWeekly:
		opt.Freq = rrule.WEEKLY
	case plan.RecurrenceBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
	case plan.RecurrenceMonthly:
		opt.Freq = rrule.MONTHLY
		if start.Day > 28 {
			for day := 28; day <= start.Day; day++ {
				opt.Bymonthday = append(opt.Bymonthday, day)
			}
			opt.Bysetpos = []int{-1}
		} else {
			opt.Bymonthday = []int{start.Day}
		}
	case plan.RecurrenceCustom:
		opt.Freq = rrule.DAILY
		opt.Interval = r.Interval()
	default:
		return nil, plan.Invalid("recurrence.type", fmt.Sprintf("%q does not repeat", r.Type))
	}

	switch r.End.Type {
	case plan.EndAfter:
		if r.End.Occurrences < 1 {
			// rrule treats COUNT=0 as unbounded
			return nil, plan.Invalid("recurrence.end.occurrences", "series would have no occurrences")
		}
		opt.Count = r.End.Occurrences
	case plan.EndOnDate:
		if r.End.EndDate == nil || r.End.EndDate.Before(start) {
			return nil, plan.Invalid("recurrence.end.endDate", "series would have no occurrences")
		}
		opt.Until = dates.Midnight(*r.End.EndDate)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build rule for %s recurrence: %w", r.Type, err)
	}
	return rule, nil
}

// Sequence is the deterministic, restartable list of occurrences of one
// series. Nothing is generated until it is iterated.
type Sequence struct {
	rule *rrule.RRule
	gap  int
}

// NewSequence builds the sequence of a template whose first occurrence is on
// date with its RSVP deadline on deadline.
func NewSequence(r plan.Recurrence, date, deadline dates.Date) (*Sequence, error) {
	rule, err := Rule(r, date)
	if err != nil {
		return nil, err
	}
	return &Sequence{rule: rule, gap: dates.DaysBetween(deadline, date)}, nil
}

// String returns the RFC 5545 form of the underlying rule.
func (s *Sequence) String() string {
	return s.rule.String()
}

// All yields every occurrence in order. For never-ending rules the caller
// must stop iterating.
func (s *Sequence) All() iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		next := s.rule.Iterator()
		for i := 0; ; i++ {
			t, ok := next()
			if !ok {
				return
			}
			d := civil.DateOf(t)
			occ := Occurrence{Index: i, Date: d, Deadline: dates.AddDays(d, -s.gap)}
			if !yield(occ) {
				return
			}
		}
	}
}

// Take returns at most the first n occurrences.
func (s *Sequence) Take(n int) []Occurrence {
	return s.Collect(Window{Limit: n})
}

// Collect returns the occurrences inside w. An unbounded window on a
// never-ending rule returns nothing rather than looping forever.
func (s *Sequence) Collect(w Window) []Occurrence {
	if !w.bounded() && s.rule.OrigOptions.Count == 0 && s.rule.OrigOptions.Until.IsZero() {
		return nil
	}

	var out []Occurrence
	for occ := range s.All() {
		if w.Horizon != nil && occ.Date.After(*w.Horizon) {
			break
		}
		if occ.Index < w.FromIndex {
			continue
		}
		out = append(out, occ)
		if w.Limit > 0 && len(out) >= w.Limit {
			break
		}
	}
	return out
}
