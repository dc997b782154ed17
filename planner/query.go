package planner

import (
	"cmp"
	"slices"

	"github.com/samber/mo"

	"github.com/cyp0633/openinvite/internal/dates"
	"github.com/cyp0633/openinvite/plan"
	"github.com/cyp0633/openinvite/recurrence"
	"github.com/cyp0633/openinvite/rsvp"
	"github.com/cyp0633/openinvite/visibility"
)

func byDateTimeID(a, b plan.Plan) int {
	return cmp.Or(
		dates.Compare(a.Date, b.Date),
		cmp.Compare(a.Time.String(), b.Time.String()),
		cmp.Compare(a.ID, b.ID),
	)
}

// GetPlanByID returns a copy of the plan, if it exists.
func (s *Store) GetPlanByID(id string) mo.Option[plan.Plan] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.plans[id]; ok {
		return mo.Some(p.Clone())
	}
	return mo.None[plan.Plan]()
}

// ListPlans returns every plan ordered by date, time and id.
func (s *Store) ListPlans() []plan.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]plan.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, byDateTimeID)
	return out
}

// PlansFor returns the plans userID created or answered, soonest first.
func (s *Store) PlansFor(userID string) []plan.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []plan.Plan
	for _, p := range s.plans {
		if p.CreatedBy == userID || s.ledger.Answered(userID, p.ID) {
			out = append(out, p.Clone())
		}
	}
	slices.SortFunc(out, byDateTimeID)
	return out
}

// IsEmpty reports whether the store holds no plans and no responses.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.plans) == 0 && s.ledger.Len() == 0
}

// GetMyRSVP returns userID's response to planID, if any.
func (s *Store) GetMyRSVP(userID, planID string) mo.Option[plan.Status] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.Get(userID, planID)
}

// RSVPsForPlan groups the users that answered planID by status.
func (s *Store) RSVPsForPlan(planID string) rsvp.Breakdown {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.ForPlan(planID)
}

// IsDiscoverable reports whether planID belongs in viewer's discovery feed.
// Unknown plans are not discoverable.
func (s *Store) IsDiscoverable(planID, viewer string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[planID]
	if !ok {
		return false
	}
	return s.resolver.IsDiscoverable(p, viewer, s.ledger.Answered(viewer, planID))
}

// DiscoverFeed lists the plans viewer can see but has not answered, soonest
// first. Plans dated before today are left out unless the configuration
// says otherwise.
func (s *Store) DiscoverFeed(viewer string) []visibility.Discovery {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := s.today()
	candidates := make([]plan.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		if s.config.HidePastFromFeed && dates.IsPast(p.Date, today) {
			continue
		}
		candidates = append(candidates, *p)
	}

	return s.resolver.Feed(candidates, viewer, func(planID string) bool {
		return s.ledger.Answered(viewer, planID)
	})
}

// Audience lists the users a group or people plan was addressed to.
func (s *Store) Audience(planID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[planID]
	if !ok {
		return nil
	}
	return s.resolver.Audience(p)
}

// GetUpcomingOccurrences returns the siblings of planID in its series that
// are not in the past, excluding planID itself, soonest first and capped by
// Config.UpcomingLimit. Standalone and unknown plans have none.
func (s *Store) GetUpcomingOccurrences(planID string) []plan.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[planID]
	if !ok || !p.IsRecurring() {
		return nil
	}

	today := s.today()
	var out []plan.Plan
	for _, sib := range s.seriesMembers(p.SeriesID()) {
		if sib.ID == planID || dates.IsPast(sib.Date, today) {
			continue
		}
		out = append(out, sib.Clone())
	}
	slices.SortFunc(out, byDateTimeID)
	if len(out) > s.config.UpcomingLimit {
		out = out[:s.config.UpcomingLimit]
	}
	return out
}

// GetRecurrenceLabel returns the summary shown next to a recurring plan,
// e.g. "Repeats weekly". Standalone plans get "".
func (s *Store) GetRecurrenceLabel(p plan.Plan) string {
	return recurrence.Label(&p)
}

// Series returns the ids of the known series, sorted.
func (s *Store) Series() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.series))
	for id := range s.series {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Availability summarizes the capacity and deadline state of a plan.
type Availability struct {
	OpenSpots         int  `json:"openSpots"`
	Full              bool `json:"full"`
	DaysUntilDeadline int  `json:"daysUntilDeadline"`
	DeadlineSoon      bool `json:"deadlineSoon"`
	DeadlinePassed    bool `json:"deadlinePassed"`
}

// GetAvailability reports how many spots are open and how close the RSVP
// deadline is.
func (s *Store) GetAvailability(planID string) mo.Option[Availability] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[planID]
	if !ok {
		return mo.None[Availability]()
	}
	today := s.today()
	return mo.Some(Availability{
		OpenSpots:         p.OpenSpots(),
		Full:              p.IsFull(),
		DaysUntilDeadline: dates.DaysUntil(p.RSVPDeadline, today),
		DeadlineSoon:      dates.IsWithin(p.RSVPDeadline, today, s.config.DeadlineSoonDays),
		DeadlinePassed:    dates.IsPast(p.RSVPDeadline, today),
	})
}

// seriesMembers returns the live occurrences of a series ordered by
// instance index. Callers hold the lock.
func (s *Store) seriesMembers(seriesID string) []*plan.Plan {
	if seriesID == "" {
		return nil
	}
	var out []*plan.Plan
	for _, p := range s.plans {
		if p.Recurrence != nil && p.Recurrence.SeriesID == seriesID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *plan.Plan) int {
		return cmp.Compare(a.Recurrence.InstanceIndex, b.Recurrence.InstanceIndex)
	})
	return out
}
