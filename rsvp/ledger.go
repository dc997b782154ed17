// Package rsvp keeps the per-user responses to plans and the "going" count
// that backs each plan's capacity.
package rsvp

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/mo"

	"github.com/cyp0633/openinvite/internal/dates"
	"github.com/cyp0633/openinvite/plan"
)

// Policy tunes which requests the ledger refuses besides capacity.
type Policy struct {
	// EnforceDeadline refuses new or changed responses after the plan's
	// RSVP deadline. Withdrawing is always allowed.
	EnforceDeadline bool
}

// Transition describes what one Set call did.
type Transition struct {
	UserID string
	PlanID string
	From   mo.Option[plan.Status]
	To     mo.Option[plan.Status]
	// Delta is the change applied to the plan's filled spots: -1, 0 or +1.
	Delta int
	// FilledSpots is the plan's count after the call.
	FilledSpots int
}

// Changed reports whether the call altered the ledger.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Breakdown groups the users that answered a plan by status. Each slice is
// sorted by user id.
type Breakdown struct {
	Going      []string `json:"going"`
	Maybe      []string `json:"maybe"`
	Interested []string `json:"interested"`
}

// Total is the number of users with any response.
func (b Breakdown) Total() int {
	return len(b.Going) + len(b.Maybe) + len(b.Interested)
}

// Ledger maps (user, plan) to a response. It is not safe for concurrent use;
// the owner serializes access together with the plans it updates.
type Ledger struct {
	byPlan map[string]map[string]plan.Status
	policy Policy
}

// NewLedger creates an empty ledger.
func NewLedger(policy Policy) *Ledger {
	return &Ledger{
		byPlan: make(map[string]map[string]plan.Status),
		policy: policy,
	}
}

// Set records userID's response to p, or removes it when status is absent.
//
// Setting the status the user already holds is a no-op. Moving into "going"
// is refused with an error matching plan.ErrPlanFull when p has no open spot;
// the check and the write happen in the same call so the owner only has to
// hold one lock. Leaving or entering "going" moves p.FilledSpots by one,
// clamped to [0, TotalSpots].
func (l *Ledger) Set(p *plan.Plan, userID string, status mo.Option[plan.Status], today dates.Date) (Transition, error) {
	if userID == "" {
		return Transition{}, plan.Invalid("userId", "is required")
	}
	to, hasStatus := status.Get()
	if hasStatus && !to.Valid() {
		return Transition{}, plan.Invalid("status", fmt.Sprintf("unknown status %q", to))
	}

	from := l.Get(userID, p.ID)
	t := Transition{
		UserID:      userID,
		PlanID:      p.ID,
		From:        from,
		To:          status,
		FilledSpots: p.FilledSpots,
	}
	if from == status {
		return t, nil
	}

	if hasStatus && l.policy.EnforceDeadline && dates.IsPast(p.RSVPDeadline, today) {
		return Transition{}, &plan.Error{
			Type:    plan.DeadlineError,
			Message: fmt.Sprintf("responses to plan %q closed on %s", p.ID, p.RSVPDeadline),
		}
	}

	wasGoing := from == mo.Some(plan.StatusGoing)
	isGoing := hasStatus && to == plan.StatusGoing
	if isGoing && !wasGoing && p.IsFull() {
		return Transition{}, plan.Full(p)
	}

	if hasStatus {
		users := l.byPlan[p.ID]
		if users == nil {
			users = make(map[string]plan.Status)
			l.byPlan[p.ID] = users
		}
		users[userID] = to
	} else {
		l.remove(userID, p.ID)
	}

	switch {
	case isGoing && !wasGoing:
		t.Delta = 1
	case wasGoing && !isGoing:
		t.Delta = -1
	}
	p.FilledSpots = max(0, min(p.TotalSpots, p.FilledSpots+t.Delta))
	t.FilledSpots = p.FilledSpots
	return t, nil
}

func (l *Ledger) remove(userID, planID string) {
	users := l.byPlan[planID]
	delete(users, userID)
	if len(users) == 0 {
		delete(l.byPlan, planID)
	}
}

// Get returns userID's response to planID, if any.
func (l *Ledger) Get(userID, planID string) mo.Option[plan.Status] {
	if s, ok := l.byPlan[planID][userID]; ok {
		return mo.Some(s)
	}
	return mo.None[plan.Status]()
}

// Answered reports whether userID holds any response to planID.
func (l *Ledger) Answered(userID, planID string) bool {
	_, ok := l.byPlan[planID][userID]
	return ok
}

// ForPlan groups the responses to planID by status.
func (l *Ledger) ForPlan(planID string) Breakdown {
	var b Breakdown
	for userID, s := range l.byPlan[planID] {
		switch s {
		case plan.StatusGoing:
			b.Going = append(b.Going, userID)
		case plan.StatusMaybe:
			b.Maybe = append(b.Maybe, userID)
		case plan.StatusInterested:
			b.Interested = append(b.Interested, userID)
		}
	}
	slices.Sort(b.Going)
	slices.Sort(b.Maybe)
	slices.Sort(b.Interested)
	return b
}

// ForUser lists userID's responses ordered by plan id.
func (l *Ledger) ForUser(userID string) []plan.RSVP {
	var out []plan.RSVP
	for planID, users := range l.byPlan {
		if s, ok := users[userID]; ok {
			out = append(out, plan.RSVP{UserID: userID, PlanID: planID, Status: s})
		}
	}
	slices.SortFunc(out, func(a, b plan.RSVP) int { return cmp.Compare(a.PlanID, b.PlanID) })
	return out
}

// DropPlan forgets every response to planID and returns how many there were.
func (l *Ledger) DropPlan(planID string) int {
	n := len(l.byPlan[planID])
	delete(l.byPlan, planID)
	return n
}

// Len is the number of stored responses.
func (l *Ledger) Len() int {
	n := 0
	for _, users := range l.byPlan {
		n += len(users)
	}
	return n
}

// Records returns every response ordered by plan then user, the form the
// ledger is persisted in.
func (l *Ledger) Records() []plan.RSVP {
	out := make([]plan.RSVP, 0, l.Len())
	for planID, users := range l.byPlan {
		for userID, s := range users {
			out = append(out, plan.RSVP{UserID: userID, PlanID: planID, Status: s})
		}
	}
	slices.SortFunc(out, func(a, b plan.RSVP) int {
		return cmp.Or(cmp.Compare(a.PlanID, b.PlanID), cmp.Compare(a.UserID, b.UserID))
	})
	return out
}

// Restore replaces the ledger contents with records. Plan counts are not
// touched; they are persisted with the plans themselves.
func (l *Ledger) Restore(records []plan.RSVP) error {
	byPlan := make(map[string]map[string]plan.Status)
	for i, r := range records {
		if r.UserID == "" || r.PlanID == "" || !r.Status.Valid() {
			return plan.Invalid(fmt.Sprintf("rsvps[%d]", i), fmt.Sprintf("malformed record %+v", r))
		}
		users := byPlan[r.PlanID]
		if users == nil {
			users = make(map[string]plan.Status)
			byPlan[r.PlanID] = users
		}
		users[r.UserID] = r.Status
	}
	l.byPlan = byPlan
	return nil
}

// Toggle is the toggle-off policy of the invitation screens: choosing the
// status a user already holds withdraws the response.
func Toggle(current mo.Option[plan.Status], requested plan.Status) mo.Option[plan.Status] {
	if current == mo.Some(requested) {
		return mo.None[plan.Status]()
	}
	return mo.Some(requested)
}
