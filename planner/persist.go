package planner

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/cyp0633/openinvite/plan"
	"github.com/cyp0633/openinvite/rsvp"
)

// persist writes the named collections. A failing backend is logged and
// otherwise ignored: the in-memory mutation has already been accepted.
// Callers hold the write lock.
func (s *Store) persist(ctx context.Context, collections ...string) {
	if s.persister == nil {
		return
	}
	for _, c := range collections {
		data, err := s.encode(c)
		if err == nil {
			err = s.persister.Save(ctx, c, data)
		}
		if err != nil {
			s.logger.Warn("failed to persist collection", "collection", c, "error", err)
		}
	}
}

func (s *Store) encode(collection string) ([]byte, error) {
	switch collection {
	case CollectionPlans:
		plans := make([]plan.Plan, 0, len(s.plans))
		for _, p := range s.plans {
			plans = append(plans, *p)
		}
		slices.SortFunc(plans, byDateTimeID)
		return json.Marshal(plans)
	case CollectionRSVPs:
		return json.Marshal(s.ledger.Records())
	case CollectionSeries:
		recs := make([]series, 0, len(s.series))
		for _, rec := range s.series {
			recs = append(recs, *rec)
		}
		slices.SortFunc(recs, func(a, b series) int {
			return cmp.Compare(a.Template.SeriesID(), b.Template.SeriesID())
		})
		return json.Marshal(recs)
	}
	return nil, fmt.Errorf("unknown collection %q", collection)
}

// Load replaces the store contents with what the persister holds. Missing
// collections load as empty; a missing series collection is rebuilt from
// the stored occurrences.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	blobs, err := s.persister.Load(ctx)
	if err != nil {
		return &plan.Error{Type: plan.PersistenceError, Message: "failed to load state", Err: err}
	}

	var (
		plans   []plan.Plan
		records []plan.RSVP
		recs    []series
	)
	for name, dst := range map[string]any{
		CollectionPlans:  &plans,
		CollectionRSVPs:  &records,
		CollectionSeries: &recs,
	} {
		data, ok := blobs[name]
		if !ok || len(data) == 0 {
			continue
		}
		if err := json.Unmarshal(data, dst); err != nil {
			return &plan.Error{Type: plan.PersistenceError, Message: "failed to decode " + name, Err: err}
		}
	}

	byID := make(map[string]*plan.Plan, len(plans))
	for i := range plans {
		p := plans[i]
		if p.ID == "" {
			return &plan.Error{Type: plan.PersistenceError, Message: fmt.Sprintf("stored plan %d has no id", i)}
		}
		byID[p.ID] = &p
	}

	ledger := rsvp.NewLedger(rsvp.Policy{EnforceDeadline: s.config.EnforceDeadline})
	if err := ledger.Restore(records); err != nil {
		return &plan.Error{Type: plan.PersistenceError, Message: "failed to restore rsvps", Err: err}
	}

	seriesByID := make(map[string]*series, len(recs))
	for i := range recs {
		rec := recs[i]
		if id := rec.Template.SeriesID(); id != "" {
			seriesByID[id] = &rec
		}
	}
	if _, stored := blobs[CollectionSeries]; !stored {
		seriesByID = rebuildSeries(byID)
	}

	s.mu.Lock()
	s.plans = byID
	s.ledger = ledger
	s.series = seriesByID
	s.mu.Unlock()

	s.logger.Info("state loaded",
		"plans", len(byID),
		"rsvps", ledger.Len(),
		"series", len(seriesByID))
	return nil
}

// rebuildSeries derives series templates from live occurrences: the lowest
// surviving instance becomes the anchor.
func rebuildSeries(plans map[string]*plan.Plan) map[string]*series {
	out := make(map[string]*series)
	maxIndex := make(map[string]int)
	for _, p := range plans {
		if !p.IsRecurring() {
			continue
		}
		id := p.SeriesID()
		idx := p.Recurrence.InstanceIndex
		if rec, ok := out[id]; !ok || idx < rec.Template.Recurrence.InstanceIndex {
			t := p.Clone()
			t.ID = ""
			t.CreatedAt = time.Time{}
			t.FilledSpots = 0
			out[id] = &series{Template: t}
		}
		maxIndex[id] = max(maxIndex[id], idx)
	}
	for id, rec := range out {
		rec.Generated = maxIndex[id] - rec.Template.Recurrence.InstanceIndex + 1
	}
	return out
}

// Seed inserts already materialized plans and responses, e.g. demo
// fixtures. Ids must not collide with stored plans, every plan must be
// valid, and each response must reference a seeded or stored plan. Series
// templates are derived for series the store does not know yet.
func (s *Store) Seed(ctx context.Context, plans []plan.Plan, rsvps []plan.RSVP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make(map[string]*plan.Plan, len(plans))
	for i := range plans {
		p := plans[i].Clone()
		if p.ID == "" {
			return plan.Invalid(fmt.Sprintf("plans[%d].id", i), "is required")
		}
		if _, dup := s.plans[p.ID]; dup {
			return plan.Invalid(fmt.Sprintf("plans[%d].id", i), fmt.Sprintf("plan %q already exists", p.ID))
		}
		if _, dup := added[p.ID]; dup {
			return plan.Invalid(fmt.Sprintf("plans[%d].id", i), fmt.Sprintf("plan %q listed twice", p.ID))
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("seed plan %q: %w", p.ID, err)
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = s.now()
		}
		added[p.ID] = &p
	}
	type answer struct{ user, plan string }
	seen := make(map[answer]bool, len(rsvps))
	going := make(map[string]int)
	for i, r := range rsvps {
		p, ok := added[r.PlanID]
		if !ok {
			if p, ok = s.plans[r.PlanID]; !ok {
				return plan.NotFound("plan", r.PlanID)
			}
		}
		field := fmt.Sprintf("rsvps[%d]", i)
		if s.ledger.Answered(r.UserID, r.PlanID) {
			return plan.Invalid(field, "response already recorded")
		}
		if seen[answer{r.UserID, r.PlanID}] {
			return plan.Invalid(field, fmt.Sprintf("user %q answers plan %q twice", r.UserID, r.PlanID))
		}
		seen[answer{r.UserID, r.PlanID}] = true

		if r.Status != plan.StatusGoing {
			continue
		}
		if _, counted := going[r.PlanID]; !counted {
			going[r.PlanID] = len(s.ledger.ForPlan(r.PlanID).Going)
		}
		going[r.PlanID]++
		if going[r.PlanID] > p.TotalSpots {
			return plan.Invalid(field, fmt.Sprintf("plan %q has more going responses than spots", r.PlanID))
		}
	}

	records := append(s.ledger.Records(), rsvps...)
	if err := s.ledger.Restore(records); err != nil {
		return err
	}
	for id, p := range added {
		s.plans[id] = p
	}
	for id, rec := range rebuildSeries(added) {
		if _, known := s.series[id]; !known {
			s.series[id] = rec
		}
	}

	s.logger.Info("store seeded", "plans", len(added), "rsvps", len(rsvps))
	s.persist(ctx, CollectionPlans, CollectionRSVPs, CollectionSeries)
	return nil
}
