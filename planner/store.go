// Package planner is the single entry point for creating, editing and
// answering plans. It serializes every mutation behind one lock so the
// capacity check and the RSVP write can never interleave with another
// writer.
package planner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/cyp0633/openinvite/internal/dates"
	"github.com/cyp0633/openinvite/plan"
	"github.com/cyp0633/openinvite/recurrence"
	"github.com/cyp0633/openinvite/rsvp"
	"github.com/cyp0633/openinvite/storage"
	"github.com/cyp0633/openinvite/visibility"
)

// Directory is the social graph the store consults for visibility.
type Directory interface {
	visibility.FriendGraph
	visibility.GroupDirectory
}

// series is the authored template of a recurring plan plus how many
// occurrences have been generated from it so far.
type series struct {
	Template  plan.Plan `json:"template"`
	Generated int       `json:"generated"`
}

// Store holds plans, their series templates and the RSVP ledger.
type Store struct {
	mu       sync.RWMutex
	plans    map[string]*plan.Plan
	series   map[string]*series
	ledger   *rsvp.Ledger
	expander *recurrence.Expander
	resolver *visibility.Resolver

	persister storage.Persister
	directory Directory
	config    Config
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option represents a configuration option for the Store
type Option func(*Store)

// WithLogger sets the logger for the store
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPersister sets the backend every mutation is written to
func WithPersister(p storage.Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithClock replaces the clock used for creation times and "today"
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithConfig replaces DefaultConfig
func WithConfig(c Config) Option {
	return func(s *Store) {
		s.config = c
	}
}

// WithDirectory sets the friendship and group lookups
func WithDirectory(d Directory) Option {
	return func(s *Store) {
		s.directory = d
	}
}

// WithIDFunc replaces the uuid generator for plan and series ids
func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates an empty store. Call Load to pick up persisted state.
func New(opts ...Option) *Store {
	s := &Store{
		plans:  make(map[string]*plan.Plan),
		series: make(map[string]*series),
		config: DefaultConfig,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.config.UpcomingLimit <= 0 {
		s.config.UpcomingLimit = DefaultConfig.UpcomingLimit
	}
	s.ledger = rsvp.NewLedger(rsvp.Policy{EnforceDeadline: s.config.EnforceDeadline})
	s.expander = recurrence.NewExpanderWithConfig(s.config.Expander,
		recurrence.WithIDFunc(s.newID),
		recurrence.WithClock(s.now),
	)
	if s.directory != nil {
		s.resolver = visibility.NewResolver(s.directory, s.directory)
	} else {
		s.resolver = visibility.NewResolver(nil, nil)
	}
	return s
}

// Close stops background work. The persister is owned by the caller.
func (s *Store) Close() {
	s.expander.Close()
}

func (s *Store) today() dates.Date {
	return dates.Today(s.now())
}

// CreatePlan validates input and inserts it. A standalone plan comes back
// as a single element; a recurring one as the eagerly generated window of
// its series, ordered by instance index.
func (s *Store) CreatePlan(ctx context.Context, in plan.Input) ([]plan.Plan, error) {
	if err := in.Validate(); err != nil {
		s.logger.Info("plan rejected", "title", in.Title, "error", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	template := plan.Plan{
		Title:        in.Title,
		Date:         in.Date,
		Time:         in.Time,
		Location:     in.Location,
		TotalSpots:   in.TotalSpots,
		RSVPDeadline: in.RSVPDeadline,
		Notes:        in.Notes,
		CreatedBy:    in.CreatedBy,
		Visibility:   in.Visibility,
		Recurrence:   in.Recurrence,
	}.Clone()

	if !in.IsRecurring() {
		template.ID = s.newID()
		template.CreatedAt = s.now()
		s.plans[template.ID] = &template

		s.logger.Info("plan created", "plan_id", template.ID, "created_by", template.CreatedBy)
		s.persist(ctx, CollectionPlans)
		return []plan.Plan{template.Clone()}, nil
	}

	template.Recurrence.SeriesID = ""
	template.Recurrence.InstanceIndex = 0
	occurrences, err := s.expander.Expand(template, s.config.Expander.MaxOccurrences)
	if err != nil {
		s.logger.Info("series rejected", "title", in.Title, "error", err)
		return nil, err
	}

	seriesID := occurrences[0].Recurrence.SeriesID
	template.Recurrence.SeriesID = seriesID
	s.series[seriesID] = &series{Template: template, Generated: len(occurrences)}
	for i := range occurrences {
		p := occurrences[i].Clone()
		s.plans[p.ID] = &p
	}

	s.logger.Info("series created",
		"series_id", seriesID,
		"occurrences", len(occurrences),
		"rule", recurrence.Label(&template))
	s.persist(ctx, CollectionPlans, CollectionSeries)
	return occurrences, nil
}

// UpdatePlan applies fields to one plan. Changing the recurrence patches
// this record only; the series is never regenerated. TotalSpots may not
// drop below the spots already taken.
func (s *Store) UpdatePlan(ctx context.Context, id string, fields plan.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return plan.NotFound("plan", id)
	}
	if fields.IsEmpty() {
		return nil
	}

	updated := fields.Apply(*p)
	if err := validateUpdate(&updated); err != nil {
		s.logger.Info("plan update rejected", "plan_id", id, "error", err)
		return err
	}
	*p = updated

	s.logger.Info("plan updated", "plan_id", id)
	s.persist(ctx, CollectionPlans)
	return nil
}

func validateUpdate(p *plan.Plan) error {
	if p.TotalSpots < p.FilledSpots {
		return plan.Invalid("totalSpots", fmt.Sprintf("cannot drop below the %d spots already taken", p.FilledSpots))
	}
	return p.Validate()
}

// UpdateSeriesPlans applies fields to every occurrence of a series whose
// instance index is at least fromIndex (all when absent). Date, time,
// deadline and recurrence are never propagated. Either every matching
// occurrence is updated or none is. The series template picks up the same
// change so later extensions inherit it. It returns how many occurrences
// changed.
func (s *Store) UpdateSeriesPlans(ctx context.Context, seriesID string, fields plan.Fields, fromIndex mo.Option[int]) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, known := s.series[seriesID]
	members := s.seriesMembers(seriesID)
	if !known && len(members) == 0 {
		return 0, plan.NotFound("series", seriesID)
	}

	shared := fields.SeriesWide()
	if shared.IsEmpty() {
		return 0, nil
	}
	from := fromIndex.OrElse(0)

	var updated []plan.Plan
	for _, p := range members {
		if p.Recurrence.InstanceIndex < from {
			continue
		}
		u := shared.Apply(*p)
		if err := validateUpdate(&u); err != nil {
			s.logger.Info("series update rejected", "series_id", seriesID, "plan_id", p.ID, "error", err)
			return 0, err
		}
		updated = append(updated, u)
	}

	for _, u := range updated {
		*s.plans[u.ID] = u
	}
	if known {
		rec.Template = shared.Apply(rec.Template)
	}

	s.logger.Info("series updated", "series_id", seriesID, "from_index", from, "occurrences", len(updated))
	s.persist(ctx, CollectionPlans, CollectionSeries)
	return len(updated), nil
}

// DeletePlan removes exactly one plan and the responses to it. Siblings in
// the same series are left alone.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return plan.NotFound("plan", id)
	}
	delete(s.plans, id)
	dropped := s.ledger.DropPlan(id)

	s.logger.Info("plan deleted", "plan_id", id, "series_id", p.SeriesID(), "rsvps_dropped", dropped)
	if dropped > 0 {
		s.persist(ctx, CollectionPlans, CollectionRSVPs)
	} else {
		s.persist(ctx, CollectionPlans)
	}
	return nil
}

// SetRSVP records userID's response to planID, or withdraws it when status
// is absent. The capacity check, the ledger write and the filled-spots
// update happen under one lock acquisition. A full plan yields an error
// matching plan.ErrPlanFull and leaves everything untouched.
func (s *Store) SetRSVP(ctx context.Context, userID, planID string, status mo.Option[plan.Status]) (rsvp.Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[planID]
	if !ok {
		return rsvp.Transition{}, plan.NotFound("plan", planID)
	}

	t, err := s.ledger.Set(p, userID, status, s.today())
	if err != nil {
		s.logger.Info("rsvp rejected", "plan_id", planID, "user_id", userID, "error", err)
		return rsvp.Transition{}, err
	}
	if !t.Changed() {
		return t, nil
	}

	s.logger.Info("rsvp recorded",
		"plan_id", planID,
		"user_id", userID,
		"status", statusAttr(t.To),
		"filled_spots", t.FilledSpots)
	if t.Delta != 0 {
		s.persist(ctx, CollectionRSVPs, CollectionPlans)
	} else {
		s.persist(ctx, CollectionRSVPs)
	}
	return t, nil
}

func statusAttr(o mo.Option[plan.Status]) string {
	if st, ok := o.Get(); ok {
		return string(st)
	}
	return "none"
}

// ExtendSeries materializes further occurrences of a series up to and
// including horizon, continuing after the last generated instance. Deleted
// occurrences are not brought back. It returns the new plans.
func (s *Store) ExtendSeries(ctx context.Context, seriesID string, horizon dates.Date) ([]plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.series[seriesID]
	if !ok {
		return nil, plan.NotFound("series", seriesID)
	}

	added, err := s.expander.Extend(rec.Template, rec.Generated, recurrence.Window{Horizon: &horizon})
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return nil, nil
	}

	for i := range added {
		p := added[i].Clone()
		s.plans[p.ID] = &p
	}
	rec.Generated += len(added)

	s.logger.Info("series extended", "series_id", seriesID, "added", len(added), "horizon", horizon.String())
	s.persist(ctx, CollectionPlans, CollectionSeries)
	return added, nil
}
