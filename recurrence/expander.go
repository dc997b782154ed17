package recurrence

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cyp0633/openinvite/plan"
)

// Expander turns a recurring plan template into concrete occurrences
type Expander struct {
	cache  *Cache
	config ExpanderConfig
	newID  func() string
	now    func() time.Time
}

// Option configures an Expander
type Option func(*Expander)

// WithIDFunc replaces the uuid generator used for plan and series ids
func WithIDFunc(fn func() string) Option {
	return func(e *Expander) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithClock replaces the clock used for CreatedAt
func WithClock(now func() time.Time) Option {
	return func(e *Expander) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExpander creates an expander with DefaultExpanderConfig
func NewExpander(opts ...Option) *Expander {
	return NewExpanderWithConfig(DefaultExpanderConfig, opts...)
}

// NewExpanderWithConfig creates an expander with a custom configuration
func NewExpanderWithConfig(config ExpanderConfig, opts ...Option) *Expander {
	if config.MaxOccurrences <= 0 {
		config.MaxOccurrences = DefaultMaxOccurrences
	}
	if config.MaxExtension <= 0 {
		config.MaxExtension = DefaultExpanderConfig.MaxExtension
	}

	e := &Expander{
		config: config,
		newID:  uuid.NewString,
		now:    time.Now,
	}
	if config.CacheEnabled {
		e.cache = NewCache(config.CacheConfig)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the configuration the expander runs with
func (e *Expander) Config() ExpanderConfig {
	return e.config
}

// Close releases the cache goroutine, if any
func (e *Expander) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// Expand materializes the first maxCount occurrences of template. The
// template is a plan without id or creation time whose recurrence is not
// none; maxCount <= 0 falls back to the configured window. Each occurrence
// gets a fresh id, zero filled spots, and the template's date-to-deadline
// gap. A series id is assigned here unless the template already carries one.
// Instance indices count up from the template's own index, normally 0.
func (e *Expander) Expand(template plan.Plan, maxCount int) ([]plan.Plan, error) {
	if maxCount <= 0 {
		maxCount = e.config.MaxOccurrences
	}
	if template.Recurrence == nil {
		return nil, plan.Invalid("recurrence", "template does not repeat")
	}
	if err := template.Recurrence.Validate(template.Date); err != nil {
		return nil, err
	}

	seriesID := template.Recurrence.SeriesID
	if seriesID == "" {
		seriesID = e.newID()
	}

	occurrences, err := e.window(template, Window{Limit: maxCount})
	if err != nil {
		return nil, err
	}
	if len(occurrences) == 0 {
		return nil, plan.Invalid("recurrence", "series would have no occurrences")
	}

	createdAt := e.now()
	plans := make([]plan.Plan, 0, len(occurrences))
	for _, occ := range occurrences {
		plans = append(plans, e.materialize(template, seriesID, createdAt, occ))
	}
	return plans, nil
}

// Extend materializes the occurrences of a series from fromIndex onward up to
// and including horizon, capped by the configured extension size. base
// supplies the non-date fields of the new occurrences and must carry the
// series' anchor date, anchor deadline and recurrence.
func (e *Expander) Extend(base plan.Plan, fromIndex int, w Window) ([]plan.Plan, error) {
	if base.Recurrence == nil || base.Recurrence.SeriesID == "" {
		return nil, plan.Invalid("recurrence.seriesId", "extension needs an existing series")
	}
	w.FromIndex = fromIndex
	if w.Limit <= 0 || w.Limit > e.config.MaxExtension {
		w.Limit = e.config.MaxExtension
	}

	occurrences, err := e.window(base, w)
	if err != nil {
		return nil, err
	}

	createdAt := e.now()
	plans := make([]plan.Plan, 0, len(occurrences))
	for _, occ := range occurrences {
		plans = append(plans, e.materialize(base, base.Recurrence.SeriesID, createdAt, occ))
	}
	return plans, nil
}

// Occurrences returns the dated slots of template inside w without building
// plans
func (e *Expander) Occurrences(template plan.Plan, w Window) ([]Occurrence, error) {
	if template.Recurrence == nil {
		return nil, plan.Invalid("recurrence", "template does not repeat")
	}
	return e.window(template, w)
}

// window expands template from its own date. A template anchored on instance
// k of an "after n" series has only n-k occurrences left.
func (e *Expander) window(template plan.Plan, w Window) ([]Occurrence, error) {
	r := *template.Recurrence
	if r.End.Type == plan.EndAfter && r.InstanceIndex > 0 {
		r.End.Occurrences -= r.InstanceIndex
		if r.End.Occurrences <= 0 {
			return nil, nil
		}
	}

	seq, err := NewSequence(r, template.Date, template.RSVPDeadline)
	if err != nil {
		return nil, fmt.Errorf("failed to expand series: %w", err)
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(seq.String(), seq.gap, w); ok {
			return cached, nil
		}
	}

	occurrences := seq.Collect(w)
	if e.cache != nil {
		e.cache.Set(seq.String(), seq.gap, w, occurrences)
	}
	return occurrences, nil
}

func (e *Expander) materialize(template plan.Plan, seriesID string, createdAt time.Time, occ Occurrence) plan.Plan {
	p := template.Clone()
	p.ID = e.newID()
	p.CreatedAt = createdAt
	p.FilledSpots = 0
	p.Date = occ.Date
	p.RSVPDeadline = occ.Deadline

	p.Recurrence.SeriesID = seriesID
	p.Recurrence.InstanceIndex += occ.Index
	return p
}
