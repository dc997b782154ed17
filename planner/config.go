package planner

import (
	"github.com/cyp0633/openinvite/recurrence"
)

// Collection names under which the store persists its state
const (
	CollectionPlans  = "plans"
	CollectionRSVPs  = "rsvps"
	CollectionSeries = "series"
)

// Config holds configuration options for the plan store
type Config struct {
	// Recurrence expansion
	Expander recurrence.ExpanderConfig

	// Maximum siblings returned by GetUpcomingOccurrences
	UpcomingLimit int

	// Refuse new or changed RSVPs after a plan's deadline
	EnforceDeadline bool

	// A deadline this many days away or closer counts as "soon"
	DeadlineSoonDays int

	// Keep past plans out of discovery feeds
	HidePastFromFeed bool
}

// DefaultConfig mirrors the invitation app: five eager occurrences, five
// upcoming siblings, responses accepted until the plan happens.
var DefaultConfig = Config{
	Expander:         recurrence.DefaultExpanderConfig,
	UpcomingLimit:    5,
	EnforceDeadline:  false,
	DeadlineSoonDays: 2,
	HidePastFromFeed: true,
}

// StrictConfig closes responses at the RSVP deadline
var StrictConfig = Config{
	Expander:         recurrence.DefaultExpanderConfig,
	UpcomingLimit:    5,
	EnforceDeadline:  true,
	DeadlineSoonDays: 2,
	HidePastFromFeed: true,
}
