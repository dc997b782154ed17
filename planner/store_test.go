package planner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/openinvite/internal/dates"
	"github.com/cyp0633/openinvite/plan"
	"github.com/cyp0633/openinvite/social"
)

var fixedNow = time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	n := 0
	var mu sync.Mutex
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDFunc(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	}
	s := New(append(base, opts...)...)
	t.Cleanup(s.Close)
	return s
}

func standalone(total int) plan.Input {
	return plan.Input{
		Title:        "Board Game Night",
		Date:         dates.MustParse("2025-01-10"),
		Time:         dates.MustParseTimeOfDay("19:00"),
		Location:     "Alex's place",
		TotalSpots:   total,
		RSVPDeadline: dates.MustParse("2025-01-08"),
		CreatedBy:    "me",
	}
}

func weekly(date string, end plan.RecurrenceEnd) plan.Input {
	in := standalone(12)
	in.Title = "Weekly Volleyball"
	in.Location = "City Park Recreation Center"
	in.Date = dates.MustParse(date)
	in.RSVPDeadline = dates.AddDays(in.Date, -1)
	in.Time = dates.MustParseTimeOfDay("18:30")
	in.Visibility = &plan.Visibility{Type: plan.VisibleToFriends}
	in.Recurrence = &plan.Recurrence{Type: plan.RecurrenceWeekly, End: end}
	return in
}

func TestStore_CreateStandalone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plans, err := s.CreatePlan(ctx, standalone(4))
	require.NoError(t, err)
	require.Len(t, plans, 1)

	p := plans[0]
	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, fixedNow, p.CreatedAt)
	assert.Equal(t, 0, p.FilledSpots)
	assert.False(t, p.IsRecurring())
	assert.Empty(t, s.GetRecurrenceLabel(p))

	got, ok := s.GetPlanByID(p.ID).Get()
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.True(t, s.GetPlanByID("missing").IsAbsent())

	// returned plans are copies
	plans[0].Title = "changed"
	assert.Equal(t, "Board Game Night", s.GetPlanByID(p.ID).MustGet().Title)
}

func TestStore_CreateRejectsInvalidInput(t *testing.T) {
	zeroRuns := weekly("2025-01-07", plan.RecurrenceEnd{Type: plan.EndAfter, Occurrences: 0})

	tests := []struct {
		name   string
		mutate func(in *plan.Input)
	}{
		{name: "empty title", mutate: func(in *plan.Input) { in.Title = "" }},
		{name: "blank location", mutate: func(in *plan.Input) { in.Location = "   " }},
		{name: "no spots", mutate: func(in *plan.Input) { in.TotalSpots = 0 }},
		{name: "deadline after date", mutate: func(in *plan.Input) { in.RSVPDeadline = dates.MustParse("2025-01-11") }},
		{name: "zero occurrences", mutate: func(in *plan.Input) { *in = zeroRuns }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			in := standalone(4)
			tt.mutate(&in)

			plans, err := s.CreatePlan(context.Background(), in)
			assert.ErrorIs(t, err, plan.ErrValidation)
			assert.Nil(t, plans)
			assert.True(t, s.IsEmpty())
			assert.Empty(t, s.Series())
		})
	}
}

func TestStore_CreateRecurring(t *testing.T) {
	s := newTestStore(t)

	plans, err := s.CreatePlan(context.Background(),
		weekly("2024-12-31", plan.RecurrenceEnd{Type: plan.EndAfter, Occurrences: 4}))
	require.NoError(t, err)
	require.Len(t, plans, 4)

	want := []string{"2024-12-31", "2025-01-07", "2025-01-14", "2025-01-21"}
	seriesID := plans[0].SeriesID()
	require.NotEmpty(t, seriesID)
	for i, p := range plans {
		assert.Equal(t, want[i], p.Date.String())
		assert.Equal(t, 1, p.DeadlineGap())
		assert.Equal(t, i, p.Recurrence.InstanceIndex)
		assert.Equal(t, seriesID, p.SeriesID())
		assert.Equal(t, "Repeats weekly", s.GetRecurrenceLabel(p))
	}
	assert.Equal(t, []string{seriesID}, s.Series())
	assert.Len(t, s.ListPlans(), 4)
}

func TestStore_CreateMonthlyClampsToMonthEnd(t *testing.T) {
	s := newTestStore(t)
	in := standalone(6)
	in.Date = dates.MustParse("2025-01-31")
	in.RSVPDeadline = in.Date
	in.Recurrence = &plan.Recurrence{Type: plan.RecurrenceMonthly, End: plan.RecurrenceEnd{Type: plan.EndNever}}

	plans, err := s.CreatePlan(context.Background(), in)
	require.NoError(t, err)

	var got []string
	for _, p := range plans {
		got = append(got, p.Date.String())
	}
	assert.Equal(t, []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30", "2025-05-31"}, got)
}

func TestStore_CapacityScenario(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plans, err := s.CreatePlan(ctx, standalone(2))
	require.NoError(t, err)
	id := plans[0].ID
	filled := func() int { return s.GetPlanByID(id).MustGet().FilledSpots }

	_, err = s.SetRSVP(ctx, "A", id, mo.Some(plan.StatusGoing))
	require.NoError(t, err)
	assert.Equal(t, 1, filled())

	_, err = s.SetRSVP(ctx, "B", id, mo.Some(plan.StatusGoing))
	require.NoError(t, err)
	assert.Equal(t, 2, filled())

	_, err = s.SetRSVP(ctx, "C", id, mo.Some(plan.StatusGoing))
	require.ErrorIs(t, err, plan.ErrPlanFull)
	assert.Equal(t, 2, filled())
	assert.True(t, s.GetMyRSVP("C", id).IsAbsent())

	_, err = s.SetRSVP(ctx, "A", id, mo.None[plan.Status]())
	require.NoError(t, err)
	assert.Equal(t, 1, filled())

	tr, err := s.SetRSVP(ctx, "C", id, mo.Some(plan.StatusGoing))
	require.NoError(t, err)
	assert.Equal(t, 2, tr.FilledSpots)
	assert.Equal(t, 2, filled())

	assert.Equal(t, []string{"B", "C"}, s.RSVPsForPlan(id).Going)
	assert.Equal(t, mo.Some(plan.StatusGoing), s.GetMyRSVP("C", id))

	_, err = s.SetRSVP(ctx, "A", "missing", mo.Some(plan.StatusMaybe))
	assert.ErrorIs(t, err, plan.ErrNotFound)
}

func TestStore_ConcurrentRSVPsNeverOverbook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plans, err := s.CreatePlan(ctx, standalone(5))
	require.NoError(t, err)
	id := plans[0].ID

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		full      int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, err := s.SetRSVP(ctx, user, id, mo.Some(plan.StatusGoing))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, plan.ErrPlanFull):
				full++
			}
		}(fmt.Sprintf("user-%d", i))
	}
	wg.Wait()

	assert.Equal(t, 5, successes)
	assert.Equal(t, 35, full)
	assert.Equal(t, 5, s.GetPlanByID(id).MustGet().FilledSpots)
	assert.Len(t, s.RSVPsForPlan(id).Going, 5)
}

func TestStore_UpdatePlan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plans, err := s.CreatePlan(ctx, standalone(3))
	require.NoError(t, err)
	id := plans[0].ID
	_, err = s.SetRSVP(ctx, "A", id, mo.Some(plan.StatusGoing))
	require.NoError(t, err)
	_, err = s.SetRSVP(ctx, "B", id, mo.Some(plan.StatusGoing))
	require.NoError(t, err)

	err = s.UpdatePlan(ctx, id, plan.Fields{
		Title: mo.Some("Poker Night"),
		Notes: mo.Some("Bring snacks"),
	})
	require.NoError(t, err)
	p := s.GetPlanByID(id).MustGet()
	assert.Equal(t, "Poker Night", p.Title)
	assert.Equal(t, "Bring snacks", p.Notes)
	assert.Equal(t, 2, p.FilledSpots)
	assert.Equal(t, plans[0].CreatedAt, p.CreatedAt)

	err = s.UpdatePlan(ctx, id, plan.Fields{TotalSpots: mo.Some(1)})
	assert.ErrorIs(t, err, plan.ErrValidation)
	assert.Equal(t, 3, s.GetPlanByID(id).MustGet().TotalSpots)

	err = s.UpdatePlan(ctx, id, plan.Fields{RSVPDeadline: mo.Some(dates.MustParse("2025-02-01"))})
	assert.ErrorIs(t, err, plan.ErrValidation)

	// a recurrence patch does not expand anything
	err = s.UpdatePlan(ctx, id, plan.Fields{Recurrence: mo.Some(&plan.Recurrence{
		Type: plan.RecurrenceWeekly, End: plan.RecurrenceEnd{Type: plan.EndNever},
	})})
	require.NoError(t, err)
	assert.Len(t, s.ListPlans(), 1)
	assert.Empty(t, s.Series())

	assert.NoError(t, s.UpdatePlan(ctx, id, plan.Fields{}))
	assert.ErrorIs(t, s.UpdatePlan(ctx, "missing", plan.Fields{Title: mo.Some("x")}), plan.ErrNotFound)
}

func TestStore_UpdateSeriesPlans(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Store, []plan.Plan) {
		s := newTestStore(t)
		plans, err := s.CreatePlan(ctx, weekly("2024-12-31", plan.RecurrenceEnd{Type: plan.EndAfter, Occurrences: 4}))
		require.NoError(t, err)
		return s, plans
	}

	t.Run("date is never propagated", func(t *testing.T) {
		s, plans := setup(t)
		n, err := s.UpdateSeriesPlans(ctx, plans[0].SeriesID(), plan.Fields{
			Title: mo.Some("X"),
			Date:  mo.Some(dates.MustParse("2099-01-01")),
			Time:  mo.Some(dates.MustParseTimeOfDay("07:00")),
		}, mo.None[int]())
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		for _, orig := range plans {
			got := s.GetPlanByID(orig.ID).MustGet()
			assert.Equal(t, "X", got.Title)
			assert.Equal(t, orig.Date, got.Date)
			assert.Equal(t, orig.Time, got.Time)
			assert.Equal(t, orig.RSVPDeadline, got.RSVPDeadline)
			assert.Equal(t, orig.Recurrence.InstanceIndex, got.Recurrence.InstanceIndex)
		}
	})

	t.Run("from index", func(t *testing.T) {
		s, plans := setup(t)
		n, err := s.UpdateSeriesPlans(ctx, plans[0].SeriesID(), plan.Fields{Location: mo.Some("Beach Courts")}, mo.Some(2))
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		for i, orig := range plans {
			got := s.GetPlanByID(orig.ID).MustGet()
			if i < 2 {
				assert.Equal(t, orig.Location, got.Location)
			} else {
				assert.Equal(t, "Beach Courts", got.Location)
			}
		}
	})

	t.Run("all or nothing", func(t *testing.T) {
		s, plans := setup(t)
		_, err := s.SetRSVP(ctx, "A", plans[3].ID, mo.Some(plan.StatusGoing))
		require.NoError(t, err)
		_, err = s.SetRSVP(ctx, "B", plans[3].ID, mo.Some(plan.StatusGoing))
		require.NoError(t, err)

		_, err = s.UpdateSeriesPlans(ctx, plans[0].SeriesID(), plan.Fields{
			Title:      mo.Some("Smaller"),
			TotalSpots: mo.Some(1),
		}, mo.None[int]())
		assert.ErrorIs(t, err, plan.ErrValidation)
		for _, orig := range plans {
			assert.Equal(t, orig.Title, s.GetPlanByID(orig.ID).MustGet().Title)
		}
	})

	t.Run("unknown series", func(t *testing.T) {
		s, _ := setup(t)
		_, err := s.UpdateSeriesPlans(ctx, "nope", plan.Fields{Title: mo.Some("X")}, mo.None[int]())
		assert.ErrorIs(t, err, plan.ErrNotFound)
	})

	t.Run("only per-occurrence fields", func(t *testing.T) {
		s, plans := setup(t)
		n, err := s.UpdateSeriesPlans(ctx, plans[0].SeriesID(), plan.Fields{
			Date: mo.Some(dates.MustParse("2099-01-01")),
		}, mo.None[int]())
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestStore_DeletePlanDoesNotCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plans, err := s.CreatePlan(ctx, weekly("2024-12-31", plan.RecurrenceEnd{Type: plan.EndAfter, Occurrences: 3}))
	require.NoError(t, err)
	_, err = s.SetRSVP(ctx, "A", plans[0].ID, mo.Some(plan.StatusMaybe))
	require.NoError(t, err)

	require.NoError(t, s.DeletePlan(ctx, plans[0].ID))
	assert.True(t, s.GetPlanByID(plans[0].ID).IsAbsent())
	assert.True(t, s.GetMyRSVP("A", plans[0].ID).IsAbsent())
	assert.Len(t, s.ListPlans(), 2)
	assert.True(t, s.GetPlanByID(plans[1].ID).IsPresent())

	assert.ErrorIs(t, s.DeletePlan(ctx, plans[0].ID), plan.ErrNotFound)

	// the series stays editable without its first occurrence
	n, err := s.UpdateSeriesPlans(ctx, plans[1].SeriesID(), plan.Fields{Title: mo.Some("Renamed")}, mo.None[int]())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_GetUpcomingOccurrences(t *testing.T) {
	ctx := context.Background()

	s := newTestStore(t)
	plans, err := s.CreatePlan(ctx, weekly("2024-12-13", plan.RecurrenceEnd{Type: plan.EndNever}))
	require.NoError(t, err)
	require.Len(t, plans, 5)

	// 2024-12-13 is in the past, 2024-12-20 is today
	upcoming := s.GetUpcomingOccurrences(plans[1].ID)
	var got []string
	for _, p := range upcoming {
		got = append(got, p.Date.String())
	}
	assert.Equal(t, []string{"2024-12-27", "2025-01-03", "2025-01-10"}, got)

	assert.Len(t, s.GetUpcomingOccurrences(plans[0].ID), 4)

	single, err := s.CreatePlan(ctx, standalone(2))
	require.NoError(t, err)
	assert.Empty(t, s.GetUpcomingOccurrences(single[0].ID))
	assert.Empty(t, s.GetUpcomingOccurrences("missing"))

	capped := newTestStore(t, WithConfig(Config{Expander: DefaultConfig.Expander, UpcomingLimit: 2}))
	plans, err = capped.CreatePlan(ctx, weekly("2025-01-01", plan.RecurrenceEnd{Type: plan.EndNever}))
	require.NoError(t, err)
	upcoming = capped.GetUpcomingOccurrences(plans[0].ID)
	require.Len(t, upcoming, 2)
	assert.Equal(t, plans[1].ID, upcoming[0].ID)
	assert.Equal(t, plans[2].ID, upcoming[1].ID)
}

func TestStore_ExtendSeries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plans, err := s.CreatePlan(ctx, weekly("2024-12-31", plan.RecurrenceEnd{Type: plan.EndNever}))
	require.NoError(t, err)
	seriesID := plans[0].SeriesID()

	_, err = s.UpdateSeriesPlans(ctx, seriesID, plan.Fields{Notes: mo.Some("Bring knee pads")}, mo.None[int]())
	require.NoError(t, err)

	added, err := s.ExtendSeries(ctx, seriesID, dates.MustParse("2025-02-15"))
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, "2025-02-04", added[0].Date.String())
	assert.Equal(t, "2025-02-11", added[1].Date.String())
	assert.Equal(t, 5, added[0].Recurrence.InstanceIndex)
	assert.Equal(t, "Bring knee pads", added[1].Notes)
	assert.Equal(t, 0, added[1].FilledSpots)
	assert.Equal(t, 1, added[1].DeadlineGap())

	again, err := s.ExtendSeries(ctx, seriesID, dates.MustParse("2025-02-15"))
	require.NoError(t, err)
	assert.Empty(t, again, "extending to the same horizon is a no-op")
	assert.Len(t, s.ListPlans(), 7)

	_, err = s.ExtendSeries(ctx, "nope", dates.MustParse("2025-02-15"))
	assert.ErrorIs(t, err, plan.ErrNotFound)
}

func TestStore_ExtendSeriesStopsAtCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plans, err := s.CreatePlan(ctx, weekly("2024-12-31", plan.RecurrenceEnd{Type: plan.EndAfter, Occurrences: 7}))
	require.NoError(t, err)
	require.Len(t, plans, 5)

	added, err := s.ExtendSeries(ctx, plans[0].SeriesID(), dates.MustParse("2026-01-01"))
	require.NoError(t, err)
	assert.Len(t, added, 2)
	assert.Len(t, s.ListPlans(), 7)
}

func TestStore_Discovery(t *testing.T) {
	dir := social.New()
	require.NoError(t, dir.AddFriendship("me", "1"))
	_, err := dir.CreateGroup(plan.Group{ID: "g1", Name: "Book Club", CreatedBy: "2", MemberIDs: []string{"me"}})
	require.NoError(t, err)

	s := newTestStore(t, WithDirectory(dir))
	ctx := context.Background()

	mk := func(creator, date string, v *plan.Visibility) string {
		in := standalone(4)
		in.CreatedBy = creator
		in.Date = dates.MustParse(date)
		in.RSVPDeadline = in.Date
		in.Visibility = v
		plans, err := s.CreatePlan(ctx, in)
		require.NoError(t, err)
		return plans[0].ID
	}

	groupPlan := mk("2", "2025-01-05", &plan.Visibility{Type: plan.VisibleToGroups, GroupIDs: []string{"g1"}})
	friendPlan := mk("1", "2025-01-03", nil)
	pastPlan := mk("1", "2024-12-01", nil)
	otherGroup := mk("2", "2025-01-04", &plan.Visibility{Type: plan.VisibleToGroups, GroupIDs: []string{"g9"}})
	mine := mk("me", "2025-01-02", nil)

	assert.True(t, s.IsDiscoverable(groupPlan, "me"))
	assert.False(t, s.IsDiscoverable(groupPlan, "3"))
	assert.False(t, s.IsDiscoverable(otherGroup, "me"))
	assert.False(t, s.IsDiscoverable(mine, "me"))
	assert.False(t, s.IsDiscoverable("missing", "me"))

	feed := s.DiscoverFeed("me")
	require.Len(t, feed, 2)
	assert.Equal(t, friendPlan, feed[0].Plan.ID)
	assert.Equal(t, groupPlan, feed[1].Plan.ID)
	assert.Equal(t, "Book Club", feed[1].GroupName)
	assert.True(t, s.IsDiscoverable(pastPlan, "me"), "only the feed hides past plans")

	_, err = s.SetRSVP(ctx, "me", groupPlan, mo.Some(plan.StatusInterested))
	require.NoError(t, err)
	assert.False(t, s.IsDiscoverable(groupPlan, "me"))
	require.Len(t, s.DiscoverFeed("me"), 1)

	assert.Equal(t, []string{"me"}, s.Audience(groupPlan))

	var mineIDs []string
	for _, p := range s.PlansFor("me") {
		mineIDs = append(mineIDs, p.ID)
	}
	assert.Equal(t, []string{mine, groupPlan}, mineIDs)
}

func TestStore_Availability(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := standalone(1)
	in.Date = dates.MustParse("2024-12-25")
	in.RSVPDeadline = dates.MustParse("2024-12-22")
	plans, err := s.CreatePlan(ctx, in)
	require.NoError(t, err)

	a, ok := s.GetAvailability(plans[0].ID).Get()
	require.True(t, ok)
	assert.Equal(t, Availability{OpenSpots: 1, DaysUntilDeadline: 2, DeadlineSoon: true}, a)

	_, err = s.SetRSVP(ctx, "A", plans[0].ID, mo.Some(plan.StatusGoing))
	require.NoError(t, err)
	a = s.GetAvailability(plans[0].ID).MustGet()
	assert.True(t, a.Full)
	assert.Zero(t, a.OpenSpots)

	assert.True(t, s.GetAvailability("missing").IsAbsent())
}

func TestStore_EnforcedDeadline(t *testing.T) {
	s := newTestStore(t, WithConfig(StrictConfig))
	ctx := context.Background()

	in := standalone(3)
	in.Date = dates.MustParse("2024-12-22")
	in.RSVPDeadline = dates.MustParse("2024-12-19")
	plans, err := s.CreatePlan(ctx, in)
	require.NoError(t, err)

	_, err = s.SetRSVP(ctx, "A", plans[0].ID, mo.Some(plan.StatusGoing))
	assert.ErrorIs(t, err, plan.ErrDeadlinePassed)
	assert.Zero(t, s.GetPlanByID(plans[0].ID).MustGet().FilledSpots)
}
