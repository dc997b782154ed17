package seed

import (
	"context"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/openinvite/internal/dates"
	"github.com/cyp0633/openinvite/plan"
	"github.com/cyp0633/openinvite/planner"
	"github.com/cyp0633/openinvite/social"
)

var christmas = time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC)

func bootstrapped(t *testing.T) (*planner.Store, *social.Directory) {
	t.Helper()
	dir := social.New()
	store := planner.New(
		planner.WithDirectory(dir),
		planner.WithClock(func() time.Time { return christmas }),
	)
	t.Cleanup(store.Close)

	seeded, err := Bootstrap(context.Background(), store, dir, Fixtures())
	require.NoError(t, err)
	require.True(t, seeded)
	return store, dir
}

func TestFixtures_AreValid(t *testing.T) {
	data := Fixtures()

	assert.Len(t, data.Social.Users, 6)
	assert.Len(t, data.Social.Groups, 10)
	assert.Len(t, data.Plans, 21)

	ids := make(map[string]bool)
	for _, p := range data.Plans {
		assert.NoError(t, p.Validate(), p.ID)
		assert.False(t, ids[p.ID], "duplicate id %s", p.ID)
		ids[p.ID] = true
	}
	for _, r := range data.RSVPs {
		assert.True(t, ids[r.PlanID], "rsvp for unknown plan %s", r.PlanID)
	}

	// fresh copies every call
	data.Plans[0].Title = "changed"
	assert.Equal(t, "Weekly Volleyball", Fixtures().Plans[0].Title)
}

func TestFixtures_VolleyballSeries(t *testing.T) {
	var got []string
	for _, p := range Fixtures().Plans {
		if p.SeriesID() == VolleyballSeries {
			got = append(got, p.Date.String())
			assert.Equal(t, 1, p.DeadlineGap())
		}
	}
	assert.Equal(t, []string{"2024-12-31", "2025-01-07", "2025-01-14", "2025-01-21", "2025-01-28"}, got)
}

func TestBootstrap_DiscoverFeed(t *testing.T) {
	store, _ := bootstrapped(t)

	var got []string
	for _, d := range store.DiscoverFeed(CurrentUser) {
		got = append(got, d.Plan.ID)
	}
	assert.Equal(t, []string{
		"gp1", "fp1", "fp2", "gp2", "fp3", "gp4", "fp4", "gp3", "fp5", "gp5", "fp6",
	}, got)
}

func TestBootstrap_Visibility(t *testing.T) {
	store, _ := bootstrapped(t)

	tests := []struct {
		planID string
		viewer string
		want   bool
	}{
		{planID: "3", viewer: "2", want: true},  // in Close Friends
		{planID: "3", viewer: "3", want: true},  // in Close Friends
		{planID: "3", viewer: "5", want: false}, // already answered
		{planID: "4", viewer: "2", want: false}, // not in Quiet Hangs
		{planID: "2", viewer: "5", want: false}, // already answered
		{planID: "rec1", viewer: "3", want: true},
		{planID: "gp3", viewer: CurrentUser, want: true},
		{planID: "rec1", viewer: CurrentUser, want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, store.IsDiscoverable(tt.planID, tt.viewer), "%s for %s", tt.planID, tt.viewer)
	}
}

func TestBootstrap_Store(t *testing.T) {
	store, dir := bootstrapped(t)
	ctx := context.Background()

	assert.Equal(t, []string{VolleyballSeries}, store.Series())
	assert.Len(t, store.GetUpcomingOccurrences("rec1"), 4)
	assert.Equal(t, "Repeats weekly", store.GetRecurrenceLabel(store.GetPlanByID("rec3").MustGet()))

	full := store.GetAvailability("4").MustGet()
	assert.True(t, full.Full)
	_, err := store.SetRSVP(ctx, "6", "4", mo.Some(plan.StatusGoing))
	assert.ErrorIs(t, err, plan.ErrPlanFull)

	added, err := store.ExtendSeries(ctx, VolleyballSeries, dates.MustParse("2025-02-05"))
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, 5, added[0].Recurrence.InstanceIndex)
	assert.Equal(t, "2025-02-04", added[0].Date.String())

	assert.Len(t, dir.PendingGroupInvites(CurrentUser), 2)
	assert.True(t, dir.IsFriend(CurrentUser, "3"))
	assert.False(t, dir.IsFriend("1", "3"))

	seeded, err := Bootstrap(ctx, store, dir, Fixtures())
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Len(t, store.ListPlans(), 22)
}

func TestBootstrap_KeepsExistingDirectory(t *testing.T) {
	dir := social.New()
	require.NoError(t, dir.AddUser(plan.User{ID: "solo", Name: "Solo"}))

	store := planner.New(planner.WithDirectory(dir))
	t.Cleanup(store.Close)

	seeded, err := Bootstrap(context.Background(), store, dir, Fixtures())
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Len(t, dir.Users(), 1)
	assert.True(t, dir.User(CurrentUser).IsAbsent())
}

func TestData_NotificationsAndThreads(t *testing.T) {
	data := Fixtures()

	notes := data.NotificationsFor(CurrentUser)
	require.Len(t, notes, 6)
	assert.Equal(t, "notif1", notes[0].ID)
	assert.Equal(t, "notif6", notes[5].ID)
	assert.Equal(t, 3, data.Unread(CurrentUser))
	assert.Empty(t, data.NotificationsFor("1"))

	thread := data.Thread("2")
	require.Len(t, thread, 4)
	assert.Equal(t, "msg4", thread[0].ID)
	assert.Equal(t, "msg7", thread[3].ID)
	assert.Empty(t, data.Thread("fp1"))
}
