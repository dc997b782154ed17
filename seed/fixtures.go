// Package seed holds the demo data a fresh installation starts with: the
// current user "me", five friends, a weekly volleyball series and a dozen
// one-off plans around Denver.
package seed

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/cyp0633/openinvite/internal/dates"
	"github.com/cyp0633/openinvite/plan"
	"github.com/cyp0633/openinvite/social"
)

// CurrentUser is the id the demo data is written from
const CurrentUser = "me"

// VolleyballSeries is the series id of the demo recurring plan
const VolleyballSeries = "series_volleyball_1"

// Data is a complete demo dataset
type Data struct {
	Social        social.Snapshot
	Plans         []plan.Plan
	RSVPs         []plan.RSVP
	Notifications []plan.Notification
	Messages      []plan.Message
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

var (
	day   = dates.MustParse
	clock = dates.MustParseTimeOfDay
)

func friends() *plan.Visibility { return &plan.Visibility{Type: plan.VisibleToFriends} }
func everyone() *plan.Visibility { return &plan.Visibility{Type: plan.VisibleToEveryone} }
func groups(ids ...string) *plan.Visibility {
	return &plan.Visibility{Type: plan.VisibleToGroups, GroupIDs: ids}
}

// Fixtures returns a fresh copy of the demo dataset
func Fixtures() Data {
	return Data{
		Social:        directory(),
		Plans:         slices.Concat(volleyball(), myPlans(), friendPlans(), groupPlans()),
		RSVPs:         rsvps(),
		Notifications: notifications(),
		Messages:      messages(),
	}
}

func directory() social.Snapshot {
	users := []plan.User{
		{
			ID: CurrentUser, Name: "You", AvatarColor: "#6366F1", Username: "yourname",
			Bio: "Denver local. Always down for adventures!", Email: "you@example.com",
		},
		{ID: "1", Name: "Alex Chen", AvatarColor: "#EC4899"},
		{ID: "2", Name: "Jordan Smith", AvatarColor: "#14B8A6"},
		{ID: "3", Name: "Sam Wilson", AvatarColor: "#F59E0B"},
		{ID: "4", Name: "Taylor Kim", AvatarColor: "#8B5CF6"},
		{ID: "5", Name: "Morgan Lee", AvatarColor: "#EF4444"},
	}

	var edges []social.Friendship
	for _, u := range users[1:] {
		edges = append(edges, social.Friendship{A: u.ID, B: CurrentUser})
	}

	personal := func(id, name string, members ...string) plan.Group {
		return plan.Group{
			ID: id, Name: name, Type: plan.GroupPersonal, MemberIDs: members,
			CreatedBy: CurrentUser, CreatedAt: ts("2024-12-01T00:00:00Z"),
		}
	}

	return social.Snapshot{
		Users:       users,
		Friendships: edges,
		Groups: []plan.Group{
			{
				ID: "sg1", Name: "Friday Night Crew", Type: plan.GroupShared,
				MemberIDs: []string{CurrentUser, "1", "2", "3"}, CreatedAt: ts("2024-11-15T00:00:00Z"),
				Description: "Weekend hangouts around LoDo and RiNo",
			},
			{
				ID: "sg2", Name: "Hiking Club", Type: plan.GroupShared,
				MemberIDs: []string{CurrentUser, "1", "4", "5"}, CreatedAt: ts("2024-10-20T00:00:00Z"),
				Description: "Weekly hikes in the Front Range",
			},
			{
				ID: "sg3", Name: "Book Club", Type: plan.GroupShared,
				MemberIDs: []string{CurrentUser, "2", "4"}, CreatedAt: ts("2024-09-01T00:00:00Z"),
				Description: "Monthly book discussions in the Highlands",
			},
			personal("g1", "Close Friends", "1", "2", "3"),
			personal("g2", "Workout Buddies", "1", "4"),
			personal("g3", "Drinking Crew", "2", "3", "5"),
			personal("g4", "Quiet Hangs", "1", "4", "5"),
			personal("g5", "Work Friends", "2", "4"),
			{
				ID: "sg4", Name: "Pickup Basketball", Type: plan.GroupShared, CreatedBy: "1",
				MemberIDs: []string{"1", "3", "5"}, CreatedAt: ts("2024-08-15T00:00:00Z"),
				Description: "Sunday pickup games at City Park",
			},
			{
				ID: "sg5", Name: "Denver Foodies", Type: plan.GroupShared, CreatedBy: "2",
				MemberIDs: []string{"2", "4", "5"}, CreatedAt: ts("2024-07-01T00:00:00Z"),
				Description: "Trying new restaurants around Denver",
			},
		},
		GroupInvites: []plan.GroupInvite{
			{
				ID: "inv1", GroupID: "sg4", InvitedUserID: CurrentUser, InvitedByUserID: "1",
				Status: plan.RequestPending, CreatedAt: ts("2024-12-23T14:00:00Z"),
			},
			{
				ID: "inv2", GroupID: "sg5", InvitedUserID: CurrentUser, InvitedByUserID: "2",
				Status: plan.RequestPending, CreatedAt: ts("2024-12-24T10:30:00Z"),
			},
		},
	}
}

// volleyball is five materialized Tuesdays of an open-ended weekly series
func volleyball() []plan.Plan {
	filled := []int{6, 4, 2, 0, 0}
	start := day("2024-12-31")

	out := make([]plan.Plan, 0, len(filled))
	for i, n := range filled {
		date := dates.AddDays(start, 7*i)
		out = append(out, plan.Plan{
			ID:           fmt.Sprintf("rec%d", i+1),
			Title:        "Weekly Volleyball",
			Date:         date,
			Time:         clock("18:30"),
			Location:     "City Park Recreation Center, 2001 Colorado Blvd, Denver",
			TotalSpots:   12,
			FilledSpots:  n,
			RSVPDeadline: dates.AddDays(date, -1),
			Notes:        "Casual pickup volleyball. All skill levels welcome!",
			CreatedBy:    CurrentUser,
			CreatedAt:    ts("2024-12-15T10:00:00Z"),
			Visibility:   friends(),
			Recurrence: &plan.Recurrence{
				Type:          plan.RecurrenceWeekly,
				End:           plan.RecurrenceEnd{Type: plan.EndNever},
				SeriesID:      VolleyballSeries,
				InstanceIndex: i,
			},
		})
	}
	return out
}

func myPlans() []plan.Plan {
	return []plan.Plan{
		{
			ID: "1", Title: "Dinner at Guard and Grace", Date: day("2025-01-03"), Time: clock("19:30"),
			Location: "Guard and Grace, 1801 California St, Denver", TotalSpots: 6, FilledSpots: 3,
			RSVPDeadline: day("2025-01-02"), Notes: "Celebrating the new year! Dress code is smart casual.",
			CreatedBy: CurrentUser, CreatedAt: ts("2024-12-20T10:00:00Z"), Visibility: groups("g1"),
		},
		{
			ID: "2", Title: "Avalanche Game", Date: day("2025-01-05"), Time: clock("17:00"),
			Location: "Ball Arena, 1000 Chopper Cir, Denver", TotalSpots: 8, FilledSpots: 5,
			RSVPDeadline: day("2025-01-04"), Notes: "Got tickets in section 118! Wear your burgundy and blue.",
			CreatedBy: CurrentUser, CreatedAt: ts("2024-12-21T14:30:00Z"), Visibility: everyone(),
		},
		{
			ID: "3", Title: "Breckenridge Ski Trip", Date: day("2025-01-18"), Time: clock("07:00"),
			Location: "Breckenridge Ski Resort", TotalSpots: 4, FilledSpots: 2,
			RSVPDeadline: day("2025-01-15"), Notes: "Carpooling from Denver. Rentals available at the resort.",
			CreatedBy: CurrentUser, CreatedAt: ts("2024-12-22T09:00:00Z"), Visibility: groups("g1", "g2"),
		},
		{
			ID: "4", Title: "Board Game Night", Date: day("2025-01-10"), Time: clock("18:00"),
			Location: "My place - Capitol Hill", TotalSpots: 6, FilledSpots: 6,
			RSVPDeadline: day("2025-01-09"), Notes: "BYOB. I have Catan, Ticket to Ride, and Codenames.",
			CreatedBy: CurrentUser, CreatedAt: ts("2024-12-23T16:00:00Z"), Visibility: groups("g4"),
		},
		{
			ID: "5", Title: "Red Rocks Hike", Date: day("2025-01-12"), Time: clock("08:00"),
			Location: "Red Rocks Park, Trading Post Trail", TotalSpots: 10, FilledSpots: 4,
			RSVPDeadline: day("2025-01-11"),
			CreatedBy:    CurrentUser, CreatedAt: ts("2024-12-24T08:00:00Z"), Visibility: friends(),
		},
	}
}

func friendPlans() []plan.Plan {
	return []plan.Plan{
		{
			ID: "fp1", Title: "Rooftop Drinks at 54thirty", Date: day("2025-01-04"), Time: clock("18:00"),
			Location: "54thirty Rooftop, 1475 California St, Denver", TotalSpots: 8, FilledSpots: 3,
			RSVPDeadline: day("2025-01-03"), Notes: "Best mountain views in the city! First round on me.",
			CreatedBy: "1", CreatedAt: ts("2024-12-23T12:00:00Z"), Visibility: friends(),
		},
		{
			ID: "fp2", Title: "Brunch at Snooze", Date: day("2025-01-06"), Time: clock("11:00"),
			Location: "Snooze A.M. Eatery, 2262 Larimer St, Denver", TotalSpots: 6, FilledSpots: 2,
			RSVPDeadline: day("2025-01-05"), Notes: "Their pancake flights are incredible. Get there early!",
			CreatedBy: "2", CreatedAt: ts("2024-12-24T09:00:00Z"), Visibility: friends(),
		},
		{
			ID: "fp3", Title: "Nuggets Watch Party", Date: day("2025-01-08"), Time: clock("19:00"),
			Location: "Blake Street Tavern, 2301 Blake St, Denver", TotalSpots: 5, FilledSpots: 2,
			RSVPDeadline: day("2025-01-07"),
			CreatedBy:    "3", CreatedAt: ts("2024-12-24T14:00:00Z"), Visibility: everyone(),
		},
		{
			ID: "fp4", Title: "Axe Throwing", Date: day("2025-01-11"), Time: clock("14:00"),
			Location: "Bad Axe Throwing, 3411 E 52nd Ave, Denver", TotalSpots: 4, FilledSpots: 1,
			RSVPDeadline: day("2025-01-10"), Notes: "Always wanted to try this! Beginners welcome.",
			CreatedBy: "4", CreatedAt: ts("2024-12-22T16:00:00Z"), Visibility: friends(),
		},
		{
			ID: "fp5", Title: "Fire Pit Hangout", Date: day("2025-01-15"), Time: clock("17:00"),
			Location: "Sloan's Lake Park, West Side", TotalSpots: 12, FilledSpots: 4,
			RSVPDeadline: day("2025-01-14"), Notes: "Bring blankets and snacks. I'll bring the hot cocoa.",
			CreatedBy: "5", CreatedAt: ts("2024-12-21T11:00:00Z"), Visibility: everyone(),
		},
		{
			ID: "fp6", Title: "Brewery Tour", Date: day("2025-01-20"), Time: clock("13:00"),
			Location: "Great Divide Brewing Co, 2201 Arapahoe St, Denver", TotalSpots: 6, FilledSpots: 3,
			RSVPDeadline: day("2025-01-18"), Notes: "Hitting Great Divide, then maybe Ratio and Our Mutual Friend.",
			CreatedBy: "1", CreatedAt: ts("2024-12-20T15:00:00Z"), Visibility: friends(),
		},
	}
}

func groupPlans() []plan.Plan {
	return []plan.Plan{
		{
			ID: "gp1", Title: "Friday Happy Hour", Date: day("2025-01-03"), Time: clock("17:30"),
			Location: "Finn's Manor, 2927 Larimer St, Denver", TotalSpots: 10, FilledSpots: 4,
			RSVPDeadline: day("2025-01-03"), Notes: "Weekly tradition! New members welcome.",
			CreatedBy: "2", CreatedAt: ts("2024-12-24T10:00:00Z"), Visibility: groups("sg1"),
		},
		{
			ID: "gp2", Title: "Mount Falcon Sunrise Hike", Date: day("2025-01-07"), Time: clock("06:30"),
			Location: "Mount Falcon Park, West Trailhead", TotalSpots: 8, FilledSpots: 3,
			RSVPDeadline: day("2025-01-06"), Notes: "Sunrise hike! Bring headlamps. Coffee in Morrison after.",
			CreatedBy: "1", CreatedAt: ts("2024-12-23T18:00:00Z"), Visibility: groups("sg2"),
		},
		{
			ID: "gp3", Title: "Book Discussion: Project Hail Mary", Date: day("2025-01-14"), Time: clock("19:00"),
			Location: "Jordan's place - Highlands", TotalSpots: 6, FilledSpots: 2,
			RSVPDeadline: day("2025-01-12"), Notes: "Finish the book by then! Snacks provided.",
			CreatedBy: "2", CreatedAt: ts("2024-12-22T20:00:00Z"), Visibility: groups("sg3"),
		},
		{
			ID: "gp4", Title: "Voicebox Karaoke", Date: day("2025-01-10"), Time: clock("21:00"),
			Location: "Voicebox Karaoke, 1290 S Broadway, Denver", TotalSpots: 8, FilledSpots: 5,
			RSVPDeadline: day("2025-01-09"), Notes: "Private room booked! Song requests welcome.",
			CreatedBy: "3", CreatedAt: ts("2024-12-24T13:00:00Z"), Visibility: groups("sg1"),
		},
		{
			ID: "gp5", Title: "Trail Run at Lookout Mountain", Date: day("2025-01-19"), Time: clock("07:00"),
			Location: "Lookout Mountain Nature Center", TotalSpots: 6, FilledSpots: 2,
			RSVPDeadline: day("2025-01-17"), Notes: "5-mile loop. Moderate difficulty. Bring water!",
			CreatedBy: "4", CreatedAt: ts("2024-12-21T14:00:00Z"), Visibility: groups("sg2"),
		},
	}
}

func rsvps() []plan.RSVP {
	r := func(user, planID string, s plan.Status) plan.RSVP {
		return plan.RSVP{UserID: user, PlanID: planID, Status: s}
	}
	const (
		going      = plan.StatusGoing
		maybe      = plan.StatusMaybe
		interested = plan.StatusInterested
	)
	return []plan.RSVP{
		r("1", "1", going), r("2", "1", going), r("3", "1", maybe), r("4", "1", interested),
		r("1", "2", going), r("2", "2", going), r("3", "2", going), r("4", "2", going), r("5", "2", maybe),
		r("1", "3", going), r("4", "3", interested), r("5", "3", interested),
		r("1", "4", going), r("2", "4", going), r("3", "4", going), r("4", "4", going), r("5", "4", going),
		r("2", "5", going), r("3", "5", going), r("4", "5", maybe), r("5", "5", interested),
	}
}

func notifications() []plan.Notification {
	return []plan.Notification{
		{
			ID: "notif1", Type: plan.NotifyRSVP, UserID: CurrentUser, Title: "New RSVP",
			Message: "Alex Chen is going to Dinner at Guard and Grace", PlanID: "1", ActorID: "1",
			RSVPStatus: plan.StatusGoing, CreatedAt: ts("2024-12-24T15:30:00Z"),
		},
		{
			ID: "notif2", Type: plan.NotifyRSVP, UserID: CurrentUser, Title: "New RSVP",
			Message: "Jordan Smith is maybe going to Dinner at Guard and Grace", PlanID: "1", ActorID: "2",
			RSVPStatus: plan.StatusMaybe, CreatedAt: ts("2024-12-24T14:00:00Z"),
		},
		{
			ID: "notif3", Type: plan.NotifyGroupInvite, UserID: CurrentUser, Title: "Group Invite",
			Message: "Alex Chen invited you to Pickup Basketball", GroupID: "sg4", ActorID: "1",
			CreatedAt: ts("2024-12-23T14:00:00Z"),
		},
		{
			ID: "notif4", Type: plan.NotifyGroupInvite, UserID: CurrentUser, Title: "Group Invite",
			Message: "Jordan Smith invited you to Denver Foodies", GroupID: "sg5", ActorID: "2", Read: true,
			CreatedAt: ts("2024-12-22T10:30:00Z"),
		},
		{
			ID: "notif5", Type: plan.NotifyRSVP, UserID: CurrentUser, Title: "New RSVP",
			Message: "Taylor Kim is interested in Breckenridge Ski Trip", PlanID: "3", ActorID: "4", Read: true,
			RSVPStatus: plan.StatusInterested, CreatedAt: ts("2024-12-22T09:15:00Z"),
		},
		{
			ID: "notif6", Type: plan.NotifyPlanReminder, UserID: CurrentUser, Title: "Upcoming Plan",
			Message: "Avalanche Game is coming up in 2 days!", PlanID: "2", Read: true,
			CreatedAt: ts("2024-12-21T08:00:00Z"),
		},
	}
}

func messages() []plan.Message {
	m := func(id, planID, user, text, at string) plan.Message {
		return plan.Message{ID: id, PlanID: planID, UserID: user, Text: text, CreatedAt: ts(at)}
	}
	return []plan.Message{
		m("msg1", "1", "1", "Should I bring anything?", "2024-12-23T10:30:00Z"),
		m("msg2", "1", CurrentUser, "Nope, just yourself! Reservations are all set.", "2024-12-23T10:45:00Z"),
		m("msg3", "1", "2", "Can't wait! I've heard their steaks are incredible.", "2024-12-23T14:20:00Z"),
		m("msg4", "2", "3", "I can drive if anyone needs a ride from Cap Hill", "2024-12-22T11:00:00Z"),
		m("msg5", "2", "4", "That would be great! Can you swing by RiNo?", "2024-12-22T11:15:00Z"),
		m("msg6", "2", "3", "Yeah, I'll text you when I'm leaving", "2024-12-22T11:20:00Z"),
		m("msg7", "2", "1", "Go Avs! Let's crush the Wild tonight", "2024-12-23T09:00:00Z"),
		m("msg8", "3", "1", "What time should we leave Denver?", "2024-12-21T15:00:00Z"),
		m("msg9", "3", CurrentUser, "I was thinking 7am to beat I-70 traffic. We can stop in Idaho Springs for breakfast.", "2024-12-21T15:30:00Z"),
		m("msg10", "3", "4", "Works for me! I'll bring snacks for the car", "2024-12-21T16:00:00Z"),
		m("msg11", "5", "2", "Running 10 min late, start without me!", "2024-12-24T07:50:00Z"),
		m("msg12", "5", "3", "No worries, we'll wait at the Trading Post lot", "2024-12-24T07:52:00Z"),
		m("msg13", "gp1", "2", "Who's coming tonight?", "2024-12-24T14:00:00Z"),
		m("msg14", "gp1", "3", "Count me in! Need a drink after this week", "2024-12-24T14:10:00Z"),
		m("msg15", "gp2", "1", "Reminder: bring headlamps, it'll still be dark when we start. Coffee at Red Rocks Grill after!", "2024-12-24T18:00:00Z"),
	}
}

// NotificationsFor returns userID's notifications, newest first
func (d Data) NotificationsFor(userID string) []plan.Notification {
	var out []plan.Notification
	for _, n := range d.Notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b plan.Notification) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

// Unread counts userID's unread notifications
func (d Data) Unread(userID string) int {
	n := 0
	for _, x := range d.Notifications {
		if x.UserID == userID && !x.Read {
			n++
		}
	}
	return n
}

// Thread returns the discussion of planID in posting order
func (d Data) Thread(planID string) []plan.Message {
	var out []plan.Message
	for _, m := range d.Messages {
		if m.PlanID == planID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b plan.Message) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}
