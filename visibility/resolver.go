// Package visibility decides which plans a viewer may discover and which
// friendship or group explains each match.
package visibility

import (
	"cmp"
	"slices"

	"github.com/samber/mo"

	"github.com/cyp0633/openinvite/internal/dates"
	"github.com/cyp0633/openinvite/plan"
)

// FriendGraph answers friendship lookups.
type FriendGraph interface {
	IsFriend(a, b string) bool
}

// GroupDirectory answers group membership lookups. GroupsContainingUser
// returns groups in a stable directory order.
type GroupDirectory interface {
	GroupsContainingUser(userID string) []plan.Group
	MembersOfGroup(groupID string) []string
}

// Reason names the rule that made a plan visible.
type Reason string

const (
	ReasonNone    Reason = ""
	ReasonFriend  Reason = "friend"
	ReasonGroup   Reason = "group"
	ReasonInvited Reason = "invited"
)

// Match is the outcome of evaluating a plan's visibility for one viewer.
type Match struct {
	Visible bool
	Reason  Reason
	// Group is the first of the viewer's groups the plan was shared with,
	// set only for ReasonGroup.
	Group mo.Option[plan.Group]
}

// Resolver evaluates visibility rules against the social graph.
type Resolver struct {
	friends FriendGraph
	groups  GroupDirectory
}

// NewResolver creates a resolver over the given lookups.
func NewResolver(friends FriendGraph, groups GroupDirectory) *Resolver {
	return &Resolver{friends: friends, groups: groups}
}

// Match reports whether viewer is in p's audience. Creators never match
// their own plans.
//
// "everyone" and "friends" both reach the creator's friends. "groups"
// reaches members of the listed groups the viewer can see: shared groups
// the viewer belongs to and the creator's personal groups that list the
// viewer. "people" reaches the listed users.
func (r *Resolver) Match(p *plan.Plan, viewer string) Match {
	if p == nil || viewer == "" || viewer == p.CreatedBy {
		return Match{}
	}

	switch p.VisibilityType() {
	case plan.VisibleToEveryone, plan.VisibleToFriends:
		if r.friends != nil && r.friends.IsFriend(viewer, p.CreatedBy) {
			return Match{Visible: true, Reason: ReasonFriend}
		}
	case plan.VisibleToGroups:
		for _, g := range r.viewerGroups(p, viewer) {
			if slices.Contains(p.Visibility.GroupIDs, g.ID) {
				return Match{Visible: true, Reason: ReasonGroup, Group: mo.Some(g)}
			}
		}
	case plan.VisibleToPeople:
		if slices.Contains(p.Visibility.UserIDs, viewer) {
			return Match{Visible: true, Reason: ReasonInvited}
		}
	}
	return Match{}
}

func (r *Resolver) viewerGroups(p *plan.Plan, viewer string) []plan.Group {
	if r.groups == nil {
		return nil
	}
	var out []plan.Group
	for _, g := range r.groups.GroupsContainingUser(viewer) {
		switch g.Type {
		case plan.GroupShared:
			out = append(out, g)
		case plan.GroupPersonal:
			if g.CreatedBy == p.CreatedBy {
				out = append(out, g)
			}
		}
	}
	return out
}

// IsDiscoverable reports whether p belongs in viewer's discovery feed. Plans
// the viewer already answered are never discoverable.
func (r *Resolver) IsDiscoverable(p *plan.Plan, viewer string, answered bool) bool {
	return !answered && r.Match(p, viewer).Visible
}

// Audience lists the users a group or people plan is addressed to, sorted
// and without the creator. Friend-scoped plans have no fixed list and
// return nil.
func (r *Resolver) Audience(p *plan.Plan) []string {
	var users []string
	switch p.VisibilityType() {
	case plan.VisibleToGroups:
		if r.groups == nil {
			return nil
		}
		for _, id := range p.Visibility.GroupIDs {
			users = append(users, r.groups.MembersOfGroup(id)...)
		}
	case plan.VisibleToPeople:
		users = slices.Clone(p.Visibility.UserIDs)
	default:
		return nil
	}

	users = slices.DeleteFunc(users, func(u string) bool { return u == p.CreatedBy })
	slices.Sort(users)
	return slices.Compact(users)
}

// Discovery is one entry of a viewer's feed.
type Discovery struct {
	Plan      plan.Plan `json:"plan"`
	Reason    Reason    `json:"reason"`
	GroupID   string    `json:"groupId,omitempty"`
	GroupName string    `json:"groupName,omitempty"`
}

// Feed returns the plans viewer can discover, soonest first. Plans on the
// same day are ordered by time, then id. answered may be nil.
func (r *Resolver) Feed(plans []plan.Plan, viewer string, answered func(planID string) bool) []Discovery {
	var out []Discovery
	for i := range plans {
		p := &plans[i]
		if answered != nil && answered(p.ID) {
			continue
		}
		m := r.Match(p, viewer)
		if !m.Visible {
			continue
		}
		d := Discovery{Plan: p.Clone(), Reason: m.Reason}
		if g, ok := m.Group.Get(); ok {
			d.GroupID = g.ID
			d.GroupName = g.Name
		}
		out = append(out, d)
	}

	slices.SortFunc(out, func(a, b Discovery) int {
		return cmp.Or(
			dates.Compare(a.Plan.Date, b.Plan.Date),
			cmp.Compare(a.Plan.Time.String(), b.Plan.Time.String()),
			cmp.Compare(a.Plan.ID, b.Plan.ID),
		)
	})
	return out
}
