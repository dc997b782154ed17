// Package social is an in-memory directory of users, friendships and groups.
// It serves the friendship and group lookups plan visibility depends on.
package social

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/cyp0633/openinvite/plan"
)

// Directory implements visibility.FriendGraph and visibility.GroupDirectory.
type Directory struct {
	mu       sync.RWMutex
	users    map[string]plan.User
	friends  map[string]map[string]struct{}
	requests map[string]plan.FriendRequest
	groups   []plan.Group // creation order is the directory order
	invites  map[string]plan.GroupInvite
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
}

// New creates an empty directory
func New(opts ...Option) *Directory {
	d := &Directory{
		users:    make(map[string]plan.User),
		friends:  make(map[string]map[string]struct{}),
		requests: make(map[string]plan.FriendRequest),
		invites:  make(map[string]plan.GroupInvite),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:    uuid.NewString,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Option represents a configuration option for the Directory
type Option func(*Directory)

// WithLogger sets the logger for the directory
func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithIDFunc replaces the id generator for groups and requests
func WithIDFunc(fn func() string) Option {
	return func(d *Directory) {
		if fn != nil {
			d.newID = fn
		}
	}
}

// WithClock replaces the clock used for creation times
func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		if now != nil {
			d.now = now
		}
	}
}

// AddUser registers a user
func (d *Directory) AddUser(u plan.User) error {
	if u.ID == "" {
		return plan.Invalid("id", "is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.users[u.ID]; exists {
		d.logger.Warn("failed to add user: already exists", "user_id", u.ID)
		return plan.Invalid("id", fmt.Sprintf("user %q already exists", u.ID))
	}
	d.users[u.ID] = u

	d.logger.Debug("user added", "user_id", u.ID)
	return nil
}

// User looks up a user by id
func (d *Directory) User(id string) mo.Option[plan.User] {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if u, ok := d.users[id]; ok {
		return mo.Some(u)
	}
	return mo.None[plan.User]()
}

// Users lists every user ordered by id
func (d *Directory) Users() []plan.User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]plan.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b plan.User) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// AddFriendship makes a and b friends of each other
func (d *Directory) AddFriendship(a, b string) error {
	if a == "" || b == "" || a == b {
		return plan.Invalid("friendship", fmt.Sprintf("cannot befriend %q and %q", a, b))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.link(a, b)
	return nil
}

func (d *Directory) link(a, b string) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		set := d.friends[pair[0]]
		if set == nil {
			set = make(map[string]struct{})
			d.friends[pair[0]] = set
		}
		set[pair[1]] = struct{}{}
	}
}

// RemoveFriendship ends a friendship; unknown pairs are ignored
func (d *Directory) RemoveFriendship(a, b string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.friends[a], b)
	delete(d.friends[b], a)
}

// IsFriend reports whether a and b are friends
func (d *Directory) IsFriend(a, b string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.friends[a][b]
	return ok
}

// FriendsOf lists userID's friends ordered by id
func (d *Directory) FriendsOf(userID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.friends[userID]))
	for id := range d.friends[userID] {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// SendFriendRequest opens a pending request from one user to another
func (d *Directory) SendFriendRequest(from, to string) (plan.FriendRequest, error) {
	if from == "" || to == "" || from == to {
		return plan.FriendRequest{}, plan.Invalid("toUserId", "cannot send a friend request to yourself")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.friends[from][to]; ok {
		return plan.FriendRequest{}, plan.Invalid("toUserId", fmt.Sprintf("%q and %q are already friends", from, to))
	}
	for _, r := range d.requests {
		if r.Status == plan.RequestPending && r.FromUserID == from && r.ToUserID == to {
			return r, nil
		}
	}

	r := plan.FriendRequest{
		ID:         d.newID(),
		FromUserID: from,
		ToUserID:   to,
		Status:     plan.RequestPending,
		CreatedAt:  d.now(),
	}
	d.requests[r.ID] = r

	d.logger.Info("friend request sent", "request_id", r.ID, "from", from, "to", to)
	return r, nil
}

// RespondFriendRequest accepts or declines a pending request
func (d *Directory) RespondFriendRequest(id string, accept bool) (plan.FriendRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.requests[id]
	if !ok {
		return plan.FriendRequest{}, plan.NotFound("friend request", id)
	}
	if r.Status != plan.RequestPending {
		return r, plan.Invalid("status", fmt.Sprintf("request %q is already %s", id, r.Status))
	}

	if accept {
		r.Status = plan.RequestAccepted
		d.link(r.FromUserID, r.ToUserID)
	} else {
		r.Status = plan.RequestDeclined
	}
	d.requests[id] = r

	d.logger.Info("friend request answered", "request_id", id, "status", r.Status)
	return r, nil
}

// PendingFriendRequests lists the requests waiting on userID, oldest first
func (d *Directory) PendingFriendRequests(userID string) []plan.FriendRequest {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []plan.FriendRequest
	for _, r := range d.requests {
		if r.Status == plan.RequestPending && r.ToUserID == userID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b plan.FriendRequest) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// CreateGroup adds a group. A missing id and creation time are filled in,
// the type defaults to shared, and the creator of a shared group becomes
// its first member. Personal groups are contact lists and need a creator.
func (d *Directory) CreateGroup(g plan.Group) (plan.Group, error) {
	if g.Name == "" {
		return plan.Group{}, plan.Invalid("name", "is required")
	}
	if g.Type == "" {
		g.Type = plan.GroupShared
	}
	switch g.Type {
	case plan.GroupShared:
		if g.CreatedBy != "" && !g.HasMember(g.CreatedBy) {
			g.MemberIDs = append([]string{g.CreatedBy}, g.MemberIDs...)
		}
	case plan.GroupPersonal:
		if g.CreatedBy == "" {
			return plan.Group{}, plan.Invalid("createdBy", "personal groups need an owner")
		}
	default:
		return plan.Group{}, plan.Invalid("type", fmt.Sprintf("unknown group type %q", g.Type))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if g.ID == "" {
		g.ID = d.newID()
	}
	if d.indexOf(g.ID) >= 0 {
		return plan.Group{}, plan.Invalid("id", fmt.Sprintf("group %q already exists", g.ID))
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = d.now()
	}
	g.MemberIDs = slices.Clone(g.MemberIDs)
	d.groups = append(d.groups, g)

	d.logger.Info("group created", "group_id", g.ID, "type", g.Type, "members", len(g.MemberIDs))
	return cloneGroup(g), nil
}

func (d *Directory) indexOf(groupID string) int {
	return slices.IndexFunc(d.groups, func(g plan.Group) bool { return g.ID == groupID })
}

func cloneGroup(g plan.Group) plan.Group {
	g.MemberIDs = slices.Clone(g.MemberIDs)
	return g
}

// Group looks up a group by id
func (d *Directory) Group(id string) mo.Option[plan.Group] {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if i := d.indexOf(id); i >= 0 {
		return mo.Some(cloneGroup(d.groups[i]))
	}
	return mo.None[plan.Group]()
}

// Groups lists every group in directory order
func (d *Directory) Groups() []plan.Group {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]plan.Group, len(d.groups))
	for i, g := range d.groups {
		out[i] = cloneGroup(g)
	}
	return out
}

// AddMember puts userID into a group; existing members are left alone
func (d *Directory) AddMember(groupID, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.addMember(groupID, userID)
}

func (d *Directory) addMember(groupID, userID string) error {
	i := d.indexOf(groupID)
	if i < 0 {
		return plan.NotFound("group", groupID)
	}
	if !d.groups[i].HasMember(userID) {
		d.groups[i].MemberIDs = append(d.groups[i].MemberIDs, userID)
	}
	return nil
}

// RemoveMember takes userID out of a group
func (d *Directory) RemoveMember(groupID, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexOf(groupID)
	if i < 0 {
		return plan.NotFound("group", groupID)
	}
	d.groups[i].MemberIDs = slices.DeleteFunc(d.groups[i].MemberIDs, func(id string) bool { return id == userID })
	return nil
}

// GroupsContainingUser lists the groups that have userID as a member, in
// directory order
func (d *Directory) GroupsContainingUser(userID string) []plan.Group {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []plan.Group
	for _, g := range d.groups {
		if g.HasMember(userID) {
			out = append(out, cloneGroup(g))
		}
	}
	return out
}

// MembersOfGroup lists a group's members; unknown groups have none
func (d *Directory) MembersOfGroup(groupID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if i := d.indexOf(groupID); i >= 0 {
		return slices.Clone(d.groups[i].MemberIDs)
	}
	return nil
}

// InviteToGroup invites a user to a shared group
func (d *Directory) InviteToGroup(groupID, invitee, inviter string) (plan.GroupInvite, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexOf(groupID)
	if i < 0 {
		return plan.GroupInvite{}, plan.NotFound("group", groupID)
	}
	g := d.groups[i]
	if g.Type != plan.GroupShared {
		return plan.GroupInvite{}, plan.Invalid("groupId", "only shared groups take invites")
	}
	if g.HasMember(invitee) {
		return plan.GroupInvite{}, plan.Invalid("invitedUserId", fmt.Sprintf("%q is already in %q", invitee, groupID))
	}

	inv := plan.GroupInvite{
		ID:              d.newID(),
		GroupID:         groupID,
		InvitedUserID:   invitee,
		InvitedByUserID: inviter,
		Status:          plan.RequestPending,
		CreatedAt:       d.now(),
	}
	d.invites[inv.ID] = inv

	d.logger.Info("group invite sent", "invite_id", inv.ID, "group_id", groupID, "user_id", invitee)
	return inv, nil
}

// RespondGroupInvite accepts or declines a pending group invite
func (d *Directory) RespondGroupInvite(id string, accept bool) (plan.GroupInvite, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	inv, ok := d.invites[id]
	if !ok {
		return plan.GroupInvite{}, plan.NotFound("group invite", id)
	}
	if inv.Status != plan.RequestPending {
		return inv, plan.Invalid("status", fmt.Sprintf("invite %q is already %s", id, inv.Status))
	}

	if accept {
		if err := d.addMember(inv.GroupID, inv.InvitedUserID); err != nil {
			return inv, err
		}
		inv.Status = plan.RequestAccepted
	} else {
		inv.Status = plan.RequestDeclined
	}
	d.invites[id] = inv

	d.logger.Info("group invite answered", "invite_id", id, "status", inv.Status)
	return inv, nil
}

// PendingGroupInvites lists the invites waiting on userID, oldest first
func (d *Directory) PendingGroupInvites(userID string) []plan.GroupInvite {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []plan.GroupInvite
	for _, inv := range d.invites {
		if inv.Status == plan.RequestPending && inv.InvitedUserID == userID {
			out = append(out, inv)
		}
	}
	slices.SortFunc(out, func(a, b plan.GroupInvite) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}
