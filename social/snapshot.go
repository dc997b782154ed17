package social

import (
	"cmp"
	"slices"

	"github.com/cyp0633/openinvite/plan"
)

// Friendship is one undirected friend edge with A < B.
type Friendship struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Snapshot is the persisted form of a Directory.
type Snapshot struct {
	Users          []plan.User          `json:"users"`
	Friendships    []Friendship         `json:"friendships"`
	FriendRequests []plan.FriendRequest `json:"friendRequests,omitempty"`
	Groups         []plan.Group         `json:"groups"`
	GroupInvites   []plan.GroupInvite   `json:"groupInvites,omitempty"`
}

// IsEmpty reports whether the snapshot holds no users or groups.
func (s Snapshot) IsEmpty() bool {
	return len(s.Users) == 0 && len(s.Groups) == 0
}

// Snapshot captures the directory in a deterministic order.
func (d *Directory) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var s Snapshot
	for _, u := range d.users {
		s.Users = append(s.Users, u)
	}
	slices.SortFunc(s.Users, func(a, b plan.User) int { return cmp.Compare(a.ID, b.ID) })

	for a, set := range d.friends {
		for b := range set {
			if a < b {
				s.Friendships = append(s.Friendships, Friendship{A: a, B: b})
			}
		}
	}
	slices.SortFunc(s.Friendships, func(x, y Friendship) int {
		return cmp.Or(cmp.Compare(x.A, y.A), cmp.Compare(x.B, y.B))
	})

	for _, r := range d.requests {
		s.FriendRequests = append(s.FriendRequests, r)
	}
	slices.SortFunc(s.FriendRequests, func(a, b plan.FriendRequest) int { return cmp.Compare(a.ID, b.ID) })

	for _, g := range d.groups {
		s.Groups = append(s.Groups, cloneGroup(g))
	}

	for _, inv := range d.invites {
		s.GroupInvites = append(s.GroupInvites, inv)
	}
	slices.SortFunc(s.GroupInvites, func(a, b plan.GroupInvite) int { return cmp.Compare(a.ID, b.ID) })
	return s
}

// Restore replaces the directory contents with s.
func (d *Directory) Restore(s Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.users = make(map[string]plan.User, len(s.Users))
	for _, u := range s.Users {
		d.users[u.ID] = u
	}

	d.friends = make(map[string]map[string]struct{})
	for _, f := range s.Friendships {
		d.link(f.A, f.B)
	}

	d.requests = make(map[string]plan.FriendRequest, len(s.FriendRequests))
	for _, r := range s.FriendRequests {
		d.requests[r.ID] = r
	}

	d.groups = make([]plan.Group, 0, len(s.Groups))
	for _, g := range s.Groups {
		d.groups = append(d.groups, cloneGroup(g))
	}

	d.invites = make(map[string]plan.GroupInvite, len(s.GroupInvites))
	for _, inv := range s.GroupInvites {
		d.invites[inv.ID] = inv
	}

	d.logger.Debug("directory restored", "users", len(d.users), "groups", len(d.groups))
}
