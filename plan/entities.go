package plan

import "time"

// User is a person who can create and answer plans.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AvatarColor string `json:"avatarColor,omitempty"`
	Username    string `json:"username,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// GroupType separates groups users join together from the contact lists a
// single user keeps for themselves.
type GroupType string

const (
	GroupShared   GroupType = "shared"
	GroupPersonal GroupType = "personal"
)

// Group is a named set of users.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        GroupType `json:"type"`
	MemberIDs   []string  `json:"memberIds"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasMember reports whether userID is listed in the group.
func (g *Group) HasMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// RequestStatus tracks a pending friend request or group invite.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// FriendRequest asks ToUserID to become friends with FromUserID.
type FriendRequest struct {
	ID         string        `json:"id"`
	FromUserID string        `json:"fromUserId"`
	ToUserID   string        `json:"toUserId"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// GroupInvite asks InvitedUserID to join a shared group.
type GroupInvite struct {
	ID              string        `json:"id"`
	GroupID         string        `json:"groupId"`
	InvitedUserID   string        `json:"invitedUserId"`
	InvitedByUserID string        `json:"invitedByUserId"`
	Status          RequestStatus `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// NotificationType labels an in-app notification.
type NotificationType string

const (
	NotifyRSVP         NotificationType = "rsvp"
	NotifyGroupInvite  NotificationType = "group_invite"
	NotifyPlanReminder NotificationType = "plan_reminder"
)

// Notification is an in-app notice shown to a user.
type Notification struct {
	ID         string           `json:"id"`
	Type       NotificationType `json:"type"`
	UserID     string           `json:"userId"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Read       bool             `json:"read"`
	PlanID     string           `json:"planId,omitempty"`
	GroupID    string           `json:"groupId,omitempty"`
	ActorID    string           `json:"actorId,omitempty"`
	RSVPStatus Status           `json:"rsvpStatus,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Message is one entry of a plan's discussion thread.
type Message struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"planId"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
