package domain

import "time"

// Channel identifies one independent delivery path with its own per-topic flags.
type Channel string

const (
	// ChannelWeb is the in-app inbox delivery path.
	ChannelWeb Channel = "web"
	// ChannelEmail is the outbound email delivery path.
	ChannelEmail Channel = "email"
)

// Preferences holds one user's per-topic channel flags. There is exactly one
// record per user, created lazily with defaults on first access.
type Preferences struct {
	UserID string

	EmailTeamStatusChanges bool
	EmailTeamInvitations   bool
	EmailTaskAssignments   bool
	EmailProjectUpdates    bool
	EmailCommentMentions   bool

	WebTeamStatusChanges bool
	WebTeamInvitations   bool
	WebTaskAssignments   bool
	WebProjectUpdates    bool
	WebCommentMentions   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultPreferences returns the first-access defaults for one user: email is
// enabled for everything except project updates (opt-in), in-app web
// notifications are fully enabled.
func DefaultPreferences(userID string, now time.Time) Preferences {
	return Preferences{
		UserID:                 userID,
		EmailTeamStatusChanges: true,
		EmailTeamInvitations:   true,
		EmailTaskAssignments:   true,
		EmailProjectUpdates:    false,
		EmailCommentMentions:   true,
		WebTeamStatusChanges:   true,
		WebTeamInvitations:     true,
		WebTaskAssignments:     true,
		WebProjectUpdates:      true,
		WebCommentMentions:     true,
		CreatedAt:              now.UTC(),
		UpdatedAt:              now.UTC(),
	}
}

// ChannelEnabled reports whether notifications of the given kind are enabled
// on the given channel. Kinds without an explicit topic mapping stay enabled:
// a newly added or unrecognized kind must never be silently suppressed.
func (p Preferences) ChannelEnabled(kind Kind, channel Channel) bool {
	topic, ok := kind.PreferenceTopic()
	if !ok {
		return true
	}
	switch channel {
	case ChannelEmail:
		switch topic {
		case TopicTeamStatusChanges:
			return p.EmailTeamStatusChanges
		case TopicTeamInvitations:
			return p.EmailTeamInvitations
		case TopicTaskAssignments:
			return p.EmailTaskAssignments
		case TopicProjectUpdates:
			return p.EmailProjectUpdates
		case TopicCommentMentions:
			return p.EmailCommentMentions
		}
	case ChannelWeb:
		switch topic {
		case TopicTeamStatusChanges:
			return p.WebTeamStatusChanges
		case TopicTeamInvitations:
			return p.WebTeamInvitations
		case TopicTaskAssignments:
			return p.WebTaskAssignments
		case TopicProjectUpdates:
			return p.WebProjectUpdates
		case TopicCommentMentions:
			return p.WebCommentMentions
		}
	}
	return true
}
