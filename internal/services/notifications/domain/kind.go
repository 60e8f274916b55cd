package domain

import "strings"

// Kind identifies one closed notification category.
type Kind string

const (
	// KindTeamDeactivated notifies members that a team was suspended.
	KindTeamDeactivated Kind = "team_deactivated"
	// KindTeamReactivated notifies members that a suspended team resumed.
	KindTeamReactivated Kind = "team_reactivated"
	// KindTeamDisbanded notifies members that a team was dissolved.
	KindTeamDisbanded Kind = "team_disbanded"
	// KindTeamInvitation notifies a user about a team invitation.
	KindTeamInvitation Kind = "team_invitation"
	// KindTaskAssigned notifies a user about a task assignment.
	KindTaskAssigned Kind = "task_assigned"
	// KindProjectUpdate notifies a user about a project update.
	KindProjectUpdate Kind = "project_update"
	// KindCommentMention notifies a user about a mention in a comment.
	KindCommentMention Kind = "comment_mention"
)

// Topic groups kinds that share one preference flag pair per channel.
type Topic string

const (
	// TopicTeamStatusChanges covers the three team lifecycle kinds.
	TopicTeamStatusChanges Topic = "team_status_changes"
	// TopicTeamInvitations covers team invitation notifications.
	TopicTeamInvitations Topic = "team_invitations"
	// TopicTaskAssignments covers task assignment notifications.
	TopicTaskAssignments Topic = "task_assignments"
	// TopicProjectUpdates covers project update notifications.
	TopicProjectUpdates Topic = "project_updates"
	// TopicCommentMentions covers comment mention notifications.
	TopicCommentMentions Topic = "comment_mentions"
)

// Kinds returns every member of the closed kind enumeration.
func Kinds() []Kind {
	return []Kind{
		KindTeamDeactivated,
		KindTeamReactivated,
		KindTeamDisbanded,
		KindTeamInvitation,
		KindTaskAssigned,
		KindProjectUpdate,
		KindCommentMention,
	}
}

// NormalizeKind normalizes a caller-provided kind token.
func NormalizeKind(raw string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(raw)))
}

// Valid reports whether the kind is a member of the closed enumeration.
func (k Kind) Valid() bool {
	_, ok := k.PreferenceTopic()
	return ok
}

// PreferenceTopic resolves the preference flag pair that governs this kind.
// The mapping is exhaustive over the closed enumeration so adding a kind is
// a compile-visible gap here rather than a runtime lookup miss.
func (k Kind) PreferenceTopic() (Topic, bool) {
	switch k {
	case KindTeamDeactivated, KindTeamReactivated, KindTeamDisbanded:
		return TopicTeamStatusChanges, true
	case KindTeamInvitation:
		return TopicTeamInvitations, true
	case KindTaskAssigned:
		return TopicTaskAssignments, true
	case KindProjectUpdate:
		return TopicProjectUpdates, true
	case KindCommentMention:
		return TopicCommentMentions, true
	default:
		return "", false
	}
}

// TemplateRef resolves the email template name for this kind. Kinds without
// a dedicated template fall back to the default template.
func (k Kind) TemplateRef() string {
	switch k {
	case KindTeamDeactivated, KindTeamReactivated, KindTeamDisbanded,
		KindTeamInvitation, KindTaskAssigned, KindProjectUpdate, KindCommentMention:
		return string(k)
	default:
		return "default"
	}
}
