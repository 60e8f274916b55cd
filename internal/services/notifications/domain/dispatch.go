package domain

import (
	"context"
	"errors"
	"log"
	"strings"
)

// User carries the recipient identity the dispatcher needs: an id for
// persistence, a username for copy, and an optional email address.
type User struct {
	ID       string
	Username string
	Email    string
}

// Team identifies the team a status-change event happened on.
type Team struct {
	ID   string
	Name string
}

// TeamStatusChange enumerates team lifecycle transitions that notify members.
type TeamStatusChange string

const (
	// TeamStatusDeactivated means a team lead suspended the team.
	TeamStatusDeactivated TeamStatusChange = "deactivated"
	// TeamStatusReactivated means a suspended team resumed work.
	TeamStatusReactivated TeamStatusChange = "reactivated"
	// TeamStatusDisbanded means the team was dissolved.
	TeamStatusDisbanded TeamStatusChange = "disbanded"
)

// MemberResolver resolves team membership for recipient fan-out.
type MemberResolver interface {
	ListTeamMembers(ctx context.Context, teamID string) ([]User, error)
}

// Renderer produces localized notification copy for team status events.
type Renderer interface {
	TeamStatusCopy(kind Kind, teamName string, actorUsername string, reason string) (title string, message string)
}

// EmailStatus is the terminal state of one email delivery attempt.
type EmailStatus string

const (
	// EmailSent means the transport accepted the message.
	EmailSent EmailStatus = "sent"
	// EmailFailed means the delivery attempt failed; Reason carries detail.
	EmailFailed EmailStatus = "failed"
)

// EmailResult is the outcome of one email delivery attempt. Email delivery
// is fire-and-forget: failures are reported as a result value for logging,
// never as an error that could propagate into dispatch.
type EmailResult struct {
	Status EmailStatus
	Reason string
}

// EmailInput is one per-recipient email render-and-send request.
type EmailInput struct {
	RecipientEmail    string
	RecipientUsername string
	Kind              Kind
	Title             string
	Message           string
	Extra             ExtraData
}

// Mailer renders and sends one notification email.
type Mailer interface {
	Send(ctx context.Context, input EmailInput) EmailResult
}

// TeamStatusChangeInput describes one team lifecycle event to fan out.
type TeamStatusChangeInput struct {
	Team   Team
	Change TeamStatusChange
	Actor  User
	Reason string
}

// ErrDispatcherNotConfigured indicates the dispatcher is missing wiring.
var ErrDispatcherNotConfigured = errors.New("notification dispatcher is not configured")

// Dispatcher turns domain events into per-recipient notification and email
// actions, honoring each recipient's channel preferences.
type Dispatcher struct {
	service  *Service
	members  MemberResolver
	renderer Renderer
	mailer   Mailer
	logf     func(format string, args ...any)
}

// NewDispatcher constructs the dispatch engine. The mailer may be nil when
// email delivery is disabled for the deployment.
func NewDispatcher(service *Service, members MemberResolver, renderer Renderer, mailer Mailer) *Dispatcher {
	return &Dispatcher{
		service:  service,
		members:  members,
		renderer: renderer,
		mailer:   mailer,
		logf:     log.Printf,
	}
}

// DispatchTeamStatusChange fans one team lifecycle event out to every team
// member except the actor. An unrecognized change kind logs a warning and
// dispatches nothing. A failure for one recipient never stops dispatch to
// the remaining recipients; recipient errors are joined into the return.
func (d *Dispatcher) DispatchTeamStatusChange(ctx context.Context, input TeamStatusChangeInput) error {
	if d == nil || d.service == nil || d.renderer == nil {
		return ErrDispatcherNotConfigured
	}
	kind, ok := kindForTeamStatusChange(input.Change)
	if !ok {
		d.logf("unknown team status change %q for team %s: dispatch skipped", input.Change, input.Team.ID)
		return nil
	}
	if d.members == nil {
		return ErrDispatcherNotConfigured
	}

	members, err := d.members.ListTeamMembers(ctx, input.Team.ID)
	if err != nil {
		return err
	}

	title, message := d.renderer.TeamStatusCopy(kind, input.Team.Name, input.Actor.Username, input.Reason)
	extra := ExtraData{
		{Key: "team_id", Value: input.Team.ID},
		{Key: "team_name", Value: input.Team.Name},
		{Key: "changed_by_id", Value: input.Actor.ID},
		{Key: "changed_by_username", Value: input.Actor.Username},
		{Key: "change_type", Value: string(input.Change)},
		{Key: "reason", Value: input.Reason},
	}

	var errs []error
	notified := 0
	for _, member := range members {
		if member.ID == "" || member.ID == input.Actor.ID {
			continue
		}
		if err := d.Notify(ctx, member, kind, title, message, extra); err != nil {
			errs = append(errs, err)
			continue
		}
		notified++
	}
	d.logf("dispatched team status change %s for team %s to %d members", input.Change, input.Team.ID, notified)
	return errors.Join(errs...)
}

// Notify is the per-recipient dispatch primitive: it loads (or lazily
// creates) the recipient's preferences, records an in-app notification when
// the web channel is enabled, and attempts an email when the email channel
// is enabled and an address is known. Email failure is logged and swallowed;
// the in-app record is created first and is never affected by it.
func (d *Dispatcher) Notify(ctx context.Context, recipient User, kind Kind, title string, message string, extra ExtraData) error {
	if d == nil || d.service == nil {
		return ErrDispatcherNotConfigured
	}
	if strings.TrimSpace(recipient.ID) == "" {
		return ErrRecipientUserIDRequired
	}

	preferences, err := d.service.Preferences(ctx, recipient.ID)
	if err != nil {
		return err
	}

	if preferences.ChannelEnabled(kind, ChannelWeb) {
		if _, err := d.service.Create(ctx, CreateInput{
			RecipientUserID: recipient.ID,
			Kind:            kind,
			Title:           title,
			Message:         message,
			Extra:           extra,
		}); err != nil {
			return err
		}
	}

	if d.mailer != nil && recipient.Email != "" && preferences.ChannelEnabled(kind, ChannelEmail) {
		result := d.mailer.Send(ctx, EmailInput{
			RecipientEmail:    recipient.Email,
			RecipientUsername: recipient.Username,
			Kind:              kind,
			Title:             title,
			Message:           message,
			Extra:             extra,
		})
		switch result.Status {
		case EmailSent:
			d.logf("email notification sent to user %s (%s)", recipient.ID, recipient.Email)
		default:
			d.logf("email notification for user %s (%s) failed: %s", recipient.ID, recipient.Email, result.Reason)
		}
	}

	return nil
}

func kindForTeamStatusChange(change TeamStatusChange) (Kind, bool) {
	switch change {
	case TeamStatusDeactivated:
		return KindTeamDeactivated, true
	case TeamStatusReactivated:
		return KindTeamReactivated, true
	case TeamStatusDisbanded:
		return KindTeamDisbanded, true
	default:
		return "", false
	}
}
