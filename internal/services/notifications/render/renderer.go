// Package render produces localized notification copy.
package render

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mangacollab/mangacollab/internal/services/notifications/domain"
)

const (
	defaultGenericTitle = "Notification"
	defaultGenericBody  = "You have a new notification."
)

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Renderer formats notification copy through a message catalog. Russian is
// the canonical catalog; the English catalog mirrors it for deployments that
// opt into it.
type Renderer struct {
	loc Localizer
}

// New builds a renderer over the provided localizer. A nil localizer falls
// back to the canonical Russian catalog.
func New(loc Localizer) *Renderer {
	if loc == nil {
		loc = message.NewPrinter(language.Russian)
	}
	return &Renderer{loc: loc}
}

// TeamStatusCopy returns the title and message for one team lifecycle
// notification. A non-empty reason is appended to the message.
func (r *Renderer) TeamStatusCopy(kind domain.Kind, teamName string, actorUsername string, reason string) (string, string) {
	var titleKey, messageKey string
	switch kind {
	case domain.KindTeamDeactivated:
		titleKey = "notification.team_status.deactivated.title"
		messageKey = "notification.team_status.deactivated.message"
	case domain.KindTeamReactivated:
		titleKey = "notification.team_status.reactivated.title"
		messageKey = "notification.team_status.reactivated.message"
	case domain.KindTeamDisbanded:
		titleKey = "notification.team_status.disbanded.title"
		messageKey = "notification.team_status.disbanded.message"
	default:
		return r.genericCopy()
	}

	title := localize(r.localizer(), titleKey, teamName)
	body := localize(r.localizer(), messageKey, actorUsername, teamName)
	if strings.TrimSpace(reason) != "" {
		body += localize(r.localizer(), "notification.team_status.reason_suffix", reason)
	}
	return title, body
}

func (r *Renderer) genericCopy() (string, string) {
	title := localizeWithFallback(r.localizer(), "notification.generic.title", defaultGenericTitle)
	body := localizeWithFallback(r.localizer(), "notification.generic.body", defaultGenericBody)
	return title, body
}

func (r *Renderer) localizer() Localizer {
	if r == nil {
		return nil
	}
	return r.loc
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}

func localizeWithFallback(loc Localizer, key string, fallback string) string {
	value := strings.TrimSpace(localize(loc, key))
	if value == "" || value == key {
		return fallback
	}
	return value
}

var _ domain.Renderer = (*Renderer)(nil)
