package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "notification.generic.title", defaultGenericTitle)
	message.SetString(lang, "notification.generic.body", defaultGenericBody)

	message.SetString(lang, "notification.team_status.deactivated.title", `Team "%s" has been suspended`)
	message.SetString(lang, "notification.team_status.reactivated.title", `Team "%s" has been resumed`)
	message.SetString(lang, "notification.team_status.disbanded.title", `Team "%s" has been disbanded`)

	message.SetString(lang, "notification.team_status.deactivated.message",
		`Team lead %s suspended team "%s". Management features are limited until work resumes.`)
	message.SetString(lang, "notification.team_status.reactivated.message",
		`Team lead %s resumed team "%s". All features are available again.`)
	message.SetString(lang, "notification.team_status.disbanded.message",
		`Team lead %s disbanded team "%s". All members have been removed from the team.`)

	message.SetString(lang, "notification.team_status.reason_suffix", " Reason: %s")
}
