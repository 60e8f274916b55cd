package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Russian is the canonical catalog: team status copy originates here and
// other catalogs translate it.
func init() {
	lang := language.Russian

	message.SetString(lang, "notification.generic.title", "Уведомление")
	message.SetString(lang, "notification.generic.body", "У вас новое уведомление.")

	message.SetString(lang, "notification.team_status.deactivated.title", `Команда "%s" приостановлена`)
	message.SetString(lang, "notification.team_status.reactivated.title", `Команда "%s" возобновлена`)
	message.SetString(lang, "notification.team_status.disbanded.title", `Команда "%s" распущена`)

	message.SetString(lang, "notification.team_status.deactivated.message",
		`Руководитель %s приостановил работу команды "%s". Функции управления ограничены до возобновления работы.`)
	message.SetString(lang, "notification.team_status.reactivated.message",
		`Руководитель %s возобновил работу команды "%s". Все функции снова доступны.`)
	message.SetString(lang, "notification.team_status.disbanded.message",
		`Руководитель %s распустил команду "%s". Все участники исключены из команды.`)

	message.SetString(lang, "notification.team_status.reason_suffix", " Причина: %s")
}
