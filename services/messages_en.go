package services

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "notification.invitation.title", "New goal invitation")
	message.SetString(lang, "notification.invitation.body", "%s invited you to collaborate on the goal \"%s\".")
	message.SetString(lang, "notification.expired_invitee.title", "Invitation expired")
	message.SetString(lang, "notification.expired_invitee.body", "Your invitation to collaborate on \"%s\" has expired.")
	message.SetString(lang, "notification.expired_inviter.title", "Invitation expired")
	message.SetString(lang, "notification.expired_inviter.body", "Your invitation to %s for the goal \"%s\" has expired.")
	message.SetString(lang, "notification.someone", "Someone")
	message.SetString(lang, "notification.a_user", "a user")
}
