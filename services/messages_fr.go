package services

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.French

	message.SetString(lang, "notification.invitation.title", "Nouvelle invitation")
	message.SetString(lang, "notification.invitation.body", "%s vous invite à collaborer sur l'objectif « %s ».")
	message.SetString(lang, "notification.expired_invitee.title", "Invitation expirée")
	message.SetString(lang, "notification.expired_invitee.body", "Votre invitation à collaborer sur « %s » a expiré.")
	message.SetString(lang, "notification.expired_inviter.title", "Invitation expirée")
	message.SetString(lang, "notification.expired_inviter.body", "Votre invitation envoyée à %s pour l'objectif « %s » a expiré.")
	message.SetString(lang, "notification.someone", "Quelqu'un")
	message.SetString(lang, "notification.a_user", "un utilisateur")
}
