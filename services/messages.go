package services

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supportedLocales = []language.Tag{language.English, language.French}

var localeMatcher = language.NewMatcher(supportedLocales)

// Messages produit les titres et textes des notifications dans une langue.
type Messages struct {
	printer *message.Printer
}

// NewMessages choisit la langue supportée la plus proche de locale (anglais par défaut).
func NewMessages(locale string) *Messages {
	tag := language.English
	if parsed, err := language.Parse(locale); err == nil {
		_, idx, confidence := localeMatcher.Match(parsed)
		if confidence != language.No {
			tag = supportedLocales[idx]
		}
	}
	return &Messages{printer: message.NewPrinter(tag)}
}

func (m *Messages) InvitationReceived(inviterName, goalTitle string) (title, body string) {
	if inviterName == "" {
		inviterName = m.text("notification.someone")
	}
	return m.text("notification.invitation.title"),
		m.text("notification.invitation.body", inviterName, goalTitle)
}

func (m *Messages) InvitationExpiredForInvitee(goalTitle string) (title, body string) {
	return m.text("notification.expired_invitee.title"),
		m.text("notification.expired_invitee.body", goalTitle)
}

func (m *Messages) InvitationExpiredForInviter(inviteeName, goalTitle string) (title, body string) {
	if inviteeName == "" {
		inviteeName = m.text("notification.a_user")
	}
	return m.text("notification.expired_inviter.title"),
		m.text("notification.expired_inviter.body", inviteeName, goalTitle)
}

func (m *Messages) text(key string, args ...any) string {
	return m.printer.Sprintf(key, args...)
}
