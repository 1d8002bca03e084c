package services

import (
	"errors"
	"net/http"

	"github.com/LovationAdmin/goals-api/models"
)

// Code est le code machine d'une erreur métier.
type Code string

const (
	CodeGoalNotFound                Code = "GOAL_NOT_FOUND"
	CodeUserNotFound                Code = "USER_NOT_FOUND"
	CodeAlreadyCollaborator         Code = "ALREADY_COLLABORATOR"
	CodeInvitationAlreadyPending    Code = "INVITATION_ALREADY_PENDING"
	CodeInvitationNotFound          Code = "INVITATION_NOT_FOUND"
	CodeInvitationAlreadyResolved   Code = "INVITATION_ALREADY_RESOLVED"
	CodeNotInvitee                  Code = "NOT_INVITEE"
	CodeForbidden                   Code = "FORBIDDEN"
	CodeNotFound                    Code = "NOT_FOUND"
	CodeInvalidInput                Code = "INVALID_INPUT"
	CodePersistenceFailure          Code = "PERSISTENCE_FAILURE"
	CodeNotificationDeliveryFailure Code = "NOTIFICATION_DELIVERY_FAILURE"
)

// HTTPStatus maps the code to the status returned by the API.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeGoalNotFound, CodeUserNotFound, CodeInvitationNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyCollaborator, CodeInvitationAlreadyPending, CodeInvitationAlreadyResolved:
		return http.StatusConflict
	case CodeNotInvitee, CodeForbidden:
		return http.StatusForbidden
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotificationDeliveryFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error est l'erreur métier structurée; errors.Is compare les codes.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func wrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

var (
	ErrGoalNotFound             = newError(CodeGoalNotFound, "goal not found")
	ErrUserNotFound             = newError(CodeUserNotFound, "no user with this email")
	ErrAlreadyCollaborator      = newError(CodeAlreadyCollaborator, "user is already a collaborator")
	ErrInvitationAlreadyPending = newError(CodeInvitationAlreadyPending, "an invitation is already pending for this user")
	ErrInvitationNotFound       = newError(CodeInvitationNotFound, "invitation not found")
	ErrInvitationResolved       = newError(CodeInvitationAlreadyResolved, "invitation already resolved")
	ErrNotInvitee               = newError(CodeNotInvitee, "only the invited user can respond")
	ErrForbidden                = newError(CodeForbidden, "access denied")
	ErrNotFound                 = newError(CodeNotFound, "not found")
	ErrInvalidInput             = newError(CodeInvalidInput, "invalid input")
	ErrPersistence              = newError(CodePersistenceFailure, "persistence failure")
	ErrNotificationDelivery     = newError(CodeNotificationDeliveryFailure, "notification delivery failed")
)

// InvitationAlreadyResolved porte le statut courant de l'invitation.
func InvitationAlreadyResolved(status models.InvitationStatus) *Error {
	return &Error{
		Code:     CodeInvitationAlreadyResolved,
		Message:  "invitation already " + string(status),
		Metadata: map[string]string{"status": string(status)},
	}
}

func invalidInput(message string) *Error {
	return newError(CodeInvalidInput, message)
}

func persistenceFailure(op string, cause error) *Error {
	return wrapError(CodePersistenceFailure, op, cause)
}

// CodeOf retourne le code de l'erreur, ou PERSISTENCE_FAILURE pour une erreur inconnue.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodePersistenceFailure
}

// ResolvedStatus retourne le statut porté par une erreur INVITATION_ALREADY_RESOLVED.
func ResolvedStatus(err error) (models.InvitationStatus, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Code != CodeInvitationAlreadyResolved {
		return "", false
	}
	status, ok := e.Metadata["status"]
	return models.InvitationStatus(status), ok
}

// PublicMessage est le message renvoyé au client; les causes internes ne sortent pas.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Code == CodePersistenceFailure {
			return "internal error"
		}
		return e.Message
	}
	return "internal error"
}
