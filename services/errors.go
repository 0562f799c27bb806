package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrContestNameRequired  = errors.New("contest name is required")
	ErrContestInvalidDates  = errors.New("contest dates must satisfy starts_at <= predictions_close_at <= ends_at")
	ErrContestInvalidPrice  = errors.New("ticket price must not be negative")
	ErrContestInvalidStatus = errors.New("invalid contest status provided")
	ErrContestNotEditable   = errors.New("contest can no longer be changed")
	ErrContestHasNoMatches  = errors.New("contest must have at least one match to be opened")
	ErrMatchTeamsRequired   = errors.New("home and away teams are required")
	ErrInvalidMatchSide     = errors.New("match side must be home or away")
	ErrUnsupportedPhotoType = errors.New("unsupported photo content type")
	ErrParticipantRequired  = errors.New("participant name and phone are required")
	ErrEmptyTicket          = errors.New("ticket must contain at least one prediction")
	ErrMatchNotInContest    = errors.New("match does not belong to the contest")
	ErrInvalidPaymentStatus = errors.New("invalid payment status provided")
	ErrInvalidTimeWindow    = errors.New("time window start must be before its end")

	ErrContestInvalidStatusTransition = errors.New("invalid contest status transition")

	// Ошибки конфликтов
	ErrUserEmailConflict   = errors.New("email address is already in use")
	ErrContestNameConflict = errors.New("contest name already exists")
	ErrContestInUse        = errors.New("contest already has predictions or payments")
	ErrMatchInUse          = errors.New("match already has predictions")
	ErrTicketConflict      = errors.New("participant already submitted a ticket for this contest")
	ErrPredictionsClosed   = errors.New("predictions are closed for this contest")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrWebhookUnauthorized  = errors.New("webhook secret mismatch")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound    = errors.New("user not found")
	ErrContestNotFound = errors.New("contest not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrPaymentNotFound = errors.New("payment not found")

	// Внешние зависимости
	ErrPaymentsDisabled     = errors.New("pix payments are not configured")
	ErrPaymentGateway       = errors.New("pix gateway request failed")
	ErrPhotoStorageDisabled = errors.New("photo storage is not configured")
)
