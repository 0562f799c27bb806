package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/bolao-system/ranking"
	"github.com/Dosada05/bolao-system/services" // Импортируем для маппинга ошибок сервисов
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type jsonResponse map[string]interface{}

var validate = validator.New(validator.WithRequiredStructEnabled())

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // Паника, т.к. это ошибка программиста (передан не указатель)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// readValidJSON читает тело и прогоняет его через validator. При ошибке
// ответ уже отправлен, вызывающему остаётся только выйти.
func readValidJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := readJSON(w, r, dst); err != nil {
		badRequestResponse(w, r, err)
		return false
	}
	if errs := validateStruct(dst); errs != nil {
		failedValidationResponse(w, r, errs)
		return false
	}
	return true
}

func validateStruct(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"body": err.Error()}
	}
	out := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field())
		if fe.Param() != "" {
			out[field] = fmt.Sprintf("failed on %s=%s", fe.Tag(), fe.Param())
		} else {
			out[field] = fmt.Sprintf("failed on %s", fe.Tag())
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	if err != nil {
		return err
	}

	return nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	err := writeJSON(w, status, env, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "Error writing error JSON response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	errorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

func unprocessableResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

func serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusServiceUnavailable, err.Error())
}

func badGatewayResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.WarnContext(r.Context(), "Upstream gateway error", slog.String("path", r.URL.Path), slog.Any("error", err))
	errorResponse(w, r, http.StatusBadGateway, "payment gateway is unavailable, try again later")
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Общие ошибки
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrContestNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrPaymentNotFound):
		notFoundResponse(w, r)

	// Конфликты
	case errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrContestNameConflict),
		errors.Is(err, services.ErrContestInUse),
		errors.Is(err, services.ErrMatchInUse),
		errors.Is(err, services.ErrTicketConflict),
		errors.Is(err, services.ErrPredictionsClosed),
		errors.Is(err, services.ErrContestNotEditable):
		conflictResponse(w, r, err.Error())

	// Исход не распознан, пустой билет, чужой матч
	case errors.Is(err, ranking.ErrInvalidOutcome),
		errors.Is(err, services.ErrEmptyTicket),
		errors.Is(err, services.ErrMatchNotInContest):
		unprocessableResponse(w, r, err)

	// Невалидные данные / бизнес-правила
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrContestNameRequired),
		errors.Is(err, services.ErrContestInvalidDates),
		errors.Is(err, services.ErrContestInvalidPrice),
		errors.Is(err, services.ErrContestInvalidStatus),
		errors.Is(err, services.ErrContestInvalidStatusTransition),
		errors.Is(err, services.ErrContestHasNoMatches),
		errors.Is(err, services.ErrMatchTeamsRequired),
		errors.Is(err, services.ErrInvalidMatchSide),
		errors.Is(err, services.ErrUnsupportedPhotoType),
		errors.Is(err, services.ErrParticipantRequired),
		errors.Is(err, services.ErrInvalidPaymentStatus),
		errors.Is(err, services.ErrInvalidTimeWindow):
		badRequestResponse(w, r, err)

	// Ошибки авторизации/доступа
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrAuthenticationFailed),
		errors.Is(err, services.ErrWebhookUnauthorized):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation):
		forbiddenResponse(w, r, err.Error())

	// Внешние зависимости
	case errors.Is(err, services.ErrPaymentsDisabled),
		errors.Is(err, services.ErrPhotoStorageDisabled):
		serviceUnavailableResponse(w, r, err)
	case errors.Is(err, services.ErrPaymentGateway):
		badGatewayResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}

// Общая вспомогательная функция для извлечения ID из URL
func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}

	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %d", paramName, id)
	}

	return id, nil
}

// queryInt читает положительное целое из query; пустое значение даёт def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s query parameter", name)
	}
	return v, nil
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}
