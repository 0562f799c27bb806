package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/bolao-system/middleware"
	"github.com/Dosada05/bolao-system/services"
)

type TicketHandler struct {
	predictionService services.PredictionService
}

func NewTicketHandler(ps services.PredictionService) *TicketHandler {
	return &TicketHandler{predictionService: ps}
}

// Submit godoc
// @Summary Отправить билет с палпитами
// @Description Один билет на пару (имя, телефон) в конкурсе. Если у конкурса есть цена, в ответе будет PIX-cobrança.
// @Tags tickets
// @Accept json
// @Produce json
// @Param contestID path int true "Contest ID"
// @Param body body services.SubmitTicketInput true "Участник и палпиты match_id -> исход"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "Конкурс не найден"
// @Failure 409 {object} map[string]string "Приём закрыт или билет уже есть"
// @Failure 422 {object} map[string]string "Нераспознанный исход или чужой матч"
// @Failure 502 {object} map[string]string "PIX недоступен"
// @Router /contests/{contestID}/tickets [post]
func (h *TicketHandler) Submit(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitTicketInput
	if !readValidJSON(w, r, &input) {
		return
	}
	if userID, err := middleware.GetUserIDFromContext(r.Context()); err == nil {
		input.UserID = &userID
	}

	ticket, err := h.predictionService.SubmitTicket(r.Context(), contestID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"ticket": ticket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByParticipant godoc
// @Summary Билет участника
// @Tags tickets
// @Produce json
// @Param contestID path int true "Contest ID"
// @Param name query string true "Имя участника"
// @Param phone query string true "Телефон участника"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /contests/{contestID}/tickets [get]
func (h *TicketHandler) GetByParticipant(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	q := r.URL.Query()
	name, phone := q.Get("name"), q.Get("phone")
	if name == "" || phone == "" {
		badRequestResponse(w, r, errors.New("name and phone query parameters are required"))
		return
	}

	ticket, err := h.predictionService.ListByParticipant(r.Context(), contestID, name, phone)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ticket": ticket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
