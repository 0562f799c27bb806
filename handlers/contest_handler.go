package handlers

import (
	"net/http"

	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/repositories"
	"github.com/Dosada05/bolao-system/services"
)

const defaultListLimit = 20

type ContestHandler struct {
	contestService services.ContestService
}

func NewContestHandler(cs services.ContestService) *ContestHandler {
	return &ContestHandler{contestService: cs}
}

type updateContestStatusInput struct {
	Status models.ContestStatus `json:"status" validate:"required"`
}

// Create godoc
// @Summary Создать конкурс
// @Tags contests
// @Accept json
// @Produce json
// @Param body body services.CreateContestInput true "Данные конкурса"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "Имя уже занято"
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/contests [post]
func (h *ContestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateContestInput
	if !readValidJSON(w, r, &input) {
		return
	}

	contest, err := h.contestService.CreateContest(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByID godoc
// @Summary Конкурс с матчами
// @Tags contests
// @Produce json
// @Param contestID path int true "Contest ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /contests/{contestID} [get]
func (h *ContestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contest, err := h.contestService.GetContest(r.Context(), id, true)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List godoc
// @Summary Список конкурсов
// @Tags contests
// @Produce json
// @Param status query string false "draft, open, closed, finished, cancelled"
// @Param limit query int false "По умолчанию 20"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /contests [get]
func (h *ContestHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListContestsFilter
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := models.ContestStatus(statusStr)
		filter.Status = &status
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit", defaultListLimit); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contests, err := h.contestService.ListContests(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if contests == nil {
		contests = []*models.Contest{}
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contests": contests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Update godoc
// @Summary Изменить конкурс
// @Tags contests
// @Accept json
// @Produce json
// @Param contestID path int true "Contest ID"
// @Param body body services.UpdateContestInput true "Изменяемые поля"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Конкурс уже нельзя менять"
// @Security BearerAuth
// @Router /admin/contests/{contestID} [put]
func (h *ContestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateContestInput
	if !readValidJSON(w, r, &input) {
		return
	}

	contest, err := h.contestService.UpdateContest(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStatus godoc
// @Summary Сменить статус конкурса
// @Tags contests
// @Accept json
// @Produce json
// @Param contestID path int true "Contest ID"
// @Param body body updateContestStatusInput true "Новый статус"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Недопустимый переход"
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/contests/{contestID}/status [patch]
func (h *ContestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input updateContestStatusInput
	if !readValidJSON(w, r, &input) {
		return
	}

	contest, err := h.contestService.UpdateStatus(r.Context(), id, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete godoc
// @Summary Удалить конкурс
// @Tags contests
// @Param contestID path int true "Contest ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Есть палпиты или оплаты"
// @Security BearerAuth
// @Router /admin/contests/{contestID} [delete]
func (h *ContestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.contestService.DeleteContest(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
