package handlers

import (
	"fmt"
	"net/http"

	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/services"
)

const maxPhotoSize = 5 << 20

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

type setResultInput struct {
	Result string `json:"result" validate:"required,max=16"`
}

// Create godoc
// @Summary Добавить матч в конкурс
// @Tags matches
// @Accept json
// @Produce json
// @Param contestID path int true "Contest ID"
// @Param body body services.CreateMatchInput true "Команды и время начала"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "Конкурс не найден"
// @Failure 409 {object} map[string]string "Конкурс уже закрыт"
// @Security BearerAuth
// @Router /admin/contests/{contestID}/matches [post]
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateMatchInput
	if !readValidJSON(w, r, &input) {
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), contestID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByContest godoc
// @Summary Матчи конкурса
// @Tags matches
// @Produce json
// @Param contestID path int true "Contest ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /contests/{contestID}/matches [get]
func (h *MatchHandler) ListByContest(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListMatches(r.Context(), contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if matches == nil {
		matches = []*models.Match{}
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Update godoc
// @Summary Изменить матч
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body services.UpdateMatchInput true "Изменяемые поля"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/matches/{matchID} [put]
func (h *MatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateMatchInput
	if !readValidJSON(w, r, &input) {
		return
	}

	match, err := h.matchService.UpdateMatch(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetResult godoc
// @Summary Записать результат матча
// @Description Принимает 1, X, 2, устаревшие C, E, F или счёт вида 2x1. Рейтинг конкурса пересчитывается.
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body setResultInput true "Результат"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string "Нераспознанный результат"
// @Security BearerAuth
// @Router /admin/matches/{matchID}/result [put]
func (h *MatchHandler) SetResult(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input setResultInput
	if !readValidJSON(w, r, &input) {
		return
	}

	match, err := h.matchService.SetResult(r.Context(), id, input.Result)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ClearResult godoc
// @Summary Сбросить результат матча
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/matches/{matchID}/result [delete]
func (h *MatchHandler) ClearResult(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ClearResult(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadPhoto godoc
// @Summary Загрузить фото команды матча
// @Tags matches
// @Accept multipart/form-data
// @Produce json
// @Param matchID path int true "Match ID"
// @Param side formData string true "home или away"
// @Param photo formData file true "JPEG, PNG или WebP"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /admin/matches/{matchID}/photo [post]
func (h *MatchHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1024)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get photo file from form: %w", err))
		return
	}
	defer file.Close()

	side := models.MatchSide(r.FormValue("side"))
	match, err := h.matchService.UploadPhoto(r.Context(), id, side, file, header.Header.Get("Content-Type"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete godoc
// @Summary Удалить матч
// @Tags matches
// @Param matchID path int true "Match ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "На матч уже есть палпиты"
// @Security BearerAuth
// @Router /admin/matches/{matchID} [delete]
func (h *MatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.DeleteMatch(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
