package handlers

import (
	"net/http"

	"github.com/Dosada05/bolao-system/services"
)

type RankingHandler struct {
	rankingService services.RankingService
}

func NewRankingHandler(rs services.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rs}
}

// Contest godoc
// @Summary Рейтинг конкурса
// @Description Пока приём палпитов открыт и ни один матч не завершён, возвращается статус pending без записей.
// @Tags ranking
// @Produce json
// @Param contestID path int true "Contest ID"
// @Param breakdown query bool false "Добавить поматчевую разбивку"
// @Success 200 {object} ranking.Ranking
// @Failure 404 {object} map[string]string
// @Router /contests/{contestID}/ranking [get]
func (h *RankingHandler) Contest(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.rankingService.ContestRanking(r.Context(), contestID, queryBool(r, "breakdown"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// General godoc
// @Summary Общий рейтинг по закрытым и завершённым конкурсам
// @Tags ranking
// @Produce json
// @Success 200 {object} ranking.Ranking
// @Router /ranking/general [get]
func (h *RankingHandler) General(w http.ResponseWriter, r *http.Request) {
	result, err := h.rankingService.GeneralRanking(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Refresh godoc
// @Summary Пересчитать рейтинг конкурса
// @Tags ranking
// @Produce json
// @Param contestID path int true "Contest ID"
// @Success 200 {object} ranking.Ranking
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/rankings/{contestID}/refresh [post]
func (h *RankingHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.rankingService.Refresh(r.Context(), contestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
