package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Dosada05/bolao-system/live"
	"github.com/Dosada05/bolao-system/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub            *live.Hub
	rankingService services.RankingService
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

// NewWebSocketHandler принимает список разрешённых Origin; "*" или пустой
// список разрешают любые.
func NewWebSocketHandler(hub *live.Hub, rs services.RankingService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		rankingService: rs,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// ServeRanking godoc
// @Summary Live-обновления рейтинга конкурса (WebSocket)
// @Description После подключения клиент получает текущий рейтинг, затем сообщения RANKING_UPDATED.
// @Tags ranking
// @Param contestID path int true "Contest ID"
// @Success 101
// @Failure 404 {object} map[string]string
// @Router /ws/contests/{contestID}/ranking [get]
func (h *WebSocketHandler) ServeRanking(w http.ResponseWriter, r *http.Request) {
	contestID, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	current, err := h.rankingService.ContestRanking(r.Context(), contestID, false)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	room := live.ContestRoom(contestID)
	snapshot, err := json.Marshal(live.Message{Type: live.MessageRankingUpdated, Payload: current, RoomID: room})
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой
		h.logger.WarnContext(r.Context(), "Websocket upgrade failed", slog.Int("contest_id", contestID), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, room)
	client.Send <- snapshot
	if !h.hub.Add(client) {
		h.logger.InfoContext(r.Context(), "Websocket client rejected, hub stopped", slog.String("room", room))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	h.logger.DebugContext(r.Context(), "Websocket client connected", slog.String("room", room))
}
