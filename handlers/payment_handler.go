package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Dosada05/bolao-system/middleware"
	"github.com/Dosada05/bolao-system/models"
	"github.com/Dosada05/bolao-system/pix"
	"github.com/Dosada05/bolao-system/repositories"
	"github.com/Dosada05/bolao-system/services"
)

const defaultRecoverWindow = 24 * time.Hour

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(ps services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

type forceStatusInput struct {
	Status models.PaymentStatus `json:"status" validate:"required"`
	Reason string               `json:"reason" validate:"required,max=500"`
}

type recoverInput struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Get godoc
// @Summary Статус оплаты билета
// @Description Ожидающий оплаты платёж сначала сверяется со шлюзом.
// @Tags payments
// @Produce json
// @Param paymentID path int true "Payment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /payments/{paymentID} [get]
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "paymentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	payment, err := h.paymentService.PollPayment(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payment": payment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List godoc
// @Summary Список платежей
// @Tags payments
// @Produce json
// @Param status query string false "pending, paid, expired, cancelled, refunded"
// @Param contest_id query int false "Contest ID"
// @Param limit query int false "По умолчанию 20"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /admin/payments [get]
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListPaymentsFilter
	query := r.URL.Query()
	if statusStr := query.Get("status"); statusStr != "" {
		status := models.PaymentStatus(statusStr)
		filter.Status = &status
	}
	if contestIDStr := query.Get("contest_id"); contestIDStr != "" {
		if id, err := strconv.Atoi(contestIDStr); err == nil && id > 0 {
			filter.ContestID = &id
		} else {
			badRequestResponse(w, r, errors.New("invalid contest_id query parameter"))
			return
		}
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

	payments, err := h.paymentService.ListPayments(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payments": payments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Check godoc
// @Summary Сверить платёж со шлюзом
// @Tags payments
// @Produce json
// @Param paymentID path int true "Payment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /admin/payments/{paymentID}/check [post]
func (h *PaymentHandler) Check(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "paymentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	payment, err := h.paymentService.CheckStatus(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payment": payment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ForceStatus godoc
// @Summary Принудительно сменить статус платежа
// @Tags payments
// @Accept json
// @Produce json
// @Param paymentID path int true "Payment ID"
// @Param body body forceStatusInput true "Статус и причина"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/payments/{paymentID}/status [post]
func (h *PaymentHandler) ForceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "paymentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input forceStatusInput
	if !readValidJSON(w, r, &input) {
		return
	}

	payment, err := h.paymentService.ForceStatus(r.Context(), id, input.Status, input.Reason, adminID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payment": payment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Reconcile godoc
// @Summary Сверить все ожидающие платежи
// @Tags payments
// @Produce json
// @Success 200 {object} models.ReconcileReport
// @Failure 503 {object} map[string]string "PIX не настроен"
// @Security BearerAuth
// @Router /admin/payments/reconcile [post]
func (h *PaymentHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.paymentService.ReconcilePending(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Recover godoc
// @Summary Найти потерянные оплаты
// @Description Запрашивает у шлюза PIX, полученные в окне [from, to), и отмечает совпавшие платежи оплаченными. По умолчанию последние 24 часа.
// @Tags payments
// @Accept json
// @Produce json
// @Param body body recoverInput false "Окно поиска"
// @Success 200 {object} models.ReconcileReport
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /admin/payments/recover [post]
func (h *PaymentHandler) Recover(w http.ResponseWriter, r *http.Request) {
	var input recoverInput
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	to := time.Now()
	if input.To != nil {
		to = *input.To
	}
	from := to.Add(-defaultRecoverWindow)
	if input.From != nil {
		from = *input.From
	}

	report, err := h.paymentService.RecoverLost(r.Context(), from, to)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Webhook godoc
// @Summary Уведомление о полученном PIX
// @Description Вызывается PSP. Секрет передаётся в query-параметре hmac.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param hmac query string true "Секрет вебхука"
// @Param body body pix.Notification true "Полученные PIX"
// @Success 200 {object} models.ReconcileReport
// @Failure 401 {object} map[string]string
// @Router /webhooks/pix [post]
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if err := h.paymentService.VerifyWebhookSecret(r.URL.Query().Get("hmac")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var notification pix.Notification
	if err := readJSON(w, r, &notification); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.paymentService.HandleWebhook(r.Context(), notification)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
