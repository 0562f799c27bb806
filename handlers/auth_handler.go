package handlers

import (
	"net/http"

	"github.com/Dosada05/bolao-system/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @Summary Вход администратора
// @Tags auth
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Email и пароль"
// @Success 200 {object} map[string]interface{} "token и user"
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string "Неверный email или пароль"
// @Failure 422 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if !readValidJSON(w, r, &input) {
		return
	}

	user, token, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": token, "user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateUser godoc
// @Summary Создать пользователя бэк-офиса
// @Tags admin
// @Accept json
// @Produce json
// @Param body body services.CreateUserInput true "Новый пользователь"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "Email уже занят"
// @Security BearerAuth
// @Router /admin/users [post]
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input services.CreateUserInput
	if !readValidJSON(w, r, &input) {
		return
	}

	user, err := h.authService.CreateUser(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
