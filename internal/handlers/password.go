package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"accountd/internal/logger"
	"accountd/internal/reqctx"
	"accountd/internal/services"
	"accountd/internal/utils/helpers"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type PasswordHandler struct {
	svc      *services.PasswordService
	sessions *services.SessionService
	validate *validator.Validate
}

func NewPasswordHandler(svc *services.PasswordService, sessions *services.SessionService) *PasswordHandler {
	return &PasswordHandler{
		svc:      svc,
		sessions: sessions,
		validate: newValidator(),
	}
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

type changeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// Текст одинаковый для найденного и не найденного email — чтобы по телу ответа
// нельзя было перечислять адреса.
const resetSentMsg = "Token sent to email"

// Forgot godoc
// @Summary Запрос токена сброса пароля
// @Description Выдаёт одноразовый токен и отправляет его на почту.
// @Tags password
// @Accept json
// @Produce json
// @Param input body forgotRequest true "Email пользователя"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/forgotPassword [post]
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req forgotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Ошибка декодирования JSON в Forgot", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			helpers.ValidationError(w, formatValidationErrors(verrs))
			return
		}
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	if err := h.svc.RequestReset(r.Context(), req.Email); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Warn("Сброс для неизвестного email", zap.String("email_masked", maskEmail(req.Email)))
			helpers.Message(w, http.StatusNotFound, resetSentMsg)
			return
		}
		log.Error("Сбой при запросе сброса пароля", zap.String("email_masked", maskEmail(req.Email)), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	log.Info("Запрошен сброс пароля", zap.String("email_masked", maskEmail(req.Email)))
	helpers.Message(w, http.StatusOK, resetSentMsg)
}

// Reset godoc
// @Summary Сброс пароля по токену
// @Description Проверяет токен из письма, ставит новый пароль и сразу выдаёт сессию.
// @Tags password
// @Accept json
// @Produce json
// @Param resetToken path string true "Токен из письма"
// @Param input body resetRequest true "Новый пароль"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} map[string]string
// @Router /users/resetPassword/{resetToken} [post]
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	token := mux.Vars(r)["resetToken"]
	if token == "" {
		helpers.Error(w, http.StatusBadRequest, "Token is invalid or has expired")
		return
	}

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Ошибка декодирования JSON в Reset", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			helpers.ValidationError(w, formatValidationErrors(verrs))
			return
		}
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	user, err := h.svc.ResetPassword(r.Context(), token, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			log.Warn("Неверный или просроченный токен сброса")
			helpers.Error(w, http.StatusBadRequest, "Token is invalid or has expired")
			return
		}
		log.Error("Ошибка сброса пароля", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	sessionToken, err := h.sessions.IssueToken(user.ID)
	if err != nil {
		log.Error("Ошибка выдачи сессионного токена после сброса", zap.Error(err), zap.Int64("user_id", user.ID))
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	log.Info("Пароль сброшен", zap.Int64("user_id", user.ID))
	helpers.JSON(w, http.StatusOK, tokenResponse{Token: sessionToken})
}

// Change godoc
// @Summary Смена пароля (авторизованный пользователь)
// @Description Требует текущий пароль; новый пароль не должен совпадать с текущим.
// @Tags password
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body changeRequest true "Текущий и новый пароль"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /users/changePassword [patch]
func (h *PasswordHandler) Change(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, ok := reqctx.GetUserID(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "You are not logged in")
		return
	}

	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Ошибка декодирования JSON в Change", zap.Int64("user_id", userID), zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			helpers.ValidationError(w, formatValidationErrors(verrs))
			return
		}
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	if err := h.svc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, services.ErrWrongPassword):
			log.Warn("Текущий пароль не совпадает", zap.Int64("user_id", userID))
			helpers.Error(w, http.StatusUnauthorized, "Current password is wrong")
		case errors.Is(err, services.ErrSamePassword):
			helpers.Error(w, http.StatusBadRequest, "New password must differ from the current one")
		case errors.Is(err, services.ErrUserNotFound):
			helpers.Error(w, http.StatusUnauthorized, "User not found")
		default:
			log.Error("Ошибка смены пароля", zap.Int64("user_id", userID), zap.Error(err))
			helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	log.Info("Пароль изменён", zap.Int64("user_id", userID))
	helpers.Message(w, http.StatusOK, "Password changed")
}
