package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"accountd/internal/logger"
	"accountd/internal/models"
	"accountd/internal/reqctx"
	"accountd/internal/services"
	"accountd/internal/utils/helpers"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type UserHandler struct {
	authService *services.AuthService
	sessions    *services.SessionService
	validate    *validator.Validate
}

func NewUserHandler(authService *services.AuthService, sessions *services.SessionService) *UserHandler {
	return &UserHandler{
		authService: authService,
		sessions:    sessions,
		validate:    newValidator(),
	}
}

type registerRequest struct {
	Email       string     `json:"email" validate:"required,email"`
	Password    string     `json:"password" validate:"required,min=8"`
	Name        string     `json:"name" validate:"required,min=2"`
	DateOfBirth *time.Time `json:"date_of_birth" validate:"omitempty"`
	Gender      string     `json:"gender" validate:"omitempty,oneof=male female other"`
	Bio         string     `json:"bio" validate:"omitempty,max=500"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// List godoc
// @Summary Список пользователей
// @Description Возвращает всех пользователей. Поле пароля наружу не отдаётся.
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Failure 500 {object} map[string]string
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.GetUsers(r.Context())
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка получения списка пользователей", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	helpers.JSON(w, http.StatusOK, users)
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Description Создаёт аккаунт и сразу возвращает сессионный токен.
// @Tags users
// @Accept json
// @Produce json
// @Param input body registerRequest true "Данные регистрации"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} map[string]string
// @Router /users [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Ошибка декодирования JSON в Register", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			helpers.ValidationError(w, formatValidationErrors(verrs))
			return
		}
		log.Error("Неожиданная ошибка валидации в Register", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	user := &models.User{
		Email:       req.Email,
		Name:        req.Name,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Bio:         req.Bio,
	}

	created, err := h.authService.Register(r.Context(), user, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			log.Warn("Повторная регистрация email", zap.String("email_masked", maskEmail(req.Email)))
			helpers.Error(w, http.StatusBadRequest, "User already exists")
			return
		}
		log.Error("Ошибка регистрации пользователя", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	token, err := h.sessions.IssueToken(created.ID)
	if err != nil {
		log.Error("Ошибка выдачи сессионного токена", zap.Error(err), zap.Int64("user_id", created.ID))
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	helpers.JSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Login godoc
// @Summary Вход по email и паролю
// @Tags users
// @Accept json
// @Produce json
// @Param input body loginRequest true "Данные для входа"
// @Success 200 {object} tokenResponse
// @Failure 401 {object} map[string]string
// @Router /users/login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Ошибка декодирования JSON в Login", zap.Error(err))
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

	user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn("Неудачный вход", zap.String("email_masked", maskEmail(req.Email)))
			helpers.Error(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		log.Error("Ошибка входа", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	token, err := h.sessions.IssueToken(user.ID)
	if err != nil {
		log.Error("Ошибка выдачи сессионного токена", zap.Error(err), zap.Int64("user_id", user.ID))
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	helpers.JSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Me godoc
// @Summary Профиль текущего пользователя
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string
// @Router /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := reqctx.GetUserID(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "You are not logged in")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			helpers.Error(w, http.StatusNotFound, "User not found")
			return
		}
		logger.WithCtx(r.Context()).Error("Ошибка получения профиля", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	helpers.JSON(w, http.StatusOK, user)
}

// Update godoc
// @Summary Обновление профиля
// @Description Меняет профильные поля. Попытка передать пароль отклоняется.
// @Tags users
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.UpdateUserRequest true "Изменяемые поля"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string
// @Router /users [patch]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, ok := reqctx.GetUserID(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "You are not logged in")
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		log.Warn("Ошибка декодирования JSON в Update", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	// Пароль этим маршрутом не меняется
	if _, has := raw["password"]; has {
		helpers.Error(w, http.StatusBadRequest, "This route is not for password updates. Please use /users/changePassword")
		return
	}

	body, _ := json.Marshal(raw)
	var req models.UpdateUserRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Warn("Невалидные поля в Update", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if req.Email != nil {
		if err := h.validate.Var(*req.Email, "required,email"); err != nil {
			helpers.ValidationError(w, []helpers.FieldError{{Field: "email", Message: "must be a valid email address"}})
			return
		}
	}

	updated, err := h.authService.UpdateUser(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			helpers.Error(w, http.StatusBadRequest, "User already exists")
		case errors.Is(err, services.ErrUserNotFound):
			helpers.Error(w, http.StatusNotFound, "User not found")
		default:
			log.Error("Ошибка обновления профиля", zap.Error(err), zap.Int64("user_id", userID))
			helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	helpers.JSON(w, http.StatusOK, updated)
}

// Delete godoc
// @Summary Удаление собственного аккаунта
// @Tags users
// @Security ApiKeyAuth
// @Success 204 {string} string "Аккаунт удалён"
// @Failure 404 {object} map[string]string
// @Router /users [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, ok := reqctx.GetUserID(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "You are not logged in")
		return
	}

	if err := h.authService.DeleteUser(r.Context(), userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			helpers.Error(w, http.StatusNotFound, "User not found")
			return
		}
		log.Error("Ошибка удаления аккаунта", zap.Error(err), zap.Int64("user_id", userID))
		helpers.Error(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	log.Info("Аккаунт удалён", zap.Int64("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}
