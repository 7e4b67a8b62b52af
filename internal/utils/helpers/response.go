package helpers

import (
	"encoding/json"
	"net/http"
)

// FieldError — ошибка валидации одного поля запроса.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type messageResponse struct {
	Msg string `json:"msg"`
}

type validationResponse struct {
	Errors []FieldError `json:"errors"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		return
	}
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, messageResponse{Msg: msg})
}

// Message — ответ вида {"msg": ...} с произвольным статусом.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, messageResponse{Msg: msg})
}

// ValidationError всегда отвечает 400 со списком ошибок по полям.
func ValidationError(w http.ResponseWriter, errs []FieldError) {
	JSON(w, http.StatusBadRequest, validationResponse{Errors: errs})
}
