package routes

import (
	"accountd/internal/handlers"
	"accountd/internal/middleware"
	"accountd/internal/services"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	userHandler *handlers.UserHandler,
	passwordHandler *handlers.PasswordHandler,
	sessions *services.SessionService,
) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logging)

	// --- Публичные маршруты ---
	router.HandleFunc("/users", userHandler.List).Methods("GET")
	router.HandleFunc("/users", userHandler.Register).Methods("POST")
	router.HandleFunc("/users/login", userHandler.Login).Methods("POST")
	router.HandleFunc("/users/forgotPassword", passwordHandler.Forgot).Methods("POST")
	router.HandleFunc("/users/resetPassword/{resetToken}", passwordHandler.Reset).Methods("POST")

	// --- Защищённые JWT ---
	protected := router.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth(sessions))

	protected.HandleFunc("/users/changePassword", passwordHandler.Change).Methods("PATCH")
	protected.HandleFunc("/users/me", userHandler.Me).Methods("GET")
	protected.HandleFunc("/users", userHandler.Update).Methods("PATCH")
	protected.HandleFunc("/users", userHandler.Delete).Methods("DELETE")
}
