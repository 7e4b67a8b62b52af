package app

import (
	"accountd/internal/config"
	"accountd/internal/db"
	"accountd/internal/handlers"
	"accountd/internal/repository"
	"accountd/internal/routes"
	"accountd/internal/services"

	"github.com/gorilla/mux"
)

func InitApp(cfg *config.Config) (*mux.Router, error) {
	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	// Репозитории
	userRepo := repository.NewUserRepository(conn)

	// Сервисы
	sessionService := services.NewSessionService(cfg)
	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(userRepo, cfg.BcryptCostValue())
	passwordService := services.NewPasswordService(userRepo, emailService, cfg.BcryptCostValue(), cfg.ResetTokenTTL())

	// Хендлеры
	userHandler := handlers.NewUserHandler(authService, sessionService)
	passwordHandler := handlers.NewPasswordHandler(passwordService, sessionService)

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, userHandler, passwordHandler, sessionService)

	return router, nil
}
