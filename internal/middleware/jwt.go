package middleware

import (
	"net/http"
	"strings"

	"accountd/internal/logger"
	"accountd/internal/reqctx"
	"accountd/internal/services"
	"accountd/internal/utils/helpers"

	"go.uber.org/zap"
)

// JWTAuth проверяет Bearer-токен и кладёт user_id в контекст запроса.
func JWTAuth(sessions *services.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				logger.WithCtx(r.Context()).Warn("JWTAuth: отсутствует access token")
				helpers.Error(w, http.StatusUnauthorized, "You are not logged in")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			userID, err := sessions.ParseToken(tokenString)
			if err != nil {
				logger.WithCtx(r.Context()).Warn("JWTAuth: неверный или просроченный токен", zap.Error(err))
				helpers.Error(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			ctx := reqctx.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
