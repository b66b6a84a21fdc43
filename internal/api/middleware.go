package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lingora/lingora/internal/identity"
)

const contextKeyUserKey = "user_key"

// AuthMiddleware validates the bearer token and stores the resolved
// user key on the request context. Every gated route sits behind it.
func AuthMiddleware(verifier *identity.Verifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			cookie, err := ctx.Cookie("session_token")
			if err != nil {
				ctx.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Missing authentication token",
				})
				ctx.Abort()
				return
			}
			authHeader = "Bearer " + cookie
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			ctx.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid authorization header",
			})
			ctx.Abort()
			return
		}

		userKey, err := verifier.UserKeyFromToken(parts[1])
		if err != nil {
			ctx.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
			ctx.Abort()
			return
		}

		ctx.Set(contextKeyUserKey, userKey)
		ctx.Next()
	}
}

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		logger.Info().
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Str("remote_addr", ctx.ClientIP()).
			Int("status", ctx.Writer.Status()).
			Int("size", ctx.Writer.Size()).
			Msg("API request")
	}
}

// userKey returns the authenticated user key set by AuthMiddleware.
func userKey(ctx *gin.Context) string {
	key, _ := ctx.Get(contextKeyUserKey)
	s, _ := key.(string)
	return s
}
