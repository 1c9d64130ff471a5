package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phonegate/portal/internal/auth"
	"github.com/phonegate/portal/internal/session"
)

type contextKey string

const (
	clientIDKey contextKey = "client_id"
	sessionKey  contextKey = "session"
)

// ClientCookie carries the signed client identity.
const ClientCookie = "client"

// ClientIdentity attaches a client ID to every request. A missing, expired or
// forged cookie is replaced with a fresh identity.
func ClientIdentity(jwtService *auth.JWTService, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var clientID uuid.UUID
			if c, err := r.Cookie(ClientCookie); err == nil {
				if id, err := jwtService.VerifyClientToken(c.Value); err == nil {
					clientID = id
				} else {
					logger.Debug("client token rejected", zap.Error(err))
				}
			}

			if clientID == uuid.Nil {
				clientID = uuid.New()
				token, err := jwtService.SignClientToken(clientID)
				if err != nil {
					logger.Error("failed to sign client token", zap.Error(err))
					respondWithError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookie,
					Value:    token,
					Path:     "/",
					MaxAge:   int(auth.ClientTokenExpiry.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), clientIDKey, clientID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Session opens the client's session store for the duration of the request.
// It must run after ClientIdentity.
func Session(factory *session.Factory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, ok := GetClientID(r.Context())
			if !ok {
				respondWithError(w, http.StatusInternalServerError, "missing client identity")
				return
			}

			store := factory.Open(r.Context(), clientID)
			defer store.Close()

			ctx := context.WithValue(r.Context(), sessionKey, store)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClientID returns the client ID attached by ClientIdentity
func GetClientID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok
}

// GetSession returns the session store attached by Session
func GetSession(ctx context.Context) (*session.Store, bool) {
	s, ok := ctx.Value(sessionKey).(*session.Store)
	return s, ok
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]string{"error": message}
	_ = json.NewEncoder(w).Encode(response)
}
