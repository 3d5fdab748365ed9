package routes

import (
	"net/http"
	"time"

	"github.com/avvvet/pokecard-services/internal/socketsvc/handlers"
	"github.com/avvvet/pokecard-services/internal/socketsvc/ws"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

// SetRoutes mounts the health check and the authenticated event feed.
// Browsers cannot set headers on a websocket upgrade, so the token may also
// come as ?jwt=.
func SetRoutes(r chi.Router, s *ws.Ws, tokenAuth *jwtauth.JWTAuth, port string, checkOrigin func(*http.Request) bool) {
	h := handlers.NewHandler(s, port, checkOrigin)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(tokenAuth, jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(jwtauth.Authenticator)

			r.Get("/ws", h.HandleWebSocket)
		})
	})
}

func InitAuth(secret string) *jwtauth.JWTAuth {
	tokenAuth := jwtauth.New("HS256", []byte(secret), nil)

	if log.IsLevelEnabled(log.DebugLevel) {
		_, tokenString, _ := tokenAuth.Encode(map[string]interface{}{
			"service_id": "socketsvc",
			"exp":        time.Now().Add(24 * time.Hour).Unix(),
		})
		log.Debugf("DEBUG: dashboard JWT valid for 24h: %s", tokenString)
	}
	return tokenAuth
}
