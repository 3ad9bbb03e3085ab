package router

import (
	"errors"
	"net/http"

	"github.com/circuit-stream/ewaste-service/internal/handlers"
	"github.com/circuit-stream/ewaste-service/internal/models"
	"github.com/circuit-stream/ewaste-service/internal/session"
	"github.com/circuit-stream/ewaste-service/internal/utils"
)

// AuthedHandler is a handler that runs behind the authentication middleware
// and receives the resolved principal.
type AuthedHandler func(w http.ResponseWriter, r *http.Request, p session.Principal)

// requirePrincipal resolves the bearer token to a principal and enforces the
// principal kind for the route. Every failure is a 401: a missing token, an
// expired session and a wrong principal kind are equally unauthenticated.
func requirePrincipal(sessions *session.Manager, kind session.Kind, next AuthedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := utils.ExtractToken(r, handlers.SessionCookie)
		if token == "" {
			utils.SendError(w, http.StatusUnauthorized, models.KindUnauthenticated, "access denied, no token provided")
			return
		}

		p, err := sessions.Resolve(r.Context(), token)
		if errors.Is(err, session.ErrNotFound) {
			utils.SendError(w, http.StatusUnauthorized, models.KindUnauthenticated, "token is not valid or has expired")
			return
		}
		if err != nil {
			utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to verify credentials")
			return
		}

		if p.Kind != kind {
			utils.SendError(w, http.StatusUnauthorized, models.KindUnauthenticated, "access denied")
			return
		}

		next(w, r, p)
	}
}
