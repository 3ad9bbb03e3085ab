package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/circuit-stream/ewaste-service/internal/models"
	"github.com/circuit-stream/ewaste-service/internal/services"
	"github.com/circuit-stream/ewaste-service/internal/utils"
)

// SessionCookie is the cookie carrying the session token for browser clients.
// API clients send the same token as a bearer credential instead.
const SessionCookie = "sessionToken"

// AuthHandler handles signup, login and logout requests.
type AuthHandler struct {
	Service *services.AuthService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *services.AuthService, logger *log.Logger, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// SignupRecycler handles recycler registration requests.
func (h *AuthHandler) SignupRecycler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var signupReq models.RecyclerSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&signupReq); err != nil {
		utils.SendError(w, http.StatusBadRequest, models.KindValidation, "invalid request body")
		return
	}

	recycler, err := h.Service.SignupRecycler(ctx, signupReq)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to register recycler")
		return
	}

	utils.SendJSON(w, http.StatusCreated, recycler)
}

// SignupCoordinator handles coordinator registration requests.
func (h *AuthHandler) SignupCoordinator(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var signupReq models.CoordinatorSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&signupReq); err != nil {
		utils.SendError(w, http.StatusBadRequest, models.KindValidation, "invalid request body")
		return
	}

	coordinator, err := h.Service.SignupCoordinator(ctx, signupReq)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to register coordinator")
		return
	}

	utils.SendJSON(w, http.StatusCreated, coordinator)
}

// LoginRecycler handles recycler login requests.
func (h *AuthHandler) LoginRecycler(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.Service.LoginRecycler)
}

// LoginCoordinator handles coordinator login requests.
func (h *AuthHandler) LoginCoordinator(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.Service.LoginCoordinator)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, loginFn func(context.Context, models.LoginRequest) (string, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var loginReq models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		utils.SendError(w, http.StatusBadRequest, models.KindValidation, "invalid request body")
		return
	}

	token, err := loginFn(ctx, loginReq)
	if err != nil {
		if errorResponse, ok := err.(*models.ErrorResponse); ok {
			h.Logger.Println(err)
			utils.SendErrorResponse(w, errorResponse)
			return
		}
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	utils.SendJSON(w, http.StatusOK, models.LoginResponse{Token: token})
}

// Logout destroys the caller's session. The token is read the same way the
// auth middleware reads it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	token := utils.ExtractToken(r, SessionCookie)
	if token == "" {
		utils.SendError(w, http.StatusUnauthorized, models.KindUnauthenticated, "access denied, no token provided")
		return
	}

	if err := h.Service.Logout(ctx, token); err != nil {
		h.Logger.Println(err)
		utils.SendError(w, http.StatusInternalServerError, models.KindInternal, "failed to log out")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}
