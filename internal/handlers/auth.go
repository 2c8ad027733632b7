package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mergington/announcements/internal/metrics"
	"github.com/mergington/announcements/internal/services"
	"github.com/mergington/announcements/types"
	"go.uber.org/zap"
)

var errNotBearer = errors.New("authorization scheme is not bearer")

// AuthHandler authenticates staff requests and issues session tokens.
type AuthHandler struct {
	auth   *services.Authenticator
	logger *zap.Logger
}

func NewAuthHandler(auth *services.Authenticator, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

// AuthRouter registers auth routes on the given router. /login exists only
// when session tokens are enabled.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	if handler.auth.TokensEnabled() {
		r.Post("/login", handler.Login)
	}
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth resolves the bearer credential to a teacher and stores it in
// the request context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, err := bearerToken(r)
		if err != nil {
			metrics.IncAuthFailure(services.AuthMissingCredentials.String())
			writeUnauthorized(w, "Not authenticated")
			return
		}

		teacher, err := h.auth.Authenticate(r.Context(), credential)
		if err != nil {
			writeAuthError(w, h.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withTeacher(r.Context(), teacher)))
	})
}

// Login exchanges a username and password for a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	teacher, token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAuthError(w, h.logger, err)
		return
	}

	h.logger.Info("teacher logged in", zap.String("username", teacher.Username))
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Teacher: teacher})
}

// Me returns the authenticated teacher.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	teacher, ok := teacherFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, teacher)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string        `json:"token"`
	Teacher types.Teacher `json:"teacher"`
}

func writeAuthError(w http.ResponseWriter, logger *zap.Logger, err error) {
	reason := services.AuthReasonOf(err)
	if reason == 0 {
		logger.Error("authentication failed unexpectedly", zap.Error(err))
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	metrics.IncAuthFailure(reason.String())
	switch reason {
	case services.AuthMissingCredentials:
		writeUnauthorized(w, "Not authenticated")
	case services.AuthInvalidEncoding:
		writeUnauthorized(w, "Invalid token encoding")
	case services.AuthMalformedToken:
		writeUnauthorized(w, "Token format invalid")
	case services.AuthStoreUnavailable:
		logger.Error("identity store lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Database error during authentication")
	default:
		writeUnauthorized(w, "Invalid credentials")
	}
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errNotBearer
	}
	return token, nil
}
