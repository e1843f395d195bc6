package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linktrace/internal/session"
	"go.uber.org/zap"
)

// AuthHandler implements cookie-based login and logout.
type AuthHandler struct {
	users    session.UserRepository
	sessions session.Store
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users session.UserRepository, sessions session.Store, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Body struct {
		Username string `json:"username" minLength:"1" maxLength:"100"`
		Password string `json:"password" minLength:"1" maxLength:"200"`
	}
}

// LoginResponse sets the session cookie on success.
type LoginResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Success  bool   `json:"success"`
		Username string `json:"username"`
	}
}

// LogoutRequest carries the session cookie to invalidate.
type LogoutRequest struct {
	SessionID string `cookie:"sessionId" required:"false"`
}

// LogoutResponse clears the session cookie.
type LogoutResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Success bool `json:"success"`
	}
}

// Login checks credentials and issues a session valid for seven days.
// Unknown users and wrong passwords get the same answer.
func (h *AuthHandler) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := h.users.GetByUsername(ctx, req.Body.Username)
	if err != nil {
		return nil, huma.Error401Unauthorized("invalid username or password")
	}

	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(req.Body.Password)) != 1 {
		return nil, huma.Error401Unauthorized("invalid username or password")
	}

	sess := &session.Session{
		ID:        session.NewID(),
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: time.Now().Add(session.DefaultTTL),
	}
	if err := h.sessions.Put(ctx, sess); err != nil {
		h.logger.Error("failed to store session", zap.String("username", user.Username), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to create session")
	}

	h.logger.Info("user logged in", zap.String("username", user.Username))

	resp := &LoginResponse{
		SetCookie: http.Cookie{
			Name:     "sessionId",
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(session.DefaultTTL / time.Second),
		},
	}
	resp.Body.Success = true
	resp.Body.Username = user.Username

	return resp, nil
}

// Logout deletes the session, if any, and expires the cookie.
func (h *AuthHandler) Logout(ctx context.Context, req *LogoutRequest) (*LogoutResponse, error) {
	if req.SessionID != "" {
		if err := h.sessions.Delete(ctx, req.SessionID); err != nil && !errors.Is(err, session.ErrNotFound) {
			h.logger.Warn("failed to delete session", zap.Error(err))
		}
	}

	resp := &LogoutResponse{
		SetCookie: http.Cookie{
			Name:     "sessionId",
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		},
	}
	resp.Body.Success = true

	return resp, nil
}
