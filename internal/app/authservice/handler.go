package authservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shortland/backend/internal/domain/users"
	"github.com/shortland/backend/internal/ports"
	"github.com/shortland/backend/internal/shared/logger"
	"github.com/shortland/backend/internal/shared/web"
)

// HTTPHandler adapts the auth routes to the AuthService.
type HTTPHandler struct {
	svc    ports.AuthService
	logger *logger.Logger
}

func NewHTTPHandler(svc ports.AuthService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: log}
}

// Register mounts the public auth routes.
func (handler *HTTPHandler) Register(r chi.Router) {
	r.Post("/auth/register", handler.handleRegister)
	r.Post("/auth/login", handler.handleLogin)
	r.Post("/auth/admin/login", handler.handleAdminLogin)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse matches the storefront client: a safe user view plus the token.
type authResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (handler *HTTPHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		web.HTTPError(ctx, handler.logger, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	result, err := handler.svc.Register(ctx, req.Name, req.Email, req.Password)
	if errors.Is(err, users.ErrUserExists) {
		web.HTTPError(ctx, handler.logger, w, http.StatusConflict, "user already exists", err)
		return
	}
	if err != nil {
		web.HTTPError(ctx, handler.logger, w, http.StatusBadRequest, err.Error(), err)
		return
	}

	web.JSONResponse(ctx, handler.logger, w, http.StatusCreated, toAuthResponse(result))
}

func (handler *HTTPHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	handler.loginFlow(w, r, handler.svc.Login)
}

func (handler *HTTPHandler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	handler.loginFlow(w, r, handler.svc.LoginAdmin)
}

func (handler *HTTPHandler) loginFlow(w http.ResponseWriter, r *http.Request, login func(ctx context.Context, email, password string) (ports.AuthResult, error)) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		web.HTTPError(ctx, handler.logger, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	result, err := login(ctx, req.Email, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		web.HTTPError(ctx, handler.logger, w, http.StatusUnauthorized, "invalid credentials", err)
		return
	}
	if err != nil {
		web.HTTPError(ctx, handler.logger, w, http.StatusInternalServerError, "internal error", err)
		return
	}

	web.JSONResponse(ctx, handler.logger, w, http.StatusOK, toAuthResponse(result))
}

func toAuthResponse(result ports.AuthResult) authResponse {
	return authResponse{
		User: userView{
			ID:    result.User.ID,
			Name:  result.User.Name,
			Email: result.User.Email,
			Role:  string(result.User.Role),
		},
		Token: result.Token,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
