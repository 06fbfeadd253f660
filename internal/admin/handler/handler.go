package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"smartration/internal/admin/service"
	"smartration/pkg/platform/httputil"
	"smartration/pkg/requestcontext"
)

type Service interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
}

// Handler exposes administrator login.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the login route; loginMiddleware wraps only that route.
func (h *Handler) Register(r chi.Router, loginMiddleware ...func(http.Handler) http.Handler) {
	r.With(loginMiddleware...).Post("/api/admin/login", h.HandleLogin)
}

// HandleLogin handles POST /api/admin/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
