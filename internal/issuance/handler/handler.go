package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"smartration/internal/distribution/models"
	"smartration/internal/entitlement"
	"smartration/internal/issuance/service"
	"smartration/pkg/platform/httputil"
	"smartration/pkg/requestcontext"
)

// Service defines the issuance operations exposed over HTTP.
type Service interface {
	LookupEntitlement(ctx context.Context, cardNumber string) (*service.Entitlement, error)
	IssueRation(ctx context.Context, cardNumber string, lines []entitlement.Line) (*service.IssueResult, error)
	ListIssuances(ctx context.Context, token string) ([]*models.Distribution, error)
	SetCollected(ctx context.Context, token, id string, completed bool) (*models.Distribution, error)
}

// Handler wires the counter and admin issuance routes to the service.
// Session checks happen in the service, so the handler only forwards the
// bearer token.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the issuance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/ration/search/{cardNumber}", h.HandleSearch)
	r.Post("/api/check-card", h.HandleCheckCard)
	r.Post("/api/issue-ration", h.HandleIssueRation)
	r.Get("/api/distributions", h.HandleListDistributions)
	r.Patch("/api/distributions/{id}/complete", h.handleSetCollected(true))
	r.Patch("/api/distributions/{id}/uncomplete", h.handleSetCollected(false))
}

// HandleSearch handles GET /api/ration/search/{cardNumber}.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	h.writeEntitlement(w, r, chi.URLParam(r, "cardNumber"))
}

// HandleCheckCard handles POST /api/check-card.
func (h *Handler) HandleCheckCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CheckCardRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.writeEntitlement(w, r, req.CardNumber)
}

func (h *Handler) writeEntitlement(w http.ResponseWriter, r *http.Request, cardNumber string) {
	result, err := h.service.LookupEntitlement(r.Context(), cardNumber)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEntitlement(result))
}

// HandleIssueRation handles POST /api/issue-ration.
func (h *Handler) HandleIssueRation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[IssueRationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	result, err := h.service.IssueRation(ctx, req.CardNumber, req.Lines())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromIssueResult(result))
}

// HandleListDistributions handles GET /api/distributions.
func (h *Handler) HandleListDistributions(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.ListIssuances(r.Context(), httputil.BearerToken(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDistributions(all))
}

func (h *Handler) handleSetCollected(completed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := h.service.SetCollected(r.Context(), httputil.BearerToken(r), chi.URLParam(r, "id"), completed)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, FromDistribution(d))
	}
}
