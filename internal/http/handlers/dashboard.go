package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/phonegate/portal/internal/middleware"
	"github.com/phonegate/portal/internal/toast"
)

// DashboardHandler renders the signed-in area
type DashboardHandler struct {
	toasts *toast.Board
	render *Renderer
	logger *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(toasts *toast.Board, render *Renderer, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{toasts: toasts, render: render, logger: logger}
}

// HandleDashboard handles GET /dashboard
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r.Context())
	if !ok {
		h.logger.Error("session missing from request context", zap.String("path", r.URL.Path))
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, signedIn := store.CurrentUser()
	if !signedIn {
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return
	}

	h.render.Render(w, http.StatusOK, pageDashboard, dashboardPage{
		Page:   Page{Title: "Dashboard", Path: "/dashboard", Toast: currentToast(r, h.toasts)},
		User:   user,
		Logout: signOutButton(),
	})
}
