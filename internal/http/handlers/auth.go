package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/phonegate/portal/internal/auth"
	"github.com/phonegate/portal/internal/middleware"
	"github.com/phonegate/portal/internal/observability"
	"github.com/phonegate/portal/internal/phoneinput"
	"github.com/phonegate/portal/internal/session"
	"github.com/phonegate/portal/internal/toast"
)

// AuthHandler handles the login pages
type AuthHandler struct {
	authService *auth.Service
	toasts      *toast.Board
	render      *Renderer
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, toasts *toast.Board, render *Renderer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		toasts:      toasts,
		render:      render,
		logger:      logger,
	}
}

// phoneFeedbackResponse is the JSON response for POST /auth/phone
type phoneFeedbackResponse struct {
	Value  string `json:"value"`
	Status string `json:"status"`
	Count  string `json:"count"`
	Icon   string `json:"icon"`
	Help   string `json:"help"`
}

// HandleRoot handles GET /
func (h *AuthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	store, ok := h.session(w, r)
	if !ok {
		return
	}
	if store.IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/auth", http.StatusSeeOther)
}

// HandleLoginPage handles GET /auth
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	store, ok := h.session(w, r)
	if !ok {
		return
	}
	if store.IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	h.render.Render(w, http.StatusOK, pageLogin, h.loginPage(r, newPhoneInput(""), ""))
}

// HandleLogin handles POST /auth
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	store, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	input := newPhoneInput("")
	phone := input.Change(r.PostForm.Get("phone"))

	outcome := h.authService.Login(r.Context(), phone, store)
	switch outcome.Kind {
	case auth.ErrorField:
		input.SetError(outcome.FieldErrors["phone"])
		h.render.Render(w, http.StatusUnprocessableEntity, pageLogin, h.loginPage(r, input, ""))
	case auth.ErrorNetwork:
		h.render.Render(w, http.StatusBadGateway, pageLogin, h.loginPage(r, input, outcome.NetworkError))
	default:
		clientID, _ := middleware.GetClientID(r.Context())
		h.toasts.Show(clientID, "Signed in as "+outcome.User.Name, toast.Success)
		h.logger.Info("client signed in",
			zap.String("client_id", clientID),
			zap.String("phone", observability.MaskPhone(phone)),
		)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}
}

// HandlePhoneFeedback handles POST /auth/phone. It reports the masked value
// and live status for a raw keystroke value; any earlier submit error is
// considered cleared.
func (h *AuthHandler) HandlePhoneFeedback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	input := newPhoneInput("")
	input.Change(r.PostForm.Get("phone"))
	field := input.View()

	response := phoneFeedbackResponse{
		Value:  field.Value,
		Status: string(field.Status),
		Count:  field.Count,
		Icon:   field.Icon,
		Help:   field.HelpText,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Debug("failed to encode phone feedback", zap.Error(err))
	}
}

// HandleLogout handles POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	store, ok := h.session(w, r)
	if !ok {
		return
	}

	if user, signedIn := store.CurrentUser(); signedIn {
		h.logger.Info("client signed out", zap.String("user_id", user.ID))
	}
	store.Logout(r.Context())

	clientID, _ := middleware.GetClientID(r.Context())
	h.toasts.Show(clientID, "You have been signed out", toast.Info)
	http.Redirect(w, r, "/auth", http.StatusSeeOther)
}

// HandleDismissToast handles POST /toast/dismiss
func (h *AuthHandler) HandleDismissToast(w http.ResponseWriter, r *http.Request) {
	clientID, _ := middleware.GetClientID(r.Context())
	h.toasts.Dismiss(clientID)
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

func (h *AuthHandler) loginPage(r *http.Request, input *phoneinput.Input, banner string) loginPage {
	return loginPage{
		Page:   Page{Title: "Sign In", Path: "/auth", Toast: currentToast(r, h.toasts)},
		Banner: banner,
		Phone:  input.View(),
		Submit: signInButton(false),
	}
}

func (h *AuthHandler) session(w http.ResponseWriter, r *http.Request) (*session.Store, bool) {
	store, ok := middleware.GetSession(r.Context())
	if !ok {
		h.logger.Error("session missing from request context", zap.String("path", r.URL.Path))
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return store, true
}

func currentToast(r *http.Request, toasts *toast.Board) *toast.View {
	clientID, ok := middleware.GetClientID(r.Context())
	if !ok {
		return nil
	}
	if v, shown := toasts.View(clientID); shown {
		return &v
	}
	return nil
}

// backTo returns a same-site path to return to after a form post.
func backTo(r *http.Request) string {
	next := r.FormValue("next")
	if len(next) > 0 && next[0] == '/' && (len(next) == 1 || (next[1] != '/' && next[1] != '\\')) {
		return next
	}
	return "/"
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]string{"error": message}
	_ = json.NewEncoder(w).Encode(response)
}
