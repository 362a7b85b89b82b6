package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/ssop/internal/ssop/provider"
	"github.com/aussiebroadwan/ssop/internal/ssop/service"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

// InteractionHandler serves the login and consent pages.
type InteractionHandler struct {
	Controller *service.InteractionController
	Provider   *provider.Provider
	Pages      *Pages
	binding    interactionCookie
}

// HandleShow serves GET /interaction/{uid}.
func (h *InteractionHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if !h.bound(w, r, uid) {
		return
	}

	view, err := h.Controller.Show(r.Context(), uid, r.URL.Query().Get("error") == "1")
	if err != nil {
		slogx.FromContext(r.Context()).Error("show interaction", "uid", uid, "err", err)
		h.Pages.Error(w, r, http.StatusInternalServerError, "Error processing interaction", "")
		return
	}

	h.renderView(w, r, view)
}

// HandleLogin serves POST /interaction/{uid}/login.
func (h *InteractionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if !h.bound(w, r, uid) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Pages.Error(w, r, http.StatusBadRequest, "Invalid form submission", "")
		return
	}

	view, err := h.Controller.SubmitLogin(r.Context(), uid, service.LoginForm{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		TOTPCode: r.PostForm.Get("totp_code"),
	})
	if err != nil {
		slogx.FromContext(r.Context()).Error("submit login", "uid", uid, "err", err)
		h.Pages.Error(w, r, http.StatusInternalServerError, "Error processing interaction", "")
		return
	}

	switch view.State {
	case service.StateAwaitingLogin:
		// Post/redirect/get so a reload does not resubmit the password.
		http.Redirect(w, r, view.BackURL()+"?error=1", http.StatusSeeOther)
	default:
		h.renderView(w, r, view)
	}
}

// HandleConsent serves POST /interaction/{uid}/consent.
func (h *InteractionHandler) HandleConsent(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if !h.bound(w, r, uid) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Pages.Error(w, r, http.StatusBadRequest, "Invalid form submission", "")
		return
	}

	view, err := h.Controller.SubmitConsent(r.Context(), uid, r.PostForm.Get("consent"))
	switch {
	case errors.Is(err, service.ErrConsentDenied):
		h.Pages.Error(w, r, http.StatusBadRequest, "Access denied", "The user denied access to the application.")
		return
	case err != nil:
		slogx.FromContext(r.Context()).Error("submit consent", "uid", uid, "err", err)
		h.Pages.Error(w, r, http.StatusInternalServerError, "Error processing consent", "")
		return
	}

	h.renderView(w, r, view)
}

// bound reports whether the request carries the binding cookie of the
// interaction uid and renders the error page when it does not.
func (h *InteractionHandler) bound(w http.ResponseWriter, r *http.Request, uid string) bool {
	_, err := h.Provider.BoundInteraction(r.Context(), uid, h.binding.get(r))
	if err == nil {
		return true
	}
	if !errors.Is(err, service.ErrInteractionNotFound) {
		slogx.FromContext(r.Context()).Error("load interaction", "uid", uid, "err", err)
	}
	h.Pages.Error(w, r, http.StatusInternalServerError, "Error processing interaction", "")
	return false
}

func (h *InteractionHandler) renderView(w http.ResponseWriter, r *http.Request, view service.View) {
	switch view.State {
	case service.StateAwaitingLogin:
		h.Pages.Login(w, r, view)
	case service.StateAwaitingSecondFactor:
		h.Pages.LoginTOTP(w, r, view)
	case service.StateAwaitingConsent:
		h.Pages.Consent(w, r, view)
	case service.StateFinishedLogin, service.StateFinishedConsent:
		http.Redirect(w, r, view.RedirectTo, http.StatusSeeOther)
	default:
		h.Pages.Error(w, r, http.StatusInternalServerError, "Error processing interaction", "")
	}
}
