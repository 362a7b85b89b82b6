package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/internal/ssop/provider"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

// HomeHandler serves the first-party pages: the dashboard, logout, RP
// initiated logout and the error page.
type HomeHandler struct {
	Provider *provider.Provider
	Pages    *Pages
	cookie   sessionCookie
}

// HandleHome shows the dashboard of the logged-in user, or starts a login
// through the first-party client.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	user, ok, err := h.Provider.CurrentUser(r.Context(), h.cookie.get(r))
	if err != nil {
		slogx.FromContext(r.Context()).Error("load current user", "err", err)
		h.Pages.Error(w, r, http.StatusInternalServerError, "Failed to load home page", "")
		return
	}
	if ok {
		h.Pages.Dashboard(w, r, user)
		return
	}

	http.Redirect(w, r, h.loginURL(), http.StatusFound)
}

func (h *HomeHandler) loginURL() string {
	q := url.Values{
		"client_id":     {domain.InternalClientID},
		"redirect_uri":  {h.Provider.Issuer() + "/"},
		"response_type": {"code"},
		"scope":         {"openid profile email roles"},
		"state":         {"home-login"},
	}
	return "/auth?" + q.Encode()
}

// HandleLogout serves POST /logout. It always ends on the home page.
func (h *HomeHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Provider.Logout(r.Context(), h.cookie.get(r)); err != nil {
		slogx.FromContext(r.Context()).Error("logout", "err", err)
	}
	h.cookie.clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleEndSession godoc
//
//	@Summary		End Session Endpoint
//	@Description	RP-initiated logout. Destroys the browser session and redirects to post_logout_redirect_uri when an id_token_hint names a client that registered it.
//	@Tags			OIDC
//	@Param			id_token_hint				query	string	false	"ID token previously issued to the client"
//	@Param			post_logout_redirect_uri	query	string	false	"Registered redirect URI of the client"
//	@Param			state						query	string	false	"Echoed back on the redirect"
//	@Success		302
//	@Failure		400	{string}	string	"HTML error page"
//	@Router			/session/end [get].
func (h *HomeHandler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to, err := h.Provider.EndSession(r.Context(), h.cookie.get(r), provider.EndSessionRequest{
		IDTokenHint:           q.Get("id_token_hint"),
		PostLogoutRedirectURI: q.Get("post_logout_redirect_uri"),
		State:                 q.Get("state"),
	})
	h.cookie.clear(w)

	if err != nil {
		switch {
		case errors.Is(err, provider.ErrInvalidRequest),
			errors.Is(err, provider.ErrInvalidRedirectURI),
			errors.Is(err, provider.ErrUnknownClient):
			h.Pages.Error(w, r, http.StatusBadRequest, "Invalid logout request", err.Error())
		default:
			slogx.FromContext(r.Context()).Error("end session", "err", err)
			h.Pages.Error(w, r, http.StatusInternalServerError, "", "")
		}
		return
	}

	http.Redirect(w, r, to, http.StatusFound)
}

// HandleError serves GET /error.
func (h *HomeHandler) HandleError(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.Pages.Error(w, r, http.StatusOK, q.Get("message"), q.Get("details"))
}
