package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/ssop/internal/ssop/provider"
	"github.com/aussiebroadwan/ssop/internal/ssop/service"
	"github.com/aussiebroadwan/ssop/pkg/slogx"
)

// AuthorizeHandler serves the authorization endpoint and the resume step
// the browser returns to after every interaction.
type AuthorizeHandler struct {
	Provider *provider.Provider
	Pages    *Pages
	cookie   sessionCookie
	binding  interactionCookie
}

// HandleAuthorize godoc
//
//	@Summary		Authorization Endpoint
//	@Description	Starts an authorization code flow. Redirects to the login or consent page, or straight back to the client with a code.
//	@Tags			OIDC
//	@Param			client_id		query	string	true	"Client identifier"
//	@Param			redirect_uri	query	string	true	"Registered redirect URI"
//	@Param			response_type	query	string	true	"Must be code"
//	@Param			scope			query	string	false	"Space-delimited scopes (openid profile email roles)"
//	@Param			state			query	string	false	"Opaque value echoed back to the client"
//	@Param			nonce			query	string	false	"Echoed in the ID token"
//	@Param			prompt			query	string	false	"login or none"
//	@Success		302
//	@Failure		400	{string}	string	"HTML error page"
//	@Router			/auth [get].
func (h *AuthorizeHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := provider.AuthorizationRequest{
		ClientID:     q.Get("client_id"),
		RedirectURI:  q.Get("redirect_uri"),
		ResponseType: q.Get("response_type"),
		Scope:        q.Get("scope"),
		State:        q.Get("state"),
		Nonce:        q.Get("nonce"),
		Prompt:       q.Get("prompt"),
	}

	res, err := h.Provider.Authorize(r.Context(), req, h.cookie.get(r))
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrUnknownClient), errors.Is(err, provider.ErrInvalidRedirectURI):
			h.Pages.Error(w, r, http.StatusBadRequest, "Invalid authorization request", err.Error())
		default:
			slogx.FromContext(r.Context()).Error("authorize", "client_id", req.ClientID, "err", err)
			h.Pages.Error(w, r, http.StatusInternalServerError, "", "")
		}
		return
	}

	h.redirect(w, r, res)
}

// HandleResume serves GET /auth/{uid}.
func (h *AuthorizeHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")

	res, err := h.Provider.Resume(r.Context(), uid, h.binding.get(r), h.cookie.get(r))
	if err != nil {
		log := slogx.FromContext(r.Context())
		if errors.Is(err, service.ErrInteractionNotFound) {
			log.Warn("resume unknown interaction", "uid", uid)
		} else {
			log.Error("resume interaction", "uid", uid, "err", err)
		}
		h.Pages.Error(w, r, http.StatusInternalServerError, "Error processing interaction", "")
		return
	}

	if res.RedirectTo != "/interaction/"+uid {
		h.binding.clear(w, uid)
	}
	h.redirect(w, r, res)
}

func (h *AuthorizeHandler) redirect(w http.ResponseWriter, r *http.Request, res provider.Result) {
	if res.SessionID != "" {
		h.cookie.set(w, res.SessionID)
	}
	if res.Binding != "" {
		h.binding.set(w, res.Interaction, res.Binding)
	}
	http.Redirect(w, r, res.RedirectTo, http.StatusFound)
}
