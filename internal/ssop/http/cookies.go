package http

import (
	"net/http"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
)

// SessionCookieName holds the browser session id.
const SessionCookieName = "_session"

type sessionCookie struct {
	secure bool
}

func (c sessionCookie) get(r *http.Request) string {
	ck, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (c sessionCookie) set(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(domain.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c sessionCookie) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// InteractionCookieName holds the value binding an interaction to the
// browser that started it. One cookie is set per interaction path.
const InteractionCookieName = "_interaction"

type interactionCookie struct {
	secure bool
}

func interactionPaths(uid string) []string {
	return []string{"/interaction/" + uid, "/auth/" + uid}
}

func (c interactionCookie) get(r *http.Request) string {
	ck, err := r.Cookie(InteractionCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (c interactionCookie) set(w http.ResponseWriter, uid, binding string) {
	for _, path := range interactionPaths(uid) {
		http.SetCookie(w, &http.Cookie{
			Name:     InteractionCookieName,
			Value:    binding,
			Path:     path,
			MaxAge:   int(domain.InteractionTTL.Seconds()),
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (c interactionCookie) clear(w http.ResponseWriter, uid string) {
	for _, path := range interactionPaths(uid) {
		http.SetCookie(w, &http.Cookie{
			Name:     InteractionCookieName,
			Value:    "",
			Path:     path,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
