package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aussiebroadwan/ssop/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		build  func() *http.Request
		want   string
		wantOK bool
	}{
		{
			name: "authorization header",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/me", nil)
				r.Header.Set("Authorization", "Bearer abc.def")
				return r
			},
			want: "abc.def", wantOK: true,
		},
		{
			name: "case insensitive scheme",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/me", nil)
				r.Header.Set("Authorization", "bearer abc")
				return r
			},
			want: "abc", wantOK: true,
		},
		{
			name: "basic scheme rejected",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/me", nil)
				r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
				return r
			},
		},
		{
			name: "form body on POST",
			build: func() *http.Request {
				body := url.Values{"access_token": {"xyz"}}.Encode()
				r := httptest.NewRequest(http.MethodPost, "/me", strings.NewReader(body))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			},
			want: "xyz", wantOK: true,
		},
		{
			name:  "missing",
			build: func() *http.Request { return httptest.NewRequest(http.MethodGet, "/me", nil) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := httpx.BearerToken(tt.build())
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestWriteBearerError(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteBearerError(rec, "token expired")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"error":"invalid_token","error_description":"token expired"}`, rec.Body.String())
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("outer"), mw("inner"), httpx.SecurityHeaders)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner"}, order)
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestParseSpaceDelimitedFields(t *testing.T) {
	require.Nil(t, httpx.ParseSpaceDelimitedFields("   "))
	require.Equal(t, []string{"openid", "profile"}, httpx.ParseSpaceDelimitedFields(" openid  profile "))
}
