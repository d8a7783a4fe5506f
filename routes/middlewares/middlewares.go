package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"

	"github.com/TrAlSe1812/survey-gym42/auth"
	"github.com/TrAlSe1812/survey-gym42/httpx"
)

// User is the authenticated caller, as described by its access token.
type User struct {
	Login string
	Name  string
	Admin bool
	Demo  bool
}

// CurrentUser reads the caller from the oauth request context.
func CurrentUser(r *http.Request) (User, bool) {
	login, _ := r.Context().Value(oauth.CredentialContext).(string)
	if login == "" {
		return User{}, false
	}
	claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)
	u := User{Login: login, Name: claims[httpx.ClaimName], Demo: claims[httpx.ClaimDemo] == "true"}
	if u.Name == "" {
		u.Name = login
	}
	for _, role := range strings.Split(claims[httpx.ClaimRoles], ",") {
		if strings.TrimSpace(role) == string(auth.RoleAdmin) {
			u.Admin = true
			break
		}
	}
	return u, true
}

// WithUser puts u into the context the way a validated token would.
func WithUser(ctx context.Context, u User) context.Context {
	roles := string(auth.RoleStudent)
	if u.Admin {
		roles = string(auth.RoleAdmin)
	}
	ctx = context.WithValue(ctx, oauth.CredentialContext, u.Login)
	return context.WithValue(ctx, oauth.ClaimsContext, map[string]string{
		httpx.ClaimRoles: roles,
		httpx.ClaimName:  u.Name,
		httpx.ClaimDemo:  strconv.FormatBool(u.Demo),
	})
}

// Authenticated middleware to require a valid OAuth token.
func Authenticated(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), requireUser).Handler(next)
	}
}

// Admin middleware to check for the 'admin' role in an OAuth token.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), RequireAdmin).Handler(next)
	}
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers whose token lacks the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if !u.Admin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CookieAuth authorizes GET requests from the access_token cookie. An
// expired access token is renewed from the refresh_token cookie; without
// one the browser is sent to the login page.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				h.ServeHTTP(w, r)
				return
			}

			token, err := r.Cookie(httpx.AccessTokenCookie)
			if err != nil && !errors.Is(err, http.ErrNoCookie) {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if err == nil {
				r.Header.Set("authorization", "Bearer "+token.Value)
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, r)
				if buf.Status() != http.StatusUnauthorized {
					buf.Flush(w)
					return
				}
			}

			loginLocation := "/login?goto=" + url.QueryEscape(r.RequestURI)

			refreshToken, err := r.Cookie(httpx.RefreshTokenCookie)
			if err != nil {
				if !errors.Is(err, http.ErrNoCookie) {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				http.Redirect(w, r, loginLocation, http.StatusTemporaryRedirect)
				return
			}

			resp, err := httpx.Grant(r.Context(), bearerServer, url.Values{
				"grant_type":    {"refresh_token"},
				"refresh_token": {refreshToken.Value},
			})
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if resp.Status() == http.StatusUnauthorized {
				httpx.ClearTokenCookies(w)
				http.Redirect(w, r, loginLocation, http.StatusTemporaryRedirect)
				return
			}
			if resp.Status() != http.StatusOK && resp.Status() != 0 {
				http.Error(w, http.StatusText(resp.Status()), resp.Status())
				return
			}

			tr, err := httpx.ParseTokenResponse(resp)
			if err != nil || tr.AccessToken == "" {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			httpx.SetTokenCookies(w, tr)

			r.Header.Set("authorization", "Bearer "+tr.AccessToken)
			h.ServeHTTP(w, r)
		})
	}
}
