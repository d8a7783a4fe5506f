package routes

import (
	"errors"
	"net/http"
	"net/url"
	"regexp"

	"github.com/go-chi/render"

	"github.com/TrAlSe1812/survey-gym42/app"
	"github.com/TrAlSe1812/survey-gym42/auth"
	"github.com/TrAlSe1812/survey-gym42/httpx"
	"github.com/TrAlSe1812/survey-gym42/log"
	"github.com/TrAlSe1812/survey-gym42/routes/middlewares"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login exchanges basic auth credentials for a token pair. The tokens are
// also set as cookies for the admin pages.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		resp, err := httpx.Grant(r.Context(), app.BearerServer, url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		})
		if err != nil {
			httpx.LogInternalError(w, "login.new_request", err)
			return
		}
		withCookies(w, resp)
		resp.Flush(w)
	}
}

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		resp, err := httpx.Grant(r.Context(), app.BearerServer, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		})
		if err != nil {
			httpx.LogInternalError(w, "refresh.new_request", err)
			return
		}
		withCookies(w, resp)
		resp.Flush(w)
	}
}

func withCookies(w http.ResponseWriter, resp httpx.ResponseBuffer) {
	if resp.Status() != http.StatusOK && resp.Status() != 0 {
		return
	}
	tr, err := httpx.ParseTokenResponse(resp)
	if err != nil || tr.AccessToken == "" {
		return
	}
	httpx.SetTokenCookies(w, tr)
}

// Logout revokes the caller's refresh tokens and clears the cookies.
func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middlewares.CurrentUser(r)
		if err := app.Tokens.Revoke(r.Context(), user.Login); err != nil {
			httpx.LogInternalError(w, "db.revoke_tokens", err)
			return
		}
		httpx.ClearTokenCookies(w)
		log.WithFields(log.Fields{"login": user.Login}).Info("logout.ok")
		w.WriteHeader(http.StatusNoContent)
	}
}

func Me(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middlewares.CurrentUser(r)
		profile, err := app.Users.Profile(r.Context(), user.Login)
		if errors.Is(err, auth.ErrUnknownUser) {
			profile = auth.Identity{Login: user.Login, FullName: user.Name, Role: auth.RoleStudent, Demo: user.Demo}
			if user.Admin {
				profile.Role = auth.RoleAdmin
			}
			err = nil
		}
		if err != nil {
			httpx.LogInternalError(w, "db.select_profile", err)
			return
		}
		render.JSON(w, r, profile)
	}
}
