package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/TrAlSe1812/survey-gym42/app"
	"github.com/TrAlSe1812/survey-gym42/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	if len(app.CORSOrigins) > 0 {
		root.Use(cors.Handler(cors.Options{
			AllowedOrigins:   app.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.TokenSecret)).
		Mount("/admin", servePrivateFiles("/admin", app.PrivateDir))
	root.Mount("/", servePublicFiles(app.PublicDir))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	api.Use(render.SetContentType(render.ContentTypeJSON))

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticated(app.TokenSecret))
		surveyRoutes(r, app)
	})

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))
		adminRoutes(r, app)
	})

	return api
}

// surveyRoutes serve any logged in user. Callers add authentication.
func surveyRoutes(r chi.Router, app app.App) {
	r.Delete("/login", Logout(app))
	r.Get("/me", Me(app))

	r.Get("/surveys", ListOpenSurveys(app))
	r.Get("/surveys/{id}", GetOpenSurvey(app))
	r.Post("/surveys/{id}/responses", SubmitResponse(app))
}

// adminRoutes serve administrators. Callers add authorization.
func adminRoutes(r chi.Router, app app.App) {
	// CRUD survey
	r.Post("/surveys", CreateSurvey(app))
	r.Get("/surveys", ListSurveys(app))
	r.Get("/surveys/{id}", GetSurveyById(app))
	r.Put("/surveys/{id}", UpdateSurvey(app))
	r.Delete("/surveys/{id}", DeleteSurvey(app))
	r.Post("/surveys/{id}/status", SetSurveyStatus(app))

	r.Get("/surveys/{id}/responses", GetSurveyResponses(app))
	r.Get("/surveys/{id}/quota", GetSurveyQuota(app))
	r.Get("/surveys/{id}/export", ExportSurveyResponses(app))
	r.Get("/stats", GetStats(app))
}

func servePublicFiles(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}

func servePrivateFiles(path, dir string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir(dir)))
}
