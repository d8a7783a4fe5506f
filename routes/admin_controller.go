package routes

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/TrAlSe1812/survey-gym42/app"
	"github.com/TrAlSe1812/survey-gym42/authoring"
	"github.com/TrAlSe1812/survey-gym42/export"
	"github.com/TrAlSe1812/survey-gym42/httpx"
	"github.com/TrAlSe1812/survey-gym42/log"
	"github.com/TrAlSe1812/survey-gym42/model"
	"github.com/TrAlSe1812/survey-gym42/quota"
	"github.com/TrAlSe1812/survey-gym42/routes/middlewares"
	"github.com/TrAlSe1812/survey-gym42/store"
)

type updateSurveyRequest struct {
	Version int `json:"version"`
	authoring.Draft
}

type statusRequest struct {
	IsActive *bool `json:"isActive"`
}

func owner(r *http.Request) authoring.Owner {
	user, _ := middlewares.CurrentUser(r)
	return authoring.Owner{Login: user.Login, Name: user.Name}
}

// surveyError answers with the status matching an authoring or store error.
func surveyError(w http.ResponseWriter, code string, id string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.LogNotFound(w, code, id)
	case errors.Is(err, authoring.ErrNotOwner):
		httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, code+".not_owner")
	case errors.Is(err, authoring.ErrInvalidDraft), errors.Is(err, authoring.ErrBadStatus):
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, code+".invalid", "%s", err)
	case errors.Is(err, store.ErrConflict):
		httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, code+".conflict", "survey %s was changed by someone else", id)
	default:
		httpx.LogInternalError(w, code, err)
	}
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft authoring.Draft
		err := render.DecodeJSON(r.Body, &draft)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		survey, err := app.Authoring.Create(r.Context(), owner(r), draft)
		if err != nil {
			surveyError(w, "survey.create", "", err)
			return
		}

		log.WithFields(log.Fields{"survey": survey.ID, "owner": survey.CreatedBy}).Info("survey.created")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, survey)
	}
}

// ListSurveys lists the caller's surveys, optionally filtered by ?status=active|inactive.
func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.Authoring.List(owner(r), r.URL.Query().Get("status"))
		if err != nil {
			surveyError(w, "survey.list", "", err)
			return
		}
		render.JSON(w, r, surveys)
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		survey, err := app.Authoring.Get(owner(r), id)
		if err != nil {
			surveyError(w, "survey.get", id, err)
			return
		}
		render.JSON(w, r, survey)
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req updateSurveyRequest
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		survey, err := app.Authoring.Update(r.Context(), owner(r), id, req.Version, req.Draft)
		if err != nil {
			surveyError(w, "survey.update", id, err)
			return
		}
		render.JSON(w, r, survey)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := app.Authoring.Delete(r.Context(), owner(r), id); err != nil {
			surveyError(w, "survey.delete", id, err)
			return
		}
		log.WithFields(log.Fields{"survey": id}).Info("survey.deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

// SetSurveyStatus sets isActive from the body, or toggles it when the body
// does not say.
func SetSurveyStatus(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req statusRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		var (
			survey model.Survey
			err    error
		)
		if req.IsActive == nil {
			survey, err = app.Authoring.Toggle(r.Context(), owner(r), id)
		} else {
			survey, err = app.Authoring.SetActive(r.Context(), owner(r), id, *req.IsActive)
		}
		if err != nil {
			surveyError(w, "survey.status", id, err)
			return
		}
		log.WithFields(log.Fields{"survey": id, "active": survey.IsActive}).Info("survey.status")
		render.JSON(w, r, survey)
	}
}

func GetSurveyResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := app.Authoring.Get(owner(r), id); err != nil {
			surveyError(w, "survey.responses", id, err)
			return
		}
		render.JSON(w, r, app.Store.Responses.List(store.ForSurvey(id)))
	}
}

func GetSurveyQuota(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		survey, err := app.Authoring.Get(owner(r), id)
		if err != nil {
			surveyError(w, "survey.quota", id, err)
			return
		}
		render.JSON(w, r, quota.Summarize(survey, app.Store.Responses.List(store.ForSurvey(id))))
	}
}

// ExportSurveyResponses downloads the responses as ?format=csv (default) or
// xlsx. ?timestamps=true adds submission times, ?questions=true adds the
// question text to the headers.
func ExportSurveyResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		survey, err := app.Authoring.Get(owner(r), id)
		if err != nil {
			surveyError(w, "survey.export", id, err)
			return
		}

		query := r.URL.Query()
		timestamps, _ := strconv.ParseBool(query.Get("timestamps"))
		questions, _ := strconv.ParseBool(query.Get("questions"))
		opts := export.Options{Timestamps: timestamps, QuestionText: questions}
		responses := app.Store.Responses.List(store.ForSurvey(id))

		var (
			buf         bytes.Buffer
			ext         string
			contentType string
		)
		switch query.Get("format") {
		case "", "csv":
			ext, contentType = "csv", "text/csv; charset=utf-8"
			err = export.WriteCSV(&buf, survey, responses, opts)
		case "xlsx":
			ext, contentType = "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
			err = export.WriteXLSX(&buf, survey, responses, opts)
		default:
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "survey.export.format", "unknown format %q", query.Get("format"))
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "survey.export."+ext, err)
			return
		}

		name := export.FileName(survey, ext, time.Now())
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name)))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		buf.WriteTo(w)
	}
}

func GetStats(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, app.Store.Stats(owner(r).Login))
	}
}
