package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/TrAlSe1812/survey-gym42/app"
	"github.com/TrAlSe1812/survey-gym42/httpx"
	"github.com/TrAlSe1812/survey-gym42/log"
	"github.com/TrAlSe1812/survey-gym42/model"
	"github.com/TrAlSe1812/survey-gym42/quota"
	"github.com/TrAlSe1812/survey-gym42/routes/middlewares"
	"github.com/TrAlSe1812/survey-gym42/store"
	"github.com/TrAlSe1812/survey-gym42/submission"
)

type openSurveySummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CreatedByName string    `json:"createdByFullName"`
	CreatedAt     time.Time `json:"createdAt"`
	QuestionCount int       `json:"questionCount"`
	ResponseCount int       `json:"responseCount"`
	Answered      bool      `json:"answered"`
}

type openOption struct {
	Text      string `json:"text"`
	Available bool   `json:"available"`
	Remaining *int   `json:"remaining,omitempty"`
}

type openQuestion struct {
	ID                  string             `json:"id"`
	Text                string             `json:"text"`
	Type                model.QuestionType `json:"type"`
	DisappearingOptions bool               `json:"disappearingOptions"`
	Options             []openOption       `json:"options,omitempty"`
}

type openSurvey struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	CreatedByName string         `json:"createdByFullName"`
	Questions     []openQuestion `json:"questions"`
	Submitted     bool           `json:"submitted"`
}

type submitRequest struct {
	Answers submission.Answers `json:"answers"`
}

// ListOpenSurveys lists the active surveys a student can answer.
func ListOpenSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middlewares.CurrentUser(r)

		surveys := app.Store.Surveys.List(store.ByActive(true))
		out := make([]openSurveySummary, len(surveys))
		for i, s := range surveys {
			out[i] = openSurveySummary{
				ID:            s.ID,
				Title:         s.Title,
				Description:   s.Description,
				CreatedByName: authorName(s),
				CreatedAt:     s.CreatedAt,
				QuestionCount: len(s.Questions),
				ResponseCount: app.Store.Responses.Count(store.ForSurvey(s.ID)),
				Answered:      app.Submissions.HasResponded(s.ID, user.Login),
			}
		}
		render.JSON(w, r, out)
	}
}

// GetOpenSurvey returns an active survey with the current availability of
// every option.
func GetOpenSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		user, _ := middlewares.CurrentUser(r)

		s, err := app.Store.Surveys.Get(id)
		if err != nil || !s.IsActive {
			httpx.LogNotFound(w, "survey.open", id)
			return
		}

		render.JSON(w, r, openSurvey{
			ID:            s.ID,
			Title:         s.Title,
			Description:   s.Description,
			CreatedByName: authorName(s),
			Questions:     openQuestions(s, app.Store.Responses.List(store.ForSurvey(s.ID))),
			Submitted:     app.Submissions.HasResponded(s.ID, user.Login),
		})
	}
}

func openQuestions(s model.Survey, responses []model.Response) []openQuestion {
	summary := map[string]quota.QuestionQuota{}
	for _, qq := range quota.Summarize(s, responses) {
		summary[qq.QuestionID] = qq
	}

	out := make([]openQuestion, len(s.Questions))
	for i, q := range s.Questions {
		oq := openQuestion{ID: q.ID, Text: q.Text, Type: q.Type, DisappearingOptions: q.DisappearingOptions}
		for _, o := range summary[q.ID].Options {
			oq.Options = append(oq.Options, openOption{Text: o.Text, Available: !o.Exhausted, Remaining: o.Remaining})
		}
		out[i] = oq
	}
	return out
}

func SubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		user, _ := middlewares.CurrentUser(r)

		var body submitRequest
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "malformed answers: %s", err)
			return
		}

		resp, err := app.Submissions.Submit(r.Context(), id, body.Answers, submission.Respondent{Login: user.Login, Name: user.Name})
		if err != nil {
			httpx.LogRejection(w, r, "submission.rejected", err)
			return
		}

		log.WithFields(log.Fields{"survey": id, "student": user.Login}).Info("submission.saved")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, resp)
	}
}

func authorName(s model.Survey) string {
	if s.CreatedByName != "" {
		return s.CreatedByName
	}
	return s.CreatedBy
}
