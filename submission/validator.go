// Package submission checks a respondent's answers against a survey and
// the quota of its disappearing options before recording a response.
package submission

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TrAlSe1812/survey-gym42/model"
	"github.com/TrAlSe1812/survey-gym42/quota"
)

// Answers maps question ids to the raw submitted values.
type Answers map[string]model.AnswerValue

type Respondent struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}

type Validator struct {
	NewID func() string
	Now   func() time.Time
}

func NewValidator() *Validator {
	return &Validator{
		NewID: uuid.NewString,
		Now:   time.Now,
	}
}

// Build validates every question of the survey, in order, and returns the
// response that would be stored. The first failing question decides the
// returned *Rejection. responses is the snapshot quotas are counted on.
func (v *Validator) Build(s model.Survey, answers Answers, responses []model.Response, who Respondent) (model.Response, error) {
	if id, ok := unknownQuestion(s, answers); ok {
		return model.Response{}, &Rejection{Kind: QuestionNotFound, SurveyID: s.ID, QuestionID: id}
	}

	validated := make([]model.Answer, 0, len(s.Questions))
	for _, q := range s.Questions {
		value, err := check(s.ID, q, answers[q.ID], responses)
		if err != nil {
			err.SurveyID = s.ID
			return model.Response{}, err
		}
		validated = append(validated, model.Answer{QuestionID: q.ID, Value: value})
	}

	return model.Response{
		ID:          v.NewID(),
		SurveyID:    s.ID,
		Student:     who.Login,
		StudentName: who.Name,
		Answers:     validated,
		SubmittedAt: v.Now(),
	}, nil
}

func unknownQuestion(s model.Survey, answers Answers) (string, bool) {
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, ok := s.Question(id); !ok {
			return id, true
		}
	}
	return "", false
}

func check(surveyID string, q model.Question, value model.AnswerValue, responses []model.Response) (model.AnswerValue, *Rejection) {
	switch q.Type {
	case model.QuestionSingle:
		return checkSingle(surveyID, q, value, responses)
	case model.QuestionMultiple:
		return checkMultiple(surveyID, q, value, responses)
	default:
		return checkText(q, value)
	}
}

func checkText(q model.Question, value model.AnswerValue) (model.AnswerValue, *Rejection) {
	if value.IsMulti() {
		return value, invalid(q.ID)
	}
	if strings.TrimSpace(value.Text()) == "" {
		return value, missing(q.ID)
	}
	return value, nil
}

func checkSingle(surveyID string, q model.Question, value model.AnswerValue, responses []model.Response) (model.AnswerValue, *Rejection) {
	if value.IsMulti() {
		if len(value.Values()) == 0 {
			return value, missing(q.ID)
		}
		return value, invalid(q.ID, value.Values()...)
	}
	text := value.Text()
	if strings.TrimSpace(text) == "" {
		return value, missing(q.ID)
	}
	opt, ok := q.Option(text)
	if !ok {
		return value, invalid(q.ID, text)
	}
	if quota.IsExhausted(q, opt, quota.Count(responses, surveyID, q.ID, text)) {
		return value, exhausted(q.ID, text)
	}
	return value, nil
}

func checkMultiple(surveyID string, q model.Question, value model.AnswerValue, responses []model.Response) (model.AnswerValue, *Rejection) {
	selected := value.Values()

	var unknown, gone []string
	for _, text := range selected {
		opt, ok := q.Option(text)
		if !ok {
			unknown = append(unknown, text)
			continue
		}
		if quota.IsExhausted(q, opt, quota.Count(responses, surveyID, q.ID, text)) {
			gone = append(gone, text)
		}
	}
	if len(unknown) > 0 {
		return value, invalid(q.ID, unknown...)
	}
	if len(gone) > 0 {
		return value, exhausted(q.ID, gone...)
	}
	return model.Multi(selected...), nil
}
