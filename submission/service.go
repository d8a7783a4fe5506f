package submission

import (
	"context"
	"errors"

	"github.com/TrAlSe1812/survey-gym42/log"
	"github.com/TrAlSe1812/survey-gym42/model"
	"github.com/TrAlSe1812/survey-gym42/store"
)

// Service records validated responses. Submissions to the same survey are
// serialized so two respondents cannot both take the last selection of a
// disappearing option.
type Service struct {
	store     *store.Store
	validator *Validator
}

func NewService(st *store.Store, v *Validator) *Service {
	if v == nil {
		v = NewValidator()
	}
	return &Service{
		store:     st,
		validator: v,
	}
}

// Submit validates the answers and appends the response. Rejections are
// returned as *Rejection; any other error comes from the store.
func (s *Service) Submit(ctx context.Context, surveyID string, answers Answers, who Respondent) (model.Response, error) {
	unlock := s.store.Locks.Lock(surveyID)
	defer unlock()

	survey, err := s.store.Surveys.Get(surveyID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Response{}, &Rejection{Kind: SurveyNotFound, SurveyID: surveyID}
	}
	if err != nil {
		return model.Response{}, err
	}
	if !survey.IsActive {
		return model.Response{}, &Rejection{Kind: SurveyInactive, SurveyID: surveyID}
	}

	prior := s.store.Responses.List(store.ForSurvey(surveyID))
	for _, r := range prior {
		if r.Student == who.Login {
			return model.Response{}, &Rejection{Kind: AlreadySubmitted, SurveyID: surveyID}
		}
	}

	resp, err := s.validator.Build(survey, answers, prior, who)
	if err != nil {
		return model.Response{}, err
	}
	if err := s.store.Responses.Append(ctx, resp); err != nil {
		return model.Response{}, err
	}

	log.WithFields(log.Fields{
		"survey":   surveyID,
		"response": resp.ID,
		"student":  who.Login,
	}).Debug("submission.accepted")
	return resp, nil
}

// HasResponded reports whether the student already answered the survey.
func (s *Service) HasResponded(surveyID, login string) bool {
	return s.store.Responses.Count(store.ForSurvey(surveyID), store.ByStudent(login)) > 0
}
