package submission

import (
	"fmt"
	"strings"
)

type Kind string

const (
	MissingRequiredAnswer Kind = "missing_required_answer"
	OptionExhausted       Kind = "option_exhausted"
	InvalidAnswer         Kind = "invalid_answer"
	SurveyNotFound        Kind = "survey_not_found"
	QuestionNotFound      Kind = "question_not_found"
	SurveyInactive        Kind = "survey_inactive"
	AlreadySubmitted      Kind = "already_submitted"
)

// Rejection explains why a submission was refused. Nothing is stored for a
// rejected submission; the respondent has to change the answers and retry.
type Rejection struct {
	Kind       Kind     `json:"kind"`
	SurveyID   string   `json:"surveyId,omitempty"`
	QuestionID string   `json:"questionId,omitempty"`
	Options    []string `json:"options,omitempty"`
}

func (r *Rejection) Error() string {
	var b strings.Builder
	b.WriteString(string(r.Kind))
	if r.SurveyID != "" {
		fmt.Fprintf(&b, " survey=%s", r.SurveyID)
	}
	if r.QuestionID != "" {
		fmt.Fprintf(&b, " question=%s", r.QuestionID)
	}
	if len(r.Options) > 0 {
		fmt.Fprintf(&b, " options=%q", r.Options)
	}
	return b.String()
}

func missing(questionID string) *Rejection {
	return &Rejection{Kind: MissingRequiredAnswer, QuestionID: questionID}
}

func exhausted(questionID string, options ...string) *Rejection {
	return &Rejection{Kind: OptionExhausted, QuestionID: questionID, Options: options}
}

func invalid(questionID string, options ...string) *Rejection {
	return &Rejection{Kind: InvalidAnswer, QuestionID: questionID, Options: options}
}
