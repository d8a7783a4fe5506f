// Package quota counts how often answer options have been chosen and
// decides whether a disappearing option is still available.
package quota

import "github.com/TrAlSe1812/survey-gym42/model"

// Count returns how many responses to the survey selected optionText for
// the given question. Responses to other surveys are ignored, so the full
// response list can be passed.
func Count(responses []model.Response, surveyID, questionID, optionText string) int {
	n := 0
	for _, r := range responses {
		if r.SurveyID != surveyID {
			continue
		}
		a, ok := r.Answer(questionID)
		if !ok {
			continue
		}
		if a.Value.Selects(optionText) {
			n++
		}
	}
	return n
}

// IsExhausted reports whether an option of a disappearing question has
// used up its quota. Options of ordinary questions never run out.
func IsExhausted(q model.Question, o model.Option, count int) bool {
	return q.DisappearingOptions && o.Bounded() && count >= *o.MaxSelections
}

// Remaining returns the selections still available for an option.
// bounded is false for options without a quota.
func Remaining(o model.Option, count int) (n int, bounded bool) {
	if !o.Bounded() {
		return 0, false
	}
	n = *o.MaxSelections - count
	if n < 0 {
		n = 0
	}
	return n, true
}

type OptionQuota struct {
	Text          string `json:"text"`
	Selected      int    `json:"selected"`
	MaxSelections *int   `json:"maxSelections"`
	Remaining     *int   `json:"remaining"`
	Exhausted     bool   `json:"exhausted"`
}

type QuestionQuota struct {
	QuestionID          string        `json:"questionId"`
	DisappearingOptions bool          `json:"disappearingOptions"`
	Options             []OptionQuota `json:"options"`
}

// Summarize computes the availability of every option of every choice
// question in the survey.
func Summarize(s model.Survey, responses []model.Response) []QuestionQuota {
	out := []QuestionQuota{}
	for _, q := range s.Questions {
		if !q.IsChoice() {
			continue
		}
		qq := QuestionQuota{
			QuestionID:          q.ID,
			DisappearingOptions: q.DisappearingOptions,
			Options:             make([]OptionQuota, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			count := Count(responses, s.ID, q.ID, o.Text)
			oq := OptionQuota{
				Text:          o.Text,
				Selected:      count,
				MaxSelections: o.MaxSelections,
				Exhausted:     IsExhausted(q, o, count),
			}
			if n, ok := Remaining(o, count); ok {
				oq.Remaining = &n
			}
			qq.Options = append(qq.Options, oq)
		}
		out = append(out, qq)
	}
	return out
}
