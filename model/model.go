package model

import "time"

type QuestionType string

const (
	QuestionText     QuestionType = "text"
	QuestionSingle   QuestionType = "radio"
	QuestionMultiple QuestionType = "checkbox"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionSingle, QuestionMultiple:
		return true
	}
	return false
}

type Survey struct {
	ID            string     `json:"id"`
	Version       int        `json:"version"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	CreatedBy     string     `json:"createdBy"`
	CreatedByName string     `json:"createdByFullName,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	IsActive      bool       `json:"isActive"`
	Questions     []Question `json:"questions"`
}

// Question returns the question with the given id.
func (s Survey) Question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

type Question struct {
	ID                  string       `json:"id"`
	Text                string       `json:"text"`
	Type                QuestionType `json:"type"`
	DisappearingOptions bool         `json:"disappearingOptions"`
	Options             []Option     `json:"options"`
}

func (q Question) IsChoice() bool {
	return q.Type == QuestionSingle || q.Type == QuestionMultiple
}

// Option finds an option by its label. Labels are the only option key
// answers carry, so the first match wins.
func (q Question) Option(text string) (Option, bool) {
	for _, o := range q.Options {
		if o.Text == text {
			return o, true
		}
	}
	return Option{}, false
}

type Option struct {
	Text string `json:"text"`
	// MaxSelections is nil when the option can be chosen any number of times.
	MaxSelections *int `json:"maxSelections"`
}

func (o Option) Bounded() bool {
	return o.MaxSelections != nil
}

// Limit returns a quota of n selections.
func Limit(n int) *int {
	return &n
}

type Response struct {
	ID          string    `json:"id"`
	SurveyID    string    `json:"surveyId"`
	Student     string    `json:"student"`
	StudentName string    `json:"studentName"`
	Answers     []Answer  `json:"answers"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Answer returns the answer given to a question, if any.
func (r Response) Answer(questionID string) (Answer, bool) {
	for _, a := range r.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

type Answer struct {
	QuestionID string      `json:"questionId"`
	Value      AnswerValue `json:"value"`
}
