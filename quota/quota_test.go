package quota

import (
	"testing"

	"github.com/TrAlSe1812/survey-gym42/model"
)

func response(surveyID string, answers ...model.Answer) model.Response {
	return model.Response{SurveyID: surveyID, Answers: answers}
}

func answer(questionID string, v model.AnswerValue) model.Answer {
	return model.Answer{QuestionID: questionID, Value: v}
}

func TestCountMixesScalarAndSetAnswers(t *testing.T) {
	responses := []model.Response{
		response("s1", answer("q1", model.Scalar("A"))),
		response("s1", answer("q1", model.Multi("A", "B"))),
		response("s1", answer("q1", model.Multi("B"))),
		response("s1", answer("q2", model.Scalar("A"))),
		response("s2", answer("q1", model.Scalar("A"))),
		response("s1"),
	}

	cases := []struct {
		question, option string
		want             int
	}{
		{"q1", "A", 2},
		{"q1", "B", 2},
		{"q1", "C", 0},
		{"q2", "A", 1},
		{"q3", "A", 0},
	}
	for _, c := range cases {
		if got := Count(responses, "s1", c.question, c.option); got != c.want {
			t.Errorf("Count(s1, %s, %s) = %d, want %d", c.question, c.option, got, c.want)
		}
	}
}

func TestCountEmpty(t *testing.T) {
	if got := Count(nil, "s1", "q1", "A"); got != 0 {
		t.Errorf("Count on no responses = %d", got)
	}
}

func TestIsExhausted(t *testing.T) {
	disappearing := model.Question{DisappearingOptions: true}
	plain := model.Question{}
	one := model.Option{Text: "A", MaxSelections: model.Limit(1)}
	unbounded := model.Option{Text: "A"}

	if IsExhausted(disappearing, one, 0) {
		t.Error("fresh option should be available")
	}
	if !IsExhausted(disappearing, one, 1) {
		t.Error("option selected once should be exhausted")
	}
	if !IsExhausted(disappearing, one, 3) {
		t.Error("over-selected option should be exhausted")
	}
	if IsExhausted(plain, one, 5) {
		t.Error("options of a non-disappearing question never run out")
	}
	if IsExhausted(disappearing, unbounded, 100) {
		t.Error("unbounded option never runs out")
	}
}

func TestRemaining(t *testing.T) {
	n, ok := Remaining(model.Option{MaxSelections: model.Limit(1)}, 0)
	if !ok || n != 1 {
		t.Errorf("Remaining = %d, %v; want 1, true", n, ok)
	}
	n, ok = Remaining(model.Option{MaxSelections: model.Limit(1)}, 4)
	if !ok || n != 0 {
		t.Errorf("Remaining = %d, %v; want 0, true", n, ok)
	}
	if _, ok = Remaining(model.Option{}, 4); ok {
		t.Error("unbounded option reported as bounded")
	}
}

func TestSummarize(t *testing.T) {
	s := model.Survey{
		ID: "s1",
		Questions: []model.Question{
			{ID: "q1", Type: model.QuestionText},
			{
				ID: "q2", Type: model.QuestionSingle, DisappearingOptions: true,
				Options: []model.Option{
					{Text: "A", MaxSelections: model.Limit(1)},
					{Text: "B", MaxSelections: model.Limit(1)},
				},
			},
			{
				ID: "q3", Type: model.QuestionMultiple,
				Options: []model.Option{{Text: "X"}},
			},
		},
	}
	responses := []model.Response{
		response("s1", answer("q2", model.Scalar("A")), answer("q3", model.Multi("X"))),
	}

	sum := Summarize(s, responses)
	if len(sum) != 2 {
		t.Fatalf("got %d questions, want 2 (text questions skipped)", len(sum))
	}
	a, b := sum[0].Options[0], sum[0].Options[1]
	if !a.Exhausted || a.Selected != 1 || a.Remaining == nil || *a.Remaining != 0 {
		t.Errorf("A = %+v", a)
	}
	if b.Exhausted || b.Remaining == nil || *b.Remaining != 1 {
		t.Errorf("B = %+v", b)
	}
	x := sum[1].Options[0]
	if x.Exhausted || x.Remaining != nil || x.Selected != 1 {
		t.Errorf("X = %+v", x)
	}
}
