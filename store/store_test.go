package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TrAlSe1812/survey-gym42/model"
	"github.com/TrAlSe1812/survey-gym42/quota"
)

func testSurvey(id, owner string, active bool) model.Survey {
	return model.Survey{
		ID:        id,
		Title:     "Survey " + id,
		CreatedBy: owner,
		CreatedAt: time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC),
		IsActive:  active,
		Questions: []model.Question{{
			ID: "q1", Text: "Pick", Type: model.QuestionSingle, DisappearingOptions: true,
			Options: []model.Option{{Text: "A", MaxSelections: model.Limit(1)}},
		}},
	}
}

func testResponse(id, surveyID, student string) model.Response {
	return model.Response{
		ID: id, SurveyID: surveyID, Student: student, StudentName: student,
		Answers: []model.Answer{{QuestionID: "q1", Value: model.Scalar("A")}},
	}
}

func TestSurveyCRUD(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	if err := st.Surveys.Insert(ctx, testSurvey("s1", "admin", true)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.Surveys.Insert(ctx, testSurvey("s2", "admin", false)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.Surveys.Insert(ctx, testSurvey("s3", "other", true)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.Surveys.Insert(ctx, testSurvey("s1", "admin", true)); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate insert err = %v", err)
	}

	if got := st.Surveys.List(ByOwner("admin")); len(got) != 2 || got[0].ID != "s1" || got[1].ID != "s2" {
		t.Errorf("ByOwner(admin) = %v", ids(got))
	}
	if got := st.Surveys.List(ByActive(true)); len(got) != 2 || got[0].ID != "s1" || got[1].ID != "s3" {
		t.Errorf("ByActive(true) = %v", ids(got))
	}
	if got := st.Surveys.List(ByOwner("admin"), ByActive(false)); len(got) != 1 || got[0].ID != "s2" {
		t.Errorf("admin inactive = %v", ids(got))
	}

	s, err := st.Surveys.Get("s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	s.Title = "Renamed"
	updated, err := st.Surveys.Replace(ctx, s)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if updated.Version != 1 {
		t.Errorf("version = %d, want 1", updated.Version)
	}
	if _, err := st.Surveys.Replace(ctx, s); !errors.Is(err, ErrConflict) {
		t.Errorf("stale replace err = %v, want ErrConflict", err)
	}

	if _, err := st.Surveys.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing err = %v", err)
	}
	if err := st.Surveys.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing err = %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	if err := st.Surveys.Insert(ctx, testSurvey("s1", "admin", true)); err != nil {
		t.Fatal(err)
	}
	s, _ := st.Surveys.Get("s1")
	s.Questions[0].Options[0].Text = "changed"

	again, _ := st.Surveys.Get("s1")
	if again.Questions[0].Options[0].Text != "A" {
		t.Error("mutating a returned survey leaked into the store")
	}
}

func TestDeleteCascadesResponses(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	for _, id := range []string{"s1", "s2"} {
		if err := st.Surveys.Insert(ctx, testSurvey(id, "admin", true)); err != nil {
			t.Fatal(err)
		}
	}
	for _, r := range []model.Response{
		testResponse("r1", "s1", "ann"),
		testResponse("r2", "s2", "ann"),
		testResponse("r3", "s1", "bob"),
	} {
		if err := st.Responses.Append(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	if n := quota.Count(st.Responses.List(), "s1", "q1", "A"); n != 2 {
		t.Fatalf("count before delete = %d", n)
	}

	if err := st.Surveys.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got := st.Responses.List(ForSurvey("s1")); len(got) != 0 {
		t.Errorf("responses of deleted survey remain: %d", len(got))
	}
	if got := st.Responses.List(ByStudent("ann")); len(got) != 1 || got[0].ID != "r2" {
		t.Errorf("ann responses = %+v", got)
	}
	if n := quota.Count(st.Responses.List(), "s1", "q1", "A"); n != 0 {
		t.Errorf("count after delete = %d, want 0", n)
	}
}

func TestReopenRestoresState(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	st, err := Open(ctx, kv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Surveys.Insert(ctx, testSurvey("s1", "admin", true)); err != nil {
		t.Fatal(err)
	}
	if err := st.Responses.Append(ctx, testResponse("r1", "s1", "ann")); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(ctx, kv)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s, err := reopened.Surveys.Get("s1")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if opt := s.Questions[0].Options[0]; opt.MaxSelections == nil || *opt.MaxSelections != 1 {
		t.Errorf("quota lost on reload: %+v", opt)
	}
	rs := reopened.Responses.List()
	if len(rs) != 1 || rs[0].Answers[0].Value.Text() != "A" {
		t.Errorf("responses after reopen = %+v", rs)
	}
}

type failingKV struct{ *MemoryKV }

func (failingKV) Put(context.Context, string, []byte) error { return errors.New("disk full") }

func TestFailedWriteKeepsState(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, failingKV{NewMemoryKV()})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Surveys.Insert(ctx, testSurvey("s1", "admin", true)); err == nil {
		t.Fatal("expected write error")
	}
	if got := st.Surveys.List(); len(got) != 0 {
		t.Errorf("survey kept after failed write: %v", ids(got))
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	_ = st.Surveys.Insert(ctx, testSurvey("s1", "admin", true))
	_ = st.Surveys.Insert(ctx, testSurvey("s2", "admin", false))
	_ = st.Surveys.Insert(ctx, testSurvey("s3", "other", true))
	_ = st.Responses.Append(ctx, testResponse("r1", "s1", "ann"))
	_ = st.Responses.Append(ctx, testResponse("r2", "s3", "ann"))

	got := st.Stats("admin")
	want := Stats{TotalSurveys: 2, ActiveSurveys: 1, TotalResponses: 1}
	if got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
}

func ids(ss []model.Survey) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.ID
	}
	return out
}
