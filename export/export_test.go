package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/TrAlSe1812/survey-gym42/model"
)

func fixture() (model.Survey, []model.Response) {
	s := model.Survey{
		ID:        "s1",
		Title:     "Clubs: autumn/2024!",
		CreatedBy: "admin",
		CreatedAt: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		Questions: []model.Question{
			{ID: "q1", Text: "Name a hobby", Type: model.QuestionText},
			{ID: "q2", Text: "Pick a club", Type: model.QuestionSingle, DisappearingOptions: true, Options: []model.Option{
				{Text: "Chess", MaxSelections: model.Limit(1)},
				{Text: "Drama", MaxSelections: model.Limit(1)},
			}},
			{ID: "q3", Text: "Days", Type: model.QuestionMultiple, Options: []model.Option{{Text: "Mon"}, {Text: "Tue"}}},
		},
	}
	responses := []model.Response{
		{
			ID: "r1", SurveyID: "s1", StudentName: `Ivanov "Vanya" I.`,
			SubmittedAt: time.Date(2024, 9, 2, 10, 30, 0, 0, time.UTC),
			Answers: []model.Answer{
				{QuestionID: "q1", Value: model.Scalar("chess, mostly")},
				{QuestionID: "q2", Value: model.Scalar("Chess")},
				{QuestionID: "q3", Value: model.Multi("Mon", "Tue")},
			},
		},
		{
			ID: "r2", SurveyID: "s1", StudentName: "Petrova A.",
			SubmittedAt: time.Date(2024, 9, 3, 8, 0, 0, 0, time.UTC),
			Answers: []model.Answer{
				{QuestionID: "q1", Value: model.Scalar("reading")},
			},
		},
	}
	return s, responses
}

func TestTable(t *testing.T) {
	s, responses := fixture()
	got := Table(s, responses, Options{Timestamps: true, QuestionText: true})
	want := [][]string{
		{"Student", "Submitted at", "Question 1: Name a hobby", "Question 2: Pick a club", "Question 3: Days"},
		{`Ivanov "Vanya" I.`, "2024-09-02 10:30:00", "chess, mostly", "Chess", "Mon; Tue"},
		{"Petrova A.", "2024-09-03 08:00:00", "reading", "-", "-"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Table =\n%q\nwant\n%q", got, want)
	}

	plain := Table(s, responses, Options{})
	if !reflect.DeepEqual(plain[0], []string{"Student", "Question 1", "Question 2", "Question 3"}) {
		t.Errorf("plain header = %q", plain[0])
	}
}

func TestWriteCSV(t *testing.T) {
	s, responses := fixture()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, s, responses, Options{}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "\uFEFF") {
		t.Fatal("missing UTF-8 BOM")
	}

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\uFEFF"))).ReadAll()
	if err != nil {
		t.Fatalf("csv does not parse back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records", len(records))
	}
	if records[1][0] != `Ivanov "Vanya" I.` || records[1][1] != "chess, mostly" {
		t.Errorf("quoting lost: %q", records[1])
	}
}

func TestSummaryRowsReportRemainingQuota(t *testing.T) {
	s, responses := fixture()
	rows := SummaryRows(s, responses, nil)

	find := func(label string) []string {
		for _, r := range rows {
			if r[0] == label {
				return r
			}
		}
		t.Fatalf("no %q row", label)
		return nil
	}
	if r := find("Remaining selections:"); r[1] != "Chess: 0 of 1; Drama: 1 of 1" {
		t.Errorf("remaining = %q", r[1])
	}
	if r := find("Total responses:"); r[1] != "2" {
		t.Errorf("total = %q", r[1])
	}
	if r := find("Author:"); r[1] != "admin" {
		t.Errorf("author = %q", r[1])
	}
}

func TestWriteXLSX(t *testing.T) {
	s, responses := fixture()
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, s, responses, Options{Timestamps: true}); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ResponsesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][4] != "Mon; Tue" {
		t.Errorf("responses sheet = %q", rows)
	}
	info, err := f.GetRows(SurveySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(info) == 0 || info[1][1] != s.Title {
		t.Errorf("survey sheet = %q", info)
	}
}

func TestFileName(t *testing.T) {
	s, _ := fixture()
	got := FileName(s, "csv", time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC))
	if got != "Results_Clubs_autumn2024_2024-09-05.csv" {
		t.Errorf("FileName = %q", got)
	}
	s.Title = "Анкета №1"
	if got := FileName(s, "xlsx", time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC)); got != "Results_Анкета_1_2024-09-05.xlsx" {
		t.Errorf("FileName = %q", got)
	}
}
