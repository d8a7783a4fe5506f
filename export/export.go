// Package export turns a survey and its responses into flat tables for
// CSV and spreadsheet downloads.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/TrAlSe1812/survey-gym42/model"
)

const (
	MultiSeparator = "; "
	NoAnswer       = "-"
	TimeLayout     = "2006-01-02 15:04:05"
)

type Options struct {
	Timestamps   bool
	QuestionText bool
	// Location for submission timestamps; UTC when nil.
	Location *time.Location
}

// Table returns a header row followed by one row per response:
// student name, optional submission time, then one cell per question in
// survey order.
func Table(s model.Survey, responses []model.Response, opts Options) [][]string {
	header := []string{"Student"}
	if opts.Timestamps {
		header = append(header, "Submitted at")
	}
	for i, q := range s.Questions {
		header = append(header, QuestionHeader(i, q, opts.QuestionText))
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	rows := make([][]string, 0, len(responses)+1)
	rows = append(rows, header)
	for _, r := range responses {
		row := make([]string, 0, len(header))
		row = append(row, r.StudentName)
		if opts.Timestamps {
			row = append(row, r.SubmittedAt.In(loc).Format(TimeLayout))
		}
		for _, q := range s.Questions {
			row = append(row, Cell(r, q.ID))
		}
		rows = append(rows, row)
	}
	return rows
}

func QuestionHeader(i int, q model.Question, withText bool) string {
	if withText {
		return fmt.Sprintf("Question %d: %s", i+1, q.Text)
	}
	return fmt.Sprintf("Question %d", i+1)
}

// Cell renders the answer a response gave to a question.
func Cell(r model.Response, questionID string) string {
	a, ok := r.Answer(questionID)
	if !ok {
		return NoAnswer
	}
	if a.Value.IsMulti() {
		return strings.Join(a.Value.Values(), MultiSeparator)
	}
	if a.Value.Text() == "" {
		return NoAnswer
	}
	return a.Value.Text()
}

var reFileUnsafe = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// FileName builds the download name Results_<title>_<date>.<ext>.
func FileName(s model.Survey, ext string, now time.Time) string {
	title := reFileUnsafe.ReplaceAllString(s.Title, "")
	title = strings.Join(strings.Fields(title), "_")
	if title == "" {
		title = "survey"
	}
	return fmt.Sprintf("Results_%s_%s.%s", title, now.Format("2006-01-02"), ext)
}
