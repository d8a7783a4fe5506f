package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/TrAlSe1812/survey-gym42/model"
	"github.com/TrAlSe1812/survey-gym42/quota"
)

const (
	ResponsesSheet = "Responses"
	SurveySheet    = "Survey"
)

func TypeName(t model.QuestionType) string {
	switch t {
	case model.QuestionText:
		return "Text answer"
	case model.QuestionSingle:
		return "Single choice"
	case model.QuestionMultiple:
		return "Multiple choice"
	}
	return string(t)
}

// SummaryRows describes the survey itself, including how many selections
// each disappearing option has left.
func SummaryRows(s model.Survey, responses []model.Response, loc *time.Location) [][]string {
	if loc == nil {
		loc = time.UTC
	}
	description := s.Description
	if description == "" {
		description = "Not specified"
	}
	author := s.CreatedByName
	if author == "" {
		author = s.CreatedBy
	}

	rows := [][]string{
		{"Survey information"},
		{"Title:", s.Title},
		{"Description:", description},
		{"Author:", author},
		{"Created:", s.CreatedAt.In(loc).Format("2006-01-02")},
		{"Total responses:", strconv.Itoa(len(responses))},
		{""},
		{"Questions:"},
	}

	summary := map[string]quota.QuestionQuota{}
	for _, qq := range quota.Summarize(s, responses) {
		summary[qq.QuestionID] = qq
	}

	for i, q := range s.Questions {
		rows = append(rows,
			[]string{fmt.Sprintf("Question %d:", i+1), q.Text},
			[]string{"Type:", TypeName(q.Type)},
		)
		if q.DisappearingOptions {
			rows = append(rows, []string{"Disappearing options:", "Yes"})
		}
		if len(q.Options) > 0 {
			labels := make([]string, len(q.Options))
			for j, o := range q.Options {
				labels[j] = o.Text
			}
			rows = append(rows, []string{"Options:", strings.Join(labels, MultiSeparator)})
		}
		if qq, ok := summary[q.ID]; ok && q.DisappearingOptions {
			left := make([]string, 0, len(qq.Options))
			for _, o := range qq.Options {
				if o.Remaining == nil {
					continue
				}
				left = append(left, fmt.Sprintf("%s: %d of %d", o.Text, *o.Remaining, *o.MaxSelections))
			}
			rows = append(rows, []string{"Remaining selections:", strings.Join(left, MultiSeparator)})
		}
		rows = append(rows, []string{""})
	}
	return rows
}

// WriteXLSX writes a workbook with the response table and a survey summary sheet.
func WriteXLSX(w io.Writer, s model.Survey, responses []model.Response, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResponsesSheet); err != nil {
		return err
	}
	table := Table(s, responses, opts)
	if err := writeRows(f, ResponsesSheet, table); err != nil {
		return err
	}
	if err := setWidth(f, ResponsesSheet, len(table[0]), 20); err != nil {
		return err
	}

	if _, err := f.NewSheet(SurveySheet); err != nil {
		return err
	}
	if err := writeRows(f, SurveySheet, SummaryRows(s, responses, opts.Location)); err != nil {
		return err
	}
	if err := f.SetColWidth(SurveySheet, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(SurveySheet, "B", "B", 50); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}

func writeRows(f *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func setWidth(f *excelize.File, sheet string, columns int, width float64) error {
	last, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, width)
}
