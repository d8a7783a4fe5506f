package export

import (
	"encoding/csv"
	"io"

	"github.com/TrAlSe1812/survey-gym42/model"
)

// utf8BOM makes spreadsheet programs read the file as UTF-8.
const utf8BOM = "\uFEFF"

func WriteCSV(w io.Writer, s model.Survey, responses []model.Response, opts Options) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Table(s, responses, opts)); err != nil {
		return err
	}
	return cw.Error()
}
