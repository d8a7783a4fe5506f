package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/TrAlSe1812/survey-gym42/log"
	"github.com/TrAlSe1812/survey-gym42/submission"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// RejectionStatus maps a rejected submission to its HTTP status.
func RejectionStatus(rej *submission.Rejection) int {
	switch rej.Kind {
	case submission.SurveyNotFound, submission.SurveyInactive:
		return http.StatusNotFound
	case submission.AlreadySubmitted:
		return http.StatusConflict
	}
	return http.StatusUnprocessableEntity
}

// Will log a rejected submission, and send it back as a JSON body.
// Errors that are not rejections are treated as internal errors.
func LogRejection(w http.ResponseWriter, r *http.Request, code string, err error) {
	var rej *submission.Rejection
	if !errors.As(err, &rej) {
		LogInternalError(w, code, err)
		return
	}
	log.WithFields(log.Fields{"survey": rej.SurveyID, "question": rej.QuestionID, "kind": rej.Kind}).Debug(code)
	render.Status(r, RejectionStatus(rej))
	render.JSON(w, r, rej)
}
