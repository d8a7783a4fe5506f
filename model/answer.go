package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// AnswerValue holds either a single text value (text and single-choice
// questions) or a set of text values (multiple-choice questions).
// The zero value is an empty scalar.
type AnswerValue struct {
	multi  bool
	text   string
	values []string
}

func Scalar(text string) AnswerValue {
	return AnswerValue{text: text}
}

// Multi builds a set value; repeated members are kept once, in first-seen order.
func Multi(values ...string) AnswerValue {
	set := make([]string, 0, len(values))
	for _, v := range values {
		if !containsString(set, v) {
			set = append(set, v)
		}
	}
	return AnswerValue{multi: true, values: set}
}

func (v AnswerValue) IsMulti() bool {
	return v.multi
}

// Text returns the scalar value, or "" for a set.
func (v AnswerValue) Text() string {
	if v.multi {
		return ""
	}
	return v.text
}

// Values returns the members of a set, or the scalar as a single member.
// An empty scalar yields no members.
func (v AnswerValue) Values() []string {
	if v.multi {
		out := make([]string, len(v.values))
		copy(out, v.values)
		return out
	}
	if v.text == "" {
		return nil
	}
	return []string{v.text}
}

// Selects reports whether the value chose the given option label:
// set membership for a set, equality for a scalar.
func (v AnswerValue) Selects(option string) bool {
	if v.multi {
		return containsString(v.values, option)
	}
	return v.text == option
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.multi {
		if v.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.values)
	}
	return json.Marshal(v.text)
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = AnswerValue{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*v = Multi(values...)
		return nil
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*v = Scalar(text)
		return nil
	}
	return errors.New("answer value must be a string or an array of strings")
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
