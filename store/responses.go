package store

import (
	"context"
	"errors"
	"sync"

	"github.com/TrAlSe1812/survey-gym42/model"
)

type ResponseFilter func(model.Response) bool

func ForSurvey(surveyID string) ResponseFilter {
	return func(r model.Response) bool { return r.SurveyID == surveyID }
}

func ByStudent(login string) ResponseFilter {
	return func(r model.Response) bool { return r.Student == login }
}

// Responses is append-only; responses only disappear with their survey.
type Responses struct {
	mu    sync.RWMutex
	kv    KV
	items []model.Response
}

func (st *Responses) Append(ctx context.Context, r model.Response) error {
	if r.ID == "" {
		return errors.New("store: response without id")
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, x := range st.items {
		if x.ID == r.ID {
			return ErrDuplicate
		}
	}
	items := make([]model.Response, len(st.items), len(st.items)+1)
	copy(items, st.items)
	items = append(items, r)
	if err := save(ctx, st.kv, ResponsesKey, items); err != nil {
		return err
	}
	st.items = items
	return nil
}

// List returns the responses matching every filter, in submission order.
func (st *Responses) List(filters ...ResponseFilter) []model.Response {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := []model.Response{}
next:
	for _, r := range st.items {
		for _, f := range filters {
			if !f(r) {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

func (st *Responses) Count(filters ...ResponseFilter) int {
	return len(st.List(filters...))
}

func (st *Responses) deleteSurvey(ctx context.Context, surveyID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	items := make([]model.Response, 0, len(st.items))
	for _, r := range st.items {
		if r.SurveyID != surveyID {
			items = append(items, r)
		}
	}
	if len(items) == len(st.items) {
		return nil
	}
	if err := save(ctx, st.kv, ResponsesKey, items); err != nil {
		return err
	}
	st.items = items
	return nil
}
