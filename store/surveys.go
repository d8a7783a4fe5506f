package store

import (
	"context"
	"errors"
	"sync"

	"github.com/TrAlSe1812/survey-gym42/model"
)

type SurveyFilter func(model.Survey) bool

func ByOwner(owner string) SurveyFilter {
	return func(s model.Survey) bool { return s.CreatedBy == owner }
}

func ByActive(active bool) SurveyFilter {
	return func(s model.Survey) bool { return s.IsActive == active }
}

type Surveys struct {
	mu        sync.RWMutex
	kv        KV
	items     []model.Survey
	responses *Responses
}

func (st *Surveys) Get(id string) (model.Survey, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	i := st.index(id)
	if i < 0 {
		return model.Survey{}, ErrNotFound
	}
	return cloneSurvey(st.items[i]), nil
}

// List returns the surveys matching every filter, in insertion order.
func (st *Surveys) List(filters ...SurveyFilter) []model.Survey {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := []model.Survey{}
next:
	for _, s := range st.items {
		for _, f := range filters {
			if !f(s) {
				continue next
			}
		}
		out = append(out, cloneSurvey(s))
	}
	return out
}

func (st *Surveys) Insert(ctx context.Context, s model.Survey) error {
	if s.ID == "" {
		return errors.New("store: survey without id")
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.index(s.ID) >= 0 {
		return ErrDuplicate
	}
	items := append(cloneSurveys(st.items), cloneSurvey(s))
	return st.commit(ctx, items)
}

// Replace swaps the stored survey with the same id. s.Version must match
// the stored version; the stored copy gets the next version, which is
// returned.
func (st *Surveys) Replace(ctx context.Context, s model.Survey) (model.Survey, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	i := st.index(s.ID)
	if i < 0 {
		return model.Survey{}, ErrNotFound
	}
	if st.items[i].Version != s.Version {
		return model.Survey{}, ErrConflict
	}
	s = cloneSurvey(s)
	s.Version++
	items := cloneSurveys(st.items)
	items[i] = s
	if err := st.commit(ctx, items); err != nil {
		return model.Survey{}, err
	}
	return cloneSurvey(s), nil
}

// Delete removes a survey together with all of its responses.
func (st *Surveys) Delete(ctx context.Context, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	i := st.index(id)
	if i < 0 {
		return ErrNotFound
	}
	items := make([]model.Survey, 0, len(st.items)-1)
	items = append(items, st.items[:i]...)
	items = append(items, st.items[i+1:]...)
	if err := st.commit(ctx, items); err != nil {
		return err
	}
	return st.responses.deleteSurvey(ctx, id)
}

func (st *Surveys) commit(ctx context.Context, items []model.Survey) error {
	if err := save(ctx, st.kv, SurveysKey, items); err != nil {
		return err
	}
	st.items = items
	return nil
}

func (st *Surveys) index(id string) int {
	for i, s := range st.items {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func cloneSurveys(in []model.Survey) []model.Survey {
	out := make([]model.Survey, len(in), len(in)+1)
	copy(out, in)
	return out
}

func cloneSurvey(s model.Survey) model.Survey {
	if s.Questions == nil {
		return s
	}
	qs := make([]model.Question, len(s.Questions))
	for i, q := range s.Questions {
		if q.Options != nil {
			opts := make([]model.Option, len(q.Options))
			copy(opts, q.Options)
			q.Options = opts
		}
		qs[i] = q
	}
	s.Questions = qs
	return s
}
