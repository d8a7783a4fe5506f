// Package authoring is the administrator side of surveys: creating,
// editing, switching on and off, and deleting questionnaires.
package authoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TrAlSe1812/survey-gym42/model"
	"github.com/TrAlSe1812/survey-gym42/store"
)

var (
	ErrNotOwner     = errors.New("survey belongs to another administrator")
	ErrInvalidDraft = errors.New("invalid survey")
	ErrBadStatus    = errors.New("unknown status filter")
)

type Owner struct {
	Login string
	Name  string
}

// Draft is what the editor submits. Option quotas in Questions are
// ignored: they follow from each question's DisappearingOptions flag.
type Draft struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	IsActive    bool             `json:"isActive"`
	Questions   []model.Question `json:"questions"`
}

type Service struct {
	store *store.Store
	NewID func() string
	Now   func() time.Time
}

func NewService(st *store.Store) *Service {
	return &Service{
		store: st,
		NewID: uuid.NewString,
		Now:   time.Now,
	}
}

func (svc *Service) Create(ctx context.Context, owner Owner, d Draft) (model.Survey, error) {
	id := svc.NewID()
	questions, err := svc.normalize(d, nil)
	if err != nil {
		return model.Survey{}, err
	}
	s := model.Survey{
		ID:            id,
		Title:         strings.TrimSpace(d.Title),
		Description:   d.Description,
		CreatedBy:     owner.Login,
		CreatedByName: owner.Name,
		CreatedAt:     svc.Now(),
		IsActive:      d.IsActive,
		Questions:     questions,
	}
	if err := svc.store.Surveys.Insert(ctx, s); err != nil {
		return model.Survey{}, err
	}
	return s, nil
}

// Update replaces title, description, status and questions of a survey.
// version must be the version the editor started from. Questions that keep
// the id of an existing question keep their identity, so answers already
// given to them still count against their options.
func (svc *Service) Update(ctx context.Context, owner Owner, id string, version int, d Draft) (model.Survey, error) {
	prev, err := svc.Get(owner, id)
	if err != nil {
		return model.Survey{}, err
	}
	questions, err := svc.normalize(d, &prev)
	if err != nil {
		return model.Survey{}, err
	}
	next := prev
	next.Version = version
	next.Title = strings.TrimSpace(d.Title)
	next.Description = d.Description
	next.IsActive = d.IsActive
	next.Questions = questions
	return svc.store.Surveys.Replace(ctx, next)
}

func (svc *Service) SetActive(ctx context.Context, owner Owner, id string, active bool) (model.Survey, error) {
	s, err := svc.Get(owner, id)
	if err != nil {
		return model.Survey{}, err
	}
	if s.IsActive == active {
		return s, nil
	}
	s.IsActive = active
	return svc.store.Surveys.Replace(ctx, s)
}

func (svc *Service) Toggle(ctx context.Context, owner Owner, id string) (model.Survey, error) {
	s, err := svc.Get(owner, id)
	if err != nil {
		return model.Survey{}, err
	}
	return svc.SetActive(ctx, owner, id, !s.IsActive)
}

// Delete removes the survey and every response to it.
// It waits for a submission in flight to the same survey.
func (svc *Service) Delete(ctx context.Context, owner Owner, id string) error {
	unlock := svc.store.Locks.Lock(id)
	defer unlock()

	if _, err := svc.Get(owner, id); err != nil {
		return err
	}
	return svc.store.Surveys.Delete(ctx, id)
}

func (svc *Service) Get(owner Owner, id string) (model.Survey, error) {
	s, err := svc.store.Surveys.Get(id)
	if err != nil {
		return model.Survey{}, err
	}
	if s.CreatedBy != owner.Login {
		return model.Survey{}, ErrNotOwner
	}
	return s, nil
}

// List returns the owner's surveys; status is "all", "active" or "inactive".
func (svc *Service) List(owner Owner, status string) ([]model.Survey, error) {
	filters := []store.SurveyFilter{store.ByOwner(owner.Login)}
	switch status {
	case "", "all":
	case "active":
		filters = append(filters, store.ByActive(true))
	case "inactive":
		filters = append(filters, store.ByActive(false))
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadStatus, status)
	}
	return svc.store.Surveys.List(filters...), nil
}

func (svc *Service) normalize(d Draft, prev *model.Survey) ([]model.Question, error) {
	if strings.TrimSpace(d.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidDraft)
	}

	used := map[string]bool{}
	out := make([]model.Question, 0, len(d.Questions))
	for i, q := range d.Questions {
		n := i + 1
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return nil, fmt.Errorf("%w: question %d has no text", ErrInvalidDraft, n)
		}
		if !q.Type.Valid() {
			return nil, fmt.Errorf("%w: question %d has unknown type %q", ErrInvalidDraft, n, q.Type)
		}

		if !keepsID(prev, q.ID) || used[q.ID] {
			q.ID = svc.NewID()
		}
		used[q.ID] = true

		if !q.IsChoice() {
			q.DisappearingOptions = false
			q.Options = []model.Option{}
			out = append(out, q)
			continue
		}

		opts := make([]model.Option, 0, len(q.Options))
		seen := map[string]bool{}
		for _, o := range q.Options {
			text := strings.TrimSpace(o.Text)
			if text == "" {
				continue
			}
			if seen[text] {
				return nil, fmt.Errorf("%w: question %d repeats option %q", ErrInvalidDraft, n, text)
			}
			seen[text] = true
			opt := model.Option{Text: text}
			if q.DisappearingOptions {
				opt.MaxSelections = model.Limit(1)
			}
			opts = append(opts, opt)
		}
		if len(opts) == 0 {
			return nil, fmt.Errorf("%w: question %d has no options", ErrInvalidDraft, n)
		}
		q.Options = opts
		out = append(out, q)
	}
	return out, nil
}

func keepsID(prev *model.Survey, id string) bool {
	if prev == nil || id == "" {
		return false
	}
	_, ok := prev.Question(id)
	return ok
}
