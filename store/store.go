// Package store keeps the survey and response lists in memory and writes
// them through to a key/value backend after every change.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	SurveysKey   = "surveys"
	ResponsesKey = "responses"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("version conflict")
	ErrDuplicate = errors.New("duplicate id")
)

type Store struct {
	Surveys   *Surveys
	Responses *Responses

	// Locks serializes writers of the same survey across services.
	Locks *Locks
}

// Open loads both lists from kv. Missing keys start empty.
func Open(ctx context.Context, kv KV) (*Store, error) {
	responses := &Responses{kv: kv}
	if err := load(ctx, kv, ResponsesKey, &responses.items); err != nil {
		return nil, err
	}
	surveys := &Surveys{kv: kv, responses: responses}
	if err := load(ctx, kv, SurveysKey, &surveys.items); err != nil {
		return nil, err
	}
	return &Store{Surveys: surveys, Responses: responses, Locks: NewLocks()}, nil
}

// NewMemory returns an empty store that is not persisted anywhere.
func NewMemory() *Store {
	responses := &Responses{kv: NewMemoryKV()}
	return &Store{
		Surveys:   &Surveys{kv: responses.kv, responses: responses},
		Responses: responses,
		Locks:     NewLocks(),
	}
}

type Stats struct {
	TotalSurveys   int `json:"totalSurveys"`
	ActiveSurveys  int `json:"activeSurveys"`
	TotalResponses int `json:"totalResponses"`
}

// Stats summarizes the surveys owned by owner and the responses they got.
func (s *Store) Stats(owner string) Stats {
	owned := s.Surveys.List(ByOwner(owner))
	st := Stats{TotalSurveys: len(owned)}
	ids := make(map[string]bool, len(owned))
	for _, sv := range owned {
		ids[sv.ID] = true
		if sv.IsActive {
			st.ActiveSurveys++
		}
	}
	for _, r := range s.Responses.List() {
		if ids[r.SurveyID] {
			st.TotalResponses++
		}
	}
	return st
}

func load(ctx context.Context, kv KV, key string, v any) error {
	data, ok, err := kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("store: load %s: %w", key, err)
	}
	if !ok || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: decode %s: %w", key, err)
	}
	return nil
}

func save(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store: save %s: %w", key, err)
	}
	return nil
}
