package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/apperr"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// #region literal
var literalPrefixes = map[string]state.EntityKind{
	"gene":   state.EntityGene,
	"study":  state.EntityStudy,
	"cancer": state.EntityStudy,
	"type":   state.EntityDataType,
	"dtype":  state.EntityDataType,
	"source": state.EntityDataSource,
}

// Literal resolves "<kind> <value>" phrases such as "gene TP53" or
// "source clinvar". A bare word is tried as an analysis type, then a data
// source, and otherwise taken as a gene.
type Literal struct{}

func (Literal) Resolve(_ context.Context, query string, _ state.ConversationState) (*state.ResolvedEntity, error) {
	fields := strings.Fields(query)
	switch len(fields) {
	case 0:
		return nil, nil
	case 1:
		return bare(fields[0]), nil
	case 2:
		kind, ok := literalPrefixes[strings.ToLower(fields[0])]
		if !ok {
			break
		}
		return canonical(&state.ResolvedEntity{Kind: kind, Value: fields[1]}), nil
	}
	return nil, apperr.Wrap(apperr.KindOOV, apperr.MsgOOV, fmt.Errorf("no entity in %q", query))
}

func bare(word string) *state.ResolvedEntity {
	if dt, err := state.ParseDataType(word); err == nil {
		return &state.ResolvedEntity{Kind: state.EntityDataType, Value: string(dt)}
	}
	if ds, err := state.ParseDataSource(word); err == nil {
		return &state.ResolvedEntity{Kind: state.EntityDataSource, Value: string(ds)}
	}
	return &state.ResolvedEntity{Kind: state.EntityGene, Value: strings.ToUpper(word)}
}

// #endregion literal

// #region scripted
// Scripted maps exact queries to entities. Unknown queries fail with
// OOV_ERROR, matching a resolver that could not place the text.
type Scripted struct {
	mu      sync.Mutex
	entries map[string]state.ResolvedEntity
	calls   int
}

// NewScripted creates a resolver answering from entries.
func NewScripted(entries map[string]state.ResolvedEntity) *Scripted {
	m := make(map[string]state.ResolvedEntity, len(entries))
	for q, e := range entries {
		m[strings.TrimSpace(q)] = e
	}
	return &Scripted{entries: m}
}

// Add registers one more query.
func (s *Scripted) Add(query string, e state.ResolvedEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[strings.TrimSpace(query)] = e
}

// Calls returns how many non-empty queries were resolved or refused.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Scripted) Resolve(_ context.Context, query string, _ state.ConversationState) (*state.ResolvedEntity, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	e, ok := s.entries[query]
	if !ok {
		return nil, apperr.Wrap(apperr.KindOOV, apperr.MsgOOV, fmt.Errorf("no scripted entity for %q", query))
	}
	return &e, nil
}

// #endregion scripted
