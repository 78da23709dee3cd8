package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/orchestrator"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string `json:"description"`
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	// Entities scripts the resolver: query text -> entity.
	Entities map[string]state.ResolvedEntity `json:"entities"`
	Config   FixtureConfig                   `json:"config"`
	Turns    []FixtureTurn                   `json:"turns"`
}

// FixtureConfig overrides engine settings for the run.
type FixtureConfig struct {
	MaxHistoryItems       int `json:"max_history_items"`
	MinDispatchAttributes int `json:"min_dispatch_attributes"`
}

// FixtureTurn is one scripted request and what it must produce.
type FixtureTurn struct {
	Intent   string        `json:"intent"`
	Query    string        `json:"query,omitempty"`
	DataType string        `json:"data_type,omitempty"`
	Expect   FixtureExpect `json:"expect"`
}

// FixtureExpect lists the checked fields of a turn outcome. Unset fields
// are not checked, except ErrorKind which must match exactly.
type FixtureExpect struct {
	Event     string                   `json:"event,omitempty"`
	ErrorKind string                   `json:"error_kind,omitempty"`
	Analysis  *bool                    `json:"analysis,omitempty"`
	Speech    string                   `json:"speech,omitempty"`
	State     *state.ConversationState `json:"state,omitempty"`
	History   *int                     `json:"history_len,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Turns) == 0 {
		return nil, fmt.Errorf("fixture %s: no turns", path)
	}
	return &f, nil
}

// ToTurn converts a FixtureTurn to an orchestrator turn in the fixture's
// session.
func (f *Fixture) ToTurn(ft FixtureTurn) orchestrator.Turn {
	sessionID := f.SessionID
	if sessionID == "" {
		sessionID = "replay"
	}
	return orchestrator.Turn{
		SessionID: sessionID,
		UserID:    f.UserID,
		Intent:    ft.Intent,
		Query:     ft.Query,
		DataType:  ft.DataType,
	}
}

// #endregion fixture-loader
