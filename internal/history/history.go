// Package history keeps the bounded, most-recent-first log of turns that
// backs the repeat and go back intents.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// #region event-kind
// EventKind classifies what a recorded turn produced.
type EventKind string

const (
	EventAnalysis         EventKind = "ANALYSIS"
	EventNavigation       EventKind = "NAVIGATION"
	EventNavigationRevert EventKind = "NAVIGATION_REVERT"
	EventLaunch           EventKind = "LAUNCH"
	EventSessionEnded     EventKind = "SESSION_ENDED"
	EventUnknown          EventKind = "UNKNOWN"
)

// Recorded reports whether turns of this kind enter the history.
func (k EventKind) Recorded() bool {
	return k != EventLaunch && k != EventSessionEnded
}

// #endregion event-kind

// #region entry
// Entry is one recorded turn.
type Entry struct {
	State      state.ConversationState `json:"state"`
	Intent     string                  `json:"intent"`
	Event      EventKind               `json:"event_kind"`
	RecordedAt time.Time               `json:"recorded_at,omitempty"`
}

// History is ordered most recent first.
type History []Entry

// DefaultMaxItems bounds the history when no limit is configured.
const DefaultMaxItems = 20

// #endregion entry

// #region push
// Push returns h with e at the front, dropping the oldest entries beyond
// max. Launch and session-ended turns carry nothing to revisit and are
// ignored. h is not modified.
func Push(h History, e Entry, max int) History {
	if !e.Event.Recorded() {
		return h
	}
	if max <= 0 {
		max = DefaultMaxItems
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	n := len(h) + 1
	if n > max {
		n = max
	}
	out := make(History, n)
	out[0] = e
	copy(out[1:], h)
	return out
}

// #endregion push

// #region repeat
// Repeat replays the current state against the last recorded one, without
// any new entity.
func Repeat(h History, current state.ConversationState) state.StateChange {
	var prev state.ConversationState
	if len(h) > 0 {
		prev = h[0].State
	}
	return state.StateChange{Previous: prev, Merged: current}
}

// #endregion repeat

// #region back
// Back finds the analysis a "go back" should return to.
//
// The top analysis is what the user is looking at, so the counter starts at
// one to skip it. Every leading revert adds one more analysis to skip, since
// an earlier go back recorded its target without removing anything.
// Navigation turns never count. Back reports false once the history is
// exhausted.
func Back(h History) (Entry, bool) {
	revertCounter := 1
	stopCounting := false
	for _, e := range h {
		switch {
		case e.Event == EventNavigation:
			continue
		case e.Event == EventNavigationRevert && !stopCounting:
			revertCounter++
			continue
		}
		stopCounting = true
		if e.Event != EventAnalysis {
			continue
		}
		if revertCounter <= 0 {
			return e, true
		}
		revertCounter--
	}
	return Entry{}, false
}

// #endregion back

// #region encoding
// Encode serializes h for the session and long-term stores.
func Encode(h History) (string, error) {
	if h == nil {
		h = History{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}
	return string(b), nil
}

// Decode parses a history produced by Encode. An empty string is an empty
// history.
func Decode(s string) (History, error) {
	if s == "" {
		return History{}, nil
	}
	var h History
	if err := json.Unmarshal([]byte(s), &h); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return h, nil
}

// #endregion encoding
