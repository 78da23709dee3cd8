package orchestrator

import (
	"strings"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/apperr"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/history"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/navigation"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// #region intent

// Intent names what the user asked for this turn. Any analysis type name
// (e.g. MUTATIONS) is also an intent: a direct request for that analysis.
type Intent string

const (
	IntentLaunch       Intent = "LAUNCH"
	IntentSessionEnded Intent = "SESSION_ENDED"
	IntentQuery        Intent = "QUERY"
	IntentRepeat       Intent = "REPEAT"
	IntentGoBack       Intent = "GO_BACK"
	IntentReset        Intent = "RESET"
	IntentCompare      Intent = "COMPARE"
	IntentSplitBy      Intent = "SPLIT_BY"
	IntentRestore      Intent = "RESTORE"
)

// ParseIntent upper-cases s. An empty intent is a free-text query.
func ParseIntent(s string) Intent {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return IntentQuery
	}
	return Intent(s)
}

// Action returns the analysis type a direct intent asks for.
func (i Intent) Action() (state.DataType, bool) {
	dt, err := state.ParseDataType(string(i))
	return dt, err == nil
}

// #endregion

// #region turn

// AnonymousUser owns turns that arrive without a user ID.
const AnonymousUser = "anonymous"

// Turn is one user request.
type Turn struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Intent    string `json:"intent"`
	// Query is the free text to resolve, if any.
	Query string `json:"query,omitempty"`
	// DataType is the second analysis of a SPLIT_BY turn.
	DataType string `json:"data_type,omitempty"`
}

// #endregion

// #region outcome

// Outcome is what a turn produced. Failed turns carry ErrorKind and speak
// the error's fallback phrase; Event is empty when nothing was recorded.
type Outcome struct {
	TurnID       string                   `json:"turn_id"`
	Intent       Intent                   `json:"intent"`
	Response     navigation.Response      `json:"response"`
	Event        history.EventKind        `json:"event,omitempty"`
	ErrorKind    apperr.Kind              `json:"error_kind,omitempty"`
	Diff         state.StateDiff          `json:"diff"`
	State        state.ConversationState  `json:"state"`
	CompareState *state.ConversationState `json:"compare_state,omitempty"`
	HistoryLen   int                      `json:"history_len"`
}

// Failed reports whether the turn ended in an error response.
func (o Outcome) Failed() bool { return o.ErrorKind != "" }

// #endregion

// #region result

// result is the intent handler's answer before bookkeeping.
type result struct {
	resp  navigation.Response
	event history.EventKind
	diff  state.StateDiff
}

// #endregion
