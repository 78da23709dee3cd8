// Package orchestrator runs one turn end to end: load the session, resolve
// and merge the entity, validate, dispatch, then record and save.
package orchestrator

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/apperr"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/compat"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/history"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/logging"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/metrics"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/navigation"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/requirement"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/resolver"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/session"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// #endregion

// #region phrases

const (
	msgWelcome      = "Welcome to Melvin. Tell me a gene or a cancer type to get started."
	msgGoodbye      = "Goodbye."
	msgNoHistory    = "There is no further history to go back to."
	msgReset        = "OK, starting over. What would you like to know?"
	msgNoPrior      = "I couldn't find a previous session to restore."
	msgUnknown      = "Sorry, I can't help with that request."
	msgEntityType   = "Sorry, I can't use an analysis type with that request."
	msgSameCompare  = "That is the analysis we are already looking at."
	msgSplitUnknown = "Sorry, I don't know which analysis to split by."
	msgWhatNext     = "What would you like to know?"
)

// #endregion

// #region orchestrator-struct

// Orchestrator is the turn-level coordinator.
type Orchestrator struct {
	resolver   resolver.Resolver
	validator  *requirement.Validator
	checker    *compat.Checker
	dispatcher *navigation.Dispatcher
	sessions   session.Store
	store      *state.Store
	log        *logging.Logger

	maxHistory int
}

// Deps wires an Orchestrator. Resolver, Dispatcher and Sessions are
// required; Store is optional and enables restore, snapshots and the turn
// log.
type Deps struct {
	Resolver   resolver.Resolver
	Validator  *requirement.Validator
	Checker    *compat.Checker
	Dispatcher *navigation.Dispatcher
	Sessions   session.Store
	Store      *state.Store
	Log        *logging.Logger
	MaxHistory int
}

// #endregion

// #region constructor

// New creates a fully wired orchestrator. A nil Validator or Checker selects
// the built-in tables.
func New(d Deps) (*Orchestrator, error) {
	if d.Resolver == nil {
		return nil, fmt.Errorf("resolver required")
	}
	if d.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if d.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if d.Log == nil {
		d.Log = logging.Nop()
	}
	if d.Validator == nil {
		d.Validator = requirement.NewValidator(nil, d.Log)
	}
	if d.Checker == nil {
		d.Checker = compat.NewChecker(nil, nil)
	}
	if d.Store != nil {
		if err := logging.EnsureTurnLog(d.Store.DB()); err != nil {
			return nil, err
		}
	}
	return &Orchestrator{
		resolver:   d.Resolver,
		validator:  d.Validator,
		checker:    d.Checker,
		dispatcher: d.Dispatcher,
		sessions:   d.Sessions,
		store:      d.Store,
		log:        d.Log.With("component", "orchestrator"),
		maxHistory: d.MaxHistory,
	}, nil
}

// #endregion

// #region handle

// Handle runs one turn. Domain failures come back as an Outcome with
// ErrorKind set; the returned error is reserved for session store
// failures.
func (o *Orchestrator) Handle(ctx context.Context, t Turn) (Outcome, error) {
	start := time.Now()
	if t.SessionID == "" {
		return Outcome{}, session.ErrNoID
	}
	if t.UserID == "" {
		t.UserID = AnonymousUser
	}
	intent := ParseIntent(t.Intent)

	sess, ok, err := o.sessions.Get(ctx, t.SessionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		sess = session.New(t.SessionID, t.UserID)
	}

	res, turnErr := o.run(ctx, &sess, intent, t)

	out := Outcome{TurnID: uuid.NewString(), Intent: intent, Diff: res.diff}
	if turnErr != nil {
		kind := apperr.KindOf(turnErr)
		if kind == "" {
			kind = apperr.KindInvalidState
		}
		out.ErrorKind = kind
		out.Response = navigation.Response{Speech: apperr.Fallback(turnErr), Reprompt: msgWhatNext}
		o.log.Warn("turn failed",
			"session_id", t.SessionID, "intent", intent, "kind", kind, "error", turnErr)
	} else {
		out.Response = res.resp
		out.Event = res.event
		if res.event != "" && res.event.Recorded() {
			sess.History = history.Push(sess.History, history.Entry{
				State:  sess.State,
				Intent: string(intent),
				Event:  res.event,
			}, o.maxHistory)
		}
	}

	sess.Turns++
	sess.UpdatedAt = time.Now().UTC()
	if err := o.sessions.Put(ctx, sess); err != nil {
		return Outcome{}, fmt.Errorf("save session: %w", err)
	}

	out.State = sess.State
	out.CompareState = sess.CompareState
	out.HistoryLen = len(sess.History)

	o.record(t, sess, out)
	metrics.ObserveTurn(string(intent), string(out.Event), string(out.ErrorKind), len(sess.History), time.Since(start))
	o.log.Debug("turn complete",
		"session_id", t.SessionID, "turn_id", out.TurnID, "intent", intent,
		"event", out.Event, "analysis", out.Response.Analysis, "history", out.HistoryLen)
	return out, nil
}

// #endregion

// #region run

func (o *Orchestrator) run(ctx context.Context, sess *session.Session, intent Intent, t Turn) (result, error) {
	switch intent {
	case IntentLaunch:
		return result{resp: navigation.Response{Speech: msgWelcome, Reprompt: msgWelcome}, event: history.EventLaunch}, nil
	case IntentSessionEnded:
		return result{resp: navigation.Response{Speech: msgGoodbye}, event: history.EventSessionEnded}, nil
	case IntentQuery:
		return o.query(ctx, sess, t.Query)
	case IntentRepeat:
		return o.repeat(ctx, sess)
	case IntentGoBack:
		return o.goBack(ctx, sess)
	case IntentReset:
		sess.State = state.ConversationState{}
		sess.CompareState = nil
		return result{resp: navigation.Response{Speech: msgReset, Reprompt: msgReset}, event: history.EventNavigation}, nil
	case IntentCompare:
		return o.compare(ctx, sess, t.Query)
	case IntentSplitBy:
		other := t.DataType
		if other == "" {
			other = t.Query
		}
		return o.splitBy(ctx, sess, other)
	case IntentRestore:
		return o.restore(ctx, sess)
	}
	if dt, ok := intent.Action(); ok {
		return o.action(ctx, sess, dt, t.Query)
	}
	return result{}, apperr.New(apperr.KindInvalidState, msgUnknown)
}

// #endregion

// #region query

func (o *Orchestrator) query(ctx context.Context, sess *session.Session, text string) (result, error) {
	entity, err := o.resolve(ctx, text, sess.State)
	if err != nil {
		return result{}, err
	}
	change := state.Merge(sess.State, entity)
	diff := state.Diff(change)

	// committed before validation so the next turn can complete it
	sess.State = change.Merged

	validated, err := o.validator.Validate(change.Merged)
	if err != nil {
		return result{diff: diff}, err
	}
	sess.State = validated
	change.Merged = validated
	return o.dispatch(ctx, change, navigation.Options{}, diff)
}

// #endregion

// #region action

func (o *Orchestrator) action(ctx context.Context, sess *session.Session, dt state.DataType, text string) (result, error) {
	entity, err := o.resolve(ctx, text, sess.State)
	if err != nil {
		return result{}, err
	}
	if entity != nil && entity.Kind == state.EntityDataType {
		return result{}, apperr.New(apperr.KindInvalidEntityType, msgEntityType)
	}
	change := state.Merge(sess.State, entity)
	diff := state.Diff(change)

	sess.State = change.Merged
	sess.State.DataType = string(dt)

	validated, err := o.validator.ValidateForAction(change, dt)
	if err != nil {
		return result{diff: diff}, err
	}
	sess.State = validated
	change.Merged = validated
	return o.dispatch(ctx, change, navigation.Options{}, diff)
}

// #endregion

// #region repeat

func (o *Orchestrator) repeat(ctx context.Context, sess *session.Session) (result, error) {
	change := history.Repeat(sess.History, sess.State)
	opts := navigation.Options{CompareState: sess.CompareState}
	if sess.CompareState != nil {
		if d, ok := state.Differs(sess.State, *sess.CompareState); ok {
			opts.Diff = &d
		}
	}
	res, err := o.dispatch(ctx, change, opts, state.StateDiff{})
	res.event = history.EventNavigation
	return res, err
}

// #endregion

// #region go-back

func (o *Orchestrator) goBack(ctx context.Context, sess *session.Session) (result, error) {
	target, ok := history.Back(sess.History)
	if !ok {
		return result{resp: navigation.Response{Speech: msgNoHistory, Reprompt: msgWhatNext}}, nil
	}
	change := state.StateChange{Previous: sess.State, Merged: target.State.Normalized()}
	sess.State = change.Merged
	sess.CompareState = nil

	res, err := o.dispatch(ctx, change, navigation.Options{}, state.StateDiff{})
	res.event = history.EventNavigationRevert
	return res, err
}

// #endregion

// #region compare

func (o *Orchestrator) compare(ctx context.Context, sess *session.Session, text string) (result, error) {
	current := sess.State.Normalized()
	dt := state.DataType(current.DataType)
	if dt == "" {
		return result{}, o.checker.CheckCompare("", state.StateDiff{})
	}

	current, err := o.validator.Validate(current)
	if err != nil {
		return result{}, err
	}

	entity, err := o.resolve(ctx, text, current)
	if err != nil {
		return result{}, err
	}
	change := state.Merge(current, entity)
	diff := state.Diff(change)
	if err := o.checker.CheckCompare(dt, diff); err != nil {
		return result{diff: diff}, err
	}
	if _, ok := state.Differs(current, change.Merged); !ok {
		return result{resp: navigation.Response{Speech: msgSameCompare, Reprompt: msgWhatNext}, diff: diff}, nil
	}

	cmp, err := o.validator.Validate(change.Merged)
	if err != nil {
		return result{diff: diff}, err
	}
	sess.CompareState = &cmp

	return o.dispatch(ctx,
		state.StateChange{Previous: current, Merged: current},
		navigation.Options{CompareState: &cmp, Diff: &diff}, diff)
}

// #endregion

// #region split-by

func (o *Orchestrator) splitBy(ctx context.Context, sess *session.Session, otherName string) (result, error) {
	current, err := o.validator.Validate(sess.State)
	if err != nil {
		return result{}, err
	}
	other, err := state.ParseDataType(otherName)
	if err != nil {
		return result{}, apperr.Wrap(apperr.KindInvalidDataType, msgSplitUnknown, err)
	}
	if err := o.checker.CheckSplit(state.DataType(current.DataType), other); err != nil {
		return result{}, err
	}

	return o.dispatch(ctx,
		state.StateChange{Previous: current, Merged: current},
		navigation.Options{SplitBy: other}, state.StateDiff{})
}

// #endregion

// #region restore

func (o *Orchestrator) restore(ctx context.Context, sess *session.Session) (result, error) {
	noPrior := result{resp: navigation.Response{Speech: msgNoPrior, Reprompt: msgWhatNext}}
	if o.store == nil {
		return noPrior, nil
	}
	prior, ok, err := o.store.MostRecentPriorSession(sess.UserID, sess.ID)
	if err != nil {
		return result{}, apperr.Wrap(apperr.KindInvalidState, apperr.MsgGeneric, err)
	}
	if !ok {
		return noPrior, nil
	}
	rec, ok, err := o.store.MostRecentTurn(sess.UserID, prior)
	if err != nil {
		return result{}, apperr.Wrap(apperr.KindInvalidState, apperr.MsgGeneric, err)
	}
	if !ok {
		return noPrior, nil
	}
	h, err := history.Decode(rec.HistoryJSON)
	if err != nil {
		return result{}, apperr.Wrap(apperr.KindInvalidState, apperr.MsgGeneric, err)
	}

	change := state.StateChange{Previous: sess.State, Merged: rec.State.Normalized()}
	sess.State = change.Merged
	sess.History = h
	sess.CompareState = nil
	if !rec.CompareState.IsEmpty() {
		cs := rec.CompareState
		sess.CompareState = &cs
	}
	o.log.Info("session restored", "session_id", sess.ID, "from", prior, "history", len(h))

	// restored turns are not recorded
	res, err := o.dispatch(ctx, change, navigation.Options{}, state.StateDiff{})
	res.event = ""
	return res, err
}

// #endregion

// #region helpers

func (o *Orchestrator) resolve(ctx context.Context, text string, current state.ConversationState) (*state.ResolvedEntity, error) {
	if text == "" {
		return nil, nil
	}
	entity, err := o.resolver.Resolve(ctx, text, current)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindOOV, apperr.MsgOOV, err)
	}
	return entity, nil
}

// dispatch runs the dispatcher and classifies the turn: a builder answer
// is an analysis, a follow-up prompt is navigation.
func (o *Orchestrator) dispatch(ctx context.Context, change state.StateChange, opts navigation.Options, diff state.StateDiff) (result, error) {
	resp, err := o.dispatcher.Dispatch(ctx, change, opts)
	if err != nil {
		return result{diff: diff}, err
	}
	event := history.EventNavigation
	if resp.Analysis {
		event = history.EventAnalysis
	}
	return result{resp: resp, event: event, diff: diff}, nil
}

// record snapshots successful recorded turns to the long-term store and
// logs every turn. Failures are logged, never surfaced.
func (o *Orchestrator) record(t Turn, sess session.Session, out Outcome) {
	if o.store == nil {
		return
	}
	now := time.Now().UTC()

	if !out.Failed() && out.Event != "" && out.Event.Recorded() {
		hj, err := history.Encode(sess.History)
		if err == nil {
			rec := state.TurnRecord{
				TurnID:      out.TurnID,
				SessionID:   sess.ID,
				UserID:      t.UserID,
				Intent:      string(out.Intent),
				EventKind:   string(out.Event),
				State:       sess.State,
				HistoryJSON: hj,
				CreatedAt:   now,
			}
			if sess.CompareState != nil {
				rec.CompareState = *sess.CompareState
			}
			err = o.store.RecordTurn(rec)
		}
		if err != nil {
			o.log.Error("snapshot failed", "session_id", sess.ID, "turn_id", out.TurnID, "error", err)
		}
	}

	var diffJSON string
	if out.Diff.Present() {
		if b, err := json.Marshal(out.Diff); err == nil {
			diffJSON = string(b)
		}
	}
	entry := logging.TurnLogEntry{
		TurnID:    out.TurnID,
		SessionID: sess.ID,
		Intent:    string(out.Intent),
		Query:     t.Query,
		EventKind: string(out.Event),
		ErrorKind: string(out.ErrorKind),
		DiffJSON:  diffJSON,
		Speech:    out.Response.Speech,
		CreatedAt: now,
	}
	if err := logging.LogTurn(o.store.DB(), entry); err != nil {
		o.log.Error("turn log failed", "turn_id", out.TurnID, "error", err)
	}
}

// #endregion
