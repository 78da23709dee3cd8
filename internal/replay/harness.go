package replay

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/logging"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/navigation"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/orchestrator"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/requirement"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/resolver"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/session"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// #region types

// ReplayResult captures the outcome of replaying one scripted turn.
type ReplayResult struct {
	Index      int
	Intent     string
	Outcome    orchestrator.Outcome
	Mismatches []string
}

// Passed reports whether every expectation held.
func (r ReplayResult) Passed() bool { return len(r.Mismatches) == 0 }

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalTurns int
	Passed     int
	Failed     int
	Analyses   int
	Errors     int
	FinalState state.ConversationState
}

// #endregion types

// #region replay

// Replay runs the fixture through an in-memory orchestrator wired with the
// scripted resolver and the summary builder.
func Replay(ctx context.Context, f *Fixture, log *logging.Logger) ([]ReplayResult, error) {
	if log == nil {
		log = logging.Nop()
	}
	tables := requirement.DefaultTables()
	dispatcher := navigation.NewDispatcher(f.Config.MinDispatchAttributes)
	dispatcher.RegisterAll(navigation.RoutesFrom(tables), navigation.SummaryBuilder{})

	orch, err := orchestrator.New(orchestrator.Deps{
		Resolver:   resolver.NewScripted(f.Entities),
		Validator:  requirement.NewValidator(tables, log),
		Dispatcher: dispatcher,
		Sessions:   session.NewMemoryStore(),
		Log:        log,
		MaxHistory: f.Config.MaxHistoryItems,
	})
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}

	results := make([]ReplayResult, 0, len(f.Turns))
	for i, ft := range f.Turns {
		out, err := orch.Handle(ctx, f.ToTurn(ft))
		if err != nil {
			return results, fmt.Errorf("turn %d (%s): %w", i, ft.Intent, err)
		}
		results = append(results, ReplayResult{
			Index:      i,
			Intent:     ft.Intent,
			Outcome:    out,
			Mismatches: check(ft.Expect, out),
		})
	}
	return results, nil
}

func check(want FixtureExpect, got orchestrator.Outcome) []string {
	var out []string
	if want.ErrorKind != string(got.ErrorKind) {
		out = append(out, fmt.Sprintf("error_kind: want %q, got %q", want.ErrorKind, got.ErrorKind))
	}
	if want.Event != "" && want.Event != string(got.Event) {
		out = append(out, fmt.Sprintf("event: want %q, got %q", want.Event, got.Event))
	}
	if want.Analysis != nil && *want.Analysis != got.Response.Analysis {
		out = append(out, fmt.Sprintf("analysis: want %v, got %v", *want.Analysis, got.Response.Analysis))
	}
	if want.Speech != "" && want.Speech != got.Response.Speech {
		out = append(out, fmt.Sprintf("speech: want %q, got %q", want.Speech, got.Response.Speech))
	}
	if want.State != nil {
		if d := cmp.Diff(want.State.Normalized(), got.State.Normalized()); d != "" {
			out = append(out, "state (-want +got):\n"+d)
		}
	}
	if want.History != nil && *want.History != got.HistoryLen {
		out = append(out, fmt.Sprintf("history_len: want %d, got %d", *want.History, got.HistoryLen))
	}
	return out
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalTurns: len(results)}
	for _, r := range results {
		if r.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
		if r.Outcome.Response.Analysis {
			s.Analyses++
		}
		if r.Outcome.Failed() {
			s.Errors++
		}
	}
	if len(results) > 0 {
		s.FinalState = results[len(results)-1].Outcome.State
	}
	return s
}

// #endregion replay
