package replay

import (
	"context"
	"strings"
	"testing"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

// helper: fixture with a gene and a study entity.
func geneStudyFixture(turns ...FixtureTurn) *Fixture {
	return &Fixture{
		SessionID: "t",
		UserID:    "u",
		Entities: map[string]state.ResolvedEntity{
			"egfr": {Kind: state.EntityGene, Value: "EGFR"},
			"lung": {Kind: state.EntityStudy, Value: "LUAD"},
		},
		Turns: turns,
	}
}

// 1. A matching expectation passes.
func TestReplay_Pass(t *testing.T) {
	f := geneStudyFixture(
		FixtureTurn{Intent: "QUERY", Query: "egfr", Expect: FixtureExpect{Event: "NAVIGATION", Analysis: boolPtr(false)}},
		FixtureTurn{Intent: "GENE_EXPRESSION", Expect: FixtureExpect{
			Event:   "ANALYSIS",
			State:   &state.ConversationState{GeneName: "EGFR", DataType: "GENE_EXPRESSION"},
			History: intPtr(2),
		}},
	)
	results, err := Replay(context.Background(), f, nil)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	for _, r := range results {
		if !r.Passed() {
			t.Errorf("turn %d: %v", r.Index, r.Mismatches)
		}
	}
}

// 2. Each mismatching field is reported.
func TestReplay_Mismatches(t *testing.T) {
	f := geneStudyFixture(
		FixtureTurn{Intent: "QUERY", Query: "egfr", Expect: FixtureExpect{
			Event:     "ANALYSIS",
			ErrorKind: "OOV_ERROR",
			Analysis:  boolPtr(true),
			Speech:    "nope",
			State:     &state.ConversationState{GeneName: "KRAS"},
			History:   intPtr(9),
		}},
	)
	results, err := Replay(context.Background(), f, nil)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	got := strings.Join(results[0].Mismatches, "\n")
	for _, field := range []string{"error_kind", "event", "analysis", "speech", "state", "history_len"} {
		if !strings.Contains(got, field) {
			t.Errorf("expected mismatch on %s, got:\n%s", field, got)
		}
	}
	if s := Summarize(results); s.Failed != 1 || s.Passed != 0 {
		t.Errorf("summary = %+v, want 1 failed", s)
	}
}

// 3. Unscripted queries surface as OOV errors, not replay failures.
func TestReplay_UnscriptedQuery(t *testing.T) {
	f := geneStudyFixture(
		FixtureTurn{Intent: "QUERY", Query: "what about brca1", Expect: FixtureExpect{ErrorKind: "OOV_ERROR"}},
	)
	results, err := Replay(context.Background(), f, nil)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !results[0].Passed() {
		t.Errorf("mismatches: %v", results[0].Mismatches)
	}
	if s := Summarize(results); s.Errors != 1 {
		t.Errorf("expected 1 error turn, got %d", s.Errors)
	}
}

// 4. Summarize on no results is zero-valued.
func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalTurns != 0 || !s.FinalState.IsEmpty() {
		t.Errorf("unexpected summary %+v", s)
	}
}
