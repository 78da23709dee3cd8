package navigation

import (
	"context"
	"fmt"
	"strings"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// SummaryBuilder answers every route with a plain description of the view
// that would be shown. The CLI and HTTP server register it when no
// analytics backend is wired in.
type SummaryBuilder struct{}

func (SummaryBuilder) Build(_ context.Context, req Request) (Response, error) {
	s := req.State
	var b strings.Builder
	fmt.Fprintf(&b, "Here is the %s analysis", strings.ToLower(state.DataType(s.DataType).Label()))
	b.WriteString(scope(s))
	fmt.Fprintf(&b, " from %s", s.Source())

	if req.SplitBy != "" {
		fmt.Fprintf(&b, ", split by %s", strings.ToLower(req.SplitBy.Label()))
	}
	if req.CompareState != nil && req.Diff.Present() {
		fmt.Fprintf(&b, ", compared with %s", req.Diff.EntityValue)
	}
	b.WriteString(".")

	speech := b.String()
	return Response{Speech: speech, CardText: speech, Reprompt: msgFollowUp}, nil
}

func scope(s state.ConversationState) string {
	switch {
	case s.HasGene() && s.HasStudy():
		return fmt.Sprintf(" for %s in %s", s.GeneName, s.StudyAbbreviation)
	case s.HasGene():
		return fmt.Sprintf(" for %s", s.GeneName)
	case s.HasStudy():
		return fmt.Sprintf(" in %s", s.StudyAbbreviation)
	}
	return ""
}
