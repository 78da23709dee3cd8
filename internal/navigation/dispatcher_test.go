package navigation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/apperr"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/requirement"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// recordingBuilder remembers the requests it served.
type recordingBuilder struct {
	calls []Request
	err   error
}

func (r *recordingBuilder) Build(_ context.Context, req Request) (Response, error) {
	r.calls = append(r.calls, req)
	if r.err != nil {
		return Response{}, r.err
	}
	return Response{Speech: "built " + req.State.DataType}, nil
}

func TestDispatchFollowUpWithoutDataType(t *testing.T) {
	b := &recordingBuilder{}
	d := NewDispatcher(0)
	d.RegisterAll(RoutesFrom(requirement.DefaultTables()), b)

	change := state.Merge(state.ConversationState{}, &state.ResolvedEntity{Kind: state.EntityGene, Value: "TP53"})
	resp, err := d.Dispatch(context.Background(), change, Options{})
	require.NoError(t, err)
	assert.False(t, resp.Analysis)
	assert.Equal(t, "OK, gene TP53. What would you like to know?", resp.Speech)
	assert.Empty(t, b.calls)
}

func TestDispatchFollowUpBelowThreshold(t *testing.T) {
	b := &recordingBuilder{}
	d := NewDispatcher(3)
	d.Register(Route{state.Mutations, state.TCGA}, b)

	change := state.Merge(state.ConversationState{GeneName: "TP53"},
		&state.ResolvedEntity{Kind: state.EntityDataType, Value: "MUTATIONS"})
	resp, err := d.Dispatch(context.Background(), change, Options{})
	require.NoError(t, err)
	assert.False(t, resp.Analysis)
	assert.Equal(t, "OK, Mutations. What would you like to know?", resp.Speech)
	assert.Empty(t, b.calls)
}

func TestDispatchFollowUpNoDiff(t *testing.T) {
	d := NewDispatcher(0)
	resp, err := d.Dispatch(context.Background(), state.Merge(state.ConversationState{}, nil), Options{})
	require.NoError(t, err)
	assert.Equal(t, msgFollowUp, resp.Speech)
}

func TestDispatchInvokesBuilder(t *testing.T) {
	tcga := &recordingBuilder{}
	clinvar := &recordingBuilder{}
	d := NewDispatcher(0)
	d.Register(Route{state.Mutations, state.TCGA}, tcga)
	d.Register(Route{state.Mutations, state.ClinVar}, clinvar)

	change := state.StateChange{Merged: state.ConversationState{GeneName: "TP53", StudyAbbreviation: "BRCA", DataType: "MUTATIONS"}}
	resp, err := d.Dispatch(context.Background(), change, Options{SplitBy: state.Loss})
	require.NoError(t, err)
	assert.True(t, resp.Analysis)
	require.NotNil(t, resp.Route)
	assert.Equal(t, Route{state.Mutations, state.TCGA}, *resp.Route)
	require.Len(t, tcga.calls, 1)
	assert.Empty(t, clinvar.calls)
	assert.Equal(t, "TCGA", tcga.calls[0].State.DataSource)
	assert.Equal(t, state.Loss, tcga.calls[0].SplitBy)
}

func TestDispatchDiffOverride(t *testing.T) {
	b := &recordingBuilder{}
	d := NewDispatcher(0)
	d.Register(Route{state.CNA, state.TCGA}, b)

	cmp := state.ConversationState{GeneName: "KRAS", DataType: "CNA"}
	diff := state.StateDiff{EntityType: state.AttrGene, EntityValue: "KRAS"}
	change := state.StateChange{Merged: state.ConversationState{GeneName: "TP53", DataType: "CNA"}}
	_, err := d.Dispatch(context.Background(), change, Options{CompareState: &cmp, Diff: &diff})
	require.NoError(t, err)
	require.Len(t, b.calls, 1)
	assert.Equal(t, diff, b.calls[0].Diff)
	assert.Equal(t, &cmp, b.calls[0].CompareState)
}

func TestDispatchMissingBuilder(t *testing.T) {
	d := NewDispatcher(0)
	change := state.StateChange{Merged: state.ConversationState{GeneName: "TP53", DataType: "MUTATIONS", DataSource: "CLINVAR"}}
	_, err := d.Dispatch(context.Background(), change, Options{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidDataType, apperr.KindOf(err))
}

func TestDispatchUnknownDataType(t *testing.T) {
	d := NewDispatcher(0)
	change := state.StateChange{Merged: state.ConversationState{GeneName: "TP53", DataType: "FOO"}}
	_, err := d.Dispatch(context.Background(), change, Options{})
	assert.Equal(t, apperr.KindInvalidDataType, apperr.KindOf(err))
}

func TestDispatchWrapsBuilderError(t *testing.T) {
	cause := errors.New("analytics 503")
	d := NewDispatcher(0)
	d.Register(Route{state.Mutations, state.TCGA}, &recordingBuilder{err: cause})

	change := state.StateChange{Merged: state.ConversationState{GeneName: "TP53", DataType: "MUTATIONS"}}
	_, err := d.Dispatch(context.Background(), change, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	assert.Equal(t, apperr.MsgGeneric, apperr.Fallback(err))
}

func TestBuilderFunc(t *testing.T) {
	d := NewDispatcher(0)
	d.Register(Route{state.Overview, state.TCGA}, BuilderFunc(func(_ context.Context, req Request) (Response, error) {
		return Response{Speech: "overview of " + req.State.StudyAbbreviation}, nil
	}))
	resp, err := d.Dispatch(context.Background(),
		state.StateChange{Merged: state.ConversationState{StudyAbbreviation: "BRCA", DataType: "OVERVIEW"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "overview of BRCA", resp.Speech)
}

func TestRoutes(t *testing.T) {
	d := NewDispatcher(0)
	d.RegisterAll(RoutesFrom(requirement.DefaultTables()), SummaryBuilder{})
	routes := d.Routes()
	assert.Len(t, routes, 18)
	assert.Equal(t, state.ClinVar, routes[0].DataSource)
	assert.NotContains(t, routes, Route{state.CNA, state.ClinVar})
}

func TestSummaryBuilder(t *testing.T) {
	cases := []struct {
		req  Request
		want string
	}{
		{
			Request{State: state.ConversationState{GeneName: "TP53", StudyAbbreviation: "BRCA", DataType: "MUTATIONS", DataSource: "TCGA"}},
			"Here is the mutations analysis for TP53 in BRCA from TCGA.",
		},
		{
			Request{State: state.ConversationState{StudyAbbreviation: "OV", DataType: "CNA"}, SplitBy: state.GeneExpression},
			"Here is the copy number alteration analysis in OV from TCGA, split by gene expression.",
		},
		{
			Request{
				State:        state.ConversationState{GeneName: "TP53", DataType: "GAIN"},
				CompareState: &state.ConversationState{GeneName: "KRAS", DataType: "GAIN"},
				Diff:         state.StateDiff{EntityType: state.AttrGene, EntityValue: "KRAS"},
			},
			"Here is the gain analysis for TP53 from TCGA, compared with KRAS.",
		},
	}
	for _, tc := range cases {
		resp, err := SummaryBuilder{}.Build(context.Background(), tc.req)
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.Speech)
	}
}
