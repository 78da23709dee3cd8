// Package navigation routes a complete conversation state to the response
// builder for its analysis and data source, or asks a follow-up question
// when the state is still partial.
package navigation

import (
	"context"
	"fmt"
	"sort"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/apperr"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/requirement"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// DefaultMinAttributes is the number of filled attributes (data type
// included) below which the dispatcher asks a follow-up question.
const DefaultMinAttributes = 2

const (
	msgFollowUp       = "What would you like to know?"
	msgUnknownInState = "Sorry, I don't know how to answer for that analysis yet."
)

// #region dispatcher
// Dispatcher maps routes to builders.
type Dispatcher struct {
	builders map[Route]Builder
	minAttrs int
}

// NewDispatcher creates an empty dispatcher. minAttrs <= 0 selects
// DefaultMinAttributes.
func NewDispatcher(minAttrs int) *Dispatcher {
	if minAttrs <= 0 {
		minAttrs = DefaultMinAttributes
	}
	return &Dispatcher{builders: make(map[Route]Builder), minAttrs: minAttrs}
}

// Register binds b to route, replacing any earlier builder.
func (d *Dispatcher) Register(route Route, b Builder) {
	d.builders[route] = b
}

// RegisterAll binds b to every route.
func (d *Dispatcher) RegisterAll(routes []Route, b Builder) {
	for _, r := range routes {
		d.Register(r, b)
	}
}

// Routes lists the registered routes in a stable order.
func (d *Dispatcher) Routes() []Route {
	routes := make([]Route, 0, len(d.builders))
	for r := range d.builders {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].DataSource != routes[j].DataSource {
			return routes[i].DataSource < routes[j].DataSource
		}
		return routes[i].DataType < routes[j].DataType
	})
	return routes
}

// Dispatch answers change.Merged. The state is assumed validated; partial
// states get an acknowledgement of what changed and a follow-up question.
func (d *Dispatcher) Dispatch(ctx context.Context, change state.StateChange, opts Options) (Response, error) {
	merged := change.Merged.Normalized()
	diff := state.Diff(change)
	if opts.Diff != nil {
		diff = *opts.Diff
	}

	if merged.DataType == "" || merged.FilledCount() < d.minAttrs {
		return FollowUp(diff), nil
	}

	dt, err := state.ParseDataType(merged.DataType)
	if err != nil {
		return Response{}, apperr.Wrap(apperr.KindInvalidDataType, msgUnknownInState,
			fmt.Errorf("unknown data type in state: %w", err))
	}
	route := Route{DataType: dt, DataSource: merged.Source()}
	b, ok := d.builders[route]
	if !ok {
		return Response{}, apperr.New(apperr.KindInvalidDataType, msgUnknownInState)
	}

	resp, err := b.Build(ctx, Request{
		State:        merged,
		CompareState: opts.CompareState,
		Diff:         diff,
		SplitBy:      opts.SplitBy,
	})
	if err != nil {
		return Response{}, apperr.Wrap(apperr.KindInvalidState, apperr.MsgGeneric,
			fmt.Errorf("build %s/%s: %w", route.DataType, route.DataSource, err))
	}
	resp.Analysis = true
	resp.Route = &route
	return resp, nil
}

// #endregion dispatcher

// #region follow-up
// FollowUp acknowledges the changed attribute and asks what to do with it.
func FollowUp(diff state.StateDiff) Response {
	speech := msgFollowUp
	if ack := acknowledge(diff); ack != "" {
		speech = ack + " " + msgFollowUp
	}
	return Response{Speech: speech, Reprompt: msgFollowUp}
}

func acknowledge(diff state.StateDiff) string {
	switch diff.EntityType {
	case state.AttrGene:
		return fmt.Sprintf("OK, gene %s.", diff.EntityValue)
	case state.AttrStudy:
		return fmt.Sprintf("OK, cancer type %s.", diff.EntityValue)
	case state.AttrDataType:
		return fmt.Sprintf("OK, %s.", state.DataType(diff.EntityValue).Label())
	case state.AttrDataSource:
		return fmt.Sprintf("OK, switching to the %s data source.", diff.EntityValue)
	}
	return ""
}

// #endregion follow-up

// #region routes-from-tables
// RoutesFrom lists every route the requirement tables accept.
func RoutesFrom(tables requirement.Tables) []Route {
	var routes []Route
	for src, table := range tables {
		for dt := range table {
			routes = append(routes, Route{DataType: dt, DataSource: src})
		}
	}
	return routes
}

// #endregion routes-from-tables
