package navigation

import (
	"context"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// #region route
// Route keys a response builder.
type Route struct {
	DataType   state.DataType   `json:"data_type"`
	DataSource state.DataSource `json:"data_source"`
}

// #endregion route

// #region request
// Request is what a builder receives: the validated state plus, for compare
// and split-by turns, the second half of the view.
type Request struct {
	State        state.ConversationState
	CompareState *state.ConversationState
	Diff         state.StateDiff
	SplitBy      state.DataType
}

// #endregion request

// #region response
// Response is the renderable outcome of a turn. Rendering to speech markup
// and cards happens outside the engine.
type Response struct {
	Speech   string `json:"speech"`
	Reprompt string `json:"reprompt,omitempty"`
	CardText string `json:"card_text,omitempty"`
	// Analysis is true when a builder produced the response, false for
	// acknowledgements and follow-up prompts.
	Analysis bool   `json:"analysis"`
	Route    *Route `json:"route,omitempty"`
}

// #endregion response

// #region builder
// Builder produces the response for one (data type, data source) route.
type Builder interface {
	Build(ctx context.Context, req Request) (Response, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, req Request) (Response, error)

func (f BuilderFunc) Build(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// #endregion builder

// #region options
// Options carries the extra inputs of compare and split-by turns.
type Options struct {
	CompareState *state.ConversationState
	// Diff overrides the diff computed from the state change.
	Diff    *state.StateDiff
	SplitBy state.DataType
}

// #endregion options
