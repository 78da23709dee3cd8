// Package resolver turns a free-text query into one typed entity. The
// production resolver is a remote gRPC service; Literal and Scripted serve
// the CLI, replay fixtures and tests.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/apperr"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// ResolveMethod is the full gRPC method name of the entity resolver.
const ResolveMethod = "/melvin.resolver.v1.EntityResolver/Resolve"

// #region interface
// Resolver resolves one entity from query. An empty query resolves to nil.
type Resolver interface {
	Resolve(ctx context.Context, query string, current state.ConversationState) (*state.ResolvedEntity, error)
}

// Service is the RPC surface the client calls. Requests and responses are
// structpb messages so no generated stubs are needed.
type Service interface {
	Resolve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// #endregion interface

// #region client-struct
// Client wraps the gRPC connection to the entity resolver service.
type Client struct {
	conn    *grpc.ClientConn
	svc     Service
	timeout time.Duration
}

// #endregion client-struct

// #region constructor
// NewClient connects to the resolver at addr. A positive timeout bounds
// every Resolve call.
func NewClient(addr string, timeout time.Duration) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, svc: connService{conn}, timeout: timeout}, nil
}

// NewClientWithService creates a Client with an injected service.
// Used for testing without a real gRPC connection.
func NewClientWithService(svc Service) *Client {
	return &Client{svc: svc}
}

// WithTimeout sets the per-call deadline and returns c.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

type connService struct {
	conn *grpc.ClientConn
}

func (s connService) Resolve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := s.conn.Invoke(ctx, ResolveMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region resolve
// Resolve sends the query and current state and decodes {kind, value}.
// Any failure is an OOV_ERROR.
func (c *Client) Resolve(ctx context.Context, query string, current state.ConversationState) (*state.ResolvedEntity, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	req, err := structpb.NewStruct(map[string]any{
		"query": query,
		"context": map[string]any{
			"gene_name":          current.GeneName,
			"study_abbreviation": current.StudyAbbreviation,
			"data_type":          current.DataType,
			"data_source":        current.DataSource,
		},
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindOOV, apperr.MsgOOV, fmt.Errorf("encode resolve request: %w", err))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.svc.Resolve(ctx, req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindOOV, apperr.MsgOOV, fmt.Errorf("resolve rpc: %w", err))
	}
	return decodeEntity(resp)
}

func decodeEntity(resp *structpb.Struct) (*state.ResolvedEntity, error) {
	fields := resp.GetFields()
	kind := strings.ToUpper(fields["kind"].GetStringValue())
	value := strings.TrimSpace(fields["value"].GetStringValue())
	if kind == "" || value == "" {
		return nil, apperr.Wrap(apperr.KindOOV, apperr.MsgOOV,
			fmt.Errorf("resolve rpc: empty entity in response"))
	}
	e := &state.ResolvedEntity{Kind: state.EntityKind(kind), Value: value}
	if _, ok := e.Kind.Attribute(); !ok {
		return nil, apperr.Wrap(apperr.KindOOV, apperr.MsgOOV,
			fmt.Errorf("resolve rpc: unknown entity kind %q", kind))
	}
	return canonical(e), nil
}

// canonical upper-cases analysis types and data sources so they match the
// closed enums.
func canonical(e *state.ResolvedEntity) *state.ResolvedEntity {
	switch e.Kind {
	case state.EntityDataType, state.EntityDataSource, state.EntityStudy:
		e.Value = strings.ToUpper(e.Value)
	}
	return e
}

// #endregion resolve
