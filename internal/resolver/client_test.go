package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/apperr"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// #region mock
type mockResolverService struct {
	resp        *structpb.Struct
	err         error
	last        *structpb.Struct
	n           int
	hadDeadline bool
	block       bool
}

func (m *mockResolverService) Resolve(ctx context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	m.n++
	m.last = in
	_, m.hadDeadline = ctx.Deadline()
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.resp, m.err
}

func entityStruct(t *testing.T, kind, value string) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(map[string]any{"kind": kind, "value": value})
	if err != nil {
		t.Fatalf("structpb: %v", err)
	}
	return s
}

// #endregion mock

// #region constructor-tests
func TestNewClientInvalidAddr(t *testing.T) {
	client, err := NewClient("localhost:0", time.Second)
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	defer client.Close()
}

func TestNewClientWithService(t *testing.T) {
	c := NewClientWithService(&mockResolverService{})
	if c == nil || c.svc == nil {
		t.Fatal("expected client with service")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close without conn: %v", err)
	}
}

// #endregion constructor-tests

// #region resolve-tests
func TestResolve_Success(t *testing.T) {
	mock := &mockResolverService{resp: entityStruct(t, "study", "brca")}
	c := NewClientWithService(mock)

	e, err := c.Resolve(context.Background(), " breast cancer ", state.ConversationState{GeneName: "TP53"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e == nil || e.Kind != state.EntityStudy || e.Value != "BRCA" {
		t.Fatalf("entity = %+v, want STUDY/BRCA", e)
	}
	if got := mock.last.GetFields()["query"].GetStringValue(); got != "breast cancer" {
		t.Errorf("query = %q, want trimmed", got)
	}
	ctx := mock.last.GetFields()["context"].GetStructValue().GetFields()
	if got := ctx["gene_name"].GetStringValue(); got != "TP53" {
		t.Errorf("context gene_name = %q, want TP53", got)
	}
}

func TestResolve_EmptyQuerySkipsRPC(t *testing.T) {
	mock := &mockResolverService{}
	c := NewClientWithService(mock)

	e, err := c.Resolve(context.Background(), "   ", state.ConversationState{})
	if err != nil || e != nil {
		t.Fatalf("Resolve(empty) = %v, %v; want nil, nil", e, err)
	}
	if mock.n != 0 {
		t.Errorf("rpc called %d times, want 0", mock.n)
	}
}

func TestResolve_RPCError(t *testing.T) {
	c := NewClientWithService(&mockResolverService{err: errors.New("unavailable")})

	_, err := c.Resolve(context.Background(), "tp53", state.ConversationState{})
	if err == nil {
		t.Fatal("expected error")
	}
	if apperr.KindOf(err) != apperr.KindOOV {
		t.Errorf("kind = %q, want OOV_ERROR", apperr.KindOf(err))
	}
	if apperr.Fallback(err) != apperr.MsgOOV {
		t.Errorf("fallback = %q", apperr.Fallback(err))
	}
}

func TestResolve_BadResponse(t *testing.T) {
	cases := map[string]*structpb.Struct{
		"empty value":  entityStruct(t, "GENE", ""),
		"unknown kind": entityStruct(t, "DRUG", "imatinib"),
		"no fields":    &structpb.Struct{},
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewClientWithService(&mockResolverService{resp: resp})
			_, err := c.Resolve(context.Background(), "x", state.ConversationState{})
			if apperr.KindOf(err) != apperr.KindOOV {
				t.Fatalf("kind = %q, want OOV_ERROR (err=%v)", apperr.KindOf(err), err)
			}
		})
	}
}

func TestResolve_TimeoutSetsDeadline(t *testing.T) {
	mock := &mockResolverService{resp: entityStruct(t, "GENE", "TP53")}
	if _, err := NewClientWithService(mock).Resolve(context.Background(), "tp53", state.ConversationState{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.hadDeadline {
		t.Error("no timeout configured, but the call carried a deadline")
	}

	if _, err := NewClientWithService(mock).WithTimeout(time.Second).Resolve(context.Background(), "tp53", state.ConversationState{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mock.hadDeadline {
		t.Error("expected the call to carry the client deadline")
	}
}

func TestResolve_TimeoutExpiresAsOOV(t *testing.T) {
	c := NewClientWithService(&mockResolverService{block: true}).WithTimeout(10 * time.Millisecond)

	_, err := c.Resolve(context.Background(), "tp53", state.ConversationState{})
	if apperr.KindOf(err) != apperr.KindOOV {
		t.Fatalf("kind = %q, want OOV_ERROR (err=%v)", apperr.KindOf(err), err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded in chain", err)
	}
}

// #endregion resolve-tests

// #region literal-tests
func TestLiteral(t *testing.T) {
	cases := []struct {
		query string
		want  *state.ResolvedEntity
	}{
		{"", nil},
		{"gene TP53", &state.ResolvedEntity{Kind: state.EntityGene, Value: "TP53"}},
		{"study brca", &state.ResolvedEntity{Kind: state.EntityStudy, Value: "BRCA"}},
		{"type cna", &state.ResolvedEntity{Kind: state.EntityDataType, Value: "CNA"}},
		{"source clinvar", &state.ResolvedEntity{Kind: state.EntityDataSource, Value: "CLINVAR"}},
		{"mutations", &state.ResolvedEntity{Kind: state.EntityDataType, Value: "MUTATIONS"}},
		{"tcga", &state.ResolvedEntity{Kind: state.EntityDataSource, Value: "TCGA"}},
		{"kras", &state.ResolvedEntity{Kind: state.EntityGene, Value: "KRAS"}},
	}
	for _, tc := range cases {
		got, err := Literal{}.Resolve(context.Background(), tc.query, state.ConversationState{})
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tc.query, err)
		}
		if (got == nil) != (tc.want == nil) || (got != nil && *got != *tc.want) {
			t.Errorf("Resolve(%q) = %+v, want %+v", tc.query, got, tc.want)
		}
	}

	_, err := Literal{}.Resolve(context.Background(), "show me everything now", state.ConversationState{})
	if apperr.KindOf(err) != apperr.KindOOV {
		t.Errorf("long phrase kind = %q, want OOV_ERROR", apperr.KindOf(err))
	}
}

func TestScripted(t *testing.T) {
	s := NewScripted(map[string]state.ResolvedEntity{
		"tp53": {Kind: state.EntityGene, Value: "TP53"},
	})
	s.Add("breast", state.ResolvedEntity{Kind: state.EntityStudy, Value: "BRCA"})

	e, err := s.Resolve(context.Background(), "breast", state.ConversationState{})
	if err != nil || e.Value != "BRCA" {
		t.Fatalf("Resolve(breast) = %v, %v", e, err)
	}
	if _, err := s.Resolve(context.Background(), "gibberish", state.ConversationState{}); apperr.KindOf(err) != apperr.KindOOV {
		t.Errorf("unknown query kind = %q", apperr.KindOf(err))
	}
	if e, _ := s.Resolve(context.Background(), "", state.ConversationState{}); e != nil {
		t.Errorf("empty query = %+v, want nil", e)
	}
	if s.Calls() != 2 {
		t.Errorf("calls = %d, want 2", s.Calls())
	}
}

// #endregion literal-tests
