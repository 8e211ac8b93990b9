package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	knowledgev1 "github.com/sentiric/knowledge-query-service/api/knowledge/v1"
	"github.com/sentiric/knowledge-query-service/internal/engine"
	"github.com/sentiric/knowledge-query-service/internal/readiness"
)

type fakeSearcher struct {
	results []engine.Result
	err     error

	gotTenant string
	gotQuery  string
	gotTopK   int
	calls     int
}

func (f *fakeSearcher) Search(ctx context.Context, tenantID, query string, topK int) ([]engine.Result, error) {
	f.calls++
	f.gotTenant = tenantID
	f.gotQuery = query
	f.gotTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func newTestService(searcher *fakeSearcher, ready bool) *Service {
	state := readiness.NewState()
	if ready {
		state.SetModelReady(true)
		state.SetIndexReady(true)
	}
	return NewService(searcher, state, 3, 20, zap.NewNop())
}

func TestQueryValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     *knowledgev1.QueryRequest
		wantMsg string
	}{
		{
			name:    "missing tenant_id",
			req:     &knowledgev1.QueryRequest{Query: "refund policy"},
			wantMsg: "tenant_id is required",
		},
		{
			name:    "missing query",
			req:     &knowledgev1.QueryRequest{TenantId: "acme"},
			wantMsg: "query is required",
		},
		{
			name:    "top_k above maximum",
			req:     &knowledgev1.QueryRequest{TenantId: "acme", Query: "q", TopK: 21},
			wantMsg: "top_k must be within [1, 20]",
		},
		{
			name:    "negative top_k",
			req:     &knowledgev1.QueryRequest{TenantId: "acme", Query: "q", TopK: -5},
			wantMsg: "top_k must be within [1, 20]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			svc := newTestService(searcher, true)

			_, err := svc.Query(context.Background(), tt.req)
			require.Error(t, err)
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, codes.InvalidArgument, st.Code())
			assert.Contains(t, st.Message(), tt.wantMsg)
			assert.Equal(t, 0, searcher.calls)
		})
	}
}

func TestQueryNotReady(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := newTestService(searcher, false)

	_, err := svc.Query(context.Background(), &knowledgev1.QueryRequest{
		TenantId: "acme", Query: "refund policy",
	})
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, 0, searcher.calls)
}

func TestQueryEngineNotReady(t *testing.T) {
	svc := newTestService(&fakeSearcher{err: engine.ErrNotReady}, true)

	_, err := svc.Query(context.Background(), &knowledgev1.QueryRequest{
		TenantId: "acme", Query: "refund policy",
	})
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestQueryDefaultTopK(t *testing.T) {
	searcher := &fakeSearcher{results: []engine.Result{}}
	svc := newTestService(searcher, true)

	_, err := svc.Query(context.Background(), &knowledgev1.QueryRequest{
		TenantId: "acme", Query: "refund policy",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, searcher.gotTopK)
}

func TestQuerySuccess(t *testing.T) {
	searcher := &fakeSearcher{results: []engine.Result{
		{
			Content: "Refunds are processed within 14 days.",
			Score:   0.92,
			Source:  "kb://acme/policies.md",
			Metadata: map[string]any{
				"content":    "Refunds are processed within 14 days.",
				"source_uri": "kb://acme/policies.md",
				"chunk":      int64(4),
				"score_hint": 0.5,
			},
		},
	}}
	svc := newTestService(searcher, true)

	resp, err := svc.Query(context.Background(), &knowledgev1.QueryRequest{
		TenantId: "acme", Query: "refund policy", TopK: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "acme", searcher.gotTenant)
	assert.Equal(t, 5, searcher.gotTopK)

	require.Len(t, resp.GetResults(), 1)
	r := resp.GetResults()[0]
	assert.Equal(t, "Refunds are processed within 14 days.", r.GetContent())
	assert.InDelta(t, 0.92, float64(r.GetScore()), 1e-6)
	assert.Equal(t, "kb://acme/policies.md", r.GetSource())

	// Non-string payload values are stringified on the wire.
	assert.Equal(t, "4", r.GetMetadata()["chunk"])
	assert.Equal(t, "0.5", r.GetMetadata()["score_hint"])
	assert.Equal(t, "kb://acme/policies.md", r.GetMetadata()["source_uri"])
}

func TestQueryAbsentCollectionIsOKWithEmptyResults(t *testing.T) {
	// The engine converts an absent collection to an empty result set before
	// it reaches this layer; the response is OK, never NOT_FOUND.
	svc := newTestService(&fakeSearcher{results: []engine.Result{}}, true)

	resp, err := svc.Query(context.Background(), &knowledgev1.QueryRequest{
		TenantId: "brand-new", Query: "anything",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.GetResults())
}

func TestQueryDependencyFailureDoesNotLeak(t *testing.T) {
	svc := newTestService(&fakeSearcher{
		err: errors.New("dependency failure: qdrant at 10.0.0.5:6334 refused"),
	}, true)

	_, err := svc.Query(context.Background(), &knowledgev1.QueryRequest{
		TenantId: "acme", Query: "refund policy",
	})
	require.Error(t, err)
	st := status.Convert(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal processing error", st.Message())
	assert.NotContains(t, st.Message(), "10.0.0.5")
}

func TestQueryCanceled(t *testing.T) {
	svc := newTestService(&fakeSearcher{err: context.Canceled}, true)

	_, err := svc.Query(context.Background(), &knowledgev1.QueryRequest{
		TenantId: "acme", Query: "refund policy",
	})
	assert.Equal(t, codes.Canceled, status.Code(err))
}
