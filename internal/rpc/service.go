// Package rpc provides the gRPC front-end for the query engine.
//
// Like the HTTP adapter it carries no retrieval logic: validate, gate on
// readiness, call the engine, map classified faults to gRPC statuses.
package rpc

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	knowledgev1 "github.com/sentiric/knowledge-query-service/api/knowledge/v1"
	"github.com/sentiric/knowledge-query-service/internal/engine"
	"github.com/sentiric/knowledge-query-service/internal/readiness"
)

// Searcher is the engine surface the gRPC adapter needs.
type Searcher interface {
	Search(ctx context.Context, tenantID, queryText string, topK int) ([]engine.Result, error)
}

// Service implements sentiric.knowledge.v1.KnowledgeQueryService.
type Service struct {
	knowledgev1.UnimplementedKnowledgeQueryServiceServer

	searcher    Searcher
	state       *readiness.State
	logger      *zap.Logger
	defaultTopK int
	maxTopK     int
}

// NewService creates the gRPC servicer.
func NewService(searcher Searcher, state *readiness.State, defaultTopK, maxTopK int, logger *zap.Logger) *Service {
	return &Service{
		searcher:    searcher,
		state:       state,
		logger:      logger,
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
	}
}

// Query validates the request, gates on readiness and delegates to the
// engine. Both front-ends apply the same top_k policy: zero means the
// configured default, anything outside [1, max] is an invalid argument.
//
// An absent collection is handled inside the engine and arrives here as an
// empty result list with an OK status; NOT_FOUND is deliberately never used
// for that case.
func (s *Service) Query(ctx context.Context, req *knowledgev1.QueryRequest) (*knowledgev1.QueryResponse, error) {
	if req.GetTenantId() == "" {
		return nil, status.Error(codes.InvalidArgument, "tenant_id is required")
	}
	if req.GetQuery() == "" {
		return nil, status.Error(codes.InvalidArgument, "query is required")
	}

	topK := int(req.GetTopK())
	if topK == 0 {
		topK = s.defaultTopK
	}
	if topK < 1 || topK > s.maxTopK {
		return nil, status.Errorf(codes.InvalidArgument, "top_k must be within [1, %d]", s.maxTopK)
	}

	if !s.state.IsReady() {
		return nil, status.Error(codes.Unavailable, "service is starting, retry later")
	}

	results, err := s.searcher.Search(ctx, req.GetTenantId(), req.GetQuery(), topK)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNotReady):
			return nil, status.Error(codes.Unavailable, "service is starting, retry later")
		case errors.Is(err, context.Canceled):
			return nil, status.Error(codes.Canceled, "request canceled")
		default:
			// Cause already logged by the engine with tenant and collection
			// context; callers get a generic message.
			return nil, status.Error(codes.Internal, "internal processing error")
		}
	}

	resp := &knowledgev1.QueryResponse{
		Results: make([]*knowledgev1.QueryResult, len(results)),
	}
	for i, r := range results {
		resp.Results[i] = &knowledgev1.QueryResult{
			Content:  r.Content,
			Score:    r.Score,
			Source:   r.Source,
			Metadata: stringifyMetadata(r.Metadata),
		}
	}
	return resp, nil
}

// stringifyMetadata flattens payload values into the wire format's
// string-valued map.
func stringifyMetadata(metadata map[string]any) map[string]string {
	if metadata == nil {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			out[k] = val
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
