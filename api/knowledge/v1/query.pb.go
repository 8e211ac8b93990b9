// Hand-maintained stubs for query.proto. Regenerate with protoc-gen-go once
// the build pipeline grows a protoc step.
package knowledgev1

import (
	context "context"
	fmt "fmt"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

// QueryRequest is a tenant-scoped retrieval query.
type QueryRequest struct {
	TenantId string `protobuf:"bytes,1,opt,name=tenant_id,json=tenantId,proto3" json:"tenant_id,omitempty"`
	Query    string `protobuf:"bytes,2,opt,name=query,proto3" json:"query,omitempty"`
	TopK     int32  `protobuf:"varint,3,opt,name=top_k,json=topK,proto3" json:"top_k,omitempty"`
}

func (m *QueryRequest) Reset()         { *m = QueryRequest{} }
func (m *QueryRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*QueryRequest) ProtoMessage()    {}

func (m *QueryRequest) GetTenantId() string {
	if m != nil {
		return m.TenantId
	}
	return ""
}

func (m *QueryRequest) GetQuery() string {
	if m != nil {
		return m.Query
	}
	return ""
}

func (m *QueryRequest) GetTopK() int32 {
	if m != nil {
		return m.TopK
	}
	return 0
}

// QueryResult is one retrieved document.
type QueryResult struct {
	Content  string            `protobuf:"bytes,1,opt,name=content,proto3" json:"content,omitempty"`
	Score    float32           `protobuf:"fixed32,2,opt,name=score,proto3" json:"score,omitempty"`
	Source   string            `protobuf:"bytes,3,opt,name=source,proto3" json:"source,omitempty"`
	Metadata map[string]string `protobuf:"bytes,4,rep,name=metadata,proto3" json:"metadata,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

func (m *QueryResult) Reset()         { *m = QueryResult{} }
func (m *QueryResult) String() string { return fmt.Sprintf("%+v", *m) }
func (*QueryResult) ProtoMessage()    {}

func (m *QueryResult) GetContent() string {
	if m != nil {
		return m.Content
	}
	return ""
}

func (m *QueryResult) GetScore() float32 {
	if m != nil {
		return m.Score
	}
	return 0
}

func (m *QueryResult) GetSource() string {
	if m != nil {
		return m.Source
	}
	return ""
}

func (m *QueryResult) GetMetadata() map[string]string {
	if m != nil {
		return m.Metadata
	}
	return nil
}

// QueryResponse carries the ordered result list.
type QueryResponse struct {
	Results []*QueryResult `protobuf:"bytes,1,rep,name=results,proto3" json:"results,omitempty"`
}

func (m *QueryResponse) Reset()         { *m = QueryResponse{} }
func (m *QueryResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*QueryResponse) ProtoMessage()    {}

func (m *QueryResponse) GetResults() []*QueryResult {
	if m != nil {
		return m.Results
	}
	return nil
}

const queryFullMethod = "/sentiric.knowledge.v1.KnowledgeQueryService/Query"

// KnowledgeQueryServiceClient is the client API for KnowledgeQueryService.
type KnowledgeQueryServiceClient interface {
	Query(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) (*QueryResponse, error)
}

type knowledgeQueryServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewKnowledgeQueryServiceClient creates a client over cc.
func NewKnowledgeQueryServiceClient(cc grpc.ClientConnInterface) KnowledgeQueryServiceClient {
	return &knowledgeQueryServiceClient{cc}
}

func (c *knowledgeQueryServiceClient) Query(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) (*QueryResponse, error) {
	out := new(QueryResponse)
	err := c.cc.Invoke(ctx, queryFullMethod, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// KnowledgeQueryServiceServer is the server API for KnowledgeQueryService.
type KnowledgeQueryServiceServer interface {
	Query(context.Context, *QueryRequest) (*QueryResponse, error)
}

// UnimplementedKnowledgeQueryServiceServer can be embedded for forward
// compatibility.
type UnimplementedKnowledgeQueryServiceServer struct{}

func (*UnimplementedKnowledgeQueryServiceServer) Query(context.Context, *QueryRequest) (*QueryResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Query not implemented")
}

// RegisterKnowledgeQueryServiceServer registers srv on s.
func RegisterKnowledgeQueryServiceServer(s grpc.ServiceRegistrar, srv KnowledgeQueryServiceServer) {
	s.RegisterService(&KnowledgeQueryService_ServiceDesc, srv)
}

func _KnowledgeQueryService_Query_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(QueryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KnowledgeQueryServiceServer).Query(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: queryFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(KnowledgeQueryServiceServer).Query(ctx, req.(*QueryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// KnowledgeQueryService_ServiceDesc is the grpc.ServiceDesc for
// KnowledgeQueryService.
var KnowledgeQueryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "sentiric.knowledge.v1.KnowledgeQueryService",
	HandlerType: (*KnowledgeQueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Query",
			Handler:    _KnowledgeQueryService_Query_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/knowledge/v1/query.proto",
}
