package grpcserver

import (
	"context"
	"log"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"lifo/service"
)

// Server adapts StackService to gRPC.
type Server struct {
	svc *service.StackService
}

var _ StackServiceServer = (*Server)(nil)

func NewServer(svc *service.StackService) *Server {
	return &Server{svc: svc}
}

// -------------------- Commands --------------------

func (s *Server) Push(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.UInt64Value, error) {
	id, err := s.svc.Push(req.GetValue())
	if err != nil {
		log.Printf("[gRPC] Push failed: %v", err)
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return wrapperspb.UInt64(id), nil
}

func (s *Server) Pop(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	it, ok, err := s.svc.Pop()
	if err != nil {
		// the item left the stack; losing it here would break at-least-once
		log.Printf("[gRPC] Pop id=%d not durable: %v", it.ID, err)
	}
	if !ok {
		return nil, status.Error(codes.NotFound, "stack is empty")
	}
	return wrapperspb.Bytes(it.Payload), nil
}

// -------------------- Queries --------------------

func (s *Server) Len(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return wrapperspb.Int64(int64(s.svc.Len())), nil
}

func (s *Server) Stats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.svc.Stats()
	out, err := structpb.NewStruct(map[string]interface{}{
		"depth":        st.Depth,
		"epoch":        st.Epoch,
		"participants": st.Participants,
		"pending":      st.Pending,
		"retired":      st.Retired,
		"reclaimed":    st.Reclaimed,
		"dropped":      st.Dropped,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
