package grpcserver

import (
	"context"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a thin typed wrapper over a connection to StackService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Push(ctx context.Context, payload []byte) (uint64, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Push", wrapperspb.Bytes(payload), out); err != nil {
		return 0, errors.Wrap(err, "push")
	}
	return out.GetValue(), nil
}

// Pop returns ok=false when the stack was empty.
func (c *Client) Pop(ctx context.Context) ([]byte, bool, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, "/"+serviceName+"/Pop", &emptypb.Empty{}, out)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "pop")
	}
	return out.GetValue(), true, nil
}

func (c *Client) Len(ctx context.Context) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Len", &emptypb.Empty{}, out); err != nil {
		return 0, errors.Wrap(err, "len")
	}
	return out.GetValue(), nil
}

// Stats returns the server's stack statistics as a plain map.
func (c *Client) Stats(ctx context.Context) (map[string]interface{}, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Stats", &emptypb.Empty{}, out); err != nil {
		return nil, errors.Wrap(err, "stats")
	}
	return out.AsMap(), nil
}
