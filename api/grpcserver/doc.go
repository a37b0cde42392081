// Package grpcserver exposes StackService over gRPC as
// lifo.v1.StackService and provides a matching client.
package grpcserver
