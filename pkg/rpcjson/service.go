package rpcjson

import (
	"context"

	"google.golang.org/grpc"
)

// UnaryHandler is a type-erased request handler for one RPC method: decode
// the request into req, invoke the domain logic, return a response value to
// be marshaled by the json codec.
type UnaryHandler func(ctx context.Context, req any) (any, error)

// Method builds a grpc.MethodDesc for one RPC method. newRequest must return
// a fresh pointer to the method's request type on every call — grpc reuses
// MethodDesc across calls, so the decoded value cannot be shared.
func Method(name string, newRequest func() any, handler UnaryHandler) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := newRequest()
			if err := dec(req); err != nil {
				return nil, err
			}

			if interceptor == nil {
				return handler(ctx, req)
			}

			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: name}
			wrapped := func(ctx context.Context, req any) (any, error) {
				return handler(ctx, req)
			}

			return interceptor(ctx, req, info, wrapped)
		},
	}
}

// CallOption is the content-subtype option every client Invoke call must
// pass so grpc negotiates the json codec for that call.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(Name)
}
