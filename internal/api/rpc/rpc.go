// Package rpc holds the pieces shared by the hand-registered gRPC services:
// unary method descriptors over structpb messages, error translation and
// token authentication.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/auth"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Method is a unary RPC implemented on a server of type S.
type Method[S any] func(srv S, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// Unary describes a unary method taking and returning a Struct.
func Unary[S any](service, name string, fn Method[S]) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(S), ctx, req.(*structpb.Struct))
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}, call)
		},
	}
}

var ErrPermissionDenied = errors.New("permission denied")

// Error converts a service error into a gRPC status. Errors outside the domain
// taxonomy are reported as Internal without their message.
func Error(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(Code(err), message(err))
}

func Code(err error) codes.Code {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrState):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrDuplicate):
		return codes.AlreadyExists
	case errors.Is(err, domain.ErrUnauthorized):
		return codes.Unauthenticated
	case errors.Is(err, ErrPermissionDenied):
		return codes.PermissionDenied
	}
	return codes.Internal
}

func message(err error) string {
	if Code(err) == codes.Internal {
		return "internal error"
	}
	return err.Error()
}

type identityKey struct{}

// AuthInterceptor verifies the token in the "authorization" metadata and puts
// the caller's identity on the context.
func AuthInterceptor(authService auth.AuthUseCase, log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		token := tokenFrom(ctx)
		if token == "" {
			return nil, status.Error(codes.Unauthenticated, "missing authorization metadata")
		}
		identity, err := authService.Authenticate(ctx, token)
		if err != nil {
			return nil, Error(err)
		}

		resp, err := handler(context.WithValue(ctx, identityKey{}, identity), req)
		if err != nil && status.Code(err) == codes.Internal {
			log.WithFields(logrus.Fields{
				"method":  info.FullMethod,
				"user_id": identity.UserID,
			}).WithError(err).Error("rpc failed")
		}
		return resp, err
	}
}

func tokenFrom(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	token := strings.TrimSpace(values[0])
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

func IdentityFrom(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityKey{}).(*auth.Identity)
	return identity
}

// WithIdentity is used by tests and in-process callers that have already
// authenticated.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// Encode renders v through its JSON form, so RPC field names match the HTTP
// API.
func Encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return structpb.NewStruct(fields)
}

// ID reads a positive integral number field.
func ID(req *structpb.Struct, field string) (int64, error) {
	v, ok := req.GetFields()[field]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", field)
	}
	n := v.GetNumberValue()
	if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber || n <= 0 || n != math.Trunc(n) || n >= 1<<63 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a positive integer", field)
	}
	return int64(n), nil
}

func String(req *structpb.Struct, field string) string {
	return strings.TrimSpace(req.GetFields()[field].GetStringValue())
}

func Bool(req *structpb.Struct, field string) bool {
	return req.GetFields()[field].GetBoolValue()
}
