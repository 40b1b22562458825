package connect

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

const (
	// UserIDHeader is the header carrying the calling user's id.
	UserIDHeader = "X-User-Id"
	// RequestIDHeader is the response header carrying the request id.
	RequestIDHeader = "X-Request-Id"
)

type userIDKey struct{}

// UserIDFromContext returns the user id stored by the user interceptor.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

var errMissingUser = errors.New("missing " + UserIDHeader + " header")

// userInterceptor resolves the calling user from request headers.
type userInterceptor struct{}

// NewUserInterceptor creates an interceptor that requires the user id header
// on every handler call and stores it in the context.
func NewUserInterceptor() connect.Interceptor {
	return userInterceptor{}
}

func (userInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		userID := req.Header().Get(UserIDHeader)
		if userID == "" {
			return nil, connect.NewError(connect.CodeUnauthenticated, errMissingUser)
		}
		return next(context.WithValue(ctx, userIDKey{}, userID), req)
	}
}

func (userInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (userInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		userID := conn.RequestHeader().Get(UserIDHeader)
		if userID == "" {
			return connect.NewError(connect.CodeUnauthenticated, errMissingUser)
		}
		return next(context.WithValue(ctx, userIDKey{}, userID), conn)
	}
}

// NewLoggingInterceptor creates an interceptor that tags each unary call
// with a request id and logs its outcome.
func NewLoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				return next(ctx, req)
			}

			requestID := uuid.New().String()
			start := time.Now()
			resp, err := next(ctx, req)

			event := zlog.Debug()
			if err != nil {
				event = zlog.Warn().Str("code", connect.CodeOf(err).String()).Err(err)
			}
			event.
				Str("request_id", requestID).
				Str("procedure", req.Spec().Procedure).
				Str("user_id", req.Header().Get(UserIDHeader)).
				Dur("duration", time.Since(start)).
				Msg("rpc")

			if err != nil {
				return nil, err
			}
			resp.Header().Set(RequestIDHeader, requestID)
			return resp, nil
		}
	}
}
