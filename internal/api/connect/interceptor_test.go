package connect

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingInterceptor(t *testing.T) {
	interceptor := NewLoggingInterceptor()

	t.Run("failed call returns the handler error", func(t *testing.T) {
		next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			var resp *connect.Response[CommandResponse]
			return resp, connect.NewError(connect.CodeInvalidArgument, errors.New("bad volume"))
		}

		var (
			resp connect.AnyResponse
			err  error
		)
		require.NotPanics(t, func() {
			resp, err = interceptor(next)(context.Background(), connect.NewRequest(&SetVolumeRequest{}))
		})
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})

	t.Run("successful call carries a request id", func(t *testing.T) {
		next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return connect.NewResponse(&CommandResponse{Success: true}), nil
		}

		resp, err := interceptor(next)(context.Background(), connect.NewRequest(&SetVolumeRequest{}))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Header().Get(RequestIDHeader))
	})
}
