package hostfuncs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/internal/testutil"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

func TestNewResultHandler(t *testing.T) {
	handler := NewResultHandler(func(_ context.Context, payload []byte) ([]byte, error) {
		if len(payload) == 0 {
			return nil, entities.NewErrorDetail(entities.ErrorKindState, "empty")
		}
		return append([]byte("echo:"), payload...), nil
	})

	t.Run("success", func(t *testing.T) {
		resp, err := handler(context.Background(), []byte("hi"))
		require.NoError(t, err)
		assert.Equal(t, []byte("echo:hi"), testutil.RequireOk(t, resp))
	})

	t.Run("error keeps kind", func(t *testing.T) {
		resp, err := handler(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "empty", testutil.RequireErr(t, resp, entities.ErrorKindState))
	})
}

func TestNewEnvelopeHandler(t *testing.T) {
	var got wireformat.ChannelOutbound
	handler := NewEnvelopeHandler(func(_ context.Context, msg wireformat.ChannelOutbound) ([]byte, error) {
		got = msg
		if msg.Channel == "closed" {
			return nil, errors.New("channel closed")
		}
		return nil, nil
	})

	t.Run("decodes request", func(t *testing.T) {
		req, err := wireformat.ChannelOutbound{Channel: "chat", UserID: "u1", Payload: []byte("hi")}.MarshalBinary()
		require.NoError(t, err)

		resp, err := handler(context.Background(), req)
		require.NoError(t, err)
		testutil.RequireOk(t, resp)
		assert.Equal(t, "chat", got.Channel)
		assert.Equal(t, "u1", got.UserID)
	})

	t.Run("handler error", func(t *testing.T) {
		req, err := wireformat.ChannelOutbound{Channel: "closed"}.MarshalBinary()
		require.NoError(t, err)

		resp, err := handler(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "channel closed", testutil.RequireErr(t, resp, entities.ErrorKindHandler))
	})

	t.Run("malformed request", func(t *testing.T) {
		ctx := NewHostContext(context.Background(), FuncChannelSend)
		resp, err := handler(ctx, []byte{1, 2})
		require.NoError(t, err)
		msg := testutil.RequireErr(t, resp, entities.ErrorKindDecode)
		assert.Contains(t, msg, "decode channel_send request")
	})
}
