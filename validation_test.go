package turbo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbo-genesis/turbo-go/application/command"
	"github.com/turbo-genesis/turbo-go/domain/entities"
	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

type moveRequest struct {
	Direction string `validate:"oneof=up down left right"`
	Steps     uint32 `validate:"gt=0,lte=10"`
}

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{name: "valid", value: moveRequest{Direction: "up", Steps: 3}},
		{name: "valid pointer", value: &moveRequest{Direction: "left", Steps: 10}},
		{name: "bad direction", value: moveRequest{Direction: "sideways", Steps: 1}, wantErr: true},
		{name: "zero steps", value: moveRequest{Direction: "down"}, wantErr: true},
		{name: "too many steps", value: &moveRequest{Direction: "down", Steps: 11}, wantErr: true},
		{name: "nil pointer", value: (*moveRequest)(nil)},
		{name: "scalar", value: uint32(0)},
		{name: "empty", value: Empty{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayload(tt.value)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, entities.ErrorKindDecode, domainerrors.KindOf(err))
		})
	}
}

func TestCommand(t *testing.T) {
	calls := 0
	h := Command(func(_ context.Context, _ string, req moveRequest) (uint32, error) {
		calls++
		return req.Steps * 2, nil
	})

	d, err := command.NewDispatcher(command.WithHandler("move", h))
	require.NoError(t, err)

	payload, err := wireformat.Marshal(moveRequest{Direction: "up", Steps: 2})
	require.NoError(t, err)
	res := d.Dispatch(context.Background(), wireformat.CommandRequest{Name: "move", Payload: payload})
	require.True(t, res.OK, res.Message)
	got, err := wireformat.Decode[uint32](res.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), got)

	payload, err = wireformat.Marshal(moveRequest{Direction: "up", Steps: 0})
	require.NoError(t, err)
	res = d.Dispatch(context.Background(), wireformat.CommandRequest{Name: "move", Payload: payload})
	assert.False(t, res.OK)
	assert.Equal(t, entities.ErrorKindDecode, res.Kind)
	assert.Contains(t, res.Message, "Steps")
	assert.Equal(t, 1, calls)

	typer, ok := h.(command.PayloadTyper)
	require.True(t, ok)
	assert.Equal(t, "moveRequest", typer.PayloadType().Name())
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, Version)
}
