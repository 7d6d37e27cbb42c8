//go:build !wasip1

package guest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbo-genesis/turbo-go/domain/entities"
)

func TestHostPorts_NativeBuild(t *testing.T) {
	p := HostPorts()

	_, err := p.Store.Load(context.Background())
	var detail *entities.ErrorDetail
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, entities.ErrorKindNotFound, detail.Kind)
	assert.Contains(t, detail.Message, "turbo.hot_load")
}
