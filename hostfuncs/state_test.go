package hostfuncs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
)

func TestHotStore(t *testing.T) {
	ctx := context.Background()
	store := NewHotStore()

	data, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, data)

	in := []byte{1, 2, 3}
	require.NoError(t, store.Save(ctx, in))
	in[0] = 9

	data, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data, "store keeps its own copy")

	data[1] = 9
	again, _ := store.Load(ctx)
	assert.Equal(t, []byte{1, 2, 3}, again, "load returns a copy")

	store.Reset()
	data, _ = store.Load(ctx)
	assert.Empty(t, data)
}

func TestHotStore_Capacity(t *testing.T) {
	ctx := context.Background()
	store := NewHotStore(WithCapacity(4))
	require.NoError(t, store.Save(ctx, []byte{1, 2, 3, 4}))

	err := store.Save(ctx, []byte{1, 2, 3, 4, 5})
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 5, capErr.Size)
	assert.Equal(t, entities.ErrorKindState, domainerrors.KindOf(err))

	data, _ := store.Load(ctx)
	assert.Equal(t, []byte{1, 2, 3, 4}, data, "rejected save leaves state untouched")

	assert.Equal(t, DefaultStateCapacity, NewHotStore(WithCapacity(0)).capacity)
}

func TestHotStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewHotStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(b byte) {
			defer wg.Done()
			_ = store.Save(ctx, []byte{b})
			_, _ = store.Load(ctx)
		}(byte(i))
	}
	wg.Wait()

	data, _ := store.Load(ctx)
	assert.Len(t, data, 1)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "counter.bin")
	store := NewFileStore(path)
	assert.Equal(t, path, store.Path())

	data, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data, "missing file is empty state")

	require.NoError(t, store.Save(ctx, []byte("v1")))
	require.NoError(t, store.Save(ctx, []byte("v2")))

	data, err = NewFileStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data, "state survives a new store on the same path")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileStore_Capacity(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "s.bin"), WithCapacity(2))
	err := store.Save(context.Background(), []byte("abc"))
	var capErr *CapacityError
	assert.ErrorAs(t, err, &capErr)
}

func TestFileStore_LoadError(t *testing.T) {
	dir := t.TempDir()
	_, err := NewFileStore(dir).Load(context.Background())
	assert.Error(t, err, "a directory is not a state file")
}
