package wazero

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/hostfuncs"
	"github.com/turbo-genesis/turbo-go/internal/abi"
	"github.com/turbo-genesis/turbo-go/internal/testutil"
)

func memoryOf(s *testutil.Slab) *GuestMemory {
	return NewGuestMemoryWith(s, s.Allocate, s.Deallocate)
}

func put(t *testing.T, s *testutil.Slab, data []byte) uint64 {
	t.Helper()
	packed, err := memoryOf(s).WritePacked(context.Background(), data)
	require.NoError(t, err)
	return packed
}

func TestDefaultAdapterConfig(t *testing.T) {
	cfg := defaultAdapterConfig()

	assert.Equal(t, "turbo", cfg.ModuleName)
	assert.Equal(t, uint32(hostfuncs.DefaultMaxRequestSize), cfg.MaxRequestSize)
	assert.True(t, cfg.VoidFunctions[hostfuncs.FuncLog])

	WithModuleName("custom_module")(&cfg)
	WithMaxRequestSize(2048)(&cfg)
	WithVoidFunction("trace")(&cfg)
	assert.Equal(t, "custom_module", cfg.ModuleName)
	assert.Equal(t, uint32(2048), cfg.MaxRequestSize)
	assert.True(t, cfg.VoidFunctions["trace"])
}

func newRegistry(t *testing.T, store *hostfuncs.HotStore) *hostfuncs.HandlerRegistry {
	t.Helper()
	logger, _ := testutil.NewLogger()
	reg, err := hostfuncs.NewRegistry(
		hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
		hostfuncs.WithBundle(hostfuncs.AllBundles(hostfuncs.Collaborators{Store: store, Logger: logger})),
	)
	require.NoError(t, err)
	return reg
}

func TestCall_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := hostfuncs.NewHotStore()
	reg := newRegistry(t, store)
	slab := testutil.NewSlab(1024)
	mem := memoryOf(slab)
	cfg := defaultAdapterConfig()

	reply := cfg.call(ctx, mem, reg, hostfuncs.FuncHotSave, put(t, slab, []byte{5, 0, 0, 0}))
	data, err := mem.ReadPacked(reply)
	require.NoError(t, err)
	testutil.RequireOk(t, data)

	reply = cfg.call(ctx, mem, reg, hostfuncs.FuncHotLoad, 0)
	data, err = mem.Take(ctx, reply)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 0, 0, 0}, testutil.RequireOk(t, data))

	ptr, length, _ := abi.UnpackPtrLen(reply)
	freed, ok := slab.Freed(ptr)
	assert.True(t, ok, "take releases the reply buffer")
	assert.Equal(t, length, freed)
}

func TestCall_Errors(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, hostfuncs.NewHotStore())
	slab := testutil.NewSlab(256)
	mem := memoryOf(slab)

	t.Run("request too large", func(t *testing.T) {
		cfg := defaultAdapterConfig()
		cfg.MaxRequestSize = 2
		reply := cfg.call(ctx, mem, reg, hostfuncs.FuncHotSave, put(t, slab, []byte("abc")))
		data, err := mem.ReadPacked(reply)
		require.NoError(t, err)
		msg := testutil.RequireErr(t, data, entities.ErrorKindDecode)
		assert.Contains(t, msg, "exceeds maximum 2 bytes")
	})

	t.Run("request out of range", func(t *testing.T) {
		cfg := defaultAdapterConfig()
		reply := cfg.call(ctx, mem, reg, hostfuncs.FuncHotSave, abi.PackPtrLen(250, 100))
		data, err := mem.ReadPacked(reply)
		require.NoError(t, err)
		testutil.RequireErr(t, data, entities.ErrorKindUnknown)
	})

	t.Run("null pointer", func(t *testing.T) {
		cfg := defaultAdapterConfig()
		reply := cfg.call(ctx, mem, reg, hostfuncs.FuncWatch, 12)
		data, err := mem.ReadPacked(reply)
		require.NoError(t, err)
		testutil.RequireErr(t, data, entities.ErrorKindDecode)
	})

	t.Run("void function", func(t *testing.T) {
		cfg := defaultAdapterConfig()
		assert.Zero(t, cfg.call(ctx, mem, reg, hostfuncs.FuncLog, put(t, slab, []byte(`{"level":"INFO","message":"hi"}`))))
	})

	t.Run("guest out of memory", func(t *testing.T) {
		full := testutil.NewSlab(16)
		full.Exhaust()
		cfg := defaultAdapterConfig()
		logger, rec := testutil.NewLogger()
		cfg.Logger = logger
		assert.Zero(t, cfg.call(ctx, memoryOf(full), reg, hostfuncs.FuncHotLoad, 0))
		assert.Contains(t, rec.Messages(), "wazero: failed to write reply to guest memory")
	})
}

func TestGuestMemory(t *testing.T) {
	ctx := context.Background()
	mem := memoryOf(testutil.NewSlab(64))

	packed, err := mem.WritePacked(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, packed)

	data, err := mem.ReadPacked(0)
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = mem.Read(60, 10)
	assert.Error(t, err)

	assert.NoError(t, mem.Free(ctx, 0))
}

func TestRegisterWithRuntime(t *testing.T) {
	ctx := context.Background()
	runtime := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = runtime.Close(ctx) })

	require.NoError(t, RegisterWithRuntime(ctx, runtime, newRegistry(t, hostfuncs.NewHotStore())))

	mod := runtime.Module(DefaultModuleName)
	require.NotNil(t, mod)

	defs := mod.ExportedFunctionDefinitions()
	require.Len(t, defs, 5)
	assert.Equal(t, []api.ValueType{api.ValueTypeI64}, defs[hostfuncs.FuncHotLoad].ResultTypes())
	assert.Equal(t, []api.ValueType{api.ValueTypeI64}, defs[hostfuncs.FuncHotLoad].ParamTypes())
	assert.Empty(t, defs[hostfuncs.FuncLog].ResultTypes())

	err := RegisterWithRuntime(ctx, runtime, newRegistry(t, hostfuncs.NewHotStore()))
	assert.Error(t, err, "module name already in use")
}
