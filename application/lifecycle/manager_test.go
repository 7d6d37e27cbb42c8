package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
	"github.com/turbo-genesis/turbo-go/internal/testutil"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

type counterState struct {
	Label string
	Count uint32
}

type counterGame struct {
	inits int
}

func (g *counterGame) init() counterState {
	g.inits++
	return counterState{Label: "fresh"}
}

func (g *counterGame) update(s *counterState) {
	s.Count++
}

func TestNew_Validation(t *testing.T) {
	g := &counterGame{}

	tests := []struct {
		name   string
		init   func() counterState
		update func(*counterState)
		opts   []Option
		reason string
	}{
		{name: "nil init", update: g.update, reason: "init function is nil"},
		{name: "nil update", init: g.init, reason: "update function is nil"},
		{
			name:   "hot reload without store",
			init:   g.init,
			update: g.update,
			opts:   []Option{WithStrategy(StrategyHotReload)},
			reason: "hot reload requires a state store",
		},
		{
			name:   "unknown strategy",
			init:   g.init,
			update: g.update,
			opts:   []Option{WithStrategy(Strategy(9))},
			reason: "unknown strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.init, tt.update, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, m)

			var regErr *domainerrors.RegistrationError
			require.ErrorAs(t, err, &regErr)
			assert.Contains(t, regErr.Reason, tt.reason)
		})
	}
}

func TestStatic_InitOnceThenUpdateInPlace(t *testing.T) {
	g := &counterGame{}
	m, err := New(g.init, g.update)
	require.NoError(t, err)
	assert.Equal(t, StrategyStatic, m.Strategy())

	_, ok := m.State()
	assert.False(t, ok)

	for range 5 {
		m.Run(context.Background())
	}

	state, ok := m.State()
	require.True(t, ok)
	assert.Equal(t, 1, g.inits)
	assert.Equal(t, counterState{Label: "fresh", Count: 5}, state)
}

func TestHotReload_FirstRunInitializesAndSaves(t *testing.T) {
	g := &counterGame{}
	store := &testutil.MemoryStore{}
	logger, logs := testutil.NewLogger()

	m, err := New(g.init, g.update, WithStrategy(StrategyHotReload), WithStore(store), WithLogger(logger))
	require.NoError(t, err)

	m.Run(context.Background())

	assert.Equal(t, 1, g.inits)
	got, err := wireformat.Decode[counterState](store.Data)
	require.NoError(t, err)
	assert.Equal(t, counterState{Label: "fresh", Count: 1}, got)
	assert.Contains(t, logs.Messages(), "initializing game state")
}

func TestHotReload_StateSurvivesAcrossManagers(t *testing.T) {
	store := &testutil.MemoryStore{}

	// Each manager stands in for a freshly reloaded module sharing the store.
	for range 3 {
		g := &counterGame{}
		m, err := New(g.init, g.update, WithStrategy(StrategyHotReload), WithStore(store))
		require.NoError(t, err)
		m.Run(context.Background())
	}

	got, err := wireformat.Decode[counterState](store.Data)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), got.Count)
	assert.Equal(t, 3, store.Loads)
	assert.Equal(t, 3, store.Saves)
}

func TestHotReload_DecodeFailureReinitializes(t *testing.T) {
	g := &counterGame{}
	store := &testutil.MemoryStore{Data: []byte{0xFF, 0xFF}}
	logger, logs := testutil.NewLogger()

	m, err := New(g.init, g.update, WithStrategy(StrategyHotReload), WithStore(store), WithLogger(logger))
	require.NoError(t, err)

	assert.NotPanics(t, func() { m.Run(context.Background()) })
	assert.Equal(t, 1, g.inits)

	got, err := wireformat.Decode[counterState](store.Data)
	require.NoError(t, err)
	assert.Equal(t, counterState{Label: "fresh", Count: 1}, got)

	records := logs.Records()
	require.NotEmpty(t, records)
	var initErr *domainerrors.InitializationError
	loggedErr, ok := records[0].Attrs["error"].(error)
	require.True(t, ok)
	assert.ErrorAs(t, loggedErr, &initErr)
}

func TestHotReload_IncompatibleBufferReinitializes(t *testing.T) {
	type olderState struct {
		Label string
		Count uint32
		Bonus uint64
	}
	older, err := wireformat.Marshal(olderState{Label: "old", Count: 41, Bonus: 7})
	require.NoError(t, err)

	tests := map[string][]byte{
		"longer schema":         older,
		"corrupt string length": {0xFF, 0xFF, 0xFF, 0xFF},
	}
	for name, saved := range tests {
		t.Run(name, func(t *testing.T) {
			g := &counterGame{}
			store := &testutil.MemoryStore{Data: saved}

			m, err := New(g.init, g.update, WithStrategy(StrategyHotReload), WithStore(store))
			require.NoError(t, err)

			assert.NotPanics(t, func() { m.Run(context.Background()) })
			assert.Equal(t, 1, g.inits)

			got, err := wireformat.Decode[counterState](store.Data)
			require.NoError(t, err)
			assert.Equal(t, counterState{Label: "fresh", Count: 1}, got)
		})
	}
}

func TestHotReload_LoadFailureReinitializes(t *testing.T) {
	g := &counterGame{}
	store := &testutil.MemoryStore{LoadErr: errors.New("host unavailable")}

	m, err := New(g.init, g.update, WithStrategy(StrategyHotReload), WithStore(store))
	require.NoError(t, err)
	m.Run(context.Background())

	assert.Equal(t, 1, g.inits)
	assert.Equal(t, 1, store.Saves)
}

func TestHotReload_SaveFailureIsLogged(t *testing.T) {
	g := &counterGame{}
	store := &testutil.MemoryStore{SaveErr: errors.New("buffer full")}
	logger, logs := testutil.NewLogger()

	m, err := New(g.init, g.update, WithStrategy(StrategyHotReload), WithStore(store), WithLogger(logger))
	require.NoError(t, err)

	assert.NotPanics(t, func() { m.Run(context.Background()) })
	assert.Contains(t, logs.Messages(), "failed to save game state")
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{in: "static", want: StrategyStatic},
		{in: "", want: StrategyStatic},
		{in: "hot_reload", want: StrategyHotReload},
		{in: "hot-reload", want: StrategyHotReload},
		{in: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, mustParse(t, got.String()))
	}

	assert.Equal(t, StrategyHotReload, StrategyFor(true))
	assert.Equal(t, StrategyStatic, StrategyFor(false))
}

func mustParse(t *testing.T, s string) Strategy {
	t.Helper()
	got, err := ParseStrategy(s)
	require.NoError(t, err)
	return got
}
