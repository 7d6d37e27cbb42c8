package channel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
	"github.com/turbo-genesis/turbo-go/internal/testutil"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

type chatSend struct {
	From string
	Text string
}

type chatRecv struct {
	Text string
}

type chatState struct {
	Messages uint32
}

type ManagerSuite struct {
	suite.Suite
	ctx       context.Context
	transport *testutil.RecordingTransport
	logs      *testutil.LogRecorder
	manager   *Manager
	calls     []string
	connErr   error
	closeErr  error
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.ctx = context.Background()
	s.transport = &testutil.RecordingTransport{}
	s.calls = nil
	s.connErr = nil
	s.closeErr = nil

	chat, err := New(Hooks[chatSend, chatRecv, chatState]{
		Open: func(st *Settings) {
			st.Interval = 250 * time.Millisecond
		},
		Connect: func(_ context.Context, c *Conn[chatSend, chatState]) error {
			s.calls = append(s.calls, "connect:"+c.UserID())
			return s.connErr
		},
		Data: func(ctx context.Context, c *Conn[chatSend, chatState], msg chatRecv) error {
			s.calls = append(s.calls, "data:"+c.UserID()+":"+msg.Text)
			c.State.Messages++
			if msg.Text == "panic" {
				panic("bad message")
			}
			return c.Broadcast(ctx, chatSend{From: c.UserID(), Text: msg.Text})
		},
		Interval: func(ctx context.Context, p *Peers[chatSend, chatState]) error {
			s.calls = append(s.calls, "interval")
			return p.Each(func(c *Conn[chatSend, chatState]) error {
				return c.Send(ctx, chatSend{From: "server", Text: "tick"})
			})
		},
		Close: func(_ context.Context, c *Conn[chatSend, chatState]) error {
			s.calls = append(s.calls, "close:"+c.UserID())
			return s.closeErr
		},
	})
	s.Require().NoError(err)

	minimal, err := New(Hooks[chatSend, chatRecv, struct{}]{
		Data: func(context.Context, *Conn[chatSend, struct{}], chatRecv) error { return nil },
	})
	s.Require().NoError(err)

	logger, logs := testutil.NewLogger()
	s.logs = logs
	s.manager, err = NewManager(
		WithChannel("chat", chat),
		WithChannel("minimal", minimal),
		WithTransport(s.transport),
		WithLogger(logger),
	)
	s.Require().NoError(err)
}

func (s *ManagerSuite) payload(text string) []byte {
	data, err := wireformat.Marshal(chatRecv{Text: text})
	s.Require().NoError(err)
	return data
}

func (s *ManagerSuite) TestSettingsFromOpen() {
	h, ok := s.manager.Handler("chat")
	s.Require().True(ok)
	s.Equal(250*time.Millisecond, h.Settings().Interval)

	h, ok = s.manager.Handler("minimal")
	s.Require().True(ok)
	s.Zero(h.Settings().Interval)
}

func (s *ManagerSuite) TestLifecycle() {
	s.Require().NoError(s.manager.Connect(s.ctx, "chat", "bob"))
	s.True(s.manager.Connected("chat", "bob"))

	s.Require().NoError(s.manager.Data(s.ctx, "chat", "bob", s.payload("hi")))
	s.Require().Len(s.transport.Messages, 1)
	msg := s.transport.Messages[0]
	s.True(msg.Broadcast)
	s.Equal("chat", msg.Channel)
	got, err := wireformat.Decode[chatSend](msg.Payload)
	s.Require().NoError(err)
	s.Equal(chatSend{From: "bob", Text: "hi"}, got)

	s.Require().NoError(s.manager.Close(s.ctx, "chat", "bob"))
	s.False(s.manager.Connected("chat", "bob"))
	s.Equal([]string{"connect:bob", "data:bob:hi", "close:bob"}, s.calls)
}

func (s *ManagerSuite) TestDuplicateConnectKeepsExistingConnection() {
	s.Require().NoError(s.manager.Connect(s.ctx, "chat", "bob"))
	s.Require().NoError(s.manager.Data(s.ctx, "chat", "bob", s.payload("one")))

	err := s.manager.Connect(s.ctx, "chat", "bob")
	var stateErr *domainerrors.StateError
	s.Require().ErrorAs(err, &stateErr)
	s.Equal("connect", stateErr.Event)

	// The hook ran once and the per-connection state survived.
	s.Equal([]string{"connect:bob", "data:bob:one"}, s.calls)
	s.Require().NoError(s.manager.Data(s.ctx, "chat", "bob", s.payload("two")))

	e := s.manager.channels["chat"]
	conn := e.conns["bob"].(*Conn[chatSend, chatState])
	s.Equal(uint32(2), conn.State.Messages)
}

func (s *ManagerSuite) TestConnectHookFailureDiscardsConnection() {
	s.connErr = errors.New("banned")

	err := s.manager.Connect(s.ctx, "chat", "mallory")
	var handlerErr *domainerrors.HandlerError
	s.Require().ErrorAs(err, &handlerErr)
	s.Equal("chat.connect", handlerErr.Handler)
	s.False(s.manager.Connected("chat", "mallory"))
}

func (s *ManagerSuite) TestDataWithoutConnect() {
	err := s.manager.Data(s.ctx, "chat", "carol", s.payload("hi"))
	var stateErr *domainerrors.StateError
	s.Require().ErrorAs(err, &stateErr)
	s.Equal("not connected", stateErr.Reason)
	s.Empty(s.calls)
}

func (s *ManagerSuite) TestDataDecodeFailureKeepsConnection() {
	s.Require().NoError(s.manager.Connect(s.ctx, "chat", "bob"))

	err := s.manager.Data(s.ctx, "chat", "bob", []byte{0xFF})
	s.Equal(entities.ErrorKindDecode, domainerrors.KindOf(err))
	s.True(s.manager.Connected("chat", "bob"))
}

func (s *ManagerSuite) TestDataRejectsCorruptLengthAndTrailingBytes() {
	s.Require().NoError(s.manager.Connect(s.ctx, "chat", "bob"))

	valid, err := wireformat.Marshal(chatRecv{Text: "hi"})
	s.Require().NoError(err)

	for _, payload := range [][]byte{{0xFF, 0xFF, 0xFF, 0xFF}, append(valid, 0)} {
		err := s.manager.Data(s.ctx, "chat", "bob", payload)
		s.Equal(entities.ErrorKindDecode, domainerrors.KindOf(err))
	}
	s.NotContains(s.calls, "data:bob:hi")
	s.True(s.manager.Connected("chat", "bob"))
}

func (s *ManagerSuite) TestDataHookPanicIsRecovered() {
	s.Require().NoError(s.manager.Connect(s.ctx, "chat", "bob"))

	var err error
	s.NotPanics(func() { err = s.manager.Data(s.ctx, "chat", "bob", s.payload("panic")) })
	var handlerErr *domainerrors.HandlerError
	s.Require().ErrorAs(err, &handlerErr)
	s.Contains(handlerErr.Error(), "panic: bad message")
	s.NotEmpty(handlerErr.Stack)
	s.True(s.manager.Connected("chat", "bob"))
}

func (s *ManagerSuite) TestIntervalWithNoConnections() {
	s.Require().NoError(s.manager.Interval(s.ctx, "chat"))
	s.Equal([]string{"interval"}, s.calls)
	s.Empty(s.transport.Messages)

	s.NoError(s.manager.Interval(s.ctx, "minimal"))
}

func (s *ManagerSuite) TestIntervalVisitsConnectionsInUserOrder() {
	for _, u := range []string{"carol", "alice", "bob"} {
		s.Require().NoError(s.manager.Connect(s.ctx, "chat", u))
	}

	s.Require().NoError(s.manager.Interval(s.ctx, "chat"))

	var users []string
	for _, m := range s.transport.Messages {
		s.False(m.Broadcast)
		users = append(users, m.UserID)
	}
	s.Equal([]string{"alice", "bob", "carol"}, users)
	s.Equal([]string{"alice", "bob", "carol"}, s.manager.Connections("chat"))
}

func (s *ManagerSuite) TestCloseAlwaysRemoves() {
	s.Require().NoError(s.manager.Connect(s.ctx, "chat", "bob"))
	s.closeErr = errors.New("flush failed")

	err := s.manager.Close(s.ctx, "chat", "bob")
	s.Require().Error(err)
	s.False(s.manager.Connected("chat", "bob"))

	// Reconnect requires a fresh connect.
	err = s.manager.Data(s.ctx, "chat", "bob", s.payload("hi"))
	s.Equal(entities.ErrorKindState, domainerrors.KindOf(err))
	s.Require().NoError(s.manager.Connect(s.ctx, "chat", "bob"))
}

func (s *ManagerSuite) TestCloseUnknownUser() {
	err := s.manager.Close(s.ctx, "chat", "ghost")
	s.Equal(entities.ErrorKindState, domainerrors.KindOf(err))
	s.Empty(s.calls)
}

func (s *ManagerSuite) TestUnknownChannel() {
	err := s.manager.Connect(s.ctx, "lobby", "bob")
	s.Equal(entities.ErrorKindNotFound, domainerrors.KindOf(err))
	s.Equal(entities.ErrorKindNotFound, domainerrors.KindOf(s.manager.Interval(s.ctx, "lobby")))
	s.Nil(s.manager.Connections("lobby"))
	s.False(s.manager.Connected("lobby", "bob"))
}

func (s *ManagerSuite) TestDispatchAcknowledgesAndLogs() {
	res := s.manager.Dispatch(s.ctx, wireformat.ChannelEvent{Code: wireformat.EventConnect, Channel: "chat", UserID: "bob"})
	s.True(res.OK)

	res = s.manager.Dispatch(s.ctx, wireformat.ChannelEvent{Code: wireformat.EventData, Channel: "chat", UserID: "carol", Payload: s.payload("hi")})
	s.False(res.OK)
	s.Equal(entities.ErrorKindState, res.Kind)

	res = s.manager.Dispatch(s.ctx, wireformat.ChannelEvent{Code: wireformat.EventCode(7), Channel: "chat"})
	s.Equal(entities.ErrorKindDecode, res.Kind)

	s.Equal([]string{"channel event failed", "channel event failed"}, s.logs.Messages())
}

func (s *ManagerSuite) TestDispatchBytes() {
	raw, err := wireformat.ChannelEvent{Code: wireformat.EventConnect, Channel: "chat", UserID: "bob"}.MarshalBinary()
	s.Require().NoError(err)

	testutil.RequireOk(s.T(), s.manager.DispatchBytes(s.ctx, raw))
	s.True(s.manager.Connected("chat", "bob"))

	testutil.RequireErr(s.T(), s.manager.DispatchBytes(s.ctx, raw[:3]), entities.ErrorKindDecode)
}

func (s *ManagerSuite) TestSendWithoutTransport() {
	h, _ := s.manager.Handler("chat")
	m, err := NewManager(WithChannel("chat", h))
	s.Require().NoError(err)

	s.Require().NoError(m.Connect(s.ctx, "chat", "bob"))
	err = m.Data(s.ctx, "chat", "bob", s.payload("hi"))
	s.ErrorIs(err, ErrNoTransport)
}

func TestNew_RequiresData(t *testing.T) {
	h, err := New(Hooks[chatSend, chatRecv, chatState]{})
	assert.Nil(t, h)
	var regErr *domainerrors.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Contains(t, regErr.Reason, "Data hook")
}

func TestNew_NegativeInterval(t *testing.T) {
	_, err := New(Hooks[chatSend, chatRecv, chatState]{
		Open: func(s *Settings) { s.Interval = -time.Second },
		Data: func(context.Context, *Conn[chatSend, chatState], chatRecv) error { return nil },
	})
	assert.Error(t, err)
}

func TestNewManager_RegistrationErrors(t *testing.T) {
	h, err := New(Hooks[chatSend, chatRecv, chatState]{
		Data: func(context.Context, *Conn[chatSend, chatState], chatRecv) error { return nil },
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		opts   []Option
		reason string
	}{
		{name: "empty name", opts: []Option{WithChannel("", h)}, reason: "name cannot be empty"},
		{name: "nil handler", opts: []Option{WithChannel("chat", nil)}, reason: "handler is nil"},
		{name: "duplicate", opts: []Option{WithChannel("chat", h), WithChannel("chat", h)}, reason: "duplicate name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager(tt.opts...)
			assert.Nil(t, m)
			var regErr *domainerrors.RegistrationError
			require.ErrorAs(t, err, &regErr)
			assert.Equal(t, tt.reason, regErr.Reason)
		})
	}
}

func TestHandler_Types(t *testing.T) {
	h, err := New(Hooks[chatSend, chatRecv, chatState]{
		Data: func(context.Context, *Conn[chatSend, chatState], chatRecv) error { return nil },
	})
	require.NoError(t, err)
	assert.Equal(t, "chatSend", h.SendType().Name())
	assert.Equal(t, "chatRecv", h.RecvType().Name())
}
