package guest

import (
	"context"
	"fmt"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/domain/ports"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

// hostCall sends a request buffer to one host import and returns the raw
// encoded Result.
type hostCall func(req []byte) []byte

type hostImports struct {
	hotLoad     hostCall
	hotSave     hostCall
	channelSend hostCall
	watch       hostCall
}

// Ports are the host collaborators reachable from inside the guest.
type Ports struct {
	Store     ports.StateStore
	Transport ports.ChannelTransport
	Watch     ports.WatchSink
}

// HostPorts returns the collaborators backed by the turbo host imports.
func HostPorts() Ports {
	return newPorts(imports)
}

func newPorts(im hostImports) Ports {
	return Ports{
		Store:     &hotStore{load: im.hotLoad, save: im.hotSave},
		Transport: &channelTransport{send: im.channelSend},
		Watch:     &watchSink{watch: im.watch},
	}
}

// invoke calls fn and unwraps the Result it returns.
func invoke(name string, fn hostCall, req []byte) ([]byte, error) {
	resp := fn(req)
	if resp == nil {
		return nil, entities.NewErrorDetail(entities.ErrorKindUnknown, fmt.Sprintf("host %s returned no data", name))
	}
	res, err := wireformat.DecodeResult(resp)
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", name, err)
	}
	if err := res.AsError(); err != nil {
		return nil, err
	}
	return res.Payload, nil
}

type hotStore struct {
	load hostCall
	save hostCall
}

var _ ports.StateStore = (*hotStore)(nil)

func (s *hotStore) Load(_ context.Context) ([]byte, error) {
	return invoke("hot_load", s.load, nil)
}

func (s *hotStore) Save(_ context.Context, data []byte) error {
	_, err := invoke("hot_save", s.save, data)
	return err
}

type channelTransport struct {
	send hostCall
}

var _ ports.ChannelTransport = (*channelTransport)(nil)

func (t *channelTransport) Send(_ context.Context, channel, userID string, payload []byte) error {
	return t.post(wireformat.ChannelOutbound{Channel: channel, UserID: userID, Payload: payload})
}

func (t *channelTransport) Broadcast(_ context.Context, channel string, payload []byte) error {
	return t.post(wireformat.ChannelOutbound{Channel: channel, Payload: payload, Broadcast: true})
}

func (t *channelTransport) post(msg wireformat.ChannelOutbound) error {
	req, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = invoke("channel_send", t.send, req)
	return err
}

type watchSink struct {
	watch hostCall
}

var _ ports.WatchSink = (*watchSink)(nil)

func (w *watchSink) Watch(_ context.Context, path string) error {
	_, err := invoke("watch", w.watch, []byte(path))
	return err
}
