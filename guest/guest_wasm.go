//go:build wasip1

package guest

import (
	"context"
	"runtime"

	"github.com/turbo-genesis/turbo-go/internal/abi"
)

//go:wasmimport turbo hot_load
//nolint:revive // intentional snake_case to match WASM import convention
func host_hot_load(reqPacked uint64) uint64

//go:wasmimport turbo hot_save
//nolint:revive // intentional snake_case to match WASM import convention
func host_hot_save(reqPacked uint64) uint64

//go:wasmimport turbo channel_send
//nolint:revive // intentional snake_case to match WASM import convention
func host_channel_send(reqPacked uint64) uint64

//go:wasmimport turbo watch
//nolint:revive // intentional snake_case to match WASM import convention
func host_watch(reqPacked uint64) uint64

// wrap adapts a packed host import to hostCall. The host writes its reply
// into a buffer it obtained from allocate; the guest frees it here.
func wrap(fn func(uint64) uint64) hostCall {
	return func(req []byte) []byte {
		packed := fn(abi.Hold(req))
		runtime.KeepAlive(req)
		resp := abi.BytesFromPtr(packed)
		abi.DeallocatePacked(packed)
		return resp
	}
}

var imports = hostImports{
	hotLoad:     wrap(host_hot_load),
	hotSave:     wrap(host_hot_save),
	channelSend: wrap(host_channel_send),
	watch:       wrap(host_watch),
}

//go:wasmexport run
func run() {
	handleRun(context.Background())
}

//go:wasmexport dispatch_command
func dispatchCommand(ptr, length uint32) uint64 {
	out := handleCommand(context.Background(), abi.TakeBytes(ptr, length))
	return pinResult("dispatch_command", out, abi.PtrFromBytes, abi.FreeAllTracked)
}

//go:wasmexport dispatch_channel_event
func dispatchChannelEvent(ptr, length uint32) uint64 {
	out := handleChannelEvent(context.Background(), abi.TakeBytes(ptr, length))
	return pinResult("dispatch_channel_event", out, abi.PtrFromBytes, abi.FreeAllTracked)
}

//go:wasmexport manifest
func manifest() uint64 {
	return pinResult("manifest", handleManifest(), abi.PtrFromBytes, abi.FreeAllTracked)
}
