// Package hostfuncs provides pure Go implementations of the turbo host
// functions: hot state storage, the channel outbox, watch registration and
// the guest log sink. They have NO WASM runtime dependencies; the wazero
// adapter binds a HandlerRegistry to the "turbo" import module.
//
// Every handler receives the raw request bytes the guest passed and
// returns an encoded wireformat.Result, except "log", which returns nothing.
package hostfuncs
