// Package wireformat defines the binary ABI shared by the guest runtime and
// the host: the envelope layouts passed through the entry points and host
// functions, and the value codec used for game state and typed payloads.
//
// Envelopes use a fixed little-endian layout. Variable-length fields are a
// u32 length prefix followed by the raw bytes, and fields appear in
// declaration order. These layouts are the ABI contract and must remain
// stable.
//
// Values (game state, command and channel payloads) are Borsh encoded.
package wireformat
