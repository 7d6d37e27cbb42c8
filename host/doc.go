// Package host runs turbo programs compiled to wasip1 reactors.
//
// An Executor owns a wazero runtime with WASI and the "turbo" host module.
// Load instantiates a program and returns a ProgramInstance whose calls
// into the guest are serialized, since guests are not reentrant. State
// lives in the executor's store, so Reload swaps the module without
// losing it.
package host
