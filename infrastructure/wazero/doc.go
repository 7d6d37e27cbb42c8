// Package wazero bridges the pure Go host functions in hostfuncs with the
// wazero WebAssembly runtime. It handles:
//
//   - Converting between packed i64 pointer+length format and byte slices
//   - Reading request data from guest memory
//   - Allocating and writing reply data to guest memory
//   - Registering handlers with the wazero host module builder
//
// # Basic Usage
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
//	    hostfuncs.WithBundle(hostfuncs.AllBundles(hostfuncs.Collaborators{})),
//	)
//	if err != nil {
//	    return err
//	}
//
//	runtime := wazero.NewRuntime(ctx)
//	err = wazero.RegisterWithRuntime(ctx, runtime, registry)
//
// The log function has no result; every other function returns a packed
// pointer to an encoded wireformat.Result the guest must deallocate.
package wazero
