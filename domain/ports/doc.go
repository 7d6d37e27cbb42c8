// Package ports defines the host collaborators the guest runtime calls into.
// Application code depends on these interfaces; the guest binding and the
// hostfuncs package provide the implementations.
package ports
