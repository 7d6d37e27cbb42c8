// Package entities provides the core data model shared by the guest runtime
// and the host: program identity, error kinds and the program manifest.
package entities
