// Package turbo is the entry point for program authors. It re-exports the
// types a program touches most and adds validated command handlers.
//
// A program is assembled from the application packages (lifecycle, command,
// channel, program) and served by the guest package.
package turbo

import (
	"github.com/turbo-genesis/turbo-go/application/command"
	"github.com/turbo-genesis/turbo-go/application/program"
	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

// Version is the runtime version reported in program manifests.
const Version = program.SDKVersion

// Identity is re-exported from entities.
type Identity = entities.ProgramIdentity

// ErrorKind is re-exported from entities.
type ErrorKind = entities.ErrorKind

// Result is re-exported from wireformat.
type Result = wireformat.Result

// Empty is the payload of commands that take no arguments.
type Empty = command.Empty
