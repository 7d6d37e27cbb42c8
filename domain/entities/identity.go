package entities

import "github.com/google/uuid"

// ProgramIdentity namespaces a program across the ecosystem.
// It is computed once from the owner id and program name and never changes
// for the life of the program.
type ProgramIdentity struct {
	Name    string    `json:"name"`
	ID      string    `json:"program_id"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// IsZero reports whether the identity has not been derived.
func (p ProgramIdentity) IsZero() bool {
	return p.ID == ""
}
