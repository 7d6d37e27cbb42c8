// Package identity derives program identities and registers reactive
// file dependencies with the host.
package identity

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/turbo-genesis/turbo-go/domain/entities"
)

// validate is a package-level singleton; validator caches struct metadata.
var validate = validator.New()

type identityInput struct {
	Owner string `validate:"required,uuid"`
	Name  string `validate:"required,max=128"`
}

// Derive computes the identity of the program name owned by owner.
// The id is base64url (no padding) of sha256(owner bytes || name), so it is
// identical across rebuilds for identical inputs.
func Derive(owner uuid.UUID, name string) entities.ProgramIdentity {
	h := sha256.New()
	h.Write(owner[:])
	h.Write([]byte(name))

	return entities.ProgramIdentity{
		Name:    name,
		ID:      base64.RawURLEncoding.EncodeToString(h.Sum(nil)),
		OwnerID: owner,
	}
}

// Parse validates a textual owner UUID and program name and derives the
// identity.
func Parse(owner, name string) (entities.ProgramIdentity, error) {
	if err := validate.Struct(identityInput{Owner: owner, Name: name}); err != nil {
		return entities.ProgramIdentity{}, fmt.Errorf("invalid program identity: %w", err)
	}

	id, err := uuid.Parse(owner)
	if err != nil {
		return entities.ProgramIdentity{}, fmt.Errorf("invalid owner id: %w", err)
	}

	return Derive(id, name), nil
}

// MustParse is like Parse but panics on invalid input. It is meant for
// generated constant files and package-level vars.
func MustParse(owner, name string) entities.ProgramIdentity {
	p, err := Parse(owner, name)
	if err != nil {
		panic(err)
	}
	return p
}
