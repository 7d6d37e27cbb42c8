package ports

import "github.com/turbo-genesis/turbo-go/domain/entities"

// ManifestParser reads and writes program manifests.
type ManifestParser interface {
	// Parse unmarshals manifest bytes into a Manifest.
	Parse(data []byte) (*entities.Manifest, error)

	// Encode marshals a Manifest.
	Encode(m *entities.Manifest) ([]byte, error)
}
