package entities

import "encoding/json"

// Manifest describes a program and the handlers it registered.
// The guest produces it as JSON; the CLI renders the same document as YAML.
type Manifest struct {
	Name       string            `json:"name" validate:"required"`
	ProgramID  string            `json:"program_id" validate:"required"`
	OwnerID    string            `json:"owner_id" validate:"required,uuid"`
	SDKVersion string            `json:"sdk_version,omitempty"`
	Strategy   string            `json:"strategy,omitempty" validate:"omitempty,oneof=static hot_reload"`
	Commands   []CommandManifest `json:"commands,omitempty" validate:"unique=Name,dive"`
	Channels   []ChannelManifest `json:"channels,omitempty" validate:"unique=Name,dive"`
}

// CommandManifest describes one registered command.
type CommandManifest struct {
	Name          string          `json:"name" validate:"required"`
	PayloadSchema json.RawMessage `json:"payload_schema,omitempty"`
}

// ChannelManifest describes one registered channel.
type ChannelManifest struct {
	Name       string          `json:"name" validate:"required"`
	IntervalMs int64           `json:"interval_ms,omitempty" validate:"gte=0"`
	SendSchema json.RawMessage `json:"send_schema,omitempty"`
	RecvSchema json.RawMessage `json:"recv_schema,omitempty"`
}

// Command returns the manifest entry for the named command.
func (m *Manifest) Command(name string) (CommandManifest, bool) {
	for _, c := range m.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandManifest{}, false
}

// Channel returns the manifest entry for the named channel.
func (m *Manifest) Channel(name string) (ChannelManifest, bool) {
	for _, c := range m.Channels {
		if c.Name == name {
			return c, true
		}
	}
	return ChannelManifest{}, false
}
