package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/turbo-genesis/turbo-go/application/identity"
	"github.com/turbo-genesis/turbo-go/domain/entities"
)

// ProjectFile is the conventional project file name.
const ProjectFile = "turbo.toml"

// Project is the content of turbo.toml.
type Project struct {
	Program ProgramSection `toml:"program"`
}

// ProgramSection is the [program] table.
type ProgramSection struct {
	Name    string `toml:"name" validate:"required,max=128"`
	Owner   string `toml:"owner" validate:"required,uuid"`
	Package string `toml:"package" validate:"omitempty,alphanum"`
	Wasm    string `toml:"wasm"`
}

// LoadProject reads and validates a project file. Unknown keys are
// rejected so typos do not silently change the program id.
func LoadProject(path string) (*Project, error) {
	var p Project
	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	return finishProject(&p, meta)
}

// ParseProject parses project file content.
func ParseProject(data string) (*Project, error) {
	var p Project
	meta, err := toml.Decode(data, &p)
	if err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	return finishProject(&p, meta)
}

func finishProject(p *Project, meta toml.MetaData) (*Project, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown project keys: %s", strings.Join(keys, ", "))
	}

	p.Program.Name = strings.TrimSpace(p.Program.Name)
	p.Program.Owner = strings.TrimSpace(p.Program.Owner)
	if p.Program.Package == "" {
		p.Program.Package = "main"
	}

	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("invalid project: %w", err)
	}
	return p, nil
}

// Identity derives the program identity from the [program] table.
func (p *Project) Identity() (entities.ProgramIdentity, error) {
	return identity.Parse(p.Program.Owner, p.Program.Name)
}
