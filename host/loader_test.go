package host_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/host"
)

const counterManifest = `
name: counter
program_id: 8IcNtARcX1jxe4XFbZTnE1UH1_pAQFVlAvbk0l6blr8
owner_id: 6f1c2a4e-3b9d-4d7e-9a51-0c2f8e7b1d23
strategy: {{ .strategy }}
commands:
  - name: add
    payload_schema:
      type: object
      properties:
        amount:
          type: integer
channels:
  - name: chat
    interval_ms: 250
`

// LoaderSuite tests manifest loading and program verification.
type LoaderSuite struct {
	suite.Suite
	loader *host.Loader
}

func (s *LoaderSuite) SetupTest() {
	s.loader = host.NewLoader()
}

func (s *LoaderSuite) load() *entities.Manifest {
	m, err := s.loader.LoadManifest([]byte(counterManifest), map[string]any{"strategy": "hot_reload"})
	s.Require().NoError(err)
	return m
}

func (s *LoaderSuite) TestValidManifest() {
	m := s.load()
	s.Equal("counter", m.Name)
	s.Equal("hot_reload", m.Strategy)
	s.Len(m.Commands, 1)
	s.Equal("add", m.Commands[0].Name)
	s.Equal(int64(250), m.Channels[0].IntervalMs)
}

func (s *LoaderSuite) TestMissingTemplateKey() {
	_, err := s.loader.LoadManifest([]byte(counterManifest), nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to render manifest")
}

func (s *LoaderSuite) TestLenientTemplates() {
	loader := host.NewLoader(host.WithStrictTemplates(false))
	_, err := loader.LoadManifest([]byte(counterManifest), map[string]any{})
	// A missing key renders as "<no value>", which is not a known strategy.
	s.Require().Error(err)
	s.Contains(err.Error(), "Manifest.Strategy")
}

func (s *LoaderSuite) TestInvalidYAML() {
	_, err := s.loader.LoadManifest([]byte("name: [unclosed"), nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to parse manifest")
}

func (s *LoaderSuite) TestValidationErrors() {
	yaml := `
name: counter
program_id: x
owner_id: not-a-uuid
commands:
  - name: add
    payload_schema:
      type: 12
  - name: add
`
	_, err := s.loader.LoadManifest([]byte(yaml), nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "manifest validation failed")
	s.Contains(err.Error(), "Manifest.OwnerID")
	s.Contains(err.Error(), "Manifest.Commands")
	s.Contains(err.Error(), "commands.add.payload_schema")
}

func (s *LoaderSuite) TestVerify() {
	declared := s.load()

	actual := *declared
	s.NoError(s.loader.Verify(declared, &actual))

	actual.ProgramID = "other"
	actual.Commands = nil
	actual.Channels = []entities.ChannelManifest{{Name: "chat", IntervalMs: 100}}
	err := s.loader.Verify(declared, &actual)
	s.Require().Error(err)
	s.Contains(err.Error(), `command "add" is not registered`)
	s.Contains(err.Error(), `channel "chat" interval is 100ms, declared 250ms`)
	s.Contains(err.Error(), "program id is other")
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}
