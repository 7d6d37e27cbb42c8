package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/hostfuncs"
	"github.com/turbo-genesis/turbo-go/internal/abi"
	wazeroadapter "github.com/turbo-genesis/turbo-go/infrastructure/wazero"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

// Guest export names.
const (
	ExportRun                  = "run"
	ExportDispatchCommand      = "dispatch_command"
	ExportDispatchChannelEvent = "dispatch_channel_event"
	ExportManifest             = "manifest"
)

// ErrMissingExport is returned when a guest lacks an export the host needs.
var ErrMissingExport = wazeroadapter.ErrMissingExport

// ErrClosed is returned by calls on a closed ProgramInstance.
var ErrClosed = errors.New("program instance is closed")

// guest is an instantiated module as seen by ProgramInstance.
type guest interface {
	call(ctx context.Context, export string, params ...uint64) ([]uint64, error)
	memory() *wazeroadapter.GuestMemory
	close(ctx context.Context) error
}

// ProgramInstance is a loaded program. Calls are serialized: a guest is
// never entered while another call is in progress.
type ProgramInstance struct {
	mu       sync.Mutex
	guest    guest
	load     func(ctx context.Context, wasm []byte) (guest, error)
	logger   *slog.Logger
	manifest *entities.Manifest
}

// ProgramID returns the id reported by the program's manifest, or "" when
// the program registered nothing.
func (p *ProgramInstance) ProgramID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.manifest == nil {
		return ""
	}
	return p.manifest.ProgramID
}

// identify caches the manifest. A program that has not registered is still
// usable; its exports answer with NotFound.
func (p *ProgramInstance) identify(ctx context.Context) {
	m, err := p.Manifest(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "program manifest unavailable", slog.Any("error", err))
		return
	}

	p.mu.Lock()
	p.manifest = m
	p.mu.Unlock()
	p.logger.InfoContext(ctx, "program loaded",
		slog.String("program", m.Name),
		slog.String("program_id", m.ProgramID),
		slog.Int("commands", len(m.Commands)),
		slog.Int("channels", len(m.Channels)),
	)
}

func (p *ProgramInstance) scope(ctx context.Context) context.Context {
	if p.manifest == nil {
		return ctx
	}
	return hostfuncs.WithProgramID(ctx, p.manifest.ProgramID)
}

// Run calls the program's run export once.
func (p *ProgramInstance) Run(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.guest == nil {
		return ErrClosed
	}

	if _, err := p.guest.call(p.scope(ctx), ExportRun); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// DispatchCommand sends req to the program. A returned error means the call
// itself failed; command failures are reported through the Result.
func (p *ProgramInstance) DispatchCommand(ctx context.Context, req wireformat.CommandRequest) (wireformat.Result, error) {
	raw, err := req.MarshalBinary()
	if err != nil {
		return wireformat.Result{}, err
	}
	return p.exchange(ctx, ExportDispatchCommand, raw)
}

// DispatchChannelEvent sends ev to the program and returns its
// acknowledgment.
func (p *ProgramInstance) DispatchChannelEvent(ctx context.Context, ev wireformat.ChannelEvent) (wireformat.Result, error) {
	raw, err := ev.MarshalBinary()
	if err != nil {
		return wireformat.Result{}, err
	}
	return p.exchange(ctx, ExportDispatchChannelEvent, raw)
}

// Manifest asks the program to describe itself.
func (p *ProgramInstance) Manifest(ctx context.Context) (*entities.Manifest, error) {
	res, err := p.exchange(ctx, ExportManifest, nil)
	if err != nil {
		return nil, err
	}
	if err := res.AsError(); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	var m entities.Manifest
	if err := json.Unmarshal(res.Payload, &m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return &m, nil
}

// exchange writes request into the guest, calls export and takes the
// encoded Result it returns. The guest frees the request.
func (p *ProgramInstance) exchange(ctx context.Context, export string, request []byte) (wireformat.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.guest == nil {
		return wireformat.Result{}, ErrClosed
	}
	ctx = p.scope(ctx)
	mem := p.guest.memory()

	var params []uint64
	if request != nil {
		ptr, err := mem.Write(ctx, request)
		if err != nil {
			return wireformat.Result{}, fmt.Errorf("%s: %w", export, err)
		}
		params = []uint64{uint64(ptr), uint64(len(request))}
	}

	results, err := p.guest.call(ctx, export, params...)
	if err != nil {
		// The guest never took the request.
		if params != nil {
			packed := abi.PackPtrLen(uint32(params[0]), uint32(params[1])) //nolint:gosec // G115: written above from uint32
			if freeErr := mem.Free(ctx, packed); freeErr != nil {
				p.logger.WarnContext(ctx, "failed to release request buffer",
					slog.String("export", export),
					slog.Any("error", freeErr))
			}
		}
		return wireformat.Result{}, fmt.Errorf("%s: %w", export, err)
	}
	if len(results) == 0 {
		return wireformat.Result{}, fmt.Errorf("%s: no result", export)
	}

	reply, err := mem.Take(ctx, results[0])
	if err != nil {
		return wireformat.Result{}, fmt.Errorf("%s: %w", export, err)
	}
	res, err := wireformat.DecodeResult(reply)
	if err != nil {
		return wireformat.Result{}, fmt.Errorf("%s: %w", export, err)
	}
	return res, nil
}

// Reload replaces the module with wasm. The state store is untouched, so a
// hot-reload program resumes from its last saved state. On failure the
// current module keeps running.
func (p *ProgramInstance) Reload(ctx context.Context, wasm []byte) error {
	next, err := p.load(ctx, wasm)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	p.mu.Lock()
	prev := p.guest
	p.guest = next
	p.manifest = nil
	p.mu.Unlock()

	if prev != nil {
		if err := prev.close(ctx); err != nil {
			p.logger.WarnContext(ctx, "failed to close replaced module", slog.Any("error", err))
		}
	}
	p.identify(ctx)
	p.logger.InfoContext(ctx, "program reloaded", slog.String("program_id", p.ProgramID()))
	return nil
}

// Close releases the module. Later calls return ErrClosed.
func (p *ProgramInstance) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.guest == nil {
		return nil
	}
	err := p.guest.close(ctx)
	p.guest = nil
	return err
}
