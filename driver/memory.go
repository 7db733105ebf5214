package driver

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/borsh-roundtrip/errors"
)

// guestMemory wraps wazero api.Memory with error returns for bounds
// failures.
type guestMemory struct {
	mem api.Memory
}

// Read returns a copy, since views into guest memory are invalidated when
// the guest grows its memory.
func (m *guestMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds: offset=%d, length=%d", offset, length)
	}
	return append([]byte(nil), data...), nil
}

func (m *guestMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return fmt.Errorf("memory write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *guestMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *guestMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return fmt.Errorf("memory write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *guestMemory) Size() uint32 {
	return m.mem.Size()
}

// guestAllocator calls the guest's exported allocator. A simple allocator
// takes (size) and frees through roundtrip_release_buffer(ptr, size); the
// canonical ABI cabi_realloc takes (old, old_size, align, new_size) and
// frees by reallocating to zero.
type guestAllocator struct {
	ctx       context.Context
	allocFn   api.Function
	releaseFn api.Function
	stackBuf  []uint64
	simple    bool
}

func newGuestAllocator(allocFn, releaseFn api.Function) *guestAllocator {
	return &guestAllocator{
		allocFn:   allocFn,
		releaseFn: releaseFn,
		stackBuf:  make([]uint64, 4),
		simple:    len(allocFn.Definition().ParamTypes()) < 4,
	}
}

func (a *guestAllocator) setContext(ctx context.Context) {
	a.ctx = ctx
}

func (a *guestAllocator) context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// Alloc treats a zero address as failure, since guests signal exhaustion
// that way and offset 0 is never a valid buffer.
func (a *guestAllocator) Alloc(size, align uint32) (uint32, error) {
	ctx := a.context()
	params := a.stackBuf[:4]
	if a.simple {
		params = a.stackBuf[:1]
		params[0] = uint64(size)
	} else {
		params[0] = 0
		params[1] = 0
		params[2] = uint64(align)
		params[3] = uint64(size)
	}
	if err := a.allocFn.CallWithStack(ctx, params); err != nil {
		return 0, err
	}

	ptr := uint32(params[0])
	if ptr == 0 {
		return 0, errors.AllocationFailed(errors.PhaseGuest, int(size), nil)
	}
	return ptr, nil
}

// Free returns ptr to the guest. Guests with a simple allocator and no
// release export keep the memory.
func (a *guestAllocator) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}
	ctx := a.context()

	if !a.simple {
		a.stackBuf[0] = uint64(ptr)
		a.stackBuf[1] = uint64(size)
		a.stackBuf[2] = uint64(align)
		a.stackBuf[3] = 0
		if err := a.allocFn.CallWithStack(ctx, a.stackBuf[:4]); err != nil {
			Logger().Debug("guest free failed", zap.Uint32("ptr", ptr), zap.Error(err))
		}
		return
	}
	a.release(ptr, size)
}

// ReleaseOutput returns a buffer the guest handed out, preferring the
// guest's paired release export over its allocator.
func (a *guestAllocator) ReleaseOutput(ptr, size uint32) {
	if a.releaseFn == nil {
		a.Free(ptr, size, 1)
		return
	}
	a.release(ptr, size)
}

func (a *guestAllocator) release(ptr, size uint32) {
	if a.releaseFn == nil || ptr == 0 {
		return
	}
	a.stackBuf[0] = uint64(ptr)
	a.stackBuf[1] = uint64(size)
	if err := a.releaseFn.CallWithStack(a.context(), a.stackBuf[:2]); err != nil {
		Logger().Debug("guest release failed", zap.Uint32("ptr", ptr), zap.Error(err))
	}
}
