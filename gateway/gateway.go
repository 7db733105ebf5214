package gateway

import (
	"fmt"
	"os"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/borsh-roundtrip/errors"
	"github.com/wippyai/borsh-roundtrip/runner"
)

// ExitCode is the process exit status used by the default abort hook.
const ExitCode = 101

// Buffer is an output allocation. Ownership passes to the caller, who
// returns it through Release.
type Buffer struct {
	Ptr unsafe.Pointer
	Len int
}

// Gateway adapts Runner checks to a raw pointer/length calling convention.
// Safe for concurrent use when its Allocator is.
type Gateway struct {
	runner *runner.Runner
	alloc  Allocator
	abort  func(error)
	logger *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

func WithRunner(r *runner.Runner) Option {
	return func(g *Gateway) {
		g.runner = r
	}
}

func WithAllocator(a Allocator) Option {
	return func(g *Gateway) {
		g.alloc = a
	}
}

// WithAbort replaces the hook called by Roundtrip on failure. The default
// logs and exits with ExitCode. A hook that returns leaves the output slots
// untouched.
func WithAbort(fn func(error)) Option {
	return func(g *Gateway) {
		g.abort = fn
	}
}

// WithLogger overrides the package logger for this gateway.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// New creates a Gateway. Without options it checks against the default
// registry and allocates from the Go heap.
func New(opts ...Option) *Gateway {
	g := &Gateway{}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = Logger()
	}
	if g.runner == nil {
		g.runner = runner.New(nil, runner.WithLogger(g.logger))
	}
	if g.alloc == nil {
		g.alloc = NewHeapAllocator()
	}
	if g.abort == nil {
		g.abort = g.exit
	}
	return g
}

// Call checks inLen bytes at in against case id and returns the canonical
// encoding in a fresh allocation. The input is read in place, never copied
// or retained.
func (g *Gateway) Call(id uint8, in unsafe.Pointer, inLen int) (Buffer, error) {
	if inLen < 0 {
		return Buffer{}, errors.InvalidInput(errors.PhaseBoundary, fmt.Sprintf("negative input length %d", inLen))
	}
	if in == nil && inLen > 0 {
		return Buffer{}, errors.InvalidInput(errors.PhaseBoundary, "nil input pointer with non-zero length")
	}

	var input []byte
	if inLen > 0 {
		input = unsafe.Slice((*byte)(in), inLen)
	}

	rep := g.runner.Check(id, input)
	if rep.Fatal() {
		return Buffer{}, rep.Err
	}

	ptr, err := g.alloc.Alloc(len(rep.Output))
	if err != nil {
		return Buffer{}, err
	}
	copy(unsafe.Slice((*byte)(ptr), len(rep.Output)), rep.Output)

	g.logger.Debug("output handed to caller",
		zap.Uint8("id", id),
		zap.Uintptr("ptr", uintptr(ptr)),
		zap.Int("len", len(rep.Output)))
	return Buffer{Ptr: ptr, Len: len(rep.Output)}, nil
}

// TryRoundtrip runs Call and stores the output pointer and length in the
// caller's slots. On error the slots are left untouched.
func (g *Gateway) TryRoundtrip(id uint8, in unsafe.Pointer, inLen int, outPtr *unsafe.Pointer, outLen *uintptr) error {
	if outPtr == nil || outLen == nil {
		return errors.InvalidInput(errors.PhaseBoundary, "nil output slot")
	}

	buf, err := g.Call(id, in, inLen)
	if err != nil {
		return err
	}
	*outPtr = buf.Ptr
	*outLen = uintptr(buf.Len)
	return nil
}

// Roundtrip is TryRoundtrip with failures routed to the abort hook. With the
// default hook it does not return on failure.
func (g *Gateway) Roundtrip(id uint8, in unsafe.Pointer, inLen int, outPtr *unsafe.Pointer, outLen *uintptr) {
	if err := g.TryRoundtrip(id, in, inLen, outPtr, outLen); err != nil {
		g.Abort(err)
	}
}

// Abort reports err through the abort hook.
func (g *Gateway) Abort(err error) {
	g.abort(err)
}

// Release returns an output buffer. A nil pointer is a no-op.
func (g *Gateway) Release(ptr unsafe.Pointer, size int) {
	if ptr == nil {
		return
	}
	g.alloc.Free(ptr, size)
	g.logger.Debug("output released",
		zap.Uintptr("ptr", uintptr(ptr)),
		zap.Int("len", size))
}

func (g *Gateway) exit(err error) {
	g.logger.Error("roundtrip aborted", zap.Error(err))
	_ = g.logger.Sync()
	fmt.Fprintf(os.Stderr, "roundtrip: %v\n", err)
	os.Exit(ExitCode)
}
