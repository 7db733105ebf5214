package driver

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	roundtrip "github.com/wippyai/borsh-roundtrip"
	"github.com/wippyai/borsh-roundtrip/errors"
	"github.com/wippyai/borsh-roundtrip/runner"
)

// Guest export names.
const (
	ExportMemory   = "memory"
	ExportTestCase = "roundtrip_test_case"
	ExportAlloc    = "roundtrip_alloc"
	ExportRealloc  = "cabi_realloc"
	ExportRelease  = "roundtrip_release_buffer"
)

const slotSize = roundtrip.PointerSlot

// CaseResult is the outcome of driving one case through the guest.
type CaseResult struct {
	// Report is the runner's verdict on the guest's output. Its Verdict is
	// GuestAborted when the guest trapped or exited.
	Report *runner.Report
	// Expected is the canonical encoding sent to the guest.
	Expected []byte
	// Output is the guest's encoding, copied out of guest memory.
	Output []byte
	// Identical reports whether Output equals Expected byte for byte.
	Identical bool
}

// Passed reports whether the guest decoded and re-encoded the case exactly.
func (r *CaseResult) Passed() bool {
	return !r.Report.Fatal() && r.Identical
}

// Driver runs conformance cases against a foreign implementation compiled to
// WebAssembly. It is NOT safe for concurrent use; calls are serialized.
type Driver struct {
	runtime  wazero.Runtime
	module   api.Module
	mem      *guestMemory
	alloc    *guestAllocator
	testCase api.Function
	runner   *runner.Runner
	logger   *zap.Logger
	stderr   io.Writer
	config   wazero.RuntimeConfig
	stackBuf []uint64
	mu       sync.Mutex
}

// Option configures a Driver.
type Option func(*Driver)

// WithRunner sets the runner that produces expected encodings and judges
// guest output.
func WithRunner(r *runner.Runner) Option {
	return func(d *Driver) {
		d.runner = r
	}
}

// WithLogger overrides the package logger for this driver.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithStderr receives the guest's stderr. Defaults to os.Stderr.
func WithStderr(w io.Writer) Option {
	return func(d *Driver) {
		d.stderr = w
	}
}

// WithRuntimeConfig overrides the wazero runtime configuration. The default
// closes the guest when a call's context is done.
func WithRuntimeConfig(cfg wazero.RuntimeConfig) Option {
	return func(d *Driver) {
		d.config = cfg
	}
}

// New compiles and instantiates wasmBytes with WASI preview1 imports and
// resolves the guest exports.
func New(ctx context.Context, wasmBytes []byte, opts ...Option) (*Driver, error) {
	d := &Driver{stackBuf: make([]uint64, 5)}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = Logger()
	}
	if d.runner == nil {
		d.runner = runner.New(nil, runner.WithLogger(d.logger))
	}
	if d.stderr == nil {
		d.stderr = os.Stderr
	}
	if d.config == nil {
		d.config = wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	}

	d.runtime = wazero.NewRuntimeWithConfig(ctx, d.config)
	if err := d.instantiate(ctx, wasmBytes); err != nil {
		_ = d.runtime.Close(ctx)
		return nil, err
	}
	return d, nil
}

func (d *Driver) instantiate(ctx context.Context, wasmBytes []byte) error {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, d.runtime); err != nil {
		return errors.Wrap(errors.PhaseGuest, errors.KindUnsupported, err, "instantiate WASI preview1")
	}

	compiled, err := d.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return errors.Wrap(errors.PhaseGuest, errors.KindInvalidData, err, "compile guest module")
	}

	// Reactors built with -buildmode=c-shared need _initialize; commands
	// would run main from _start and exit, so only the former is run.
	cfg := wazero.NewModuleConfig().
		WithName("guest").
		WithStderr(d.stderr).
		WithStartFunctions("_initialize")
	mod, err := d.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return errors.Wrap(errors.PhaseGuest, errors.KindAborted, err, "instantiate guest module")
	}
	d.module = mod

	mem := mod.ExportedMemory(ExportMemory)
	if mem == nil {
		return errors.NotFound(errors.PhaseGuest, "memory export", ExportMemory)
	}
	d.mem = &guestMemory{mem: mem}

	d.testCase = mod.ExportedFunction(ExportTestCase)
	if d.testCase == nil {
		return errors.NotFound(errors.PhaseGuest, "function export", ExportTestCase)
	}
	if err := checkSignature(d.testCase, 5, 0); err != nil {
		return err
	}

	allocFn := mod.ExportedFunction(ExportAlloc)
	if allocFn != nil {
		if err := checkSignature(allocFn, 1, 1); err != nil {
			return err
		}
	} else {
		allocFn = mod.ExportedFunction(ExportRealloc)
		if allocFn == nil {
			return errors.NotFound(errors.PhaseGuest, "allocator export", ExportAlloc+" or "+ExportRealloc)
		}
		if err := checkSignature(allocFn, 4, 1); err != nil {
			return err
		}
	}

	releaseFn := mod.ExportedFunction(ExportRelease)
	if releaseFn != nil {
		if err := checkSignature(releaseFn, 2, 0); err != nil {
			return err
		}
	}
	d.alloc = newGuestAllocator(allocFn, releaseFn)

	d.logger.Debug("guest instantiated",
		zap.Uint32("memory_bytes", d.mem.Size()),
		zap.Bool("simple_alloc", d.alloc.simple),
		zap.Bool("has_release", releaseFn != nil))
	return nil
}

func checkSignature(fn api.Function, params, results int) error {
	def := fn.Definition()
	for _, t := range def.ParamTypes() {
		if t != api.ValueTypeI32 {
			params = -1
		}
	}
	for _, t := range def.ResultTypes() {
		if t != api.ValueTypeI32 {
			results = -1
		}
	}
	if len(def.ParamTypes()) != params || len(def.ResultTypes()) != results {
		return errors.New(errors.PhaseGuest, errors.KindTypeMismatch).
			Path(def.Name()).
			Detail("want %d i32 params and %d i32 results, have %v -> %v",
				params, results, def.ParamTypes(), def.ResultTypes()).
			Build()
	}
	return nil
}

// Check sends the canonical encoding of case id to the guest and judges what
// it hands back. Guest traps are reported in the result, not as an error;
// the error return is for failures of the host side of the protocol.
func (d *Driver) Check(ctx context.Context, id uint8) (*CaseResult, error) {
	expected, err := d.runner.Expected(id)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.alloc.setContext(ctx)
	defer d.alloc.setContext(nil)

	output, callErr := d.call(ctx, id, expected)
	if callErr != nil {
		c, _ := d.runner.Registry().Lookup(id)
		rep := &runner.Report{
			ID:      id,
			Case:    c,
			Verdict: runner.GuestAborted,
			Err:     errors.Wrap(errors.PhaseGuest, errors.KindAborted, callErr, ExportTestCase+" did not return"),
		}
		d.runner.Publish(rep)
		return &CaseResult{Report: rep, Expected: expected}, nil
	}

	rep := d.runner.Check(id, output)
	res := &CaseResult{
		Report:    rep,
		Expected:  expected,
		Output:    output,
		Identical: bytes.Equal(output, expected),
	}
	d.logger.Debug("guest case checked",
		zap.Uint8("id", id),
		zap.String("case", rep.CaseName()),
		zap.Stringer("verdict", rep.Verdict),
		zap.Bool("identical", res.Identical))
	return res, nil
}

// call runs one boundary call inside the guest and returns a host copy of
// its output. Every guest buffer is released before returning.
func (d *Driver) call(ctx context.Context, id uint8, input []byte) ([]byte, error) {
	inLen := uint32(len(input))
	inPtr, err := d.alloc.Alloc(max(inLen, 1), 1)
	if err != nil {
		return nil, err
	}
	defer d.alloc.Free(inPtr, max(inLen, 1), 1)

	if err := d.mem.Write(inPtr, input); err != nil {
		return nil, err
	}

	slots, err := d.alloc.Alloc(2*slotSize, slotSize)
	if err != nil {
		return nil, err
	}
	defer d.alloc.Free(slots, 2*slotSize, slotSize)

	if err := d.mem.WriteU32(slots, 0); err != nil {
		return nil, err
	}
	if err := d.mem.WriteU32(slots+slotSize, 0); err != nil {
		return nil, err
	}

	d.stackBuf[0] = uint64(id)
	d.stackBuf[1] = uint64(inPtr)
	d.stackBuf[2] = uint64(inLen)
	d.stackBuf[3] = uint64(slots)
	d.stackBuf[4] = uint64(slots + slotSize)
	if err := d.testCase.CallWithStack(ctx, d.stackBuf[:5]); err != nil {
		return nil, err
	}

	outPtr, err := d.mem.ReadU32(slots)
	if err != nil {
		return nil, err
	}
	outLen, err := d.mem.ReadU32(slots + slotSize)
	if err != nil {
		return nil, err
	}
	defer d.alloc.ReleaseOutput(outPtr, outLen)

	return d.mem.Read(outPtr, outLen)
}

// CheckAll checks every registry case in id order.
func (d *Driver) CheckAll(ctx context.Context) ([]*CaseResult, error) {
	cases := d.runner.Registry().Cases()
	results := make([]*CaseResult, 0, len(cases))
	for _, c := range cases {
		res, err := d.Check(ctx, c.ID)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ExitCode returns the guest's exit status when err came from the guest
// calling proc_exit.
func ExitCode(err error) (uint32, bool) {
	var exitErr *sys.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// Close releases the guest and the runtime.
func (d *Driver) Close(ctx context.Context) error {
	return d.runtime.Close(ctx)
}
