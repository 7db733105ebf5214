package runner

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"github.com/wippyai/borsh-roundtrip/codec"
	"github.com/wippyai/borsh-roundtrip/errors"
	"github.com/wippyai/borsh-roundtrip/registry"
)

// Runner checks that input bytes decode to a case's reference value and
// produces the canonical re-encoding. Safe for concurrent use.
type Runner struct {
	reg       *registry.Registry
	compiler  *codec.Compiler
	encoder   *codec.Encoder
	decoder   *codec.Decoder
	logger    *zap.Logger
	observers []Observer
	decodeOpt []codec.DecoderOption
}

// Option configures a Runner.
type Option func(*Runner)

// WithCompiler shares a compiler, and its cache, with other codec users.
func WithCompiler(c *codec.Compiler) Option {
	return func(r *Runner) {
		r.compiler = c
	}
}

// WithObserver adds an observer called after every check.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observers = append(r.observers, o)
	}
}

// WithLogger overrides the package logger for this runner.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithMaxDepth bounds the nesting depth accepted when decoding input.
func WithMaxDepth(n int) Option {
	return func(r *Runner) {
		r.decodeOpt = append(r.decodeOpt, codec.WithMaxDepth(n))
	}
}

// New creates a Runner over reg, or over registry.Default when reg is nil.
func New(reg *registry.Registry, opts ...Option) *Runner {
	r := &Runner{reg: reg}
	for _, opt := range opts {
		opt(r)
	}
	if r.reg == nil {
		r.reg = registry.Default()
	}
	if r.compiler == nil {
		r.compiler = codec.NewCompiler()
	}
	if r.logger == nil {
		r.logger = Logger()
	}
	r.encoder = codec.NewEncoderWithCompiler(r.compiler)
	r.decoder = codec.NewDecoderWithCompiler(r.compiler, r.decodeOpt...)
	return r
}

// Registry returns the registry this runner resolves ids against.
func (r *Runner) Registry() *registry.Registry {
	return r.reg
}

// Check resolves id, decodes input with the case's shape, compares the
// result with the reference and re-encodes the reference.
func (r *Runner) Check(id uint8, input []byte) *Report {
	rep := r.check(id, input)
	r.Publish(rep)
	return rep
}

func (r *Runner) check(id uint8, input []byte) *Report {
	rep := &Report{ID: id}

	c, err := r.reg.Lookup(id)
	if err != nil {
		rep.Verdict, rep.Err = UnknownCase, err
		return rep
	}
	rep.Case = c

	ct, err := r.compiler.Compile(c.Shape, c.GoType())
	if err != nil {
		rep.Verdict, rep.Err = EncodeFailed, err
		return rep
	}

	out := reflect.New(ct.GoType)
	consumed, err := r.decoder.Decode(ct, input, out.Interface())
	if err != nil {
		rep.Verdict, rep.Err = Malformed, err
		return rep
	}
	if consumed != len(input) {
		rep.Verdict, rep.Err = Malformed, errors.TrailingBytes(consumed, len(input))
		return rep
	}

	decoded := out.Elem().Interface()
	if !cmp.Equal(c.Value, decoded, cmpopts.EquateEmpty()) {
		rep.Diff = cmp.Diff(c.Value, decoded, cmpopts.EquateEmpty())
		rep.Verdict, rep.Err = Mismatch, errors.RoundtripMismatch(c.Name, rep.Diff)
		return rep
	}

	output, err := r.encoder.Encode(ct, reflect.ValueOf(c.Value))
	if err != nil {
		rep.Verdict, rep.Err = EncodeFailed, err
		return rep
	}
	rep.Output = output
	return rep
}

// Publish logs rep and hands it to the observers. Check publishes its own
// reports; callers that decide a verdict elsewhere, such as a guest abort,
// publish theirs here.
func (r *Runner) Publish(rep *Report) {
	if rep.Fatal() {
		r.logger.Warn("conformance check failed",
			zap.Uint8("id", rep.ID),
			zap.String("case", rep.CaseName()),
			zap.Stringer("verdict", rep.Verdict),
			zap.Error(rep.Err))
	} else {
		r.logger.Debug("conformance check passed",
			zap.Uint8("id", rep.ID),
			zap.String("case", rep.CaseName()),
			zap.Int("output_bytes", len(rep.Output)))
	}

	for _, o := range r.observers {
		o.Observe(rep)
	}
}

// Run is Check reduced to output bytes or the failure.
func (r *Runner) Run(id uint8, input []byte) ([]byte, error) {
	rep := r.Check(id, input)
	if rep.Fatal() {
		return nil, rep.Err
	}
	return rep.Output, nil
}

// Expected returns the canonical encoding of case id's reference.
func (r *Runner) Expected(id uint8) ([]byte, error) {
	c, err := r.reg.Lookup(id)
	if err != nil {
		return nil, err
	}
	ct, err := r.compiler.Compile(c.Shape, c.GoType())
	if err != nil {
		return nil, err
	}
	return r.encoder.Encode(ct, reflect.ValueOf(c.Value))
}
