package driver

import (
	"context"
	stderrors "errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/borsh-roundtrip/errors"
	"github.com/wippyai/borsh-roundtrip/metrics"
	"github.com/wippyai/borsh-roundtrip/runner"
)

func newDriver(t *testing.T, cfg guestConfig, opts ...Option) *Driver {
	t.Helper()
	ctx := context.Background()
	opts = append([]Option{WithStderr(io.Discard)}, opts...)
	d, err := New(ctx, buildGuest(cfg), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close(ctx) })
	return d
}

func releaseCount(t *testing.T, d *Driver) uint32 {
	t.Helper()
	n, err := d.mem.ReadU32(0)
	require.NoError(t, err)
	return n
}

func TestEchoGuestPassesEveryCase(t *testing.T) {
	d := newDriver(t, echoGuest())

	results, err := d.CheckAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, d.runner.Registry().Len())

	for _, res := range results {
		assert.True(t, res.Passed(), "case %s: %s %v", res.Report.CaseName(), res.Report.Verdict, res.Report.Err)
		assert.True(t, res.Identical, "case %s", res.Report.CaseName())
		assert.Equal(t, res.Expected, res.Output)
	}

	// input, slots and output are each handed back per case
	assert.Equal(t, uint32(3*len(results)), releaseCount(t, d))
}

func TestReallocGuest(t *testing.T) {
	cfg := echoGuest()
	cfg.realloc = true
	cfg.noRelease = true
	d := newDriver(t, cfg)
	assert.False(t, d.alloc.simple)

	results, err := d.CheckAll(context.Background())
	require.NoError(t, err)
	for _, res := range results {
		assert.True(t, res.Passed(), "case %s", res.Report.CaseName())
	}
	assert.Zero(t, releaseCount(t, d))
}

func TestCorruptingGuest(t *testing.T) {
	cfg := echoGuest()
	cfg.corruptID = 2
	d := newDriver(t, cfg)
	ctx := context.Background()

	res, err := d.Check(ctx, 2)
	require.NoError(t, err)
	assert.False(t, res.Passed())
	assert.False(t, res.Identical)
	assert.Equal(t, runner.Mismatch, res.Report.Verdict)
	assert.Equal(t, errors.KindRoundtripMismatch, errors.KindOf(res.Report.Err))
	assert.NotEmpty(t, res.Report.Diff)
	assert.Equal(t, res.Expected[1:], res.Output[1:])

	res, err = d.Check(ctx, 3)
	require.NoError(t, err)
	assert.True(t, res.Passed())
}

func TestTrappingGuest(t *testing.T) {
	cfg := echoGuest()
	cfg.trapID = 5

	var seen []*runner.Report
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg, "test")
	require.NoError(t, err)
	r := runner.New(nil,
		runner.WithObserver(runner.ObserverFunc(func(rep *runner.Report) { seen = append(seen, rep) })),
		runner.WithObserver(collector),
	)
	d := newDriver(t, cfg, WithRunner(r))
	ctx := context.Background()

	res, err := d.Check(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, runner.GuestAborted, res.Report.Verdict)
	assert.Equal(t, errors.KindAborted, errors.KindOf(res.Report.Err))
	assert.Nil(t, res.Output)
	assert.False(t, res.Passed())
	_, exited := ExitCode(res.Report.Err)
	assert.False(t, exited)

	require.Len(t, seen, 1)
	assert.Same(t, res.Report, seen[0])

	// a trap leaves the guest usable
	res, err = d.Check(ctx, 6)
	require.NoError(t, err)
	assert.True(t, res.Passed())

	count, err := testutil.GatherAndCount(reg, "test_roundtrip_checks_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestExitingGuest(t *testing.T) {
	cfg := echoGuest()
	cfg.exitID = 1
	d := newDriver(t, cfg)

	res, err := d.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, runner.GuestAborted, res.Report.Verdict)

	code, exited := ExitCode(res.Report.Err)
	require.True(t, exited)
	assert.Equal(t, uint32(101), code)
}

func TestAllocatorReturningZero(t *testing.T) {
	cfg := echoGuest()
	cfg.failAlloc = true
	d := newDriver(t, cfg)

	res, err := d.Check(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, runner.GuestAborted, res.Report.Verdict)
	assert.True(t, stderrors.Is(res.Report.Err, &errors.Error{Phase: errors.PhaseGuest, Kind: errors.KindAllocation}),
		"err = %v", res.Report.Err)
	assert.Zero(t, releaseCount(t, d), "nothing was allocated, so nothing is released")
}

func TestUnknownCase(t *testing.T) {
	d := newDriver(t, echoGuest())

	_, err := d.Check(context.Background(), 200)
	assert.Equal(t, errors.KindUnknownTestCase, errors.KindOf(err))
}

func TestMissingExports(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*guestConfig)
		kind   errors.Kind
	}{
		{"no memory", func(s *guestConfig) { s.noMemory = true }, errors.KindNotFound},
		{"no allocator", func(s *guestConfig) { s.noAlloc = true }, errors.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := echoGuest()
			tt.mutate(&cfg)
			_, err := New(context.Background(), buildGuest(cfg), WithStderr(io.Discard))
			assert.Equal(t, tt.kind, errors.KindOf(err))
		})
	}
}

func TestInvalidModule(t *testing.T) {
	_, err := New(context.Background(), []byte("not wasm"))
	assert.Equal(t, errors.KindInvalidData, errors.KindOf(err))

	cfg := echoGuest()
	cfg.allocName = ExportRealloc
	_, err = New(context.Background(), buildGuest(cfg), WithStderr(io.Discard))
	assert.Equal(t, errors.KindTypeMismatch, errors.KindOf(err))
}
