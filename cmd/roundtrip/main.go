package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/borsh-roundtrip/driver"
	"github.com/wippyai/borsh-roundtrip/gateway"
	"github.com/wippyai/borsh-roundtrip/metrics"
	"github.com/wippyai/borsh-roundtrip/registry"
	"github.com/wippyai/borsh-roundtrip/runner"
)

type options struct {
	wasmFile    string
	checkHex    string
	inFile      string
	caseID      int
	list        bool
	encode      bool
	interactive bool
	verbose     bool
	metrics     bool
}

func main() {
	var o options
	flag.StringVar(&o.wasmFile, "wasm", "", "Drive a wasm guest implementing roundtrip_test_case")
	flag.StringVar(&o.checkHex, "check", "", "Check a hex encoding against -case")
	flag.StringVar(&o.inFile, "in", "", "Check the raw bytes in a file against -case")
	flag.IntVar(&o.caseID, "case", -1, "Test case id")
	flag.BoolVar(&o.list, "list", false, "List test cases and exit")
	flag.BoolVar(&o.encode, "encode", false, "Print the canonical encoding of -case")
	flag.BoolVar(&o.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&o.verbose, "v", false, "Development logging to stderr")
	flag.BoolVar(&o.metrics, "metrics", false, "Print Prometheus metrics after checks")
	flag.Parse()

	if !o.list && !o.encode && !o.interactive && o.wasmFile == "" && o.checkHex == "" && o.inFile == "" {
		usage()
		os.Exit(1)
	}

	if o.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()
		runner.SetLogger(logger)
		gateway.SetLogger(logger)
		driver.SetLogger(logger)
	}

	if o.interactive {
		if err := runInteractive(o.wasmFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ok, err := run(os.Stdout, o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: roundtrip -list")
	fmt.Fprintln(os.Stderr, "       roundtrip -case N -encode")
	fmt.Fprintln(os.Stderr, "       roundtrip -case N -check HEX | -in FILE")
	fmt.Fprintln(os.Stderr, "       roundtrip -wasm <guest.wasm> [-case N]")
	fmt.Fprintln(os.Stderr, "       roundtrip -i [-wasm <guest.wasm>]  (interactive mode)")
	fmt.Fprintln(os.Stderr, "Flags -v and -metrics apply to every mode.")
}

// run executes one non-interactive command and reports whether every check
// passed.
func run(out io.Writer, o options) (bool, error) {
	p := newPrinter(out)

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg, "borsh")
	if err != nil {
		return false, err
	}
	r := runner.New(nil, runner.WithObserver(collector))

	if o.list {
		listCases(p, r)
		return true, nil
	}

	ok := true
	switch {
	case o.encode:
		id, err := caseID(o)
		if err != nil {
			return false, err
		}
		data, err := r.Expected(id)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, hex.EncodeToString(data))

	case o.checkHex != "" || o.inFile != "":
		id, err := caseID(o)
		if err != nil {
			return false, err
		}
		input, err := readInput(o)
		if err != nil {
			return false, err
		}
		rep := r.Check(id, input)
		p.report(rep)
		ok = !rep.Fatal()

	case o.wasmFile != "":
		ok, err = driveGuest(p, r, o)
		if err != nil {
			return false, err
		}
	}

	if o.metrics {
		if err := dumpMetrics(out, reg); err != nil {
			return ok, err
		}
	}
	return ok, nil
}

func caseID(o options) (uint8, error) {
	if o.caseID < 0 || o.caseID > 255 {
		return 0, fmt.Errorf("-case must be between 0 and 255, got %d", o.caseID)
	}
	return uint8(o.caseID), nil
}

func readInput(o options) ([]byte, error) {
	if o.inFile != "" {
		data, err := os.ReadFile(o.inFile)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return data, nil
	}
	return parseHex(o.checkHex)
}

// parseHex accepts plain hex with optional whitespace and 0x prefix.
func parseHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return data, nil
}

func listCases(p *printer, r *runner.Runner) {
	for _, c := range r.Registry().Cases() {
		data, err := r.Expected(c.ID)
		encoded := hex.EncodeToString(data)
		if err != nil {
			encoded = p.bad(err.Error())
		}
		fmt.Fprintf(p.out, "%3d  %s  %s\n", c.ID, p.name(fmt.Sprintf("%-14s", c.Name)), p.shape(c.Shape.String()))
		fmt.Fprintf(p.out, "     %s\n", encoded)
	}
}

func driveGuest(p *printer, r *runner.Runner, o options) (bool, error) {
	ctx := context.Background()

	data, err := os.ReadFile(o.wasmFile)
	if err != nil {
		return false, fmt.Errorf("read file: %w", err)
	}

	d, err := driver.New(ctx, data, driver.WithRunner(r))
	if err != nil {
		return false, fmt.Errorf("load guest: %w", err)
	}
	defer d.Close(ctx)

	var results []*driver.CaseResult
	if o.caseID >= 0 {
		id, err := caseID(o)
		if err != nil {
			return false, err
		}
		res, err := d.Check(ctx, id)
		if err != nil {
			return false, err
		}
		results = append(results, res)
	} else {
		results, err = d.CheckAll(ctx)
		if err != nil {
			return false, err
		}
	}

	passed := 0
	for _, res := range results {
		p.result(res)
		if res.Passed() {
			passed++
		}
	}
	fmt.Fprintf(p.out, "\n%d/%d cases passed\n", passed, len(results))
	return passed == len(results), nil
}

func dumpMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	fmt.Fprintln(out)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// printer colours output only when it goes to a terminal.
type printer struct {
	out   io.Writer
	color bool
}

func newPrinter(out io.Writer) *printer {
	p := &printer{out: out}
	if f, ok := out.(*os.File); ok {
		p.color = term.IsTerminal(int(f.Fd()))
	}
	return p
}

func (p *printer) paint(s string, render func(...string) string) string {
	if !p.color {
		return s
	}
	return render(s)
}

func (p *printer) name(s string) string  { return p.paint(s, funcStyle.Render) }
func (p *printer) shape(s string) string { return p.paint(s, typeStyle.Render) }
func (p *printer) good(s string) string  { return p.paint(s, resultStyle.Render) }
func (p *printer) bad(s string) string   { return p.paint(s, errorStyle.Render) }

func (p *printer) verdict(v runner.Verdict) string {
	if v == runner.Pass {
		return p.good(v.String())
	}
	return p.bad(v.String())
}

func (p *printer) report(rep *runner.Report) {
	fmt.Fprintf(p.out, "%s  %s\n", p.name(rep.CaseName()), p.verdict(rep.Verdict))
	if rep.Err != nil {
		fmt.Fprintf(p.out, "  %s\n", p.bad(rep.Err.Error()))
	}
	if rep.Diff != "" {
		fmt.Fprintf(p.out, "%s\n", rep.Diff)
	}
	if rep.Output != nil {
		fmt.Fprintf(p.out, "  output %s\n", hex.EncodeToString(rep.Output))
	}
}

func (p *printer) result(res *driver.CaseResult) {
	rep := res.Report
	status := p.verdict(rep.Verdict)
	if rep.Verdict == runner.Pass && !res.Identical {
		status = p.bad("not canonical")
	}
	fmt.Fprintf(p.out, "%3d  %s  %s\n", rep.ID, p.name(fmt.Sprintf("%-14s", rep.CaseName())), status)
	if rep.Err != nil {
		fmt.Fprintf(p.out, "     %s\n", p.bad(rep.Err.Error()))
	}
	if !res.Identical && res.Output != nil {
		fmt.Fprintf(p.out, "     want %s\n     have %s\n",
			hex.EncodeToString(res.Expected), hex.EncodeToString(res.Output))
	}
}

// caseLabel is shared by the list and the interactive browser.
func caseLabel(c registry.Case) string {
	return fmt.Sprintf("%3d  %s", c.ID, c.Name)
}
