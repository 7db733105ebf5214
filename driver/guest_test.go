package driver

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/wippyai/borsh-roundtrip/internal/wire"
)

// Hand-assembled echo guests. Each copies its input into a fresh bump
// allocation and hands that back, optionally corrupting, trapping or
// exiting for one id. Releases are counted in the i32 at address 0.

const (
	magic   = 0x6d736100
	version = 1

	sectionType     = 1
	sectionImport   = 2
	sectionFunction = 3
	sectionMemory   = 5
	sectionGlobal   = 6
	sectionExport   = 7
	sectionCode     = 10

	kindFunc   = 0x00
	kindMemory = 0x02

	valI32   = 0x7f
	funcType = 0x60
	voidType = 0x40

	opUnreachable = 0x00
	opIf          = 0x04
	opEnd         = 0x0b
	opCall        = 0x10
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opI32Load     = 0x28
	opI32Load8U   = 0x2d
	opI32Store    = 0x36
	opI32Store8   = 0x3a
	opI32Const    = 0x41
	opI32Eq       = 0x46
	opI32Add      = 0x6a
	opI32And      = 0x71
	opI32Xor      = 0x73
	opMiscPrefix  = 0xfc
	opMemoryCopy  = 10
)

type guestConfig struct {
	corruptID int // flip the first output byte for this id
	trapID    int // hit unreachable for this id
	exitID    int // proc_exit(101) for this id
	realloc   bool
	noRelease bool
	noAlloc   bool
	noMemory  bool
	allocName string // export the allocator under this name instead
	failAlloc bool   // allocator always returns 0
}

func echoGuest() guestConfig {
	return guestConfig{corruptID: -1, trapID: -1, exitID: -1}
}

// writer adds the LEB128 forms the wasm binary format uses for indices
// and immediates.
type writer struct {
	*wire.Writer
}

func newWriter() writer { return writer{wire.NewWriter()} }

func (w writer) WriteU32(v uint32) {
	w.WriteBytes(binary.AppendUvarint(nil, uint64(v)))
}

func (w writer) WriteS32(v int32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			w.Byte(b)
			return
		}
		w.Byte(b | 0x80)
	}
}

func (w writer) WriteName(s string) {
	w.WriteU32(uint32(len(s)))
	w.WriteString(s)
}

func TestWriterLEB128(t *testing.T) {
	tests := []struct {
		name  string
		write func(w writer)
		want  []byte
	}{
		{"u32 zero", func(w writer) { w.WriteU32(0) }, []byte{0x00}},
		{"u32 128", func(w writer) { w.WriteU32(128) }, []byte{0x80, 0x01}},
		{"u32 624485", func(w writer) { w.WriteU32(624485) }, []byte{0xe5, 0x8e, 0x26}},
		{"s32 -1", func(w writer) { w.WriteS32(-1) }, []byte{0x7f}},
		{"s32 -8", func(w writer) { w.WriteS32(-8) }, []byte{0x78}},
		{"s32 64", func(w writer) { w.WriteS32(64) }, []byte{0xc0, 0x00}},
		{"s32 1024", func(w writer) { w.WriteS32(1024) }, []byte{0x80, 0x08}},
		{"name", func(w writer) { w.WriteName("abc") }, []byte{0x03, 'a', 'b', 'c'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWriter()
			tt.write(w)
			if !bytes.Equal(w.Bytes(), tt.want) {
				t.Errorf("got % x, want % x", w.Bytes(), tt.want)
			}
		})
	}
}

type code struct {
	w writer
}

func newCode() *code { return &code{w: newWriter()} }

func (c *code) op(b ...byte) *code {
	c.w.WriteBytes(b)
	return c
}

func (c *code) i32(v int32) *code {
	c.w.Byte(opI32Const)
	c.w.WriteS32(v)
	return c
}

func (c *code) local(op byte, idx uint32) *code {
	c.w.Byte(op)
	c.w.WriteU32(idx)
	return c
}

func (c *code) mem(op byte, align uint32) *code {
	c.w.Byte(op)
	c.w.WriteU32(align)
	c.w.WriteU32(0)
	return c
}

func (c *code) whenID(id int, body func(c *code)) *code {
	if id < 0 {
		return c
	}
	c.local(opLocalGet, 0).i32(int32(id)).op(opI32Eq, opIf, voidType)
	body(c)
	return c.op(opEnd)
}

func writeSection(w writer, id byte, body []byte) {
	w.Byte(id)
	w.WriteU32(uint32(len(body)))
	w.WriteBytes(body)
}

func writeFuncType(w writer, params, results int) {
	w.Byte(funcType)
	w.WriteU32(uint32(params))
	for i := 0; i < params; i++ {
		w.Byte(valI32)
	}
	w.WriteU32(uint32(results))
	for i := 0; i < results; i++ {
		w.Byte(valI32)
	}
}

func writeBody(w writer, locals uint32, c *code) {
	body := newWriter()
	if locals > 0 {
		body.WriteU32(1)
		body.WriteU32(locals)
		body.Byte(valI32)
	} else {
		body.WriteU32(0)
	}
	body.WriteBytes(c.w.Bytes())
	body.Byte(opEnd)

	w.WriteU32(uint32(body.Len()))
	w.WriteBytes(body.Bytes())
}

func buildGuest(cfg guestConfig) []byte {
	var imports uint32
	if cfg.exitID >= 0 {
		imports = 1
	}
	allocIdx, testIdx, releaseIdx := imports, imports+1, imports+2

	out := newWriter()
	out.WriteU32LE(magic)
	out.WriteU32LE(version)

	// types: 0 alloc, 1 test case, 2 release, 3 proc_exit
	sec := newWriter()
	sec.WriteU32(4)
	if cfg.realloc {
		writeFuncType(sec, 4, 1)
	} else {
		writeFuncType(sec, 1, 1)
	}
	writeFuncType(sec, 5, 0)
	writeFuncType(sec, 2, 0)
	writeFuncType(sec, 1, 0)
	writeSection(out, sectionType, sec.Bytes())

	if imports > 0 {
		sec = newWriter()
		sec.WriteU32(1)
		sec.WriteName("wasi_snapshot_preview1")
		sec.WriteName("proc_exit")
		sec.Byte(kindFunc)
		sec.WriteU32(3)
		writeSection(out, sectionImport, sec.Bytes())
	}

	sec = newWriter()
	sec.WriteU32(3)
	sec.WriteU32(0)
	sec.WriteU32(1)
	sec.WriteU32(2)
	writeSection(out, sectionFunction, sec.Bytes())

	writeSection(out, sectionMemory, []byte{1, 0x00, 1})

	sec = newWriter()
	sec.WriteU32(1)
	sec.Byte(valI32)
	sec.Byte(1) // mutable
	sec.Byte(opI32Const)
	sec.WriteS32(1024)
	sec.Byte(opEnd)
	writeSection(out, sectionGlobal, sec.Bytes())

	type export struct {
		name string
		kind byte
		idx  uint32
	}
	exports := []export{{"roundtrip_test_case", kindFunc, testIdx}}
	if !cfg.noMemory {
		exports = append(exports, export{"memory", kindMemory, 0})
	}
	if !cfg.noAlloc {
		name := "roundtrip_alloc"
		if cfg.realloc {
			name = "cabi_realloc"
		}
		if cfg.allocName != "" {
			name = cfg.allocName
		}
		exports = append(exports, export{name, kindFunc, allocIdx})
	}
	if !cfg.noRelease {
		exports = append(exports, export{"roundtrip_release_buffer", kindFunc, releaseIdx})
	}
	sec = newWriter()
	sec.WriteU32(uint32(len(exports)))
	for _, e := range exports {
		sec.WriteName(e.name)
		sec.Byte(e.kind)
		sec.WriteU32(e.idx)
	}
	writeSection(out, sectionExport, sec.Bytes())

	sec = newWriter()
	sec.WriteU32(3)

	// alloc: bump pointer rounded up to 8
	sizeIdx := uint32(0)
	if cfg.realloc {
		sizeIdx = 3
	}
	alloc := newCode().
		local(opGlobalGet, 0).
		local(opGlobalGet, 0).local(opLocalGet, sizeIdx).op(opI32Add).
		i32(7).op(opI32Add).i32(-8).op(opI32And).
		local(opGlobalSet, 0)
	if cfg.failAlloc {
		alloc = newCode().i32(0)
	}
	writeBody(sec, 0, alloc)

	// test case: params id, in, len, out_ptr, out_len; local 5 = dst
	test := newCode().
		whenID(cfg.trapID, func(c *code) { c.op(opUnreachable) }).
		whenID(cfg.exitID, func(c *code) { c.i32(101).local(opCall, 0) })
	if cfg.realloc {
		test.i32(0).i32(0).i32(1)
	}
	test.local(opLocalGet, 2).local(opCall, allocIdx).local(opLocalSet, 5).
		local(opLocalGet, 5).local(opLocalGet, 1).local(opLocalGet, 2).
		op(opMiscPrefix, opMemoryCopy, 0, 0).
		whenID(cfg.corruptID, func(c *code) {
			c.local(opLocalGet, 5).
				local(opLocalGet, 5).mem(opI32Load8U, 0).
				i32(1).op(opI32Xor).
				mem(opI32Store8, 0)
		}).
		local(opLocalGet, 3).local(opLocalGet, 5).mem(opI32Store, 2).
		local(opLocalGet, 4).local(opLocalGet, 2).mem(opI32Store, 2)
	writeBody(sec, 1, test)

	// release: count at address 0
	release := newCode().
		i32(0).
		i32(0).mem(opI32Load, 2).i32(1).op(opI32Add).
		mem(opI32Store, 2)
	writeBody(sec, 0, release)

	writeSection(out, sectionCode, sec.Bytes())
	return append([]byte(nil), out.Bytes()...)
}
