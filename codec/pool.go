package codec

import (
	"bytes"
	"sync"

	"github.com/wippyai/borsh-roundtrip/internal/wire"
)

const (
	// Pool limits to prevent memory bloat
	poolMaxCap  = 64 << 10
	poolInitCap = 256
)

// writer pool for encoding
var writerPool = sync.Pool{
	New: func() any {
		return wire.NewWriterBuffer(bytes.NewBuffer(make([]byte, 0, poolInitCap)))
	},
}

func getWriter() *wire.Writer {
	return writerPool.Get().(*wire.Writer)
}

func putWriter(w *wire.Writer) {
	if w == nil || w.Cap() > poolMaxCap {
		return // reject oversized
	}
	w.Reset()
	writerPool.Put(w)
}
