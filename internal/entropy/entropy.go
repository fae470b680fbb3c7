// Package entropy provides the random-bit source handed to VM hints.
//
// Two variants exist. OSSource reads the host's entropy device and is used on
// targets that have one. CounterSource mixes a monotonically increasing counter
// and is used inside restricted targets with no random device. Which one
// Default returns is fixed by build constraints; callers only see Source.
package entropy

import (
	"encoding/binary"
	"io"
)

// Source produces the next unsigned value. Implementations never block.
type Source interface {
	NextUint64() uint64
}

// Default returns the process-wide source selected for this build target.
func Default() Source {
	return defaultSource
}

// Reader adapts a Source to io.Reader, eight bytes per draw.
func Reader(src Source) io.Reader {
	return &reader{src: src}
}

type reader struct {
	src Source
}

func (r *reader) Read(p []byte) (int, error) {
	var word [8]byte
	n := 0
	for n < len(p) {
		binary.LittleEndian.PutUint64(word[:], r.src.NextUint64())
		n += copy(p[n:], word[:])
	}
	return n, nil
}

// Fill writes len(dst) bytes drawn from src.
func Fill(src Source, dst []byte) {
	_, _ = Reader(src).Read(dst)
}
