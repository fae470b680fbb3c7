package entropy

import (
	"crypto/rand"
	"encoding/binary"
)

// OSSource draws from the host operating system's entropy device.
type OSSource struct{}

func NewOSSource() *OSSource {
	return &OSSource{}
}

func (*OSSource) NextUint64() uint64 {
	var buf [8]byte
	// crypto/rand.Read aborts the process rather than returning an error.
	_, _ = rand.Read(buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}
