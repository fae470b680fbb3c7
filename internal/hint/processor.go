// Package hint implements the host side of the VM hints a Cairo program may
// raise while running: printing and random curve point sampling.
package hint

import (
	"encoding/binary"

	"github.com/enitrat/cairo-wasm/internal/capture"
	"github.com/enitrat/cairo-wasm/internal/entropy"
	"github.com/enitrat/cairo-wasm/internal/felt"
)

// curveBeta is the b coefficient of the STARK curve y^2 = x^3 + x + b.
var curveBeta = felt.MustParse("3141592653589793238462643383279502884197169399375105820974944592307816406665")

// Processor serves hints for one execution. Printed text goes to its sink and
// random draws come from its entropy source.
type Processor struct {
	sink    *capture.Sink
	entropy entropy.Source
}

func NewProcessor(sink *capture.Sink, src entropy.Source) *Processor {
	if sink == nil {
		sink = capture.NewSink()
	}
	if src == nil {
		src = entropy.Default()
	}
	return &Processor{sink: sink, entropy: src}
}

// DebugPrint formats a print payload and appends it to the sink.
func (p *Processor) DebugPrint(values []felt.Felt) {
	_, _ = p.sink.WriteString(FormatForDebug(values))
}

// RandomECPoint samples x until x^3 + x + beta is a square and returns (x, y).
func (p *Processor) RandomECPoint() (felt.Felt, felt.Felt) {
	var buf [32]byte
	for {
		for i := 0; i < 4; i++ {
			binary.BigEndian.PutUint64(buf[i*8:], p.entropy.NextUint64())
		}
		x := felt.FromBytes(buf[:])
		y2 := x.Mul(x).Mul(x).Add(x).Add(curveBeta)
		if y, ok := y2.Sqrt(); ok {
			return x, y
		}
	}
}

// Output returns everything printed so far.
func (p *Processor) Output() string {
	return p.sink.String()
}
