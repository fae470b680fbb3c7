package hint

import (
	"testing"

	"github.com/enitrat/cairo-wasm/internal/capture"
	"github.com/enitrat/cairo-wasm/internal/entropy"
	"github.com/enitrat/cairo-wasm/internal/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLoneByteArrayIsPrintedRaw(t *testing.T) {
	assert.Equal(t, "Hello, world!", FormatForDebug(EncodeByteArray("Hello, world!")))
}

func TestFormatLongByteArraySpansWords(t *testing.T) {
	text := "this sentence is longer than thirty one bytes for sure"
	payload := EncodeByteArray(text)
	require.Equal(t, uint64(1), mustUint(t, payload[1]))
	assert.Equal(t, text, FormatForDebug(payload))
}

func TestFormatMixedItems(t *testing.T) {
	payload := append(EncodeByteArray("hi"), felt.FromUint64(0x616263), felt.FromUint64(1))
	got := FormatForDebug(payload)
	assert.Equal(t, "hi\n[DEBUG]\t0x616263 ('abc')\n[DEBUG]\t0x1\n", got)
}

func TestFormatTruncatedByteArrayFallsBackToFelts(t *testing.T) {
	payload := []felt.Felt{ByteArrayMagic, felt.FromUint64(5)}
	got := FormatForDebug(payload)
	assert.Equal(t, "[DEBUG]\t"+ByteArrayMagic.Hex()+"\n[DEBUG]\t0x5\n", got)
}

func TestFormatZeroFelt(t *testing.T) {
	assert.Equal(t, "[DEBUG]\t0x0 ('')\n", FormatForDebug([]felt.Felt{{}}))
}

func TestShortStringEx(t *testing.T) {
	s, ok := ShortStringEx(felt.FromUint64(0x6101), 3)
	require.True(t, ok)
	assert.Equal(t, `\0a\x01`, s)

	_, ok = ShortStringEx(felt.FromUint64(0x616263), 2)
	assert.False(t, ok)

	s, ok = ShortStringEx(felt.Felt{}, 0)
	require.True(t, ok)
	assert.Empty(t, s)

	s, ok = ShortStringEx(felt.Felt{}, 2)
	require.True(t, ok)
	assert.Equal(t, `\0\0`, s)
}

func TestShortStringRejectsEmbeddedNull(t *testing.T) {
	_, ok := ShortString(felt.FromUint64(0x610062))
	assert.False(t, ok)
}

func TestDebugPrintAppendsToSink(t *testing.T) {
	sink := capture.NewSink()
	p := NewProcessor(sink, entropy.NewCounterSource(1))
	p.DebugPrint(EncodeByteArray("a\n"))
	p.DebugPrint(EncodeByteArray("b\n"))
	assert.Equal(t, "a\nb\n", sink.String())
	assert.Equal(t, sink.String(), p.Output())
}

func TestRandomECPointIsOnCurve(t *testing.T) {
	p := NewProcessor(nil, entropy.NewCounterSource(7))
	for i := 0; i < 5; i++ {
		x, y := p.RandomECPoint()
		lhs := y.Mul(y)
		rhs := x.Mul(x).Mul(x).Add(x).Add(curveBeta)
		assert.True(t, lhs.Equal(rhs))
	}
}

func TestRandomECPointIsDeterministicForSeed(t *testing.T) {
	x1, y1 := NewProcessor(nil, entropy.NewCounterSource(42)).RandomECPoint()
	x2, y2 := NewProcessor(nil, entropy.NewCounterSource(42)).RandomECPoint()
	assert.True(t, x1.Equal(x2))
	assert.True(t, y1.Equal(y2))
}

func mustUint(t *testing.T, f felt.Felt) uint64 {
	t.Helper()
	v, ok := f.Uint64()
	require.True(t, ok)
	return v
}
