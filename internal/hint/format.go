package hint

import (
	"fmt"
	"strings"

	"github.com/enitrat/cairo-wasm/internal/felt"
)

// BytesInWord is the number of bytes a full ByteArray word carries.
const BytesInWord = 31

// ByteArrayMagic prefixes a serialized ByteArray in a debug print payload.
var ByteArrayMagic = felt.MustParse("0x46a6158a16a947e5916b2a2ca68501a45e93d7110e81aa2d6438b1c57c879a3")

type formattedItem struct {
	text     string
	isString bool
}

// FormatForDebug renders the felts passed to a print hint. A payload holding
// exactly one ByteArray is printed as-is; otherwise every item gets its own line
// and non-string items are tagged with [DEBUG].
func FormatForDebug(values []felt.Felt) string {
	var items []formattedItem
	for len(values) > 0 {
		var item formattedItem
		item, values = nextItem(values)
		items = append(items, item)
	}
	if len(items) == 1 && items[0].isString {
		return items[0].text
	}
	var b strings.Builder
	for _, item := range items {
		if item.isString {
			b.WriteString(item.text)
			b.WriteByte('\n')
			continue
		}
		b.WriteString("[DEBUG]\t")
		b.WriteString(item.text)
		b.WriteByte('\n')
	}
	return b.String()
}

func nextItem(values []felt.Felt) (formattedItem, []felt.Felt) {
	first, rest := values[0], values[1:]
	if first.Equal(ByteArrayMagic) {
		if text, remaining, ok := tryFormatString(rest); ok {
			return formattedItem{text: text, isString: true}, remaining
		}
	}
	return formattedItem{text: formatShortString(first)}, rest
}

// tryFormatString consumes a serialized ByteArray. On failure values is left
// untouched so the magic is printed as a plain felt.
func tryFormatString(values []felt.Felt) (string, []felt.Felt, bool) {
	if len(values) == 0 {
		return "", values, false
	}
	fullWords, ok := values[0].Uint64()
	if !ok || fullWords > uint64(len(values)) {
		return "", values, false
	}
	n := int(fullWords)
	// count, words, pending word, pending length
	if len(values) < n+3 {
		return "", values, false
	}
	var b strings.Builder
	for _, word := range values[1 : 1+n] {
		s, ok := ShortStringEx(word, BytesInWord)
		if !ok {
			return "", values, false
		}
		b.WriteString(s)
	}
	pending := values[1+n]
	pendingLen, ok := values[2+n].Uint64()
	if !ok {
		return "", values, false
	}
	s, ok := ShortStringEx(pending, pendingLen)
	if !ok {
		return "", values, false
	}
	b.WriteString(s)
	return b.String(), values[3+n:], true
}

func formatShortString(v felt.Felt) string {
	if s, ok := ShortString(v); ok {
		return fmt.Sprintf("%s ('%s')", v.Hex(), s)
	}
	return v.Hex()
}

// ShortString decodes v as a null-terminated printable string.
func ShortString(v felt.Felt) (string, bool) {
	var b strings.Builder
	ended := false
	for _, c := range v.MinimalBytes() {
		switch {
		case c == 0:
			ended = true
		case ended:
			return "", false
		case printable(c):
			b.WriteByte(c)
		default:
			return "", false
		}
	}
	return b.String(), true
}

// ShortStringEx decodes v as a string of exactly length bytes, escaping nulls
// and non-printable bytes.
func ShortStringEx(v felt.Felt, length uint64) (string, bool) {
	if length == 0 {
		return "", v.IsZero()
	}
	if length > BytesInWord {
		return "", false
	}
	raw := v.MinimalBytes()
	if uint64(len(raw)) > length {
		return "", false
	}
	var b strings.Builder
	b.WriteString(strings.Repeat(`\0`, int(length)-len(raw)))
	for _, c := range raw {
		switch {
		case c == 0:
			b.WriteString(`\0`)
		case printable(c):
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, `\x%02x`, c)
		}
	}
	return b.String(), true
}

func printable(c byte) bool {
	if c >= 0x21 && c <= 0x7e {
		return true
	}
	switch c {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

// EncodeByteArray serializes text the way a Cairo ByteArray is passed to the
// print hint, magic included.
func EncodeByteArray(text string) []felt.Felt {
	raw := []byte(text)
	full := len(raw) / BytesInWord
	out := make([]felt.Felt, 0, full+4)
	out = append(out, ByteArrayMagic, felt.FromUint64(uint64(full)))
	for i := 0; i < full; i++ {
		out = append(out, felt.FromBytes(raw[i*BytesInWord:(i+1)*BytesInWord]))
	}
	pending := raw[full*BytesInWord:]
	out = append(out, felt.FromBytes(pending), felt.FromUint64(uint64(len(pending))))
	return out
}
