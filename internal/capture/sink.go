// Package capture turns program-printed text into a value owned by one execution.
package capture

import "strings"

// Sink is an append-only text buffer. A Sink is created for exactly one
// execution and must not be shared, pooled or reused.
type Sink struct {
	buf strings.Builder
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

func (s *Sink) WriteString(text string) (int, error) {
	return s.buf.WriteString(text)
}

// String returns everything written so far.
func (s *Sink) String() string {
	if s == nil {
		return ""
	}
	return s.buf.String()
}

func (s *Sink) Len() int {
	if s == nil {
		return 0
	}
	return s.buf.Len()
}
