//go:build wasm

package entropy

var defaultSource Source = NewCounterSource(0)
