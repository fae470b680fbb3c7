//go:build !wasm

package entropy

var defaultSource Source = NewOSSource()
