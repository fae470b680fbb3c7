//go:build !wasm

package estimate

import "github.com/enitrat/cairo-wasm/internal/toolchain"

// Default returns the estimator for this build target.
func Default(casm toolchain.CasmCompiler) Estimator {
	return NewPrecise(casm)
}
