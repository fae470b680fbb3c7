//go:build wasm

package estimate

import "github.com/enitrat/cairo-wasm/internal/toolchain"

// Default returns the estimator for this build target. The CASM compiler is
// too heavy for it, so casm is ignored.
func Default(_ toolchain.CasmCompiler) Estimator {
	return Approximate{}
}
