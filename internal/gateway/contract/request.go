// Package contract holds the wire shapes of the gateway calls and the error
// taxonomy every failure is folded into.
package contract

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/enitrat/cairo-wasm/internal/project"
)

// DefaultFunction is the suffix resolved when a run request names no function.
const DefaultFunction = "::main"

type CompileRequest struct {
	CrateName string
	Files     map[string]string
	// CorelibFiles is nil when the embedded core library should be used.
	CorelibFiles     map[string]string
	ReplaceIDs       bool
	InliningStrategy project.InliningStrategy
}

// Settings returns the project settings the request asks for.
func (r CompileRequest) Settings() project.Settings {
	return project.Settings{ReplaceIDs: r.ReplaceIDs, Inlining: r.InliningStrategy}
}

type CompileAndRunRequest struct {
	CompileRequest
	AvailableGas *uint64
	Function     string
}

type RunSierraRequest struct {
	Sierra       string
	AvailableGas *uint64
	Function     string
}

type EstimateRequest struct {
	Sierra string
}

type projectWire struct {
	CrateName        *string           `json:"crate_name"`
	Files            map[string]string `json:"files"`
	CorelibFiles     map[string]string `json:"corelib_files"`
	ReplaceIDs       *bool             `json:"replace_ids"`
	InliningStrategy *string           `json:"inlining_strategy"`
	AvailableGas     *uint64           `json:"available_gas"`
	Function         *string           `json:"function"`
}

type sierraWire struct {
	Sierra       *string `json:"sierra"`
	AvailableGas *uint64 `json:"available_gas"`
	Function     *string `json:"function"`
}

func parseError(err error) *Error {
	return NewError(KindRequestParse, fmt.Sprintf("Failed parsing request JSON: %v", err), err)
}

func missingField(name string) *Error {
	return parseError(fmt.Errorf("missing field `%s`", name))
}

// DecodeCompile reads a compile request. replace_ids defaults to false.
func DecodeCompile(raw []byte) (CompileRequest, error) {
	w, err := decodeProject(raw)
	if err != nil {
		return CompileRequest{}, err
	}
	return w.compileRequest(false)
}

// DecodeCompileAndRun reads a compile-and-run request. replace_ids defaults
// to true so functions can be resolved by name.
func DecodeCompileAndRun(raw []byte) (CompileAndRunRequest, error) {
	w, err := decodeProject(raw)
	if err != nil {
		return CompileAndRunRequest{}, err
	}
	req, err := w.compileRequest(true)
	if err != nil {
		return CompileAndRunRequest{}, err
	}
	return CompileAndRunRequest{
		CompileRequest: req,
		AvailableGas:   w.AvailableGas,
		Function:       functionOrDefault(w.Function),
	}, nil
}

func DecodeRunSierra(raw []byte) (RunSierraRequest, error) {
	var w sierraWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return RunSierraRequest{}, parseError(err)
	}
	if w.Sierra == nil {
		return RunSierraRequest{}, missingField("sierra")
	}
	return RunSierraRequest{
		Sierra:       *w.Sierra,
		AvailableGas: w.AvailableGas,
		Function:     functionOrDefault(w.Function),
	}, nil
}

func DecodeEstimate(raw []byte) (EstimateRequest, error) {
	var w sierraWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return EstimateRequest{}, parseError(err)
	}
	if w.Sierra == nil {
		return EstimateRequest{}, missingField("sierra")
	}
	return EstimateRequest{Sierra: *w.Sierra}, nil
}

func decodeProject(raw []byte) (projectWire, error) {
	var w projectWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return projectWire{}, parseError(err)
	}
	if w.CrateName == nil {
		return projectWire{}, missingField("crate_name")
	}
	if w.Files == nil {
		return projectWire{}, missingField("files")
	}
	return w, nil
}

func (w projectWire) compileRequest(defaultReplaceIDs bool) (CompileRequest, error) {
	replace := defaultReplaceIDs
	if w.ReplaceIDs != nil {
		replace = *w.ReplaceIDs
	}
	var rawStrategy string
	if w.InliningStrategy != nil {
		rawStrategy = *w.InliningStrategy
	}
	strategy, err := project.ParseInliningStrategy(rawStrategy)
	if err != nil {
		return CompileRequest{}, parseError(err)
	}
	return CompileRequest{
		CrateName:        *w.CrateName,
		Files:            w.Files,
		CorelibFiles:     w.CorelibFiles,
		ReplaceIDs:       replace,
		InliningStrategy: strategy,
	}, nil
}

func functionOrDefault(fn *string) string {
	if fn == nil {
		return DefaultFunction
	}
	return *fn
}

// IsParseError reports whether err was raised while decoding a request.
func IsParseError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindRequestParse
}
