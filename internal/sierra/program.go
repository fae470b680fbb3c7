// Package sierra reads the textual compiled representation produced by the
// Cairo compiler. It only extracts what the gateway needs before handing the
// program to the VM: declarations, statements and function signatures.
package sierra

import (
	"fmt"
	"strings"
)

// Generic libfunc ids that make a program depend on a gas counter.
var gasLibfuncs = map[string]struct{}{
	"withdraw_gas":     {},
	"withdraw_gas_all": {},
}

// Declaration is a `type` or `libfunc` line: `<id> = <long id>`.
type Declaration struct {
	ID        string
	LongID    string
	GenericID string
}

type Param struct {
	ID   string
	Type string
}

// Function is a declaration such as `app::main@0([0]: felt252) -> (felt252);`.
type Function struct {
	ID      string
	Entry   int
	Params  []Param
	Returns []string
}

type Program struct {
	Types      []Declaration
	Libfuncs   []Declaration
	Statements []string
	Funcs      []Function

	text string
}

// MissingFunctionError reports a failed FindFunction lookup.
type MissingFunctionError struct {
	Suffix string
}

func (e *MissingFunctionError) Error() string {
	return fmt.Sprintf("Function with suffix `%s` to run not found.", e.Suffix)
}

// String returns the text the program was parsed from.
func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.text
}

// RequiresGasCounter reports whether any declared libfunc withdraws gas.
func (p *Program) RequiresGasCounter() bool {
	if p == nil {
		return false
	}
	for _, decl := range p.Libfuncs {
		if _, ok := gasLibfuncs[decl.GenericID]; ok {
			return true
		}
	}
	return false
}

// FindFunction returns the first function whose id ends with suffix.
func (p *Program) FindFunction(suffix string) (*Function, error) {
	if p != nil {
		for i := range p.Funcs {
			if strings.HasSuffix(p.Funcs[i].ID, suffix) {
				return &p.Funcs[i], nil
			}
		}
	}
	return nil, &MissingFunctionError{Suffix: suffix}
}

// Libfunc looks up a libfunc declaration by id.
func (p *Program) Libfunc(id string) (Declaration, bool) {
	if p == nil {
		return Declaration{}, false
	}
	for _, decl := range p.Libfuncs {
		if decl.ID == id {
			return decl, true
		}
	}
	return Declaration{}, false
}
