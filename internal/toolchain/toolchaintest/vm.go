package toolchaintest

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/enitrat/cairo-wasm/internal/felt"
	"github.com/enitrat/cairo-wasm/internal/hint"
	"github.com/enitrat/cairo-wasm/internal/toolchain"
)

// maxSteps bounds a run; the fake has no loops so hitting it means a broken program.
const maxSteps = 100000

// OutOfGas is the panic payload of a metered run that exhausts its budget.
var OutOfGas = felt.FromBytes([]byte("Out of gas"))

func (t *Toolchain) Run(ctx context.Context, req toolchain.RunRequest) (*toolchain.RunResult, error) {
	if req.Program == nil || req.Function == nil {
		return nil, errors.New("run request needs a program and a function")
	}
	if len(req.Args) != len(req.Function.Params) {
		return nil, fmt.Errorf("function `%s` expects %d arguments, got %d", req.Function.ID, len(req.Function.Params), len(req.Args))
	}
	t.runs.Add(1)

	var gas *uint64
	if req.AvailableGas != nil {
		g := *req.AvailableGas
		gas = &g
	}
	result := func(panicked bool, values []felt.Felt) *toolchain.RunResult {
		out := &toolchain.RunResult{Panicked: panicked, Values: values}
		if gas != nil {
			g := felt.FromUint64(*gas)
			out.GasCounter = &g
		}
		return out
	}

	regs := map[string]felt.Felt{}
	statements := req.Program.Statements
	for pc, steps := req.Function.Entry, 0; ; pc, steps = pc+1, steps+1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pc >= len(statements) || steps >= maxSteps {
			return nil, fmt.Errorf("execution fell off the program at statement %d", pc)
		}
		if gas != nil {
			if *gas < StatementCost {
				return result(true, []felt.Felt{OutOfGas}), nil
			}
			*gas -= StatementCost
		}

		head, args, err := splitStatement(statements[pc])
		if err != nil {
			return nil, err
		}
		if head == "return" {
			values := make([]felt.Felt, 0, len(args))
			for _, a := range args {
				values = append(values, regs[a])
			}
			return result(false, values), nil
		}

		decl, ok := req.Program.Libfunc(head)
		if !ok {
			return nil, fmt.Errorf("statement %d uses undeclared libfunc `%s`", pc, head)
		}
		generic, param := decl.GenericID, genericArg(decl.LongID)
		switch generic {
		case "withdraw_gas":
			if gas == nil {
				return nil, errors.New("withdraw_gas reached without a gas counter")
			}
		case "felt252_const":
			v, err := felt.Parse(param)
			if err != nil {
				return nil, fmt.Errorf("statement %d: %w", pc, err)
			}
			regs["[0]"] = v
		case "store_temp":
		case "print":
			text, err := hex.DecodeString(strings.TrimPrefix(param, "0x"))
			if err != nil {
				return nil, fmt.Errorf("statement %d: %w", pc, err)
			}
			if req.Hints != nil {
				req.Hints.DebugPrint(hint.EncodeByteArray(string(text)))
			}
		case "panic_with_felt252":
			return result(true, []felt.Felt{regs["[0]"]}), nil
		default:
			return nil, fmt.Errorf("unsupported libfunc `%s`", decl.LongID)
		}
	}
}

// splitStatement returns the invoked id and its argument variables.
func splitStatement(stmt string) (string, []string, error) {
	depth := 0
	for i := 0; i < len(stmt); i++ {
		switch stmt[i] {
		case '<':
			depth++
		case '>':
			depth--
		case '(':
			if depth != 0 {
				continue
			}
			end := strings.IndexByte(stmt[i:], ')')
			if end < 0 {
				return "", nil, fmt.Errorf("malformed statement %q", stmt)
			}
			var args []string
			for _, a := range strings.Split(stmt[i+1:i+end], ",") {
				if a = strings.TrimSpace(a); a != "" {
					args = append(args, a)
				}
			}
			return stmt[:i], args, nil
		}
	}
	return "", nil, fmt.Errorf("malformed statement %q", stmt)
}

func genericArg(long string) string {
	open := strings.IndexByte(long, '<')
	if open < 0 || !strings.HasSuffix(long, ">") {
		return ""
	}
	return long[open+1 : len(long)-1]
}
