package toolchaintest

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/enitrat/cairo-wasm/internal/felt"
	"github.com/enitrat/cairo-wasm/internal/project"
	"github.com/enitrat/cairo-wasm/internal/toolchain"
)

// ErrCompilationFailed matches the real compiler's top-level failure text.
var ErrCompilationFailed = errors.New("Compilation failed.")

var (
	identRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
	printRe   = regexp.MustCompile(`^(println|print)!\(\s*"((?:[^"\\]|\\.)*)"\s*\)$`)
	panicRe   = regexp.MustCompile(`^panic_with_felt252\(\s*(.+?)\s*\)$`)
	letRe     = regexp.MustCompile(`^let\s+([A-Za-z_][A-Za-z0-9_]*)\s*(?::\s*felt252\s*)?=\s*(.+)$`)
	literalRe = regexp.MustCompile(`^(0x[0-9a-fA-F]+|[0-9]+|'[^']*')$`)
)

type opKind int

const (
	opPrint opKind = iota
	opPanic
)

type op struct {
	kind  opKind
	text  string
	value felt.Felt
}

type function struct {
	name    string
	returns bool
	ops     []op
	tail    *felt.Felt
}

type diagnostics struct {
	w      io.Writer
	errors int
}

func (d *diagnostics) add(severity, file string, src string, offset int, msg string) {
	if severity == "error" {
		d.errors++
	}
	if d.w == nil {
		return
	}
	line, col := position(src, offset)
	fmt.Fprintf(d.w, "%s: %s\n --> %s:%d:%d\n", severity, msg, file, line, col)
}

func position(src string, offset int) (int, int) {
	line, col := 1, 1
	for _, r := range src[:offset] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func (t *Toolchain) Compile(ctx context.Context, cc *project.CompilationContext, cfg toolchain.CompilerConfig) (string, error) {
	if err := cc.Claim(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.compiles.Add(1)

	if _, ok := cc.Core.Root.Lookup(project.EntryFile); !ok {
		return "", fmt.Errorf("core crate has no %s", project.EntryFile)
	}

	diag := &diagnostics{w: cfg.Diagnostics}
	var funcs []function
	paths := cc.Main.Root.Paths()
	sort.SliceStable(paths, func(i, j int) bool { return paths[i] == project.EntryFile && paths[j] != project.EntryFile })
	for _, path := range paths {
		src, _ := cc.Main.Root.Lookup(path)
		parsed := parseFile(modulePath(cc.Main.Name, path), path, src, diag)
		funcs = append(funcs, parsed...)
	}
	if diag.errors > 0 {
		return "", ErrCompilationFailed
	}
	return emit(funcs, cfg), nil
}

func modulePath(crate, path string) string {
	trimmed := strings.TrimSuffix(path, ".cairo")
	if trimmed == "lib" {
		return crate
	}
	return crate + "::" + strings.ReplaceAll(trimmed, "/", "::")
}

func parseFile(module, file, src string, diag *diagnostics) []function {
	var out []function
	pos := 0
	for {
		pos = skipTrivia(src, pos)
		if pos >= len(src) {
			return out
		}
		rest := src[pos:]
		switch {
		case strings.HasPrefix(rest, "#["):
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				diag.add("error", file, src, pos, "Unterminated attribute.")
				return out
			}
			pos += end + 1
		case strings.HasPrefix(rest, "mod ") || strings.HasPrefix(rest, "use "):
			end := strings.IndexByte(rest, ';')
			if end < 0 {
				diag.add("error", file, src, pos, "Missing token ';'.")
				return out
			}
			pos += end + 1
		case strings.HasPrefix(rest, "fn "):
			fn, next, ok := parseFunction(module, file, src, pos, diag)
			if !ok {
				return out
			}
			out = append(out, fn)
			pos = next
		default:
			diag.add("error", file, src, pos, "Skipped tokens. Expected: Item.")
			return out
		}
	}
}

func skipTrivia(src string, pos int) int {
	for pos < len(src) {
		switch {
		case src[pos] == ' ' || src[pos] == '\t' || src[pos] == '\n' || src[pos] == '\r':
			pos++
		case strings.HasPrefix(src[pos:], "//"):
			if nl := strings.IndexByte(src[pos:], '\n'); nl >= 0 {
				pos += nl + 1
			} else {
				pos = len(src)
			}
		default:
			return pos
		}
	}
	return pos
}

func parseFunction(module, file, src string, start int, diag *diagnostics) (function, int, bool) {
	pos := skipTrivia(src, start+len("fn "))
	name := identRe.FindString(src[pos:])
	if name == "" {
		diag.add("error", file, src, pos, "Missing token TerminalIdentifier.")
		return function{}, 0, false
	}
	pos += len(name)
	fn := function{name: module + "::" + name}

	pos = skipTrivia(src, pos)
	if !strings.HasPrefix(src[pos:], "()") {
		diag.add("error", file, src, pos, "Only parameterless functions are supported.")
		return function{}, 0, false
	}
	pos = skipTrivia(src, pos+2)
	if strings.HasPrefix(src[pos:], "->") {
		pos = skipTrivia(src, pos+2)
		if !strings.HasPrefix(src[pos:], "felt252") {
			diag.add("error", file, src, pos, "Only felt252 return types are supported.")
			return function{}, 0, false
		}
		fn.returns = true
		pos = skipTrivia(src, pos+len("felt252"))
	}
	if pos >= len(src) || src[pos] != '{' {
		diag.add("error", file, src, pos, "Missing token '{'.")
		return function{}, 0, false
	}
	end := closingBrace(src, pos)
	if end < 0 {
		diag.add("error", file, src, pos, "Missing token '}'.")
		return function{}, 0, false
	}

	bodyStart := pos + 1
	parseBody(&fn, file, src, bodyStart, src[bodyStart:end], diag)
	return fn, end + 1, true
}

// closingBrace finds the brace matching src[open], skipping string literals.
func closingBrace(src string, open int) int {
	depth := 0
	inString := false
	for i := open; i < len(src); i++ {
		c := src[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

type segment struct {
	text   string
	offset int
}

// splitStatements cuts body at ';' outside string literals. The final segment
// is the tail expression and may be empty.
func splitStatements(body string, base int) ([]segment, segment) {
	var stmts []segment
	start := 0
	inString := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
		} else if c == ';' {
			stmts = append(stmts, trimSegment(body[start:i], base+start))
			start = i + 1
		}
	}
	return stmts, trimSegment(body[start:], base+start)
}

func trimSegment(text string, offset int) segment {
	lead := len(text) - len(strings.TrimLeft(text, " \t\r\n"))
	return segment{text: strings.TrimSpace(text), offset: offset + lead}
}

func parseBody(fn *function, file, src string, base int, body string, diag *diagnostics) {
	stmts, tail := splitStatements(body, base)
	for _, stmt := range stmts {
		if stmt.text == "" {
			continue
		}
		if m := printRe.FindStringSubmatch(stmt.text); m != nil {
			text := unescape(m[2])
			if m[1] == "println" {
				text += "\n"
			}
			fn.ops = append(fn.ops, op{kind: opPrint, text: text})
			continue
		}
		if m := panicRe.FindStringSubmatch(stmt.text); m != nil {
			v, ok := parseLiteral(m[1])
			if !ok {
				diag.add("error", file, src, stmt.offset, fmt.Sprintf("Invalid literal `%s`.", m[1]))
				continue
			}
			fn.ops = append(fn.ops, op{kind: opPanic, value: v})
			continue
		}
		if m := letRe.FindStringSubmatch(stmt.text); m != nil {
			if _, ok := parseLiteral(m[2]); !ok {
				diag.add("error", file, src, stmt.offset, fmt.Sprintf("Invalid literal `%s`.", m[2]))
				continue
			}
			if !strings.HasPrefix(m[1], "_") {
				diag.add("warning", file, src, stmt.offset+len("let "), "Unused variable. Consider ignoring by prefixing with `_`.")
			}
			continue
		}
		diag.add("error", file, src, stmt.offset, fmt.Sprintf("Unsupported statement `%s`.", stmt.text))
	}

	switch {
	case tail.text == "" && fn.returns:
		diag.add("error", file, src, tail.offset, "Unexpected return type. Expected: \"core::felt252\", found: \"()\".")
	case tail.text == "":
	case !fn.returns:
		diag.add("error", file, src, tail.offset, "Unexpected return type. Expected: \"()\", found: \"core::felt252\".")
	default:
		v, ok := parseLiteral(tail.text)
		if !ok {
			diag.add("error", file, src, tail.offset, fmt.Sprintf("Unsupported expression `%s`.", tail.text))
			return
		}
		fn.tail = &v
	}
}

func parseLiteral(raw string) (felt.Felt, bool) {
	raw = strings.TrimSpace(raw)
	if !literalRe.MatchString(raw) {
		return felt.Felt{}, false
	}
	if strings.HasPrefix(raw, "'") {
		return felt.FromBytes([]byte(strings.Trim(raw, "'"))), true
	}
	v, err := felt.Parse(raw)
	return v, err == nil
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// emitter assigns ids to types and libfuncs in order of first use.
type emitter struct {
	replaceIDs bool
	types      []string
	libfuncs   []string
	libfuncIDs map[string]string
}

func (e *emitter) typeID(long string) string {
	for i, t := range e.types {
		if t == long {
			return e.id(long, i)
		}
	}
	e.types = append(e.types, long)
	return e.id(long, len(e.types)-1)
}

func (e *emitter) libfunc(long string) string {
	if id, ok := e.libfuncIDs[long]; ok {
		return id
	}
	id := e.id(long, len(e.libfuncs))
	e.libfuncs = append(e.libfuncs, long)
	e.libfuncIDs[long] = id
	return id
}

func (e *emitter) id(long string, idx int) string {
	if e.replaceIDs {
		return long
	}
	return fmt.Sprintf("[%d]", idx)
}

func emit(funcs []function, cfg toolchain.CompilerConfig) string {
	e := &emitter{replaceIDs: cfg.ReplaceIDs, libfuncIDs: map[string]string{}}
	feltType := e.typeID("felt252")

	metered := false
	for _, fn := range funcs {
		for _, o := range fn.ops {
			if o.kind == opPrint {
				metered = true
			}
		}
	}
	if metered {
		e.typeID("GasBuiltin")
	}

	var stmts []string
	var decls []string
	for idx, fn := range funcs {
		entry := len(stmts)
		if metered {
			stmts = append(stmts, fmt.Sprintf("%s() { fallthrough() %d() }", e.libfunc("withdraw_gas"), entry+1))
		}
		for _, o := range fn.ops {
			switch o.kind {
			case opPrint:
				stmts = append(stmts, fmt.Sprintf("%s() -> ()", e.libfunc("print<0x"+hex.EncodeToString([]byte(o.text))+">")))
			case opPanic:
				stmts = append(stmts,
					fmt.Sprintf("%s() -> ([0])", e.libfunc("felt252_const<"+o.value.String()+">")),
					fmt.Sprintf("%s([0]) -> ()", e.libfunc("panic_with_felt252")),
				)
			}
		}
		ret := "()"
		if fn.tail != nil {
			stmts = append(stmts, fmt.Sprintf("%s() -> ([0])", e.libfunc("felt252_const<"+fn.tail.String()+">")))
			if cfg.Inlining == project.InliningAvoid {
				stmts = append(stmts, fmt.Sprintf("%s([0]) -> ([0])", e.libfunc("store_temp<felt252>")))
			}
			stmts = append(stmts, "return([0])")
			ret = "(" + feltType + ")"
		} else {
			stmts = append(stmts, "return()")
		}

		name := fn.name
		if !cfg.ReplaceIDs {
			name = fmt.Sprintf("[%d]", idx)
		}
		decls = append(decls, fmt.Sprintf("%s@%d() -> %s;", name, entry, ret))
	}

	var b strings.Builder
	for i, long := range e.types {
		fmt.Fprintf(&b, "type %s = %s [storable: true, drop: true, dup: true, zero_sized: false];\n", e.id(long, i), long)
	}
	b.WriteByte('\n')
	for i, long := range e.libfuncs {
		fmt.Fprintf(&b, "libfunc %s = %s;\n", e.id(long, i), long)
	}
	b.WriteByte('\n')
	for i, s := range stmts {
		fmt.Fprintf(&b, "%s; // %d\n", s, i)
	}
	b.WriteByte('\n')
	for _, d := range decls {
		b.WriteString(d)
		b.WriteByte('\n')
	}
	return b.String()
}
