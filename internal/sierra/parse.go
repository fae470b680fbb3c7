package sierra

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ParseError points at the offending line (1-based).
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Reason
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Parse reads a program in the compiler's text format.
func Parse(text string) (*Program, error) {
	p := &Program{text: text}
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := stripComment(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasSuffix(line, ";") {
			return nil, &ParseError{Line: lineNo, Reason: "missing trailing `;`"}
		}
		body := strings.TrimSpace(strings.TrimSuffix(line, ";"))

		switch {
		case strings.HasPrefix(body, "type "):
			decl, err := parseDeclaration(strings.TrimPrefix(body, "type "), true)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Reason: err.Error()}
			}
			p.Types = append(p.Types, decl)
		case strings.HasPrefix(body, "libfunc "):
			decl, err := parseDeclaration(strings.TrimPrefix(body, "libfunc "), false)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Reason: err.Error()}
			}
			p.Libfuncs = append(p.Libfuncs, decl)
		case isFunctionDecl(body):
			fn, err := parseFunction(body)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Reason: err.Error()}
			}
			p.Funcs = append(p.Funcs, fn)
		default:
			p.Statements = append(p.Statements, body)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}

	if len(p.Types)+len(p.Libfuncs)+len(p.Statements)+len(p.Funcs) == 0 {
		return nil, &ParseError{Reason: "empty program"}
	}
	for _, fn := range p.Funcs {
		if fn.Entry < 0 || fn.Entry >= len(p.Statements) {
			return nil, &ParseError{Reason: fmt.Sprintf("function `%s` entry point %d out of range", fn.ID, fn.Entry)}
		}
	}
	return p, nil
}

func stripComment(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

func parseDeclaration(body string, isType bool) (Declaration, error) {
	if isType {
		if idx := strings.Index(body, " [storable:"); idx >= 0 {
			body = body[:idx]
		}
	}
	parts := splitTop(body, '=')
	if len(parts) != 2 {
		return Declaration{}, fmt.Errorf("malformed declaration %q", body)
	}
	id := strings.TrimSpace(parts[0])
	long := strings.TrimSpace(parts[1])
	if id == "" || long == "" {
		return Declaration{}, fmt.Errorf("malformed declaration %q", body)
	}
	generic := long
	if idx := strings.IndexByte(long, '<'); idx >= 0 {
		generic = long[:idx]
	}
	return Declaration{ID: id, LongID: long, GenericID: generic}, nil
}

// isFunctionDecl reports whether the text before the first top-level '('
// carries a top-level '@'. Libfunc ids such as function_call<user@f> nest it.
func isFunctionDecl(body string) bool {
	open := indexTop(body, '(')
	if open < 0 {
		return false
	}
	return indexTop(body[:open], '@') >= 0
}

func parseFunction(body string) (Function, error) {
	open := indexTop(body, '(')
	head := body[:open]
	at := lastIndexTop(head, '@')
	id := strings.TrimSpace(head[:at])
	entry, err := strconv.Atoi(strings.TrimSpace(head[at+1:]))
	if err != nil {
		return Function{}, fmt.Errorf("invalid entry point in %q", head)
	}

	rest := body[open:]
	closeIdx := matching(rest, 0)
	if closeIdx < 0 {
		return Function{}, fmt.Errorf("unbalanced parameters in %q", body)
	}
	paramsRaw := rest[1:closeIdx]
	tail := strings.TrimSpace(rest[closeIdx+1:])
	if !strings.HasPrefix(tail, "->") {
		return Function{}, fmt.Errorf("missing return types in %q", body)
	}
	tail = strings.TrimSpace(strings.TrimPrefix(tail, "->"))
	if !strings.HasPrefix(tail, "(") || !strings.HasSuffix(tail, ")") {
		return Function{}, fmt.Errorf("malformed return types in %q", body)
	}

	fn := Function{ID: id, Entry: entry}
	for _, raw := range splitTop(paramsRaw, ',') {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		colon := indexTop(raw, ':')
		if colon < 0 {
			return Function{}, fmt.Errorf("malformed parameter %q", raw)
		}
		fn.Params = append(fn.Params, Param{
			ID:   strings.TrimSpace(raw[:colon]),
			Type: strings.TrimSpace(raw[colon+1:]),
		})
	}
	for _, ret := range splitTop(tail[1:len(tail)-1], ',') {
		if ret = strings.TrimSpace(ret); ret != "" {
			fn.Returns = append(fn.Returns, ret)
		}
	}
	return fn, nil
}

// splitTop splits s at sep occurrences outside of any bracket pair.
func splitTop(s string, sep byte) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case isOpen(c):
			depth++
		case isClose(c):
			depth--
		case c == sep && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func indexTop(s string, target byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == target && depth == 0 {
			return i
		}
		if isOpen(c) {
			depth++
		} else if isClose(c) {
			depth--
		}
	}
	return -1
}

func lastIndexTop(s string, target byte) int {
	idx := -1
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == target && depth == 0 {
			idx = i
		}
		if isOpen(c) {
			depth++
		} else if isClose(c) {
			depth--
		}
	}
	return idx
}

// matching returns the index of the bracket closing the one at open.
func matching(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		if isOpen(s[i]) {
			depth++
		} else if isClose(s[i]) {
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isOpen(c byte) bool  { return c == '<' || c == '(' || c == '[' || c == '{' }
func isClose(c byte) bool { return c == '>' || c == ')' || c == ']' || c == '}' }
