package css_test

import (
	"fmt"
	"strings"
	"testing"
)

// evalExpr evaluates an emitted expression: double-quoted string literals,
// "+" concatenation, "? :" ternaries, parentheses and bare identifiers.
// Identifiers "true"/"false" evaluate to booleans; anything else is looked
// up in vars (as a string). This is just enough of the target expression
// language to verify compiled output by execution.
func evalExpr(t *testing.T, expr string, vars map[string]any) string {
	t.Helper()
	ev := &exprEvaluator{toks: tokenizeExpr(t, expr), vars: vars}
	v, err := ev.ternary()
	if err != nil {
		t.Fatalf("evaluating %q: %v", expr, err)
	}
	if ev.pos != len(ev.toks) {
		t.Fatalf("evaluating %q: trailing tokens %v", expr, ev.toks[ev.pos:])
	}
	s, ok := v.(string)
	if !ok {
		t.Fatalf("evaluating %q: result is not a string: %v", expr, v)
	}
	return s
}

type exprEvaluator struct {
	toks []string
	pos  int
	vars map[string]any
}

func tokenizeExpr(t *testing.T, expr string) []string {
	t.Helper()
	var toks []string
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == ' ':
		case c == '(' || c == ')' || c == '?' || c == ':' || c == '+':
			toks = append(toks, string(c))
		case c == '"':
			var b strings.Builder
			b.WriteByte('"')
			for i++; i < len(expr) && expr[i] != '"'; i++ {
				if expr[i] == '\\' && i+1 < len(expr) {
					i++
					switch expr[i] {
					case 'n':
						b.WriteByte('\n')
					case 'r':
						b.WriteByte('\r')
					case 't':
						b.WriteByte('\t')
					default:
						b.WriteByte(expr[i])
					}
					continue
				}
				b.WriteByte(expr[i])
			}
			if i >= len(expr) {
				t.Fatalf("unterminated string literal in %q", expr)
			}
			toks = append(toks, b.String())
		default:
			j := i
			for j < len(expr) && !strings.ContainsRune(` ()?:+"`, rune(expr[j])) {
				j++
			}
			toks = append(toks, expr[i:j])
			i = j - 1
		}
	}
	return toks
}

func (e *exprEvaluator) peek() string {
	if e.pos < len(e.toks) {
		return e.toks[e.pos]
	}
	return ""
}

func (e *exprEvaluator) ternary() (any, error) {
	left, err := e.concat()
	if err != nil {
		return nil, err
	}
	if e.peek() != "?" {
		return left, nil
	}
	e.pos++
	cond, ok := left.(bool)
	if !ok {
		return nil, fmt.Errorf("ternary condition is not a boolean: %v", left)
	}
	thenV, err := e.ternary()
	if err != nil {
		return nil, err
	}
	if e.peek() != ":" {
		return nil, fmt.Errorf("expected ':' at token %d", e.pos)
	}
	e.pos++
	elseV, err := e.ternary()
	if err != nil {
		return nil, err
	}
	if cond {
		return thenV, nil
	}
	return elseV, nil
}

func (e *exprEvaluator) concat() (any, error) {
	v, err := e.primary()
	if err != nil {
		return nil, err
	}
	for e.peek() == "+" {
		e.pos++
		rhs, err := e.primary()
		if err != nil {
			return nil, err
		}
		ls, lok := v.(string)
		rs, rok := rhs.(string)
		if !lok || !rok {
			return nil, fmt.Errorf("'+' operands are not strings: %v, %v", v, rhs)
		}
		v = ls + rs
	}
	return v, nil
}

func (e *exprEvaluator) primary() (any, error) {
	tok := e.peek()
	switch {
	case tok == "(":
		e.pos++
		v, err := e.ternary()
		if err != nil {
			return nil, err
		}
		if e.peek() != ")" {
			return nil, fmt.Errorf("expected ')' at token %d", e.pos)
		}
		e.pos++
		return v, nil
	case strings.HasPrefix(tok, `"`):
		e.pos++
		return tok[1:], nil
	case tok == "true":
		e.pos++
		return true, nil
	case tok == "false":
		e.pos++
		return false, nil
	case tok != "" && tok != ")" && tok != "?" && tok != ":" && tok != "+":
		e.pos++
		if v, ok := e.vars[tok]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("unbound identifier %q", tok)
	default:
		return nil, fmt.Errorf("unexpected token %q at %d", tok, e.pos)
	}
}

// balancedParens reports whether parentheses outside of string literals are
// balanced in the expression.
func balancedParens(expr string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0 && !inString
}
