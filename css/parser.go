package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses conditional stylesheets into an AST: plain rules plus
// @if/@elseif/@else chains whose conditions stay opaque until the compiled
// expression is evaluated by the host.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new stylesheet parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses stylesheet text. Unsupported constructs are skipped with a
// warning recorded on the stylesheet; malformed conditional chains (@elseif
// or @else without a preceding @if, anything after @else) are errors.
// The optional source parameter identifies what's being parsed (for debug
// logging).
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	sheet := &Stylesheet{
		Items:    make([]Item, 0),
		Warnings: make([]string, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing conditional stylesheet", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	items, err := p.parseItems(data, sheet)
	if err != nil {
		return nil, err
	}
	sheet.Items = items

	p.log.Debug("Parsed conditional stylesheet",
		zap.Int("items", len(sheet.Items)),
		zap.Int("warnings", len(sheet.Warnings)))
	return sheet, nil
}

// parseItems parses one level of stylesheet text: the whole source on entry,
// the collected body of a conditional branch on recursion. It groups
// consecutive @if/@elseif/@else at-rules into conditional blocks and
// validates chain structure as it goes.
//
// The tokenizer only delivers structured grammar for at-rules it recognizes;
// the body of an @if block reaches us as a flat run of raw tokens. Those are
// collected back into text and parsed with a fresh tokenizer, which also
// takes care of conditionals nested inside the branch.
func (p *Parser) parseItems(src []byte, sheet *Stylesheet) ([]Item, error) {
	input := parse.NewInput(bytes.NewReader(src))
	parser := css.NewParser(input, false)

	var (
		items            []Item
		open             *ConditionalBlock // chain accepting @elseif/@else continuations
		pendingSelectors []string          // qualified-rule selectors before the block opens
	)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("stylesheet parse error: %w", err)
			}
			return items, nil

		case css.EndAtRuleGrammar:
			// stray closer, nothing sensible to do with it
			sheet.Warnings = append(sheet.Warnings, "unexpected block terminator")
			continue

		case css.CommentGrammar:
			continue

		case css.BeginAtRuleGrammar:
			name := strings.ToLower(string(data))
			switch name {
			case "@if":
				cond := p.condition(parser.Values(), sheet)
				body, err := p.parseBranchBody(parser, sheet)
				if err != nil {
					return nil, err
				}
				open = &ConditionalBlock{Rules: []*ConditionalRule{
					{Kind: BranchKindIf, Condition: cond, Body: body},
				}}
				items = append(items, Item{Conditional: open})
			case "@elseif":
				if open == nil {
					return nil, errors.New("@elseif without preceding @if")
				}
				if open.HasElse() {
					return nil, errors.New("@elseif after @else")
				}
				cond := p.condition(parser.Values(), sheet)
				body, err := p.parseBranchBody(parser, sheet)
				if err != nil {
					return nil, err
				}
				open.Rules = append(open.Rules, &ConditionalRule{Kind: BranchKindElseif, Condition: cond, Body: body})
			case "@else":
				if open == nil {
					return nil, errors.New("@else without preceding @if")
				}
				if open.HasElse() {
					return nil, errors.New("duplicate @else in conditional chain")
				}
				body, err := p.parseBranchBody(parser, sheet)
				if err != nil {
					return nil, err
				}
				open.Rules = append(open.Rules, &ConditionalRule{Kind: BranchKindElse, Body: body})
			default:
				open = nil
				p.skipAtRuleBlock(parser)
				sheet.Warnings = append(sheet.Warnings, "skipped unsupported at-rule: "+name)
				p.log.Debug("Skipping at-rule", zap.String("rule", name))
			}

		case css.AtRuleGrammar:
			// Simple at-rule without a block (e.g. @import, @charset) - not
			// part of conditional stylesheets.
			open = nil
			sheet.Warnings = append(sheet.Warnings, "skipped unsupported at-rule: "+strings.ToLower(string(data)))

		case css.QualifiedRuleGrammar:
			// Selector group member before the final selector of the ruleset.
			open = nil
			pendingSelectors = append(pendingSelectors, selectorText(data, parser.Values()))

		case css.BeginRulesetGrammar:
			open = nil
			pendingSelectors = append(pendingSelectors, selectorText(data, parser.Values()))
			rule, err := p.parseRule(strings.Join(pendingSelectors, ","), parser, sheet)
			if err != nil {
				return nil, err
			}
			pendingSelectors = nil
			items = append(items, Item{Rule: rule})
		}
	}
}

// parseBranchBody reads the body of a conditional branch block and parses it
// into items.
func (p *Parser) parseBranchBody(parser *css.Parser, sheet *Stylesheet) ([]Item, error) {
	raw, err := collectAtRuleBody(parser)
	if err != nil {
		return nil, err
	}
	return p.parseItems(raw, sheet)
}

// collectAtRuleBody accumulates the raw text between the opening brace of the
// current at-rule block and its matching closing brace. Brace depth is tracked
// across the token run: the tokenizer closes a truncated block on its own at
// end of input, and unbalanced braces at that point are the only evidence left
// that the closing brace never existed.
func collectAtRuleBody(parser *css.Parser) ([]byte, error) {
	var (
		raw   []byte
		depth int
	)
	for {
		gt, tt, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("stylesheet parse error: %w", err)
			}
			return nil, errors.New("unexpected end of input inside conditional block")

		case css.EndAtRuleGrammar:
			if depth > 0 {
				return nil, errors.New("unexpected end of input inside conditional block")
			}
			return raw, nil

		case css.TokenGrammar:
			switch tt {
			case css.LeftBraceToken:
				depth++
			case css.RightBraceToken:
				depth--
			}
			raw = append(raw, data...)

		default:
			raw = append(raw, data...)
			for _, v := range parser.Values() {
				raw = append(raw, v.Data...)
			}
		}
	}
}

// parseRule consumes declarations until the end of the ruleset.
func (p *Parser) parseRule(selector string, parser *css.Parser, sheet *Stylesheet) (*Rule, error) {
	rule := &Rule{Selector: selector}

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("stylesheet parse error: %w", err)
			}
			return rule, nil

		case css.EndRulesetGrammar:
			return rule, nil

		case css.DeclarationGrammar:
			rule.Declarations = append(rule.Declarations, Declaration{
				Property: string(data),
				Values:   p.parseValues(parser.Values(), sheet),
			})

		case css.CustomPropertyGrammar:
			sheet.Warnings = append(sheet.Warnings, "skipped custom property: "+string(data))

		case css.BeginAtRuleGrammar:
			// Conditionals do not nest inside rules, only around them.
			name := strings.ToLower(string(data))
			p.skipAtRuleBlock(parser)
			sheet.Warnings = append(sheet.Warnings, "skipped at-rule inside rule: "+name)
		}
	}
}

// parseValues converts declaration value tokens into value components.
// Whitespace separates components; eval("...") and value("...") become
// splice values, any other function keeps its raw text.
func (p *Parser) parseValues(tokens []css.Token, sheet *Stylesheet) []Value {
	var (
		values  []Value
		current strings.Builder
	)

	endSegment := func() {
		if current.Len() > 0 {
			values = append(values, Value{Literal: current.String()})
			current.Reset()
		}
	}

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.TokenType {
		case css.WhitespaceToken:
			endSegment()

		case css.FunctionToken:
			fn := strings.ToLower(strings.TrimSuffix(string(t.Data), "("))
			args, next := functionArgs(tokens, i)
			switch fn {
			case "eval":
				endSegment()
				if expr, ok := firstString(args); ok {
					values = append(values, Value{Expr: expr})
				} else {
					sheet.Warnings = append(sheet.Warnings, "eval() without string argument")
				}
			case "value":
				endSegment()
				if path, ok := firstString(args); ok {
					values = append(values, Value{DotPath: path})
				} else {
					sheet.Warnings = append(sheet.Warnings, "value() without string argument")
				}
			default:
				// ordinary CSS function (rgb, url, calc, ...) stays literal
				current.Write(t.Data)
				for _, a := range args {
					current.Write(a.Data)
				}
				current.WriteByte(')')
			}
			i = next

		default:
			current.Write(t.Data)
		}
	}
	endSegment()
	return values
}

// functionArgs collects the tokens between a FunctionToken at position i and
// its matching closing parenthesis. It returns the argument tokens and the
// index of the closing parenthesis.
func functionArgs(tokens []css.Token, i int) ([]css.Token, int) {
	depth := 1
	var args []css.Token
	for j := i + 1; j < len(tokens); j++ {
		switch tokens[j].TokenType {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return args, j
			}
		}
		args = append(args, tokens[j])
	}
	return args, len(tokens) - 1
}

func firstString(tokens []css.Token) (string, bool) {
	for _, t := range tokens {
		if t.TokenType == css.StringToken {
			return unquote(string(t.Data)), true
		}
	}
	return "", false
}

// condition extracts the runtime condition from an @if/@elseif prelude.
// The canonical form is (eval("<host expression>")); anything else is taken
// as raw text with a warning since this compiler never evaluates conditions
// itself.
func (p *Parser) condition(tokens []css.Token, sheet *Stylesheet) string {
	for i, t := range tokens {
		if t.TokenType == css.FunctionToken && strings.EqualFold(strings.TrimSuffix(string(t.Data), "("), "eval") {
			args, _ := functionArgs(tokens, i)
			if expr, ok := firstString(args); ok {
				return expr
			}
		}
	}

	var raw strings.Builder
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			raw.Write(t.Data)
		}
	}
	cond := strings.TrimSpace(raw.String())
	cond = strings.TrimPrefix(cond, "(")
	cond = strings.TrimSuffix(cond, ")")
	if cond != "" {
		sheet.Warnings = append(sheet.Warnings, "non-eval condition used verbatim: "+cond)
		p.log.Debug("Condition without eval()", zap.String("condition", cond))
	}
	return cond
}

// skipAtRuleBlock skips tokens until the matching end of an at-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// selectorText builds raw selector text from grammar data and prelude tokens.
func selectorText(data []byte, values []css.Token) string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sb.String()), ","))
}

// unquote removes surrounding quotes from a string and resolves backslash
// escapes for the quote characters and the backslash itself.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		s = s[1 : len(s)-1]
	}
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\'' || s[i+1] == '\\') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
