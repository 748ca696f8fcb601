package css

import (
	"strings"

	"go.uber.org/zap"
)

// concatExpressionLimit bounds runs of consecutive string concatenations.
// An unbroken chain of N concatenations produces an expression tree of depth
// N which risks blowing recursion limits of downstream expression compilers;
// breaking the chain into parenthesized groups every 20 operators keeps the
// tree depth proportional to N/20.
const concatExpressionLimit = 20

const (
	concatOperator      = " + "
	colonOperator       = " : "
	conditionalOperator = ") ? ("
	concatBlock         = ") + ("
)

type chunkKind int

const (
	chunkText     chunkKind = iota
	chunkBreak              // a ") + (" group break
	chunkEmptyLit           // a flushed literal that came out empty: ""
)

type chunk struct {
	kind chunkKind
	text string
}

// ExprPrinter compiles a conditional stylesheet into a single host-language
// expression which, once evaluated with the runtime condition values known,
// yields the minified CSS text of the fully resolved stylesheet.
//
// For example
//
//	@if (eval("x")) { .a { p: 1px } } @else { .a { p: 2px } }
//	.b { w: 1px }
//
// compiles to
//
//	((x) ? (".a{p:1px}") : (".a{p:2px}")) + (".b{w:1px}")
//
// The emitted expression consists only of double-quoted escaped string
// literals, the binary "+" concatenation operator, the ternary "? :"
// operator, parentheses and verbatim-spliced condition/expression text.
//
// Input must be well formed: within every conditional block at most one else
// branch, placed last (the parser enforces this). One printer compiles one
// tree at a time; all state is reinitialized at the start of every Print, so
// a printer instance may be reused sequentially.
type ExprPrinter struct {
	compact  *CompactPrinter
	limit    int
	chunks   []chunk
	elseSeen []bool
	concats  int
	log      *zap.Logger
}

// NewExprPrinter creates an expression printer writing literal fragments
// through the given compact printer. A nil compact printer or logger gets a
// private default.
func NewExprPrinter(compact *CompactPrinter, log *zap.Logger) *ExprPrinter {
	if compact == nil {
		compact = NewCompactPrinter()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ExprPrinter{
		compact: compact,
		limit:   concatExpressionLimit,
		log:     log.Named("css-printer"),
	}
}

// SetConcatLimit overrides the concatenation balancing limit. Values below 2
// are ignored.
func (p *ExprPrinter) SetConcatLimit(limit int) {
	if limit >= 2 {
		p.limit = limit
	}
}

// Print compiles the stylesheet and returns the expression text. The result
// is always one non-empty, fully parenthesized expression.
func (p *ExprPrinter) Print(sheet *Stylesheet) string {
	p.chunks = p.chunks[:0]
	p.elseSeen = p.elseSeen[:0]
	p.concats = 0
	p.compact.ReadAndReset() // discard anything left over from a previous run

	p.text("(")
	for i := range sheet.Items {
		p.printItem(&sheet.Items[i])
	}
	p.flush()
	p.text(")")

	expr := p.normalize()
	p.log.Debug("Compiled stylesheet expression",
		zap.Int("items", len(sheet.Items)),
		zap.Int("size", len(expr)))
	return expr
}

func (p *ExprPrinter) printItem(item *Item) {
	switch {
	case item.Conditional != nil:
		p.printBlock(item.Conditional)
	case item.Rule != nil:
		p.printRule(item.Rule)
	}
}

// printBlock emits one conditional chain as a right-associative nested
// ternary, concatenated to its surroundings with group breaks. A chain that
// never saw an else branch gets an implicit empty-literal else so that the
// expression has a value on every control path.
func (p *ExprPrinter) printBlock(block *ConditionalBlock) {
	p.flush()
	p.breakGroup()
	p.elseSeen = append(p.elseSeen, false)
	p.concats = 0

	for _, rule := range block.Rules {
		p.printBranch(rule)
	}

	if !p.popElseSeen() {
		p.text(`""`)
	}
	p.breakGroup()
	p.concats = 0
}

func (p *ExprPrinter) printBranch(rule *ConditionalRule) {
	if rule.Kind == BranchKindElse {
		p.markElseSeen()
		p.text("(")
	} else {
		p.text("(")
		p.text(rule.Condition)
		p.text(conditionalOperator)
		p.concats = 0
	}

	for i := range rule.Body {
		p.printItem(&rule.Body[i])
	}

	p.flush()
	p.text(")")
	if rule.Kind != BranchKindElse {
		p.text(colonOperator)
	}
}

// printRule serializes a plain rule through the compact printer, routing
// splice values into the expression stream.
func (p *ExprPrinter) printRule(rule *Rule) {
	p.compact.BeginRule(rule.Selector)
	for _, decl := range rule.Declarations {
		p.compact.BeginDeclaration(decl.Property)
		for _, v := range decl.Values {
			if v.IsSplice() {
				p.concat("(" + v.SpliceText() + ")")
			} else {
				p.compact.AppendValue(v.Literal)
			}
		}
		p.compact.EndDeclaration()
	}
	p.compact.EndRule()
}

// concat splices raw expression text into the output between two
// concatenation operators, flushing pending literal text first. The splice
// keeps its own parentheses to shield it from precedence surprises in the
// surrounding expression.
func (p *ExprPrinter) concat(text string) {
	p.flush()
	p.concatOperation()
	p.text(text)
	p.concatOperation()
}

// concatOperation appends one concatenation operator, breaking the group
// when the current run reached the limit.
func (p *ExprPrinter) concatOperation() {
	if p.concats >= p.limit {
		p.breakGroup()
		p.concats = 0
	} else {
		p.text(concatOperator)
		p.concats++
	}
}

// flush takes ownership of whatever literal text the compact printer holds
// and appends it as a quoted escaped literal. Empty flushes are tracked as
// their own chunk kind so normalize can drop the dead terms they create.
func (p *ExprPrinter) flush() {
	content := p.compact.ReadAndReset()
	if content == "" {
		p.chunks = append(p.chunks, chunk{kind: chunkEmptyLit, text: `""`})
		return
	}
	p.text(`"` + EscapeStringLiteral(content) + `"`)
}

func (p *ExprPrinter) text(s string) {
	p.chunks = append(p.chunks, chunk{kind: chunkText, text: s})
}

func (p *ExprPrinter) breakGroup() {
	p.chunks = append(p.chunks, chunk{kind: chunkBreak, text: concatBlock})
}

// markElseSeen records the else branch of the innermost open block. Called
// with no open block it panics: that is a traversal-protocol bug, not an
// input error.
func (p *ExprPrinter) markElseSeen() {
	if len(p.elseSeen) == 0 {
		panic("css: conditional rule visited outside of a conditional block")
	}
	p.elseSeen[len(p.elseSeen)-1] = true
}

func (p *ExprPrinter) popElseSeen() bool {
	if len(p.elseSeen) == 0 {
		panic("css: conditional block exit without matching entry")
	}
	seen := p.elseSeen[len(p.elseSeen)-1]
	p.elseSeen = p.elseSeen[:len(p.elseSeen)-1]
	return seen
}

// normalize renders the chunk sequence, structurally dropping the no-op
// terms that empty flushes produce: an empty literal flanked by group breaks
// (or by the root parentheses on one side) collapses together with one
// adjacent break. Working on chunks instead of rewriting `+ ("")` out of the
// final text keeps literal or condition content that happens to contain such
// byte sequences intact.
func (p *ExprPrinter) normalize() string {
	out := make([]chunk, 0, len(p.chunks))
	for i := 0; i < len(p.chunks); i++ {
		c := p.chunks[i]
		if c.kind != chunkEmptyLit {
			out = append(out, c)
			continue
		}
		// out[0] is always the opening parenthesis of the root.
		atStart := len(out) == 1
		afterBreak := out[len(out)-1].kind == chunkBreak
		nextIsBreak := i+1 < len(p.chunks) && p.chunks[i+1].kind == chunkBreak
		// A closing boundary is any text resuming with ")": a branch or body
		// close, or the final parenthesis of the root.
		nextIsClosing := i+1 < len(p.chunks) &&
			p.chunks[i+1].kind == chunkText && strings.HasPrefix(p.chunks[i+1].text, ")")

		switch {
		case (atStart || afterBreak) && nextIsBreak:
			i++ // drop the empty literal and the following break
		case afterBreak && nextIsClosing:
			out = out[:len(out)-1] // drop the preceding break and the empty literal
		default:
			out = append(out, c) // a required branch or segment value, keep it
		}
	}

	var sb strings.Builder
	for _, c := range out {
		sb.WriteString(c.text)
	}
	return sb.String()
}
