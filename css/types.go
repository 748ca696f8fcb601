package css

// Value is a single component of a declaration value. Exactly one of the
// fields is set: Literal carries plain CSS text, Expr carries a host-language
// expression coming from eval("..."), DotPath carries a dotted-path
// expression coming from value("..."). Expr and DotPath are never serialized
// as CSS - they are spliced verbatim into the compiled expression.
type Value struct {
	Literal string // plain CSS value text (e.g. "1px", "bold", "#ff0000")
	Expr    string // host expression text, spliced as-is
	DotPath string // dotted path text (e.g. "theme.color.primary"), spliced as-is
}

// IsSplice returns true if the value must be spliced into the compiled
// expression instead of being serialized as CSS text.
func (v Value) IsSplice() bool {
	return v.Expr != "" || v.DotPath != ""
}

// SpliceText returns the verbatim expression text for a splice value.
func (v Value) SpliceText() string {
	if v.Expr != "" {
		return v.Expr
	}
	return v.DotPath
}

// Declaration is a single "property: value" declaration within a rule.
// Values are kept in source order; literal components are separated by a
// single space when serialized.
type Declaration struct {
	Property string
	Values   []Value
}

// Rule represents a plain (non-conditional) style rule.
type Rule struct {
	Selector     string // raw selector text, possibly a comma-separated group
	Declarations []Declaration
}

// ConditionalRule is one branch of a conditional chain. For if/elseif the
// Condition holds opaque runtime expression text which evaluates to a
// boolean only when the compiled expression is evaluated by the host. For
// else the Condition is empty.
type ConditionalRule struct {
	Kind      BranchKind
	Condition string
	Body      []Item
}

// ConditionalBlock is one full @if/@elseif*/@else? chain. The parser
// guarantees that there is at most one else branch and that it is last;
// the printers rely on that as a precondition.
type ConditionalBlock struct {
	Rules []*ConditionalRule
}

// HasElse returns true if the chain ends with an @else branch.
func (b *ConditionalBlock) HasElse() bool {
	return len(b.Rules) > 0 && b.Rules[len(b.Rules)-1].Kind == BranchKindElse
}

// Item is a single item in a stylesheet or conditional-branch body.
// Exactly one of Rule or Conditional is non-nil.
type Item struct {
	Rule        *Rule
	Conditional *ConditionalBlock
}

// Stylesheet is a parsed conditional stylesheet.
type Stylesheet struct {
	Items    []Item   // all top-level items in source order
	Warnings []string // warnings for skipped or unsupported constructs
}

// HasConditionals returns true if the stylesheet contains a conditional
// block among its top-level items.
func (s *Stylesheet) HasConditionals() bool {
	for _, item := range s.Items {
		if item.Conditional != nil {
			return true
		}
	}
	return false
}

// Conditions returns the runtime condition texts of all conditional rules in
// source order, descending into nested blocks.
func (s *Stylesheet) Conditions() []string {
	var conds []string
	collectConditions(s.Items, &conds)
	return conds
}

func collectConditions(items []Item, conds *[]string) {
	for _, item := range items {
		if item.Conditional == nil {
			continue
		}
		for _, r := range item.Conditional.Rules {
			if r.Kind != BranchKindElse {
				*conds = append(*conds, r.Condition)
			}
			collectConditions(r.Body, conds)
		}
	}
}
