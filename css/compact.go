package css

import (
	"strings"
)

// CompactPrinter serializes plain (non-conditional) stylesheet content into
// minified CSS text: no whitespace between tokens, ";" separators with the
// final one elided. Output accumulates in an internal buffer; ownership of
// the accumulated text transfers to the caller at each ReadAndReset call.
//
// NOTE: EndRule deletes characters from the end of the buffer to drop the
// trailing ";". Callers interleaving ReadAndReset with rule printing are safe
// only because an empty buffer leaves nothing to delete - see ReadAndReset.
type CompactPrinter struct {
	buf     []byte
	needSep bool
}

// NewCompactPrinter creates an empty compact printer.
func NewCompactPrinter() *CompactPrinter {
	return &CompactPrinter{buf: make([]byte, 0, 256)}
}

// BeginRule starts a new rule: minified selector followed by "{".
func (p *CompactPrinter) BeginRule(selector string) {
	p.buf = append(p.buf, compactSelector(selector)...)
	p.buf = append(p.buf, '{')
}

// EndRule drops the trailing declaration separator if present and closes the
// rule with "}".
func (p *CompactPrinter) EndRule() {
	if n := len(p.buf); n > 0 && p.buf[n-1] == ';' {
		p.buf = p.buf[:n-1]
	}
	p.buf = append(p.buf, '}')
}

// BeginDeclaration starts a "property:" declaration.
func (p *CompactPrinter) BeginDeclaration(property string) {
	p.buf = append(p.buf, property...)
	p.buf = append(p.buf, ':')
	p.needSep = false
}

// EndDeclaration terminates the current declaration with ";". EndRule elides
// the separator after the last declaration of a rule.
func (p *CompactPrinter) EndDeclaration() {
	p.buf = append(p.buf, ';')
	p.needSep = false
}

// AppendValue appends one literal value component, space-separated from the
// previous component of the same declaration.
func (p *CompactPrinter) AppendValue(text string) {
	if p.needSep {
		p.buf = append(p.buf, ' ')
	}
	p.buf = append(p.buf, text...)
	p.needSep = true
}

// Len reports how much text has accumulated since the last reset.
func (p *CompactPrinter) Len() int {
	return len(p.buf)
}

// ReadAndReset returns everything accumulated since the previous call and
// clears the buffer, as a single hand-off. Skipping a call at a structural
// boundary would silently merge two logically distinct segments.
func (p *CompactPrinter) ReadAndReset() string {
	text := string(p.buf)
	p.buf = p.buf[:0]
	return text
}

// compactSelector minifies selector text: whitespace runs collapse to a
// single space and spaces around "," separators are removed.
func compactSelector(selector string) string {
	parts := strings.Split(selector, ",")
	for i, part := range parts {
		parts[i] = strings.Join(strings.Fields(part), " ")
	}
	return strings.Join(parts, ",")
}
