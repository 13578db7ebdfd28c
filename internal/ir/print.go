package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Printer writes IR in the textual s-expression form accepted by the
// text front end.
type Printer struct {
	w      io.Writer
	indent int
	err    error
}

// NewPrinter creates a printer targeting w.
func NewPrinter(w io.Writer) *Printer { return &Printer{w: w} }

// Dump writes the module to w in textual form.
func Dump(w io.Writer, m *Module) error {
	p := NewPrinter(w)
	return p.PrintModule(m)
}

// String renders a single expression tree as text.
func String(e *Expr) string {
	var sb strings.Builder
	p := NewPrinter(&sb)
	p.printExpr(e)
	return sb.String()
}

// PrintModule prints a complete module.
func (p *Printer) PrintModule(m *Module) error {
	p.printf("(module")
	p.indent++
	for _, f := range m.Funcs {
		p.newline()
		p.printf("(func $%s", f.Name)
		if f.Body != nil {
			p.indent++
			p.newline()
			p.printExpr(f.Body)
			p.indent--
		}
		p.printf(")")
	}
	p.indent--
	p.printf(")\n")
	return p.err
}

func (p *Printer) printExpr(e *Expr) {
	if e == nil {
		p.printf("(nop)")
		return
	}
	switch e.Kind {
	case ExprNop:
		p.printf("(nop)")
	case ExprConst:
		if e.Type == TypeF64 {
			p.printf("(f64.const %s)", strconv.FormatFloat(e.Float, 'g', -1, 64))
		} else {
			p.printf("(i64.const %d)", e.Int)
		}
	case ExprLocalGet:
		p.printf("(local.get $%s %s)", e.Name, e.Type)
	case ExprLocalSet:
		p.printHead("local.set $"+e.Name, e.Kids)
	case ExprGlobalGet:
		p.printf("(global.get $%s %s)", e.Name, e.Type)
	case ExprGlobalSet:
		p.printHead("global.set $"+e.Name, e.Kids)
	case ExprLoad:
		p.printHead("load "+e.Type.String(), e.Kids)
	case ExprStore:
		p.printHead("store", e.Kids)
	case ExprCall:
		p.printHead(fmt.Sprintf("call $%s %s", e.Name, e.Type), e.Kids)
	case ExprBinary:
		p.printHead("binary "+e.Op, e.Kids)
	case ExprUnary:
		p.printHead("unary "+e.Op, e.Kids)
	case ExprDrop:
		p.printHead("drop", e.Kids)
	case ExprBlock:
		p.printNested("block", e.Name, e.Kids)
	case ExprLoop:
		p.printNested("loop", e.Name, e.Kids)
	case ExprIf:
		p.printHead("if", e.Kids)
	case ExprBr:
		if len(e.Kids) > 0 {
			p.printHead("br_if $"+e.Name, e.Kids)
		} else {
			p.printf("(br $%s)", e.Name)
		}
	case ExprReturn:
		p.printHead("return", e.Kids)
	default:
		p.printf("(unknown)")
	}
}

// printHead prints a node whose children continue on the same line.
func (p *Printer) printHead(head string, kids []*Expr) {
	p.printf("(%s", head)
	for _, k := range kids {
		p.printf(" ")
		p.printExpr(k)
	}
	p.printf(")")
}

// printNested prints a control-flow node with one child per line.
func (p *Printer) printNested(head, label string, kids []*Expr) {
	if label != "" {
		p.printf("(%s $%s", head, label)
	} else {
		p.printf("(%s", head)
	}
	p.indent++
	for _, k := range kids {
		p.newline()
		p.printExpr(k)
	}
	p.indent--
	p.printf(")")
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) newline() {
	p.printf("\n%s", strings.Repeat("  ", p.indent))
}
