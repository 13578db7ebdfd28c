package text

import (
	"fmt"
	"strconv"
	"strings"

	"treeopt/internal/ir"
)

// Parse reads a module in textual form:
//
//	(module
//	  (func $name
//	    (loop $l
//	      (global.set $g (i64.const 1))
//	      (br_if $l (local.get $x i64)))))
//
// A function with several body expressions gets them wrapped in an
// unlabeled block.
func Parse(src string) (*ir.Module, error) {
	p := &parser{sc: newScanner(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	m, err := p.parseModule()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("expected end of input, found %s", p.tok.kind)
	}
	return m, nil
}

type parser struct {
	sc  *scanner
	tok token
}

func (p *parser) advance() error {
	tok, err := p.sc.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%d:%d: %s", p.tok.line, p.tok.col, fmt.Sprintf(format, args...))
}

func (p *parser) expect(kind tokenKind) (token, error) {
	if p.tok.kind != kind {
		return token{}, p.errorf("expected %s, found %s", kind, p.tok.kind)
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return tok, nil
}

func (p *parser) expectSym(text string) error {
	if p.tok.kind != tokSym || p.tok.text != text {
		return p.errorf("expected %q", text)
	}
	return p.advance()
}

func (p *parser) parseModule() (*ir.Module, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	if err := p.expectSym("module"); err != nil {
		return nil, err
	}
	m := &ir.Module{}
	for p.tok.kind != tokRParen {
		if err := p.parseFunc(m); err != nil {
			return nil, err
		}
	}
	return m, p.advance()
}

func (p *parser) parseFunc(m *ir.Module) error {
	if _, err := p.expect(tokLParen); err != nil {
		return err
	}
	if err := p.expectSym("func"); err != nil {
		return err
	}
	name, err := p.expect(tokName)
	if err != nil {
		return err
	}
	var body []*ir.Expr
	for p.tok.kind != tokRParen {
		e, err := p.parseExpr()
		if err != nil {
			return err
		}
		body = append(body, e)
	}
	if err := p.advance(); err != nil {
		return err
	}
	switch len(body) {
	case 0:
		m.AddFunc(name.text, ir.NewNop())
	case 1:
		m.AddFunc(name.text, body[0])
	default:
		m.AddFunc(name.text, ir.NewBlock("", body...))
	}
	return nil
}

func (p *parser) parseExpr() (*ir.Expr, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	head, err := p.expect(tokSym)
	if err != nil {
		return nil, err
	}
	e, err := p.parseBody(head.text)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return e, nil
}

//nolint:gocyclo // one arm per node head
func (p *parser) parseBody(head string) (*ir.Expr, error) {
	switch head {
	case "nop":
		return ir.NewNop(), nil

	case "i64.const":
		tok, err := p.expect(tokNumber)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%d:%d: bad integer literal %q", tok.line, tok.col, tok.text)
		}
		return ir.NewConstI64(v), nil

	case "f64.const":
		tok, err := p.expect(tokNumber)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("%d:%d: bad float literal %q", tok.line, tok.col, tok.text)
		}
		return ir.NewConstF64(v), nil

	case "local.get", "global.get":
		name, err := p.expect(tokName)
		if err != nil {
			return nil, err
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if head == "local.get" {
			return ir.NewLocalGet(name.text, t), nil
		}
		return ir.NewGlobalGet(name.text, t), nil

	case "local.set", "global.set":
		name, err := p.expect(tokName)
		if err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if head == "local.set" {
			return ir.NewLocalSet(name.text, value), nil
		}
		return ir.NewGlobalSet(name.text, value), nil

	case "load":
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		addr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ir.NewLoad(t, addr), nil

	case "store":
		addr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ir.NewStore(addr, value), nil

	case "call":
		name, err := p.expect(tokName)
		if err != nil {
			return nil, err
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args, err := p.parseExprsUntilRParen()
		if err != nil {
			return nil, err
		}
		return ir.NewCall(name.text, t, args...), nil

	case "binary":
		op, err := p.expect(tokSym)
		if err != nil {
			return nil, err
		}
		l, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		r, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ir.NewBinary(op.text, l, r), nil

	case "unary":
		op, err := p.expect(tokSym)
		if err != nil {
			return nil, err
		}
		k, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ir.NewUnary(op.text, k), nil

	case "drop":
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ir.NewDrop(v), nil

	case "block":
		label := ""
		if p.tok.kind == tokName {
			label = p.tok.text
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		kids, err := p.parseExprsUntilRParen()
		if err != nil {
			return nil, err
		}
		return ir.NewBlock(label, kids...), nil

	case "loop":
		label := ""
		if p.tok.kind == tokName {
			label = p.tok.text
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		kids, err := p.parseExprsUntilRParen()
		if err != nil {
			return nil, err
		}
		var body *ir.Expr
		switch len(kids) {
		case 0:
			body = ir.NewNop()
		case 1:
			body = kids[0]
		default:
			body = ir.NewBlock("", kids...)
		}
		return ir.NewLoop(label, body), nil

	case "if":
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		var els *ir.Expr
		if p.tok.kind == tokLParen {
			if els, err = p.parseExpr(); err != nil {
				return nil, err
			}
		}
		return ir.NewIf(cond, then, els), nil

	case "br":
		label, err := p.expect(tokName)
		if err != nil {
			return nil, err
		}
		return ir.NewBr(label.text, nil), nil

	case "br_if":
		label, err := p.expect(tokName)
		if err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ir.NewBr(label.text, cond), nil

	case "return":
		var v *ir.Expr
		if p.tok.kind == tokLParen {
			var err error
			if v, err = p.parseExpr(); err != nil {
				return nil, err
			}
		}
		return ir.NewReturn(v), nil

	default:
		return nil, p.errorf("unknown node head %q", head)
	}
}

func (p *parser) parseExprsUntilRParen() ([]*ir.Expr, error) {
	var kids []*ir.Expr
	for p.tok.kind == tokLParen {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		kids = append(kids, e)
	}
	return kids, nil
}

func (p *parser) parseType() (ir.Type, error) {
	tok, err := p.expect(tokSym)
	if err != nil {
		return ir.TypeNone, err
	}
	switch strings.ToLower(tok.text) {
	case "none":
		return ir.TypeNone, nil
	case "i64":
		return ir.TypeI64, nil
	case "f64":
		return ir.TypeF64, nil
	default:
		return ir.TypeNone, fmt.Errorf("%d:%d: unknown type %q", tok.line, tok.col, tok.text)
	}
}
