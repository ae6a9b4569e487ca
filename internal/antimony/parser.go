package antimony

import "fmt"

// Parse turns model source into a Model. Any syntax error aborts the parse;
// a partially parsed model is never returned.
func Parse(src string) (*Model, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	model := &Model{}

	for p.tok.kind != tokEOF {
		if p.tok.kind == tokSep {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}

		stmtErr := p.parseStatement(model)
		if stmtErr != nil {
			return nil, stmtErr
		}
	}

	if len(model.Reactions) == 0 && len(model.Assignments) == 0 {
		return nil, ParseError{Line: 1, Col: 1, Message: "empty model"}
	}

	return model, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return ParseError{Line: p.tok.line, Col: p.tok.col, Message: fmt.Sprintf(format, args...)}
}

// parseStatement dispatches between assignments and reactions. Both start
// with an identifier, so the token after it decides: '=' is an assignment,
// anything else begins a reaction.
func (p *parser) parseStatement(model *Model) error {
	if p.tok.kind == tokIdent {
		name := p.tok.text
		line := p.tok.line
		save := *p.lex
		saveTok := p.tok
		if err := p.advance(); err != nil {
			return err
		}
		if p.tok.kind == tokEq {
			if err := p.advance(); err != nil {
				return err
			}
			return p.parseAssignmentValue(model, name, line)
		}
		// Not an assignment; rewind and parse as a reaction.
		*p.lex = save
		p.tok = saveTok
	}
	return p.parseReaction(model)
}

func (p *parser) parseAssignmentValue(model *Model, name string, line int) error {
	expr, err := p.parseExpr()
	if err != nil {
		return err
	}
	vars := make(map[string]struct{})
	expr.CollectVars(vars)
	if len(vars) > 0 {
		return p.errorf("assignment to %s must be constant", name)
	}
	if p.tok.kind != tokSep && p.tok.kind != tokEOF {
		return p.errorf("unexpected %s after assignment", p.tok)
	}
	model.Assignments = append(model.Assignments, &Assignment{
		Name:  name,
		Value: expr.Eval(nil),
		Line:  line,
	})
	return nil
}

func (p *parser) parseReaction(model *Model) error {
	line := p.tok.line
	r := &Reaction{Line: line}

	// Optional label "name:".
	if p.tok.kind == tokIdent {
		save := *p.lex
		saveTok := p.tok
		name := p.tok.text
		if err := p.advance(); err != nil {
			return err
		}
		if p.tok.kind == tokColon {
			r.Name = name
			if err := p.advance(); err != nil {
				return err
			}
		} else {
			*p.lex = save
			p.tok = saveTok
		}
	}

	reactants, err := p.parseSide()
	if err != nil {
		return err
	}
	r.Reactants = reactants

	if p.tok.kind != tokArrow {
		return p.errorf("expected '->', got %s", p.tok)
	}
	if err := p.advance(); err != nil {
		return err
	}

	products, err := p.parseSide()
	if err != nil {
		return err
	}
	r.Products = products

	if len(r.Reactants) == 0 && len(r.Products) == 0 {
		return p.errorf("reaction has no species")
	}

	if p.tok.kind != tokSep {
		return p.errorf("expected ';' before rate law, got %s", p.tok)
	}
	if err := p.advance(); err != nil {
		return err
	}

	rate, err := p.parseExpr()
	if err != nil {
		return err
	}
	r.Rate = rate

	if p.tok.kind != tokSep && p.tok.kind != tokEOF {
		return p.errorf("unexpected %s after rate law", p.tok)
	}

	model.Reactions = append(model.Reactions, r)
	return nil
}

// parseSide parses zero or more '+'-separated species terms, stopping at
// '->' or the statement separator.
func (p *parser) parseSide() ([]SpeciesRef, error) {
	refs := make([]SpeciesRef, 0, 2)

	if p.tok.kind == tokArrow || p.tok.kind == tokSep {
		return refs, nil
	}

	for {
		ref := SpeciesRef{Stoich: 1}

		if p.tok.kind == tokNumber {
			if p.tok.num <= 0 {
				return nil, p.errorf("stoichiometry must be positive, got %g", p.tok.num)
			}
			ref.Stoich = p.tok.num
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if p.tok.kind == tokDollar {
			ref.Boundary = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if p.tok.kind != tokIdent {
			return nil, p.errorf("expected species name, got %s", p.tok)
		}
		ref.Name = p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}

		refs = append(refs, ref)

		if p.tok.kind != tokPlus {
			return refs, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

// Expression grammar, lowest precedence first:
//
//	expr   = factor { ('+'|'-') factor }
//	factor = unary  { ('*'|'/') unary }
//	unary  = '-' unary | power
//	power  = primary [ '^' unary ]
//
// Unary minus binds looser than '^', so -a^2 means -(a^2).
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		op := '+'
		if p.tok.kind == tokMinus {
			op = '-'
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokStar || p.tok.kind == tokSlash {
		op := '*'
		if p.tok.kind == tokSlash {
			op = '/'
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.tok.kind == tokMinus {
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: '-', X: x}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokCaret {
		if err := p.advance(); err != nil {
			return nil, err
		}
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: '^', L: base, R: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.tok.kind {
	case tokNumber:
		n := &Num{Value: p.tok.num}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return n, nil
	case tokIdent:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokLParen {
			return p.parseCall(name)
		}
		return &Ident{Name: name}, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf("expected ')', got %s", p.tok)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, p.errorf("expected expression, got %s", p.tok)
}

func (p *parser) parseCall(fn string) (Expr, error) {
	arity, ok := knownFuncs[fn]
	if !ok {
		return nil, p.errorf("unknown function %q", fn)
	}
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}

	args := make([]Expr, 0, arity)
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	if p.tok.kind != tokRParen {
		return nil, p.errorf("expected ')', got %s", p.tok)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	if len(args) != arity {
		return nil, p.errorf("%s takes %d argument(s), got %d", fn, arity, len(args))
	}
	return &Call{Fn: fn, Args: args}, nil
}
