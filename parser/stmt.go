package parser

import (
	"github.com/tpplang/tppc/cst"
	"github.com/tpplang/tppc/token"
)

// parseCorpo parses statements until fim, senão, até or end of input. The
// body always bottoms out in a vazio node.
func (p *Parser) parseCorpo() *cst.Node {
	// a body starts right after a consumed keyword or ')', a safe place to
	// resume reporting
	p.recovering = false

	body := p.node("corpo", p.node("vazio"))
	for !endsBody(p.curToken.Type) {
		var action *cst.Node
		if canStartStatement(p.curToken.Type) {
			action = p.parseAcao()
		} else {
			action = p.fail(ErrCorpo)
			p.nextToken()
		}
		if p.recovering {
			p.syncStatement()
		}
		body = p.node("corpo", body, action)
	}
	return body
}

// syncStatement skips to the next token that can begin a statement or close
// the enclosing body. Expression-starting tokens only count on a later line
// than the error.
func (p *Parser) syncStatement() {
	for !endsBody(p.curToken.Type) {
		t := p.curToken.Type
		if canStartStatement(t) && !canStartExpression(t) {
			break
		}
		if canStartExpression(t) && p.curToken.Line > p.errLine {
			break
		}
		p.nextToken()
	}
	p.recovering = false
}

func (p *Parser) parseAcao() *cst.Node {
	var child *cst.Node
	switch p.curToken.Type {
	case token.INT_TYPE, token.FLOAT_TYPE:
		child = p.parseDeclaracaoVariaveis()
	case token.IF:
		child = p.parseSe()
	case token.REPEAT:
		child = p.parseRepita()
	case token.READ:
		child = p.parseLeia()
	case token.WRITE:
		child = p.parseEscreva()
	case token.RETURN:
		child = p.parseRetorna()
	default:
		child = p.parseExpressao()
	}
	return p.node("acao", child)
}

func (p *Parser) parseSe() *cst.Node {
	se := p.terminal()
	if !canStartExpression(p.curToken.Type) {
		return p.failSe()
	}
	cond := p.parseExpressao()
	then, ok := p.expect(token.THEN)
	if !ok {
		return p.failSe()
	}
	body := p.parseCorpo()

	switch p.curToken.Type {
	case token.END:
		end := p.terminal()
		return p.node("se", se, cond, then, body, end)
	case token.ELSE:
		els := p.terminal()
		elseBody := p.parseCorpo()
		end, ok := p.expect(token.END)
		if !ok {
			if p.curTokenIs(token.ELSE) {
				return p.failSe()
			}
			return p.fail(ErrSe)
		}
		return p.node("se", se, cond, then, body, els, elseBody, end)
	default:
		// até or end of input: the fim is missing, leave the token to the
		// enclosing construct
		return p.fail(ErrSe)
	}
}

func (p *Parser) failSe() *cst.Node {
	n := p.fail(ErrSe)
	p.skipToMatchingEnd()
	return n
}

func (p *Parser) parseRepita() *cst.Node {
	rep := p.terminal()
	body := p.parseCorpo()
	until, ok := p.expect(token.UNTIL)
	if !ok {
		return p.fail(ErrRepita)
	}
	if !canStartExpression(p.curToken.Type) {
		return p.fail(ErrRepita)
	}
	cond := p.parseExpressao()
	return p.node("repita", rep, body, until, cond)
}

func (p *Parser) parseLeia() *cst.Node {
	leia := p.terminal()
	open, ok := p.expect(token.LPAREN)
	if !ok {
		return p.fail(ErrLeia)
	}
	v := p.parseVar()
	closing, ok := p.expect(token.RPAREN)
	if !ok {
		return p.fail(ErrLeia)
	}
	return p.node("leia", leia, open, v, closing)
}

func (p *Parser) parseEscreva() *cst.Node {
	return p.parseWrapped("escreva", ErrEscreva)
}

func (p *Parser) parseRetorna() *cst.Node {
	return p.parseWrapped("retorna", ErrRetorna)
}

// parseWrapped parses KEYWORD ( expressao ), the shape shared by escreva and
// retorna.
func (p *Parser) parseWrapped(name, code string) *cst.Node {
	kw := p.terminal()
	open, ok := p.expect(token.LPAREN)
	if !ok {
		return p.fail(code)
	}
	if !canStartExpression(p.curToken.Type) {
		return p.fail(code)
	}
	e := p.parseExpressao()
	closing, ok := p.expect(token.RPAREN)
	if !ok {
		return p.fail(code)
	}
	return p.node(name, kw, open, e, closing)
}
