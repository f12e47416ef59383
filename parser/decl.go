package parser

import (
	"github.com/tpplang/tppc/cst"
	"github.com/tpplang/tppc/token"
)

func (p *Parser) parseListaDeclaracoes() *cst.Node {
	var list *cst.Node
	for !p.curTokenIs(token.EOF) {
		decl := p.parseDeclaracao()
		if p.recovering {
			p.syncDeclaration()
		}
		list = p.node("lista_declaracoes", list, decl)
	}
	return list
}

func (p *Parser) parseDeclaracao() *cst.Node {
	var child *cst.Node
	switch {
	case isTypeToken(p.curToken.Type):
		if p.peekTokenIs(token.COLON) {
			child = p.parseDeclaracaoVariaveis()
		} else {
			child = p.parseDeclaracaoFuncao()
		}
	case p.curTokenIs(token.IDENT):
		if p.peekTokenIs(token.LPAREN) {
			child = p.parseDeclaracaoFuncao()
		} else {
			child = p.node("inicializacao_variaveis", p.parseAtribuicao())
		}
	default:
		n := p.fail(ErrListaDeclaracoes)
		p.nextToken()
		return n
	}
	return p.node("declaracao", child)
}

// syncDeclaration skips to the next token that can begin a top-level
// declaration.
func (p *Parser) syncDeclaration() {
	for !p.curTokenIs(token.EOF) {
		if isTypeToken(p.curToken.Type) {
			break
		}
		if p.curTokenIs(token.IDENT) && p.curToken.Line > p.errLine {
			break
		}
		p.nextToken()
	}
	p.recovering = false
}

func (p *Parser) parseTipo() *cst.Node {
	return p.node("tipo", p.terminal())
}

func (p *Parser) parseDeclaracaoVariaveis() *cst.Node {
	tipo := p.parseTipo()
	colon, ok := p.expect(token.COLON)
	if !ok {
		return p.fail(ErrDeclaracaoVariaveis)
	}
	if !p.curTokenIs(token.IDENT) {
		return p.fail(ErrDeclaracaoVariaveis)
	}
	vars := p.parseListaVariaveis()
	return p.node("declaracao_variaveis", tipo, colon, vars)
}

func (p *Parser) parseListaVariaveis() *cst.Node {
	list := p.node("lista_variaveis", p.parseVar())
	for p.curTokenIs(token.COMMA) {
		comma := p.terminal()
		if !p.curTokenIs(token.IDENT) {
			return p.node("lista_variaveis", list, comma, p.fail(ErrListaVariaveis))
		}
		v := p.parseVar()
		list = p.node("lista_variaveis", list, comma, v)
	}
	return list
}

func (p *Parser) parseVar() *cst.Node {
	id, ok := p.expect(token.IDENT)
	if !ok {
		return p.fail(ErrVar)
	}
	if !p.curTokenIs(token.LBRACK) {
		return p.node("var", id)
	}
	idx := p.parseIndice()
	return p.node("var", id, idx)
}

func (p *Parser) parseIndice() *cst.Node {
	var idx *cst.Node
	for p.curTokenIs(token.LBRACK) {
		open := p.terminal()
		if !canStartExpression(p.curToken.Type) {
			return p.fail(ErrIndice)
		}
		e := p.parseExpressao()
		closing, ok := p.expect(token.RBRACK)
		if !ok {
			return p.fail(ErrIndice)
		}
		idx = p.node("indice", idx, open, e, closing)
	}
	return idx
}

func (p *Parser) parseDeclaracaoFuncao() *cst.Node {
	var tipo *cst.Node
	if isTypeToken(p.curToken.Type) {
		tipo = p.parseTipo()
	}
	if !p.curTokenIs(token.IDENT) {
		return p.fail(ErrDeclaracaoFuncao)
	}
	header := p.parseCabecalho()
	return p.node("declaracao_funcao", tipo, header)
}

func (p *Parser) parseCabecalho() *cst.Node {
	id := p.terminal()
	open, ok := p.expect(token.LPAREN)
	if !ok {
		// not recognizably a function yet, let the declaration list resync
		return p.fail(ErrCabecalho)
	}
	params := p.parseListaParametros()
	closing, ok := p.expect(token.RPAREN)
	if !ok {
		return p.failHeader()
	}
	body := p.parseCorpo()
	end, ok := p.expect(token.END)
	if !ok {
		return p.failHeader()
	}
	return p.node("cabecalho", id, open, params, closing, body, end)
}

// failHeader abandons the whole function, up to its closing fim.
func (p *Parser) failHeader() *cst.Node {
	n := p.fail(ErrCabecalho)
	p.skipToMatchingEnd()
	return n
}

func (p *Parser) parseListaParametros() *cst.Node {
	if p.curTokenIs(token.RPAREN) {
		return p.node("lista_parametros", p.node("vazio"))
	}
	list := p.node("lista_parametros", p.parseParametro())
	for p.curTokenIs(token.COMMA) {
		comma := p.terminal()
		if !isTypeToken(p.curToken.Type) {
			return p.node("lista_parametros", list, comma, p.fail(ErrListaParametros))
		}
		param := p.parseParametro()
		list = p.node("lista_parametros", list, comma, param)
	}
	return list
}

func (p *Parser) parseParametro() *cst.Node {
	if !isTypeToken(p.curToken.Type) {
		return p.fail(ErrParametro)
	}
	tipo := p.parseTipo()
	colon, ok := p.expect(token.COLON)
	if !ok {
		return p.fail(ErrParametro)
	}
	id, ok := p.expect(token.IDENT)
	if !ok {
		return p.fail(ErrParametro)
	}
	param := p.node("parametro", tipo, colon, id)
	for p.curTokenIs(token.LBRACK) {
		open := p.terminal()
		closing, ok := p.expect(token.RBRACK)
		if !ok {
			return p.fail(ErrParametro)
		}
		param = p.node("parametro", param, open, closing)
	}
	return param
}

func (p *Parser) parseAtribuicao() *cst.Node {
	return p.finishAtribuicao(p.parseVar())
}

// finishAtribuicao completes an assignment whose target has been parsed.
func (p *Parser) finishAtribuicao(target *cst.Node) *cst.Node {
	assign, ok := p.expect(token.ASSIGN)
	if !ok {
		return p.fail(ErrAtribuicao)
	}
	if !canStartExpression(p.curToken.Type) {
		return p.fail(ErrAtribuicao)
	}
	value := p.parseExpressao()
	return p.node("atribuicao", target, assign, value)
}
