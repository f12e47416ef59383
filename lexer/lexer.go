package lexer

import (
	"unicode"

	"github.com/tpplang/tppc/token"
)

type Lexer struct {
	fileName     string
	input        []rune
	position     int  // current position in input (points to current rune)
	readPosition int  // current reading position in input (after current rune)
	curr         rune // current rune under examination
	line         int
	column       int
}

func New(fileName, input string) *Lexer {
	l := &Lexer{fileName: fileName, input: []rune(input), line: 1}
	l.readRune()
	return l
}

func (l *Lexer) NextToken() token.Token {
	if !l.skipWhitespaceAndComments() {
		// unterminated comment: report the opening brace and stop
		return l.newToken(token.ILLEGAL, "{", l.line, l.column)
	}

	line, col := l.line, l.column
	var tok token.Token

	switch l.curr {
	case ':':
		if l.peekRune() == '=' {
			l.readRune()
			tok = l.newToken(token.ASSIGN, ":=", line, col)
		} else {
			tok = l.newToken(token.COLON, ":", line, col)
		}
	case '<':
		switch l.peekRune() {
		case '=':
			l.readRune()
			tok = l.newToken(token.LEQ, "<=", line, col)
		case '>':
			l.readRune()
			tok = l.newToken(token.NEQ, "<>", line, col)
		default:
			tok = l.newToken(token.LSS, "<", line, col)
		}
	case '>':
		if l.peekRune() == '=' {
			l.readRune()
			tok = l.newToken(token.GEQ, ">=", line, col)
		} else {
			tok = l.newToken(token.GTR, ">", line, col)
		}
	case '&':
		if l.peekRune() == '&' {
			l.readRune()
			tok = l.newToken(token.AND, "&&", line, col)
		} else {
			tok = l.newToken(token.ILLEGAL, "&", line, col)
		}
	case '|':
		if l.peekRune() == '|' {
			l.readRune()
			tok = l.newToken(token.OR, "||", line, col)
		} else {
			tok = l.newToken(token.ILLEGAL, "|", line, col)
		}
	case '=':
		tok = l.newToken(token.EQL, "=", line, col)
	case '!':
		tok = l.newToken(token.NOT, "!", line, col)
	case '+':
		tok = l.newToken(token.ADD, "+", line, col)
	case '-':
		tok = l.newToken(token.SUB, "-", line, col)
	case '*':
		tok = l.newToken(token.MUL, "*", line, col)
	case '/':
		tok = l.newToken(token.QUO, "/", line, col)
	case ',':
		tok = l.newToken(token.COMMA, ",", line, col)
	case '(':
		tok = l.newToken(token.LPAREN, "(", line, col)
	case ')':
		tok = l.newToken(token.RPAREN, ")", line, col)
	case '[':
		tok = l.newToken(token.LBRACK, "[", line, col)
	case ']':
		tok = l.newToken(token.RBRACK, "]", line, col)
	case 0:
		return l.newToken(token.EOF, "", line, col)
	default:
		if isLetter(l.curr) {
			literal := l.readIdentifier()
			return l.newToken(token.LookupIdent(literal), literal, line, col)
		}
		if isDigit(l.curr) {
			typ, literal := l.readNumber()
			return l.newToken(typ, literal, line, col)
		}
		tok = l.newToken(token.ILLEGAL, string(l.curr), line, col)
	}

	l.readRune()
	return tok
}

// skipWhitespaceAndComments advances past blanks and {...} comments. It
// returns false when a comment is still open at the end of input.
func (l *Lexer) skipWhitespaceAndComments() bool {
	for {
		for unicode.IsSpace(l.curr) {
			l.readRune()
		}
		if l.curr != '{' {
			return true
		}
		for l.curr != '}' {
			if l.curr == 0 {
				return false
			}
			l.readRune()
		}
		l.readRune()
	}
}

func (l *Lexer) readRune() {
	if l.curr == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.curr = 0
	} else {
		l.curr = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) peekRune() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) peekRuneAt(offset int) rune {
	pos := l.position + offset
	if pos >= len(l.input) {
		return 0
	}
	return l.input[pos]
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.curr) || isDigit(l.curr) {
		l.readRune()
	}
	return string(l.input[position:l.position])
}

// readNumber reads 12, 12.5, 12e3 and 1.2e-3. The exponent is only consumed
// when digits follow it, so "2e" lexes as INT "2" then IDENT "e".
func (l *Lexer) readNumber() (token.TokenType, string) {
	position := l.position
	typ := token.INT
	for isDigit(l.curr) {
		l.readRune()
	}
	if l.curr == '.' && isDigit(l.peekRune()) {
		typ = token.FLOAT
		l.readRune()
		for isDigit(l.curr) {
			l.readRune()
		}
	}
	if l.curr == 'e' || l.curr == 'E' {
		next := l.peekRune()
		if isDigit(next) || (next == '+' || next == '-') && isDigit(l.peekRuneAt(2)) {
			typ = token.SCI
			l.readRune()
			if l.curr == '+' || l.curr == '-' {
				l.readRune()
			}
			for isDigit(l.curr) {
				l.readRune()
			}
		}
	}
	return typ, string(l.input[position:l.position])
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) newToken(tokenType token.TokenType, literal string, line, col int) token.Token {
	return token.Token{FileName: l.fileName, Type: tokenType, Literal: literal, Line: line, Column: col}
}
