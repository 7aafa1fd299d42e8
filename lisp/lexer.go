package lisp

import (
	"iter"
	"regexp"
	"strings"
	"unicode"
)

type TokenType int

const (
	TokLParen TokenType = iota
	TokRParen
	TokAtom
	TokString
	TokEOF
)

// Token is a contiguous slice of the source. Pos is its byte offset.
type Token struct {
	Type TokenType
	Text string
	Pos  int
}

// space matches what unicode.IsSpace accepts: ASCII \s, vertical tab,
// NEL and the Unicode separator categories.
const space = `\s\v\x{85}\p{Z}`

// Alternatives are tried in order; an atom can never start with '"'.
var reToken = regexp.MustCompile(`^(?:\(|\)|[^"()` + space + `]+|"[^"]+")`)

// Lexer produces tokens on demand. It cannot be rewound; lex the source
// again to restart.
type Lexer struct {
	src string
	pos int
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

func (l *Lexer) skipWhitespace() {
	rest := strings.TrimLeftFunc(l.src[l.pos:], unicode.IsSpace)
	l.pos = len(l.src) - len(rest)
}

// Next returns the next token, a TokEOF token once the input is exhausted,
// or a *SyntaxError if the remaining input starts with no valid token.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.src) {
		return Token{Type: TokEOF, Pos: l.pos}, nil
	}

	rest := l.src[l.pos:]
	text := reToken.FindString(rest)
	if text == "" {
		return Token{}, &SyntaxError{Pos: l.pos, Near: near(rest)}
	}

	tok := Token{Text: text, Pos: l.pos}
	switch {
	case text == "(":
		tok.Type = TokLParen
	case text == ")":
		tok.Type = TokRParen
	case text[0] == '"':
		tok.Type = TokString
	default:
		tok.Type = TokAtom
	}
	l.pos += len(text)
	return tok, nil
}

// Tokens yields the tokens of src lazily, stopping after the first error.
func Tokens(src string) iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		l := NewLexer(src)
		for {
			tok, err := l.Next()
			if err != nil {
				yield(Token{}, err)
				return
			}
			if tok.Type == TokEOF {
				return
			}
			if !yield(tok, nil) {
				return
			}
		}
	}
}

func near(s string) string {
	const limit = 16
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 && i < limit {
		return s[:i]
	}
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
