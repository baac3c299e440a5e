package expr

import (
	"fmt"
	"strconv"
)

// node is an AST node. Nodes are immutable after parsing, which is what
// makes compiled predicates safe for concurrent reuse.
type node interface {
	eval(env map[string]any) value
}

// orNode evaluates its children left to right with short-circuiting.
type orNode struct {
	children []node
}

// andNode evaluates its children left to right with short-circuiting.
type andNode struct {
	children []node
}

// notNode negates the truthiness of its operand.
type notNode struct {
	operand node
}

// cmpNode applies a comparison operator to two operands.
type cmpNode struct {
	op    tokenKind
	left  node
	right node
}

// literalNode holds a number, string, boolean, or null literal.
type literalNode struct {
	val value
}

// identNode resolves a dotted identifier path against the facts mapping.
type identNode struct {
	path []string
}

// Predicate is a compiled expression. It is stateless and may be evaluated
// concurrently from any number of goroutines.
type Predicate struct {
	src  string
	root node
}

// Source returns the original expression source text.
func (p *Predicate) Source() string {
	return p.src
}

// Compile parses src and returns a reusable predicate. A syntax error is
// returned as a *ParseError; rules carrying such conditions must be rejected
// at load time.
func Compile(src string) (*Predicate, error) {
	toks, err := newLexer(src).tokens()
	if err != nil {
		return nil, err
	}

	p := &parser{src: src, tokens: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, newParseError(src, tok.pos, fmt.Sprintf("unexpected %s after expression", tok))
	}

	return &Predicate{src: src, root: root}, nil
}

// Evaluate compiles and evaluates src against the facts in one call.
// All errors, including syntax errors, collapse to false; callers that need
// to distinguish invalid conditions should use Compile.
func Evaluate(src string, env map[string]any) bool {
	pred, err := Compile(src)
	if err != nil {
		return false
	}
	return pred.Eval(env)
}

// parser is a recursive-descent parser over the scanned token stream.
//
// Grammar (precedence low to high):
//
//	expr    = orExpr
//	orExpr  = andExpr ( "||" andExpr )*
//	andExpr = notExpr ( "&&" notExpr )*
//	notExpr = "!" notExpr | cmpExpr
//	cmpExpr = primary ( cmpOp primary )?
//	primary = "(" expr ")" | number | string | bool | null | identifier
type parser struct {
	src    string
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseExpr() (node, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	children := []node{left}
	for p.peek().kind == tokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}

	if len(children) == 1 {
		return left, nil
	}
	return &orNode{children: children}, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	children := []node{left}
	for p.peek().kind == tokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}

	if len(children) == 1 {
		return left, nil
	}
	return &andNode{children: children}, nil
}

func (p *parser) parseNot() (node, error) {
	if p.peek().kind == tokenNot {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notNode{operand: operand}, nil
	}
	return p.parseCmp()
}

func (p *parser) parseCmp() (node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	op := p.peek().kind
	switch op {
	case tokenLT, tokenLTE, tokenGT, tokenGTE, tokenEq, tokenNotEq, tokenStrictEq, tokenStrictNE:
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &cmpNode{op: op, left: left, right: right}, nil
	default:
		return left, nil
	}
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.peek()

	switch tok.kind {
	case tokenLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.peek(); closing.kind != tokenRParen {
			return nil, newParseError(p.src, closing.pos, "expected \")\"")
		}
		p.advance()
		return inner, nil

	case tokenNumber:
		p.advance()
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, newParseError(p.src, tok.pos, fmt.Sprintf("invalid number literal %q", tok.text))
		}
		return &literalNode{val: numberValue(f)}, nil

	case tokenString:
		p.advance()
		return &literalNode{val: stringValue(tok.text)}, nil

	case tokenTrue:
		p.advance()
		return &literalNode{val: boolValue(true)}, nil

	case tokenFalse:
		p.advance()
		return &literalNode{val: boolValue(false)}, nil

	case tokenNull:
		p.advance()
		return &literalNode{val: nullValue()}, nil

	case tokenIdent:
		p.advance()
		path := []string{tok.text}
		for p.peek().kind == tokenDot {
			p.advance()
			seg := p.peek()
			if seg.kind != tokenIdent {
				// Keywords are valid path segments: "request.null" is a
				// key access, not a literal.
				switch seg.kind {
				case tokenTrue, tokenFalse, tokenNull:
				default:
					return nil, newParseError(p.src, seg.pos, "expected identifier after \".\"")
				}
			}
			p.advance()
			path = append(path, seg.text)
		}
		return &identNode{path: path}, nil

	default:
		return nil, newParseError(p.src, tok.pos, fmt.Sprintf("unexpected %s", tok))
	}
}
