package compiler

import "github.com/horst-lang/horst/lang/token"

// Precedence orders binding strength for the Pratt parser, lowest first.
type Precedence int

//nolint:revive
const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * / %
	PrecUnary                 // ! -
	PrecCall                  // . () []
	PrecPrimary
)

func (p Precedence) next() Precedence {
	if p == PrecPrimary {
		return PrecNone
	}
	return p + 1
}

type parseFn func(p *parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is the static Pratt parsing table: for each token kind, the prefix
// rule that may start an expression with it, the infix rule that may
// continue one, and the infix precedence used to decide whether to keep
// consuming. Token kinds with no entry get the zero parseRule (no prefix,
// no infix, PrecNone), which is exactly what statement-starting keywords and
// punctuation need.
var rules = map[token.Kind]parseRule{}

func init() {
	set := func(k token.Kind, prefix, infix parseFn, prec Precedence) {
		rules[k] = parseRule{prefix: prefix, infix: infix, precedence: prec}
	}

	set(token.LPAREN, (*parser).grouping, (*parser).call, PrecCall)
	set(token.LBRACK, (*parser).array, (*parser).index, PrecCall)
	set(token.DOT, nil, (*parser).dot, PrecCall)
	set(token.MINUS, (*parser).unary, (*parser).binary, PrecTerm)
	set(token.PLUS, nil, (*parser).binary, PrecTerm)
	set(token.SLASH, nil, (*parser).binary, PrecFactor)
	set(token.STAR, nil, (*parser).binary, PrecFactor)
	set(token.PERCENT, nil, (*parser).binary, PrecFactor)
	set(token.BANG, (*parser).unary, nil, PrecNone)
	set(token.BANG_EQ, nil, (*parser).binary, PrecEquality)
	set(token.EQ_EQ, nil, (*parser).binary, PrecEquality)
	set(token.GT, nil, (*parser).binary, PrecComparison)
	set(token.GT_EQ, nil, (*parser).binary, PrecComparison)
	set(token.LT, nil, (*parser).binary, PrecComparison)
	set(token.LT_EQ, nil, (*parser).binary, PrecComparison)
	set(token.IDENT, (*parser).variable, nil, PrecNone)
	set(token.STRING, (*parser).string, nil, PrecNone)
	set(token.NUMBER, (*parser).number, nil, PrecNone)
	set(token.AND, nil, (*parser).and, PrecAnd)
	set(token.OR, nil, (*parser).or, PrecOr)
	set(token.FALSE, (*parser).literal, nil, PrecNone)
	set(token.NIL, (*parser).literal, nil, PrecNone)
	set(token.TRUE, (*parser).literal, nil, PrecNone)
	set(token.SUPER, (*parser).super_, nil, PrecNone)
	set(token.THIS, (*parser).this, nil, PrecNone)
	set(token.FN, func(p *parser, _ bool) { p.function(typeFunction) }, nil, PrecNone)
}

func getRule(k token.Kind) parseRule { return rules[k] }
