package conditions

import (
	"fmt"

	"github.com/arzttarif/tarifengine/internal/catalog"
)

// compiledStructure is the shunting-yard-compiled form of one package's
// condition rows, cached by package identity (§5 "structure-prepared
// index... write-once"). valid is false when the structured parse is
// unavailable (missing operators), signalling the caller to use
// fallbackEvaluate instead (§4.7 "Fallback evaluation").
type compiledStructure struct {
	valid bool
	rpn   []string
}

// precedence mirrors original_source/pauschalen/expression_parser.py's
// table exactly: not > and > or.
var precedence = map[string]int{"not": 3, "and": 2, "or": 1}

func atomID(i int) string { return fmt.Sprintf("r%d", i) }

func buildStructure(rows []catalog.ConditionRow) *compiledStructure {
	if len(rows) == 0 {
		return &compiledStructure{valid: true}
	}
	if !hasValidOperators(rows) {
		return &compiledStructure{valid: false}
	}
	return &compiledStructure{valid: true, rpn: shuntingYard(infixTokens(rows))}
}

// hasValidOperators reports whether every row but the last carries an
// Operator to connect it to what follows — the structured-parse
// precondition (§4.7/§9 open question (b)).
func hasValidOperators(rows []catalog.ConditionRow) bool {
	for i := 0; i < len(rows)-1; i++ {
		if rows[i].Operator == "" {
			return false
		}
	}
	return true
}

// infixTokens turns the row stream into an infix token list: one atom
// token per row, the row's Operator as the separator to the next atom,
// and parentheses at group boundaries (§4.7 "Structured evaluation").
func infixTokens(rows []catalog.ConditionRow) []string {
	var tokens []string
	for i, row := range rows {
		switch {
		case i == 0:
			tokens = append(tokens, "(")
		case row.Group != rows[i-1].Group:
			tokens = append(tokens, ")")
			tokens = append(tokens, operatorTokens(rows[i-1].Operator)...)
			tokens = append(tokens, "(")
		default:
			tokens = append(tokens, operatorTokens(rows[i-1].Operator)...)
		}
		tokens = append(tokens, atomID(i))
	}
	tokens = append(tokens, ")")
	return tokens
}

func operatorTokens(op catalog.ConditionOperator) []string {
	switch op {
	case catalog.OpAND:
		return []string{"and"}
	case catalog.OpOR:
		return []string{"or"}
	case catalog.OpANDNOT:
		return []string{"and", "not"}
	case catalog.OpORNOT:
		return []string{"or", "not"}
	default:
		return []string{"and"}
	}
}

// shuntingYard converts infix boolean tokens to RPN, identical in shape
// to expression_parser.py's shunting_yard.
func shuntingYard(tokens []string) []string {
	var output, ops []string
	for _, tok := range tokens {
		switch {
		case tok == "(":
			ops = append(ops, tok)
		case tok == ")":
			for len(ops) > 0 && ops[len(ops)-1] != "(" {
				output = append(output, ops[len(ops)-1])
				ops = ops[:len(ops)-1]
			}
			if len(ops) > 0 && ops[len(ops)-1] == "(" {
				ops = ops[:len(ops)-1]
			}
		case precedence[tok] > 0:
			for len(ops) > 0 && ops[len(ops)-1] != "(" && precedence[ops[len(ops)-1]] >= precedence[tok] {
				output = append(output, ops[len(ops)-1])
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, tok)
		default:
			output = append(output, tok)
		}
	}
	for len(ops) > 0 {
		output = append(output, ops[len(ops)-1])
		ops = ops[:len(ops)-1]
	}
	return output
}

// evaluateRPN walks the compiled RPN against a per-atom truth context,
// mirroring expression_parser.py's evaluate_rpn stack machine.
func evaluateRPN(rpn []string, atoms map[string]bool) bool {
	var stack []bool
	for _, tok := range rpn {
		switch tok {
		case "and":
			b, a := stack[len(stack)-1], stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, a && b)
		case "or":
			b, a := stack[len(stack)-1], stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, a || b)
		case "not":
			a := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack = append(stack, !a)
		default:
			stack = append(stack, atoms[tok])
		}
	}
	if len(stack) == 0 {
		return false
	}
	return stack[len(stack)-1]
}

// fallbackEvaluate implements §4.7's fallback semantics: a package is
// applicable iff some group has every one of its conditions true
// (implicit AND within a group, implicit OR across groups). Group order
// of first appearance is preserved so the result never depends on map
// iteration order (I6 determinism).
func fallbackEvaluate(rows []catalog.ConditionRow, outcomes []Outcome) bool {
	groupAllTrue := map[int]bool{}
	var order []int
	for _, row := range rows {
		if _, seen := groupAllTrue[row.Group]; !seen {
			groupAllTrue[row.Group] = true
			order = append(order, row.Group)
		}
	}
	for i, row := range rows {
		if !outcomes[i].Met {
			groupAllTrue[row.Group] = false
		}
	}
	for _, g := range order {
		if groupAllTrue[g] {
			return true
		}
	}
	return false
}
