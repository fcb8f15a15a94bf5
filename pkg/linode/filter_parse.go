package linode

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// ParseFilter compiles a textual expression into a Filter for schema, e.g.
//
//	label contains "web" && (region == "us-east" || region == "us-west")
//
// Supported: ==, !=, >, <, >=, <=, contains, and/&&, or/||, parentheses,
// string/number/bool/nil literals. The literal may be on either side of a
// comparison. Every identifier must be a filterable attribute.
func ParseFilter(schema *Schema, text string) (*Filter, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrNotAnExpression)
	}

	tree, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAnExpression, err.Error())
	}

	filter, err := compileNode(schema, tree.Node)
	if err != nil {
		return nil, err
	}

	if filter.Err() != nil {
		return nil, filter.Err()
	}

	return filter, nil
}

var flippedOperators = map[Operator]Operator{
	OpEq:  OpEq,
	OpNe:  OpNe,
	OpGt:  OpLt,
	OpLt:  OpGt,
	OpGte: OpLte,
	OpLte: OpGte,
}

func comparisonOperator(op string) (Operator, bool) {
	switch op {
	case "==":
		return OpEq, true
	case "!=":
		return OpNe, true
	case ">":
		return OpGt, true
	case "<":
		return OpLt, true
	case ">=":
		return OpGte, true
	case "<=":
		return OpLte, true
	case "contains":
		return OpContains, true
	default:
		return "", false
	}
}

func compileNode(schema *Schema, node ast.Node) (*Filter, error) {
	binary, ok := node.(*ast.BinaryNode)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a comparison", ErrNotAnExpression, node.String())
	}

	switch binary.Operator {
	case "and", "&&", "or", "||":
		left, err := compileNode(schema, binary.Left)
		if err != nil {
			return nil, err
		}

		right, err := compileNode(schema, binary.Right)
		if err != nil {
			return nil, err
		}

		if binary.Operator == "or" || binary.Operator == "||" {
			return left.Or(right), nil
		}

		return left.And(right), nil
	}

	op, ok := comparisonOperator(binary.Operator)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperator, binary.Operator)
	}

	if ident, isIdent := binary.Left.(*ast.IdentifierNode); isIdent {
		value, err := literal(binary.Right)
		if err != nil {
			return nil, err
		}

		return schema.Field(ident.Value).compare(op, value), nil
	}

	if ident, isIdent := binary.Right.(*ast.IdentifierNode); isIdent {
		flipped, canFlip := flippedOperators[op]
		if !canFlip {
			return nil, fmt.Errorf("%w: literal on the left of %q", ErrUnsupportedOperator, binary.Operator)
		}

		value, err := literal(binary.Left)
		if err != nil {
			return nil, err
		}

		return schema.Field(ident.Value).compare(flipped, value), nil
	}

	return nil, fmt.Errorf("%w: %q compares no attribute", ErrNotAnExpression, binary.String())
}

func literal(node ast.Node) (interface{}, error) {
	switch n := node.(type) {
	case *ast.StringNode:
		return n.Value, nil
	case *ast.IntegerNode:
		return n.Value, nil
	case *ast.FloatNode:
		return n.Value, nil
	case *ast.BoolNode:
		return n.Value, nil
	case *ast.NilNode:
		return nil, nil
	case *ast.UnaryNode:
		if n.Operator == "-" {
			value, err := literal(n.Node)
			if err != nil {
				return nil, err
			}

			switch v := value.(type) {
			case int:
				return -v, nil
			case float64:
				return -v, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %q is not a literal", ErrNotAnExpression, node.String())
}
