package linode

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fivetwenty-io/linode-client/internal/constants"
)

// Operator is a comparison in the filter wire format. OpEq has no token of
// its own: equality is written as {field: value}.
type Operator string

// Supported comparison operators.
const (
	OpEq       Operator = ""
	OpNe       Operator = "+ne"
	OpContains Operator = "+contains"
	OpGt       Operator = "+gt"
	OpLt       Operator = "+lt"
	OpGte      Operator = "+gte"
	OpLte      Operator = "+lte"
)

// Filter wire keys.
const (
	keyAnd     = "+and"
	keyOr      = "+or"
	keyOrderBy = "+order_by"
	keyOrder   = "+order"
	keyLimit   = "+limit"
)

type filterKind int

const (
	kindEmpty filterKind = iota
	kindCompare
	kindAnd
	kindOr
)

// Filter is an immutable filter expression. Every builder method returns a
// new value; the receiver is never modified. A Filter built from an invalid
// field carries the error and refuses to serialize.
type Filter struct {
	kind     filterKind
	field    string
	op       Operator
	value    interface{}
	children []*Filter

	orderBy  string
	desc     bool
	hasLimit bool
	limit    int

	schema *Schema
	err    error
}

// FilterField is a filterable attribute of a schema, the starting point of
// a comparison.
type FilterField struct {
	schema *Schema
	name   string
	err    error
}

// Field returns the filter field for name. Using a field that is not
// declared filterable yields filters that fail with ErrFieldNotFilterable.
func (s *Schema) Field(name string) FilterField {
	field := FilterField{schema: s, name: name}

	prop, ok := s.Property(name)
	if !ok || !prop.Filterable {
		field.err = fmt.Errorf("%w: %s.%s", ErrFieldNotFilterable, s.Name, name)
	}

	return field
}

// Name returns the attribute name.
func (f FilterField) Name() string {
	return f.name
}

func (f FilterField) compare(op Operator, value interface{}) *Filter {
	return &Filter{
		kind:   kindCompare,
		field:  f.name,
		op:     op,
		value:  filterValue(value),
		schema: f.schema,
		err:    f.err,
	}
}

// Eq matches attributes equal to value.
func (f FilterField) Eq(value interface{}) *Filter { return f.compare(OpEq, value) }

// Ne matches attributes not equal to value.
func (f FilterField) Ne(value interface{}) *Filter { return f.compare(OpNe, value) }

// Contains matches attributes containing value.
func (f FilterField) Contains(value interface{}) *Filter { return f.compare(OpContains, value) }

// Gt matches attributes greater than value.
func (f FilterField) Gt(value interface{}) *Filter { return f.compare(OpGt, value) }

// Lt matches attributes less than value.
func (f FilterField) Lt(value interface{}) *Filter { return f.compare(OpLt, value) }

// Gte matches attributes greater than or equal to value.
func (f FilterField) Gte(value interface{}) *Filter { return f.compare(OpGte, value) }

// Lte matches attributes less than or equal to value.
func (f FilterField) Lte(value interface{}) *Filter { return f.compare(OpLte, value) }

// Compare builds a comparison from an operator value.
func (f FilterField) Compare(op Operator, value interface{}) (*Filter, error) {
	switch op {
	case OpEq, OpNe, OpContains, OpGt, OpLt, OpGte, OpLte:
		return f.compare(op, value), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
}

// filterValue turns resources into their identifier and times into the
// API's timestamp format.
func filterValue(value interface{}) interface{} {
	switch v := value.(type) {
	case interface{ ID() interface{} }:
		return v.ID()
	case time.Time:
		return v.UTC().Format(constants.DatetimeLayout)
	default:
		return value
	}
}

// OrderBy returns a modifier-only filter ordering results by field. Combine
// it with comparisons through And or pass it to List next to them.
func (s *Schema) OrderBy(field string, desc bool) (*Filter, error) {
	return (&Filter{schema: s}).OrderBy(field, desc)
}

// Limit returns a modifier-only filter capping the number of results.
func Limit(n int) (*Filter, error) {
	return (&Filter{}).Limit(n)
}

// Err returns the error recorded while building the filter.
func (f *Filter) Err() error {
	if f == nil {
		return nil
	}

	return f.err
}

// IsEmpty reports whether the filter has neither a condition nor modifiers.
func (f *Filter) IsEmpty() bool {
	return f == nil || (f.kind == kindEmpty && f.orderBy == "" && !f.hasLimit)
}

func (f *Filter) clone() *Filter {
	out := *f
	out.children = append([]*Filter(nil), f.children...)

	return &out
}

// OrderBy sets the ordering field. It may be applied once per filter and
// the field must be filterable.
func (f *Filter) OrderBy(field string, desc bool) (*Filter, error) {
	if f == nil {
		return nil, ErrNotAnExpression
	}

	if f.orderBy != "" {
		return nil, ErrOrderByAlreadySet
	}

	if f.schema == nil {
		return nil, fmt.Errorf("%w: %s has no resource type to check against", ErrFieldNotFilterable, field)
	}

	err := f.schema.checkOrderBy(field)
	if err != nil {
		return nil, err
	}

	out := f.clone()
	out.orderBy = field
	out.desc = desc

	return out, nil
}

func (s *Schema) checkOrderBy(field string) error {
	prop, ok := s.Property(field)
	if !ok || !prop.Filterable {
		return fmt.Errorf("%w: %s.%s", ErrFieldNotFilterable, s.Name, field)
	}

	return nil
}

// Limit caps the number of results. It may be applied once per filter.
func (f *Filter) Limit(n int) (*Filter, error) {
	if f == nil {
		return nil, ErrNotAnExpression
	}

	if f.hasLimit {
		return nil, ErrLimitAlreadySet
	}

	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	out := f.clone()
	out.hasLimit = true
	out.limit = n

	return out, nil
}

// And combines the receiver with other filters. Conjunctions fold flat:
// ANDing into an existing +and list appends to it.
func (f *Filter) And(others ...*Filter) *Filter {
	return combine(kindAnd, append([]*Filter{f}, others...))
}

// Or combines the receiver with other filters, folding flat like And.
func (f *Filter) Or(others ...*Filter) *Filter {
	return combine(kindOr, append([]*Filter{f}, others...))
}

// And combines filters with a conjunction.
func And(filters ...*Filter) *Filter {
	return combine(kindAnd, filters)
}

// Or combines filters with a disjunction.
func Or(filters ...*Filter) *Filter {
	return combine(kindOr, filters)
}

// combine folds operands into one expression. Modifier-only operands
// contribute their order/limit to the result instead of a condition;
// applying a modifier twice is a usage error.
func combine(kind filterKind, operands []*Filter) *Filter {
	out := &Filter{}

	var conditions []*Filter

	for _, operand := range operands {
		if operand == nil {
			return &Filter{err: ErrNotAnExpression}
		}

		if operand.err != nil {
			return &Filter{err: operand.err}
		}

		switch {
		case operand.schema == nil:
		case out.schema == nil:
			out.schema = operand.schema
		case out.schema != operand.schema:
			return &Filter{err: fmt.Errorf("%w: %s and %s", ErrMixedSchemas, out.schema.Name, operand.schema.Name)}
		}

		if operand.orderBy != "" {
			if out.orderBy != "" {
				return &Filter{err: ErrOrderByAlreadySet}
			}

			out.orderBy, out.desc = operand.orderBy, operand.desc
		}

		if operand.hasLimit {
			if out.hasLimit {
				return &Filter{err: ErrLimitAlreadySet}
			}

			out.hasLimit, out.limit = true, operand.limit
		}

		switch {
		case operand.kind == kindEmpty:
		case operand.kind == kind:
			conditions = append(conditions, operand.children...)
		default:
			condition := operand.clone()
			condition.orderBy, condition.desc, condition.hasLimit, condition.limit = "", false, false, 0
			conditions = append(conditions, condition)
		}
	}

	if out.orderBy != "" {
		if out.schema == nil {
			return &Filter{err: fmt.Errorf("%w: %s has no resource type to check against", ErrFieldNotFilterable, out.orderBy)}
		}

		err := out.schema.checkOrderBy(out.orderBy)
		if err != nil {
			return &Filter{err: err}
		}
	}

	switch len(conditions) {
	case 0:
		out.kind = kindEmpty
	case 1:
		single := conditions[0].clone()
		single.orderBy, single.desc = out.orderBy, out.desc
		single.hasLimit, single.limit = out.hasLimit, out.limit
		single.schema = out.schema

		return single
	default:
		out.kind = kind
		out.children = conditions
	}

	return out
}

// Map returns the wire representation of the filter.
func (f *Filter) Map() (map[string]interface{}, error) {
	if f == nil {
		return map[string]interface{}{}, nil
	}

	if f.err != nil {
		return nil, f.err
	}

	out := f.condition()

	if f.orderBy != "" {
		out[keyOrderBy] = f.orderBy
		out[keyOrder] = "asc"

		if f.desc {
			out[keyOrder] = "desc"
		}
	}

	if f.hasLimit {
		out[keyLimit] = f.limit
	}

	return out, nil
}

func (f *Filter) condition() map[string]interface{} {
	switch f.kind {
	case kindCompare:
		if f.op == OpEq {
			return map[string]interface{}{f.field: f.value}
		}

		return map[string]interface{}{f.field: map[string]interface{}{string(f.op): f.value}}
	case kindAnd, kindOr:
		key := keyAnd
		if f.kind == kindOr {
			key = keyOr
		}

		items := make([]interface{}, 0, len(f.children))
		for _, child := range f.children {
			items = append(items, child.condition())
		}

		return map[string]interface{}{key: items}
	default:
		return map[string]interface{}{}
	}
}

// MarshalJSON implements json.Marshaler.
func (f *Filter) MarshalJSON() ([]byte, error) {
	wire, err := f.Map()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encoding filter: %w", err)
	}

	return data, nil
}

// String returns the JSON form, or the build error.
func (f *Filter) String() string {
	data, err := f.MarshalJSON()
	if err != nil {
		return "invalid filter: " + err.Error()
	}

	return string(data)
}
