package entity

type FilterOperator string

const (
	FilterAnd         FilterOperator = "And"
	FilterOr          FilterOperator = "Or"
	FilterEqual       FilterOperator = "Equal"
	FilterContainsAny FilterOperator = "ContainsAny"
)

// Filter is a property predicate tree understood by the vector stores.
// Leaf nodes carry Property and a value, branch nodes carry Operands.
type Filter struct {
	Operator FilterOperator
	Property string
	Value    string
	Values   []string
	Operands []Filter
}

func PropertyEqual(property, value string) Filter {
	return Filter{Operator: FilterEqual, Property: property, Value: value}
}

func PropertyContainsAny(property string, values ...string) Filter {
	return Filter{Operator: FilterContainsAny, Property: property, Values: values}
}

func AnyOf(operands ...Filter) Filter {
	return Filter{Operator: FilterOr, Operands: operands}
}

func AllOf(operands ...Filter) Filter {
	return Filter{Operator: FilterAnd, Operands: operands}
}
