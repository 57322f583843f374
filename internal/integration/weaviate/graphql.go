package weaviate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/knowledge"
)

// buildGetQuery renders a nearVector Get query for class returning the
// given properties.
func buildGetQuery(class string, properties []string, req knowledge.SearchRequest) string {
	var args []string
	if len(req.Vector) > 0 {
		args = append(args, "nearVector: {vector: "+renderVector(req.Vector)+"}")
	}
	if req.Filter != nil {
		args = append(args, "where: "+renderFilter(*req.Filter))
	}
	if req.Limit > 0 {
		args = append(args, "limit: "+strconv.Itoa(req.Limit))
	}

	var b strings.Builder
	b.WriteString("{ Get { ")
	b.WriteString(class)
	if len(args) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(args, ", "))
		b.WriteString(")")
	}
	b.WriteString(" { ")
	b.WriteString(strings.Join(properties, " "))
	if req.WithDistance {
		b.WriteString(" _additional { distance }")
	}
	b.WriteString(" } } }")

	return b.String()
}

func renderVector(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// renderFilter renders a where filter. Text values use valueText; the
// ContainsAny operator takes a list.
func renderFilter(f entity.Filter) string {
	switch f.Operator {
	case entity.FilterAnd, entity.FilterOr:
		operands := make([]string, len(f.Operands))
		for i, op := range f.Operands {
			operands[i] = renderFilter(op)
		}
		return fmt.Sprintf("{operator: %s, operands: [%s]}", f.Operator, strings.Join(operands, ", "))
	case entity.FilterContainsAny:
		values := make([]string, len(f.Values))
		for i, v := range f.Values {
			values[i] = quote(v)
		}
		return fmt.Sprintf("{path: [%s], operator: ContainsAny, valueText: [%s]}", quote(f.Property), strings.Join(values, ", "))
	default:
		return fmt.Sprintf("{path: [%s], operator: Equal, valueText: %s}", quote(f.Property), quote(f.Value))
	}
}

// quote renders s as a GraphQL string literal; GraphQL and JSON share
// escaping rules for the characters we emit.
func quote(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(data)
}
