package advice

import (
	"encoding/json"
	"fmt"
	"strings"
)

const bulletChars = "-• "

// ToStringList coerces a decoded field into an ordered list of non-empty
// strings. Lists keep their order, a bulleted or multi-line string is split
// into lines, a plain string becomes one item, anything else is empty.
// The result is never nil and ToStringList(ToStringList(v)) == ToStringList(v).
func ToStringList(value any) []string {
	out := []string{}

	switch v := value.(type) {
	case nil:
		return out
	case []string:
		for _, item := range v {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range v {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return out
		}
		if !strings.Contains(s, "\n") && !strings.HasPrefix(s, "-") && !strings.HasPrefix(s, "•") {
			return append(out, s)
		}
		for _, line := range strings.Split(s, "\n") {
			line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), bulletChars))
			if line != "" {
				out = append(out, line)
			}
		}
	}

	return out
}

// stringify renders a decoded value; nested objects and arrays stay JSON.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
