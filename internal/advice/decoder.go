package advice

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
)

var errTrailingData = errors.New("trailing data after payload")

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

var quoteReplacer = strings.NewReplacer(
	"```json", "",
	fence, "",
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
)

// Decode strictly decodes a candidate payload after light cleanup: curly
// quotes become ASCII, residual fences and trailing commas are removed. A
// payload encoded twice (a JSON string holding an object) is decoded once
// more. Anything that is not an object in the end is reported absent.
func Decode(candidate string) (map[string]any, bool) {
	cleaned := strings.TrimSpace(quoteReplacer.Replace(candidate))
	if cleaned == "" {
		return nil, false
	}
	cleaned = trailingCommaRe.ReplaceAllString(cleaned, "$1")

	value, err := decodeJSON(cleaned)
	if err != nil {
		return nil, false
	}

	if inner, ok := value.(string); ok {
		value, err = decodeJSON(inner)
		if err != nil {
			return nil, false
		}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}

	return obj, true
}

// decodeJSON keeps numbers as json.Number so they stringify as written.
// Data left after the first value is a failure, as with json.Unmarshal.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	return value, nil
}
