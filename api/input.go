package api

import (
	"encoding/json"
	"strconv"
)

// numericInput accepts a JSON number or a JSON string and keeps the raw
// text, so parsing and its error reporting stay in the engine.
type numericInput string

func (n *numericInput) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numericInput(s)
		return nil
	}
	*n = numericInput(b)
	return nil
}

func (n numericInput) String() string {
	return string(n)
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
