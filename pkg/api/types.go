package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Int decodes a JSON number, a numeric string or null into an int.
// PHP backends often serialize integer columns as strings.
type Int int

func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*i = 0
			return nil
		}
		data = []byte(s)
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("api.Int: cannot decode %q", data)
	}
	*i = Int(n)
	return nil
}

// Envelope is the wrapper every POS API response shares.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// IsArray reports whether raw holds a JSON array.
func IsArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
