package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is an identifier issued by the parish backend. The backend emits ids either as JSON
// numbers or strings; both decode to the same canonical string so comparisons never depend
// on the wire representation.
type ID string

// String returns the canonical form.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool {
	return id == ""
}

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as JSON numbers so the backend receives the type it issued.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Flag is a boolean that tolerates the 0/1 and "true"/"false" encodings some backend routes use.
type Flag bool

// UnmarshalJSON decodes booleans, numbers and strings.
func (f *Flag) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(raw) {
	case "", "null", "0", "false", "no", "nao", "não":
		*f = false
	case "1", "true", "yes", "sim":
		*f = true
	default:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			*f = n != 0
			return nil
		}
		return fmt.Errorf("flag: unsupported value %s", string(data))
	}
	return nil
}

// Text is a string field the backend sometimes emits as a number (house numbers, postal codes).
type Text string

// UnmarshalJSON accepts strings, numbers and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	var id ID
	if err := id.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Text(id)
	return nil
}
