package dto

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
)

// Value is a submitted field. In JSON it may be a string or a bare number, so
// {"shares": 5} and {"shares": "5"} bind the same way.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*v = Value(n.String())
	}
	return nil
}

func (v Value) String() string {
	return strings.TrimSpace(string(v))
}

// FormBinder is implemented by requests that can also be read from an
// urlencoded form.
type FormBinder interface {
	BindForm(form url.Values)
}
