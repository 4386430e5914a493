package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type RawField struct {
	Key   string
	Value json.RawMessage
}

// RawObject is a JSON object whose members are kept verbatim and in document order.
type RawObject []RawField

// Get returns the last member named key, as encoding/json would.
func (o RawObject) Get(key string) (json.RawMessage, bool) {
	for i := len(o) - 1; i >= 0; i-- {
		if o[i].Key == key {
			return o[i].Value, true
		}
	}
	return nil, false
}

// StringField decodes the member as a Go string. ok is false when it is missing or not a JSON string.
func (o RawObject) StringField(key string) (string, bool) {
	raw, ok := o.Get(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (o *RawObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected a JSON object, got %s", bytes.TrimSpace(data))
	}

	fields := make(RawObject, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		fields = append(fields, RawField{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = fields
	return nil
}

func (o RawObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(field.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(field.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
