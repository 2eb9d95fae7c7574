package schema

import (
	"encoding/json"
	"strings"

	"go.yaml.in/yaml/v3"
)

// errorPrefix marks a failed value in serialized reports
const errorPrefix = "Error: "

// Result holds either a successfully read value or the error that replaced it
type Result[T any] struct {
	Value T
	Err   string
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail records err in place of a value
func Fail[T any](err error) Result[T] {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Result[T]{Err: msg}
}

// Capture turns a (value, error) pair into a Result
func Capture[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

// IsErr reports whether the value was replaced by an error
func (r Result[T]) IsErr() bool {
	return r.Err != ""
}

// Get returns the value and whether it is valid
func (r Result[T]) Get() (T, bool) {
	return r.Value, !r.IsErr()
}

// String renders the value, or the error marker
func (r Result[T]) String() string {
	if r.IsErr() {
		return errorPrefix + r.Err
	}
	b, err := json.Marshal(r.Value)
	if err != nil {
		return errorPrefix + err.Error()
	}
	return string(b)
}

// MarshalJSON writes the bare value, or "Error: <msg>" on failure
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.IsErr() {
		return json.Marshal(errorPrefix + r.Err)
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON reads a value; a string where T is not a string is an error marker
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			*r = Ok(v)
			return nil
		}
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Result[T]{Err: strings.TrimPrefix(s, errorPrefix)}
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Ok(v)
	return nil
}

// MarshalYAML mirrors MarshalJSON
func (r Result[T]) MarshalYAML() (interface{}, error) {
	if r.IsErr() {
		return errorPrefix + r.Err, nil
	}
	return r.Value, nil
}

// UnmarshalYAML mirrors UnmarshalJSON
func (r *Result[T]) UnmarshalYAML(node *yaml.Node) error {
	var v T
	err := node.Decode(&v)
	if err == nil {
		*r = Ok(v)
		return nil
	}
	if node.Kind != yaml.ScalarNode {
		return err
	}
	*r = Result[T]{Err: strings.TrimPrefix(node.Value, errorPrefix)}
	return nil
}
