// Package node defines the node contract served to the pipeline editor and the
// built-in nodes.
package node

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Node is a unit of the pipeline graph: declared inputs, typed outputs and a
// single invocation entry point.
type Node interface {
	InputTypes() InputTypes
	ReturnTypes() []string
	ReturnNames() []string
	OutputTooltips() []string
	Function() string
	Category() string
	Description() string
	Invoke(ctx context.Context, args Args) ([]any, error)
}

type InputSpec struct {
	Name string
	// Type is the socket type; ignored when Choices is set.
	Type    string
	Choices []string
	// IsList marks sockets that accept a whole list rather than one element.
	IsList  bool
	Options map[string]any
}

type InputTypes struct {
	Required []InputSpec
	Optional []InputSpec
}

// MarshalJSON renders the editor format, keeping declaration order:
// {"required": {"name": [type-or-choices, {options}]}}.
func (in InputTypes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	sections := []struct {
		key   string
		specs []InputSpec
	}{
		{"required", in.Required},
		{"optional", in.Optional},
	}

	first := true
	for _, s := range sections {
		if s.key == "optional" && len(s.specs) == 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		buf.WriteString(strconv.Quote(s.key))
		buf.WriteString(":{")
		for i, spec := range s.specs {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeSpec(&buf, spec); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeSpec(buf *bytes.Buffer, spec InputSpec) error {
	name, err := json.Marshal(spec.Name)
	if err != nil {
		return err
	}

	var head any = spec.Type
	if spec.Choices != nil {
		head = spec.Choices
	}

	value := []any{head}
	if len(spec.Options) > 0 || spec.IsList {
		opts := make(map[string]any, len(spec.Options)+1)
		for k, v := range spec.Options {
			opts[k] = v
		}
		if spec.IsList {
			opts["is_list"] = true
		}
		value = append(value, opts)
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}

	buf.Write(name)
	buf.WriteByte(':')
	buf.Write(encoded)
	return nil
}

// ValueError is the single user-facing error a node reports.
type ValueError struct {
	Msg string
	Err error
}

func (e *ValueError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ValueError) Unwrap() error { return e.Err }

// Args are the values wired into a node's inputs, decoded from JSON with UseNumber.
type Args map[string]any

func (a Args) String(name string) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", errors.Errorf("missing input %q", name)
	}

	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("input %q: expected a string, got %T", name, v)
	}

	return s, nil
}

// Strings accepts a list of strings, or one multi-line string holding one
// element per non-blank line.
func (a Args) Strings(name string) ([]string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return nil, errors.Errorf("missing input %q", name)
	}

	switch t := v.(type) {
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Errorf("input %q[%d]: expected a string, got %T", name, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		var out []string
		for _, line := range strings.Split(t, "\n") {
			line = strings.TrimSuffix(line, "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			out = append(out, line)
		}
		return out, nil
	default:
		return nil, errors.Errorf("input %q: expected a list of strings, got %T", name, v)
	}
}

// Uint64 returns def when the input is absent.
func (a Args) Uint64(name string, def uint64) (uint64, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return def, nil
	}

	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		if t >= 0 {
			return uint64(t), nil
		}
	case int64:
		if t >= 0 {
			return uint64(t), nil
		}
	case float64:
		if t >= 0 && t == math.Trunc(t) && t < math.MaxUint64 {
			return uint64(t), nil
		}
	case json.Number:
		if n, err := strconv.ParseUint(t.String(), 10, 64); err == nil {
			return n, nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}

	return 0, errors.Errorf("input %q: expected an integer between 0 and %d, got %v", name, uint64(math.MaxUint64), v)
}
