package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// OtherModelType is the catch-all category present in every classification.
const OtherModelType = "other"

// ErrModelTypes matches every failure to load the category pattern table.
var ErrModelTypes = errors.New("加载模型类型配置文件失败")

type ModelTypesError struct {
	Path string
	Err  error
}

func (e *ModelTypesError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrModelTypes.Error(), e.Path, e.Err)
}

func (e *ModelTypesError) Unwrap() error { return e.Err }

func (e *ModelTypesError) Is(target error) bool { return target == ErrModelTypes }

// ModelTypes is the category pattern table. Categories keep the order of the file.
type ModelTypes struct {
	names    []string
	patterns map[string][]string
}

func LoadModelTypes(path string) (*ModelTypes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ModelTypesError{Path: path, Err: errors.Wrap(err, "read")}
	}

	mt, err := ParseModelTypes(data)
	if err != nil {
		return nil, &ModelTypesError{Path: path, Err: err}
	}

	return mt, nil
}

// ParseModelTypes decodes a JSON object of string arrays, preserving key order.
// A repeated key keeps its first position and its last value.
func ParseModelTypes(data []byte) (*ModelTypes, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("模型类型配置文件格式错误: expected a JSON object")
	}

	mt := &ModelTypes{patterns: make(map[string][]string)}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "decode key")
		}
		name := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Wrapf(err, "decode category %q", name)
		}

		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '[' {
			return nil, errors.Errorf("模型类型配置文件格式错误: category %q is not an array", name)
		}

		var patterns []string
		if err := json.Unmarshal(raw, &patterns); err != nil {
			return nil, errors.Wrapf(err, "模型类型配置文件格式错误: category %q", name)
		}

		if _, seen := mt.patterns[name]; !seen {
			mt.names = append(mt.names, name)
		}
		mt.patterns[name] = patterns
	}

	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("模型类型配置文件格式错误: trailing data after object")
	}

	return mt, nil
}

// Names returns the categories in table order.
func (m *ModelTypes) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Choices returns the categories in table order with "other" appended when absent.
func (m *ModelTypes) Choices() []string {
	out := m.Names()
	if !m.Has(OtherModelType) {
		out = append(out, OtherModelType)
	}
	return out
}

func (m *ModelTypes) Patterns(name string) []string {
	return m.patterns[name]
}

func (m *ModelTypes) Has(name string) bool {
	_, ok := m.patterns[name]
	return ok
}

func (m *ModelTypes) Len() int {
	return len(m.names)
}

func (m *ModelTypes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range m.names {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}

		patterns := m.patterns[name]
		if patterns == nil {
			patterns = []string{}
		}

		val, err := json.Marshal(patterns)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
