package encoding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec converts structured documents to and from bytes.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// ErrTrailingData is returned when a document is followed by more content.
var ErrTrailingData = errors.New("trailing data after document")

// JSON encodes documents as JSON. Numbers in untyped positions decode as
// json.Number so integers survive unchanged.
type JSON struct {
	// Indent is the per-level indent; empty writes compact JSON.
	Indent string
}

func (JSON) Name() string { return "json" }

func (c JSON) Marshal(v any) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if c.Indent != "" {
		data, err = json.MarshalIndent(v, "", c.Indent)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (JSON) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}

// YAML encodes documents as YAML.
type YAML struct {
	// Indent is the number of spaces per level; zero means 2.
	Indent int
}

func (YAML) Name() string { return "yaml" }

func (c YAML) Marshal(v any) ([]byte, error) {
	indent := c.Indent
	if indent <= 0 {
		indent = 2
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (YAML) Unmarshal(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}

// ForPath picks a codec from the file extension: .yaml and .yml use YAML,
// everything else uses JSON.
func ForPath(path string, indent int) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML{Indent: indent}
	default:
		return JSON{Indent: strings.Repeat(" ", max(indent, 0))}
	}
}

// ByName returns the codec registered under name.
func ByName(name string, indent int) (Codec, error) {
	switch strings.ToLower(name) {
	case "json":
		return JSON{Indent: strings.Repeat(" ", max(indent, 0))}, nil
	case "yaml", "yml":
		return YAML{Indent: indent}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
