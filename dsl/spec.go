package dsl

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Spec is the declarative form of a set of contracts and the file
// description rooted at one of them.
type Spec struct {
	// Root is the name of the root contract.
	Root string `json:"root" yaml:"root"`
	// Element overrides the expected root element name.
	Element string `json:"element,omitempty" yaml:"element,omitempty"`
	// Namespaces lists accepted root namespaces; empty accepts any.
	Namespaces []string `json:"namespaces,omitempty" yaml:"namespaces,omitempty"`
	// NamespaceKeys maps namespace keys to their baseline allow-lists.
	NamespaceKeys map[string][]string `json:"namespaceKeys,omitempty" yaml:"namespaceKeys,omitempty"`
	// Naming is "hyphen" (default) or "camel".
	Naming    string         `json:"naming,omitempty" yaml:"naming,omitempty"`
	Contracts []ContractSpec `json:"contracts" yaml:"contracts"`
}

// ContractSpec declares one contract.
type ContractSpec struct {
	Name string `json:"name" yaml:"name"`
	// Element is the default element name; it defaults to Name.
	Element string     `json:"element,omitempty" yaml:"element,omitempty"`
	NS      string     `json:"ns,omitempty" yaml:"ns,omitempty"`
	Slots   []SlotSpec `json:"slots" yaml:"slots"`
}

// SlotSpec declares one slot of a contract.
type SlotSpec struct {
	Field string `json:"field" yaml:"field"`
	// Kind is one of leaf, attribute, text, child, collection, values.
	Kind string `json:"kind" yaml:"kind"`
	// Name overrides the XML name derived from Field.
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	NS        string `json:"ns,omitempty" yaml:"ns,omitempty"`
	Contract  string `json:"contract,omitempty" yaml:"contract,omitempty"`
	Converter string `json:"converter,omitempty" yaml:"converter,omitempty"`
	Ref       string `json:"ref,omitempty" yaml:"ref,omitempty"`
	NameValue bool   `json:"namevalue,omitempty" yaml:"namevalue,omitempty"`
	Index     int    `json:"index,omitempty" yaml:"index,omitempty"`
}

// LoadYAML decodes a YAML spec. Unknown keys are rejected.
func LoadYAML(b []byte) (*Spec, error) {
	var s Spec
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("dsl: decode yaml: %w", err)
	}
	return &s, nil
}

// LoadJSON decodes a JSON spec. Unknown keys are rejected.
func LoadJSON(b []byte) (*Spec, error) {
	var s Spec
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("dsl: decode json: %w", err)
	}
	return &s, nil
}

// LoadFile reads a spec, choosing the format by extension: .json is JSON,
// anything else YAML.
func LoadFile(path string) (*Spec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dsl: read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(b)
	}
	return LoadYAML(b)
}
