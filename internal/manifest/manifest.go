package manifest

import (
	"bytes"
	stderrors "errors"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/elements/internal/errors"
	"github.com/vango-dev/elements/pkg/definition"
	"github.com/vango-dev/elements/pkg/registry"
)

// Prototype faults.
const (
	PrototypeInvalid = "invalid"
	PrototypeThrows  = "throws"
)

// UpgradeFail makes the constructor raise when an element is upgraded.
const UpgradeFail = "fail"

// Entry is one definition in a manifest.
type Entry struct {
	// Name is the custom element name to define.
	Name string `yaml:"name"`

	// Constructor is the identity of the constructor. Entries sharing a
	// key share one constructor. Defaults to Name.
	Constructor string `yaml:"constructor,omitempty"`

	// Extends names the built-in element a customized built-in extends.
	Extends string `yaml:"extends,omitempty"`

	Callbacks          []string `yaml:"callbacks,omitempty"`
	FormAssociated     bool     `yaml:"formAssociated,omitempty"`
	FormCallbacks      []string `yaml:"formCallbacks,omitempty"`
	ObservedAttributes []string `yaml:"observedAttributes,omitempty"`
	DisabledFeatures   []string `yaml:"disabledFeatures,omitempty"`

	// Prototype injects a fault into the prototype property: "invalid"
	// makes it a string, "throws" makes reading it raise.
	Prototype string `yaml:"prototype,omitempty"`

	// Constructs set to false registers a plain function.
	Constructs *bool `yaml:"constructs,omitempty"`

	// Upgrade set to "fail" makes construction raise.
	Upgrade string `yaml:"upgrade,omitempty"`

	// Line and Column locate the entry in the manifest.
	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

// ConstructorKey returns the constructor identity of e.
func (e *Entry) ConstructorKey() string {
	if e.Constructor != "" {
		return e.Constructor
	}
	return e.Name
}

// DefineOptions returns the options passed to Define for e.
func (e *Entry) DefineOptions() registry.DefineOptions {
	if e.Extends == "" {
		return registry.DefineOptions{}
	}
	return registry.Extends(e.Extends)
}

// Manifest is a parsed list of definitions.
type Manifest struct {
	// Source names where the manifest was read from.
	Source string

	Entries []Entry

	data []byte
}

// Parse parses a YAML manifest. source is used in error locations.
func Parse(source string, data []byte) (*Manifest, error) {
	m := &Manifest{Source: source, data: data}

	var root yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		if stderrors.Is(err, io.EOF) {
			return m, nil
		}
		return nil, m.yamlError(err)
	}

	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind == yaml.MappingNode {
		// Accept {elements: [...]} as well as a bare list.
		for i := 0; i+1 < len(doc.Content); i += 2 {
			if doc.Content[i].Value == "elements" {
				doc = doc.Content[i+1]
				break
			}
		}
	}
	if doc.Kind != yaml.SequenceNode {
		return nil, m.errorAt("E042", doc.Line, doc.Column).
			WithDetail("a manifest is a list of definitions")
	}

	for _, item := range doc.Content {
		var e Entry
		if err := item.Decode(&e); err != nil {
			return nil, m.errorAt("E042", item.Line, item.Column).Wrap(err)
		}
		e.Line, e.Column = item.Line, item.Column
		if err := m.validate(&e); err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, e)
	}
	return m, nil
}

// Filter returns a manifest with the entries keep accepts. Error
// locations still refer to the original source.
func (m *Manifest) Filter(keep func(*Entry) bool) *Manifest {
	out := &Manifest{Source: m.Source, data: m.data}
	for i := range m.Entries {
		if keep(&m.Entries[i]) {
			out.Entries = append(out.Entries, m.Entries[i])
		}
	}
	return out
}

func (m *Manifest) validate(e *Entry) error {
	if strings.TrimSpace(e.Name) == "" {
		return m.errorAt("E041", e.Line, e.Column)
	}
	for _, cb := range e.Callbacks {
		if !slices.Contains(definition.LifecycleNames, definition.CallbackName(cb)) {
			return m.errorAt("E043", e.Line, e.Column).
				WithDetail(e.Name + ": " + cb)
		}
	}
	for _, cb := range e.FormCallbacks {
		if !slices.Contains(definition.FormNames, definition.CallbackName(cb)) {
			return m.errorAt("E043", e.Line, e.Column).
				WithDetail(e.Name + ": " + cb).
				WithSuggestion("Use one of formAssociatedCallback, formResetCallback, formDisabledCallback or formStateRestoreCallback.")
		}
	}
	switch e.Prototype {
	case "", PrototypeInvalid, PrototypeThrows:
	default:
		return m.errorAt("E042", e.Line, e.Column).
			WithDetail(e.Name + ": prototype must be invalid or throws")
	}
	switch e.Upgrade {
	case "", UpgradeFail:
	default:
		return m.errorAt("E042", e.Line, e.Column).
			WithDetail(e.Name + ": upgrade must be fail")
	}
	return nil
}

// Locate attaches the position of the entry named name to err.
func (m *Manifest) Locate(err *errors.Error, name string) *errors.Error {
	for i := range m.Entries {
		if m.Entries[i].Name == name {
			return err.WithSource(m.Source, m.data, m.Entries[i].Line, m.Entries[i].Column)
		}
	}
	return err
}

// Names returns the entry names in manifest order.
func (m *Manifest) Names() []string {
	out := make([]string, len(m.Entries))
	for i := range m.Entries {
		out[i] = m.Entries[i].Name
	}
	return out
}

func (m *Manifest) errorAt(code string, line, column int) *errors.Error {
	return errors.New(code).WithSource(m.Source, m.data, line, column)
}

func (m *Manifest) yamlError(err error) *errors.Error {
	e := errors.New("E040").Wrap(err)
	if line := yamlLine(err.Error()); line > 0 {
		e.WithSource(m.Source, m.data, line, 0)
	}
	return e
}

// yamlLine extracts the line number from a "yaml: line N: ..." message.
func yamlLine(msg string) int {
	const prefix = "yaml: line "
	i := strings.Index(msg, prefix)
	if i < 0 {
		return 0
	}
	n := 0
	for _, c := range msg[i+len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
