package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rpbridge/rpbridge-go/pkg/native"
)

// RawListenerFile is the root of listeners.yaml.
type RawListenerFile struct {
	Package   string           `yaml:"package"`
	Listeners []RawListenerDef `yaml:"listeners"`
}

// RawListenerDef describes one listener kind.
type RawListenerDef struct {
	Name        string        `yaml:"name"`        // Go name prefix, e.g. "RoundTrip"
	Kind        string        `yaml:"kind"`        // kind string, e.g. "round-trip"
	Description string        `yaml:"description"` // completes "<Name>Handler ..."
	Events      []RawEventDef `yaml:"events"`
}

// RawEventDef maps one tool event to a handler method.
type RawEventDef struct {
	Event       string `yaml:"event"`    // native.Event<Event> constant suffix
	Method      string `yaml:"method"`   // handler method name
	Elements    bool   `yaml:"elements"` // pass the affected element GUIDs
	Description string `yaml:"description"`
}

var (
	goIdent  = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
	kindName = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

// ParseListenerFile parses and validates listeners.yaml content.
func ParseListenerFile(data []byte) (*RawListenerFile, error) {
	var f RawListenerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadListenerFile reads and parses a listeners.yaml file.
func LoadListenerFile(path string) (*RawListenerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseListenerFile(data)
}

// Validate checks names and event references.
func (f *RawListenerFile) Validate() error {
	if f.Package == "" {
		return fmt.Errorf("package is required")
	}
	if len(f.Listeners) == 0 {
		return fmt.Errorf("no listeners defined")
	}

	names := make(map[string]bool)
	kinds := make(map[string]bool)
	for i, l := range f.Listeners {
		if !goIdent.MatchString(l.Name) {
			return fmt.Errorf("listener %d: invalid name %q", i, l.Name)
		}
		if !kindName.MatchString(l.Kind) {
			return fmt.Errorf("listener %s: invalid kind %q", l.Name, l.Kind)
		}
		if names[l.Name] {
			return fmt.Errorf("listener %s: duplicate name", l.Name)
		}
		if kinds[l.Kind] {
			return fmt.Errorf("listener %s: duplicate kind %q", l.Name, l.Kind)
		}
		names[l.Name] = true
		kinds[l.Kind] = true

		if len(l.Events) == 0 {
			return fmt.Errorf("listener %s: no events", l.Name)
		}
		methods := make(map[string]bool)
		for _, e := range l.Events {
			if _, err := native.ParseEventID(kebabCase(e.Event)); err != nil {
				return fmt.Errorf("listener %s: %w", l.Name, err)
			}
			if !goIdent.MatchString(e.Method) {
				return fmt.Errorf("listener %s: invalid method %q", l.Name, e.Method)
			}
			if methods[e.Method] {
				return fmt.Errorf("listener %s: duplicate method %s", l.Name, e.Method)
			}
			methods[e.Method] = true
		}
	}
	return nil
}

// kebabCase converts "AfterRoundTrip" to "after-round-trip".
func kebabCase(name string) string {
	return separated(name, '-')
}

// snakeCase converts "CodeGenerator" to "code_generator".
func snakeCase(name string) string {
	return separated(name, '_')
}

func separated(name string, sep byte) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(sep)
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
