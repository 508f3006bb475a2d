package main

import (
	"strings"
	"testing"
)

const validYAML = `
package: listener
listeners:
  - name: Import
    kind: import
    description: receives import notifications
    events:
      - event: AfterImport
        method: AfterImport
        elements: true
        description: is called after an import
`

func TestParseListenerFile(t *testing.T) {
	f, err := ParseListenerFile([]byte(validYAML))
	if err != nil {
		t.Fatalf("ParseListenerFile failed: %v", err)
	}
	if f.Package != "listener" {
		t.Errorf("Package = %q", f.Package)
	}
	if len(f.Listeners) != 1 {
		t.Fatalf("got %d listeners, want 1", len(f.Listeners))
	}
	l := f.Listeners[0]
	if l.Name != "Import" || l.Kind != "import" {
		t.Errorf("unexpected listener: %+v", l)
	}
	if len(l.Events) != 1 || !l.Events[0].Elements || l.Events[0].Method != "AfterImport" {
		t.Errorf("unexpected events: %+v", l.Events)
	}
}

func TestParseListenerFileErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no package", "listeners: []", "package is required"},
		{"no listeners", "package: listener", "no listeners"},
		{
			"bad name",
			"package: p\nlisteners:\n  - name: import\n    kind: import\n    events: [{event: AfterImport, method: AfterImport}]",
			"invalid name",
		},
		{
			"bad kind",
			"package: p\nlisteners:\n  - name: Import\n    kind: Import\n    events: [{event: AfterImport, method: AfterImport}]",
			"invalid kind",
		},
		{
			"unknown event",
			"package: p\nlisteners:\n  - name: Import\n    kind: import\n    events: [{event: AfterExport, method: AfterExport}]",
			"unknown event",
		},
		{
			"duplicate method",
			"package: p\nlisteners:\n  - name: Import\n    kind: import\n    events: [{event: AfterImport, method: A}, {event: AfterImport, method: A}]",
			"duplicate method",
		},
		{
			"duplicate kind",
			"package: p\nlisteners:\n  - name: A\n    kind: a\n    events: [{event: AfterImport, method: X}]\n  - name: B\n    kind: a\n    events: [{event: AfterImport, method: X}]",
			"duplicate kind",
		},
		{
			"no events",
			"package: p\nlisteners:\n  - name: Import\n    kind: import",
			"no events",
		},
		{"bad yaml", "package: [", "parsing YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseListenerFile([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestRepositoryDescriptorIsValid(t *testing.T) {
	f, err := LoadListenerFile("../../pkg/listener/listeners.yaml")
	if err != nil {
		t.Fatalf("LoadListenerFile failed: %v", err)
	}
	if len(f.Listeners) != 3 {
		t.Errorf("got %d listeners, want 3", len(f.Listeners))
	}
}

func TestKebabCase(t *testing.T) {
	tests := map[string]string{
		"AfterRoundTrip":          "after-round-trip",
		"CodeGenerationCompleted": "code-generation-completed",
		"AfterImport":             "after-import",
	}
	for in, want := range tests {
		if got := kebabCase(in); got != want {
			t.Errorf("kebabCase(%q) = %q, want %q", in, got, want)
		}
	}
}
