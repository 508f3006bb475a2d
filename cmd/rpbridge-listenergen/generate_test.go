package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/imports"
)

func mustContain(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Errorf("output missing %q", want)
	}
}

func mustNotContain(t *testing.T, output, unwanted string) {
	t.Helper()
	if strings.Contains(output, unwanted) {
		t.Errorf("output should not contain %q", unwanted)
	}
}

func roundTripDef() RawListenerDef {
	return RawListenerDef{
		Name:        "RoundTrip",
		Kind:        "round-trip",
		Description: "receives round trip notifications",
		Events: []RawEventDef{
			{Event: "BeforeRoundTrip", Method: "BeforeRoundTrip", Elements: true, Description: "is called before"},
			{Event: "AfterRoundTrip", Method: "AfterRoundTrip", Elements: true, Description: "is called after"},
		},
	}
}

func codeGenDef() RawListenerDef {
	return RawListenerDef{
		Name:        "CodeGenerator",
		Kind:        "code-generator",
		Description: "receives code generation notifications",
		Events: []RawEventDef{
			{Event: "CodeGenerationCompleted", Method: "OnCodeGenerationCompleted", Description: "is called when done"},
		},
	}
}

func TestGenerateListenerHeader(t *testing.T) {
	output, err := GenerateListener("listener", roundTripDef())
	if err != nil {
		t.Fatalf("GenerateListener failed: %v", err)
	}
	mustContain(t, output, "// Code generated by rpbridge-listenergen. DO NOT EDIT.")
	mustContain(t, output, "package listener")
}

func TestGenerateListenerHandler(t *testing.T) {
	output, err := GenerateListener("listener", roundTripDef())
	if err != nil {
		t.Fatalf("GenerateListener failed: %v", err)
	}

	mustContain(t, output, "// RoundTripHandler receives round trip notifications.")
	mustContain(t, output, "type RoundTripHandler interface {")
	mustContain(t, output, "BeforeRoundTrip(ctx context.Context, elements []string) error")
	mustContain(t, output, "AfterRoundTrip(ctx context.Context, elements []string) error")
	mustContain(t, output, "type RoundTripHandlerFuncs struct {")
	mustContain(t, output, "AfterRoundTripFunc func(ctx context.Context, elements []string) error")
	mustContain(t, output, "return f.AfterRoundTripFunc(ctx, elements)")
}

func TestGenerateListenerWithoutElements(t *testing.T) {
	output, err := GenerateListener("listener", codeGenDef())
	if err != nil {
		t.Fatalf("GenerateListener failed: %v", err)
	}

	mustContain(t, output, "OnCodeGenerationCompleted(ctx context.Context) error")
	mustContain(t, output, "return l.handler.OnCodeGenerationCompleted(ctx)")
	mustNotContain(t, output, "elements []string")
	mustNotContain(t, output, "n.Elements")
}

func TestGenerateListenerDispatch(t *testing.T) {
	output, err := GenerateListener("listener", roundTripDef())
	if err != nil {
		t.Fatalf("GenerateListener failed: %v", err)
	}

	mustContain(t, output, "func NewRoundTripListener(nat native.Native[model.Application], h RoundTripHandler, opts ...Option) *RoundTripListener")
	mustContain(t, output, "subscription.New(nat, l, (*RoundTripListener).deliver, o.subscriptionOptions(KindRoundTrip)...)")
	mustContain(t, output, "case native.EventBeforeRoundTrip:")
	mustContain(t, output, "return l.handler.BeforeRoundTrip(ctx, n.Elements)")
	mustContain(t, output, "ErrUnexpectedEvent")
	mustContain(t, output, "var _ Listener = (*RoundTripListener)(nil)")
}

func TestGenerateListenerIsValidGo(t *testing.T) {
	for _, def := range []RawListenerDef{roundTripDef(), codeGenDef()} {
		output, err := GenerateListener("listener", def)
		if err != nil {
			t.Fatalf("GenerateListener(%s) failed: %v", def.Name, err)
		}
		if _, err := imports.Process("x_gen.go", []byte(output), nil); err != nil {
			t.Errorf("%s: generated code does not parse: %v", def.Name, err)
		}
	}
}

func TestGenerateKinds(t *testing.T) {
	f := &RawListenerFile{
		Package:   "listener",
		Listeners: []RawListenerDef{codeGenDef(), roundTripDef()},
	}
	output, err := GenerateKinds(f)
	if err != nil {
		t.Fatalf("GenerateKinds failed: %v", err)
	}

	mustContain(t, output, "type Kind uint8")
	mustContain(t, output, "KindUnknown Kind = iota")
	mustContain(t, output, `KindCodeGenerator: "code-generator",`)
	mustContain(t, output, `KindRoundTrip: "round-trip",`)
	mustContain(t, output, "func ParseKind(s string) (Kind, error)")
	mustContain(t, output, "case KindRoundTrip:")
	mustContain(t, output, "handler, ok := h.(RoundTripHandler)")
	mustContain(t, output, "return NewRoundTripListener(nat, handler, opts...), nil")
	mustContain(t, output, "%T does not implement RoundTripHandler")
	mustNotContain(t, output, "is not a RoundTripHandler")

	if _, err := imports.Process("kinds_gen.go", []byte(output), nil); err != nil {
		t.Errorf("generated code does not parse: %v", err)
	}
}

func TestListenerFileName(t *testing.T) {
	tests := map[string]string{
		"CodeGenerator": "code_generator_gen.go",
		"RoundTrip":     "round_trip_gen.go",
		"Import":        "import_gen.go",
	}
	for in, want := range tests {
		if got := listenerFileName(in); got != want {
			t.Errorf("listenerFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRunWritesFiles(t *testing.T) {
	out := t.TempDir()
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--input", filepath.Join("..", "..", "pkg", "listener", "listeners.yaml"), "--output", out})
	cmd.SetOut(&strings.Builder{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	for _, name := range []string{"kinds_gen.go", "code_generator_gen.go", "round_trip_gen.go", "import_gen.go"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}
