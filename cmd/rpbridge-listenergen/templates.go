package main

import (
	"fmt"
	"strings"
	"text/template"
)

var funcMap = template.FuncMap{
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	"params": func(e RawEventDef) string {
		if e.Elements {
			return "ctx context.Context, elements []string"
		}
		return "ctx context.Context"
	},
	"args": func(e RawEventDef, elements string) string {
		if e.Elements {
			return "ctx, " + elements
		}
		return "ctx"
	},
}

var templates = template.Must(template.New("").Funcs(funcMap).Parse(
	listenerTmpl + kindsTmpl,
))

func renderTemplate(b *strings.Builder, name string, data any) error {
	if err := templates.ExecuteTemplate(b, name, data); err != nil {
		return fmt.Errorf("template %s: %w", name, err)
	}
	return nil
}

type listenerData struct {
	Package string
	RawListenerDef
}

const header = `// Code generated by rpbridge-listenergen. DO NOT EDIT.

package {{.Package}}
`

const listenerTmpl = `{{define "listener"}}` + header + `
import (
	"context"
	"fmt"

	"github.com/rpbridge/rpbridge-go/pkg/model"
	"github.com/rpbridge/rpbridge-go/pkg/native"
	"github.com/rpbridge/rpbridge-go/pkg/subscription"
)

// {{.Name}}Handler {{.Description}}.
type {{.Name}}Handler interface {
{{- range .Events}}
	// {{.Method}} {{.Description}}.
	{{.Method}}({{params .}}) error
{{- end}}
}

// {{.Name}}HandlerFuncs adapts functions to {{.Name}}Handler. Nil fields are no-ops.
type {{.Name}}HandlerFuncs struct {
{{- range .Events}}
	{{.Method}}Func func({{params .}}) error
{{- end}}
}
{{range .Events}}
// {{.Method}} calls {{.Method}}Func if set.
func (f {{$.Name}}HandlerFuncs) {{.Method}}({{params .}}) error {
	if f.{{.Method}}Func == nil {
		return nil
	}
	return f.{{.Method}}Func({{args . "elements"}})
}
{{end}}
// {{.Name}}Listener dispatches {{.Kind}} events to a {{.Name}}Handler.
type {{.Name}}Listener struct {
	base
	handler {{.Name}}Handler
}

// New{{.Name}}Listener creates a disconnected listener that dispatches to h.
func New{{.Name}}Listener(nat native.Native[model.Application], h {{.Name}}Handler, opts ...Option) *{{.Name}}Listener {
	l := &{{.Name}}Listener{handler: h}
	o := buildOptions(opts)
	sub := subscription.New(nat, l, (*{{.Name}}Listener).deliver, o.subscriptionOptions(Kind{{.Name}})...)
	l.base = newBase(Kind{{.Name}}, o, sub)
	return l
}

// Events returns the tool events the listener dispatches.
func (l *{{.Name}}Listener) Events() []native.EventID {
	return []native.EventID{
{{- range .Events}}
		native.Event{{.Event}},
{{- end}}
	}
}

func (l *{{.Name}}Listener) deliver(ctx context.Context, n native.Notification) error {
	switch n.Event {
{{- range .Events}}
	case native.Event{{.Event}}:
		return l.handler.{{.Method}}({{args . "n.Elements"}})
{{- end}}
	default:
		return fmt.Errorf("%w: %s on %s listener", ErrUnexpectedEvent, n.Event, Kind{{.Name}})
	}
}

var _ Listener = (*{{.Name}}Listener)(nil)
{{end}}`

const kindsTmpl = `{{define "kinds"}}` + header + `
import (
	"fmt"
	"strings"

	"github.com/rpbridge/rpbridge-go/pkg/model"
	"github.com/rpbridge/rpbridge-go/pkg/native"
)

// Kind identifies a listener kind.
type Kind uint8

const (
	// KindUnknown is not a valid kind.
	KindUnknown Kind = iota
{{- range .Listeners}}
	// Kind{{.Name}} {{.Description}}.
	Kind{{.Name}}
{{- end}}
)

var kindNames = map[Kind]string{
{{- range .Listeners}}
	Kind{{.Name}}: {{quote .Kind}},
{{- end}}
}

// String returns the kind name, e.g. {{quote (index .Listeners 0).Kind}}.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds returns all listener kinds.
func Kinds() []Kind {
	return []Kind{
{{- range .Listeners}}
		Kind{{.Name}},
{{- end}}
	}
}

// ParseKind parses a kind name as returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for k, name := range kindNames {
		if name == norm {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// New creates a listener of the given kind. h must implement the kind's
// handler interface.
func New(kind Kind, nat native.Native[model.Application], h any, opts ...Option) (Listener, error) {
	switch kind {
{{- range .Listeners}}
	case Kind{{.Name}}:
		handler, ok := h.({{.Name}}Handler)
		if !ok {
			return nil, fmt.Errorf("%w: %T does not implement {{.Name}}Handler", ErrHandlerMismatch, h)
		}
		return New{{.Name}}Listener(nat, handler, opts...), nil
{{- end}}
	default:
		return nil, fmt.Errorf("%w %d", ErrUnknownKind, uint8(kind))
	}
}
{{end}}`
