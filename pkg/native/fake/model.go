package fake

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rpbridge/rpbridge-go/pkg/model"
)

// ErrNoProject is returned by ActiveProject when no project is open.
var ErrNoProject = errors.New("no active project")

// Element is an in-memory model element.
type Element struct {
	guid        string
	name        string
	metaClass   string
	description string
	props       model.Properties

	mu       sync.RWMutex
	children []model.Element
}

// NewElement creates an element.
func NewElement(guid, name, metaClass string) *Element {
	return &Element{guid: guid, name: name, metaClass: metaClass}
}

func (e *Element) GUID() string      { return e.guid }
func (e *Element) Name() string      { return e.name }
func (e *Element) MetaClass() string { return e.metaClass }

// Description returns the description set with Describe.
func (e *Element) Description() string { return e.description }

// Describe sets the description and returns e.
func (e *Element) Describe(text string) *Element {
	e.description = text
	return e
}

// PropertyValue returns a property set with SetPropertyValue.
func (e *Element) PropertyValue(key string) (string, error) {
	return e.props.Get(key)
}

// SetPropertyValue sets a property.
func (e *Element) SetPropertyValue(key, value string) error {
	e.props.Set(key, value)
	return nil
}

// Nested returns the children added with Add.
func (e *Element) Nested() []model.Element {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]model.Element(nil), e.children...)
}

// Add appends children and returns e.
func (e *Element) Add(children ...model.Element) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.children = append(e.children, children...)
	return e
}

// Project is an in-memory project.
type Project struct {
	*Element
	filename string
	readOnly atomic.Bool
}

// NewProject creates a writable project stored in filename.
func NewProject(guid, name, filename string) *Project {
	return &Project{
		Element:  NewElement(guid, name, "Project"),
		filename: filename,
	}
}

func (p *Project) Filename() string { return p.filename }
func (p *Project) IsReadOnly() bool { return p.readOnly.Load() }

// SetReadOnly marks the project file read-only.
func (p *Project) SetReadOnly(ro bool) { p.readOnly.Store(ro) }

// SetPropertyValue fails on a read-only project.
func (p *Project) SetPropertyValue(key, value string) error {
	if p.IsReadOnly() {
		return errors.New("project is read-only")
	}
	return p.Element.SetPropertyValue(key, value)
}

// Application is an in-memory tool instance. New applications are available.
type Application struct {
	id        string
	available atomic.Bool

	mu      sync.RWMutex
	project *Project
}

// NewApplication creates an available application.
func NewApplication(id string) *Application {
	a := &Application{id: id}
	a.available.Store(true)
	return a
}

func (a *Application) ID() string      { return a.id }
func (a *Application) Available() bool { return a.available.Load() }

// SetAvailable simulates the tool starting or shutting down.
func (a *Application) SetAvailable(v bool) { a.available.Store(v) }

// Open makes p the active project.
func (a *Application) Open(p *Project) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.project = p
}

// ActiveProject returns the open project.
func (a *Application) ActiveProject() (model.Project, error) {
	if !a.Available() {
		return nil, model.ErrApplicationUnavailable
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.project == nil {
		return nil, ErrNoProject
	}
	return a.project, nil
}

// Compile-time interface satisfaction checks.
var (
	_ model.Describable = (*Element)(nil)
	_ model.Container   = (*Element)(nil)
	_ model.Project     = (*Project)(nil)
	_ model.Application = (*Application)(nil)
)
