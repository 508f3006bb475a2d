package model

import (
	"errors"
	"sort"
	"sync"
)

// ErrPropertyNotFound is returned when a property key is not defined.
var ErrPropertyNotFound = errors.New("property not found")

// ErrApplicationUnavailable is returned when the tool is not running.
var ErrApplicationUnavailable = errors.New("application unavailable")

// Element is the base trait of every object in the tool's model.
type Element interface {
	// GUID returns the stable unique identifier of the element.
	GUID() string

	// Name returns the element name.
	Name() string

	// MetaClass returns the element kind, e.g. "Class" or "Project".
	MetaClass() string

	// PropertyValue returns the value of a property key such as
	// "CG.Class.Generate".
	PropertyValue(key string) (string, error)

	// SetPropertyValue overrides a property for this element.
	SetPropertyValue(key, value string) error
}

// Describable is implemented by elements that carry a description.
type Describable interface {
	Element
	Description() string
}

// Container is implemented by elements that own other elements.
type Container interface {
	Element
	Nested() []Element
}

// Unit is implemented by elements stored in their own file.
type Unit interface {
	Element
	Filename() string
	IsReadOnly() bool
}

// Project is the top-level unit of a model.
type Project interface {
	Container
	Unit
}

// Application is the running tool instance and the event source listeners
// connect to.
type Application interface {
	// ID identifies the tool instance.
	ID() string

	// Available reports whether the instance accepts new event registrations.
	Available() bool

	// ActiveProject returns the currently open project.
	ActiveProject() (Project, error)
}

// Walk calls fn for e and, depth first, for every element nested in it.
// Walking stops at the first error returned by fn.
func Walk(e Element, fn func(Element) error) error {
	if err := fn(e); err != nil {
		return err
	}
	c, ok := e.(Container)
	if !ok {
		return nil
	}
	for _, child := range c.Nested() {
		if err := Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the first element below root (inclusive) with the given GUID.
func Find(root Element, guid string) (Element, bool) {
	var found Element
	errStop := errors.New("stop")
	_ = Walk(root, func(e Element) error {
		if e.GUID() == guid {
			found = e
			return errStop
		}
		return nil
	})
	return found, found != nil
}

// Properties is a thread-safe property table for Element implementations.
// The zero value is ready to use.
type Properties struct {
	mu     sync.RWMutex
	values map[string]string
}

// Get returns the value for key.
func (p *Properties) Get(key string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[key]
	if !ok {
		return "", ErrPropertyNotFound
	}
	return v, nil
}

// Set stores value under key.
func (p *Properties) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.values == nil {
		p.values = make(map[string]string)
	}
	p.values[key] = value
}

// Keys returns all defined keys in sorted order.
func (p *Properties) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
