package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testElement struct {
	guid     string
	name     string
	children []Element
	props    Properties
}

func (e *testElement) GUID() string      { return e.guid }
func (e *testElement) Name() string      { return e.name }
func (e *testElement) MetaClass() string { return "Package" }
func (e *testElement) Nested() []Element { return e.children }

func (e *testElement) PropertyValue(key string) (string, error) {
	return e.props.Get(key)
}

func (e *testElement) SetPropertyValue(key, value string) error {
	e.props.Set(key, value)
	return nil
}

var _ Container = (*testElement)(nil)

func tree() *testElement {
	return &testElement{
		guid: "root",
		name: "Root",
		children: []Element{
			&testElement{guid: "a", name: "A", children: []Element{
				&testElement{guid: "a1", name: "A1"},
			}},
			&testElement{guid: "b", name: "B"},
		},
	}
}

func TestWalkVisitsDepthFirst(t *testing.T) {
	var order []string
	err := Walk(tree(), func(e Element) error {
		order = append(order, e.GUID())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "a", "a1", "b"}, order)
}

func TestWalkStopsOnError(t *testing.T) {
	stop := errors.New("stop")
	var visited int
	err := Walk(tree(), func(e Element) error {
		visited++
		if e.GUID() == "a" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, visited)
}

func TestFind(t *testing.T) {
	e, ok := Find(tree(), "a1")
	require.True(t, ok)
	assert.Equal(t, "A1", e.Name())

	_, ok = Find(tree(), "missing")
	assert.False(t, ok)
}

func TestProperties(t *testing.T) {
	var p Properties

	_, err := p.Get("CG.Class.Generate")
	assert.ErrorIs(t, err, ErrPropertyNotFound)

	p.Set("CG.Class.Generate", "Checked")
	p.Set("General.Model.Visible", "True")

	v, err := p.Get("CG.Class.Generate")
	require.NoError(t, err)
	assert.Equal(t, "Checked", v)
	assert.Equal(t, []string{"CG.Class.Generate", "General.Model.Visible"}, p.Keys())
}
