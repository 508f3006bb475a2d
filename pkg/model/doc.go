// Package model describes the modeling tool's object model as a set of
// composable capability traits.
//
// Every object the tool hands out is an Element: it has a GUID, a name, a
// metaclass and a property table. Concrete kinds add traits on top:
//
//	Element
//	  + Describable   (free-text description)
//	  + Container     (nested elements)
//	  + Unit          (saved to its own file)
//
// A Project is an Element that is also a Container and a Unit. The
// Application is the root event source that listeners connect to.
//
// The traits carry no behavior of their own. Implementations live on the
// other side of the native boundary; package fake provides an in-memory one.
package model
