// Package native defines the boundary between managed code and the modeling
// tool's native event machinery.
//
// The tool exposes event sources (the application object, projects) that
// accept sinks through an advise/unadvise pair:
//
//	h, err := nat.Advise(ctx, app, sink) // acquire a connection handle
//	...
//	err = nat.Unadvise(ctx, h)           // release it
//
// A zero Handle returned with a nil error means the tool refused the
// registration. A non-nil error means the boundary call itself failed.
//
// Nothing in this package knows about COM, JNI or any specific ABI. Concrete
// bridges implement Native; package fake provides an in-memory tool.
package native
