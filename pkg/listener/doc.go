// Package listener provides the tool's event listeners.
//
// A listener owns one subscription and dispatches each notification to a
// handler method. There is one listener kind per group of tool events:
//
//   - CodeGeneratorListener: code generation completed
//   - RoundTripListener: before and after a code round trip
//   - ImportListener: after a reverse-engineering import
//
// The kinds are generated from listeners.yaml. Connect and Disconnect report a
// boolean outcome; Subscription exposes the typed errors behind it.
//
// A listener that is dropped while connected is released by the runtime once
// it becomes unreachable. Call Close, or Disconnect, to release it at a known
// point instead.
package listener

//go:generate go run ../../cmd/rpbridge-listenergen --input listeners.yaml --output .
