// Package log provides the lifecycle trace for native event subscriptions.
//
// Every subscription can report what happens to it: state transitions,
// advise/unadvise calls across the native boundary, notifications delivered
// or dropped by the delivery gate, and errors. The trace is separate from
// operational logging (slog). It gives a complete machine-readable record of
// every native handle, which is what you need when hunting a dangling
// registration inside the tool.
//
// # Basic Usage
//
// Components accept a Logger:
//
//	// For development: trace to console via slog
//	opts = append(opts, subscription.WithTrace(log.NewSlogAdapter(slog.Default())))
//
//	// For production: write to binary file
//	trace, _ := log.NewFileLogger("/var/log/rpbridge/bridge.rtrace")
//
//	// Both: use MultiLogger
//	trace := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
//   - State: subscription state transitions (StateChangeEvent)
//   - Native: advise/unadvise calls with handle and duration (NativeCallEvent)
//   - Notification: callbacks from the tool (NotificationEvent)
//   - Error: failures at any step (ErrorEventData)
//
// Each event carries its Origin: an explicit caller, the implicit cleanup
// path, or the native tool itself.
//
// # File Format
//
// Trace files use CBOR encoding with the .rtrace extension. The
// rpbridge-trace CLI provides viewing, filtering and export.
package log
