package log

import (
	"time"
)

// Event represents a subscription lifecycle event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SubscriptionID uniquely identifies the subscription (UUID).
	SubscriptionID string `cbor:"2,keyasint"`

	// Kind is the listener kind owning the subscription, e.g. "code-generator".
	Kind string `cbor:"3,keyasint,omitempty"`

	// Source identifies the native event source (application ID).
	Source string `cbor:"4,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Origin tells who triggered the event.
	Origin Origin `cbor:"6,keyasint"`

	// Type-specific payload (one of these will be set).
	StateChange  *StateChangeEvent  `cbor:"10,keyasint,omitempty"`
	NativeCall   *NativeCallEvent   `cbor:"11,keyasint,omitempty"`
	Notification *NotificationEvent `cbor:"12,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"13,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a subscription state change.
	CategoryState Category = 0
	// CategoryNative indicates a call across the native boundary.
	CategoryNative Category = 1
	// CategoryNotification indicates a callback from the tool.
	CategoryNotification Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryNative:
		return "NATIVE"
	case CategoryNotification:
		return "NOTIFICATION"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Origin tells who triggered an event.
type Origin uint8

const (
	// OriginCaller is an explicit call from managed code.
	OriginCaller Origin = 0
	// OriginCleanup is the implicit release after the owner became unreachable.
	OriginCleanup Origin = 1
	// OriginNative is a callback from the tool.
	OriginNative Origin = 2
)

// String returns the origin name.
func (o Origin) String() string {
	switch o {
	case OriginCaller:
		return "CALLER"
	case OriginCleanup:
		return "CLEANUP"
	case OriginNative:
		return "NATIVE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures a subscription state transition.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// NativeCallEvent captures one advise or unadvise call.
type NativeCallEvent struct {
	// Op is the native operation.
	Op NativeOp `cbor:"1,keyasint"`

	// Handle is the handle returned by advise or passed to unadvise.
	Handle uint64 `cbor:"2,keyasint"`

	// Duration is how long the boundary call blocked. Stored as nanoseconds.
	Duration time.Duration `cbor:"3,keyasint"`

	// Failed is set when the call returned an error.
	Failed bool `cbor:"4,keyasint,omitempty"`
}

// NativeOp identifies a native boundary operation.
type NativeOp uint8

const (
	// NativeOpAdvise acquires a connection handle.
	NativeOpAdvise NativeOp = 0
	// NativeOpUnadvise releases a connection handle.
	NativeOpUnadvise NativeOp = 1
)

// String returns the operation name.
func (o NativeOp) String() string {
	switch o {
	case NativeOpAdvise:
		return "ADVISE"
	case NativeOpUnadvise:
		return "UNADVISE"
	default:
		return "UNKNOWN"
	}
}

// NotificationEvent captures a callback from the tool.
type NotificationEvent struct {
	// Event is the notification name, e.g. "after-import".
	Event string `cbor:"1,keyasint"`

	// Elements lists affected element GUIDs.
	Elements []string `cbor:"2,keyasint,omitempty"`

	// Delivered is false when the delivery gate dropped the notification.
	Delivered bool `cbor:"3,keyasint,omitempty"`

	// DropReason explains why an undelivered notification was dropped.
	DropReason string `cbor:"4,keyasint,omitempty"`

	// ProcessingTime is the time spent in the listener. Stored as nanoseconds.
	ProcessingTime *time.Duration `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData captures errors at any step.
type ErrorEventData struct {
	// Op describes what was being performed, e.g. "connect".
	Op string `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code classifies the error, e.g. "connection-failed".
	Code string `cbor:"3,keyasint,omitempty"`
}
