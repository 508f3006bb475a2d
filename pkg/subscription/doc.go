// Package subscription manages the lifecycle of a single native event
// registration.
//
// A Subscription wraps the tool's advise/unadvise pair so that callers can
// neither leak a registration nor register twice:
//
//	sub := subscription.New(nat, listener, (*MyListener).deliver)
//	if err := sub.Connect(ctx, app); err != nil { ... }
//	defer sub.Close()
//
// # State Machine
//
//	DISCONNECTED --Connect--> CONNECTING --advised--> CONNECTED
//	     ^                        |                       |
//	     +------refused/error-----+                  Disconnect
//	     |                                                |
//	     +---------------- DISCONNECTING <----------------+
//
// Close moves any state to CLOSED, releasing the handle first if needed.
//
// Connect while CONNECTED returns ErrAlreadyConnected and never calls the
// tool. Disconnect while not CONNECTED returns ErrNotConnected and never calls
// the tool. A zero handle from Advise is ErrConnectionFailed; an error or
// panic from either native call is ErrNativeCallFailed.
//
// # Ownership and Cleanup
//
// Every subscription has an owner, normally the listener that embeds it. The
// subscription keeps only a weak pointer to the owner, so the sink registered
// with the tool does not keep the owner alive. When the owner becomes
// unreachable while still connected, a runtime cleanup releases the handle
// exactly once and swallows any error. The release runs on its own goroutine
// so a slow Unadvise does not hold up other cleanups. Close and Scoped give deterministic
// release; the cleanup is the safety net, not the plan.
//
// # Delivery Gate
//
// The sink handed to the tool delivers notifications only while the
// subscription is CONNECTING or CONNECTED. Disconnect closes the gate and
// waits for in-flight notifications before calling Unadvise, so once
// Disconnect returns no further notification reaches the owner. A listener
// may disconnect from inside its own callback as long as it passes the
// callback's context; if another goroutine is already disconnecting, that
// call returns ErrNotConnected. Connect from inside a callback returns
// ErrAlreadyConnected in the same situation. The callback's context counts as
// reentrant only until the callback returns.
package subscription
