package mqtt

import "errors"

// Sentinel errors, checkable with errors.Is. Every network-level failure the
// bridges can act on maps onto one of these.
var (
	// ErrSessionClosed is returned by Publish after the session has been
	// torn down or the broker connection was lost.
	ErrSessionClosed = errors.New("mqtt: session closed")

	// ErrPublishTimeout is returned when the broker does not acknowledge a
	// publish within the delivery wait.
	ErrPublishTimeout = errors.New("mqtt: publish timeout")
)
