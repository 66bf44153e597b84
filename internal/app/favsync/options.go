package favsync

import "time"

const (
	defaultRemoteTimeout = 10 * time.Second
	defaultFetchTimeout  = 10 * time.Second
	defaultFailureBuffer = 16
)

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	// RemoteTimeout bounds each add/remove call. Toggles are detached from the
	// caller's cancellation, so this is the only limit on an in-flight call.
	RemoteTimeout time.Duration
	// FetchTimeout bounds background refetches started by Invalidate.
	FetchTimeout time.Duration
	// FailureBuffer is the capacity of the Failures channel; failures beyond it are dropped (and logged).
	FailureBuffer int
}

func (o Options) withDefaults() Options {
	if o.RemoteTimeout <= 0 {
		o.RemoteTimeout = defaultRemoteTimeout
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = defaultFetchTimeout
	}
	if o.FailureBuffer <= 0 {
		o.FailureBuffer = defaultFailureBuffer
	}
	return o
}
