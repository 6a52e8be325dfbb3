package notify

import (
	"crypto/tls"
)

// Options are options for the queue-backed notifier.
type Options struct {
	// URL encodes how we'll connect to the queue broker (redis).
	URL string

	// TLSConfig needed to connect to the broker (optional).
	TLSConfig *tls.Config
}
