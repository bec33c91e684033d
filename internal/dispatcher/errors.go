package dispatcher

import "errors"

// ErrInvalidAddr is returned by New when Config.Addr cannot be resolved to
// an IPv4 TCP address.
var ErrInvalidAddr = errors.New("dispatcher: invalid listen address")

// ErrClosed is returned by every Shutdown call after the first.
var ErrClosed = errors.New("dispatcher: already closed")
