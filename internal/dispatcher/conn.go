package dispatcher

import (
	"time"

	"golang.org/x/time/rate"
)

// connState is the per-connection state machine of spec.md §4.4.
type connState int

const (
	// stateReading is the steady state: the reactor will read this fd's
	// EPOLLIN events and has no unsent outbound bytes.
	stateReading connState = iota
	// stateWritePending means a previous write left unsent bytes in
	// outbound; the fd is registered for EPOLLOUT until it drains.
	stateWritePending
	// stateClosing is terminal: deregistration and release are in
	// progress or complete.
	stateClosing
)

// ClientContext is the per-connection state owned exclusively by the
// reactor goroutine: the socket handle, the inbound byte buffer fed to
// respcodec.Decode, the outbound byte buffer for partial-write handling,
// and bookkeeping for the idle reaper and optional rate limiting.
//
// Nothing here is touched by any goroutine other than the reactor; there
// is no mutex because spec.md §5 guarantees exactly one goroutine ever
// calls into a ClientContext.
type ClientContext struct {
	fd    int
	id    string
	state connState

	// inbound accumulates bytes read from the socket. respcodec.Decode
	// parses from its front; consumed bytes are dropped by reslicing, not
	// by copying the remainder down on every frame.
	inbound []byte

	// outbound holds reply bytes not yet written to the socket. Bytes
	// already sent are dropped by reslicing after each successful write.
	outbound []byte

	lastActivity time.Time
	limiter      *rate.Limiter // nil when rate limiting is disabled
}

func newClientContext(fd int, id string, limiter *rate.Limiter) *ClientContext {
	return &ClientContext{
		fd:           fd,
		id:           id,
		state:        stateReading,
		lastActivity: time.Now(),
		limiter:      limiter,
	}
}

// dropConsumed discards the first n bytes of inbound, matching spec.md
// §9's requirement to drop only the bytes the decoder actually consumed
// (never the whole buffer) so pipelined requests survive.
func (c *ClientContext) dropConsumed(n int) {
	c.inbound = c.inbound[n:]
	if len(c.inbound) == 0 {
		// Release the backing array once drained so a connection that
		// received one large frame doesn't pin that capacity forever.
		c.inbound = nil
	}
}

// dropSent discards the first n bytes of outbound after a successful
// partial or full write.
func (c *ClientContext) dropSent(n int) {
	c.outbound = c.outbound[n:]
	if len(c.outbound) == 0 {
		c.outbound = nil
	}
}

func (c *ClientContext) hasPendingWrite() bool {
	return len(c.outbound) > 0
}
