package dispatcher

import (
	"encoding/binary"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sys/unix"

	"github.com/blinkdb/blinkdb/internal/respcodec"
)

// Run drives the reactor loop until Shutdown is called or an
// unrecoverable epoll error occurs. It blocks the calling goroutine; the
// caller should invoke it in its own goroutine and synchronize with
// Shutdown from elsewhere.
func (d *Dispatcher) Run() error {
	defer close(d.done)
	d.ready.Store(true)

	events := make([]unix.EpollEvent, maxEpollEvents)

	for {
		n, err := unix.EpollWait(d.epollFD, events, pollTimeoutMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			d.ready.Store(false)
			return err
		}

		stopRequested := false
		for i := 0; i < n; i++ {
			fd := events[i].Fd
			switch {
			case fd == int32(d.stopFD):
				stopRequested = true
			case fd == int32(d.listenFD):
				d.acceptLoop()
			default:
				d.handleEvent(fd, events[i].Events)
			}
		}

		d.reapIdle()

		if stopRequested {
			d.ready.Store(false)
			d.closeAll()
			return nil
		}
	}
}

// Shutdown requests the reactor loop exit and waits for it to do so. It
// is safe to call from any goroutine, but only the first call has effect;
// subsequent calls return ErrClosed.
func (d *Dispatcher) Shutdown() error {
	if !d.shutdownOnce.CompareAndSwap(false, true) {
		return ErrClosed
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	if _, err := unix.Write(d.stopFD, buf[:]); err != nil {
		return err
	}
	<-d.done
	d.closeSockets()
	return nil
}

// acceptLoop drains the listening socket's accept backlog to EAGAIN,
// matching spec.md §4.3's "accept in a loop until would-block".
func (d *Dispatcher) acceptLoop() {
	for {
		fd, _, err := unix.Accept4(d.listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			d.log.Warn("accept failed", "error", err)
			return
		}

		if err := d.epollAdd(fd, unix.EPOLLIN|unix.EPOLLET|unix.EPOLLRDHUP); err != nil {
			d.log.Warn("register client fd failed", "error", err)
			unix.Close(fd)
			continue
		}

		id := ulid.Make().String()
		c := newClientContext(fd, id, d.newLimiter())
		d.conns[int32(fd)] = c

		if d.metrics != nil {
			d.metrics.IncConnectionsActive()
		}
		d.log.Debug("connection accepted", "conn_id", id)
	}
}

// handleEvent dispatches one ready fd's events to the read or write path,
// or closes the connection on hangup/error, matching
// spec.md §4.3's "client socket hang-up / error" branch.
func (d *Dispatcher) handleEvent(fd int32, events uint32) {
	c, ok := d.conns[fd]
	if !ok {
		return
	}

	if events&(unix.EPOLLHUP|unix.EPOLLERR|unix.EPOLLRDHUP) != 0 {
		d.closeConn(c)
		return
	}

	if events&unix.EPOLLIN != 0 {
		d.handleReadable(c)
		if c.state == stateClosing {
			return
		}
	}

	if events&unix.EPOLLOUT != 0 {
		d.handleWritable(c)
	}
}

// handleReadable reads until EAGAIN, appending to the connection's
// inbound buffer, then decodes and dispatches every complete frame.
func (d *Dispatcher) handleReadable(c *ClientContext) {
	for {
		n, err := unix.Read(c.fd, d.scratch)
		if n > 0 {
			c.inbound = append(c.inbound, d.scratch[:n]...)
		}
		if err != nil {
			if err == unix.EAGAIN {
				break
			}
			d.closeConn(c)
			return
		}
		if n == 0 {
			// Orderly peer close, per spec.md §4.3.
			d.closeConn(c)
			return
		}
	}

	d.processFrames(c)
}

// processFrames decodes and dispatches every complete frame currently
// buffered, dropping only the bytes each frame consumed so pipelined
// requests beyond the first survive (spec.md §9's buffer-reset fix).
func (d *Dispatcher) processFrames(c *ClientContext) {
	for {
		res := respcodec.Decode(c.inbound)
		switch res.Status {
		case respcodec.Incomplete:
			return
		case respcodec.Malformed:
			d.log.Debug("protocol error, closing connection", "conn_id", c.id, "error", res.Err)
			d.closeConn(c)
			return
		case respcodec.Complete:
			c.dropConsumed(res.Consumed)
			c.lastActivity = time.Now()
			d.dispatchCommand(c, res.Args)
			if c.state == stateClosing {
				return
			}
			if len(c.outbound) > d.cfg.BackpressureLimitBytes {
				d.log.Warn("outbound buffer exceeded backpressure limit, closing", "conn_id", c.id, "bytes", len(c.outbound))
				d.closeConn(c)
				return
			}
		}
	}
}

// flushOutbound attempts to write as much of c.outbound as possible.
// Partial writes leave the connection registered for EPOLLOUT so the
// reactor resumes writing on the next write-readiness event, matching
// spec.md §4.3's write-path correction of the source's single-write bug.
func (d *Dispatcher) flushOutbound(c *ClientContext) {
	for len(c.outbound) > 0 {
		n, err := unix.Write(c.fd, c.outbound)
		if n > 0 {
			c.dropSent(n)
		}
		if err != nil {
			if err == unix.EAGAIN {
				break
			}
			d.closeConn(c)
			return
		}
		if n == 0 {
			break
		}
	}

	if c.hasPendingWrite() {
		if c.state != stateWritePending {
			c.state = stateWritePending
			if err := d.epollMod(c.fd, unix.EPOLLIN|unix.EPOLLET|unix.EPOLLRDHUP|unix.EPOLLOUT); err != nil {
				d.closeConn(c)
			}
		}
		return
	}

	if c.state == stateWritePending {
		c.state = stateReading
		if err := d.epollMod(c.fd, unix.EPOLLIN|unix.EPOLLET|unix.EPOLLRDHUP); err != nil {
			d.closeConn(c)
		}
	}
}

// handleWritable resumes draining a connection's outbound buffer once the
// socket reports write-readiness again.
func (d *Dispatcher) handleWritable(c *ClientContext) {
	d.flushOutbound(c)
}

// closeConn deregisters, closes, and releases a connection. Matches
// spec.md §4.4's Closing state: terminal, deregister and release.
func (d *Dispatcher) closeConn(c *ClientContext) {
	if c.state == stateClosing {
		return
	}
	c.state = stateClosing
	d.epollDel(c.fd)
	unix.Close(c.fd)
	delete(d.conns, int32(c.fd))
	if d.metrics != nil {
		d.metrics.DecConnectionsActive()
	}
	d.log.Debug("connection closed", "conn_id", c.id)
}

// reapIdle closes connections silent for longer than cfg.IdleTimeout.
// This is a resource-management measure, not a protocol timeout: no RESP
// reply is ever sent for an idle close (spec.md §5's "no per-request
// timeouts" governs the wire contract, not fd-table hygiene).
func (d *Dispatcher) reapIdle() {
	if d.cfg.IdleTimeout <= 0 {
		return
	}
	deadline := time.Now().Add(-d.cfg.IdleTimeout)
	for _, c := range d.conns {
		if c.lastActivity.Before(deadline) {
			d.log.Debug("closing idle connection", "conn_id", c.id)
			d.closeConn(c)
		}
	}
}

// closeAll closes every live connection, used on shutdown per spec.md
// §4.3's "all ClientContexts are dropped". The listening socket itself is
// closed by Shutdown via closeSockets once Run has returned, avoiding a
// double-close race on the fd number.
func (d *Dispatcher) closeAll() {
	for _, c := range d.conns {
		d.closeConn(c)
	}
}
