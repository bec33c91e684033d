package dispatcher

import (
	"github.com/blinkdb/blinkdb/internal/respcodec"
)

// errUnknownCommand is the bit-exact reply text for an unrecognized verb
// or a recognized verb with the wrong argument count (spec.md §6).
const errUnknownCommand = "ERR unknown command or wrong number of arguments"

// errRateLimited is a distinct command-error reply for a request rejected
// by the optional per-connection rate limiter. It is a command error per
// spec.md §7 (the connection stays open), not a protocol error.
const errRateLimited = "ERR rate limit exceeded"

// dispatchCommand uppercase-folds the verb and routes to the engine,
// appending the reply directly to c.outbound and flushing it, matching
// spec.md §4.3's per-frame handling steps 1-2.
func (d *Dispatcher) dispatchCommand(c *ClientContext, args [][]byte) {
	if len(args) == 0 {
		// An empty inline line decodes to zero arguments; spec.md §4.3's
		// model has no verb to dispatch, so there is nothing to reply to.
		return
	}

	if c.limiter != nil && !c.limiter.Allow() {
		c.outbound = respcodec.AppendError(c.outbound, errRateLimited)
		d.flushOutbound(c)
		return
	}

	verb := upperASCII(args[0])

	var result string
	switch string(verb) {
	case "SET":
		result = d.cmdSet(c, args)
	case "GET":
		result = d.cmdGet(c, args)
	case "DEL":
		result = d.cmdDel(c, args)
	case "CONFIG":
		result = d.cmdConfig(c, args)
	default:
		c.outbound = respcodec.AppendError(c.outbound, errUnknownCommand)
		result = "error"
	}

	if d.metrics != nil {
		d.metrics.RecordCommand(string(verb), result)
		stats := d.engine.Stats()
		d.metrics.SetEngineOccupancy(stats.MemoryUsage, stats.Keys)
	}

	d.flushOutbound(c)
}

func (d *Dispatcher) cmdSet(c *ClientContext, args [][]byte) string {
	if len(args) < 3 {
		c.outbound = respcodec.AppendError(c.outbound, errUnknownCommand)
		return "error"
	}
	d.engine.Set(args[1], args[2])
	c.outbound = respcodec.AppendSimpleString(c.outbound, "OK")
	return "ok"
}

func (d *Dispatcher) cmdGet(c *ClientContext, args [][]byte) string {
	if len(args) < 2 {
		c.outbound = respcodec.AppendError(c.outbound, errUnknownCommand)
		return "error"
	}
	value, ok := d.engine.Get(args[1])
	if !ok {
		c.outbound = respcodec.AppendNullBulk(c.outbound)
		return "miss"
	}
	c.outbound = respcodec.AppendBulk(c.outbound, value)
	return "hit"
}

func (d *Dispatcher) cmdDel(c *ClientContext, args [][]byte) string {
	if len(args) < 2 {
		c.outbound = respcodec.AppendError(c.outbound, errUnknownCommand)
		return "error"
	}
	// Only the first key is acted upon; multi-key DEL is out of scope
	// (spec.md §4.3, matching original_source behavior).
	if d.engine.Del(args[1]) {
		c.outbound = respcodec.AppendInteger(c.outbound, 1)
		return "ok"
	}
	c.outbound = respcodec.AppendInteger(c.outbound, 0)
	return "miss"
}

// cmdConfig replies with an empty array regardless of subcommand or
// arguments: minimal compatibility with clients (notably redis-benchmark)
// that probe configuration on handshake (spec.md §4.3).
func (d *Dispatcher) cmdConfig(c *ClientContext, _ [][]byte) string {
	c.outbound = respcodec.AppendArrayHeader(c.outbound, 0)
	return "ok"
}

// upperASCII returns an ASCII-uppercased copy of b, matching the
// case-insensitive verb rule of spec.md §4.3 without pulling in
// unicode-aware casing.
func upperASCII(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
