package dispatcher

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/blinkdb/blinkdb/internal/engine"
	"github.com/blinkdb/blinkdb/internal/telemetry/logger"
	"github.com/blinkdb/blinkdb/internal/telemetry/metric"
)

const (
	// maxEpollEvents bounds a single epoll_wait call, matching
	// original_source/blink_db_main/server.cpp's MAX_EVENTS.
	maxEpollEvents = 64
	// readScratchSize is the per-read-loop-iteration scratch buffer,
	// matching the source's 4096-byte stack buffer.
	readScratchSize = 4096
	// pollTimeoutMillis bounds how long a single epoll_wait blocks when
	// no event arrives, so the idle reaper runs on a bounded cadence even
	// on an otherwise silent reactor. It is not a request timeout: no
	// RESP-level error is ever produced by a timed-out wait.
	pollTimeoutMillis = 1000
)

// Config configures a Dispatcher. Zero-value fields fall back to package
// defaults except Addr, which must be set by the caller.
type Config struct {
	// Addr is the TCP4 address to bind, e.g. "127.0.0.1:9001" or
	// ":9001" for all interfaces.
	Addr string

	// IdleTimeout closes a connection that has completed no frame in this
	// long. Zero disables idle reaping.
	IdleTimeout time.Duration

	// BackpressureLimitBytes is the soft cap on a connection's outbound
	// buffer; exceeding it closes the connection rather than growing the
	// buffer without bound against a slow reader.
	BackpressureLimitBytes int

	// RateLimit, if non-zero, is the allowed requests-per-second per
	// connection. RateLimitBurst is the token bucket burst size. Zero
	// disables rate limiting entirely (the default).
	RateLimit      float64
	RateLimitBurst int
}

// DefaultBackpressureLimitBytes is used when Config.BackpressureLimitBytes
// is non-positive.
const DefaultBackpressureLimitBytes = 1 << 20

// Dispatcher is the epoll reactor described in spec.md §4.3–§4.4. The zero
// value is not usable; construct with New.
type Dispatcher struct {
	cfg     Config
	engine  *engine.Engine
	metrics *metric.Registry
	log     logger.Logger

	listenFD int
	epollFD  int
	stopFD   int // eventfd used to wake epoll_wait on Shutdown

	// conns is read and written only by the reactor goroutine; spec.md §5
	// guarantees single-threaded access so no mutex guards it.
	conns map[int32]*ClientContext

	scratch []byte // reused read buffer; safe because the reactor is single-threaded

	// rateMu guards rateLimit/rateLimitBurst, which config hot-reload may
	// update from a goroutine other than the reactor (internal/infra/
	// confloader's watcher); newLimiter reads them under the same lock
	// when the reactor accepts a new connection.
	rateMu         sync.Mutex
	rateLimit      float64
	rateLimitBurst int

	ready        atomic.Bool // true once the reactor is accepting connections
	shutdownOnce atomic.Bool // guards Shutdown against double invocation
	done         chan struct{}
}

// New constructs a Dispatcher bound to cfg.Addr. It creates the listening
// socket and the epoll instance but does not start accepting connections
// until Run is called.
func New(cfg Config, eng *engine.Engine, metrics *metric.Registry, log logger.Logger) (*Dispatcher, error) {
	if cfg.BackpressureLimitBytes <= 0 {
		cfg.BackpressureLimitBytes = DefaultBackpressureLimitBytes
	}
	if log == nil {
		log = logger.Default()
	}

	listenFD, err := newListenSocket(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: listen %s: %w", cfg.Addr, err)
	}

	epollFD, err := unix.EpollCreate1(0)
	if err != nil {
		unix.Close(listenFD)
		return nil, fmt.Errorf("dispatcher: epoll_create1: %w", err)
	}

	stopFD, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epollFD)
		unix.Close(listenFD)
		return nil, fmt.Errorf("dispatcher: eventfd: %w", err)
	}

	d := &Dispatcher{
		cfg:      cfg,
		engine:   eng,
		metrics:  metrics,
		log:      log,
		listenFD: listenFD,
		epollFD:  epollFD,
		stopFD:   stopFD,
		conns:    make(map[int32]*ClientContext),
		scratch:  make([]byte, readScratchSize),
		done:     make(chan struct{}),

		rateLimit:      cfg.RateLimit,
		rateLimitBurst: cfg.RateLimitBurst,
	}

	if err := d.epollAdd(listenFD, unix.EPOLLIN|unix.EPOLLET); err != nil {
		d.closeSockets()
		return nil, fmt.Errorf("dispatcher: register listen socket: %w", err)
	}
	if err := d.epollAdd(stopFD, unix.EPOLLIN); err != nil {
		d.closeSockets()
		return nil, fmt.Errorf("dispatcher: register stop eventfd: %w", err)
	}

	return d, nil
}

// newListenSocket creates a non-blocking, SO_REUSEADDR IPv4 TCP listening
// socket bound to addr and listening with the system-maximum backlog,
// matching original_source's initServerSocket.
func newListenSocket(addr string) (int, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return -1, fmt.Errorf("%w: %v", ErrInvalidAddr, err)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("set non-blocking: %w", err)
	}

	var ip4 [4]byte
	if ip := tcpAddr.IP.To4(); ip != nil {
		copy(ip4[:], ip)
	}
	sa := &unix.SockaddrInet4{Port: tcpAddr.Port, Addr: ip4}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}

	return fd, nil
}

func (d *Dispatcher) epollAdd(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(d.epollFD, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (d *Dispatcher) epollMod(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(d.epollFD, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (d *Dispatcher) epollDel(fd int) {
	// Errors here are not actionable: the fd is being closed regardless,
	// and close(2) implicitly removes it from every epoll instance.
	_ = unix.EpollCtl(d.epollFD, unix.EPOLL_CTL_DEL, fd, nil)
}

// Addr returns the address the listening socket is bound to, including
// the kernel-assigned port when Config.Addr requested port 0.
func (d *Dispatcher) Addr() (string, error) {
	sa, err := unix.Getsockname(d.listenFD)
	if err != nil {
		return "", err
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return "", fmt.Errorf("dispatcher: unexpected sockaddr type %T", sa)
	}
	ip := net.IP(sa4.Addr[:])
	return net.JoinHostPort(ip.String(), fmt.Sprint(sa4.Port)), nil
}

// Healthy reports whether the reactor is running and accepting
// connections. It satisfies internal/httpserver's HealthChecker interface.
func (d *Dispatcher) Healthy() bool {
	return d.ready.Load()
}

func (d *Dispatcher) newLimiter() *rate.Limiter {
	d.rateMu.Lock()
	limit, burst := d.rateLimit, d.rateLimitBurst
	d.rateMu.Unlock()

	if limit <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(limit), burst)
}

// SetRateLimit updates the per-connection rate limit applied to
// subsequently accepted connections. Existing connections keep the
// limiter they were created with. A non-positive limit disables rate
// limiting for new connections. Safe to call from any goroutine; used by
// internal/infra/confloader's hot-reload watcher.
func (d *Dispatcher) SetRateLimit(limit float64, burst int) {
	d.rateMu.Lock()
	d.rateLimit = limit
	d.rateLimitBurst = burst
	d.rateMu.Unlock()
}

func (d *Dispatcher) closeSockets() {
	if d.stopFD != 0 {
		unix.Close(d.stopFD)
	}
	if d.epollFD != 0 {
		unix.Close(d.epollFD)
	}
	if d.listenFD != 0 {
		unix.Close(d.listenFD)
	}
}
