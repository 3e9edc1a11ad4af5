// Package worker implements the per-worker event loop described in spec
// §4.4: accept, read, dispatch, write, and close, plus the periodic idle
// sweep. Each Worker owns its own listener, connection pool, and
// active-connection index; workers share nothing mutable except the
// read-only response cache (spec §2, §5).
//
// SPEC_FULL.md §0 replaces the original's single-threaded epoll reactor
// with one goroutine per accepted connection: a connection's blocking
// Read/Write calls ARE its readiness wait, handed to the Go runtime's own
// netpoller instead of a hand-rolled edge-triggered loop. Every other
// invariant — pool acquire/release, the fast/slow-path parse, the
// two-phase write drain, swap-and-pop removal, the idle sweep — is
// unchanged.
package worker

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/emberd/internal/cache"
	"github.com/yourusername/emberd/internal/conn"
	"github.com/yourusername/emberd/internal/proto"
	"github.com/yourusername/emberd/internal/socket"
)

// stackReadSize is the minimum read-syscall buffer size the read path uses
// before falling back to the connection's accumulated buffer (spec §4.4
// Read path: "a ≥ 64 KiB stack buffer").
const stackReadSize = 64 << 10

// idleSweepInterval is how often the worker scans its active-connection
// sequence for expired connections (spec §4.4: "Every ≥ 5s of wall time").
const idleSweepInterval = 5 * time.Second

// Config holds the per-worker tunables surfaced at spec §6's "additional
// configuration knobs".
type Config struct {
	DocRoot     string
	IdleTimeout time.Duration
	UseSendfile bool
	PoolSize    int

	// MaxEventsPerWake mirrors spec §6's readiness-events-per-wake knob.
	// Under the goroutine-per-connection model (SPEC_FULL.md §0) there is
	// no poller wake to batch, so this field has no effect on control
	// flow; it is retained only so the CLI surface matches spec §6 and is
	// otherwise unused.
	MaxEventsPerWake int
}

// Worker owns one listening socket, one connection pool, and one
// active-connection index (spec §2, §4.4 State).
type Worker struct {
	id       int
	listener net.Listener
	pool     *conn.Pool
	cache    *cache.Cache
	cfg      Config
	log      *logrus.Entry

	// activeMu guards active (SPEC_FULL.md §5): connection goroutines
	// append/remove themselves under it, and the idle sweep scans under it.
	// It is never held across a blocking I/O call. The connection pool has
	// its own separate mutex for its free stack.
	activeMu sync.Mutex
	active   []*conn.Connection

	requestCount atomic.Uint64
	running      atomic.Bool

	// sweepInterval overrides idleSweepInterval; zero means use the
	// default. Exposed only for tests that need a faster idle sweep than
	// spec §4.4's "every ≥ 5s of wall time" production cadence.
	sweepInterval time.Duration

	wg sync.WaitGroup
}

// New constructs a Worker bound to listener. id is used only for logging.
func New(id int, listener net.Listener, cfg Config, respCache *cache.Cache, log *logrus.Logger) *Worker {
	return &Worker{
		id:       id,
		listener: listener,
		pool:     conn.NewPool(cfg.PoolSize),
		cache:    respCache,
		cfg:      cfg,
		log:      log.WithField("worker", id),
	}
}

// Run starts the accept loop and the idle sweep and blocks until the
// worker is stopped via Shutdown (spec §4.4 Main loop / shutdown).
func (w *Worker) Run() {
	w.running.Store(true)
	w.log.WithField("addr", w.listener.Addr()).Info("worker listening")

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		w.sweepLoop()
	}()

	w.acceptLoop()

	<-sweepDone
	w.wg.Wait()
}

// Shutdown stops accepting new connections, closes the listener, and tears
// down every active connection, returning each to the pool (spec §4.4:
// "On shutdown ... close all active sockets and return them to the pool").
func (w *Worker) Shutdown() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	w.listener.Close()

	w.activeMu.Lock()
	victims := append([]*conn.Connection(nil), w.active...)
	w.activeMu.Unlock()

	for _, c := range victims {
		c.Conn.Close()
	}
}

// acceptLoop drains the listening socket, spawning one goroutine per
// accepted connection (spec §4.4 Accept path, reworked per SPEC_FULL §0:
// the kernel-level "accept loop until would-block" becomes a plain
// blocking Accept loop, since a listener has exactly one pending-accept
// readiness source and Go's Accept already waits for it).
func (w *Worker) acceptLoop() {
	for {
		nc, err := w.listener.Accept()
		if err != nil {
			if !w.running.Load() {
				return
			}
			w.log.WithError(err).Warn("accept failed")
			continue
		}

		if tcp, ok := nc.(*net.TCPConn); ok {
			if err := socket.Apply(tcp, &socket.Config{NoDelay: true}); err != nil {
				w.log.WithError(err).Debug("could not tune accepted socket")
			}
		}

		c := w.pool.Acquire(nc)
		w.addActive(c)

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.serve(c)
		}()
	}
}

// addActive appends c to the active-connection sequence and records its
// index (spec §3 Identity: "a pool back-index recording its position").
func (w *Worker) addActive(c *conn.Connection) {
	w.activeMu.Lock()
	c.PoolIndex = len(w.active)
	w.active = append(w.active, c)
	w.activeMu.Unlock()
}

// removeActive performs the swap-and-pop removal described in spec §4.4's
// Close path and §GLOSSARY, updating the swapped-in peer's stored index.
func (w *Worker) removeActive(c *conn.Connection) {
	w.activeMu.Lock()
	defer w.activeMu.Unlock()

	idx := c.PoolIndex
	if idx < 0 || idx >= len(w.active) || w.active[idx] != c {
		return
	}
	last := len(w.active) - 1
	w.active[idx] = w.active[last]
	w.active[idx].PoolIndex = idx
	w.active[last] = nil
	w.active = w.active[:last]
	c.PoolIndex = -1
}

// sweepLoop periodically evicts idle connections (spec §4.4, §3 invariant
// 6).
func (w *Worker) sweepLoop() {
	interval := idleSweepInterval
	if w.sweepInterval > 0 {
		interval = w.sweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if !w.running.Load() {
			return
		}
		<-ticker.C
		if !w.running.Load() {
			return
		}
		w.sweepIdle()
	}
}

func (w *Worker) sweepIdle() {
	w.activeMu.Lock()
	victims := make([]*conn.Connection, 0)
	for _, c := range w.active {
		if c.Idle(w.cfg.IdleTimeout) {
			victims = append(victims, c)
		}
	}
	w.activeMu.Unlock()

	for _, c := range victims {
		c.Conn.Close()
	}
	if len(victims) > 0 {
		w.log.WithField("count", len(victims)).Info("idle sweep evicted connections")
	}
}

// serve drives one accepted connection through repeated
// read→dispatch→write cycles until it is closed (spec §4.4 Read/Write/Close
// paths, collapsed into one goroutine per SPEC_FULL.md §0).
func (w *Worker) serve(c *conn.Connection) {
	defer w.closeConn(c)

	stackBuf := make([]byte, stackReadSize)
	for {
		c.Touch()
		n, err := c.Conn.Read(stackBuf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}

		if !w.consume(c, stackBuf[:n]) {
			return
		}
		if c.State == conn.Closing {
			return
		}
	}
}

// consume implements the fast-path/slow-path read logic of spec §4.4 Read
// path. It returns false when the connection should be torn down.
func (w *Worker) consume(c *conn.Connection, data []byte) bool {
	// Fast path: no accumulated buffer yet, try to parse straight out of
	// the stack-resident slice.
	if len(c.Pending()) == 0 {
		for len(data) > 0 {
			req, n, err := proto.Parse(data)
			if err == proto.ErrNeedMore {
				break
			}
			if err != nil {
				w.respondBad(c)
				return false
			}
			data = data[n:]
			if !w.dispatchAndWrite(c, req) {
				return false
			}
			if c.State != conn.Reading {
				// write path left work outstanding (only possible on a
				// genuine I/O error under the blocking model, which
				// dispatchAndWrite already reported); stop draining.
				break
			}
		}
		if len(data) == 0 {
			return true
		}
		// Parser reported 0 bytes consumed (incomplete request): fall
		// through to the slow path with the remainder.
	}

	c.AppendRead(data)
	return w.drainAccumulated(c)
}

// drainAccumulated implements the read path's slow path: parse requests out
// of the connection's heap-accumulated buffer until it can't make progress
// (spec §4.4 Read path, slow path).
func (w *Worker) drainAccumulated(c *conn.Connection) bool {
	for c.State == conn.Reading && len(c.Pending()) > 0 {
		req, n, err := proto.Parse(c.Pending())
		if err == proto.ErrNeedMore {
			if len(c.ReadBuf) > proto.MaxAccumulatedRequest {
				w.respondBad(c)
				return false
			}
			break
		}
		if err != nil {
			w.respondBad(c)
			return false
		}

		c.ReadOffset += n
		if !w.dispatchAndWrite(c, req) {
			return false
		}
	}
	c.CompactReadBuf()
	return true
}

func (w *Worker) respondBad(c *conn.Connection) {
	c.Conn.Write(proto.Response400)
}

// dispatchAndWrite runs dispatch (spec §4.4 Dispatch) then, if the
// connection transitioned to WRITING, the write path (spec §4.4 Write
// path). It returns false if the connection must be closed.
func (w *Worker) dispatchAndWrite(c *conn.Connection, req *proto.Request) bool {
	w.requestCount.Add(1)
	w.dispatch(c, req)

	if c.State != conn.Writing {
		return true
	}
	if err := w.drainWrite(c); err != nil {
		return false
	}
	return w.disposition(c)
}

// dispatch builds the response for req, populating whichever combination
// of c.CachedResponse, c.WriteBuf, and c.Sendfile the response needs (spec
// §4.4 Dispatch; unifies cache-hit, dynamic-buffer, and sendfile responses
// behind one state machine per SPEC_FULL.md §9 "Fast-path unification").
func (w *Worker) dispatch(c *conn.Connection, req *proto.Request) {
	keepAlive := req.KeepAlive()

	if req.MethodID != proto.MethodGET && req.MethodID != proto.MethodHEAD {
		c.WriteBuf = append(c.WriteBuf[:0], proto.Response405...)
		c.KeepAlive = false
		c.State = conn.Writing
		return
	}

	if body, ok := w.cache.Lookup(req.Path); ok {
		c.CachedResponse = body
		c.CachedOffset = 0
		c.KeepAlive = true
		c.State = conn.Writing
		return
	}

	diskPath, ok := w.resolvePath(req.Path)
	if !ok {
		c.WriteBuf = append(c.WriteBuf[:0], proto.Build404(keepAlive)...)
		c.KeepAlive = keepAlive
		c.State = conn.Writing
		return
	}

	info, err := os.Stat(diskPath)
	if err != nil || !info.Mode().IsRegular() {
		c.WriteBuf = append(c.WriteBuf[:0], proto.Build404(keepAlive)...)
		c.KeepAlive = keepAlive
		c.State = conn.Writing
		return
	}

	if w.cfg.UseSendfile {
		header := proto.BuildHeader(proto.StatusLine200, proto.DetectContentType(diskPath), info.Size(), keepAlive)
		c.WriteBuf = append(c.WriteBuf[:0], header...)
		c.Sendfile.Path = diskPath
		c.Sendfile.Size = info.Size()
		c.Sendfile.Offset = 0
		c.KeepAlive = keepAlive
		c.State = conn.Writing
		return
	}

	body, err := os.ReadFile(diskPath)
	if err != nil {
		c.WriteBuf = append(c.WriteBuf[:0], proto.Build404(keepAlive)...)
		c.KeepAlive = keepAlive
		c.State = conn.Writing
		return
	}
	full := proto.BuildResponse(proto.StatusLine200, proto.DetectContentType(diskPath), body, keepAlive)
	c.WriteBuf = append(c.WriteBuf[:0], full...)
	c.KeepAlive = keepAlive
	c.State = conn.Writing
}

// resolvePath joins the document root with the request path, rejecting any
// path that escapes the root after cleaning (spec §9 Open Question on path
// traversal, resolved in SPEC_FULL.md §9 toward the hardened option).
func (w *Worker) resolvePath(reqPath string) (string, bool) {
	clean := filepath.Clean("/" + reqPath)
	if strings.HasSuffix(reqPath, "/") || reqPath == "" {
		clean = filepath.Join(clean, "index.html")
	}
	full := filepath.Join(w.cfg.DocRoot, clean)
	if !strings.HasPrefix(full, filepath.Clean(w.cfg.DocRoot)+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

// drainWrite implements spec §4.4 Write path Phase 1 (scatter/gather) and
// Phase 2 (sendfile drain). Under the blocking goroutine model there is no
// would-block to suspend on: each call either fully drains or returns a
// genuine I/O error, which the caller treats as fatal to the connection.
func (w *Worker) drainWrite(c *conn.Connection) error {
	c.Touch()

	for c.WriteOffset < len(c.WriteBuf) || c.CachedOffset < len(c.CachedResponse) {
		bufs := net.Buffers{}
		if c.WriteOffset < len(c.WriteBuf) {
			bufs = append(bufs, c.WriteBuf[c.WriteOffset:])
		}
		if c.CachedOffset < len(c.CachedResponse) {
			bufs = append(bufs, c.CachedResponse[c.CachedOffset:])
		}

		n, err := bufs.WriteTo(c.Conn)
		if err != nil {
			return err
		}

		remaining := n
		if c.WriteOffset < len(c.WriteBuf) {
			avail := int64(len(c.WriteBuf) - c.WriteOffset)
			take := remaining
			if take > avail {
				take = avail
			}
			c.WriteOffset += int(take)
			remaining -= take
		}
		if remaining > 0 {
			c.CachedOffset += int(remaining)
		}
	}
	c.CachedResponse = nil
	c.CachedOffset = 0

	if c.Sendfile.Active() && !c.Sendfile.Done() {
		if c.Sendfile.File == nil {
			f, err := os.Open(c.Sendfile.Path)
			if err != nil {
				return err
			}
			c.Sendfile.File = f
		}
		remaining := c.Sendfile.Size - c.Sendfile.Offset
		written, err := socket.SendFile(c.Conn, c.Sendfile.File, c.Sendfile.Offset, remaining)
		c.Sendfile.Offset += written
		if err != nil {
			c.Sendfile.File.Close()
			c.Sendfile.File = nil
			return err
		}
		if c.Sendfile.Done() {
			c.Sendfile.File.Close()
			c.Sendfile.File = nil
		}
	}

	return nil
}

// disposition implements spec §4.4 Write path Phase 3: re-arm for reading
// on keep-alive, or signal closure. It returns false when the connection
// must be closed.
func (w *Worker) disposition(c *conn.Connection) bool {
	if !c.KeepAlive {
		c.State = conn.Closing
		return false
	}
	c.State = conn.Reading
	c.WriteBuf = c.WriteBuf[:0]
	c.WriteOffset = 0
	return true
}

func (w *Worker) closeConn(c *conn.Connection) {
	c.State = conn.Closing
	if c.Sendfile.File != nil {
		c.Sendfile.File.Close()
	}
	c.Conn.Close()
	w.removeActive(c)
	w.pool.Release(c)
}

// RequestCount returns the number of requests this worker has dispatched.
func (w *Worker) RequestCount() uint64 {
	return w.requestCount.Load()
}

// Addr returns the worker's bound listener address.
func (w *Worker) Addr() string {
	return w.listener.Addr().String()
}

