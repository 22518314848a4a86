package kvserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/PhantomXD-nepal/KrishnaBackend/internal/telemetry/logger"
	"github.com/PhantomXD-nepal/KrishnaBackend/internal/telemetry/metric"
	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

// ErrServerStarted is returned by Start on a server that is already running.
var ErrServerStarted = errors.New("kvserver: already started")

// Config holds the TCP server configuration.
type Config struct {
	// Addr is the host:port to listen on.
	Addr string
	// MaxClients is the number of connections served at once. Further
	// clients wait in the OS accept backlog until a slot frees.
	MaxClients int
	// IdleTimeout closes a connection that sends nothing for this long.
	// Zero disables it. In-flight commands are never timed out.
	IdleTimeout time.Duration
	// MaxBulkLen limits a single bulk payload in a request.
	MaxBulkLen int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:       "127.0.0.1:6666",
		MaxClients: 64,
		MaxBulkLen: resp.DefaultMaxBulkLen,
	}
}

// Server accepts TCP connections and serves one request at a time per
// connection through a Dispatcher.
type Server struct {
	cfg        Config
	dispatcher *Dispatcher
	logger     *slog.Logger
	metrics    *metric.Registry

	pool      *semaphore.Weighted
	saturated rate.Sometimes

	ln      net.Listener
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	mu    sync.Mutex
	conns map[*conn]struct{}
}

// conn is a single client connection.
type conn struct {
	id      string
	netConn net.Conn
	r       *resp.Reader
	w       *resp.Writer
	closed  atomic.Bool
}

func newConn(c net.Conn, maxBulkLen int) *conn {
	return &conn{
		id:      ulid.Make().String(),
		netConn: c,
		r:       resp.NewReader(c, resp.WithMaxBulkLen(maxBulkLen)),
		w:       resp.NewWriter(c),
	}
}

func (c *conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// New creates a server. Zero-valued config fields take their defaults.
func New(cfg Config, dispatcher *Dispatcher, log *slog.Logger, metrics *metric.Registry) *Server {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = def.MaxClients
	}
	if cfg.MaxBulkLen <= 0 {
		cfg.MaxBulkLen = def.MaxBulkLen
	}
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     log,
		metrics:    metrics,
		pool:       semaphore.NewWeighted(int64(cfg.MaxClients)),
		saturated:  rate.Sometimes{Interval: time.Second},
		conns:      make(map[*conn]struct{}),
	}
}

// Start binds the listener and serves in the background. It returns once
// the address is bound, so Addr is valid afterwards.
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerStarted
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.ln = ln

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.logger.Info("kv server listening",
		"address", ln.Addr().String(),
		"max_clients", s.cfg.MaxClients,
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil {
			s.logger.Error("kv server accept error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, closes live connections and waits for their
// goroutines to exit or ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	var firstErr error
	if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		firstErr = err
	}
	s.cancel()

	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("kv server stopped")
	return firstErr
}

// acceptLoop takes a pool slot before every Accept, so at most MaxClients
// connections are being served.
func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		if !s.pool.TryAcquire(1) {
			s.saturated.Do(func() {
				s.logger.Warn("worker pool saturated, clients are waiting",
					"max_clients", s.cfg.MaxClients,
				)
			})
			if err := s.pool.Acquire(ctx, 1); err != nil {
				return nil
			}
		}

		nc, err := ln.Accept()
		if err != nil {
			s.pool.Release(1)
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		c := newConn(nc, s.cfg.MaxBulkLen)
		if !s.track(c) {
			_ = c.Close()
			s.pool.Release(1)
			return nil
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.pool.Release(1)
			s.serveConn(ctx, c)
		}()
	}
}

// track registers a live connection. It fails once shutdown has begun.
func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) serveConn(ctx context.Context, c *conn) {
	log := s.logger.With("conn_id", c.id, "remote", c.netConn.RemoteAddr().String())
	log.Debug("connection opened")
	ctx = logger.WithConnID(ctx, c.id)
	s.metrics.ConnOpened()

	defer func() {
		_ = c.Close()
		s.untrack(c)
		s.metrics.ConnClosed()
		log.Debug("connection closed")
	}()

	for {
		// Only the wait for the next request is bounded by the idle timeout.
		if s.cfg.IdleTimeout > 0 {
			if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				return
			}
		}
		if err := c.r.Wait(); err != nil {
			s.logReadError(log, err)
			return
		}
		if s.cfg.IdleTimeout > 0 {
			if err := c.netConn.SetReadDeadline(time.Time{}); err != nil {
				return
			}
		}

		req, err := c.r.Read()
		if err != nil {
			if errors.Is(err, resp.ErrProtocol) {
				s.metrics.ProtocolError()
				log.Warn("protocol error", "error", err)
				_ = c.w.Write(resp.Error(protocolErrorMessage(err), resp.DefaultErrorCode))
				_ = c.w.Flush()
				return
			}
			s.logReadError(log, err)
			return
		}

		reply := s.dispatcher.Dispatch(ctx, req)

		if err := c.w.Write(reply); err != nil {
			log.Debug("write error", "error", err)
			return
		}
		if err := c.w.Flush(); err != nil {
			log.Debug("write error", "error", err)
			return
		}
	}
}

func (s *Server) logReadError(log *slog.Logger, err error) {
	if errors.Is(err, resp.ErrDisconnect) || errors.Is(err, net.ErrClosed) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		log.Debug("connection idle timeout")
		return
	}
	log.Debug("connection read error", "error", err)
}

// protocolErrorMessage renders err as "ERR protocol error: <detail>".
func protocolErrorMessage(err error) string {
	return "ERR " + strings.TrimPrefix(err.Error(), "resp: ")
}
