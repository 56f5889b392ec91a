// Package server implements the Query Handler (spec.md §4.9): the UDP
// entry point that receives a client datagram, drives the Resolver Engine,
// and replies.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jthomson-dev/recursive-dns/internal/buffer"
	"github.com/jthomson-dev/recursive-dns/internal/header"
	"github.com/jthomson-dev/recursive-dns/internal/message"
	"github.com/jthomson-dev/recursive-dns/internal/metrics"
	"github.com/jthomson-dev/recursive-dns/internal/resolver"
)

// Server is a UDP-bound DNS query handler. The core resolution path is
// single-threaded and synchronous per spec.md §5; Server dispatches one
// goroutine per datagram so slow upstream resolutions don't block the
// receive loop, matching the teacher's handleDNSRequest dispatch model.
type Server struct {
	conn    *net.UDPConn
	logger  *slog.Logger
	limiter *clientLimiter
	wg      sync.WaitGroup
}

// New binds address and returns a Server ready to Serve. If logger is nil,
// a text handler writing to stdout is used, matching the teacher's default
// in app/DNS.go.
func New(address string, logger *slog.Logger) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("server: resolve %s: %w", address, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("server: listen %s: %w", address, err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return &Server{
		conn:    conn,
		logger:  logger,
		limiter: newClientLimiter(100, 200),
	}, nil
}

// Close releases the server's UDP endpoint after any in-flight handlers
// finish.
func (s *Server) Close() error {
	s.wg.Wait()
	return s.conn.Close()
}

// Serve runs the receive loop until the underlying connection is closed.
func (s *Server) Serve() error {
	s.logger.Info("recursive dns server listening", slog.Any("address", s.conn.LocalAddr()))

	buf := make([]byte, buffer.Size)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return fmt.Errorf("server: read: %w", err)
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(s.conn, datagram, addr)
		}()
	}
}

// ServeOne performs a single synchronous receive-resolve-reply cycle on
// conn: one datagram is read, handled, and answered before it returns. It is
// the process interface's single-datagram entry (spec.md §6); it runs the
// same steps as one iteration of Serve's loop (which does not call it), but
// without a goroutine. It is the seam tests drive directly - against a real
// loopback socket pair - to exercise the Query Handler's decode and rescode
// mapping without dispatching a goroutine or faking the network.
func (s *Server) ServeOne(conn *net.UDPConn) error {
	buf := make([]byte, buffer.Size)
	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		return fmt.Errorf("server: read: %w", err)
	}

	datagram := make([]byte, n)
	copy(datagram, buf[:n])

	s.handle(conn, datagram, addr)
	return nil
}

// handle implements spec.md §4.9 end to end for one datagram, replying on
// conn.
func (s *Server) handle(conn *net.UDPConn, data []byte, addr *net.UDPAddr) {
	if !s.limiter.allow(addr.IP) {
		s.logger.Warn("rate limited client", slog.String("client", addr.IP.String()))
		return
	}

	req, decodeErr := message.Unmarshal(buffer.NewFromBytes(data))

	resp := message.New(0)
	resp.Header.Response = true
	resp.Header.RecursionAvailable = true
	resp.Header.RecursionDesired = true

	switch {
	case decodeErr != nil:
		resp.Header.Rescode = header.FORMERR

	case len(req.Question) == 0:
		resp.Header.ID = req.Header.ID
		resp.Header.Rescode = header.FORMERR

	default:
		resp.Header.ID = req.Header.ID
		q := req.Question[0]
		resp.AddQuestion(q)

		start := time.Now()
		upstream, hops, err := resolver.ResolveStats(q.Name, q.Type, req.Header.ID)
		metrics.ResolutionDuration.WithLabelValues(q.Type.String()).Observe(time.Since(start).Seconds())

		if err != nil {
			s.logger.Error("resolution failed",
				slog.String("question", q.Name),
				slog.Any("type", q.Type),
				slog.Any("error", err))
			resp.Header.Rescode = header.SERVFAIL
		} else {
			metrics.DelegationDepth.Observe(float64(hops))
			resp.Header.Rescode = upstream.Header.Rescode
			resp.Answer = upstream.Answer
			resp.Authority = upstream.Authority
			resp.Additional = upstream.Additional
		}
	}

	metrics.QueriesTotal.WithLabelValues(resp.Header.Rescode.String()).Inc()

	respBuf := buffer.New()
	if err := resp.Marshal(respBuf); err != nil {
		s.logger.Error("failed to marshal response", slog.Any("error", err))
		return
	}

	if _, err := conn.WriteToUDP(respBuf.Bytes(), addr); err != nil {
		s.logger.Error("failed to send response", slog.String("client", addr.String()), slog.Any("error", err))
	}
}

// clientLimiter enforces a per-client-IP token bucket, grounded on
// straticus1-dnsscienced/internal/engine/ratelimiter.go.
type clientLimiter struct {
	mu        sync.Mutex
	byIP      map[string]*rate.Limiter
	perSecond rate.Limit
	burst     int
}

func newClientLimiter(queriesPerSecond float64, burst int) *clientLimiter {
	return &clientLimiter{
		byIP:      make(map[string]*rate.Limiter),
		perSecond: rate.Limit(queriesPerSecond),
		burst:     burst,
	}
}

func (l *clientLimiter) allow(ip net.IP) bool {
	key := ip.String()

	l.mu.Lock()
	limiter, ok := l.byIP[key]
	if !ok {
		limiter = rate.NewLimiter(l.perSecond, l.burst)
		l.byIP[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
