package server

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jthomson-dev/recursive-dns/internal/buffer"
	"github.com/jthomson-dev/recursive-dns/internal/header"
	"github.com/jthomson-dev/recursive-dns/internal/message"
)

// newTestServer binds a Server to an ephemeral loopback port and a client
// socket to dial it from, mirroring the fakeServer pattern in
// internal/resolver/resolver_test.go but driving ServeOne instead of the
// background Serve loop so each test controls exactly one request/reply
// cycle.
func newTestServer(t *testing.T) (srv *Server, client *net.UDPConn) {
	t.Helper()

	srv, err := New("127.0.0.1:0", nil)
	require.NoError(t, err)
	t.Cleanup(func() { srv.conn.Close() })

	client, err = net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return srv, client
}

func (s *Server) addr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// exchange sends data to srv from client, runs one ServeOne cycle, and
// returns the decoded reply.
func exchange(t *testing.T, srv *Server, client *net.UDPConn, data []byte) message.Message {
	t.Helper()

	_, err := client.WriteToUDP(data, srv.addr())
	require.NoError(t, err)

	require.NoError(t, srv.ServeOne(srv.conn))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, buffer.Size)
	n, _, err := client.ReadFromUDP(buf)
	require.NoError(t, err)

	resp, err := message.Unmarshal(buffer.NewFromBytes(buf[:n]))
	require.NoError(t, err)
	return resp
}

// TestServeOneRespondsFORMERROnZeroQuestions is spec.md §8 S6: a message
// with zero questions gets a FORMERR reply with its ID echoed and every
// section empty.
func TestServeOneRespondsFORMERROnZeroQuestions(t *testing.T) {
	srv, client := newTestServer(t)

	req := message.New(0x1234)
	buf := buffer.New()
	require.NoError(t, req.Marshal(buf))

	resp := exchange(t, srv, client, buf.Bytes())
	require.Equal(t, header.FORMERR, resp.Header.Rescode)
	require.Equal(t, uint16(0x1234), resp.Header.ID)
	require.Empty(t, resp.Question)
	require.Empty(t, resp.Answer)
	require.Empty(t, resp.Authority)
	require.Empty(t, resp.Additional)
}

// TestServeOneRespondsFORMERROnPointerLoop is spec.md §8 S5: a crafted
// question name whose compression pointer points at itself fails decode
// with ErrPointerLoop, and since no question could be extracted the Query
// Handler answers with FORMERR.
func TestServeOneRespondsFORMERROnPointerLoop(t *testing.T) {
	srv, client := newTestServer(t)

	buf := buffer.New()
	h := header.Header{ID: 0xABCD, Questions: 1}
	require.NoError(t, h.Write(buf))
	require.NoError(t, buf.WriteUint8(0xC0))
	require.NoError(t, buf.WriteUint8(0x0C)) // points back at itself, offset 12

	resp := exchange(t, srv, client, buf.Bytes())
	require.Equal(t, header.FORMERR, resp.Header.Rescode)
}

func TestClientLimiterAllowsWithinBurst(t *testing.T) {
	l := newClientLimiter(1, 3)
	ip := net.ParseIP("203.0.113.5")
	for i := 0; i < 3; i++ {
		require.True(t, l.allow(ip), "request %d within burst should be allowed", i)
	}
}

func TestClientLimiterBlocksOverBurst(t *testing.T) {
	l := newClientLimiter(1, 2)
	ip := net.ParseIP("203.0.113.6")
	require.True(t, l.allow(ip))
	require.True(t, l.allow(ip))
	require.False(t, l.allow(ip), "third immediate request should exceed the burst")
}

func TestClientLimiterTracksIPsIndependently(t *testing.T) {
	l := newClientLimiter(1, 1)
	a := net.ParseIP("203.0.113.7")
	b := net.ParseIP("203.0.113.8")
	require.True(t, l.allow(a))
	require.False(t, l.allow(a))
	require.True(t, l.allow(b), "a different client IP must have its own bucket")
}

func TestClientLimiterRefillsOverTime(t *testing.T) {
	l := newClientLimiter(100, 1)
	ip := net.ParseIP("203.0.113.9")
	require.True(t, l.allow(ip))
	require.False(t, l.allow(ip))
	time.Sleep(20 * time.Millisecond)
	require.True(t, l.allow(ip), "bucket should have refilled after waiting longer than 1/rate")
}
