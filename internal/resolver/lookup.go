// Package resolver implements the iterative-delegation Resolver Engine
// (spec.md §4.7) and the Lookup stub it is built on (spec.md §4.8).
package resolver

import (
	"fmt"
	"net"
	"time"

	"github.com/jthomson-dev/recursive-dns/internal/buffer"
	"github.com/jthomson-dev/recursive-dns/internal/dnstype"
	"github.com/jthomson-dev/recursive-dns/internal/header"
	"github.com/jthomson-dev/recursive-dns/internal/message"
	"github.com/jthomson-dev/recursive-dns/internal/question"
)

// dnsPort is the well-known port every upstream nameserver is queried on.
// It is a var rather than a const solely so tests can point it at a local
// fake server's ephemeral-but-fixed port instead of the privileged port 53;
// production code never reassigns it.
var dnsPort = 53

// queryTimeout bounds a single Lookup round trip. spec.md §4.8 leaves retry
// and timeout policy to "the external collaborator"; this is that
// collaborator's choice, grounded on the teacher's queryNameserver deadline.
const queryTimeout = 3 * time.Second

// Lookup sends a single-question query to (ns, 53) and returns the decoded
// response. It binds an ephemeral local UDP endpoint for the duration of
// the call and releases it before returning, per spec.md §4.8.
func Lookup(qname string, qtype dnstype.QueryType, ns net.IP, id uint16) (message.Message, error) {
	query := message.New(id)
	query.Header.RecursionDesired = true
	query.Header.AuthedData = true
	query.AddQuestion(question.Question{Name: qname, Type: qtype})

	buf := buffer.New()
	if err := query.Marshal(buf); err != nil {
		return message.Message{}, fmt.Errorf("resolver: marshal query for %s: %w", qname, err)
	}

	addr := &net.UDPAddr{IP: ns, Port: dnsPort}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return message.Message{}, fmt.Errorf("resolver: dial %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(queryTimeout)); err != nil {
		return message.Message{}, fmt.Errorf("resolver: set deadline for %s: %w", addr, err)
	}

	if _, err := conn.Write(buf.Bytes()); err != nil {
		return message.Message{}, fmt.Errorf("resolver: send to %s: %w", addr, err)
	}

	respData := make([]byte, buffer.Size)
	n, err := conn.Read(respData)
	if err != nil {
		return message.Message{}, fmt.Errorf("resolver: receive from %s: %w", addr, err)
	}

	respBuf := buffer.NewFromBytes(respData[:n])
	resp, err := message.Unmarshal(respBuf)
	if err != nil {
		return message.Message{}, fmt.Errorf("resolver: decode response from %s: %w", addr, err)
	}

	return resp, nil
}

// succeeded reports whether resp is a terminal answer per spec.md §4.7.b/c:
// it carries at least one answer with NOERROR, or it is NXDOMAIN.
func succeeded(resp message.Message) bool {
	if resp.Header.Rescode == header.NXDOMAIN {
		return true
	}
	return resp.Header.Rescode == header.NOERROR && len(resp.Answer) > 0
}
