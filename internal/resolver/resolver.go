package resolver

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jthomson-dev/recursive-dns/internal/dnstype"
	"github.com/jthomson-dev/recursive-dns/internal/header"
	"github.com/jthomson-dev/recursive-dns/internal/message"
	"github.com/jthomson-dev/recursive-dns/internal/record"
)

// RootHintIPv4 is the single hard-coded root server this resolver starts
// every resolution from - a.root-servers.net, per spec.md §6. No root
// hints file is read and no other root is ever substituted.
const RootHintIPv4 = "198.41.0.4"

// rootHint is the parsed form of RootHintIPv4 that Resolve and the unglued
// delegation path actually dial. Nothing reassigns it; the tests exercise
// the engine without real network access by calling resolveFrom with a
// loopback address instead.
var rootHint = net.ParseIP(RootHintIPv4)

// maxDelegations bounds how many NS delegations a single resolution will
// follow before giving up. spec.md §4.7 leaves cycle protection to network
// timeouts plus "the recursive sub-resolution budget"; this is that budget,
// grounded on the teacher's resolveRecursively loop bound.
const maxDelegations = 10

// ErrDelegationExhausted is returned when maxDelegations NS hops pass
// without reaching a terminal answer.
var ErrDelegationExhausted = errors.New("resolver: delegation chain exceeded maximum depth without an answer")

// Resolve answers (qname, qtype) by iterative NS delegation starting at
// RootHintIPv4, per spec.md §4.7, additionally following CNAME chains so a
// caller asking for an A record behind an alias gets the full chain in one
// call (a supplemented feature; the base algorithm is silent on CNAMEs and
// would otherwise hand back a CNAME-only answer as terminal).
func Resolve(qname string, qtype dnstype.QueryType, id uint16) (message.Message, error) {
	resp, _, err := ResolveStats(qname, qtype, id)
	return resp, err
}

// ResolveStats is Resolve plus the number of NS delegation hops the
// outermost resolution took, for the Query Handler's delegation-depth
// metric. CNAME sub-resolutions do not add to the reported depth - they
// share the caller's view of "how far this answer travelled on the wire",
// not how many internal lookups were spent producing it.
func ResolveStats(qname string, qtype dnstype.QueryType, id uint16) (message.Message, int, error) {
	resp, hops, err := resolveFromStats(qname, qtype, id, rootHint)
	return resp, hops, err
}

// resolveFrom is Resolve with the starting nameserver made explicit, so
// tests can point it at a local fake server instead of the real root hint.
func resolveFrom(qname string, qtype dnstype.QueryType, id uint16, startNS net.IP) (message.Message, error) {
	resp, _, err := resolveFromStats(qname, qtype, id, startNS)
	return resp, err
}

func resolveFromStats(qname string, qtype dnstype.QueryType, id uint16, startNS net.IP) (message.Message, int, error) {
	return resolveChain(qname, qtype, id, startNS, map[string]bool{})
}

func resolveChain(qname string, qtype dnstype.QueryType, id uint16, startNS net.IP, seen map[string]bool) (message.Message, int, error) {
	resp, hops, err := iterativeResolve(qname, qtype, id, startNS)
	if err != nil {
		return message.Message{}, hops, err
	}

	if qtype == dnstype.CNAME || resp.Header.Rescode != header.NOERROR {
		return resp, hops, nil
	}

	target, ok := cnameTarget(resp, qname, qtype)
	if !ok || seen[strings.ToLower(target)] {
		return resp, hops, nil
	}
	seen[strings.ToLower(target)] = true

	chained, _, err := resolveChain(target, qtype, id, startNS, seen)
	if err != nil {
		// Best effort: the CNAME itself is still a valid answer.
		return resp, hops, nil
	}

	resp.Answer = append(resp.Answer, chained.Answer...)
	resp.Authority = chained.Authority
	resp.Additional = chained.Additional
	resp.Header.Rescode = chained.Header.Rescode
	return resp, hops, nil
}

// cnameTarget reports the CNAME target for qname within resp's answer
// section, but only when no record of qtype already answers qname
// directly. Only records owned by qname are examined: records for the
// CNAME target that the server may have included are not consulted, so
// the target is resolved again.
func cnameTarget(resp message.Message, qname string, qtype dnstype.QueryType) (string, bool) {
	target := ""
	found := false
	for _, a := range resp.Answer {
		if !strings.EqualFold(a.Domain, qname) {
			continue
		}
		if cname, ok := a.Data.(record.CNAME); ok {
			target = cname.Host
			found = true
			continue
		}
		if answersQueryType(a.Data, qtype) {
			// qname is answered directly; there is no alias to chase.
			return "", false
		}
	}
	return target, found
}

// answersQueryType reports whether d is the record variant qtype names.
func answersQueryType(d record.Data, qtype dnstype.QueryType) bool {
	switch d.(type) {
	case record.A:
		return qtype == dnstype.A
	case record.AAAA:
		return qtype == dnstype.AAAA
	case record.NS:
		return qtype == dnstype.NS
	case record.MX:
		return qtype == dnstype.MX
	default:
		return false
	}
}

// iterativeResolve implements the NS-delegation walk in spec.md §4.7,
// independent of CNAME handling.
func iterativeResolve(qname string, qtype dnstype.QueryType, id uint16, startNS net.IP) (message.Message, int, error) {
	ns := startNS

	var resp message.Message
	for hop := 0; hop < maxDelegations; hop++ {
		var err error
		resp, err = Lookup(qname, qtype, ns, id)
		if err != nil {
			return message.Message{}, hop, fmt.Errorf("resolver: %q: %w", qname, err)
		}

		if succeeded(resp) {
			return resp, hop, nil
		}

		next, ok := nextNameserver(resp, qname, id, startNS)
		if !ok {
			return resp, hop, nil
		}
		ns = next
	}

	return message.Message{}, maxDelegations, fmt.Errorf("resolver: %q: %w", qname, ErrDelegationExhausted)
}

// nextNameserver picks the next nameserver IPv4 to query, per spec.md
// §4.7.d: prefer a glued delegation (an authority NS with a matching A
// record in the additional section), falling back to resolving an
// unglued NS host as A from the root.
func nextNameserver(resp message.Message, qname string, id uint16, startNS net.IP) (net.IP, bool) {
	var matching []record.Record
	for _, auth := range resp.Authority {
		if _, ok := auth.Data.(record.NS); ok && isSuffix(qname, auth.Domain) {
			matching = append(matching, auth)
		}
	}
	if len(matching) == 0 {
		return nil, false
	}

	for _, auth := range matching {
		host := auth.Data.(record.NS).Host
		for _, add := range resp.Additional {
			if !strings.EqualFold(add.Domain, host) {
				continue
			}
			if a, ok := add.Data.(record.A); ok {
				return a.Addr, true
			}
		}
	}

	host := matching[0].Data.(record.NS).Host
	if isSuffix(host, qname) {
		// The NS host lives under the very domain we are resolving -
		// following it would recurse forever.
		return nil, false
	}

	hostResp, err := resolveFrom(host, dnstype.A, id, startNS)
	if err != nil {
		return nil, false
	}
	for _, ans := range hostResp.Answer {
		if a, ok := ans.Data.(record.A); ok {
			return a.Addr, true
		}
	}
	return nil, false
}

// isSuffix reports whether qname ends with domain, case-insensitively.
func isSuffix(qname, domain string) bool {
	return strings.HasSuffix(strings.ToLower(qname), strings.ToLower(domain))
}
