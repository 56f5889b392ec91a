// Package dnstype enumerates the DNS resource record types this resolver
// understands on the wire, per https://datatracker.ietf.org/doc/html/rfc1035#section-3.2.2.
package dnstype

import "strconv"

// QueryType is the 16-bit TYPE field of a question or resource record.
// Values this resolver does not specifically model still round-trip as
// their raw numeric value - spec.md §4.5 requires unknown types to be
// preserved, not rejected.
type QueryType uint16

const (
	A     QueryType = 1
	NS    QueryType = 2
	CNAME QueryType = 5
	MX    QueryType = 15
	AAAA  QueryType = 28
)

// String renders the mnemonic for known types and the bare decimal value
// for anything else.
func (t QueryType) String() string {
	switch t {
	case A:
		return "A"
	case NS:
		return "NS"
	case CNAME:
		return "CNAME"
	case MX:
		return "MX"
	case AAAA:
		return "AAAA"
	default:
		return strconv.Itoa(int(t))
	}
}
