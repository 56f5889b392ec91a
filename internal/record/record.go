// Package record implements the tagged-variant Resource Record model and
// its codec over the Frame Buffer, per spec.md §4.5.
//
// A Record is modeled as a sealed interface rather than a single struct
// with every field a setter could touch - the Data variants are mutually
// exclusive by construction, so a caller can never build an A record that
// also carries an MX priority.
package record

import (
	"fmt"
	"net"

	"github.com/jthomson-dev/recursive-dns/internal/buffer"
	"github.com/jthomson-dev/recursive-dns/internal/dnsclass"
	"github.com/jthomson-dev/recursive-dns/internal/dnstype"
)

// Data is the RDATA payload of a Record. The recordData marker method is
// unexported, so only the variants declared in this package can implement
// it - a sealed interface rather than an open one.
type Data interface {
	recordData()
	queryType() dnstype.QueryType
}

// A is an IPv4 address record.
type A struct {
	Addr net.IP
}

// AAAA is an IPv6 address record.
type AAAA struct {
	Addr net.IP
}

// NS is a nameserver delegation record.
type NS struct {
	Host string
}

// CNAME is a canonical-name alias record.
type CNAME struct {
	Host string
}

// MX is a mail-exchange record.
type MX struct {
	Priority uint16
	Host     string
}

// Unknown preserves an RR whose type this resolver does not model. Its
// RDATA is never decoded and it is silently dropped from encoded output.
type Unknown struct {
	QType   uint16
	DataLen uint16
}

func (A) recordData()       {}
func (AAAA) recordData()    {}
func (NS) recordData()      {}
func (CNAME) recordData()   {}
func (MX) recordData()      {}
func (Unknown) recordData() {}

func (A) queryType() dnstype.QueryType       { return dnstype.A }
func (AAAA) queryType() dnstype.QueryType    { return dnstype.AAAA }
func (NS) queryType() dnstype.QueryType      { return dnstype.NS }
func (CNAME) queryType() dnstype.QueryType   { return dnstype.CNAME }
func (MX) queryType() dnstype.QueryType      { return dnstype.MX }
func (u Unknown) queryType() dnstype.QueryType { return dnstype.QueryType(u.QType) }

// Record is one entry of a message's answer, authority or additional
// section: a domain name, a TTL, and a type-tagged payload.
type Record struct {
	Domain string
	TTL    uint32
	Data   Data
}

// Read decodes a Record at the current cursor, dispatching RDATA
// interpretation on the wire qtype per spec.md §4.5.
func Read(buf *buffer.Buffer) (Record, error) {
	domain, err := buf.ReadName()
	if err != nil {
		return Record{}, fmt.Errorf("record: read domain: %w", err)
	}
	qtypeRaw, err := buf.ReadUint16()
	if err != nil {
		return Record{}, fmt.Errorf("record: read qtype: %w", err)
	}
	if _, err := buf.ReadUint16(); err != nil {
		return Record{}, fmt.Errorf("record: read class: %w", err)
	}
	ttl, err := buf.ReadUint32()
	if err != nil {
		return Record{}, fmt.Errorf("record: read ttl: %w", err)
	}
	rdlength, err := buf.ReadUint16()
	if err != nil {
		return Record{}, fmt.Errorf("record: read rdlength: %w", err)
	}

	qtype := dnstype.QueryType(qtypeRaw)

	var data Data
	switch qtype {
	case dnstype.A:
		raw, err := buf.Range(buf.Pos(), 4)
		if err != nil {
			return Record{}, fmt.Errorf("record: read A rdata: %w", err)
		}
		buf.Step(4)
		data = A{Addr: net.IPv4(raw[0], raw[1], raw[2], raw[3])}

	case dnstype.AAAA:
		raw, err := buf.Range(buf.Pos(), 16)
		if err != nil {
			return Record{}, fmt.Errorf("record: read AAAA rdata: %w", err)
		}
		buf.Step(16)
		ip := make(net.IP, 16)
		copy(ip, raw)
		data = AAAA{Addr: ip}

	case dnstype.NS:
		host, err := buf.ReadName()
		if err != nil {
			return Record{}, fmt.Errorf("record: read NS rdata: %w", err)
		}
		data = NS{Host: host}

	case dnstype.CNAME:
		host, err := buf.ReadName()
		if err != nil {
			return Record{}, fmt.Errorf("record: read CNAME rdata: %w", err)
		}
		data = CNAME{Host: host}

	case dnstype.MX:
		priority, err := buf.ReadUint16()
		if err != nil {
			return Record{}, fmt.Errorf("record: read MX priority: %w", err)
		}
		host, err := buf.ReadName()
		if err != nil {
			return Record{}, fmt.Errorf("record: read MX rdata: %w", err)
		}
		data = MX{Priority: priority, Host: host}

	default:
		buf.Step(int(rdlength))
		data = Unknown{QType: qtypeRaw, DataLen: rdlength}
	}

	return Record{Domain: domain, TTL: ttl, Data: data}, nil
}

// Write encodes r at the current cursor and returns the number of bytes
// written. Unknown records are silently dropped and Write returns (0, nil).
func Write(buf *buffer.Buffer, r Record) (int, error) {
	if _, ok := r.Data.(Unknown); ok {
		return 0, nil
	}

	start := buf.Pos()

	if err := buf.WriteName(r.Domain); err != nil {
		return 0, fmt.Errorf("record: write domain: %w", err)
	}
	if err := buf.WriteUint16(uint16(r.Data.queryType())); err != nil {
		return 0, fmt.Errorf("record: write qtype: %w", err)
	}
	if err := buf.WriteUint16(uint16(dnsclass.IN)); err != nil {
		return 0, fmt.Errorf("record: write class: %w", err)
	}
	if err := buf.WriteUint32(r.TTL); err != nil {
		return 0, fmt.Errorf("record: write ttl: %w", err)
	}

	switch d := r.Data.(type) {
	case A:
		ip4 := d.Addr.To4()
		if ip4 == nil {
			return 0, fmt.Errorf("record: %q: A record address is not IPv4", r.Domain)
		}
		if err := buf.WriteUint16(4); err != nil {
			return 0, err
		}
		if err := buf.WriteBytes(ip4); err != nil {
			return 0, fmt.Errorf("record: write A rdata: %w", err)
		}

	case AAAA:
		ip16 := d.Addr.To16()
		if ip16 == nil {
			return 0, fmt.Errorf("record: %q: AAAA record address is not IPv6", r.Domain)
		}
		if err := buf.WriteUint16(16); err != nil {
			return 0, err
		}
		if err := buf.WriteBytes(ip16); err != nil {
			return 0, fmt.Errorf("record: write AAAA rdata: %w", err)
		}

	case NS:
		if err := writeVariableRDATA(buf, func() error { return buf.WriteName(d.Host) }); err != nil {
			return 0, fmt.Errorf("record: write NS rdata: %w", err)
		}

	case CNAME:
		if err := writeVariableRDATA(buf, func() error { return buf.WriteName(d.Host) }); err != nil {
			return 0, fmt.Errorf("record: write CNAME rdata: %w", err)
		}

	case MX:
		if err := writeVariableRDATA(buf, func() error {
			if err := buf.WriteUint16(d.Priority); err != nil {
				return err
			}
			return buf.WriteName(d.Host)
		}); err != nil {
			return 0, fmt.Errorf("record: write MX rdata: %w", err)
		}

	default:
		return 0, fmt.Errorf("record: %q: unencodable rdata type %T", r.Domain, r.Data)
	}

	return buf.Pos() - start, nil
}

// writeVariableRDATA emits a 16-bit placeholder, runs writeBody to produce
// the RDATA, then back-patches the placeholder with the measured length -
// spec.md §4.5's required placeholder-then-patch sequence for variable
// length RDATA.
func writeVariableRDATA(buf *buffer.Buffer, writeBody func() error) error {
	placeholder := buf.Pos()
	if err := buf.WriteUint16(0); err != nil {
		return err
	}
	bodyStart := buf.Pos()
	if err := writeBody(); err != nil {
		return err
	}
	length := buf.Pos() - bodyStart
	return buf.PatchUint16(placeholder, uint16(length))
}
