// Package header encodes and decodes the fixed 12-byte DNS message header:
// https://datatracker.ietf.org/doc/html/rfc1035#section-4.1.1
//
// | Field   | Size    | Meaning                                            |
// | ------- | ------- | --------------------------------------------------|
// | ID      | 16 bits | Transaction identifier, echoed by the responder.  |
// | QR      | 1 bit   | 0 for queries, 1 for responses.                   |
// | OPCODE  | 4 bits  | Always 0 (standard query) for this resolver.      |
// | AA      | 1 bit   | Set by an authoritative responder.                |
// | TC      | 1 bit   | Set when the message was truncated to fit 512B.   |
// | RD      | 1 bit   | Set by the sender to request recursive resolution.|
// | RA      | 1 bit   | Set by the responder if it supports recursion.    |
// | Z       | 1 bit   | Reserved; round-trips as-is, never validated.     |
// | AD      | 1 bit   | Authenticated data.                               |
// | CD      | 1 bit   | Checking disabled.                                |
// | RCODE   | 4 bits  | Status of the response.                           |
// | QDCOUNT | 16 bits | Number of entries in the question section.        |
// | ANCOUNT | 16 bits | Number of entries in the answer section.          |
// | NSCOUNT | 16 bits | Number of entries in the authority section.       |
// | ARCOUNT | 16 bits | Number of entries in the additional section.      |
package header

import "github.com/jthomson-dev/recursive-dns/internal/buffer"

// ResultCode is the 4-bit RCODE field. Unknown numeric values decode to
// NOERROR - lenient ingress, per spec.md §3.
type ResultCode uint8

const (
	NOERROR  ResultCode = 0
	FORMERR  ResultCode = 1
	SERVFAIL ResultCode = 2
	NXDOMAIN ResultCode = 3
	NOTIMP   ResultCode = 4
	REFUSED  ResultCode = 5
)

// resultCodeFromUint8 maps a raw 4-bit RCODE to a ResultCode, folding any
// value outside 1-5 to NOERROR.
func resultCodeFromUint8(v uint8) ResultCode {
	switch v {
	case 1:
		return FORMERR
	case 2:
		return SERVFAIL
	case 3:
		return NXDOMAIN
	case 4:
		return NOTIMP
	case 5:
		return REFUSED
	default:
		return NOERROR
	}
}

func (r ResultCode) String() string {
	switch r {
	case NOERROR:
		return "NOERROR"
	case FORMERR:
		return "FORMERR"
	case SERVFAIL:
		return "SERVFAIL"
	case NXDOMAIN:
		return "NXDOMAIN"
	case NOTIMP:
		return "NOTIMP"
	case REFUSED:
		return "REFUSED"
	default:
		return "NOERROR"
	}
}

// Header is the fixed 12-byte section every DNS message opens with.
type Header struct {
	ID uint16

	Response            bool
	Opcode              uint8
	AuthoritativeAnswer bool
	TruncatedMessage    bool
	RecursionDesired    bool

	RecursionAvailable bool
	Z                  uint8
	AuthedData         bool
	CheckingDisabled   bool
	Rescode            ResultCode

	Questions            uint16
	Answers              uint16
	AuthoritativeEntries uint16
	ResourceEntries      uint16
}

// Read decodes a Header from buf at the current cursor, advancing it by
// exactly 12 bytes on success.
func Read(buf *buffer.Buffer) (Header, error) {
	var h Header

	id, err := buf.ReadUint16()
	if err != nil {
		return Header{}, err
	}
	h.ID = id

	a, err := buf.ReadUint8()
	if err != nil {
		return Header{}, err
	}
	b, err := buf.ReadUint8()
	if err != nil {
		return Header{}, err
	}

	h.RecursionDesired = a&(1<<0) != 0
	h.TruncatedMessage = a&(1<<1) != 0
	h.AuthoritativeAnswer = a&(1<<2) != 0
	h.Opcode = (a >> 3) & 0x0f
	h.Response = a&(1<<7) != 0

	h.Rescode = resultCodeFromUint8(b & 0x0f)
	h.CheckingDisabled = b&(1<<4) != 0
	h.AuthedData = b&(1<<5) != 0
	h.Z = (b >> 6) & 0x01
	h.RecursionAvailable = b&(1<<7) != 0

	if h.Questions, err = buf.ReadUint16(); err != nil {
		return Header{}, err
	}
	if h.Answers, err = buf.ReadUint16(); err != nil {
		return Header{}, err
	}
	if h.AuthoritativeEntries, err = buf.ReadUint16(); err != nil {
		return Header{}, err
	}
	if h.ResourceEntries, err = buf.ReadUint16(); err != nil {
		return Header{}, err
	}

	return h, nil
}

// Write encodes h to buf at the current cursor. The Z field's reserved
// bit round-trips whatever was last set on it; no validation is
// performed, matching spec.md §4.3.
func (h Header) Write(buf *buffer.Buffer) error {
	if err := buf.WriteUint16(h.ID); err != nil {
		return err
	}

	var a uint8
	if h.Response {
		a |= 1 << 7
	}
	a |= (h.Opcode & 0x0f) << 3
	if h.AuthoritativeAnswer {
		a |= 1 << 2
	}
	if h.TruncatedMessage {
		a |= 1 << 1
	}
	if h.RecursionDesired {
		a |= 1 << 0
	}
	if err := buf.WriteUint8(a); err != nil {
		return err
	}

	var b uint8
	if h.RecursionAvailable {
		b |= 1 << 7
	}
	b |= (h.Z & 0x01) << 6
	if h.AuthedData {
		b |= 1 << 5
	}
	if h.CheckingDisabled {
		b |= 1 << 4
	}
	b |= uint8(h.Rescode) & 0x0f
	if err := buf.WriteUint8(b); err != nil {
		return err
	}

	if err := buf.WriteUint16(h.Questions); err != nil {
		return err
	}
	if err := buf.WriteUint16(h.Answers); err != nil {
		return err
	}
	if err := buf.WriteUint16(h.AuthoritativeEntries); err != nil {
		return err
	}
	return buf.WriteUint16(h.ResourceEntries)
}
