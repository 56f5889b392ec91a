// Package question encodes and decodes the DNS question section entry:
// a name, a query type, and a class that this resolver always writes as IN.
package question

import (
	"github.com/jthomson-dev/recursive-dns/internal/buffer"
	"github.com/jthomson-dev/recursive-dns/internal/dnsclass"
	"github.com/jthomson-dev/recursive-dns/internal/dnstype"
)

// Question is one entry of a message's question section.
type Question struct {
	Name string
	Type dnstype.QueryType
}

// Read decodes a Question at the current cursor. The class field is
// consumed but discarded - every query this resolver issues and expects is
// IN, and spec.md §4.4 does not ask for anything else to be rejected.
func Read(buf *buffer.Buffer) (Question, error) {
	name, err := buf.ReadName()
	if err != nil {
		return Question{}, err
	}
	qtype, err := buf.ReadUint16()
	if err != nil {
		return Question{}, err
	}
	if _, err := buf.ReadUint16(); err != nil {
		return Question{}, err
	}
	return Question{Name: name, Type: dnstype.QueryType(qtype)}, nil
}

// Write encodes q at the current cursor, always writing class IN.
func (q Question) Write(buf *buffer.Buffer) error {
	if err := buf.WriteName(q.Name); err != nil {
		return err
	}
	if err := buf.WriteUint16(uint16(q.Type)); err != nil {
		return err
	}
	return buf.WriteUint16(uint16(dnsclass.IN))
}
