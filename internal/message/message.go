// Package message assembles the header, question and resource-record
// codecs into the full DNS message codec, per spec.md §4.6.
package message

import (
	"fmt"

	"github.com/jthomson-dev/recursive-dns/internal/buffer"
	"github.com/jthomson-dev/recursive-dns/internal/header"
	"github.com/jthomson-dev/recursive-dns/internal/question"
	"github.com/jthomson-dev/recursive-dns/internal/record"
)

// Message is a full DNS packet: a header plus the four ordered sections.
type Message struct {
	Header     header.Header
	Question   []question.Question
	Answer     []record.Record
	Authority  []record.Record
	Additional []record.Record
}

// New returns an empty Message with a fresh header ID and RecursionDesired
// set - the shape a stub resolver hands to the wire.
func New(id uint16) Message {
	return Message{
		Header: header.Header{ID: id, RecursionDesired: true},
	}
}

// Unmarshal decodes a full Message from buf, reading the header's counts
// to know how many entries to pull from each section.
func Unmarshal(buf *buffer.Buffer) (Message, error) {
	var m Message

	h, err := header.Read(buf)
	if err != nil {
		return Message{}, fmt.Errorf("message: read header: %w", err)
	}
	m.Header = h

	for i := uint16(0); i < h.Questions; i++ {
		q, err := question.Read(buf)
		if err != nil {
			return Message{}, fmt.Errorf("message: read question %d: %w", i, err)
		}
		m.Question = append(m.Question, q)
	}

	m.Answer, err = readRecords(buf, h.Answers)
	if err != nil {
		return Message{}, fmt.Errorf("message: read answer section: %w", err)
	}
	m.Authority, err = readRecords(buf, h.AuthoritativeEntries)
	if err != nil {
		return Message{}, fmt.Errorf("message: read authority section: %w", err)
	}
	m.Additional, err = readRecords(buf, h.ResourceEntries)
	if err != nil {
		return Message{}, fmt.Errorf("message: read additional section: %w", err)
	}

	return m, nil
}

func readRecords(buf *buffer.Buffer, n uint16) ([]record.Record, error) {
	records := make([]record.Record, 0, n)
	for i := uint16(0); i < n; i++ {
		r, err := record.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// Marshal synchronizes the header's count fields to the current section
// lengths, then writes header, questions, answers, authorities and
// additionals in order - spec.md §3's emission invariant.
func (m Message) Marshal(buf *buffer.Buffer) error {
	m.Header.Questions = uint16(len(m.Question))
	m.Header.Answers = uint16(len(m.Answer))
	m.Header.AuthoritativeEntries = uint16(len(m.Authority))
	m.Header.ResourceEntries = uint16(len(m.Additional))

	if err := m.Header.Write(buf); err != nil {
		return fmt.Errorf("message: write header: %w", err)
	}
	for i, q := range m.Question {
		if err := q.Write(buf); err != nil {
			return fmt.Errorf("message: write question %d: %w", i, err)
		}
	}
	if err := writeRecords(buf, m.Answer); err != nil {
		return fmt.Errorf("message: write answer section: %w", err)
	}
	if err := writeRecords(buf, m.Authority); err != nil {
		return fmt.Errorf("message: write authority section: %w", err)
	}
	if err := writeRecords(buf, m.Additional); err != nil {
		return fmt.Errorf("message: write additional section: %w", err)
	}
	return nil
}

func writeRecords(buf *buffer.Buffer, records []record.Record) error {
	for i, r := range records {
		if _, err := record.Write(buf, r); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// AddQuestion appends q to the message's question section.
func (m *Message) AddQuestion(q question.Question) {
	m.Question = append(m.Question, q)
}
