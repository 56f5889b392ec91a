// Package buffer implements the fixed-size byte cursor the rest of the
// codec is built on, plus the DNS name compression scheme that reads and
// writes through it.
//
// DNS over UDP is capped at 512 bytes (RFC 1035 section 2.3.4), so every
// packet - query or response - fits in a single fixed array. That lets all
// bound checking collapse to a comparison against 512 rather than a
// reallocation concern, which is the whole reason this type exists instead
// of a plain growable []byte.
package buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Size is the fixed capacity of a Buffer, matching the UDP profile this
// codec supports. https://datatracker.ietf.org/doc/html/rfc1035#section-2.3.4
const Size = 512

// MaxLabelLength is the maximum length of a single DNS label (63 octets -
// the top two bits of the length byte are reserved for the compression
// pointer marker, leaving 6 bits of length).
const MaxLabelLength = 63

// maxJumps bounds the number of compression-pointer hops ReadName will
// follow before giving up. Five is the limit spec.md asks for; it is far
// more than any well-formed packet needs and still short-circuits a
// pointer cycle in O(1) time.
const maxJumps = 5

var (
	// ErrEndOfBuffer is returned by any read, write, peek or range
	// operation that would touch byte Size or beyond. Range also returns it
	// when start+len equals Size exactly.
	ErrEndOfBuffer = errors.New("buffer: end of buffer")
	// ErrPointerLoop is returned by ReadName when more than maxJumps
	// compression pointers are followed while decoding a single name.
	ErrPointerLoop = errors.New("buffer: compression pointer limit exceeded")
	// ErrLabelTooLong is returned by WriteName when a label exceeds
	// MaxLabelLength bytes.
	ErrLabelTooLong = errors.New("buffer: label exceeds 63 bytes")
)

// Buffer is a fixed 512-byte array with a cursor into it. Reads and writes
// advance the cursor; the Peek/Patch family of operations work at an
// absolute position and never move it.
type Buffer struct {
	buf [Size]byte
	pos int
}

// New returns an empty, zeroed Buffer positioned at byte 0.
func New() *Buffer {
	return &Buffer{}
}

// NewFromBytes copies up to Size bytes of data into a fresh Buffer
// positioned at byte 0. Used on the receive path, where a UDP datagram
// has already landed in a plain []byte.
func NewFromBytes(data []byte) *Buffer {
	b := &Buffer{}
	copy(b.buf[:], data)
	return b
}

// Pos returns the current cursor position.
func (b *Buffer) Pos() int {
	return b.pos
}

// Bytes returns the portion of the buffer written so far, i.e. [0:Pos()).
// It aliases the buffer's backing array; callers must not retain it past
// the buffer's next mutation.
func (b *Buffer) Bytes() []byte {
	return b.buf[:b.pos]
}

// Seek moves the cursor to an absolute position. No bound is enforced here
// - spec.md §4.1 only requires subsequent I/O to re-check - so a seek past
// Size is legal as long as nothing is read or written before seeking back.
func (b *Buffer) Seek(pos int) {
	b.pos = pos
}

// Step advances the cursor by delta bytes, which may be negative.
func (b *Buffer) Step(delta int) {
	b.pos += delta
}

func (b *Buffer) checkBound(pos int) error {
	if pos < 0 || pos >= Size {
		return ErrEndOfBuffer
	}
	return nil
}

// ReadUint8 consumes one byte at the cursor.
func (b *Buffer) ReadUint8() (uint8, error) {
	if err := b.checkBound(b.pos); err != nil {
		return 0, err
	}
	v := b.buf[b.pos]
	b.pos++
	return v, nil
}

// ReadUint16 consumes two bytes at the cursor, big-endian.
func (b *Buffer) ReadUint16() (uint16, error) {
	hi, err := b.ReadUint8()
	if err != nil {
		return 0, err
	}
	lo, err := b.ReadUint8()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// ReadUint32 consumes four bytes at the cursor, big-endian.
func (b *Buffer) ReadUint32() (uint32, error) {
	hi, err := b.ReadUint16()
	if err != nil {
		return 0, err
	}
	lo, err := b.ReadUint16()
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<16 | uint32(lo), nil
}

// Peek returns the byte at an absolute position without moving the
// cursor.
func (b *Buffer) Peek(pos int) (uint8, error) {
	if err := b.checkBound(pos); err != nil {
		return 0, err
	}
	return b.buf[pos], nil
}

// Range borrows len bytes starting at start. It fails if start+len would
// reach or cross Size, matching spec.md's "len(self.buf)" bound.
func (b *Buffer) Range(start, length int) ([]byte, error) {
	if start < 0 || length < 0 || start+length >= Size {
		return nil, ErrEndOfBuffer
	}
	return b.buf[start : start+length], nil
}

// WriteUint8 writes one byte at the cursor.
func (b *Buffer) WriteUint8(v uint8) error {
	if err := b.checkBound(b.pos); err != nil {
		return err
	}
	b.buf[b.pos] = v
	b.pos++
	return nil
}

// WriteUint16 writes two bytes at the cursor, big-endian.
func (b *Buffer) WriteUint16(v uint16) error {
	if err := b.WriteUint8(uint8(v >> 8)); err != nil {
		return err
	}
	return b.WriteUint8(uint8(v))
}

// WriteUint32 writes four bytes at the cursor, big-endian.
func (b *Buffer) WriteUint32(v uint32) error {
	if err := b.WriteUint16(uint16(v >> 16)); err != nil {
		return err
	}
	return b.WriteUint16(uint16(v))
}

// WriteBytes writes raw bytes at the cursor one at a time so each write
// goes through the same bound check as every other primitive.
func (b *Buffer) WriteBytes(data []byte) error {
	for _, v := range data {
		if err := b.WriteUint8(v); err != nil {
			return err
		}
	}
	return nil
}

// PatchUint16 overwrites two bytes at an absolute position without
// touching the cursor. Used to backfill RDLENGTH once the variable-length
// RDATA that follows it has actually been written.
func (b *Buffer) PatchUint16(pos int, v uint16) error {
	if err := b.checkBound(pos); err != nil {
		return err
	}
	if err := b.checkBound(pos + 1); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(b.buf[pos:pos+2], v)
	return nil
}

// ReadName decodes a dot-joined, lowercase domain name starting at the
// cursor, following RFC 1035 section 4.1.4 compression pointers.
//
// The external cursor only ever advances past the first two-byte pointer
// it meets (or to the end of an uncompressed name, if none is seen) - the
// walk that follows a pointer chain happens against an internal position
// that the caller never observes.
func (b *Buffer) ReadName() (string, error) {
	startPos := b.pos
	walkPos := b.pos
	jumped := false
	jumps := 0

	var labels []string

	for {
		lengthByte, err := b.Peek(walkPos)
		if err != nil {
			return "", err
		}

		if lengthByte&0xc0 == 0xc0 {
			if jumps >= maxJumps {
				return "", ErrPointerLoop
			}
			second, err := b.Peek(walkPos + 1)
			if err != nil {
				return "", err
			}
			if !jumped {
				b.Seek(startPos + 2)
				jumped = true
			}
			offset := (uint16(lengthByte&0x3f) << 8) | uint16(second)
			walkPos = int(offset)
			jumps++
			continue
		}

		walkPos++
		if lengthByte == 0 {
			break
		}

		label, err := b.Range(walkPos, int(lengthByte))
		if err != nil {
			return "", err
		}
		labels = append(labels, strings.ToLower(string(label)))
		walkPos += int(lengthByte)
	}

	if !jumped {
		b.Seek(walkPos)
	}

	return strings.Join(labels, "."), nil
}

// WriteName encodes name as a sequence of length-prefixed labels
// terminated by a zero byte. Compression is never produced on encode -
// spec.md §4.2 calls this out explicitly as a simplification that is still
// wire-valid.
func (b *Buffer) WriteName(name string) error {
	if name == "" {
		return b.WriteUint8(0)
	}
	for _, label := range strings.Split(name, ".") {
		if len(label) > MaxLabelLength {
			return fmt.Errorf("%w: %q is %d bytes", ErrLabelTooLong, label, len(label))
		}
		if err := b.WriteUint8(uint8(len(label))); err != nil {
			return err
		}
		if err := b.WriteBytes([]byte(label)); err != nil {
			return err
		}
	}
	return b.WriteUint8(0)
}
