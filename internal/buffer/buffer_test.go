package buffer

import (
	"errors"
	"testing"
)

func TestReadWriteUint8(t *testing.T) {
	b := New()
	if err := b.WriteUint8(0xAB); err != nil {
		t.Fatalf("WriteUint8 failed: %v", err)
	}
	b.Seek(0)
	got, err := b.ReadUint8()
	if err != nil {
		t.Fatalf("ReadUint8 failed: %v", err)
	}
	if got != 0xAB {
		t.Errorf("expected 0xAB, got %#x", got)
	}
}

func TestReadWriteUint16BigEndian(t *testing.T) {
	b := New()
	if err := b.WriteUint16(0x1234); err != nil {
		t.Fatalf("WriteUint16 failed: %v", err)
	}
	if b.Bytes()[0] != 0x12 || b.Bytes()[1] != 0x34 {
		t.Fatalf("expected big-endian 12 34, got %02x %02x", b.Bytes()[0], b.Bytes()[1])
	}
	b.Seek(0)
	got, err := b.ReadUint16()
	if err != nil {
		t.Fatalf("ReadUint16 failed: %v", err)
	}
	if got != 0x1234 {
		t.Errorf("expected 0x1234, got %#x", got)
	}
}

func TestReadWriteUint32BigEndian(t *testing.T) {
	b := New()
	if err := b.WriteUint32(0xDEADBEEF); err != nil {
		t.Fatalf("WriteUint32 failed: %v", err)
	}
	b.Seek(0)
	got, err := b.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32 failed: %v", err)
	}
	if got != 0xDEADBEEF {
		t.Errorf("expected 0xDEADBEEF, got %#x", got)
	}
}

func TestPeekDoesNotMoveCursor(t *testing.T) {
	b := New()
	_ = b.WriteUint8(1)
	_ = b.WriteUint8(2)
	b.Seek(0)
	v, err := b.Peek(1)
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if v != 2 {
		t.Errorf("expected 2, got %d", v)
	}
	if b.Pos() != 0 {
		t.Errorf("Peek must not move the cursor, pos is %d", b.Pos())
	}
}

func TestPatchUint16DoesNotMoveCursor(t *testing.T) {
	b := New()
	_ = b.WriteUint16(0)
	_ = b.WriteUint16(0)
	b.Seek(4)
	if err := b.PatchUint16(0, 0xBEEF); err != nil {
		t.Fatalf("PatchUint16 failed: %v", err)
	}
	if b.Pos() != 4 {
		t.Errorf("PatchUint16 must not move the cursor, pos is %d", b.Pos())
	}
	b.Seek(0)
	got, _ := b.ReadUint16()
	if got != 0xBEEF {
		t.Errorf("expected patched value 0xBEEF, got %#x", got)
	}
}

func TestBoundSafetyRead(t *testing.T) {
	b := New()
	b.Seek(Size)
	if _, err := b.ReadUint8(); !errors.Is(err, ErrEndOfBuffer) {
		t.Errorf("expected ErrEndOfBuffer, got %v", err)
	}
}

func TestBoundSafetyWrite(t *testing.T) {
	b := New()
	b.Seek(Size - 1)
	if err := b.WriteUint16(1); !errors.Is(err, ErrEndOfBuffer) {
		t.Errorf("expected ErrEndOfBuffer writing 2 bytes at the last byte, got %v", err)
	}
}

func TestRangeBoundSafety(t *testing.T) {
	b := New()
	if _, err := b.Range(500, 20); !errors.Is(err, ErrEndOfBuffer) {
		t.Errorf("expected ErrEndOfBuffer, got %v", err)
	}
}

func TestNameRoundTrip(t *testing.T) {
	b := New()
	if err := b.WriteName("Google.COM"); err != nil {
		t.Fatalf("WriteName failed: %v", err)
	}
	b.Seek(0)
	got, err := b.ReadName()
	if err != nil {
		t.Fatalf("ReadName failed: %v", err)
	}
	if got != "google.com" {
		t.Errorf("expected lowercased round trip, got %q", got)
	}
}

func TestWriteNameLabelTooLong(t *testing.T) {
	b := New()
	longLabel := make([]byte, 64)
	for i := range longLabel {
		longLabel[i] = 'a'
	}
	err := b.WriteName(string(longLabel) + ".com")
	if !errors.Is(err, ErrLabelTooLong) {
		t.Errorf("expected ErrLabelTooLong, got %v", err)
	}
}

func TestReadNameFollowsSinglePointer(t *testing.T) {
	b := New()
	b.Seek(0)
	_ = b.WriteName("example.com")
	afterFirst := b.Pos()

	// A second question references the first name via a compression
	// pointer pointing back at offset 0.
	_ = b.WriteUint8(0xc0)
	_ = b.WriteUint8(0x00)
	pointerEnd := b.Pos()

	b.Seek(afterFirst)
	got, err := b.ReadName()
	if err != nil {
		t.Fatalf("ReadName via pointer failed: %v", err)
	}
	if got != "example.com" {
		t.Errorf("expected example.com via pointer, got %q", got)
	}
	if b.Pos() != pointerEnd {
		t.Errorf("expected cursor to land right after the 2-byte pointer at %d, got %d", pointerEnd, b.Pos())
	}
}

func TestReadNameSelfReferentialPointerLoops(t *testing.T) {
	b := New()
	b.Seek(10)
	_ = b.WriteUint8(0xc0)
	_ = b.WriteUint8(10) // points at itself

	b.Seek(10)
	if _, err := b.ReadName(); !errors.Is(err, ErrPointerLoop) {
		t.Errorf("expected ErrPointerLoop for a self-referential pointer, got %v", err)
	}
}

// buildPointerChain writes n pointers, each pointing at the previous one,
// terminating in a real label at offset 0. Reading from the last pointer
// written follows exactly n jumps.
func buildPointerChain(b *Buffer, n int) (readFrom int) {
	b.Seek(0)
	_ = b.WriteName("chain.test")
	prev := 0
	for i := 0; i < n; i++ {
		readFrom = b.Pos()
		_ = b.WriteUint8(0xc0 | byte(prev>>8))
		_ = b.WriteUint8(byte(prev))
		prev = readFrom
	}
	return readFrom
}

func TestReadNameFiveJumpChainSucceeds(t *testing.T) {
	b := New()
	start := buildPointerChain(b, 5)
	b.Seek(start)
	got, err := b.ReadName()
	if err != nil {
		t.Fatalf("a 5-jump chain must succeed, got error: %v", err)
	}
	if got != "chain.test" {
		t.Errorf("expected chain.test, got %q", got)
	}
}

func TestReadNameSixJumpChainFails(t *testing.T) {
	b := New()
	start := buildPointerChain(b, 6)
	b.Seek(start)
	if _, err := b.ReadName(); !errors.Is(err, ErrPointerLoop) {
		t.Errorf("expected ErrPointerLoop for a 6-jump chain, got %v", err)
	}
}
